package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "mempool.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return tmpFile
}

func TestLoad_Defaults(t *testing.T) {
	// keep a config in the real home directory out of the test
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	baseURL, err := cfg.ResolvedBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://mempool.space/api", baseURL)
}

func TestLoad_CompareFullStruct(t *testing.T) {
	tmpFile := writeConfig(t, `
network: signet
baseUrl: "http://localhost:8999/api"
timeout: 5s
retries: 3
retryWait: 250ms
userAgent: "mempool-cli/test"
metricsAddr: "127.0.0.1:9100"
trace: true
traceOtlp: true
gapLimit: 50
concurrency: 8
`)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	expected := &Config{
		Network:     "signet",
		BaseURL:     "http://localhost:8999/api",
		Timeout:     5 * time.Second,
		Retries:     3,
		RetryWait:   250 * time.Millisecond,
		UserAgent:   "mempool-cli/test",
		MetricsAddr: "127.0.0.1:9100",
		Trace:       true,
		TraceOTLP:   true,
		GapLimit:    50,
		Concurrency: 8,
	}
	assert.Equal(t, expected, cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "network: testnet4\n"))
	require.NoError(t, err)
	assert.Equal(t, "testnet4", cfg.Network)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, uint32(DefaultGapLimit), cfg.GapLimit)

	baseURL, err := cfg.ResolvedBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://mempool.space/testnet4/api", baseURL)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	tmpFile := writeConfig(t, "network: testnet\nretries: 1\n")
	t.Setenv("MEMPOOL_NETWORK", "signet")
	t.Setenv("MEMPOOL_BASE_URL", "https://mempool.example/api")
	t.Setenv("MEMPOOL_RETRIES", "4")
	t.Setenv("MEMPOOL_RETRY_WAIT", "2s")
	t.Setenv("MEMPOOL_GAP_LIMIT", "30")
	t.Setenv("MEMPOOL_TRACE_OTLP", "true")

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "signet", cfg.Network)
	assert.Equal(t, "https://mempool.example/api", cfg.BaseURL)
	assert.Equal(t, 4, cfg.Retries)
	assert.Equal(t, 2*time.Second, cfg.RetryWait)
	assert.Equal(t, uint32(30), cfg.GapLimit)
	assert.True(t, cfg.TraceOTLP)
}

func TestLoad_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".mempool"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".mempool", "mempool.yaml"), []byte("concurrency: 2\n"), 0o644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "network: [\n"},
		{"unknown network", "network: dogecoin\n"},
		{"regtest without url", "network: regtest\n"},
		{"negative retries", "retries: -1\n"},
		{"zero timeout", "timeout: 0s\n"},
		{"zero concurrency", "concurrency: 0\n"},
		{"zero gap limit", "gapLimit: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	t.Setenv("MEMPOOL_TIMEOUT", "soon")
	_, err = LoadConfig(writeConfig(t, ""))
	require.Error(t, err)
}

func TestRegtestWithBaseURL(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "network: regtest\nbaseUrl: http://127.0.0.1:3002/api\n"))
	require.NoError(t, err)
	baseURL, err := cfg.ResolvedBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3002/api", baseURL)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
