package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chinmay1088/mempool/api"
	"github.com/chinmay1088/mempool/internal/config"
	"github.com/chinmay1088/mempool/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxid = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

func TestParseTxid(t *testing.T) {
	txid, err := parseTxid(" " + testTxid + "\n")
	require.NoError(t, err)
	assert.Equal(t, testTxid, txid.String())

	for _, bad := range []string{"", "abcd", testTxid + "00", "zz" + testTxid[2:]} {
		_, err := parseTxid(bad)
		assert.Error(t, err, bad)
	}
}

func TestScanBranches(t *testing.T) {
	branches, err := scanBranches("both")
	require.NoError(t, err)
	assert.Equal(t, []uint32{wallet.BranchExternal, wallet.BranchChange}, branches)

	branches, err = scanBranches("Change")
	require.NoError(t, err)
	assert.Equal(t, []uint32{wallet.BranchChange}, branches)

	_, err = scanBranches("savings")
	require.Error(t, err)
}

func TestNetValue(t *testing.T) {
	const addr = "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"
	tx := api.AddressTx{
		Vin: []api.Vin{
			{Prevout: &api.Vout{ScriptpubkeyAddress: addr, Value: 5000}},
			{Prevout: &api.Vout{ScriptpubkeyAddress: "bc1qother", Value: 7000}},
			{IsCoinbase: true},
		},
		Vout: []api.Vout{
			{ScriptpubkeyAddress: "bc1qother", Value: 9000},
			{ScriptpubkeyAddress: addr, Value: 1500},
		},
	}
	assert.EqualValues(t, -3500, netValue(tx, addr))
	assert.EqualValues(t, 2000, netValue(tx, "bc1qother"))
}

func TestWriteCSV(t *testing.T) {
	const addr = "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"
	height := uint32(840000)
	txid := chainhash.HashH([]byte("funding"))
	tx := api.AddressTx{
		Txid:   txid,
		Vout:   []api.Vout{{ScriptpubkeyAddress: addr, Value: 150_000}},
		Status: api.Status{Confirmed: true, BlockHeight: &height},
	}
	last := uint32(3)
	result := &wallet.ScanResult{
		Branch: wallet.BranchExternal,
		Addresses: []wallet.AddressActivity{{
			Index:    3,
			Address:  addr,
			Txs:      []api.AddressTx{tx},
			Txids:    []chainhash.Hash{txid},
			Received: 150_000,
		}},
		LastActive: &last,
		Scanned:    24,
	}
	export := newScanExport("mainnet", "xpub-test", []*wallet.ScanResult{result})
	assert.EqualValues(t, 150_000, export.Balance)

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, export))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{
		"mainnet", "0", "3", addr, txid.String(), "true", "840000", "150000", "0", "0.00150000 BTC",
	}, records[1])
}

type closeFailer struct {
	bytes.Buffer
	closed bool
}

func (c *closeFailer) Close() error {
	c.closed = true
	return errors.New("disk full")
}

func TestWriteAndCloseReportsCloseError(t *testing.T) {
	w := &closeFailer{}
	err := writeAndClose(w, newScanExport("mainnet", "xpub-test", nil))
	require.EqualError(t, err, "disk full")
	assert.True(t, w.closed)
	assert.Contains(t, w.String(), "network,branch,index")
}

func TestWriteExportFiles(t *testing.T) {
	dir := t.TempDir()
	exportDir, err := prepareExportDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, exportDir)

	export := newScanExport("signet", "tpub-test", nil)
	written, err := writeExportFiles(export, exportDir, true, true)
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.FileExists(t, written[0])
	assert.FileExists(t, written[1])
	assert.Contains(t, written[0], "mempool_scan_signet_")
}

func TestOpenRuntime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/blocks/tip/height":
			_, _ = w.Write([]byte("840000"))
		case "/api/block-height/840000":
			_, _ = w.Write([]byte("0000000000000000000320283a032748cef8227873ff4872689bf23f1cda83a5"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.BaseURL = server.URL + "/api"
	cfg.Timeout = 5 * time.Second
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.Trace = true
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	require.NoError(t, openRuntime(ctx, cfg))
	defer func() {
		require.NoError(t, closeRuntime(ctx))
		assert.Nil(t, state.client)
	}()
	require.NotNil(t, state.client)
	assert.Equal(t, server.URL+"/api", state.client.BaseURL())

	height, err := state.client.GetTipHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(840000), height)

	hash, err := resolveBlockHash(ctx, state.client, "840000")
	require.NoError(t, err)
	assert.Equal(t, "0000000000000000000320283a032748cef8227873ff4872689bf23f1cda83a5", hash.String())

	hash, err = resolveBlockHash(ctx, state.client, testTxid)
	require.NoError(t, err)
	assert.Equal(t, testTxid, hash.String())

	_, err = resolveBlockHash(ctx, state.client, "tip")
	require.Error(t, err)
}

func TestCollectHistory(t *testing.T) {
	const address = "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"
	addr, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
	require.NoError(t, err)

	history := make([]api.AddressTx, 60)
	for i := range history {
		history[i].Txid = chainhash.HashH([]byte(fmt.Sprintf("tx-%d", i)))
	}
	var requests int
	client, err := api.NewClient("https://service.example/api", api.TransportFunc(
		func(ctx context.Context, method api.Method, rawURL string, body []byte) ([]byte, error) {
			requests++
			u, err := url.Parse(rawURL)
			if err != nil {
				return nil, err
			}
			start := 0
			for i, tx := range history {
				if u.Query().Get("after_txid") == tx.Txid.String() {
					start = i + 1
				}
			}
			end := min(start+api.AddressTxsPageSize, len(history))
			return json.Marshal(history[start:end])
		}))
	require.NoError(t, err)
	ctx := context.Background()

	txs, more, err := collectHistory(ctx, client, addr, 1)
	require.NoError(t, err)
	assert.Len(t, txs, api.AddressTxsPageSize)
	assert.True(t, more)
	assert.Equal(t, 1, requests)

	requests = 0
	txs, more, err = collectHistory(ctx, client, addr, 0)
	require.NoError(t, err)
	require.Len(t, txs, 60)
	assert.False(t, more)
	assert.Equal(t, 3, requests)
	assert.Equal(t, history[59].Txid, txs[59].Txid)
}

func TestListNetworks(t *testing.T) {
	infos, err := listNetworks("signet", "http://localhost:8999/api")
	require.NoError(t, err)
	require.Len(t, infos, 5)

	byName := map[string]networkInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	assert.Equal(t, "bc", byName["mainnet"].HRP)
	assert.Equal(t, api.MainnetBaseURL, byName["mainnet"].BaseURL)
	assert.True(t, byName["signet"].Current)
	assert.Equal(t, "http://localhost:8999/api", byName["signet"].BaseURL)
	assert.Equal(t, "bcrt", byName["regtest"].HRP)
	assert.Empty(t, byName["regtest"].BaseURL)
}
