package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/chinmay1088/mempool/api"
	"github.com/chinmay1088/mempool/internal/config"
	"github.com/chinmay1088/mempool/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// state holds what loadRuntime built for the running command
var state struct {
	client         *api.Client
	metricsServer  *http.Server
	tracerProvider *sdktrace.TracerProvider
}

// openRuntime builds the transport chain HTTP -> metrics -> tracing and the client on top of it
func openRuntime(ctx context.Context, cfg *config.Config) error {
	baseURL, err := cfg.ResolvedBaseURL()
	if err != nil {
		return err
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = programName + "/" + version
	}
	var tr api.Transport = transport.NewHTTP(
		transport.WithTimeout(cfg.Timeout),
		transport.WithRetries(cfg.Retries),
		transport.WithRetryWait(cfg.RetryWait),
		transport.WithUserAgent(userAgent),
		transport.WithLogger(slog.Default().With("component", "transport")),
	)

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		tr = transport.NewMetrics(tr, reg)
		startMetricsServer(cfg.MetricsAddr, reg)
	}

	if cfg.Trace {
		tp, err := setupTracing(ctx, cfg.TraceOTLP)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		state.tracerProvider = tp
		tr = transport.NewTracing(tr, tp)
	}

	client, err := api.NewClient(baseURL, tr)
	if err != nil {
		return err
	}
	state.client = client
	slog.Debug("client ready",
		"network", cfg.Network,
		"url", baseURL,
		"retries", cfg.Retries,
		"trace", cfg.Trace,
	)
	return nil
}

func startMetricsServer(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	state.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	slog.Info("serving prometheus metrics on "+addr, "component", programName)
	go func(server *http.Server) {
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			slog.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", programName,
			)
		}
	}(state.metricsServer)
}

// setupTracing exports spans to stderr, or over OTLP/HTTP using the
// standard OTEL_EXPORTER_OTLP_* environment variables
func setupTracing(ctx context.Context, otlp bool) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	if otlp {
		exporter, err = otlptracehttp.New(ctx)
	} else {
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(os.Stderr),
			stdouttrace.WithPrettyPrint(),
		)
	}
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", programName),
			attribute.String("service.version", version),
		)),
	)
	return tp, nil
}

// closeRuntime flushes spans and stops the metrics listener
func closeRuntime(ctx context.Context) error {
	var errs []error
	if state.tracerProvider != nil {
		if err := state.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
		state.tracerProvider = nil
	}
	if state.metricsServer != nil {
		if err := state.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metrics listener: %w", err))
		}
		state.metricsServer = nil
	}
	state.client = nil
	return errors.Join(errs...)
}
