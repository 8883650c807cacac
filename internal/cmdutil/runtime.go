// Package cmdutil holds the scaffolding shared by every cmd/<service>/main.go
// binary: logger/telemetry/metrics bring-up, signal-driven shutdown under an
// errgroup, and the status subcommand's table rendering, so each binary's
// main.go stays a thin wiring of its own protocol engine into this harness.
package cmdutil

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/protohackers/suite/internal/logger"
	"github.com/protohackers/suite/internal/telemetry"
	"github.com/protohackers/suite/pkg/config"
	"github.com/protohackers/suite/pkg/metrics"
)

// Bootstrap initializes logging, tracing, and the metrics registry for
// service, in the order the teacher's own start command uses: logger first
// so every subsequent message is structured, then telemetry, then metrics.
// The returned shutdown must be deferred by the caller.
func Bootstrap(ctx context.Context, service string, base config.Base, version string) (shutdown func(context.Context) error, reg *metrics.Registry, err error) {
	if err := logger.Init(logger.Config{Level: base.LogLevel, Format: base.LogFormat}); err != nil {
		return nil, nil, fmt.Errorf("cmdutil: initializing logger: %w", err)
	}

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        base.Telemetry.Enabled,
		ServiceName:    service,
		ServiceVersion: version,
		Endpoint:       base.Telemetry.Endpoint,
		Insecure:       base.Telemetry.Insecure,
		SampleRate:     base.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cmdutil: initializing telemetry: %w", err)
	}

	reg = metrics.NewRegistry(service)
	logger.InfoCtx(ctx, "service starting", logger.Service(service), "version", version)
	return telemetryShutdown, reg, nil
}

// RunGroup runs serve (the protocol engine's accept loop) and, if metricsAddr
// is non-empty, the metrics HTTP server, under one errgroup cancelled by
// SIGINT/SIGTERM or by either component's failure — matching §10's
// errgroup-supervises-everything wiring.
func RunGroup(ctx context.Context, metricsAddr string, reg *metrics.Registry, serve func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(gctx) })

	if metricsSrv := metrics.NewServer(metricsAddr, reg); metricsSrv != nil {
		g.Go(func() error { return metricsSrv.Start(gctx) })
	}

	return g.Wait()
}

// FetchHealth dials addr's /healthz endpoint for the status subcommand,
// reporting whether the service answered.
func FetchHealth(addr string) (ok bool, latency time.Duration, err error) {
	client := http.Client{Timeout: 2 * time.Second}
	start := time.Now()
	resp, err := client.Get("http://" + addr + "/healthz")
	if err != nil {
		return false, 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, time.Since(start), nil
}
