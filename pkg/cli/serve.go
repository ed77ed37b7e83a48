/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/cortex/pkg/api"
	"github.com/carverauto/cortex/pkg/backend"
	"github.com/carverauto/cortex/pkg/config"
	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/metrics"
	"github.com/carverauto/cortex/pkg/monitor"
	"github.com/carverauto/cortex/pkg/natsutil"
	"github.com/carverauto/cortex/pkg/version"
)

const backendProbeInterval = 30 * time.Second

// RunServe runs the console service until ctx is cancelled.
func RunServe(ctx context.Context, cfg *CmdConfig) error {
	bootLogger, err := logger.New(logger.DefaultConfig())
	if err != nil {
		return err
	}

	consoleCfg, err := loadConfig(ctx, cfg, bootLogger)
	if err != nil {
		return err
	}

	mainLogger, err := logger.New(consoleCfg.Logging)
	if err != nil {
		return err
	}

	mainLogger = mainLogger.WithComponent("console")

	rec := metrics.NewNoop()

	metricsOpt := api.WithMetrics(rec, nil)

	if consoleCfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		prom := metrics.NewPrometheus(reg)
		rec = prom
		metricsOpt = api.WithMetrics(prom, metrics.Handler(reg))
	}

	client, err := backend.NewHTTPClient(backend.HTTPClientConfig{
		BaseURL: consoleCfg.Backend.BaseURL,
		Timeout: consoleCfg.Backend.Timeout.Std(),
		Logger:  mainLogger.WithComponent("backend"),
		Metrics: rec,
	})
	if err != nil {
		return err
	}

	hub, closers, err := buildHub(ctx, consoleCfg, mainLogger, rec)
	if err != nil {
		return err
	}

	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				mainLogger.Warn().Err(err).Msg("Error during shutdown")
			}
		}
	}()

	provider := backend.NewSchemaProvider(client, mainLogger.WithComponent("schema"))
	if schema, err := provider.Schema(ctx); err != nil {
		mainLogger.Warn().Err(err).Msg("Feature schema not available, it will be reloaded once the backend is reachable")
	} else {
		mainLogger.Info().Int("columns", len(schema)).Msg("Feature schema loaded")
	}

	server := api.NewAPIServer(consoleCfg.CORS, client,
		api.WithLogger(mainLogger.WithComponent("api")),
		metricsOpt,
		api.WithHub(hub),
		api.WithSchemaProvider(provider),
		api.WithSessionTTL(consoleCfg.SessionTTL.Std()),
	)

	mainLogger.Info().
		Str("version", version.GetFullVersion()).
		Str("listen_addr", consoleCfg.ListenAddr).
		Str("backend", client.BaseURL()).
		Bool("metrics", consoleCfg.Metrics.Enabled).
		Msg("Starting Cortex console")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(gctx, consoleCfg.ListenAddr)
	})

	g.Go(func() error {
		probeBackend(gctx, client, provider, mainLogger, backendProbeInterval)
		return nil
	})

	return g.Wait()
}

// buildHub wires the optional GeoIP enricher and NATS publisher into
// the monitor. The returned closers release them.
func buildHub(ctx context.Context, cfg *config.ConsoleConfig, log logger.Logger, rec metrics.Recorder) (*monitor.Hub, []io.Closer, error) {
	opts := []monitor.Option{
		monitor.WithLogger(log.WithComponent("monitor")),
		monitor.WithMetrics(rec),
	}

	var closers []io.Closer

	if cfg.Monitor.GeoIPDB != "" {
		geo, err := monitor.OpenGeoIP(cfg.Monitor.GeoIPDB, log)
		if err != nil {
			return nil, nil, err
		}

		closers = append(closers, geo)
		opts = append(opts, monitor.WithEnricher(geo))
	}

	if cfg.Monitor.NATSURL != "" {
		pub, err := natsutil.Connect(ctx, cfg.Monitor.NATSURL, natsutil.DefaultStream, cfg.Monitor.NATSSubject, log.WithComponent("nats"))
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}

			return nil, nil, err
		}

		closers = append(closers, pub)
		opts = append(opts, monitor.WithPublisher(pub))
	}

	return monitor.NewHub(cfg.Monitor.BufferSize, opts...), closers, nil
}

// probeBackend logs backend health transitions until ctx is done. While
// no schema is cached, each successful check reloads it.
func probeBackend(ctx context.Context, client backend.Client, schema *backend.SchemaProvider, log logger.Logger, interval time.Duration) {
	healthy := true

	check := func() {
		probeCtx, cancel := context.WithTimeout(ctx, interval/2)
		defer cancel()

		status, err := client.Health(probeCtx)

		switch {
		case err != nil && healthy:
			healthy = false

			log.Warn().Err(err).Msg("Detection backend unreachable")
		case err == nil && !healthy:
			healthy = true

			log.Info().Str("status", status.Status).Msg("Detection backend reachable again")
		}

		if err == nil && !schema.Loaded() {
			_, _ = schema.Reload(probeCtx)
		}
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
