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

// Package api provides the HTTP API of the Cortex console: manual entry
// sessions, CSV uploads and the live threat monitor.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/cortex/pkg/backend"
	cortexhttp "github.com/carverauto/cortex/pkg/http"
	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/metrics"
	"github.com/carverauto/cortex/pkg/models"
	"github.com/carverauto/cortex/pkg/monitor"
)

const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 2 * time.Minute
	defaultIdleTimeout     = 2 * time.Minute
	defaultShutdownTimeout = 10 * time.Second
	defaultSessionTTL      = 30 * time.Minute

	maxJSONBody   = 1 << 20
	maxUploadSize = 64 << 20
)

// APIServer serves the console HTTP API.
type APIServer struct {
	router     *mux.Router
	backend    backend.Client
	schema     *backend.SchemaProvider
	hub        *monitor.Hub
	sessions   *sessionManager
	corsConfig models.CORSConfig
	logger     logger.Logger
	metrics    metrics.Recorder
	metricsH   http.Handler
	sessionTTL time.Duration
	pingPeriod time.Duration
	pongWait   time.Duration
}

func WithLogger(log logger.Logger) func(*APIServer) {
	return func(s *APIServer) { s.logger = log }
}

func WithMetrics(rec metrics.Recorder, handler http.Handler) func(*APIServer) {
	return func(s *APIServer) {
		s.metrics = rec
		s.metricsH = handler
	}
}

func WithHub(h *monitor.Hub) func(*APIServer) {
	return func(s *APIServer) { s.hub = h }
}

func WithSchemaProvider(p *backend.SchemaProvider) func(*APIServer) {
	return func(s *APIServer) { s.schema = p }
}

func WithSessionTTL(ttl time.Duration) func(*APIServer) {
	return func(s *APIServer) { s.sessionTTL = ttl }
}

// WithKeepalive sets how often live monitor clients are pinged and how
// long the server waits for their pong. pongWait must exceed pingPeriod.
func WithKeepalive(pingPeriod, pongWait time.Duration) func(*APIServer) {
	return func(s *APIServer) {
		s.pingPeriod = pingPeriod
		s.pongWait = pongWait
	}
}

// NewAPIServer creates a new API server talking to client.
func NewAPIServer(config models.CORSConfig, client backend.Client, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:     mux.NewRouter(),
		backend:    client,
		corsConfig: config,
		logger:     logger.NewNopLogger(),
		metrics:    metrics.NewNoop(),
		sessionTTL: defaultSessionTTL,
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
	}

	for _, o := range options {
		o(s)
	}

	if s.pingPeriod <= 0 {
		s.pingPeriod = defaultPingPeriod
	}

	if s.pongWait <= s.pingPeriod {
		s.pongWait = 2 * s.pingPeriod
	}

	if s.schema == nil {
		s.schema = backend.NewSchemaProvider(client, s.logger)
	}

	if s.hub == nil {
		s.hub = monitor.NewHub(monitor.DefaultBufferSize, monitor.WithLogger(s.logger), monitor.WithMetrics(s.metrics))
	}

	s.sessions = newSessionManager(s.sessionTTL, s.logger, s.metrics)

	s.setupRoutes()

	return s
}

func (s *APIServer) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.metricsH != nil {
		s.router.Handle("/metrics", s.metricsH).Methods(http.MethodGet)
	}

	r := s.router.PathPrefix("/api").Subrouter()

	r.HandleFunc("/schema", s.getSchema).Methods(http.MethodGet)
	r.HandleFunc("/schema/reload", s.reloadSchema).Methods(http.MethodPost)
	r.HandleFunc("/models", s.getModels).Methods(http.MethodGet)

	r.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sid}", s.getSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{sid}", s.deleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{sid}/model", s.setModel).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{sid}/flows", s.createFlow).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sid}/flows/{fid}", s.deleteFlow).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{sid}/flows/{fid}/fields/{column}", s.updateField).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{sid}/analyze", s.analyze).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sid}/corrections/confirm", s.confirmCorrections).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sid}/corrections/cancel", s.cancelCorrections).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sid}/corrections/{index}", s.updateCorrection).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{sid}/acknowledge", s.acknowledge).Methods(http.MethodPost)

	r.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)

	r.HandleFunc("/monitor/events", s.getMonitorEvents).Methods(http.MethodGet)
	r.HandleFunc("/monitor/stats", s.getMonitorStats).Methods(http.MethodGet)
	r.HandleFunc("/monitor/live", s.handleLiveMonitor).Methods(http.MethodGet)
}

// Handler returns the router wrapped in the common middleware.
func (s *APIServer) Handler() http.Handler {
	return cortexhttp.CommonMiddleware(s.router, s.corsConfig, s.logger)
}

// Hub is the monitor the server feeds.
func (s *APIServer) Hub() *monitor.Hub { return s.hub }

// Run serves on addr and expires idle sessions until ctx is cancelled,
// then shuts the listener down gracefully.
func (s *APIServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", addr).Msg("Console API listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		return s.sessions.run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		s.logger.Info().Msg("Shutting down console API")

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
