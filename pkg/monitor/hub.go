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

// Package monitor turns analysis results into live threat events.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/metrics"
	"github.com/carverauto/cortex/pkg/models"
)

const (
	DefaultBufferSize = 200

	srcAddrColumn = "IPV4_SRC_ADDR"
	dstAddrColumn = "IPV4_DST_ADDR"

	defaultSubscriberBuffer = 32
)

// Enricher adds context to an event before it is stored.
type Enricher interface {
	Enrich(ev *models.NetworkEvent)
}

// Publisher forwards stored events to an external system.
type Publisher interface {
	PublishThreat(ctx context.Context, ev *models.NetworkEvent) error
}

// Subscription receives every event published after it was created.
// C is closed when the subscription ends, either by Close or because
// the subscriber fell behind.
type Subscription struct {
	C <-chan models.NetworkEvent

	ch   chan models.NetworkEvent
	hub  *Hub
	once sync.Once
}

// Close ends the subscription.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// Hub keeps the most recent threat events and running stats, and fans
// events out to subscribers. It is safe for concurrent use.
type Hub struct {
	logger     logger.Logger
	metrics    metrics.Recorder
	enrichers  []Enricher
	publishers []Publisher
	now        func() time.Time

	mu          sync.RWMutex
	events      []models.NetworkEvent
	head        int
	count       int
	start       time.Time
	threats     int
	flows       int
	confidence  float64
	subscribers map[*Subscription]struct{}
}

// Option configures a Hub.
type Option func(*Hub)

func WithLogger(log logger.Logger) Option {
	return func(h *Hub) { h.logger = log }
}

func WithMetrics(rec metrics.Recorder) Option {
	return func(h *Hub) { h.metrics = rec }
}

func WithEnricher(e Enricher) Option {
	return func(h *Hub) { h.enrichers = append(h.enrichers, e) }
}

func WithPublisher(p Publisher) Option {
	return func(h *Hub) { h.publishers = append(h.publishers, p) }
}

func withClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// NewHub returns a hub retaining up to size events.
func NewHub(size int, opts ...Option) *Hub {
	if size <= 0 {
		size = DefaultBufferSize
	}

	h := &Hub{
		logger:      logger.NewNopLogger(),
		metrics:     metrics.NewNoop(),
		now:         time.Now,
		events:      make([]models.NetworkEvent, size),
		subscribers: make(map[*Subscription]struct{}),
	}

	for _, o := range opts {
		o(h)
	}

	h.start = h.now()

	return h
}

// Observe records a successful manual entry analysis. Its signature
// matches flows.Observer.
func (h *Hub) Observe(ctx context.Context, records []models.NormalizedRecord, resp *models.AnalyzeResponse) {
	if resp == nil {
		return
	}

	byID := make(map[string]models.NormalizedRecord, len(records))
	for i := range records {
		byID[records[i].ID] = records[i]
	}

	h.mu.Lock()
	h.flows += len(resp.Results)
	h.mu.Unlock()

	for i := range resp.Results {
		r := resp.Results[i]
		if !r.IsThreat {
			continue
		}

		ev := models.NetworkEvent{
			ID:         uuid.New().String(),
			Timestamp:  h.now().UTC(),
			ThreatType: r.Prediction,
			Severity:   models.SeverityFromRisk(r.RiskLevel),
			Confidence: r.Confidence,
			Model:      resp.ModelUsed,
			FlowID:     r.FlowID,
		}

		if rec, ok := byID[r.FlowID]; ok {
			ev.SourceIP = rec.StringField(srcAddrColumn)
			ev.DestinationIP = rec.StringField(dstAddrColumn)
		}

		h.Publish(ctx, ev)
	}
}

// RecordCSV adds a file analysis to the running stats. Per-row events
// are not emitted for files.
func (h *Hub) RecordCSV(res *models.CSVAnalysisResult) {
	if res == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.flows += res.RowsAnalyzed

	for _, at := range res.AttackTypes {
		h.addThreats(at.Count, at.Confidence)
	}
}

// Publish enriches, stores and broadcasts one event.
func (h *Hub) Publish(ctx context.Context, ev models.NetworkEvent) {
	for _, e := range h.enrichers {
		e.Enrich(&ev)
	}

	h.mu.Lock()
	h.events[h.head] = ev
	h.head = (h.head + 1) % len(h.events)

	if h.count < len(h.events) {
		h.count++
	}

	h.addThreats(1, ev.Confidence)

	var dropped []*Subscription

	for s := range h.subscribers {
		select {
		case s.ch <- ev:
		default:
			dropped = append(dropped, s)
		}
	}

	for _, s := range dropped {
		h.removeLocked(s)
	}

	subscribers := len(h.subscribers)
	h.mu.Unlock()

	if len(dropped) > 0 {
		h.logger.Warn().Int("dropped", len(dropped)).Msg("Dropped slow monitor subscribers")
		h.metrics.SetSubscribers(subscribers)
	}

	h.metrics.RecordMonitorEvent(string(ev.Severity))

	for _, p := range h.publishers {
		if err := p.PublishThreat(ctx, &ev); err != nil {
			h.logger.Warn().Err(err).Str("event_id", ev.ID).Msg("Failed to publish threat event")
		}
	}
}

// addThreats folds n threats of the given mean confidence into the
// running mean. Callers hold mu.
func (h *Hub) addThreats(n int, confidence float64) {
	if n <= 0 {
		return
	}

	total := h.confidence*float64(h.threats) + confidence*float64(n)
	h.threats += n
	h.confidence = total / float64(h.threats)
}

// Events returns up to limit stored events, newest first. A limit of 0
// or less returns all of them.
func (h *Hub) Events(limit int) []models.NetworkEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := h.count
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]models.NetworkEvent, 0, n)

	for i := 1; i <= n; i++ {
		idx := (h.head - i + len(h.events)) % len(h.events)
		out = append(out, h.events[idx])
	}

	return out
}

// Stats returns the running counters.
func (h *Hub) Stats() models.MonitorStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return models.MonitorStats{
		ThreatsDetected: h.threats,
		FlowsAnalyzed:   h.flows,
		AvgConfidence:   h.confidence,
		Uptime:          h.now().Sub(h.start).Truncate(time.Second).String(),
	}
}

// Subscribe registers a live listener. buffer is the number of events
// that may queue before the subscriber is dropped.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}

	ch := make(chan models.NetworkEvent, buffer)
	s := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	n := len(h.subscribers)
	h.mu.Unlock()

	h.metrics.SetSubscribers(n)

	return s
}

func (h *Hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	h.removeLocked(s)
	n := len(h.subscribers)
	h.mu.Unlock()

	h.metrics.SetSubscribers(n)
}

func (h *Hub) removeLocked(s *Subscription) {
	if _, ok := h.subscribers[s]; !ok {
		return
	}

	delete(h.subscribers, s)
	s.once.Do(func() { close(s.ch) })
}

// Subscribers is the number of live listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}
