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

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cortex"

// Prometheus is the Recorder backed by client_golang collectors.
type Prometheus struct {
	backendLatency *prometheus.HistogramVec
	backendTotal   *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	sessions       prometheus.Gauge
	events         *prometheus.CounterVec
	subscribers    prometheus.Gauge
	uploads        *prometheus.CounterVec
}

// NewPrometheus registers the console collectors with reg. A nil reg
// uses the default registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Prometheus{
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of calls to the detection backend.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"operation", "result"}),
		backendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls to the detection backend.",
		}, []string{"operation", "result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyze_outcomes_total",
			Help:      "Manual entry analyze attempts by final state.",
		}, []string{"state"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Manual entry sessions currently held in memory.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_events_total",
			Help:      "Threat events published to the live monitor.",
		}, []string{"severity"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_subscribers",
			Help:      "Connected live monitor websocket clients.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_uploads_total",
			Help:      "CSV uploads proxied to the backend by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(p.backendLatency, p.backendTotal, p.outcomes, p.sessions, p.events, p.subscribers, p.uploads)

	return p
}

func (p *Prometheus) ObserveBackendRequest(operation, result string, elapsed time.Duration) {
	p.backendLatency.WithLabelValues(operation, result).Observe(elapsed.Seconds())
	p.backendTotal.WithLabelValues(operation, result).Inc()
}

func (p *Prometheus) RecordOutcome(state string) {
	p.outcomes.WithLabelValues(state).Inc()
}

func (p *Prometheus) SetSessions(n int) {
	p.sessions.Set(float64(n))
}

func (p *Prometheus) RecordMonitorEvent(severity string) {
	p.events.WithLabelValues(severity).Inc()
}

func (p *Prometheus) SetSubscribers(n int) {
	p.subscribers.Set(float64(n))
}

func (p *Prometheus) RecordUpload(result string) {
	p.uploads.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g, or the default gatherer when
// g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}

	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
