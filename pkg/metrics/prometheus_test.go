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
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.ObserveBackendRequest("analyze_flows", ResultOK, 20*time.Millisecond)
	p.ObserveBackendRequest("analyze_flows", ResultError, time.Second)
	p.ObserveBackendRequest("analyze_flows", ResultOK, 10*time.Millisecond)
	p.RecordOutcome("succeeded")
	p.RecordOutcome("blocked_missing_required")
	p.RecordOutcome("succeeded")
	p.SetSessions(3)
	p.RecordMonitorEvent("HIGH")
	p.SetSubscribers(2)
	p.RecordUpload(ResultOK)

	assert.InDelta(t, 2, testutil.ToFloat64(p.backendTotal.WithLabelValues("analyze_flows", ResultOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.backendTotal.WithLabelValues("analyze_flows", ResultError)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(p.outcomes.WithLabelValues("succeeded")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(p.sessions), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.events.WithLabelValues("HIGH")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(p.subscribers), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.uploads.WithLabelValues(ResultOK)), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(p.backendLatency))
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)
	p.RecordOutcome("failed")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cortex_analyze_outcomes_total{state="failed"} 1`)
}

func TestNoopRecorder(t *testing.T) {
	r := NewNoop()

	assert.NotPanics(t, func() {
		r.ObserveBackendRequest("columns", ResultOK, time.Millisecond)
		r.RecordOutcome("idle")
		r.SetSessions(1)
		r.RecordMonitorEvent("LOW")
		r.SetSubscribers(0)
		r.RecordUpload(ResultError)
	})
}
