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

package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type capturePublisher struct {
	events []models.NetworkEvent
	err    error
}

func (p *capturePublisher) PublishThreat(_ context.Context, ev *models.NetworkEvent) error {
	p.events = append(p.events, *ev)
	return p.err
}

func normalized(id, src, dst string) models.NormalizedRecord {
	return models.NormalizedRecord{
		ID: id,
		Fields: []models.NormalizedField{
			{Name: srcAddrColumn, Kind: models.KindString, Value: src},
			{Name: dstAddrColumn, Kind: models.KindString, Value: dst},
		},
	}
}

func TestObserveCreatesThreatEvents(t *testing.T) {
	pub := &capturePublisher{err: errors.New("ignored")}
	h := NewHub(10, WithPublisher(pub))

	records := []models.NormalizedRecord{
		normalized("1", "10.0.0.1", "10.0.0.2"),
		normalized("2", "10.0.0.3", "10.0.0.4"),
	}

	resp := &models.AnalyzeResponse{
		ModelUsed: "XGBoost",
		Results: []models.FlowResult{
			{FlowID: "1", Prediction: "Benign", IsThreat: false, RiskLevel: "Normal", Confidence: 0.99},
			{FlowID: "2", Prediction: "DDoS", IsThreat: true, RiskLevel: "Critical", Confidence: 0.95},
		},
	}

	h.Observe(context.Background(), records, resp)

	events := h.Events(0)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "DDoS", ev.ThreatType)
	assert.Equal(t, models.SeverityCritical, ev.Severity)
	assert.Equal(t, "10.0.0.3", ev.SourceIP)
	assert.Equal(t, "10.0.0.4", ev.DestinationIP)
	assert.Equal(t, "XGBoost", ev.Model)
	assert.Equal(t, "2", ev.FlowID)
	assert.NotEmpty(t, ev.ID)

	stats := h.Stats()
	assert.Equal(t, 1, stats.ThreatsDetected)
	assert.Equal(t, 2, stats.FlowsAnalyzed)
	assert.InDelta(t, 0.95, stats.AvgConfidence, 1e-9)

	require.Len(t, pub.events, 1)
	assert.Equal(t, ev.ID, pub.events[0].ID)
}

func TestObserveUnknownFlowHasNoAddresses(t *testing.T) {
	h := NewHub(5)

	h.Observe(context.Background(), nil, &models.AnalyzeResponse{
		Results: []models.FlowResult{{FlowID: "9", Prediction: "PortScan", IsThreat: true, RiskLevel: "High"}},
	})

	events := h.Events(0)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].SourceIP)
	assert.Equal(t, models.SeverityHigh, events[0].Severity)

	h.Observe(context.Background(), nil, nil)
	assert.Len(t, h.Events(0), 1)
}

func TestEventsRingBufferNewestFirst(t *testing.T) {
	h := NewHub(3)

	for i := 1; i <= 5; i++ {
		h.Publish(context.Background(), models.NetworkEvent{ID: fmt.Sprintf("e%d", i), Confidence: 0.5})
	}

	ids := func(evs []models.NetworkEvent) []string {
		out := make([]string, len(evs))
		for i := range evs {
			out[i] = evs[i].ID
		}

		return out
	}

	assert.Equal(t, []string{"e5", "e4", "e3"}, ids(h.Events(0)))
	assert.Equal(t, []string{"e5", "e4"}, ids(h.Events(2)))
	assert.Equal(t, 5, h.Stats().ThreatsDetected)
}

func TestRecordCSVStats(t *testing.T) {
	h := NewHub(3)

	h.Publish(context.Background(), models.NetworkEvent{Confidence: 1})
	h.RecordCSV(&models.CSVAnalysisResult{
		RowsAnalyzed: 100,
		AttackTypes: []models.AttackType{
			{Type: "DDoS", Count: 3, Confidence: 0.5},
		},
	})
	h.RecordCSV(nil)

	stats := h.Stats()
	assert.Equal(t, 4, stats.ThreatsDetected)
	assert.Equal(t, 100, stats.FlowsAnalyzed)
	assert.InDelta(t, (1+3*0.5)/4, stats.AvgConfidence, 1e-9)
}

func TestStatsUptime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	h := NewHub(1, withClock(clock.Now))

	clock.Advance(90*time.Second + 300*time.Millisecond)

	assert.Equal(t, "1m30s", h.Stats().Uptime)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	h := NewHub(5)

	sub := h.Subscribe(4)
	assert.Equal(t, 1, h.Subscribers())

	h.Publish(context.Background(), models.NetworkEvent{ID: "a"})

	select {
	case ev := <-sub.C:
		assert.Equal(t, "a", ev.ID)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	sub.Close()
	sub.Close()

	_, open := <-sub.C
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers())
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	h := NewHub(5)

	slow := h.Subscribe(1)
	fast := h.Subscribe(8)

	h.Publish(context.Background(), models.NetworkEvent{ID: "1"})
	h.Publish(context.Background(), models.NetworkEvent{ID: "2"})

	assert.Equal(t, 1, h.Subscribers())

	ev, open := <-slow.C
	assert.True(t, open)
	assert.Equal(t, "1", ev.ID)

	_, open = <-slow.C
	assert.False(t, open, "slow subscriber channel should be closed")

	assert.Len(t, fast.C, 2)

	slow.Close()
}

type fakeLookup struct {
	codes map[string]string
}

func (f fakeLookup) Lookup(ip net.IP, result interface{}) error {
	code, ok := f.codes[ip.String()]
	if !ok {
		return errors.New("not found")
	}

	result.(*countryRecord).Country.ISOCode = code

	return nil
}

func TestGeoIPEnricher(t *testing.T) {
	g := &GeoIPEnricher{db: fakeLookup{codes: map[string]string{"8.8.8.8": "US", "1.1.1.1": "AU"}}, logger: logger.NewTestLogger()}

	ev := &models.NetworkEvent{SourceIP: "8.8.8.8", DestinationIP: "1.1.1.1"}
	g.Enrich(ev)
	assert.Equal(t, "US", ev.SourceCountry)
	assert.Equal(t, "AU", ev.DestinationCountry)

	private := &models.NetworkEvent{SourceIP: "192.168.1.10", DestinationIP: "not-an-ip"}
	g.Enrich(private)
	assert.Empty(t, private.SourceCountry)
	assert.Empty(t, private.DestinationCountry)

	unknown := &models.NetworkEvent{SourceIP: "9.9.9.9"}
	g.Enrich(unknown)
	assert.Empty(t, unknown.SourceCountry)

	require.NoError(t, g.Close())
}

func TestEnricherRunsBeforeStore(t *testing.T) {
	g := &GeoIPEnricher{db: fakeLookup{codes: map[string]string{"8.8.8.8": "US"}}, logger: logger.NewTestLogger()}
	h := NewHub(2, WithEnricher(g))

	h.Publish(context.Background(), models.NetworkEvent{SourceIP: "8.8.8.8"})

	assert.Equal(t, "US", h.Events(1)[0].SourceCountry)
}

func TestOpenGeoIPMissingFile(t *testing.T) {
	_, err := OpenGeoIP(filepath.Join(t.TempDir(), "missing.mmdb"), nil)
	require.Error(t, err)
}
