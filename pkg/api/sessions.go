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

package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/cortex/pkg/flows"
	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/metrics"
)

const minSweepInterval = time.Second

// session is one manual entry form. mu serializes every use of the
// workflow and its store.
type session struct {
	id       string
	mu       sync.Mutex
	workflow *flows.Workflow
	lastSeen time.Time
	created  time.Time
}

// sessionManager owns all sessions and expires idle ones.
type sessionManager struct {
	ttl     time.Duration
	logger  logger.Logger
	metrics metrics.Recorder
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionManager(ttl time.Duration, log logger.Logger, rec metrics.Recorder) *sessionManager {
	return &sessionManager{
		ttl:      ttl,
		logger:   log,
		metrics:  rec,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (m *sessionManager) create(wf *flows.Workflow) *session {
	now := m.now()
	s := &session{
		id:       uuid.New().String(),
		workflow: wf,
		lastSeen: now,
		created:  now,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetSessions(n)
	m.logger.Debug().Str("session", s.id).Msg("Session created")

	return s
}

// get returns the session and marks it as used.
func (m *sessionManager) get(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}

	s.lastSeen = m.now()

	return s, nil
}

func (m *sessionManager) remove(id string) error {
	m.mu.Lock()

	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return errSessionNotFound
	}

	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetSessions(n)

	return nil
}

func (m *sessionManager) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// sweep drops sessions idle for longer than the TTL and returns how
// many were removed.
func (m *sessionManager) sweep() int {
	if m.ttl <= 0 {
		return 0
	}

	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()

	removed := 0

	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	n := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.metrics.SetSessions(n)
		m.logger.Info().Int("expired", removed).Int("active", n).Msg("Expired idle sessions")
	}

	return removed
}

// run sweeps until ctx is done.
func (m *sessionManager) run(ctx context.Context) error {
	if m.ttl <= 0 {
		<-ctx.Done()
		return nil
	}

	interval := m.ttl / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.sweep()
		}
	}
}
