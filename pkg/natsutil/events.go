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

// Package natsutil publishes console events to NATS.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/models"
)

const (
	eventSource = "cortex/console"
	threatType  = "com.carverauto.cortex.threat.detected"

	// DefaultStream holds every subject under cortex.events.
	DefaultStream = "CORTEX_EVENTS"
)

var errEmptySubject = errors.New("nats subject is required")

// publisher is satisfied by both a JetStream context and a plain
// connection adapter.
type publisher interface {
	publish(ctx context.Context, subject string, data []byte) error
}

type jetStreamPublisher struct{ js jetstream.JetStream }

func (p jetStreamPublisher) publish(ctx context.Context, subject string, data []byte) error {
	_, err := p.js.Publish(ctx, subject, data)
	return err
}

type corePublisher struct{ nc *nats.Conn }

func (p corePublisher) publish(_ context.Context, subject string, data []byte) error {
	return p.nc.Publish(subject, data)
}

// EventPublisher sends threat events as CloudEvents.
type EventPublisher struct {
	pub     publisher
	subject string
	logger  logger.Logger
	nc      *nats.Conn
}

// NewThreatEvent wraps a monitor event in a CloudEvent envelope.
func NewThreatEvent(subject string, ev *models.NetworkEvent) models.CloudEvent {
	ts := ev.Timestamp

	return models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            threatType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &ts,
		Data:            ev,
	}
}

// PublishThreat publishes one threat event.
func (p *EventPublisher) PublishThreat(ctx context.Context, ev *models.NetworkEvent) error {
	event := NewThreatEvent(p.subject, ev)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal threat event: %w", err)
	}

	if err := p.pub.publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish threat event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", p.subject).
		Str("threat", ev.ThreatType).
		Msg("Published threat event")

	return nil
}

// Close drains the underlying connection when the publisher owns one.
func (p *EventPublisher) Close() error {
	if p.nc == nil {
		return nil
	}

	return p.nc.Drain()
}

// Connect dials NATS and returns a publisher for subject. When the
// server has JetStream, events are stored in stream (created on demand
// to cover "<first subject token>.>"); otherwise they are published
// with core NATS.
func Connect(ctx context.Context, natsURL, stream, subject string, log logger.Logger, opts ...nats.Option) (*EventPublisher, error) {
	if subject == "" {
		return nil, errEmptySubject
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	if stream == "" {
		stream = DefaultStream
	}

	opts = append([]nats.Option{
		nats.Name("cortex-console"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}, opts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p := &EventPublisher{subject: subject, logger: log, nc: nc}

	js, err := jetstream.New(nc)
	if err == nil {
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     stream,
			Subjects: []string{streamSubjects(subject)},
		})
	}

	if err != nil {
		log.Warn().Err(err).Msg("JetStream unavailable, publishing with core NATS")

		p.pub = corePublisher{nc: nc}

		return p, nil
	}

	p.pub = jetStreamPublisher{js: js}

	log.Info().Str("stream", stream).Str("subject", subject).Msg("Publishing threat events to JetStream")

	return p, nil
}

// streamSubjects widens subject to its parent: cortex.events.threats
// becomes cortex.events.>.
func streamSubjects(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i > 0 {
		return subject[:i] + ".>"
	}

	return subject
}
