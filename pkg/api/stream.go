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
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/cortex/pkg/models"
)

const (
	defaultPingPeriod  = 30 * time.Second
	defaultPongWait    = 60 * time.Second
	writeWait          = 10 * time.Second
	subscriberBuffer   = 64
	snapshotEventLimit = 50
)

// StreamMessage represents a message sent over the live monitor WebSocket
type StreamMessage struct {
	Type      string                `json:"type"` // "snapshot", "event"
	Event     *models.NetworkEvent  `json:"event,omitempty"`
	Events    []models.NetworkEvent `json:"events,omitempty"`
	Stats     *models.MonitorStats  `json:"stats,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// handleLiveMonitor streams threat events to the dashboard. The first
// frame is a snapshot of recent events and stats.
func (s *APIServer) handleLiveMonitor(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWebSocketOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Str("origin", r.Header.Get("Origin")).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	defer func() {
		s.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("Closing WebSocket connection")
		conn.Close()
	}()

	sub := s.hub.Subscribe(subscriberBuffer)
	defer sub.Close()

	s.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Live monitor client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.readPump(ctx, conn, cancel)

	stats := s.hub.Stats()
	events := s.hub.Events(snapshotEventLimit)

	if err := writeMessage(conn, StreamMessage{Type: "snapshot", Events: events, Stats: &stats}); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to send snapshot")
		return
	}

	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				s.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("Live monitor client too slow, dropped")
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"),
					time.Now().Add(writeWait))

				return
			}

			st := s.hub.Stats()
			if err := writeMessage(conn, StreamMessage{Type: "event", Event: &ev, Stats: &st}); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to send event")
				return
			}
		case <-ticker.C:
			// The pong answering this frame is what extends the read deadline.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to send ping")
				return
			}
		}
	}
}

// readPump discards client frames and cancels ctx once the client goes
// away.
func (s *APIServer) readPump(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(s.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.pongWait))
	})

	for ctx.Err() == nil {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("WebSocket closed unexpectedly")
			}

			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(s.pongWait))
	}
}

func writeMessage(conn *websocket.Conn, msg StreamMessage) error {
	msg.Timestamp = time.Now()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return conn.WriteJSON(msg)
}

func (s *APIServer) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.corsConfig.AllowedOrigins) == 0 {
		return true
	}

	for _, allowed := range s.corsConfig.AllowedOrigins {
		if allowed == origin || allowed == "*" {
			return true
		}
	}

	s.logger.Warn().
		Str("origin", origin).
		Strs("allowed_origins", s.corsConfig.AllowedOrigins).
		Msg("WebSocket CORS: Origin not allowed")

	return false
}
