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

// Package metrics records console activity for Prometheus.
package metrics

import "time"

// Backend request results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder receives the counters the console exports.
type Recorder interface {
	// ObserveBackendRequest records one call to the detection backend.
	ObserveBackendRequest(operation, result string, elapsed time.Duration)
	// RecordOutcome counts an analyze attempt by the state it ended in.
	RecordOutcome(state string)
	SetSessions(n int)
	RecordMonitorEvent(severity string)
	SetSubscribers(n int)
	// RecordUpload counts CSV uploads by result.
	RecordUpload(result string)
}

type noop struct{}

// NewNoop returns a Recorder that drops everything.
func NewNoop() Recorder { return noop{} }

func (noop) ObserveBackendRequest(string, string, time.Duration) {}
func (noop) RecordOutcome(string)                                {}
func (noop) SetSessions(int)                                     {}
func (noop) RecordMonitorEvent(string)                           {}
func (noop) SetSubscribers(int)                                  {}
func (noop) RecordUpload(string)                                 {}
