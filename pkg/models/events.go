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

package models

import (
	"strings"
	"time"
)

// Severity of a network event as shown on the monitor.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// SeverityFromRisk maps a backend risk level ("Critical", "High", ...)
// onto a monitor severity. Unknown levels are LOW.
func SeverityFromRisk(risk string) Severity {
	switch strings.ToUpper(strings.TrimSpace(risk)) {
	case string(SeverityCritical):
		return SeverityCritical
	case string(SeverityHigh):
		return SeverityHigh
	case string(SeverityMedium):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// NetworkEvent is one detected threat on the live monitor.
type NetworkEvent struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	SourceIP           string    `json:"source_ip"`
	DestinationIP      string    `json:"destination_ip"`
	ThreatType         string    `json:"threat_type"`
	Severity           Severity  `json:"severity"`
	Confidence         float64   `json:"confidence"`
	Model              string    `json:"model,omitempty"`
	FlowID             string    `json:"flow_id,omitempty"`
	SourceCountry      string    `json:"source_country,omitempty"`
	DestinationCountry string    `json:"destination_country,omitempty"`
}

// MonitorStats are the running counters shown above the event table.
type MonitorStats struct {
	ThreatsDetected int     `json:"threats_detected"`
	FlowsAnalyzed   int     `json:"flows_analyzed"`
	AvgConfidence   float64 `json:"avg_confidence"`
	Uptime          string  `json:"uptime"`
}

// CloudEvent is the CloudEvents 1.0 envelope used for events published
// to NATS.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}
