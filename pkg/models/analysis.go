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
	"encoding/base64"
	"fmt"
)

// AnalyzeRequest is the body of POST /api/analyze_data.
type AnalyzeRequest struct {
	Flows []NormalizedRecord `json:"flows"`
	Model string             `json:"model"`
}

// FlowResult is the backend verdict for one submitted record.
type FlowResult struct {
	FlowID     string  `json:"flow_id"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	IsThreat   bool    `json:"is_threat"`
	RiskLevel  string  `json:"risk_level"`
}

// AnalyzeResponse is the body returned by POST /api/analyze_data.
// Results is a pointer-free slice; a nil slice after decoding means the
// backend omitted the list.
type AnalyzeResponse struct {
	Status       string       `json:"status,omitempty"`
	TotalEntries int          `json:"total_entries,omitempty"`
	Results      []FlowResult `json:"results"`
	ModelUsed    string       `json:"model_used"`
	AnalysisTime float64      `json:"analysis_time"`
}

// AttackType summarizes one predicted class in a CSV analysis.
type AttackType struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
}

// CSVAnalysisResult is the body returned by POST /api/analyze.
type CSVAnalysisResult struct {
	Filename        string       `json:"filename"`
	ModelUsed       string       `json:"model_used"`
	RowsAnalyzed    int          `json:"rows_analyzed"`
	AttacksDetected int          `json:"attacks_detected"`
	AttackTypes     []AttackType `json:"attack_types"`
	AnalysisTime    float64      `json:"analysis_time"`
	CSVFile         string       `json:"csv_file"`
}

// DecodedCSV returns the annotated CSV carried base64-encoded in CSVFile.
func (r *CSVAnalysisResult) DecodedCSV() ([]byte, error) {
	if r.CSVFile == "" {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(r.CSVFile)
	if err != nil {
		return nil, fmt.Errorf("failed to decode csv_file: %w", err)
	}

	return data, nil
}

// HealthStatus is the body returned by GET /api/health.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
