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
	"github.com/carverauto/cortex/pkg/flows"
	"github.com/carverauto/cortex/pkg/models"
)

// SessionResponse is the full state of a manual entry session.
type SessionResponse struct {
	ID       string                     `json:"id"`
	Model    string                     `json:"model"`
	State    flows.State                `json:"state"`
	Flows    []models.FlowRecord        `json:"flows"`
	Pending  []models.MissingFieldEntry `json:"pending,omitempty"`
	Response *models.AnalyzeResponse    `json:"response,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

// OutcomeResponse is the answer to analyze and confirm.
type OutcomeResponse struct {
	State    flows.State                `json:"state"`
	Missing  []models.MissingFieldEntry `json:"missing,omitempty"`
	Response *models.AnalyzeResponse    `json:"response,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Message  string                     `json:"message,omitempty"`
}

type createSessionRequest struct {
	Model string `json:"model"`
}

type setModelRequest struct {
	Model string `json:"model"`
}

// SchemaResponse wraps the cached column schema.
type SchemaResponse struct {
	Columns  models.Schema `json:"columns"`
	Required []string      `json:"required"`
}
