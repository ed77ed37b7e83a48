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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carverauto/cortex/pkg/backend"
	"github.com/carverauto/cortex/pkg/flows"
	"github.com/carverauto/cortex/pkg/logger"
)

var (
	errSessionNotFound = errors.New("session not found")
	errInvalidJSON     = errors.New("invalid JSON body")
	errInvalidFlowID   = errors.New("invalid flow id")
	errInvalidIndex    = errors.New("invalid correction index")
	errUnknownColumn   = errors.New("unknown column")
	errInvalidFileType = errors.New("invalid file type, only CSV allowed")
	errMissingColumns  = errors.New("missing required columns")
	errMissingFile     = errors.New("file is required")
	errUnreadableCSV   = errors.New("could not read CSV header")
	errModelRequired   = errors.New("model is required")
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, backend.ErrSchemaLoad), errors.Is(err, flows.ErrSchemaNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, flows.ErrSubmissionFailed), errors.Is(err, backend.ErrSubmission):
		return http.StatusBadGateway
	case errors.Is(err, flows.ErrWorkflowBusy),
		errors.Is(err, flows.ErrStaleCorrection),
		errors.Is(err, flows.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, flows.ErrFlowNotFound), errors.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, errInvalidJSON),
		errors.Is(err, errInvalidFlowID),
		errors.Is(err, errInvalidIndex),
		errors.Is(err, errUnknownColumn),
		errors.Is(err, flows.ErrCorrectionIndex),
		errors.Is(err, errInvalidFileType),
		errors.Is(err, errMissingColumns),
		errors.Is(err, errMissingFile),
		errors.Is(err, errUnreadableCSV),
		errors.Is(err, errModelRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage prefers the backend's own explanation of a failed call.
func errorMessage(err error) string {
	var serr *backend.SubmissionError
	if errors.As(err, &serr) {
		return serr.Message()
	}

	return err.Error()
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		log.Warn().Err(err).Int("status", status).Msg("Request failed")
	}

	writeJSON(w, log, status, ErrorResponse{Error: errorMessage(err), Status: status})
}
