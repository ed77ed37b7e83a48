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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/carverauto/cortex/pkg/flows"
	"github.com/carverauto/cortex/pkg/models"
)

const defaultEventLimit = 50

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.len(),
	}

	if h, err := s.backend.Health(r.Context()); err != nil {
		resp["status"] = "degraded"
		resp["backend"] = errorMessage(err)
	} else {
		resp["backend"] = h.Status
	}

	writeJSON(w, s.logger, http.StatusOK, resp)
}

func schemaResponse(schema models.Schema) SchemaResponse {
	required := make([]string, 0)
	for _, c := range schema.Required() {
		required = append(required, c.Name)
	}

	return SchemaResponse{Columns: schema, Required: required}
}

func (s *APIServer) getSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.schema.Schema(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, schemaResponse(schema))
}

// reloadSchema refreshes the cache. Open sessions keep the schema they
// were created with.
func (s *APIServer) reloadSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.schema.Reload(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, schemaResponse(schema))
}

func (s *APIServer) getModels(w http.ResponseWriter, r *http.Request) {
	list, err := s.backend.Models(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, list)
}

func (s *APIServer) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	ctx := r.Context()

	schema, err := s.schema.Schema(ctx)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel(ctx)
	}

	wf := flows.NewWorkflow(schema, nil, s.backend,
		flows.WithModel(model),
		flows.WithLogger(s.logger.WithComponent("workflow")),
		flows.WithObserver(s.hub.Observe),
	)

	sess := s.sessions.create(wf)

	writeJSON(w, s.logger, http.StatusCreated, snapshot(sess))
}

// defaultModel is the first model the backend lists, or "" when the
// list cannot be fetched. Analyze then fails until a model is set.
func (s *APIServer) defaultModel(ctx context.Context) string {
	list, err := s.backend.Models(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not fetch models, session starts without one")
		return ""
	}

	if len(list) == 0 {
		return ""
	}

	return list[0]
}

func (s *APIServer) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	resp := snapshot(sess)
	sess.mu.Unlock()

	writeJSON(w, s.logger, http.StatusOK, resp)
}

func (s *APIServer) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.remove(mux.Vars(r)["sid"]); err != nil {
		writeError(w, s.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) setModel(w http.ResponseWriter, r *http.Request) {
	var req setModelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if req.Model == "" {
		writeError(w, s.logger, errModelRequired)
		return
	}

	s.withSession(w, r, func(sess *session) (int, interface{}, error) {
		sess.workflow.SetModel(req.Model)
		return http.StatusOK, snapshot(sess), nil
	})
}

func (s *APIServer) createFlow(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (int, interface{}, error) {
		if err := editable(sess.workflow); err != nil {
			return 0, nil, err
		}

		return http.StatusCreated, sess.workflow.Store().Create(), nil
	})
}

func (s *APIServer) deleteFlow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["fid"], 10, 64)
	if err != nil {
		writeError(w, s.logger, errInvalidFlowID)
		return
	}

	s.withSession(w, r, func(sess *session) (int, interface{}, error) {
		if err := editable(sess.workflow); err != nil {
			return 0, nil, err
		}

		if err := sess.workflow.Store().Delete(id); err != nil {
			return 0, nil, err
		}

		return http.StatusOK, snapshot(sess), nil
	})
}

func (s *APIServer) updateField(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.ParseInt(vars["fid"], 10, 64)
	if err != nil {
		writeError(w, s.logger, errInvalidFlowID)
		return
	}

	var value models.Value
	if err := decodeJSON(w, r, &value); err != nil {
		writeError(w, s.logger, err)
		return
	}

	column := vars["column"]

	s.withSession(w, r, func(sess *session) (int, interface{}, error) {
		if _, ok := sess.workflow.Schema().Lookup(column); !ok {
			return 0, nil, fmt.Errorf("%w: %s", errUnknownColumn, column)
		}

		if err := editable(sess.workflow); err != nil {
			return 0, nil, err
		}

		store := sess.workflow.Store()
		if err := store.UpdateField(id, column, value); err != nil {
			return 0, nil, err
		}

		rec, _ := store.Get(id)

		return http.StatusOK, rec, nil
	})
}

func (s *APIServer) analyze(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (int, interface{}, error) {
		out, err := sess.workflow.Analyze(r.Context())
		return s.outcome(out, err)
	})
}

func (s *APIServer) updateCorrection(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, s.logger, errInvalidIndex)
		return
	}

	var value models.Value
	if err := decodeJSON(w, r, &value); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.withSession(w, r, func(sess *session) (int, interface{}, error) {
		if err := sess.workflow.UpdateCorrection(index, value); err != nil {
			return 0, nil, err
		}

		return http.StatusOK, sess.workflow.Store().Pending(), nil
	})
}

func (s *APIServer) confirmCorrections(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (int, interface{}, error) {
		out, err := sess.workflow.Confirm(r.Context())
		return s.outcome(out, err)
	})
}

func (s *APIServer) cancelCorrections(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (int, interface{}, error) {
		if err := sess.workflow.Cancel(); err != nil {
			return 0, nil, err
		}

		return http.StatusOK, snapshot(sess), nil
	})
}

func (s *APIServer) acknowledge(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (int, interface{}, error) {
		if err := sess.workflow.Acknowledge(); err != nil {
			return 0, nil, err
		}

		return http.StatusOK, snapshot(sess), nil
	})
}

// outcome turns an analyze or confirm result into a response. Blocked
// attempts are answered with 200 and their state; failed submissions
// with 502 and the state so the client can keep editing.
func (s *APIServer) outcome(out flows.Outcome, err error) (int, interface{}, error) {
	resp := OutcomeResponse{State: out.State, Missing: out.Missing, Response: out.Response}
	status := http.StatusOK

	switch {
	case err == nil:
	case errors.Is(err, flows.ErrEmptySubmission), errors.Is(err, flows.ErrMissingRequired):
		resp.Message = err.Error()
	case out.State == flows.StateFailed && errors.Is(err, flows.ErrSubmissionFailed):
		resp.Error = errorMessage(err)
		status = http.StatusBadGateway
	default:
		return 0, nil, err
	}

	s.metrics.RecordOutcome(string(out.State))

	return status, resp, nil
}

// withSession runs fn while holding the session lock. A session that
// is busy with another request is reported as such rather than waited
// for.
func (s *APIServer) withSession(w http.ResponseWriter, r *http.Request, fn func(*session) (int, interface{}, error)) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if !sess.mu.TryLock() {
		writeError(w, s.logger, flows.ErrWorkflowBusy)
		return
	}

	status, body, err := fn(sess)
	sess.mu.Unlock()

	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, status, body)
}

func (s *APIServer) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.sessions.get(mux.Vars(r)["sid"])
	if err != nil {
		writeError(w, s.logger, err)
		return nil, false
	}

	return sess, true
}

// editable rejects record edits while corrections are pending; the
// pending entries are pinned to the records as they were validated.
func editable(wf *flows.Workflow) error {
	if wf.State() == flows.StateBlockedMissingRequired {
		return fmt.Errorf("%w: %s", flows.ErrInvalidTransition, wf.State())
	}

	return nil
}

// snapshot must be called with the session lock held.
func snapshot(sess *session) SessionResponse {
	wf := sess.workflow

	resp := SessionResponse{
		ID:       sess.id,
		Model:    wf.Model(),
		State:    wf.State(),
		Flows:    wf.Store().Records(),
		Pending:  wf.Store().Pending(),
		Response: wf.Response(),
	}

	if err := wf.Err(); err != nil {
		resp.Error = errorMessage(err)
	}

	return resp
}

func (s *APIServer) getMonitorEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, s.logger, http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Status: http.StatusBadRequest})
			return
		}

		limit = n
	}

	writeJSON(w, s.logger, http.StatusOK, s.hub.Events(limit))
}

func (s *APIServer) getMonitorStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.hub.Stats())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errInvalidJSON, err)
	}

	return nil
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	return fmt.Errorf("%w: %w", errInvalidJSON, err)
}
