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

package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/models"
)

// State of the analyze workflow.
type State string

const (
	StateIdle                   State = "idle"
	StateValidating             State = "validating"
	StateBlockedAllEmpty        State = "blocked_all_empty"
	StateBlockedMissingRequired State = "blocked_missing_required"
	StateNormalizing            State = "normalizing"
	StateSubmitting             State = "submitting"
	StateSucceeded              State = "succeeded"
	StateFailed                 State = "failed"
)

// CanAnalyze reports whether a new analyze attempt may start from s.
func (s State) CanAnalyze() bool {
	return s == StateIdle || s == StateSucceeded || s == StateFailed
}

//go:generate mockgen -destination=mock_flows.go -package=flows github.com/carverauto/cortex/pkg/flows Submitter

// Submitter sends a batch of normalized records to the detection backend.
type Submitter interface {
	AnalyzeFlows(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error)
}

// Observer is told about every successful submission.
type Observer func(ctx context.Context, flows []models.NormalizedRecord, resp *models.AnalyzeResponse)

// Outcome is the result of one analyze attempt.
type Outcome struct {
	State    State                      `json:"state"`
	Missing  []models.MissingFieldEntry `json:"missing,omitempty"`
	Response *models.AnalyzeResponse    `json:"response,omitempty"`
	Err      error                      `json:"-"`
}

// Workflow drives manual entry from the analyze action to a result: it
// runs the all-empty check, then the required-field check, then
// normalizes and submits. It owns no goroutines.
type Workflow struct {
	schema    models.Schema
	store     *Store
	submitter Submitter
	logger    logger.Logger
	observers []Observer

	model    string
	state    State
	response *models.AnalyzeResponse
	lastErr  error
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

func WithModel(model string) WorkflowOption {
	return func(w *Workflow) { w.model = model }
}

func WithLogger(log logger.Logger) WorkflowOption {
	return func(w *Workflow) { w.logger = log }
}

func WithObserver(o Observer) WorkflowOption {
	return func(w *Workflow) { w.observers = append(w.observers, o) }
}

// NewWorkflow binds a schema, a store and a submitter. A nil store gets
// a fresh one.
func NewWorkflow(schema models.Schema, store *Store, submitter Submitter, opts ...WorkflowOption) *Workflow {
	if store == nil {
		store = NewStore()
	}

	w := &Workflow{
		schema:    schema,
		store:     store,
		submitter: submitter,
		logger:    logger.NewNopLogger(),
		state:     StateIdle,
	}

	for _, o := range opts {
		o(w)
	}

	return w
}

func (w *Workflow) Store() *Store { return w.store }

func (w *Workflow) Schema() models.Schema { return w.schema }

func (w *Workflow) State() State { return w.state }

func (w *Workflow) Model() string { return w.model }

// SetModel changes the active model for subsequent submissions.
func (w *Workflow) SetModel(model string) { w.model = model }

// Response is the last successful analysis, kept for display until the
// next attempt starts.
func (w *Workflow) Response() *models.AnalyzeResponse { return w.response }

// Err is the error of the last failed submission.
func (w *Workflow) Err() error { return w.lastErr }

// Analyze starts a new attempt. The returned error is nil only when the
// submission succeeded; blocked attempts return ErrEmptySubmission or a
// *MissingFieldsError alongside the outcome.
func (w *Workflow) Analyze(ctx context.Context) (Outcome, error) {
	if !w.state.CanAnalyze() {
		return Outcome{State: w.state}, ErrWorkflowBusy
	}

	if len(w.schema) == 0 {
		return Outcome{State: w.state, Err: ErrSchemaNotLoaded}, ErrSchemaNotLoaded
	}

	w.response = nil
	w.lastErr = nil

	return w.validate(ctx)
}

// UpdateCorrection edits the proposed value of one pending correction.
func (w *Workflow) UpdateCorrection(index int, value models.Value) error {
	if w.state != StateBlockedMissingRequired {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, w.state)
	}

	return w.store.UpdatePending(index, value)
}

// Confirm writes the pending corrections into the store and validates
// again. An empty correction for a required column blocks again.
func (w *Workflow) Confirm(ctx context.Context) (Outcome, error) {
	if w.state != StateBlockedMissingRequired {
		return Outcome{State: w.state}, fmt.Errorf("%w: %s", ErrInvalidTransition, w.state)
	}

	if err := w.store.ApplyCorrections(w.store.Pending()); err != nil {
		return Outcome{State: w.state, Missing: w.store.Pending(), Err: err}, err
	}

	return w.validate(ctx)
}

// Cancel abandons a blocked attempt without calling the backend.
func (w *Workflow) Cancel() error {
	if w.state != StateBlockedMissingRequired {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, w.state)
	}

	w.store.ClearPending()
	w.state = StateIdle

	return nil
}

// Acknowledge dismisses an all-empty notice or the result of the last
// submission and returns to idle. The last response stays readable.
func (w *Workflow) Acknowledge() error {
	switch w.state {
	case StateBlockedAllEmpty, StateSucceeded, StateFailed:
		w.state = StateIdle
		w.lastErr = nil

		return nil
	case StateIdle:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidTransition, w.state)
	}
}

func (w *Workflow) validate(ctx context.Context) (Outcome, error) {
	w.state = StateValidating

	records := w.store.Records()

	empty, err := IsEntirelyEmpty(w.schema, records)
	if err != nil {
		w.state = StateIdle
		return Outcome{State: w.state, Err: err}, err
	}

	if empty {
		w.state = StateBlockedAllEmpty
		w.logger.Debug().Int("flows", len(records)).Msg("Analyze blocked: no input provided")

		return Outcome{State: w.state, Err: ErrEmptySubmission}, ErrEmptySubmission
	}

	missing, err := FindMissingRequired(w.schema, records)
	if err != nil {
		w.state = StateIdle
		return Outcome{State: w.state, Err: err}, err
	}

	if len(missing) > 0 {
		w.store.SetPending(missing)
		w.state = StateBlockedMissingRequired
		w.logger.Debug().Int("missing", len(missing)).Msg("Analyze blocked: missing required fields")

		merr := &MissingFieldsError{Entries: missing}

		return Outcome{State: w.state, Missing: w.store.Pending(), Err: merr}, merr
	}

	w.store.ClearPending()

	return w.submit(ctx, records)
}

func (w *Workflow) submit(ctx context.Context, records []models.FlowRecord) (Outcome, error) {
	w.state = StateNormalizing

	normalized, err := NormalizeAll(w.schema, records)
	if err != nil {
		return w.fail(err)
	}

	if w.model == "" {
		return w.fail(fmt.Errorf("%w: %w", ErrSubmissionFailed, ErrNoModel))
	}

	w.state = StateSubmitting

	start := time.Now()

	resp, err := w.submitter.AnalyzeFlows(ctx, &models.AnalyzeRequest{Flows: normalized, Model: w.model})
	if err != nil {
		return w.fail(fmt.Errorf("%w: %w", ErrSubmissionFailed, err))
	}

	if resp == nil || resp.Results == nil {
		return w.fail(fmt.Errorf("%w: %w", ErrSubmissionFailed, ErrMalformedResponse))
	}

	w.state = StateSucceeded
	w.response = resp

	w.logger.Info().
		Int("flows", len(normalized)).
		Int("results", len(resp.Results)).
		Str("model", w.model).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis completed")

	for _, o := range w.observers {
		o(ctx, normalized, resp)
	}

	return Outcome{State: w.state, Response: resp}, nil
}

func (w *Workflow) fail(err error) (Outcome, error) {
	w.state = StateFailed
	w.lastErr = err

	w.logger.Warn().Err(err).Str("model", w.model).Msg("Analysis failed")

	return Outcome{State: w.state, Err: err}, err
}
