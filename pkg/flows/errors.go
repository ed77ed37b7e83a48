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
	"errors"
	"fmt"

	"github.com/carverauto/cortex/pkg/models"
)

var (
	// ErrSchemaNotLoaded is returned by every schema-dependent operation
	// when the column schema is empty.
	ErrSchemaNotLoaded = errors.New("feature schema not loaded")
	// ErrEmptySubmission means no cell of any record holds a value.
	ErrEmptySubmission = errors.New("no input provided")
	// ErrMissingRequired means at least one required cell is empty.
	ErrMissingRequired = errors.New("missing required fields")
	// ErrSubmissionFailed wraps any failure of the analyze request.
	ErrSubmissionFailed = errors.New("analysis request failed")
	// ErrNoModel means no active model is selected.
	ErrNoModel = errors.New("no model selected")
	// ErrMalformedResponse means the backend answered without a result list.
	ErrMalformedResponse = errors.New("malformed analysis response")

	ErrWorkflowBusy      = errors.New("an analysis is already in progress")
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrFlowNotFound      = errors.New("flow not found")
	ErrStaleCorrection   = errors.New("correction no longer matches the records")
	ErrCorrectionIndex   = errors.New("correction index out of range")
)

// MissingFieldsError carries the correction list produced by a failed
// required-field check.
type MissingFieldsError struct {
	Entries []models.MissingFieldEntry
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %d field(s)", ErrMissingRequired, len(e.Entries))
}

func (*MissingFieldsError) Unwrap() error {
	return ErrMissingRequired
}
