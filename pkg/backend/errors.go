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

package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaLoad is wrapped by every failure to fetch or accept the
	// column schema.
	ErrSchemaLoad = errors.New("failed to load feature schema")
	// ErrSubmission is wrapped by every failed analyze request.
	ErrSubmission = errors.New("backend request failed")

	errBaseURLRequired = errors.New("backend base url is required")
	errNoModels        = errors.New("backend returned no models")
	errEmptyUpload     = errors.New("upload has no file name")
)

// SchemaLoadError is returned when /api/schema/columns cannot be used.
// StatusCode is zero for transport and decoding failures.
type SchemaLoadError struct {
	StatusCode int
	Err        error
}

func (e *SchemaLoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", ErrSchemaLoad, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s: %v", ErrSchemaLoad, e.Err)
}

func (e *SchemaLoadError) Unwrap() []error { return []error{ErrSchemaLoad, e.Err} }

// SubmissionError is a non-2xx answer, or a transport failure, from an
// analyze call. Detail is the backend's error message when it sent one.
type SubmissionError struct {
	Operation  string
	StatusCode int
	Detail     string
	Err        error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("%s: %s: status %d: %s", ErrSubmission, e.Operation, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: status %d", ErrSubmission, e.Operation, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s: %v", ErrSubmission, e.Operation, e.Err)
	}
}

func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSubmission}
	}

	return []error{ErrSubmission, e.Err}
}

// Message is the text shown to the user.
func (e *SubmissionError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("backend answered with status %d", e.StatusCode)
}
