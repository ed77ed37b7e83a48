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
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/cortex/pkg/models"
)

const columnsBody = `[
  {"name": "IPV4_SRC_ADDR", "type": "string", "description": "Source address", "required": true, "example": "192.168.1.120"},
  {"name": "PROTOCOL", "type": "integer", "description": "IP protocol", "required": true, "example": "6"},
  {"name": "NOTE", "type": "string", "description": "Free text", "required": false, "example": ""}
]`

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
	require.NoError(t, err)

	return c
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPClientConfig{BaseURL: "  "})
	require.ErrorIs(t, err, errBaseURLRequired)
}

func TestColumns(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, columnsPath, r.URL.Path)

		_, _ = io.WriteString(w, columnsBody)
	}))

	schema, err := c.Columns(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"IPV4_SRC_ADDR", "PROTOCOL", "NOTE"}, schema.Names())
	assert.Equal(t, models.KindInteger, schema[1].Kind)
	assert.True(t, schema[1].Required)
}

func TestColumnsFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"detail": "boom"}`,
			check: func(t *testing.T, err error) {
				t.Helper()

				var serr *SchemaLoadError
				require.ErrorAs(t, err, &serr)
				assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>`,
		},
		{
			name:   "reserved column",
			status: http.StatusOK,
			body:   `[{"name": "id", "type": "integer"}]`,
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, models.ErrReservedColumn)
			},
		},
		{
			name:   "empty list",
			status: http.StatusOK,
			body:   `[]`,
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, models.ErrEmptySchema)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			_, err := c.Columns(context.Background())
			require.ErrorIs(t, err, ErrSchemaLoad)

			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestModels(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, modelsPath, r.URL.Path)
		_, _ = io.WriteString(w, `["Random Forest", "XGBoost", "LSTM", "CNN"]`)
	}))

	names, err := c.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Random Forest", names[0])
	assert.Len(t, names, 4)
}

func TestModelsEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))

	_, err := c.Models(context.Background())
	require.ErrorIs(t, err, errNoModels)
}

func TestAnalyzeFlows(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, analyzeDataPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		assert.Equal(t, "XGBoost", body["model"])

		flows, ok := body["flows"].([]any)
		require.True(t, ok)
		require.Len(t, flows, 1)
		assert.Equal(t, map[string]any{"id": "1", "PROTOCOL": float64(6), "NOTE": ""}, flows[0])

		_, _ = io.WriteString(w, `{"status":"success","total_entries":1,"model_used":"XGBoost","analysis_time":0.012,
			"results":[{"flow_id":"1","is_threat":true,"prediction":"DDoS","confidence":0.97,"risk_level":"Critical"}]}`)
	}))

	resp, err := c.AnalyzeFlows(context.Background(), &models.AnalyzeRequest{
		Model: "XGBoost",
		Flows: []models.NormalizedRecord{{
			ID: "1",
			Fields: []models.NormalizedField{
				{Name: "PROTOCOL", Kind: models.KindInteger, Value: int64(6)},
				{Name: "NOTE", Kind: models.KindString, Value: ""},
			},
		}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "DDoS", resp.Results[0].Prediction)
	assert.True(t, resp.Results[0].IsThreat)
	assert.Equal(t, "XGBoost", resp.ModelUsed)
	assert.InDelta(t, 0.012, resp.AnalysisTime, 1e-9)
}

func TestAnalyzeFlowsMissingResultsIsDecoded(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success"}`)
	}))

	resp, err := c.AnalyzeFlows(context.Background(), &models.AnalyzeRequest{Model: "CNN"})
	require.NoError(t, err)
	assert.Nil(t, resp.Results)
}

func TestAnalyzeFlowsBackendError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Invalid model: Bogus"}`)
	}))

	_, err := c.AnalyzeFlows(context.Background(), &models.AnalyzeRequest{Model: "Bogus"})
	require.ErrorIs(t, err, ErrSubmission)

	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.Equal(t, "Invalid model: Bogus", serr.Message())
	assert.Equal(t, OpAnalyzeFlows, serr.Operation)
}

func TestAnalyzeFlowsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(HTTPClientConfig{BaseURL: url})
	require.NoError(t, err)

	_, err = c.AnalyzeFlows(context.Background(), &models.AnalyzeRequest{Model: "CNN"})
	require.ErrorIs(t, err, ErrSubmission)

	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Zero(t, serr.StatusCode)
	assert.NotEmpty(t, serr.Message())
}

func TestAnalyzeCSV(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, analyzeCSVPath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "LSTM", r.FormValue("model"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)

		defer func() { _ = f.Close() }()

		data, err := io.ReadAll(f)
		require.NoError(t, err)

		assert.Equal(t, "flows.csv", hdr.Filename)
		assert.Equal(t, "A,B\n1,2\n", string(data))

		_, _ = io.WriteString(w, `{"filename":"flows.csv","model_used":"LSTM","rows_analyzed":1,"attacks_detected":0,
			"attack_types":[],"analysis_time":0.5,"csv_file":"QSxCLENsYXNzCg=="}`)
	}))

	res, err := c.AnalyzeCSV(context.Background(), "flows.csv", strings.NewReader("A,B\n1,2\n"), "LSTM")
	require.NoError(t, err)

	assert.Equal(t, 1, res.RowsAnalyzed)

	decoded, err := res.DecodedCSV()
	require.NoError(t, err)
	assert.Equal(t, "A,B,Class\n", string(decoded))
}

func TestAnalyzeCSVRequiresName(t *testing.T) {
	c, err := NewHTTPClient(HTTPClientConfig{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.AnalyzeCSV(context.Background(), "", strings.NewReader(""), "CNN")
	require.ErrorIs(t, err, errEmptyUpload)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy","message":"Backend is operational"}`)
	}))

	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "nope", errorDetail([]byte(`{"detail":"nope"}`)))
	assert.Equal(t, `[{"loc":["body"]}]`, errorDetail([]byte(`{"detail":[{"loc":["body"]}]}`)))
	assert.Equal(t, "Internal Server Error", errorDetail([]byte("Internal Server Error\n")))
}

func TestSubmissionErrorUnwrap(t *testing.T) {
	cause := errors.New("reset by peer")
	err := &SubmissionError{Operation: OpAnalyzeFlows, Err: cause}

	require.ErrorIs(t, err, ErrSubmission)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "reset by peer")
}
