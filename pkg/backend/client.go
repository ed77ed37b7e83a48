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

// Package backend is the HTTP client for the Cortex detection backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/carverauto/cortex/pkg/logger"
	"github.com/carverauto/cortex/pkg/metrics"
	"github.com/carverauto/cortex/pkg/models"
)

const (
	columnsPath     = "/api/schema/columns"
	modelsPath      = "/api/models"
	analyzeDataPath = "/api/analyze_data"
	analyzeCSVPath  = "/api/analyze"
	healthPath      = "/api/health"

	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4096
)

// Operation names used in logs, errors and metrics.
const (
	OpColumns      = "columns"
	OpModels       = "models"
	OpAnalyzeFlows = "analyze_flows"
	OpAnalyzeCSV   = "analyze_csv"
	OpHealth       = "health"
)

//go:generate mockgen -destination=mock_client.go -package=backend github.com/carverauto/cortex/pkg/backend Client

// Client is the detection backend as seen by the console.
type Client interface {
	Columns(ctx context.Context) (models.Schema, error)
	Models(ctx context.Context) ([]string, error)
	AnalyzeFlows(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error)
	AnalyzeCSV(ctx context.Context, filename string, body io.Reader, model string) (*models.CSVAnalysisResult, error)
	Health(ctx context.Context) (*models.HealthStatus, error)
}

// HTTPClientConfig controls how the backend HTTP client behaves.
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  logger.Logger
	Metrics metrics.Recorder
	HTTP    *http.Client
}

// HTTPClient implements Client over HTTP/JSON.
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client
	logger  logger.Logger
	metrics metrics.Recorder
}

// NewHTTPClient validates cfg and returns a client.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errBaseURLRequired
	}

	parsed, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.NewNoop()
	}

	return &HTTPClient{
		baseURL: parsed,
		client:  httpClient,
		logger:  log,
		metrics: rec,
	}, nil
}

// BaseURL is the configured backend address.
func (c *HTTPClient) BaseURL() string { return c.baseURL.String() }

func (c *HTTPClient) endpoint(p string) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)

	return u.String()
}

// Columns fetches the ordered feature schema. The result is validated,
// so a schema with duplicate or reserved names is a load failure.
func (c *HTTPClient) Columns(ctx context.Context) (models.Schema, error) {
	var schema models.Schema

	status, err := c.getJSON(ctx, OpColumns, columnsPath, &schema)
	if err != nil {
		return nil, &SchemaLoadError{StatusCode: status, Err: err}
	}

	if err := schema.Validate(); err != nil {
		return nil, &SchemaLoadError{Err: err}
	}

	return schema, nil
}

// Models lists the model names the backend accepts. The first is the
// default selection.
func (c *HTTPClient) Models(ctx context.Context) ([]string, error) {
	var names []string

	if _, err := c.getJSON(ctx, OpModels, modelsPath, &names); err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, errNoModels
	}

	return names, nil
}

// Health calls the backend liveness endpoint.
func (c *HTTPClient) Health(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus

	if _, err := c.getJSON(ctx, OpHealth, healthPath, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// AnalyzeFlows submits normalized records. Any non-2xx answer is a
// *SubmissionError. A 2xx answer is returned as decoded, even when it
// carries no result list; callers decide whether that is acceptable.
func (c *HTTPClient) AnalyzeFlows(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	var out models.AnalyzeResponse

	if err := c.do(ctx, OpAnalyzeFlows, http.MethodPost, analyzeDataPath, "application/json", bytes.NewReader(payload), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// AnalyzeCSV streams a CSV file to the backend as multipart form data
// with fields "file" and "model".
func (c *HTTPClient) AnalyzeCSV(ctx context.Context, filename string, body io.Reader, model string) (*models.CSVAnalysisResult, error) {
	if filename == "" {
		return nil, errEmptyUpload
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUpload(mw, filename, body, model))
	}()

	var out models.CSVAnalysisResult

	err := c.do(ctx, OpAnalyzeCSV, http.MethodPost, analyzeCSVPath, mw.FormDataContentType(), pr, &out)

	_ = pr.Close()

	if err != nil {
		return nil, err
	}

	return &out, nil
}

func writeUpload(mw *multipart.Writer, filename string, body io.Reader, model string) error {
	if err := mw.WriteField("model", model); err != nil {
		return err
	}

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, body); err != nil {
		return err
	}

	return mw.Close()
}

func (c *HTTPClient) getJSON(ctx context.Context, op, p string, dst interface{}) (int, error) {
	err := c.do(ctx, op, http.MethodGet, p, "", nil, dst)

	var serr *SubmissionError
	if errors.As(err, &serr) {
		return serr.StatusCode, err
	}

	return 0, err
}

func (c *HTTPClient) do(ctx context.Context, op, method, p, contentType string, body io.Reader, dst interface{}) error {
	start := time.Now()

	err := c.roundTrip(ctx, op, method, p, contentType, body, dst)

	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
	}

	elapsed := time.Since(start)
	c.metrics.ObserveBackendRequest(op, result, elapsed)

	if err != nil {
		c.logger.Warn().Err(err).Str("operation", op).Dur("elapsed", elapsed).Msg("Backend request failed")
		return err
	}

	c.logger.Debug().Str("operation", op).Dur("elapsed", elapsed).Msg("Backend request completed")

	return nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, op, method, p, contentType string, body io.Reader, dst interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.endpoint(p), body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}

	httpReq.Header.Set("Accept", "application/json")

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return &SubmissionError{Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return &SubmissionError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(msg),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &SubmissionError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

// errorDetail extracts {"detail": "..."} from an error body, falling
// back to the trimmed body text.
func errorDetail(body []byte) string {
	var decoded struct {
		Detail json.RawMessage `json:"detail"`
	}

	if err := json.Unmarshal(body, &decoded); err == nil && len(decoded.Detail) > 0 {
		var s string
		if err := json.Unmarshal(decoded.Detail, &s); err == nil {
			return s
		}

		return string(decoded.Detail)
	}

	return strings.TrimSpace(string(body))
}
