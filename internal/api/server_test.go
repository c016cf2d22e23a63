// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"

	"github.com/citypulse/citypulse/internal/agent"
	"github.com/citypulse/citypulse/internal/config"
)

type fakeAnalyzer struct {
	result *agent.Result
	err    error
}

func (f *fakeAnalyzer) Analyze(context.Context, string) (*agent.Result, error) {
	return f.result, f.err
}

type fakeProvider struct {
	mode       string
	hasKey     bool
	playground bool
	datafile   string
}

func (f *fakeProvider) Mode() string    { return f.mode }
func (f *fakeProvider) HasAPIKey() bool { return f.hasKey }
func (f *fakeProvider) SwitchToPlayground(id string) {
	f.playground = true
	f.datafile = id
	f.mode = "playground"
}
func (f *fakeProvider) SwitchToDirect() {
	f.playground = false
	f.mode = "direct"
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fakeSync struct{ running bool }

func (f *fakeSync) Running() bool { return f.running }

type fakeReporter struct {
	data []byte
	err  error
}

func (f *fakeReporter) Generate(*agent.Result) ([]byte, error) { return f.data, f.err }

func newTestServer(t *testing.T, analyzer Analyzer) (*Server, *fakeProvider) {
	t.Helper()
	provider := &fakeProvider{mode: "direct", hasKey: true}
	cfg := config.Default()
	srv := NewServer(cfg, analyzer, provider, &fakePinger{}, &fakeSync{running: true}, &fakeReporter{data: []byte("%PDF-1.4 fake")})
	return srv, provider
}

func doRequest(srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestAnalyzeEndpoint(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &agent.Result{
		Question: "test",
		Intent:   agent.Intent{Type: agent.IntentMixedQuery, Timeframe: "24h"},
		SQL:      "SELECT 1",
		Source:   "fallback",
	}}
	srv, _ := newTestServer(t, analyzer)

	w := doRequest(srv, http.MethodPost, "/api/analyze", `{"question":"what happened today"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "mixed_query", gjson.Get(body, "intent.type").String())
	assert.Equal(t, "SELECT 1", gjson.Get(body, "sql").String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAnalyzeEndpointMissingQuestion(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	w := doRequest(srv, http.MethodPost, "/api/analyze", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeEndpointQueryError(t *testing.T) {
	analyzer := &fakeAnalyzer{err: &agent.QueryError{
		Message:    "generated SQL failed to execute",
		SQLUsed:    "SELECT * FROM nope",
		Source:     "direct",
		Suggestion: "Try rephrasing the question.",
	}}
	srv, _ := newTestServer(t, analyzer)

	w := doRequest(srv, http.MethodPost, "/api/analyze", `{"question":"bad"}`, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Equal(t, "SELECT * FROM nope", gjson.Get(body, "sql_used").String())
	assert.Contains(t, gjson.Get(body, "suggestion").String(), "rephrasing")
}

func TestAnalyzeEndpointUnexpectedError(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{err: errors.New("boom")})

	w := doRequest(srv, http.MethodPost, "/api/analyze", `{"question":"q"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSchemaEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	w := doRequest(srv, http.MethodGet, "/api/schema", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	tables := gjson.Get(w.Body.String(), "tables").Array()
	assert.Len(t, tables, 7)
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	w := doRequest(srv, http.MethodGet, "/api/status", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "direct", gjson.Get(body, "provider_mode").String())
	assert.True(t, gjson.Get(body, "api_key_configured").Bool())
	assert.True(t, gjson.Get(body, "sync_running").Bool())
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	w := doRequest(srv, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", gjson.Get(w.Body.String(), "database").String())
}

func TestHealthEndpointDatabaseDown(t *testing.T) {
	cfg := config.Default()
	srv := NewServer(cfg, &fakeAnalyzer{}, &fakeProvider{mode: "direct"},
		&fakePinger{err: errors.New("disk I/O error")}, nil, nil)

	w := doRequest(srv, http.MethodGet, "/api/health", "", nil)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", gjson.Get(w.Body.String(), "database").String())
}

func TestDemoQueriesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	w := doRequest(srv, http.MethodGet, "/api/demo-queries", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	queries := gjson.Get(w.Body.String(), "queries").Array()
	assert.Len(t, queries, 10)
}

func TestSwitchModeEndpoint(t *testing.T) {
	srv, provider := newTestServer(t, &fakeAnalyzer{})

	w := doRequest(srv, http.MethodPost, "/api/switch-mode", `{"mode":"playground","datafile_id":"df-9"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, provider.playground)
	assert.Equal(t, "df-9", provider.datafile)
	assert.Equal(t, "playground", gjson.Get(w.Body.String(), "current_mode").String())

	w = doRequest(srv, http.MethodPost, "/api/switch-mode", `{"mode":"direct"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, provider.playground)
}

func TestSwitchModeEndpointUnknownMode(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	w := doRequest(srv, http.MethodPost, "/api/switch-mode", `{"mode":"magic"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSwitchModeManagementKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.ManagementKey = string(hash)
	provider := &fakeProvider{mode: "direct"}
	srv := NewServer(cfg, &fakeAnalyzer{}, provider, &fakePinger{}, nil, nil)

	// Missing key is rejected.
	w := doRequest(srv, http.MethodPost, "/api/switch-mode", `{"mode":"direct"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong key is rejected.
	w = doRequest(srv, http.MethodPost, "/api/switch-mode", `{"mode":"direct"}`,
		map[string]string{"X-Management-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Correct key passes.
	w = doRequest(srv, http.MethodPost, "/api/switch-mode", `{"mode":"direct"}`,
		map[string]string{"X-Management-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGeneratePDFEndpoint(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &agent.Result{Question: "q", SQL: "SELECT 1"}}
	srv, _ := newTestServer(t, analyzer)

	w := doRequest(srv, http.MethodPost, "/api/generate-pdf", `{"question":"q"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "citypulse-report-")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestGeneratePDFEndpointReporterFailure(t *testing.T) {
	cfg := config.Default()
	srv := NewServer(cfg, &fakeAnalyzer{result: &agent.Result{}}, &fakeProvider{mode: "direct"},
		&fakePinger{}, nil, &fakeReporter{err: errors.New("render failed")})

	w := doRequest(srv, http.MethodPost, "/api/generate-pdf", `{"question":"q"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	w := doRequest(srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRootEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	w := doRequest(srv, http.MethodGet, "/", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CityPulse", gjson.Get(w.Body.String(), "service").String())
	assert.Equal(t, "operational", gjson.Get(w.Body.String(), "status").String())
}
