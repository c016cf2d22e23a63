// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package provider adapts the external SQL-generation service for the
// analysis agent. It supports two remote modes (playground and direct API)
// with a local rule-based fallback, and normalizes the heterogeneous vendor
// response shapes into a single QueryResult at the adapter boundary.
package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/citypulse/citypulse/internal/observability"
	"github.com/citypulse/citypulse/internal/store"
)

// Result sources, recorded on every QueryResult.
const (
	SourcePlayground = "playground"
	SourceDirect     = "direct"
	SourceFallback   = "fallback"
)

// QueryResult is the normalized outcome of SQL generation, regardless of
// which provider produced it.
type QueryResult struct {
	SQL              string                   `json:"sql"`
	Explanation      string                   `json:"explanation"`
	TechnicalDetails string                   `json:"technical_details,omitempty"`
	Confidence       float64                  `json:"confidence"`
	Rows             []store.Row              `json:"rows,omitempty"`
	Source           string                   `json:"source"`
}

// sqlRules is appended to the provider context so generated SQL keeps
// latitude/longitude columns available for map rendering.
const sqlRules = `
IMPORTANT SQL GENERATION RULES:

1. LOCATION DATA: Always include latitude and longitude columns in the SELECT
   statement when querying tables that contain location data.

2. AGGREGATION: When asked for counts or summaries by geographic area, GROUP BY
   the geographic column only, and use AVG(latitude), AVG(longitude) for map
   center points.

EXAMPLE for "calls by neighborhood":
SELECT neighborhood, COUNT(*) as call_count,
       AVG(latitude) as latitude, AVG(longitude) as longitude
FROM sf_police_calls_rt
WHERE neighborhood IS NOT NULL
GROUP BY neighborhood
ORDER BY call_count DESC`

// Client generates SQL for natural-language questions. Mode switching is
// safe for concurrent use with in-flight generation.
type Client struct {
	mu            sync.RWMutex
	apiKey        string
	baseURL       string
	usePlayground bool
	datafileID    string

	httpClient *http.Client
	metrics    *observability.Metrics
}

// Options configures a Client.
type Options struct {
	APIKey        string
	BaseURL       string
	UsePlayground bool
	DatafileID    string
	Timeout       time.Duration
	Metrics       *observability.Metrics
}

// NewClient creates a provider client. An empty API key disables remote
// calls entirely; every request then resolves through the local fallback.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.snowleopard.ai/v1"
	}
	return &Client{
		apiKey:        opts.APIKey,
		baseURL:       baseURL,
		usePlayground: opts.UsePlayground,
		datafileID:    opts.DatafileID,
		httpClient:    &http.Client{Timeout: timeout},
		metrics:       opts.Metrics,
	}
}

// Mode reports the currently active provider mode for status endpoints.
func (c *Client) Mode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.usePlayground {
		return fmt.Sprintf("playground (datafile: %s)", c.datafileID)
	}
	return "direct"
}

// HasAPIKey reports whether remote calls are possible.
func (c *Client) HasAPIKey() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// SwitchToPlayground activates playground mode, optionally changing the
// datafile the provider queries against.
func (c *Client) SwitchToPlayground(datafileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if datafileID != "" {
		c.datafileID = datafileID
	}
	c.usePlayground = true
	log.Infof("Provider switched to playground mode (datafile: %s)", c.datafileID)
}

// SwitchToDirect activates direct API mode.
func (c *Client) SwitchToDirect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usePlayground = false
	log.Info("Provider switched to direct API mode")
}

// GenerateSQL resolves a natural-language question into SQL.
//
// Attempt order: playground (when active and a datafile is configured) →
// direct API → local fallback templates. Each failure falls through one
// level; the chain never returns an error because the fallback always
// produces a result.
func (c *Client) GenerateSQL(ctx context.Context, question string, schema store.Schema, queryContext string) QueryResult {
	c.mu.RLock()
	apiKey := c.apiKey
	usePlayground := c.usePlayground
	datafileID := c.datafileID
	c.mu.RUnlock()

	if apiKey != "" {
		if usePlayground && datafileID != "" {
			result, err := c.generatePlayground(ctx, question, queryContext, datafileID)
			if err == nil {
				c.countAttempt(SourcePlayground, "success")
				return result
			}
			c.countAttempt(SourcePlayground, "error")
			log.Warnf("Playground SQL generation failed, falling back to direct API: %v", err)
		}

		result, err := c.generateDirect(ctx, question, schema, queryContext)
		if err == nil {
			c.countAttempt(SourceDirect, "success")
			return result
		}
		c.countAttempt(SourceDirect, "error")
		log.Warnf("Direct API SQL generation failed, using local fallback: %v", err)
	}

	result := c.fallback(question)
	c.countAttempt(SourceFallback, "success")
	return result
}

// generatePlayground calls the playground retrieve endpoint and normalizes
// its response. The playground executes the SQL itself and returns rows
// alongside the query.
func (c *Client) generatePlayground(ctx context.Context, question, queryContext, datafileID string) (QueryResult, error) {
	userQuery := queryContext + "\n" + sqlRules + "\n\nQuestion: " + question

	payload, _ := sjson.SetBytes([]byte(`{}`), "datafile_id", datafileID)
	payload, _ = sjson.SetBytes(payload, "user_query", userQuery)

	body, err := c.post(ctx, c.baseURL+"/playground/retrieve", payload)
	if err != nil {
		return QueryResult{}, err
	}
	return parsePlaygroundResponse(body, question)
}

// generateDirect calls the stateless generate-sql endpoint with the full
// schema description.
func (c *Client) generateDirect(ctx context.Context, question string, schema store.Schema, queryContext string) (QueryResult, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return QueryResult{}, fmt.Errorf("provider: failed to marshal schema: %w", err)
	}

	payload, _ := sjson.SetBytes([]byte(`{}`), "question", question)
	payload, _ = sjson.SetRawBytes(payload, "schema", schemaJSON)
	payload, _ = sjson.SetBytes(payload, "dialect", "sqlite")
	payload, _ = sjson.SetBytes(payload, "context", queryContext+"\n"+sqlRules)

	body, err := c.post(ctx, c.baseURL+"/generate-sql", payload)
	if err != nil {
		return QueryResult{}, err
	}

	root := gjson.ParseBytes(body)
	sql := root.Get("sql").String()
	if sql == "" {
		return QueryResult{}, fmt.Errorf("provider: direct response missing sql field")
	}
	return QueryResult{
		SQL:         sql,
		Explanation: root.Get("explanation").String(),
		Confidence:  root.Get("confidence").Float(),
		Source:      SourceDirect,
	}, nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("provider: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider: failed to read response: %w", err)
	}
	return body, nil
}

// parsePlaygroundResponse normalizes the playground's heterogeneous shapes.
// The data items may carry an error, and querySummary may be an object or a
// plain string depending on the vendor's processing path; all shape
// detection happens here so downstream code sees only QueryResult.
func parsePlaygroundResponse(body []byte, question string) (QueryResult, error) {
	root := gjson.ParseBytes(body)

	items := root.Get("data")
	if !items.IsArray() || len(items.Array()) == 0 {
		return QueryResult{}, fmt.Errorf("provider: playground response has no data items")
	}
	item := items.Array()[0]

	if errMsg := item.Get("error"); errMsg.Exists() {
		return QueryResult{}, fmt.Errorf("provider: playground returned error: %s", errMsg.String())
	}

	sql := item.Get("query").String()
	if sql == "" {
		return QueryResult{}, fmt.Errorf("provider: playground data item missing query")
	}

	result := QueryResult{
		SQL:        sql,
		Confidence: 0.9,
		Source:     SourcePlayground,
	}

	summary := item.Get("querySummary")
	switch {
	case summary.IsObject():
		result.Explanation = summary.Get("non_technical_explanation").String()
		result.TechnicalDetails = summary.Get("technical_details").String()
	case summary.Type == gjson.String:
		result.Explanation = summary.String()
	}
	if result.Explanation == "" {
		result.Explanation = "Generated by playground for: " + question
	}

	if rows := item.Get("rows"); rows.IsArray() {
		for _, r := range rows.Array() {
			if r.IsObject() {
				row := make(map[string]interface{})
				r.ForEach(func(key, value gjson.Result) bool {
					row[key.String()] = value.Value()
					return true
				})
				result.Rows = append(result.Rows, row)
			}
		}
	}

	return result, nil
}

func (c *Client) countAttempt(source, outcome string) {
	if c.metrics != nil {
		c.metrics.ProviderAttempts.WithLabelValues(source, outcome).Inc()
	}
}
