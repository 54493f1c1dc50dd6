// Package client is the Go consumer of the groundwater platform API. All
// duck-typed backend response shapes are normalized at this boundary; nothing
// past it guesses which field holds a value.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client calls the dashboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessionID  string
	pinned     bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionID pins the chat session ID instead of adopting the server's.
func WithSessionID(id string) Option {
	return func(c *Client) {
		c.sessionID = id
		c.pinned = true
	}
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StateSummary is one element of the states listing.
type StateSummary struct {
	State               string  `json:"state"`
	TotalGroundWaterHam float64 `json:"total_ground_water_ham"`
	NumDistricts        int     `json:"num_districts"`
}

// Overview is the headline summary payload.
type Overview struct {
	TotalPoints     int `json:"total_points"`
	Safe            int `json:"safe"`
	Moderate        int `json:"moderate"`
	Critical        int `json:"critical"`
	MonitoredStates int `json:"monitored_states"`
}

// DistrictRow is one per-district aggregate row.
type DistrictRow struct {
	District   string             `json:"district"`
	Aggregates map[string]float64 `json:"aggregates"`
}

// apiError mirrors the server's error envelope.
type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RequestError is returned for non-2xx API responses.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("api request failed (%d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether an error is a 404 from the API.
func IsNotFound(err error) bool {
	re, ok := err.(*RequestError)
	return ok && re.StatusCode == http.StatusNotFound
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) postJSON(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &ae) == nil && ae.Message != "" {
			msg = ae.Message
		}
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: msg}
	}
	return data, nil
}

// States fetches the per-state summaries.
func (c *Client) States(ctx context.Context) ([]StateSummary, error) {
	data, err := c.get(ctx, "/api/states")
	if err != nil {
		return nil, err
	}
	var out []StateSummary
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode states: %w", err)
	}
	return out, nil
}

// State fetches and normalizes one state's aggregate.
func (c *Client) State(ctx context.Context, name string) (*StateMetrics, error) {
	data, err := c.get(ctx, "/api/state/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	return NormalizeStateMetrics(data)
}

// StateDistricts fetches the per-district aggregate rows of one state.
func (c *Client) StateDistricts(ctx context.Context, name string) ([]DistrictRow, error) {
	data, err := c.get(ctx, "/api/state/"+url.PathEscape(name)+"/districts")
	if err != nil {
		return nil, err
	}
	var out []DistrictRow
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode districts: %w", err)
	}
	return out, nil
}

// Overview fetches the headline summary.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	data, err := c.get(ctx, "/api/overview")
	if err != nil {
		return nil, err
	}
	var out Overview
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode overview: %w", err)
	}
	return &out, nil
}

// GeoJSON fetches the boundary FeatureCollection untouched.
func (c *Client) GeoJSON(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/geojson")
}

// Chat sends a natural-language query, carrying the session across calls.
func (c *Client) Chat(ctx context.Context, query string) (*ChatResponse, error) {
	data, err := c.postJSON(ctx, "/api/chat", map[string]string{
		"query":      query,
		"session_id": c.sessionID,
	})
	if err != nil {
		return nil, err
	}
	var out ChatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if out.SessionID != "" && !c.pinned {
		c.sessionID = out.SessionID
	}
	return &out, nil
}
