// Package client is a typed caller for the assistant's HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiKeyHeader = "X-API-Key"

// Health mirrors GET /api/health.
type Health struct {
	Status    string  `json:"status"`
	Service   string  `json:"service"`
	Timestamp string  `json:"timestamp"`
	Provider  string  `json:"provider"`
	Model     *string `json:"model"`
}

// Info mirrors GET /api/info.
type Info struct {
	ServiceName    string `json:"service_name"`
	Version        string `json:"version"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	Status         string `json:"status"`
	RequiresAPIKey bool   `json:"requires_api_key"`
}

// Answer mirrors a successful POST /api/ask.
type Answer struct {
	Success    bool   `json:"success"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
	Source     string `json:"source"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d: %s", e.Status, e.Message)
}

// Client talks to one assistant deployment.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New builds a client; apiKey is only sent on the ask route.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Health calls GET /api/health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, false, &out)
	return out, err
}

// Info calls GET /api/info.
func (c *Client) Info(ctx context.Context) (Info, error) {
	var out Info
	err := c.do(ctx, http.MethodGet, "/api/info", nil, false, &out)
	return out, err
}

// Ask calls POST /api/ask.
func (c *Client) Ask(ctx context.Context, question string) (Answer, error) {
	var out Answer
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return out, fmt.Errorf("encode ask request: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/api/ask", payload, true, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, withKey bool, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withKey && c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return &APIError{Status: status, Message: strings.TrimSpace(string(data))}
	}
	return &APIError{Status: status, Code: body.Code, Message: body.Error}
}
