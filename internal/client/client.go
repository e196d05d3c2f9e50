// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the inference client.
type Config struct {
	// BaseURL is the inference gateway base URL.
	BaseURL string

	// Timeout for non-streaming requests (default: 30s). Streaming
	// responses are unbounded; cancellation comes from the context.
	Timeout time.Duration

	// RequestsPerMinute throttles submits client-side. Zero disables
	// throttling.
	RequestsPerMinute int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "http://127.0.0.1:8080",
		Timeout:           30 * time.Second,
		RequestsPerMinute: 60,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client issues streaming chat requests and audio synthesis requests.
// It is safe for concurrent use by multiple panels.
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a client with the given configuration.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		perSecond := rate.Limit(float64(config.RequestsPerMinute) / 60.0)
		limiter = rate.NewLimiter(perSecond, config.RequestsPerMinute)
	}

	return &Client{
		config: config,
		// No overall timeout on the shared client: streaming bodies
		// stay open for the duration of generation.
		httpClient: &http.Client{},
		limiter:    limiter,
	}
}

// ChatRequest is the body of a streaming chat request.
type ChatRequest struct {
	ModelID  string                    `json:"modelId"`
	Messages []WireMessage             `json:"messages"`
	Config   *catalog.GenerationConfig `json:"config,omitempty"`
}

// ChatStream opens one streaming turn. The caller owns the returned
// body and must close it. Non-2xx responses are drained, parsed for the
// standard {message} error shape, classified, and returned as a
// *RequestError.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &RequestError{Kind: KindNetwork, Message: "rate limit wait cancelled", Cause: err}
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &RequestError{Kind: KindUnknown, Message: "encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Kind: KindUnknown, Message: "build request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Message: "connect to inference endpoint", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}

	return resp.Body, nil
}

// errorFromResponse reads a failed response and classifies it. A body
// carrying the well-formed {message} shape is an API error unless the
// message signals a credential problem; anything unparseable reads as a
// network failure.
func errorFromResponse(resp *http.Response) *RequestError {
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if readErr != nil {
		return &RequestError{Kind: KindNetwork, Message: "read error response", Status: resp.StatusCode, Cause: readErr}
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Message == "" {
		return &RequestError{
			Kind:    KindNetwork,
			Message: "request failed with status " + resp.Status,
			Status:  resp.StatusCode,
		}
	}

	kind := KindAPI
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || hasCredentialSignal(payload.Message) {
		kind = KindCredentials
	}
	return &RequestError{Kind: kind, Message: payload.Message, Status: resp.StatusCode}
}
