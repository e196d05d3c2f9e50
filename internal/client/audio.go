// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// =============================================================================
// AUDIO SYNTHESIS BOUNDARY
// =============================================================================

// SynthesizeRequest asks the audio endpoint to render text as speech.
type SynthesizeRequest struct {
	VoiceID string `json:"voiceId"`
	Text    string `json:"text"`
}

// Synthesize requests an audio rendering of text and returns the audio
// byte stream. Failures map the endpoint's {message} JSON to a
// classified error; panels never depend on synthesis succeeding.
func (c *Client) Synthesize(ctx context.Context, req SynthesizeRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &RequestError{Kind: KindUnknown, Message: "encode audio request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/audio", bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Kind: KindUnknown, Message: "build audio request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Message: "connect to audio endpoint", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}

	return resp.Body, nil
}
