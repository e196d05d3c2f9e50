// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// ErrorKind classifies a failure for user-facing handling and retry.
type ErrorKind string

const (
	// KindValidation is a rejected submission (for example blank
	// content). Raised before any network call.
	KindValidation ErrorKind = "validation"
	// KindCredentials indicates auth or permission signals in the
	// error payload.
	KindCredentials ErrorKind = "credentials"
	// KindAPI is a well-formed error response from the inference
	// backend.
	KindAPI ErrorKind = "api"
	// KindNetwork is a transport failure or an unparseable error.
	KindNetwork ErrorKind = "network"
	// KindStorage is a persistence failure (quota exceeded). Handled at
	// the storage boundary, never as a panel failure.
	KindStorage ErrorKind = "storage"
	// KindUnknown is the fallback.
	KindUnknown ErrorKind = "unknown"
)

// RequestError is a classified failure of an inference request.
type RequestError struct {
	Kind    ErrorKind
	Message string
	Status  int
	Cause   error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Kind) + " error"
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Is matches request errors by kind.
func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// ErrBlankSubmission is the validation error for empty or
// whitespace-only content.
var ErrBlankSubmission = &RequestError{
	Kind:    KindValidation,
	Message: "message content is empty",
}

// credentialSignals are payload substrings that indicate an auth or
// permission failure rather than a generic API error.
var credentialSignals = []string{
	"credential",
	"unauthorized",
	"forbidden",
	"permission",
	"access denied",
	"api key",
	"token expired",
	"not authorized",
}

// Classify maps an arbitrary error to its kind. Already-classified
// errors keep their kind; everything else falls back by inspecting the
// error text for credential signals, then to network for transport
// failures, then unknown.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}

	if hasCredentialSignal(err.Error()) {
		return KindCredentials
	}

	if isTransportError(err) {
		return KindNetwork
	}

	return KindUnknown
}

// isTransportError reports whether the error originated in the network
// transport rather than application logic.
func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE)
}

func hasCredentialSignal(text string) bool {
	lower := strings.ToLower(text)
	for _, signal := range credentialSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}
