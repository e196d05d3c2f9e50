// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/modelgrid-tui/internal/client"
	"github.com/jeranaias/modelgrid-tui/internal/model"
	"github.com/jeranaias/modelgrid-tui/internal/store"
	"github.com/jeranaias/modelgrid-tui/internal/stream"
)

// =============================================================================
// PANEL CONTROLLER
// =============================================================================

// State is a panel's request lifecycle phase.
type State int

const (
	// StateIdle means no request has run since the panel was created
	// or reset.
	StateIdle State = iota

	// StateStreaming means a request is in flight. Further submissions
	// are no-ops until it ends.
	StateStreaming

	// StateSettled means the last request completed, including a
	// user-cancelled request whose partial output was kept.
	StateSettled

	// StateFailed means the last request failed and the submission is
	// held for retry.
	StateFailed
)

// String returns the lifecycle phase name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Streamer opens a model response stream for a chat request.
type Streamer interface {
	ChatStream(ctx context.Context, req client.ChatRequest) (io.ReadCloser, error)
}

// Controller runs one panel's submissions. Safe for concurrent use;
// Submit blocks for the duration of the stream, so callers run it on
// their own goroutine.
type Controller struct {
	mu sync.Mutex

	store    *store.Store
	streamer Streamer
	panelID  string

	state     State
	cancel    context.CancelFunc
	attempt   string
	collector *stream.Collector

	// onUpdate fires after every stream event so the UI can re-render
	// live output. May be nil.
	onUpdate func(panelID string)
}

// NewController creates an idle controller for one panel.
func NewController(st *store.Store, streamer Streamer, panelID string, onUpdate func(panelID string)) *Controller {
	return &Controller{
		store:    st,
		streamer: streamer,
		panelID:  panelID,
		onUpdate: onUpdate,
	}
}

// PanelID returns the panel this controller drives.
func (c *Controller) PanelID() string {
	return c.panelID
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LiveText returns the assistant text accumulated by the in-flight
// stream, including any unflushed tail.
func (c *Controller) LiveText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collector == nil {
		return ""
	}
	return c.collector.Text()
}

// LiveReasoning returns the reasoning text accumulated by the
// in-flight stream.
func (c *Controller) LiveReasoning() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collector == nil {
		return ""
	}
	return c.collector.Reasoning()
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit runs one request to completion. A blank submission (no text
// after trimming and no attachments) returns ErrBlankSubmission
// without touching panel state. While a request is streaming, further
// calls are no-ops. On failure the optimistic user message rolls back
// and the submission is recorded on the panel for retry; the returned
// error carries the classified kind.
func (c *Controller) Submit(ctx context.Context, content string, attachments []model.Attachment) error {
	if strings.TrimSpace(content) == "" && len(attachments) == 0 {
		return client.ErrBlankSubmission
	}

	c.mu.Lock()
	if c.state == StateStreaming {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	attempt := uuid.NewString()
	c.state = StateStreaming
	c.cancel = cancel
	c.attempt = attempt
	c.collector = stream.NewCollector()
	c.mu.Unlock()

	defer cancel()

	// The streaming state must clear on every exit path, including a
	// panic escaping run or an onUpdate callback.
	var err error
	defer func() {
		c.mu.Lock()
		if c.attempt == attempt {
			c.cancel = nil
			if err != nil {
				c.state = StateFailed
			} else {
				c.state = StateSettled
			}
		}
		c.mu.Unlock()
		c.update()
	}()

	err = c.run(runCtx, content, attachments)
	return err
}

// Retry resubmits the held failed submission. A no-op unless the panel
// is in the failed state.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateFailed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	panel, ok := c.store.Panel(c.panelID)
	if !ok || panel.Failed == nil {
		return nil
	}
	failed := *panel.Failed
	c.store.ClearFailed(c.panelID)
	return c.Submit(ctx, failed.Content, failed.Attachments)
}

// Dismiss discards the held failure without resubmitting.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.state == StateFailed {
		c.state = StateIdle
	}
	c.mu.Unlock()
	c.store.ClearFailed(c.panelID)
	c.update()
}

// Cancel stops the in-flight stream. Output received so far is kept as
// the assistant message; the panel settles rather than fails.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

func (c *Controller) run(ctx context.Context, content string, attachments []model.Attachment) error {
	panel, ok := c.store.Panel(c.panelID)
	if !ok {
		return nil
	}

	// Models without image input never see attachments.
	if !panel.Model().AcceptsImages() {
		attachments = nil
	}

	userMsg := model.NewUserMessage(content, attachments)
	c.store.AppendMessage(c.panelID, userMsg)
	c.store.ClearInput(c.panelID)
	c.update()

	history := append(panel.Messages, userMsg)
	cfg := panel.Config
	req := client.ChatRequest{
		ModelID:  panel.ModelID,
		Messages: client.ToWireMessages(history),
		Config:   &cfg,
	}

	body, err := c.streamer.ChatStream(ctx, req)
	if err != nil {
		return c.fail(userMsg.ID, content, attachments, err)
	}
	defer body.Close()

	parser := stream.NewParser(stream.Options{
		ModelID:     panel.ModelID,
		PromptChars: client.PromptChars(req.Messages),
	})
	err = parser.Process(ctx, body, func(ev stream.Event) {
		c.mu.Lock()
		c.collector.Add(ev)
		c.mu.Unlock()
		c.update()
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.settle(true)
			return nil
		}
		return c.fail(userMsg.ID, content, attachments, err)
	}

	c.settle(false)
	return nil
}

// settle appends the collected assistant message. After a cancel only
// non-empty partial output is kept. Effects are dropped when the panel
// id was replaced mid-flight.
func (c *Controller) settle(cancelled bool) {
	if !c.store.PanelExists(c.panelID) {
		return
	}

	c.mu.Lock()
	msg := c.collector.Message()
	c.mu.Unlock()

	if cancelled && len(msg.Parts) == 0 {
		return
	}
	c.store.AppendMessage(c.panelID, msg)
	c.store.ClearFailed(c.panelID)
}

// fail rolls back the optimistic user message and records the
// submission for retry. Returns the classified request error.
func (c *Controller) fail(userMessageID, content string, attachments []model.Attachment, err error) error {
	var reqErr *client.RequestError
	if !errors.As(err, &reqErr) {
		reqErr = &client.RequestError{
			Kind:    client.Classify(err),
			Message: err.Error(),
			Cause:   err,
		}
	}

	if c.store.PanelExists(c.panelID) {
		c.store.RemoveMessage(c.panelID, userMessageID)
		c.store.SetFailed(c.panelID, store.FailedSubmission{
			Content:     content,
			Attachments: attachments,
			Kind:        reqErr.Kind,
			Message:     reqErr.Message,
		})
	}
	return reqErr
}

func (c *Controller) update() {
	if c.onUpdate != nil {
		c.onUpdate(c.panelID)
	}
}
