// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
	"github.com/jeranaias/modelgrid-tui/internal/client"
	"github.com/jeranaias/modelgrid-tui/internal/config"
	"github.com/jeranaias/modelgrid-tui/internal/metrics"
	"github.com/jeranaias/modelgrid-tui/internal/model"
	"github.com/jeranaias/modelgrid-tui/internal/panel"
	"github.com/jeranaias/modelgrid-tui/internal/store"
	"github.com/jeranaias/modelgrid-tui/internal/syncer"
	"github.com/jeranaias/modelgrid-tui/internal/ui/styles"
	"github.com/jeranaias/modelgrid-tui/internal/util"
)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// App is the root Bubble Tea model.
type App struct {
	theme *styles.Theme
	keys  keyMap
	cfg   *config.Config

	store       *store.Store
	manager     *panel.Manager
	coordinator *syncer.Coordinator
	aggregator  *metrics.Aggregator
	client      *client.Client

	input     textarea.Model
	spin      spinner.Model
	viewports map[string]viewport.Model
	markdown  *markdownRenderer

	width  int
	height int
	focus  int

	toast    string
	toastSeq int

	// updates carries stream progress and storage notices from worker
	// goroutines into the Bubble Tea loop.
	updates chan tea.Msg
}

// New wires the application model over a loaded store and chat client.
func New(cfg *config.Config, st *store.Store, cl *client.Client) *App {
	theme := styles.NewTheme(cfg.UI.Theme)

	input := textarea.New()
	input.Placeholder = "Ask every model…"
	input.Prompt = ""
	input.SetHeight(3)
	input.CharLimit = 0
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = theme.Streaming

	a := &App{
		theme:     theme,
		keys:      defaultKeyMap(),
		cfg:       cfg,
		store:     st,
		client:    cl,
		input:     input,
		spin:      spin,
		viewports: make(map[string]viewport.Model),
		markdown:  newMarkdownRenderer(60, theme.IsDark),
		updates:   make(chan tea.Msg, 64),
	}

	scope := syncer.ScopeConversation
	if cfg.Sync.Scope == "global" {
		scope = syncer.ScopeGlobal
	}
	bus := syncer.NewBus()
	a.coordinator = syncer.New(st, scope, bus)
	a.manager = panel.NewManager(st, cl, a.notifyPanel)
	a.aggregator = metrics.NewAggregator(st)

	st.SetNotifier(a.notifyStorage)

	a.input.SetValue(a.focusedInput())
	return a
}

// notifyPanel is called from stream goroutines on every event.
func (a *App) notifyPanel(panelID string) {
	select {
	case a.updates <- panelUpdatedMsg{panelID: panelID}:
	default:
	}
}

// notifyStorage surfaces storage-layer notices as toasts.
func (a *App) notifyStorage(message string) {
	select {
	case a.updates <- toastMsg{text: message}:
	default:
	}
}

func (a *App) waitUpdates() tea.Cmd {
	return func() tea.Msg {
		return <-a.updates
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.spin.Tick, a.waitUpdates())
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// visiblePanels returns the active conversation's panels in display
// order.
func (a *App) visiblePanels() []*store.Panel {
	return a.store.PanelsForConversation(a.store.ActiveConversation())
}

func (a *App) focusedPanel() *store.Panel {
	panels := a.visiblePanels()
	if len(panels) == 0 {
		return nil
	}
	if a.focus >= len(panels) {
		a.focus = len(panels) - 1
	}
	if a.focus < 0 {
		a.focus = 0
	}
	return panels[a.focus]
}

func (a *App) focusedInput() string {
	if p := a.focusedPanel(); p != nil {
		return p.PendingInput
	}
	return ""
}

func (a *App) setFocus(idx int) {
	panels := a.visiblePanels()
	if len(panels) == 0 {
		return
	}
	a.focus = ((idx % len(panels)) + len(panels)) % len(panels)
	p := panels[a.focus]
	a.store.SetActivePanel(p.ID)
	a.input.SetValue(p.PendingInput)
	a.input.CursorEnd()
}

func (a *App) showToast(text string) tea.Cmd {
	a.toast = text
	a.toastSeq++
	return expireToast(a.toastSeq)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.SetWidth(msg.Width - 4)
		a.markdown.resize(a.panelContentWidth())
		a.refreshViewports(true)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case panelUpdatedMsg:
		a.refreshViewports(true)
		return a, a.waitUpdates()

	case toastMsg:
		cmd := a.showToast(msg.text)
		return a, tea.Batch(cmd, a.waitUpdates())

	case toastExpiredMsg:
		if msg.seq == a.toastSeq {
			a.toast = ""
		}
		return a, nil

	case submitFinishedMsg:
		a.refreshViewports(true)
		var failures []string
		blank := false
		for panelID, err := range msg.errs {
			if errors.Is(err, client.ErrBlankSubmission) {
				blank = true
				continue
			}
			if p, ok := a.store.Panel(panelID); ok {
				var reqErr *client.RequestError
				if errors.As(err, &reqErr) {
					failures = append(failures, fmt.Sprintf("%s: %s", p.ModelID, reqErr.Message))
				} else {
					failures = append(failures, fmt.Sprintf("%s: %v", p.ModelID, err))
				}
			}
		}
		if len(failures) == 0 {
			if blank {
				return a, a.showToast("nothing to send")
			}
			return a, nil
		}
		sort.Strings(failures)
		return a, a.showToast(strings.Join(failures, " · "))

	case speakFinishedMsg:
		if msg.err != nil {
			return a, a.showToast(fmt.Sprintf("speech failed: %v", msg.err))
		}
		return a, a.showToast(fmt.Sprintf("audio saved to %s", msg.path))

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := a.keys

	switch {
	case key.Matches(msg, keys.Quit):
		a.manager.CancelAll()
		return a, tea.Quit

	case key.Matches(msg, keys.Submit):
		return a, a.submit()

	case key.Matches(msg, keys.Newline):
		a.input.InsertString("\n")
		return a, nil

	case key.Matches(msg, keys.NextPanel):
		a.setFocus(a.focus + 1)
		return a, nil

	case key.Matches(msg, keys.PrevPanel):
		a.setFocus(a.focus - 1)
		return a, nil

	case key.Matches(msg, keys.AddPanel):
		a.store.AddPanel(a.store.ActiveConversation())
		a.refreshViewports(true)
		a.setFocus(len(a.visiblePanels()) - 1)
		return a, nil

	case key.Matches(msg, keys.ClosePanel):
		if p := a.focusedPanel(); p != nil {
			a.store.RemovePanel(p.ID)
			a.manager.Prune()
			delete(a.viewports, p.ID)
			a.setFocus(a.focus)
			a.refreshViewports(true)
		}
		return a, nil

	case key.Matches(msg, keys.CycleModel):
		a.cycleModel()
		return a, nil

	case key.Matches(msg, keys.ToggleSync):
		if p := a.focusedPanel(); p != nil {
			a.store.SetSynced(p.ID, !p.Synced)
		}
		return a, nil

	case key.Matches(msg, keys.ResetPanel):
		if p := a.focusedPanel(); p != nil {
			a.store.Reset(p.ID)
			a.manager.Prune()
			delete(a.viewports, p.ID)
			a.input.Reset()
			a.refreshViewports(true)
		}
		return a, nil

	case key.Matches(msg, keys.Retry):
		if p := a.focusedPanel(); p != nil && p.Failed != nil {
			ctrl := a.manager.Controller(p.ID)
			return a, func() tea.Msg {
				err := ctrl.Retry(context.Background())
				errs := map[string]error{}
				if err != nil {
					errs[ctrl.PanelID()] = err
				}
				return submitFinishedMsg{errs: errs}
			}
		}
		return a, nil

	case key.Matches(msg, keys.Cancel):
		if p := a.focusedPanel(); p != nil {
			ctrl := a.manager.Controller(p.ID)
			switch ctrl.State() {
			case panel.StateStreaming:
				ctrl.Cancel()
			case panel.StateFailed:
				ctrl.Dismiss()
			}
		}
		return a, nil

	case key.Matches(msg, keys.Export):
		return a, a.exportMetrics()

	case key.Matches(msg, keys.Speak):
		return a, a.speakFocused()

	case key.Matches(msg, keys.ScrollUp), key.Matches(msg, keys.ScrollDown):
		if p := a.focusedPanel(); p != nil {
			vp := a.viewports[p.ID]
			if key.Matches(msg, keys.ScrollUp) {
				vp.HalfViewUp()
			} else {
				vp.HalfViewDown()
			}
			a.viewports[p.ID] = vp
		}
		return a, nil
	}

	// Everything else edits the input and fans out through the
	// coordinator.
	var cmd tea.Cmd
	before := a.input.Value()
	a.input, cmd = a.input.Update(msg)
	if after := a.input.Value(); after != before {
		if p := a.focusedPanel(); p != nil {
			a.coordinator.SetInput(p.ID, after)
		}
	}
	return a, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (a *App) submit() tea.Cmd {
	p := a.focusedPanel()
	if p == nil {
		return nil
	}

	targets := a.coordinator.SubmitTargets(p.ID)
	mgr := a.manager
	a.input.Reset()

	return func() tea.Msg {
		return submitFinishedMsg{errs: mgr.SubmitMany(context.Background(), targets)}
	}
}

func (a *App) cycleModel() {
	p := a.focusedPanel()
	if p == nil {
		return
	}
	models := catalog.Models()
	next := models[0].ID
	for i, m := range models {
		if m.ID == p.ModelID {
			next = models[(i+1)%len(models)].ID
			break
		}
	}
	delete(a.viewports, p.ID)
	a.store.SetModel(p.ID, next)
	a.manager.Prune()
	a.input.Reset()
	a.refreshViewports(true)
}

func (a *App) exportMetrics() tea.Cmd {
	dir, err := config.ConfigDir()
	if err != nil {
		return a.showToast(fmt.Sprintf("export failed: %v", err))
	}
	path := filepath.Join(dir, fmt.Sprintf("metrics-%s.json", time.Now().Format("20060102-150405")))
	if err := a.aggregator.ExportJSON(path); err != nil {
		return a.showToast(fmt.Sprintf("export failed: %v", err))
	}
	return a.showToast(fmt.Sprintf("metrics exported to %s", path))
}

// speakFocused synthesizes the focused panel's last reply to an audio
// file.
func (a *App) speakFocused() tea.Cmd {
	p := a.focusedPanel()
	if p == nil {
		return nil
	}
	var text string
	for i := len(p.Messages) - 1; i >= 0; i-- {
		if t := p.Messages[i].Text(); p.Messages[i].Role == model.RoleAssistant && t != "" {
			text = t
			break
		}
	}
	if text == "" {
		return nil
	}

	cl := a.client
	dir, err := config.ConfigDir()
	if err != nil {
		return a.showToast(fmt.Sprintf("speech failed: %v", err))
	}
	path := filepath.Join(dir, "audio", fmt.Sprintf("reply-%s.mp3", time.Now().Format("20060102-150405")))

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		body, err := cl.Synthesize(ctx, client.SynthesizeRequest{Text: text})
		if err != nil {
			return speakFinishedMsg{err: err}
		}
		defer body.Close()

		data, err := io.ReadAll(body)
		if err != nil {
			return speakFinishedMsg{err: err}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return speakFinishedMsg{err: err}
		}
		if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
			return speakFinishedMsg{err: err}
		}
		return speakFinishedMsg{path: path}
	}
}
