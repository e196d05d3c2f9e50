// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
	"github.com/jeranaias/modelgrid-tui/internal/model"
	"github.com/jeranaias/modelgrid-tui/internal/panel"
	"github.com/jeranaias/modelgrid-tui/internal/store"
	"github.com/jeranaias/modelgrid-tui/internal/util"
)

// =============================================================================
// LAYOUT
// =============================================================================

const (
	headerHeight = 1
	statusHeight = 1
	inputHeight  = 5
	panelChrome  = 5
)

func (a *App) panelWidth() int {
	n := len(a.visiblePanels())
	if n == 0 {
		n = 1
	}
	w := a.width / n
	if w < 24 {
		w = 24
	}
	return w
}

func (a *App) panelContentWidth() int {
	// Border and padding take four columns.
	return a.panelWidth() - 4
}

func (a *App) panelHeight() int {
	h := a.height - headerHeight - inputHeight - statusHeight
	if h < 8 {
		h = 8
	}
	return h
}

// refreshViewports rebuilds viewport content for every visible panel.
func (a *App) refreshViewports(follow bool) {
	width := a.panelContentWidth()
	height := a.panelHeight() - panelChrome
	if height < 3 {
		height = 3
	}

	for _, p := range a.visiblePanels() {
		vp, ok := a.viewports[p.ID]
		if !ok {
			vp = viewport.New(width, height)
		}
		vp.Width = width
		vp.Height = height

		atBottom := vp.AtBottom()
		vp.SetContent(a.renderTranscript(p))
		if follow && (atBottom || !ok) {
			vp.GotoBottom()
		}
		a.viewports[p.ID] = vp
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "starting modelgrid…"
	}

	panels := a.visiblePanels()
	columns := make([]string, 0, len(panels))
	for i, p := range panels {
		columns = append(columns, a.renderPanel(p, i == a.focus))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(row)
	b.WriteString("\n")
	b.WriteString(a.renderInput())
	b.WriteString("\n")
	b.WriteString(a.renderStatus())
	return a.theme.App.Render(b.String())
}

func (a *App) renderHeader() string {
	group := ""
	for _, g := range a.store.Groups() {
		if g.ID == a.store.ActiveConversation() {
			group = g.Name
			break
		}
	}
	title := a.theme.Title.Render("modelgrid")
	return a.theme.Header.Render(fmt.Sprintf("%s  %s", title, group))
}

func (a *App) renderPanel(p *store.Panel, focused bool) string {
	theme := a.theme
	width := a.panelContentWidth()
	info := p.Model()

	title := theme.PanelTitle.Render(util.TruncateWidth(info.Name, width-8))
	sync := theme.SyncOff.Render("⊘ solo")
	if p.Synced {
		sync = theme.SyncOn.Render("⇄ sync")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", sync)
	subtitle := theme.PanelSubtitle.Render(util.TruncateWidth(
		fmt.Sprintf("%s · t=%.1f · %d tok", info.Provider, p.Config.Temperature, p.Config.MaxTokens),
		width,
	))

	body := ""
	if vp, ok := a.viewports[p.ID]; ok {
		body = vp.View()
	}

	footer := a.renderPanelFooter(p, width)

	content := lipgloss.JoinVertical(lipgloss.Left, header, subtitle, body, footer)

	style := theme.Panel
	if focused {
		style = theme.PanelFocused
	}
	return style.Width(width).Render(content)
}

// renderPanelFooter shows the stream state, failure, or last-response
// metrics.
func (a *App) renderPanelFooter(p *store.Panel, width int) string {
	theme := a.theme
	ctrl := a.manager.Controller(p.ID)

	switch ctrl.State() {
	case panel.StateStreaming:
		return theme.Streaming.Render(a.spin.View() + " streaming…")
	case panel.StateFailed:
		if p.Failed != nil {
			text := fmt.Sprintf("✗ [%s] %s", p.Failed.Kind, p.Failed.Message)
			return theme.ErrorBanner.Render(util.TruncateWidth(text, width))
		}
		return theme.ErrorBanner.Render("✗ request failed")
	}

	if !a.cfg.UI.ShowMetrics {
		return ""
	}
	for i := len(p.Messages) - 1; i >= 0; i-- {
		m := p.Messages[i]
		if m.Role != model.RoleAssistant || m.Annotations == nil {
			continue
		}
		return theme.Metrics.Render(util.TruncateWidth(formatMetrics(m.Annotations), width))
	}
	return ""
}

func formatMetrics(m *model.ResponseMetrics) string {
	cost := "n/a"
	if m.CostKnown {
		cost = fmt.Sprintf("$%.5f", m.Cost)
	}
	return fmt.Sprintf("⏱ %s first · %s total · %d→%d tok · %s",
		m.FirstTokenTime.Round(10_000_000),
		m.ResponseTime.Round(10_000_000),
		m.InputTokens, m.OutputTokens, cost)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

func (a *App) renderTranscript(p *store.Panel) string {
	theme := a.theme
	ctrl := a.manager.Controller(p.ID)

	var sections []string
	for _, m := range p.Messages {
		switch m.Role {
		case model.RoleUser:
			label := theme.UserLabel.Render("you")
			body := m.Content
			for _, att := range m.Attachments {
				body += "\n" + theme.FileChip.Render("📎 "+att.Name)
			}
			sections = append(sections, label+"\n"+body)

		case model.RoleAssistant:
			label := theme.AssistantLabel.Render(p.Model().Name)
			var parts []string
			if a.cfg.UI.ShowReasoning {
				if r := m.Reasoning(); r != "" {
					parts = append(parts, theme.Reasoning.Render(r))
				}
			}
			if t := m.Text(); t != "" {
				parts = append(parts, a.markdown.render(t))
			}
			for _, f := range m.Files() {
				chip := theme.FileChip.Render(fmt.Sprintf("📄 %s (%s, %d bytes)", f.Name, f.MimeType, len(f.Data)))
				if preview := renderFilePreview(f); preview != "" {
					chip += "\n" + preview
				}
				parts = append(parts, chip)
			}
			sections = append(sections, label+"\n"+strings.Join(parts, "\n"))
		}
	}

	if ctrl.State() == panel.StateStreaming {
		label := theme.AssistantLabel.Render(p.Model().Name)
		var live []string
		if a.cfg.UI.ShowReasoning {
			if r := ctrl.LiveReasoning(); r != "" {
				live = append(live, theme.Reasoning.Render(r))
			}
		}
		if t := ctrl.LiveText(); t != "" {
			live = append(live, t)
		}
		sections = append(sections, label+"\n"+strings.Join(live, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (a *App) renderInput() string {
	theme := a.theme
	prompt := theme.InputPrompt.Render("❯ ")
	tokens := theme.TokenCount.Render(fmt.Sprintf("~%d tok", catalog.EstimateTokens(a.input.Value())))

	attachments := ""
	if p := a.focusedPanel(); p != nil {
		for _, att := range p.PendingAttachments {
			attachments += " " + theme.FileChip.Render("📎 "+att.Name)
		}
	}

	top := lipgloss.JoinHorizontal(lipgloss.Center, prompt, tokens, attachments)
	return theme.InputContainer.Width(a.width - 2).Render(top + "\n" + a.input.View())
}

func (a *App) renderStatus() string {
	theme := a.theme
	if a.toast != "" {
		return theme.StatusBar.Render(theme.Toast.Render(a.toast))
	}

	shortcuts := []struct{ k, d string }{
		{"enter", "send"},
		{"tab", "panel"},
		{"^n", "add"},
		{"^w", "close"},
		{"^l", "model"},
		{"^s", "sync"},
		{"^r", "retry"},
		{"^e", "export"},
		{"esc", "cancel"},
	}
	var parts []string
	for _, s := range shortcuts {
		parts = append(parts, theme.ShortcutKey.Render(s.k)+theme.ShortcutDesc.Render(":"+s.d))
	}
	return theme.StatusBar.Render(strings.Join(parts, "  "))
}
