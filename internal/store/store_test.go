// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
	"github.com/jeranaias/modelgrid-tui/internal/model"
	"github.com/jeranaias/modelgrid-tui/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV(1 << 20)
	s := New(kv, "")
	require.NoError(t, s.Load())
	return s, kv
}

func userMsg(content string, at time.Time) model.Message {
	m := model.NewUserMessage(content, nil)
	m.CreatedAt = at
	return m
}

func TestLoadSynthesizesDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	panels := s.Panels()
	require.Len(t, panels, 1)
	assert.Equal(t, catalog.Default().ID, panels[0].ModelID)
	assert.True(t, panels[0].Synced)

	groups := s.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, groups[0].ID, s.ActiveConversation())
	assert.Equal(t, panels[0].ID, s.ActivePanelID())
}

func TestConfiguredDefaultModel(t *testing.T) {
	kv := storage.NewMemoryKV(1 << 20)
	s := New(kv, "gpt-4o")
	require.NoError(t, s.Load())

	panels := s.Panels()
	require.Len(t, panels, 1)
	assert.Equal(t, "gpt-4o", panels[0].ModelID)

	added := s.AddPanel(s.ActiveConversation())
	assert.Equal(t, "gpt-4o", added.ModelID)

	newID := s.SetModel(added.ID, "no-such-model")
	np, ok := s.Panel(newID)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", np.ModelID)
}

func TestConfiguredDefaultModelUnknownID(t *testing.T) {
	kv := storage.NewMemoryKV(1 << 20)
	s := New(kv, "no-such-model")
	require.NoError(t, s.Load())

	assert.Equal(t, catalog.Default().ID, s.Panels()[0].ModelID)
}

func TestSetModelRegeneratesID(t *testing.T) {
	s, _ := newTestStore(t)
	p := s.Panels()[0]
	s.AppendMessage(p.ID, userMsg("hello", time.Now()))
	s.SetInput(p.ID, "draft")

	newID := s.SetModel(p.ID, "us.amazon.nova-pro-v1:0")
	require.NotEmpty(t, newID)
	assert.NotEqual(t, p.ID, newID)
	assert.False(t, s.PanelExists(p.ID))

	np, ok := s.Panel(newID)
	require.True(t, ok)
	assert.Equal(t, "us.amazon.nova-pro-v1:0", np.ModelID)
	assert.Empty(t, np.Messages)
	assert.Empty(t, np.PendingInput)
	assert.Equal(t, p.SessionID, np.SessionID)
	assert.Equal(t, newID, s.ActivePanelID())
}

func TestSetModelUnknownFallsBackToDefault(t *testing.T) {
	s, _ := newTestStore(t)
	p := s.Panels()[0]

	newID := s.SetModel(p.ID, "no-such-model")
	np, ok := s.Panel(newID)
	require.True(t, ok)
	assert.Equal(t, catalog.Default().ID, np.ModelID)
}

func TestResetKeepsModel(t *testing.T) {
	s, _ := newTestStore(t)
	p := s.Panels()[0]
	oldID := s.SetModel(p.ID, "mistral.mistral-large-2407-v1:0")
	s.AppendMessage(oldID, userMsg("hi", time.Now()))

	newID := s.Reset(oldID)
	np, ok := s.Panel(newID)
	require.True(t, ok)
	assert.Equal(t, "mistral.mistral-large-2407-v1:0", np.ModelID)
	assert.Empty(t, np.Messages)
	assert.False(t, s.PanelExists(oldID))
}

func TestRemoveLastPanelCreatesReplacement(t *testing.T) {
	s, _ := newTestStore(t)
	p := s.Panels()[0]

	s.RemovePanel(p.ID)

	panels := s.Panels()
	require.Len(t, panels, 1)
	assert.NotEqual(t, p.ID, panels[0].ID)
	assert.Equal(t, p.ConversationID, panels[0].ConversationID)
	assert.Equal(t, panels[0].ID, s.ActivePanelID())
}

func TestAttachmentUniqueByName(t *testing.T) {
	s, _ := newTestStore(t)
	p := s.Panels()[0]

	s.AddAttachment(p.ID, model.Attachment{Name: "a.png", Data: []byte{1}})
	s.AddAttachment(p.ID, model.Attachment{Name: "b.png", Data: []byte{2}})
	s.AddAttachment(p.ID, model.Attachment{Name: "a.png", Data: []byte{3}})

	np, _ := s.Panel(p.ID)
	require.Len(t, np.PendingAttachments, 2)
	assert.Equal(t, []byte{3}, np.PendingAttachments[0].Data)

	s.RemoveAttachment(p.ID, "b.png")
	np, _ = s.Panel(p.ID)
	require.Len(t, np.PendingAttachments, 1)
	assert.Equal(t, "a.png", np.PendingAttachments[0].Name)
}

func TestUpdateParamsClamps(t *testing.T) {
	s, _ := newTestStore(t)
	p := s.Panels()[0]

	cfg := p.Config
	cfg.Temperature = 9
	cfg.MaxTokens = -5
	s.UpdateParams(p.ID, cfg)

	np, _ := s.Panel(p.ID)
	spec := np.Model().Params
	assert.Equal(t, spec.Temperature.Max, np.Config.Temperature)
	assert.Equal(t, int(spec.MaxTokens.Min), np.Config.MaxTokens)
}

func TestRemoveMessageRollsBack(t *testing.T) {
	s, _ := newTestStore(t)
	p := s.Panels()[0]
	m1 := userMsg("first", time.Now())
	m2 := userMsg("second", time.Now())
	s.AppendMessage(p.ID, m1)
	s.AppendMessage(p.ID, m2)

	s.RemoveMessage(p.ID, m2.ID)

	np, _ := s.Panel(p.ID)
	require.Len(t, np.Messages, 1)
	assert.Equal(t, m1.ID, np.Messages[0].ID)
}

func TestPersistCapsMessagesPerPanel(t *testing.T) {
	s, kv := newTestStore(t)
	p := s.Panels()[0]
	for i := 0; i < 30; i++ {
		s.AppendMessage(p.ID, userMsg(fmt.Sprintf("msg-%d", i), time.Now()))
	}

	raw, err := kv.Get(chatStoreKey)
	require.NoError(t, err)
	var state persistedChatState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	require.Len(t, state.Panels, 1)
	require.Len(t, state.Panels[0].Messages, maxPersistedMessages)
	// The tail is kept, oldest evicted.
	assert.Equal(t, "msg-10", state.Panels[0].Messages[0].Content)
	assert.Equal(t, "msg-29", state.Panels[0].Messages[19].Content)

	// In-memory transcript stays complete.
	np, _ := s.Panel(p.ID)
	assert.Len(t, np.Messages, 30)
}

func TestPersistCapsPanelsByRecency(t *testing.T) {
	s, kv := newTestStore(t)
	conv := s.ActiveConversation()

	base := time.Now().Add(-time.Hour)
	first := s.Panels()[0]
	s.AppendMessage(first.ID, userMsg("oldest", base))
	var newest string
	for i := 0; i < 11; i++ {
		p := s.AddPanel(conv)
		s.AppendMessage(p.ID, userMsg("m", base.Add(time.Duration(i+1)*time.Minute)))
		newest = p.ID
	}
	// One panel with no messages ranks last.
	empty := s.AddPanel(conv)

	raw, err := kv.Get(chatStoreKey)
	require.NoError(t, err)
	var state persistedChatState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	require.Len(t, state.Panels, maxPersistedPanels)

	ids := make(map[string]bool)
	for _, pp := range state.Panels {
		ids[pp.ID] = true
	}
	assert.True(t, ids[newest])
	assert.False(t, ids[first.ID], "oldest panel should be evicted")
	assert.False(t, ids[empty.ID], "empty panel should rank last")
}

func TestPersistStripsAttachmentBytes(t *testing.T) {
	s, kv := newTestStore(t)
	p := s.Panels()[0]
	msg := model.NewUserMessage("with image", []model.Attachment{{Name: "a.png", Data: []byte{1, 2, 3}}})
	s.AppendMessage(p.ID, msg)

	raw, err := kv.Get(chatStoreKey)
	require.NoError(t, err)
	var state persistedChatState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	require.Len(t, state.Panels[0].Messages, 1)
	require.Len(t, state.Panels[0].Messages[0].Attachments, 1)
	assert.Empty(t, state.Panels[0].Messages[0].Attachments[0].Data)
	assert.Equal(t, "a.png", state.Panels[0].Messages[0].Attachments[0].Name)
}

func TestQuotaRecoveryKeepsActivePanel(t *testing.T) {
	kv := storage.NewMemoryKV(1 << 20)
	s := New(kv, "")
	require.NoError(t, s.Load())

	var notices []string
	s.SetNotifier(func(msg string) { notices = append(notices, msg) })

	conv := s.ActiveConversation()
	other := s.AddPanel(conv)
	active := s.Panels()[0].ID
	s.SetActivePanel(active)
	for i := 0; i < 15; i++ {
		s.AppendMessage(active, userMsg(fmt.Sprintf("active-%d", i), time.Now()))
		s.AppendMessage(other.ID, userMsg(fmt.Sprintf("other-%d", i), time.Now()))
	}

	// Shrink the budget so the full snapshot no longer fits, then
	// trigger one more mutation.
	kv.SetBudget(4096)
	s.AppendMessage(active, userMsg("tight", time.Now()))

	raw, err := kv.Get(chatStoreKey)
	require.NoError(t, err)
	var state persistedChatState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	require.Len(t, state.Panels, 1)
	assert.Equal(t, active, state.Panels[0].ID)
	assert.LessOrEqual(t, len(state.Panels[0].Messages), recoveryMessages)

	_, err = kv.Get(conversationStoreKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NotEmpty(t, notices)

	// In-memory state is untouched by trimming.
	np, _ := s.Panel(active)
	assert.Len(t, np.Messages, 16)
	assert.True(t, s.PanelExists(other.ID))
}

func TestLoadLegacyArrayConfigResetsToConfiguredDefault(t *testing.T) {
	kv := storage.NewMemoryKV(1 << 20)
	state := persistedChatState{
		Version: 1,
		Panels: []persistedPanel{{
			ID:             "legacy-panel",
			SessionID:      "legacy-session",
			ConversationID: "conv-1",
			ModelID:        "us.amazon.nova-pro-v1:0",
			Config:         json.RawMessage(`[{"maxTokens":2048}]`),
		}},
	}
	data, err := json.Marshal(state)
	require.NoError(t, err)
	require.NoError(t, kv.Set(chatStoreKey, string(data)))

	s := New(kv, "gpt-4o")
	require.NoError(t, s.Load())

	assert.Equal(t, "gpt-4o", s.Panels()[0].ModelID)
}

func TestLoadLegacyArrayConfigResetsPanel(t *testing.T) {
	kv := storage.NewMemoryKV(1 << 20)
	state := persistedChatState{
		Version: 1,
		Panels: []persistedPanel{{
			ID:             "legacy-panel",
			SessionID:      "legacy-session",
			ConversationID: "conv-1",
			ModelID:        "us.amazon.nova-pro-v1:0",
			Config:         json.RawMessage(`[{"maxTokens":2048}]`),
			Messages:       []model.Message{model.NewUserMessage("old", nil)},
		}},
		ActivePanel: "legacy-panel",
	}
	data, err := json.Marshal(state)
	require.NoError(t, err)
	require.NoError(t, kv.Set(chatStoreKey, string(data)))

	s := New(kv, "")
	require.NoError(t, s.Load())

	panels := s.Panels()
	require.Len(t, panels, 1)
	assert.Equal(t, catalog.Default().ID, panels[0].ModelID)
	assert.Empty(t, panels[0].Messages)
	assert.Equal(t, panels[0].Model().Params.DefaultConfig(), panels[0].Config)
}

func TestLoadRoundTrip(t *testing.T) {
	kv := storage.NewMemoryKV(1 << 20)
	s := New(kv, "")
	require.NoError(t, s.Load())

	conv := s.ActiveConversation()
	p := s.AddPanel(conv)
	id := s.SetModel(p.ID, "gpt-4o")
	s.AppendMessage(id, userMsg("persist me", time.Now()))
	s.SetInput(id, "draft text")
	s.SetSynced(id, false)

	restored := New(kv, "")
	require.NoError(t, restored.Load())

	rp, ok := restored.Panel(id)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", rp.ModelID)
	assert.Equal(t, "draft text", rp.PendingInput)
	assert.False(t, rp.Synced)
	require.Len(t, rp.Messages, 1)
	assert.Equal(t, "persist me", rp.Messages[0].Content)
	assert.Equal(t, conv, restored.ActiveConversation())
}

func TestRemoveGroupKeepsLast(t *testing.T) {
	s, _ := newTestStore(t)
	only := s.Groups()[0]
	s.RemoveGroup(only.ID)
	assert.Len(t, s.Groups(), 1)

	second := s.AddGroup("Experiments", "side by side runs")
	assert.Equal(t, second, s.ActiveConversation())
	assert.NotEmpty(t, s.PanelsForConversation(second))

	s.RemoveGroup(second)
	assert.Len(t, s.Groups(), 1)
	assert.Equal(t, only.ID, s.ActiveConversation())
	assert.Empty(t, s.PanelsForConversation(second))
}
