// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

// =============================================================================
// MODALITIES
// =============================================================================

// Modality identifies an input or output capability of a model.
type Modality string

const (
	ModalityText  Modality = "TEXT"
	ModalityImage Modality = "IMAGE"
)

// =============================================================================
// GENERATION PARAMETERS
// =============================================================================

// Bounds describes the valid range and default of a numeric parameter.
type Bounds struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Clamp returns v limited to the bounds.
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// ReasoningConfig controls extended-reasoning generation for models that
// support it.
type ReasoningConfig struct {
	Enabled      bool `json:"enabled" toml:"enabled"`
	BudgetTokens int  `json:"budget_tokens" toml:"budget_tokens"`
}

// GenerationConfig holds the per-panel tunable generation parameters
// sent with every request.
type GenerationConfig struct {
	MaxTokens    int              `json:"maxTokens"`
	Temperature  float64          `json:"temperature"`
	TopP         float64          `json:"topP"`
	SystemPrompt string           `json:"systemPrompt,omitempty"`
	Reasoning    *ReasoningConfig `json:"reasoning,omitempty"`
}

// ParamSpec declares the valid ranges for a model's generation
// parameters.
type ParamSpec struct {
	MaxTokens   Bounds
	Temperature Bounds
	TopP        Bounds
	// ReasoningBudget only applies when the model supports reasoning.
	ReasoningBudget Bounds
}

// DefaultParamSpec is the parameter space shared by most chat models.
var DefaultParamSpec = ParamSpec{
	MaxTokens:       Bounds{Min: 1, Max: 8192, Default: 2048},
	Temperature:     Bounds{Min: 0, Max: 1, Default: 0.7},
	TopP:            Bounds{Min: 0, Max: 1, Default: 0.9},
	ReasoningBudget: Bounds{Min: 0, Max: 4096, Default: 1024},
}

// DefaultConfig returns the default generation config for the parameter space.
func (p ParamSpec) DefaultConfig() GenerationConfig {
	return GenerationConfig{
		MaxTokens:   int(p.MaxTokens.Default),
		Temperature: p.Temperature.Default,
		TopP:        p.TopP.Default,
	}
}

// ClampConfig limits a config to the parameter space. The system prompt
// passes through untouched.
func (p ParamSpec) ClampConfig(cfg GenerationConfig) GenerationConfig {
	cfg.MaxTokens = int(p.MaxTokens.Clamp(float64(cfg.MaxTokens)))
	cfg.Temperature = p.Temperature.Clamp(cfg.Temperature)
	cfg.TopP = p.TopP.Clamp(cfg.TopP)
	if cfg.Reasoning != nil {
		budget := int(p.ReasoningBudget.Clamp(float64(cfg.Reasoning.BudgetTokens)))
		cfg.Reasoning = &ReasoningConfig{Enabled: cfg.Reasoning.Enabled, BudgetTokens: budget}
	}
	return cfg
}

// =============================================================================
// MODEL INFO
// =============================================================================

// ModelInfo describes one text-generation model.
type ModelInfo struct {
	ID       string
	Provider string
	Name     string

	InputModalities  []Modality
	OutputModalities []Modality

	SystemPromptSupport bool
	ReasoningSupport    bool

	// Per-token pricing in USD. Zero means pricing is unknown and
	// request costs cannot be computed.
	InputCostPerToken  float64
	OutputCostPerToken float64

	Params ParamSpec
}

// AcceptsText reports whether the model accepts text input.
func (m ModelInfo) AcceptsText() bool {
	return m.acceptsModality(ModalityText)
}

// AcceptsImages reports whether the model accepts image input.
func (m ModelInfo) AcceptsImages() bool {
	return m.acceptsModality(ModalityImage)
}

func (m ModelInfo) acceptsModality(mod Modality) bool {
	for _, im := range m.InputModalities {
		if im == mod {
			return true
		}
	}
	return false
}

// Priced reports whether per-token pricing is known for the model.
func (m ModelInfo) Priced() bool {
	return m.InputCostPerToken > 0 && m.OutputCostPerToken > 0
}

// =============================================================================
// CATALOG
// =============================================================================

// textModels is the static model catalog. Per-token prices are USD per
// single token (per-million price / 1e6). Models without public pricing
// carry zero and cost annotations are omitted for them.
var textModels = []ModelInfo{
	{
		ID:                  "anthropic.claude-3-5-sonnet-20241022-v2:0",
		Provider:            "Anthropic",
		Name:                "Claude 3.5 Sonnet v2",
		InputModalities:     []Modality{ModalityText, ModalityImage},
		OutputModalities:    []Modality{ModalityText},
		SystemPromptSupport: true,
		ReasoningSupport:    true,
		InputCostPerToken:   0.000003,
		OutputCostPerToken:  0.000015,
		Params:              DefaultParamSpec,
	},
	{
		ID:                  "anthropic.claude-3-5-haiku-20241022-v1:0",
		Provider:            "Anthropic",
		Name:                "Claude 3.5 Haiku",
		InputModalities:     []Modality{ModalityText},
		OutputModalities:    []Modality{ModalityText},
		SystemPromptSupport: true,
		InputCostPerToken:   0.0000008,
		OutputCostPerToken:  0.000004,
		Params:              DefaultParamSpec,
	},
	{
		ID:                  "us.amazon.nova-pro-v1:0",
		Provider:            "Amazon",
		Name:                "Nova Pro",
		InputModalities:     []Modality{ModalityText, ModalityImage},
		OutputModalities:    []Modality{ModalityText},
		SystemPromptSupport: true,
		InputCostPerToken:   0.0000008,
		OutputCostPerToken:  0.0000032,
		Params:              DefaultParamSpec,
	},
	{
		ID:                  "us.amazon.nova-lite-v1:0",
		Provider:            "Amazon",
		Name:                "Nova Lite",
		InputModalities:     []Modality{ModalityText, ModalityImage},
		OutputModalities:    []Modality{ModalityText},
		SystemPromptSupport: true,
		InputCostPerToken:   0.00000006,
		OutputCostPerToken:  0.00000024,
		Params:              DefaultParamSpec,
	},
	{
		ID:                  "amazon.titan-text-express-v1",
		Provider:            "Amazon",
		Name:                "Titan Text Express",
		InputModalities:     []Modality{ModalityText},
		OutputModalities:    []Modality{ModalityText},
		InputCostPerToken:   0.0000002,
		OutputCostPerToken:  0.0000006,
		Params:              DefaultParamSpec,
	},
	{
		ID:                  "meta.llama3-1-70b-instruct-v1:0",
		Provider:            "Meta",
		Name:                "Llama 3.1 70B Instruct",
		InputModalities:     []Modality{ModalityText},
		OutputModalities:    []Modality{ModalityText},
		SystemPromptSupport: true,
		InputCostPerToken:   0.00000099,
		OutputCostPerToken:  0.00000099,
		Params:              DefaultParamSpec,
	},
	{
		ID:                  "mistral.mistral-large-2407-v1:0",
		Provider:            "Mistral",
		Name:                "Mistral Large 2",
		InputModalities:     []Modality{ModalityText},
		OutputModalities:    []Modality{ModalityText},
		SystemPromptSupport: true,
		InputCostPerToken:   0.000002,
		OutputCostPerToken:  0.000006,
		Params:              DefaultParamSpec,
	},
	{
		ID:                  "gpt-4o",
		Provider:            "OpenAI",
		Name:                "GPT-4o",
		InputModalities:     []Modality{ModalityText, ModalityImage},
		OutputModalities:    []Modality{ModalityText},
		SystemPromptSupport: true,
		InputCostPerToken:   0.0000025,
		OutputCostPerToken:  0.00001,
		Params:              DefaultParamSpec,
	},
	{
		ID:                  "gpt-4o-mini",
		Provider:            "OpenAI",
		Name:                "GPT-4o mini",
		InputModalities:     []Modality{ModalityText, ModalityImage},
		OutputModalities:    []Modality{ModalityText},
		SystemPromptSupport: true,
		InputCostPerToken:   0.00000015,
		OutputCostPerToken:  0.0000006,
		Params:              DefaultParamSpec,
	},
	{
		// Preview model without published pricing; cost is never
		// annotated for it.
		ID:               "meta/llama3-70b-instruct",
		Provider:         "Nvidia",
		Name:             "Llama 3 70B (NIM)",
		InputModalities:  []Modality{ModalityText},
		OutputModalities: []Modality{ModalityText},
		Params:           DefaultParamSpec,
	},
}

// Models returns the full model catalog.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(textModels))
	copy(out, textModels)
	return out
}

// Lookup finds a model by id.
func Lookup(id string) (ModelInfo, bool) {
	for _, m := range textModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Default returns the catalog's default model.
func Default() ModelInfo {
	return textModels[0]
}
