// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for modelgrid.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.modelgrid/config.toml
//   - ~/.modelgrid/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/modelgrid-tui/internal/catalog"
	"github.com/jeranaias/modelgrid-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete modelgrid configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// DefaultModel is the catalog id new panels start on.
	DefaultModel string `toml:"default_model" json:"default_model"`

	Server  ServerConfig  `toml:"server" json:"server"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Sync    SyncConfig    `toml:"sync" json:"sync"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// ServerConfig contains the chat gateway connection settings.
type ServerConfig struct {
	// BaseURL is the gateway exposing /api/chat and /api/audio.
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds the wait for response headers. Streaming
	// bodies are not subject to it.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerMinute throttles outgoing chat requests across all
	// panels.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// StorageConfig contains session persistence settings.
type StorageConfig struct {
	// Path is the session database location. Empty means
	// ~/.modelgrid/sessions.db; "memory" disables persistence.
	Path string `toml:"path" json:"path"`
	// BudgetBytes caps the persisted session footprint. Oversized
	// snapshots degrade to the active panel only.
	BudgetBytes int64 `toml:"budget_bytes" json:"budget_bytes"`
}

// SyncConfig contains input synchronization settings.
type SyncConfig struct {
	// Scope is "conversation" or "global".
	Scope string `toml:"scope" json:"scope"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme" json:"theme"`
	// ShowReasoning renders reasoning output above answers.
	ShowReasoning bool `toml:"show_reasoning" json:"show_reasoning"`
	// ShowMetrics renders the per-response metrics footer.
	ShowMetrics bool `toml:"show_metrics" json:"show_metrics"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Version:      "1",
		DefaultModel: catalog.Default().ID,
		Server: ServerConfig{
			BaseURL:           "http://127.0.0.1:8080",
			TimeoutSecs:       30,
			RequestsPerMinute: 60,
		},
		Storage: StorageConfig{
			BudgetBytes: 5 << 20,
		},
		Sync: SyncConfig{
			Scope: "conversation",
		},
		UI: UIConfig{
			Theme:         "dark",
			ShowReasoning: true,
			ShowMetrics:   true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the modelgrid configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".modelgrid"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// StatePath returns the session database path, resolving the default
// location when unset.
func (c *Config) StatePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions.db"), nil
}

// EnsureConfigDir creates the config directory if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s). Tries TOML first,
// then JSON, and falls back to defaults. Environment overrides are
// applied last.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from an explicit file. The format
// follows the extension: .toml or .json.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML file: %w", err)
		}
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML path atomically.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file atomically.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(sb.String()), 0o600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, ok := catalog.Lookup(c.DefaultModel); !ok {
		errs = append(errs, ValidationError{
			Field:   "default_model",
			Message: fmt.Sprintf("unknown model '%s'", c.DefaultModel),
		})
	}

	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("invalid URL '%s'", c.Server.BaseURL),
		})
	}

	validScopes := map[string]bool{"conversation": true, "global": true}
	if !validScopes[strings.ToLower(c.Sync.Scope)] {
		errs = append(errs, ValidationError{
			Field:   "sync.scope",
			Message: fmt.Sprintf("invalid scope '%s', must be one of: conversation, global", c.Sync.Scope),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values and clamps out-of-range numbers.
func (c *Config) SetDefaults() {
	def := Default()

	if c.DefaultModel == "" {
		c.DefaultModel = def.DefaultModel
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = def.Server.BaseURL
	}
	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = def.Server.TimeoutSecs
	}
	if c.Server.RequestsPerMinute <= 0 {
		c.Server.RequestsPerMinute = def.Server.RequestsPerMinute
	}
	if c.Storage.BudgetBytes <= 0 {
		c.Storage.BudgetBytes = def.Storage.BudgetBytes
	}
	// A budget below 64 KiB cannot hold even one reduced snapshot.
	if c.Storage.BudgetBytes < 64<<10 {
		c.Storage.BudgetBytes = 64 << 10
	}
	if c.Sync.Scope == "" {
		c.Sync.Scope = def.Sync.Scope
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the
// config.
//
// Supported environment variables:
//   - MODELGRID_MODEL: overrides default_model
//   - MODELGRID_SERVER_URL: overrides server.base_url
//   - MODELGRID_SYNC_SCOPE: overrides sync.scope
//   - MODELGRID_STATE_PATH: overrides storage.path
//   - MODELGRID_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("MODELGRID_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if baseURL := os.Getenv("MODELGRID_SERVER_URL"); baseURL != "" {
		c.Server.BaseURL = baseURL
	}
	if scope := os.Getenv("MODELGRID_SYNC_SCOPE"); scope != "" {
		c.Sync.Scope = scope
	}
	if path := os.Getenv("MODELGRID_STATE_PATH"); path != "" {
		c.Storage.Path = path
	}
	if theme := os.Getenv("MODELGRID_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance. Loads
// configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
// Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between test
// runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
