// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for voicechat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - $VOICECHAT_CONFIG (explicit file)
//   - ~/.voicechat/config.toml
//   - ~/.voicechat/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/voicechat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete voicechat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Backend BackendConfig `toml:"backend" json:"backend"`
	Audio   AudioConfig   `toml:"audio" json:"audio"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// BackendConfig describes the chat backend the client talks to.
type BackendConfig struct {
	// URL is the backend origin, e.g. http://localhost:8000. Root-relative
	// audio URLs returned by the server are resolved against it.
	URL string `toml:"url" json:"url"`
	// APIKey is sent as the x_api_key header when set.
	APIKey string `toml:"api_key" json:"api_key"`
	// TimeoutSecs bounds every request, including audio uploads.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerMinute paces outgoing requests (0 = unlimited).
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// AudioConfig configures the external capture and playback commands.
type AudioConfig struct {
	// RecorderCommand writes WAV audio to stdout until it is interrupted.
	RecorderCommand string `toml:"recorder_command" json:"recorder_command"`
	// PlayerCommand plays the file given as its last argument and exits.
	PlayerCommand string `toml:"player_command" json:"player_command"`
	// ClipDir holds recorded clips (empty = <data_dir>/clips).
	ClipDir string `toml:"clip_dir" json:"clip_dir"`
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	// DataDir holds the sqlite database (empty = ~/.voicechat).
	DataDir string `toml:"data_dir" json:"data_dir"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the markdown theme: "auto", "dark", "light"
	Theme string `toml:"theme" json:"theme"`
	// RecordingPlaceholder shows a transient "Recording audio" message while the mic is open.
	RecordingPlaceholder bool `toml:"recording_placeholder" json:"recording_placeholder"`
	// WordWrap is the markdown wrap width for non-TUI output.
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	// File is the log file (empty = <data_dir>/voicechat.log).
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Backend: BackendConfig{
			URL:               "http://localhost:8000",
			TimeoutSecs:       60,
			RequestsPerMinute: 0,
		},
		Audio: AudioConfig{
			RecorderCommand: "arecord -q -f S16_LE -r 16000 -c 1 -t wav -",
			PlayerCommand:   "ffplay -nodisp -autoexit -loglevel quiet",
		},
		UI: UIConfig{
			Theme:                "auto",
			RecordingPlaceholder: true,
			WordWrap:             80,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the voicechat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("VOICECHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".voicechat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	if p := os.Getenv("VOICECHAT_CONFIG"); p != "" {
		return p, nil
	}
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

// DataDir returns the directory for the database, clips and logs.
func (c *Config) DataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	dir, err := ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "voicechat")
	}
	return dir
}

// ClipDir returns the directory recorded clips are written to.
func (c *Config) ClipDir() string {
	if c.Audio.ClipDir != "" {
		return c.Audio.ClipDir
	}
	return filepath.Join(c.DataDir(), "clips")
}

// LogFile returns the log file path.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.DataDir(), "voicechat.log")
}

// DatabasePath returns the sqlite database path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir(), "voicechat.db")
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// A .env file in the working directory is read before environment
// overrides are applied.
func Load() (*Config, error) {
	LoadDotEnv()

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}
	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv reads KEY=VALUE pairs from .env in the working directory into
// the process environment. Variables that are already set win. A missing
// file is not an error.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in values a config file explicitly blanked out.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaults.Backend.URL
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Audio.RecorderCommand == "" {
		cfg.Audio.RecorderCommand = defaults.Audio.RecorderCommand
	}
	if cfg.Audio.PlayerCommand == "" {
		cfg.Audio.PlayerCommand = defaults.Audio.PlayerCommand
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = defaults.UI.WordWrap
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions,
// since it may carry the backend API key.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# voicechat configuration file\n")
	buf.WriteString("# Generated by voicechat - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.WriteFileAtomic(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Backend.URL)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{Field: "backend.url", Message: err.Error()})
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
		})
	case u.Host == "":
		errs = append(errs, ValidationError{Field: "backend.url", Message: "missing host"})
	}

	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "backend.timeout_secs", Message: "must not be negative"})
	}
	if c.Backend.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{Field: "backend.requests_per_minute", Message: "must not be negative"})
	}

	switch strings.ToLower(c.UI.Theme) {
	case "", "auto", "dark", "light", "notty", "plain":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light, notty, plain", c.UI.Theme),
		})
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - VOICECHAT_BACKEND_URL: overrides backend.url
//   - VOICECHAT_API_KEY: overrides backend.api_key
//   - VOICECHAT_TIMEOUT: overrides backend.timeout_secs
//   - VOICECHAT_DATA_DIR: overrides storage.data_dir
//   - VOICECHAT_RECORDER: overrides audio.recorder_command
//   - VOICECHAT_PLAYER: overrides audio.player_command
//   - VOICECHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("VOICECHAT_BACKEND_URL"); v != "" {
		c.Backend.URL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("VOICECHAT_API_KEY"); v != "" {
		c.Backend.APIKey = v
	}
	if v := os.Getenv("VOICECHAT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("VOICECHAT_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("VOICECHAT_RECORDER"); v != "" {
		c.Audio.RecorderCommand = v
	}
	if v := os.Getenv("VOICECHAT_PLAYER"); v != "" {
		c.Audio.PlayerCommand = v
	}
	if v := os.Getenv("VOICECHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// =============================================================================
// GET HELPER (DOT NOTATION)
// =============================================================================

// ErrUnknownKey is returned by Get for keys that do not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Get retrieves a configuration value using dot notation (e.g., "backend.url").
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "version":
		return c.Version, nil
	case "backend.url":
		return c.Backend.URL, nil
	case "backend.api_key":
		if c.Backend.APIKey == "" {
			return "", nil
		}
		return "********", nil
	case "backend.timeout_secs":
		return strconv.Itoa(c.Backend.TimeoutSecs), nil
	case "backend.requests_per_minute":
		return strconv.Itoa(c.Backend.RequestsPerMinute), nil
	case "audio.recorder_command":
		return c.Audio.RecorderCommand, nil
	case "audio.player_command":
		return c.Audio.PlayerCommand, nil
	case "audio.clip_dir":
		return c.ClipDir(), nil
	case "storage.data_dir":
		return c.DataDir(), nil
	case "ui.theme":
		return c.UI.Theme, nil
	case "ui.recording_placeholder":
		return strconv.FormatBool(c.UI.RecordingPlaceholder), nil
	case "ui.word_wrap":
		return strconv.Itoa(c.UI.WordWrap), nil
	case "log.level":
		return c.Log.Level, nil
	case "log.file":
		return c.LogFile(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Keys lists the keys accepted by Get, in display order.
func Keys() []string {
	return []string{
		"version",
		"backend.url",
		"backend.api_key",
		"backend.timeout_secs",
		"backend.requests_per_minute",
		"audio.recorder_command",
		"audio.player_command",
		"audio.clip_dir",
		"storage.data_dir",
		"ui.theme",
		"ui.recording_placeholder",
		"ui.word_wrap",
		"log.level",
		"log.file",
	}
}
