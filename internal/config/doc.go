// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for voicechat.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Backend origin, API key, timeout and request pacing
//   - AudioConfig: External recorder/player commands and clip directory
//   - Watcher: Reloads the config file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (VOICECHAT_*), including values from ./.env
//   - $VOICECHAT_CONFIG or ~/.voicechat/config.toml
//   - ~/.voicechat/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	origin := cfg.Backend.URL
package config
