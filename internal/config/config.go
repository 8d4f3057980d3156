/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	DefaultTemplate string `yaml:"default_template"` // preset id used by "new" without an explicit preset
	TelemetryOptIn  bool   `yaml:"telemetry_opt_in"`
}

type AssetsConfig struct {
	ImageTimeoutMs int      `yaml:"image_timeout_ms"`
	MaxImageBytes  int64    `yaml:"max_image_bytes"`
	UserAgent      string   `yaml:"user_agent"`
	FontDirs       []string `yaml:"font_dirs"` // scanned before the platform font directories
	// The asset host token is not stored on disk; it lives in the OS keychain.
}

type EditorConfig struct {
	MaxInitialImageSide float64 `yaml:"max_initial_image_side"`
	DefaultFontSize     float64 `yaml:"default_font_size"`
	Snapping            bool    `yaml:"snapping"`
	SnapThreshold       float64 `yaml:"snap_threshold"`
	TextEngine          string  `yaml:"text_engine"` // "go" (x/image faces) or "canvas" (tdewolff/canvas shaping)
}

type LibraryConfig struct {
	Path string `yaml:"path"` // sqlite file with saved templates; empty means next to config.yaml
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Assets        AssetsConfig  `yaml:"assets"`
	Editor        EditorConfig  `yaml:"editor"`
	Library       LibraryConfig `yaml:"library"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{DefaultTemplate: "instagram-post"},
		Assets:        AssetsConfig{ImageTimeoutMs: 15000, MaxImageBytes: 25 << 20, UserAgent: "social-media-composer"},
		Editor:        EditorConfig{MaxInitialImageSide: 300, DefaultFontSize: 16, Snapping: true, SnapThreshold: 6, TextEngine: "go"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvDefaultTemplate = "SMC_DEFAULT_TEMPLATE"
	EnvTelemetryOptIn  = "SMC_TELEMETRY_OPT_IN"
	EnvImageTimeoutMs  = "SMC_IMAGE_TIMEOUT_MS"
	EnvFontDirs        = "SMC_FONT_DIRS" // os.PathListSeparator separated
	EnvLibraryPath     = "SMC_LIBRARY_PATH"
	EnvConfigDir       = "SMC_CONFIG_DIR"
	EnvLogLevel        = "SMC_LOG_LEVEL"
	EnvLogFormat       = "SMC_LOG_FORMAT"
	EnvLogSource       = "SMC_LOG_SOURCE"
	EnvLogFile         = "SMC_LOG_FILE"
)

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "SocialMediaComposer")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "SocialMediaComposer")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "social-media-composer")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "social-media-composer")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LibraryPath resolves the saved-template library location.
func (c AppConfig) LibraryPath() (string, error) {
	if p := strings.TrimSpace(c.Library.Path); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "library.sqlite"), nil
}

// ImageTimeout returns the image fetch timeout, falling back to the default.
func (a AssetsConfig) ImageTimeout() time.Duration {
	if a.ImageTimeoutMs <= 0 {
		return time.Duration(Defaults().Assets.ImageTimeoutMs) * time.Millisecond
	}
	return time.Duration(a.ImageTimeoutMs) * time.Millisecond
}

// Load reads the user config file (if present), applies defaults and merges
// environment overrides. The asset token comes from the keychain and is
// returned separately.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and stores a non-empty token in the keychain.
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.General.DefaultTemplate); s != "" {
		dst.General.DefaultTemplate = s
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn

	if src.Assets.ImageTimeoutMs > 0 {
		dst.Assets.ImageTimeoutMs = src.Assets.ImageTimeoutMs
	}
	if src.Assets.MaxImageBytes > 0 {
		dst.Assets.MaxImageBytes = src.Assets.MaxImageBytes
	}
	if s := strings.TrimSpace(src.Assets.UserAgent); s != "" {
		dst.Assets.UserAgent = s
	}
	if len(src.Assets.FontDirs) > 0 {
		dst.Assets.FontDirs = append([]string(nil), src.Assets.FontDirs...)
	}

	if src.Editor.MaxInitialImageSide > 0 {
		dst.Editor.MaxInitialImageSide = src.Editor.MaxInitialImageSide
	}
	if src.Editor.DefaultFontSize > 0 {
		dst.Editor.DefaultFontSize = src.Editor.DefaultFontSize
	}
	// booleans: copy from the file so the user's choice persists
	dst.Editor.Snapping = src.Editor.Snapping
	if src.Editor.SnapThreshold > 0 {
		dst.Editor.SnapThreshold = src.Editor.SnapThreshold
	}
	if s := strings.ToLower(strings.TrimSpace(src.Editor.TextEngine)); s == "go" || s == "canvas" {
		dst.Editor.TextEngine = s
	}

	if s := strings.TrimSpace(src.Library.Path); s != "" {
		dst.Library.Path = s
	}

	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDefaultTemplate)); v != "" {
		cfg.General.DefaultTemplate = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvImageTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Assets.ImageTimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontDirs)); v != "" {
		cfg.Assets.FontDirs = filepath.SplitList(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryPath)); v != "" {
		cfg.Library.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "general.default_template":
		env = EnvDefaultTemplate
	case "general.telemetry_opt_in":
		env = EnvTelemetryOptIn
	case "assets.image_timeout_ms":
		env = EnvImageTimeoutMs
	case "assets.font_dirs":
		env = EnvFontDirs
	case "library.path":
		env = EnvLibraryPath
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
