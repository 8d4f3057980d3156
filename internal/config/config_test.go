/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// memTokens is an in-memory TokenStore.
type memTokens map[string]string

func (m memTokens) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memTokens) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memTokens) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

func isolate(t *testing.T) memTokens {
	t.Helper()
	t.Setenv(EnvConfigDir, t.TempDir())
	for _, k := range []string{EnvDefaultTemplate, EnvTelemetryOptIn, EnvImageTimeoutMs, EnvFontDirs, EnvLibraryPath, EnvLogLevel, EnvLogFormat, EnvLogSource, EnvLogFile} {
		t.Setenv(k, "")
	}
	prev := tokenStore
	mt := memTokens{}
	tokenStore = mt
	t.Cleanup(func() { tokenStore = prev })
	return mt
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "" {
		t.Fatalf("unexpected token %q", tok)
	}
	if cfg.General.DefaultTemplate != "instagram-post" || cfg.Editor.MaxInitialImageSide != 300 || cfg.Editor.DefaultFontSize != 16 {
		t.Fatalf("defaults not applied: %#v", cfg)
	}
	if got := cfg.Assets.ImageTimeout(); got != 15*time.Second {
		t.Fatalf("ImageTimeout = %v", got)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	mt := isolate(t)
	cfg := Defaults()
	cfg.General.DefaultTemplate = "instagram-story"
	cfg.Editor.Snapping = false
	cfg.Assets.FontDirs = []string{"/opt/fonts"}
	if err := Save(cfg, "s3cr3t"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path, _ := ConfigPath()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.DefaultTemplate != "instagram-story" || got.Editor.Snapping || len(got.Assets.FontDirs) != 1 {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	if tok != "s3cr3t" {
		t.Fatalf("token = %q", tok)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if len(mt) != 0 {
		t.Fatalf("token not deleted: %v", mt)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	dirs := filepath.Join("a", "fonts") + string(os.PathListSeparator) + filepath.Join("b", "fonts")
	t.Setenv(EnvDefaultTemplate, "facebook-post")
	t.Setenv(EnvImageTimeoutMs, "2500")
	t.Setenv(EnvFontDirs, dirs)
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvLogSource, "yes")

	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.DefaultTemplate != "facebook-post" {
		t.Fatalf("DefaultTemplate = %q", cfg.General.DefaultTemplate)
	}
	if cfg.Assets.ImageTimeoutMs != 2500 || len(cfg.Assets.FontDirs) != 2 {
		t.Fatalf("assets overrides not applied: %#v", cfg.Assets)
	}
	if cfg.Logging.Level != "error" || !cfg.Logging.Source {
		t.Fatalf("logging overrides not applied: %#v", cfg.Logging)
	}
	if env, ok := EnvOverrideFor("assets.font_dirs"); !ok || env != EnvFontDirs {
		t.Fatalf("EnvOverrideFor = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("library.path"); ok {
		t.Fatalf("library.path is not overridden")
	}
}

func TestMergeKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Editor: EditorConfig{Snapping: true, SnapThreshold: 10, TextEngine: "harfbuzz"}, Logging: LoggingConfig{Level: " Debug "}}
	mergeInto(&dst, &src)
	if dst.Editor.MaxInitialImageSide != 300 || dst.Editor.SnapThreshold != 10 || dst.Editor.TextEngine != "go" {
		t.Fatalf("editor merge wrong: %#v", dst.Editor)
	}
	if dst.Logging.Level != "debug" || dst.Logging.Format != "console" {
		t.Fatalf("logging merge wrong: %#v", dst.Logging)
	}
}

func TestMergeTextEngine(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Editor: EditorConfig{TextEngine: " Canvas "}}
	mergeInto(&dst, &src)
	if dst.Editor.TextEngine != "canvas" {
		t.Fatalf("text engine = %q", dst.Editor.TextEngine)
	}
}

func TestLibraryPathDefaultsNextToConfig(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	p, err := cfg.LibraryPath()
	if err != nil {
		t.Fatalf("LibraryPath: %v", err)
	}
	dir, _ := ConfigDir()
	if p != filepath.Join(dir, "library.sqlite") {
		t.Fatalf("LibraryPath = %q", p)
	}
}
