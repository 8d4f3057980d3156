/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func lastJSONLine(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

func TestInitAndStructuredLoggingToFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "composer.json.log")
	Init(Options{Level: "debug", Format: "json", File: fpath})
	t.Cleanup(func() { Init(Options{Level: "info"}) })

	l := WithOperation(WithComponent("session"), "add_element")
	l.Info("element added", slog.String("element", "abc12345"))

	m := lastJSONLine(t, fpath)
	if m["app"] != appName {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "session" || m["op"] != "add_element" {
		t.Fatalf("component/op mismatch: %v %v", m["component"], m["op"])
	}
	if m["element"] != "abc12345" || m["msg"] != "element added" {
		t.Fatalf("record mismatch: %v", m)
	}
}

func TestSessionIDFromContext(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "composer.json.log")
	Init(Options{Level: "info", Format: "json", File: fpath})
	t.Cleanup(func() { Init(Options{Level: "info"}) })

	ctx := ContextWithSession(context.Background(), "sess-1")
	WithComponent("export").InfoContext(ctx, "png written")

	m := lastJSONLine(t, fpath)
	if m["session"] != "sess-1" {
		t.Fatalf("session attr = %v, want sess-1", m["session"])
	}
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatalf("empty context must not carry a session")
	}
}

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("SMC_LOG_LEVEL", "warn")
	t.Setenv("SMC_LOG_FORMAT", "json")
	t.Setenv("SMC_LOG_SOURCE", "true")
	t.Setenv("SMC_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("SMC_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestPrettyTextHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := &prettyTextHandler{opts: prettyOpts{Level: slog.LevelWarn}, w: &buf}

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("slide")

	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("index", 2), slog.Float64("zoom", 0.5), slog.Bool("ok", true))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR", "boom", "k=v", "slide.index=2", "slide.zoom=0.5", "slide.ok=true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}
