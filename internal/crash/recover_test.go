/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/session"
	"github.com/OSRdesign/social-media-composer/internal/storage"
)

func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = old
		_, _ = io.Copy(io.Discard, r)
	})
}

func interceptExit(t *testing.T) *int {
	t.Helper()
	code := -1
	old := exitFn
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { exitFn = old })
	return &code
}

func findFile(t *testing.T, dir, prefix, suffix string) string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), suffix) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

func TestRecover_WritesReportAndAutosave(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)

	tpl, _ := domain.PresetByID("instagram-post")
	s := session.Open(tpl, session.Options{})
	if _, err := s.AddText("Unsaved headline"); err != nil {
		t.Fatalf("AddText: %v", err)
	}
	dir := t.TempDir()

	func() {
		defer Recover(dir, s)
		panic("boom")
	}()

	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
	report := findFile(t, dir, "crash-", ".log")
	if report == "" {
		t.Fatalf("crash report missing")
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "Social Media Composer Crash Report") || !strings.Contains(string(b), "Panic: boom") {
		t.Fatalf("unexpected report: %s", b)
	}

	saved := findFile(t, dir, "autosave-", ".json")
	if saved == "" {
		t.Fatalf("autosave missing")
	}
	doc, err := storage.OpenTemplate(saved)
	if err != nil {
		t.Fatalf("autosave unreadable: %v", err)
	}
	if doc.Template.Width != 1080 || len(doc.Slides) != 1 || len(doc.Slides[0].Elements) != 1 {
		t.Fatalf("unexpected autosave: %+v", doc)
	}
	if doc.Slides[0].Elements[0].Content() != "Unsaved headline" {
		t.Fatalf("autosave lost content: %+v", doc.Slides[0].Elements[0])
	}
}

func TestRecover_NoTemplateSkipsAutosave(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)
	dir := t.TempDir()

	func() {
		defer Recover(dir, session.New(session.Options{}))
		panic("early")
	}()

	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
	if findFile(t, dir, "crash-", ".log") == "" {
		t.Fatalf("crash report missing")
	}
	if p := findFile(t, dir, "autosave-", ".json"); p != "" {
		t.Fatalf("unexpected autosave %s", p)
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	code := interceptExit(t)
	dir := t.TempDir()
	func() {
		defer Recover(dir, nil)
	}()
	if *code != -1 {
		t.Fatalf("exit must not be called, got %d", *code)
	}
	if ents, _ := os.ReadDir(dir); len(ents) != 0 {
		t.Fatalf("no files expected, got %d", len(ents))
	}
}

type brokenSnapshot struct{}

func (brokenSnapshot) HasTemplate() bool         { return true }
func (brokenSnapshot) Snapshot() domain.Document { panic("corrupt state") }

func TestAutosave_SnapshotPanic(t *testing.T) {
	path, err := autosave(t.TempDir(), "x", brokenSnapshot{})
	if err == nil || path != "" {
		t.Fatalf("expected error, got %q, %v", path, err)
	}
}
