/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/OSRdesign/social-media-composer/internal/textlayout"
)

func TestCrashDirFallsBackToTemp(t *testing.T) {
	var buf strings.Builder
	l := slog.New(slog.NewTextHandler(&buf, nil))

	got := crashDir(l, func() (string, error) { return "", errors.New("no home") })
	if got != os.TempDir() {
		t.Fatalf("crashDir = %q, want %q", got, os.TempDir())
	}
	if !strings.Contains(buf.String(), "no home") {
		t.Fatalf("error not logged: %q", buf.String())
	}

	buf.Reset()
	dir := t.TempDir()
	if got := crashDir(l, func() (string, error) { return dir, nil }); got != dir {
		t.Fatalf("crashDir = %q, want %q", got, dir)
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected log: %q", buf.String())
	}
}

func TestTextMeasurerFollowsConfig(t *testing.T) {
	fonts := textlayout.NewFontLibrary()
	if _, ok := textMeasurer("canvas", fonts).(*textlayout.CanvasMeasurer); !ok {
		t.Fatalf("canvas engine not selected")
	}
	for _, engine := range []string{"go", ""} {
		if _, ok := textMeasurer(engine, fonts).(*textlayout.FaceMeasurer); !ok {
			t.Fatalf("engine %q: want FaceMeasurer", engine)
		}
	}
}
