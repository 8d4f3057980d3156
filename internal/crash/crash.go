/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an autosave of the
// composition that was open, then exits.
package crash

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	applog "github.com/OSRdesign/social-media-composer/internal/log"
	"github.com/OSRdesign/social-media-composer/internal/storage"
	"github.com/OSRdesign/social-media-composer/internal/telemetry"
	"github.com/OSRdesign/social-media-composer/internal/version"
)

// exitFn is swapped in tests.
var exitFn = os.Exit

// Snapshotter is implemented by *session.Session.
type Snapshotter interface {
	HasTemplate() bool
	Snapshot() domain.Document
}

// Recover captures a panic, writes crash-<stamp>.log into dir (or the temp
// dir) and autosaves the composition of s as autosave-<stamp>.json next to
// it. It must be deferred directly:
//
//	defer crash.Recover(dir, sess)
func Recover(dir string, s Snapshotter) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	if dir == "" {
		dir = os.TempDir()
	}
	stamp := time.Now().Format("20060102-150405")
	reportPath, err := writeReport(dir, stamp, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if path, err := autosave(dir, stamp, s); err != nil {
		l.Error("autosave failed", slog.Any("err", err))
	} else if path != "" {
		l.Info("autosave written", slog.String("path", path))
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// autosave returns "" without error when there is nothing to save.
func autosave(dir, stamp string, s Snapshotter) (path string, err error) {
	if s == nil || !s.HasTemplate() {
		return "", nil
	}
	// The snapshot itself may be what panicked.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("snapshot panicked: %v", r)
		}
	}()
	doc := s.Snapshot()
	path = filepath.Join(dir, fmt.Sprintf("autosave-%s.json", stamp))
	if err := storage.SaveTemplate(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

func writeReport(dir, stamp string, panicVal any, stack []byte) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Social Media Composer Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	err := storage.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	})
	telemetry.UploadCrash(buf.Bytes())
	return path, err
}
