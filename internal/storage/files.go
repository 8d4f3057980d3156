/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	applog "github.com/OSRdesign/social-media-composer/internal/log"
)

// BackupsDirName holds timestamped copies of overwritten template files,
// next to the file itself.
const BackupsDirName = "backups"

// WriteAtomic streams write into a temp file in the target directory and
// renames it over path once everything is flushed. On any error the temp
// file is removed and path is left untouched.
func WriteAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	temp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(temp)
		}
	}()
	if err = write(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(temp, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	// Windows cannot rename over an existing file.
	if _, statErr := os.Stat(path); statErr == nil {
		_ = os.Remove(path)
	}
	if err = os.Rename(temp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SaveTemplate writes doc to path as a template file. An existing file is
// first copied to backups/<name>.<timestamp>.bak.
func SaveTemplate(path string, doc domain.Document) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("template path is required")
	}
	data, err := EncodeTemplate(doc)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(filepath.Dir(path), BackupsDirName, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
		if err := copyFile(path, bpath); err != nil {
			return fmt.Errorf("backup current template: %w", err)
		}
	}
	return WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// OpenTemplate reads the template file at path. If it is missing or
// malformed, the latest backup is tried before giving up with the original
// error.
func OpenTemplate(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		doc, derr := DecodeTemplate(data)
		if derr == nil {
			return doc, nil
		}
		err = derr
	}
	doc, berr := openFromLatestBackup(path)
	if berr != nil {
		return domain.Document{}, fmt.Errorf("open template: %w; backup attempt: %v", err, berr)
	}
	applog.WithComponent("storage").Warn("template unreadable, opened latest backup", slog.String("path", path), slog.Any("err", err))
	return doc, nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func openFromLatestBackup(path string) (domain.Document, error) {
	candidates, err := Backups(path)
	if err != nil {
		return domain.Document{}, err
	}
	if len(candidates) == 0 {
		return domain.Document{}, errors.New("no backups found")
	}
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read latest backup: %w", err)
	}
	return DecodeTemplate(b)
}
