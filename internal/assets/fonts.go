/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	applog "github.com/OSRdesign/social-media-composer/internal/log"
	"github.com/OSRdesign/social-media-composer/internal/textlayout"
)

// FallbackFonts is offered when no font source is usable.
var FallbackFonts = []string{
	"Arial", "Helvetica", "Times New Roman", "Georgia",
	"Courier New", "Verdana", "Tahoma", "Impact",
	"Oswald", "Roboto", "Open Sans", "Lato", "Montserrat",
	"Source Sans Pro", "Playfair Display", "Merriweather",
	"Trebuchet MS", "Garamond", "Poppins", "Raleway",
}

// FontSource enumerates installed font families.
type FontSource interface {
	Families(ctx context.Context) ([]string, error)
}

// FontFamilies asks src for families and returns them distinct and in
// source order. Errors and empty results fall back to FallbackFonts and are
// only logged.
func FontFamilies(ctx context.Context, src FontSource) []string {
	l := applog.WithComponent("assets")
	if src == nil {
		return append([]string(nil), FallbackFonts...)
	}
	names, err := src.Families(ctx)
	if err == nil && len(names) == 0 {
		err = errors.New("no font families found")
	}
	if err != nil {
		var fse *domain.FontSourceError
		if !errors.As(err, &fse) {
			err = &domain.FontSourceError{Err: err}
		}
		l.Debug("font source unavailable, using built-in list", slog.Any("err", err))
		return append([]string(nil), FallbackFonts...)
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		k := strings.ToLower(n)
		if n == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

// DirSource scans directories for TTF/OTF files and reads their family
// names. When Lib is set, the fonts are also registered there so that the
// measurers and exporters can use them.
type DirSource struct {
	Dirs []string
	Lib  *textlayout.FontLibrary
}

// PlatformFontDirs lists the usual system and user font directories.
func PlatformFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return []string{filepath.Join(os.Getenv("WINDIR"), "Fonts"), filepath.Join(os.Getenv("LOCALAPPDATA"), "Microsoft", "Windows", "Fonts")}
	case "darwin":
		return []string{"/System/Library/Fonts", "/Library/Fonts", filepath.Join(home, "Library", "Fonts")}
	default:
		return []string{"/usr/share/fonts", "/usr/local/share/fonts", filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts")}
	}
}

// Families implements FontSource. Directories are scanned concurrently;
// missing directories are skipped. The result is sorted.
func (d DirSource) Families(ctx context.Context) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	var mu sync.Mutex
	found := map[string]bool{}
	scanned := 0
	for _, dir := range d.Dirs {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			continue
		}
		scanned++
		g.Go(func() error {
			return filepath.WalkDir(dir, func(path string, e fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				ext := strings.ToLower(filepath.Ext(path))
				if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
					return nil
				}
				fam, ok := d.family(path)
				if !ok {
					return nil
				}
				mu.Lock()
				found[fam] = true
				mu.Unlock()
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &domain.FontSourceError{Err: err}
	}
	if scanned == 0 {
		return nil, &domain.FontSourceError{Err: errors.New("no font directories")}
	}
	out := make([]string, 0, len(found))
	for f := range found {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func (d DirSource) family(path string) (string, bool) {
	if d.Lib != nil {
		fam, err := d.Lib.LoadFile(path)
		return fam, err == nil && fam != ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	fam, _, err := textlayout.FamilyName(data)
	return fam, err == nil && fam != ""
}
