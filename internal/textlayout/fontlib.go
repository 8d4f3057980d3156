/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and lays out text for the layout resolver and
// the exporters. Fonts come from a FontLibrary of OpenType files; the Go
// fonts are always available as fallback.
package textlayout

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/OSRdesign/social-media-composer/internal/layout"
)

// FallbackFamily is the family used when a requested family is not loaded.
const FallbackFamily = "Go"

// FontLibrary stores parsed OpenType fonts by family, weight and slant.
// It is safe for concurrent use.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
	data  map[fontKey][]byte
}

type fontKey struct {
	family string // lower case
	bold   bool
	italic bool
}

// NewFontLibrary returns a library seeded with the Go font family.
func NewFontLibrary() *FontLibrary {
	fl := &FontLibrary{fonts: map[fontKey]*opentype.Font{}, data: map[fontKey][]byte{}}
	for _, f := range []struct {
		ttf          []byte
		bold, italic bool
	}{
		{goregular.TTF, false, false},
		{gobold.TTF, true, false},
		{goitalic.TTF, false, true},
		{gobolditalic.TTF, true, true},
	} {
		// the embedded Go fonts always parse
		_ = fl.Add(FallbackFamily, f.bold, f.italic, f.ttf)
	}
	return fl
}

// Add parses data and registers it under family.
func (fl *FontLibrary) Add(family string, bold, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	k := fontKey{family: strings.ToLower(strings.TrimSpace(family)), bold: bold, italic: italic}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.fonts[k] = f
	fl.data[k] = data
	return nil
}

// LoadFile reads a TTF/OTF file, takes its family name and style from the
// name table and registers it. It returns the family name.
func (fl *FontLibrary) LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read font %s: %w", path, err)
	}
	family, sub, err := FamilyName(data)
	if err != nil {
		return "", fmt.Errorf("font %s: %w", path, err)
	}
	sub = strings.ToLower(sub)
	bold := strings.Contains(sub, "bold") || strings.Contains(sub, "black") || strings.Contains(sub, "heavy")
	italic := strings.Contains(sub, "italic") || strings.Contains(sub, "oblique")
	if err := fl.Add(family, bold, italic, data); err != nil {
		return "", err
	}
	return family, nil
}

// FamilyName reads the family and subfamily names of a font file.
func FamilyName(data []byte) (family, subfamily string, err error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", "", err
	}
	var buf sfnt.Buffer
	family, err = f.Name(&buf, sfnt.NameIDFamily)
	if err != nil {
		return "", "", err
	}
	subfamily, _ = f.Name(&buf, sfnt.NameIDSubfamily)
	return family, subfamily, nil
}

// Families lists the registered family names, sorted.
func (fl *FontLibrary) Families() []string {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for k := range fl.fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	sort.Strings(out)
	return out
}

// Has reports whether family is registered in any style.
func (fl *FontLibrary) Has(family string) bool {
	family = strings.ToLower(strings.TrimSpace(family))
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	for k := range fl.fonts {
		if k.family == family {
			return true
		}
	}
	return false
}

// lookup finds the best match: exact style, then any style of the family,
// then the fallback family in the requested style.
func (fl *FontLibrary) lookup(st layout.Style) (fontKey, *opentype.Font) {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	want := fontKey{family: strings.ToLower(strings.TrimSpace(st.Family)), bold: st.Bold(), italic: st.Italic}
	if f, ok := fl.fonts[want]; ok {
		return want, f
	}
	for _, k := range []fontKey{{want.family, false, false}, {want.family, want.bold, false}, {want.family, false, want.italic}} {
		if f, ok := fl.fonts[k]; ok {
			return k, f
		}
	}
	fb := fontKey{family: strings.ToLower(FallbackFamily), bold: want.bold, italic: want.italic}
	if f, ok := fl.fonts[fb]; ok {
		return fb, f
	}
	return fontKey{}, nil
}

// Bytes returns the raw font file used for st.
func (fl *FontLibrary) Bytes(st layout.Style) []byte {
	k, _ := fl.lookup(st)
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.data[k]
}

// Provider turns styles into font faces, caching one face per font and size.
type Provider struct {
	Lib *FontLibrary
	DPI float64 // 72 when zero, so that sizes are pixels

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	font fontKey
	size float64
}

// NewProvider returns a provider over lib.
func NewProvider(lib *FontLibrary) *Provider {
	if lib == nil {
		lib = NewFontLibrary()
	}
	return &Provider{Lib: lib}
}

// Face returns a face for st. Faces are shared and must not be closed.
func (p *Provider) Face(st layout.Style) (font.Face, error) {
	if st.SizePx <= 0 {
		st.SizePx = 16
	}
	k, f := p.Lib.lookup(st)
	if f == nil {
		return nil, fmt.Errorf("no font for family %q", st.Family)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.faces == nil {
		p.faces = map[faceKey]font.Face{}
	}
	fk := faceKey{font: k, size: st.SizePx}
	if face, ok := p.faces[fk]; ok {
		return face, nil
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: st.SizePx, DPI: dpi, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("face %s %.1fpx: %w", k.family, st.SizePx, err)
	}
	p.faces[fk] = face
	return face, nil
}
