/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/OSRdesign/social-media-composer/internal/layout"
)

// Unit conversions between CSS pixels and the canvas engine.
const (
	ptPerPx = 0.75
	mmPerPx = 25.4 / 96
)

// CanvasMeasurer measures text with the tdewolff/canvas shaping engine. It
// shares the font files of a FontLibrary and implements layout.TextMeasurer.
type CanvasMeasurer struct {
	lib *FontLibrary

	mu       sync.Mutex
	families map[fontKey]*canvas.FontFamily
}

// NewCanvasMeasurer returns a measurer over lib (the Go fonts when nil).
func NewCanvasMeasurer(lib *FontLibrary) *CanvasMeasurer {
	if lib == nil {
		lib = NewFontLibrary()
	}
	return &CanvasMeasurer{lib: lib, families: map[fontKey]*canvas.FontFamily{}}
}

func (m *CanvasMeasurer) face(st layout.Style) *canvas.FontFace {
	k, _ := m.lib.lookup(st)
	fam, ok := m.families[k]
	if !ok {
		fam = canvas.NewFontFamily(k.family)
		if err := fam.LoadFont(m.lib.Bytes(st), 0, canvas.FontRegular); err != nil {
			return nil
		}
		m.families[k] = fam
	}
	size := st.SizePx
	if size <= 0 {
		size = 16
	}
	return fam.Face(size*ptPerPx, canvas.Black, canvas.FontRegular, canvas.FontNormal)
}

// Measure implements layout.TextMeasurer using the same wrapping rules as
// FaceMeasurer.
func (m *CanvasMeasurer) Measure(text string, st layout.Style, maxWidth float64) (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	face := m.face(st)
	if face == nil {
		return 0, 0
	}
	adv := func(s string) float64 { return face.TextWidth(s) / mmPerPx }
	var w float64
	lines := 0
	for _, para := range strings.Split(text, "\n") {
		for _, ln := range wrap(para, maxWidth, adv) {
			w = max(w, ln.Width)
			lines++
		}
	}
	size := st.SizePx
	if size <= 0 {
		size = 16
	}
	return w, float64(lines) * size * LineHeightFactor
}
