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

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/OSRdesign/social-media-composer/internal/layout"
)

// LineHeightFactor matches the browser's "normal" line height for most fonts.
const LineHeightFactor = 1.2

// Line is one laid out line.
type Line struct {
	Text  string
	Width float64
}

// Box is text laid out into lines.
type Box struct {
	Lines      []Line
	Width      float64 // widest line
	Height     float64
	LineHeight float64
	Ascent     float64
}

// FaceMeasurer lays out text with OpenType glyph advances and kerning. It
// implements layout.TextMeasurer. Faces are not safe for concurrent use, so
// calls are serialized.
type FaceMeasurer struct {
	mu       sync.Mutex
	provider *Provider
}

// NewFaceMeasurer returns a measurer over lib (the Go fonts when nil).
func NewFaceMeasurer(lib *FontLibrary) *FaceMeasurer {
	return &FaceMeasurer{provider: NewProvider(lib)}
}

// Provider exposes the face provider used for drawing.
func (m *FaceMeasurer) Provider() *Provider { return m.provider }

// Measure implements layout.TextMeasurer.
func (m *FaceMeasurer) Measure(text string, st layout.Style, maxWidth float64) (float64, float64) {
	b := m.Layout(text, st, maxWidth)
	return b.Width, b.Height
}

// Layout breaks text into lines with pre-wrap rules: newlines always break,
// spaces are kept, words wrap when the line would exceed maxWidth. A word
// wider than maxWidth stays on its own line and overflows.
func (m *FaceMeasurer) Layout(text string, st layout.Style, maxWidth float64) Box {
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.provider.Face(st)
	if err != nil {
		return Box{}
	}
	met := face.Metrics()
	size := st.SizePx
	if size <= 0 {
		size = 16
	}
	box := Box{LineHeight: size * LineHeightFactor, Ascent: fx(met.Ascent)}
	adv := func(s string) float64 { return fx(font.MeasureString(face, s)) }
	for _, para := range strings.Split(text, "\n") {
		for _, ln := range wrap(para, maxWidth, adv) {
			box.Lines = append(box.Lines, ln)
			box.Width = max(box.Width, ln.Width)
		}
	}
	box.Height = float64(len(box.Lines)) * box.LineHeight
	return box
}

// wrap greedily fills lines word by word. Spaces stay attached to the word
// before them; trailing spaces do not count towards the width.
func wrap(para string, maxWidth float64, adv func(string) float64) []Line {
	if para == "" {
		return []Line{{}}
	}
	var lines []Line
	var cur strings.Builder
	for _, tok := range tokens(para) {
		trial := cur.String() + tok
		if cur.Len() > 0 && maxWidth > 0 && adv(strings.TrimRight(trial, " ")) > maxWidth {
			lines = append(lines, mkLine(cur.String(), adv))
			cur.Reset()
		}
		cur.WriteString(tok)
	}
	return append(lines, mkLine(cur.String(), adv))
}

func mkLine(s string, adv func(string) float64) Line {
	return Line{Text: s, Width: adv(strings.TrimRight(s, " "))}
}

// tokens splits s into words each followed by its spaces.
func tokens(s string) []string {
	var out []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] != ' ' && s[i-1] == ' ' {
			out = append(out, s[start:i])
			start = i
		}
	}
	return append(out, s[start:])
}

func fx(v fixed.Int26_6) float64 { return float64(v) / 64 }
