/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout derives effective geometry for slide elements: centering
// against the canvas, aspect-preserving image resize and shrink-to-fit font
// sizing for bounded text boxes.
//
// The resolver never fails. Malformed geometry is clamped instead.
package layout

import (
	"context"
	"math"

	"github.com/OSRdesign/social-media-composer/internal/domain"
)

// Style is the subset of text attributes that affects measurement.
type Style struct {
	Family string
	SizePx float64
	Weight string // CSS weight: "", "normal", "bold", "600" ...
	Italic bool
}

// StyleOf extracts the measuring style of a text payload.
func StyleOf(t *domain.TextAttrs) Style {
	if t == nil {
		return Style{SizePx: domain.DefaultFontSize}
	}
	return Style{Family: t.FontFamily, SizePx: t.FontSize, Weight: t.FontWeight, Italic: t.FontStyle == "italic"}
}

// Bold reports whether the CSS weight is bold or heavier.
func (s Style) Bold() bool {
	switch s.Weight {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

// TextMeasurer measures text laid out with pre-wrap semantics: explicit
// newlines break lines and words wrap at maxWidth (no wrapping when
// maxWidth <= 0). The returned width is the widest line, which may exceed
// maxWidth when a single word does not fit.
type TextMeasurer interface {
	Measure(text string, st Style, maxWidth float64) (w, h float64)
}

// Resolver computes render geometry against a fixed canvas.
type Resolver struct {
	Template domain.Template
	Measurer TextMeasurer // optional; used for unsized text and font fitting
}

// Resolve returns el with derived axes recomputed and sizes clamped.
// Applying it repeatedly yields the same result.
func (r Resolver) Resolve(el domain.Element) domain.Element {
	out := el.Clone()
	for _, p := range []**float64{&out.Width, &out.Height} {
		if *p != nil && (**p < 0 || math.IsNaN(**p)) {
			*p = domain.F(0)
		}
	}
	if out.Axes.X == domain.AxisFree && out.Axes.Y == domain.AxisFree {
		return out
	}
	w, h := r.Extent(out)
	if out.Axes.X == domain.AxisCentered {
		out.Position.X = (float64(r.Template.Width) - w) / 2
	}
	if out.Axes.Y == domain.AxisCentered {
		out.Position.Y = (float64(r.Template.Height) - h) / 2
	}
	return out
}

// Extent is the size used for centering and snapping. Unsized text is
// measured when a measurer is available; anything else without a size
// counts as 0.
func (r Resolver) Extent(el domain.Element) (float64, float64) {
	w, h := el.Size()
	if el.Kind == domain.KindText && el.Text != nil && r.Measurer != nil && (el.Width == nil || el.Height == nil) {
		mw, mh := r.Measurer.Measure(el.Text.Content, StyleOf(el.Text), w)
		if el.Width == nil {
			w = mw
		}
		if el.Height == nil {
			h = mh
		}
	}
	return math.Max(w, 0), math.Max(h, 0)
}

// ResolveSlide resolves every element of s. The background is left as is.
func (r Resolver) ResolveSlide(s domain.Slide) domain.Slide {
	out := s.Clone()
	for i := range out.Elements {
		out.Elements[i] = r.Resolve(out.Elements[i])
	}
	return out
}

// ImageWidthForHeight returns the width that keeps el's aspect ratio at
// height h. Non-positive heights yield 0.
func ImageWidthForHeight(el domain.Element, h float64) float64 {
	if h <= 0 || math.IsNaN(h) {
		return 0
	}
	if el.Image == nil {
		return h
	}
	return h * el.Image.Ratio()
}

// FitFontSize returns the font size to store for a size request. Text
// with a full box shrinks in 1px steps from requested until it fits both
// axes, never below 1. Without a box, or without a measurer, requested is
// returned verbatim. Cancellation stops the search at the current size.
func (r Resolver) FitFontSize(ctx context.Context, el domain.Element, requested float64) float64 {
	if el.Kind != domain.KindText || el.Text == nil || !el.HasBox() || r.Measurer == nil {
		return requested
	}
	bw, bh := el.Size()
	st := StyleOf(el.Text)
	size := requested
	for size > 1 {
		if ctx.Err() != nil {
			break
		}
		st.SizePx = size
		w, h := r.Measurer.Measure(el.Text.Content, st, bw)
		if w <= bw && h <= bh {
			break
		}
		size--
	}
	return math.Max(size, 1)
}
