/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"math"
	"strings"
)

// Kind tags the element union.
type Kind string

const (
	KindText       Kind = "text"
	KindImage      Kind = "image"
	KindBackground Kind = "background"
)

// Defaults applied to new elements.
const (
	DefaultFontSize     = 16.0
	DefaultTextColor    = "#000000"
	MaxInitialImageSide = 300.0
)

// Point is a top-left position in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Axis selects one coordinate of a Point.
type Axis uint8

const (
	Horizontal Axis = iota // x
	Vertical               // y
)

func (a Axis) String() string {
	if a == Vertical {
		return "y"
	}
	return "x"
}

// AxisMode says who owns a coordinate. A free axis is stored and user
// editable; a centered axis is recomputed by every layout pass and edits to it
// are rejected.
type AxisMode uint8

const (
	AxisFree AxisMode = iota
	AxisCentered
)

// Axes holds the mode of both coordinates.
type Axes struct {
	X AxisMode
	Y AxisMode
}

// Mode returns the mode for a.
func (x Axes) Mode(a Axis) AxisMode {
	if a == Vertical {
		return x.Y
	}
	return x.X
}

// With returns a copy with axis a set to m.
func (x Axes) With(a Axis, m AxisMode) Axes {
	if a == Vertical {
		x.Y = m
	} else {
		x.X = m
	}
	return x
}

type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

type VerticalAlign string

const (
	AlignTop    VerticalAlign = "top"
	AlignMiddle VerticalAlign = "middle"
	AlignBottom VerticalAlign = "bottom"
)

// TextAttrs is the payload of text elements.
type TextAttrs struct {
	Content        string
	FontSize       float64
	Color          string
	FontFamily     string
	FontWeight     string
	FontStyle      string
	TextDecoration string
	TextAlign      TextAlign
	VerticalAlign  VerticalAlign
}

// ImageAttrs is the payload of image and background elements.
type ImageAttrs struct {
	URL           string
	NaturalWidth  float64
	NaturalHeight float64
	AspectRatio   float64 // 0 when unknown
}

// Ratio returns width/height: the stored aspect ratio, else the natural
// ratio, else 1.
func (a ImageAttrs) Ratio() float64 {
	if a.AspectRatio > 0 && !math.IsInf(a.AspectRatio, 0) {
		return a.AspectRatio
	}
	if a.NaturalWidth > 0 && a.NaturalHeight > 0 {
		return a.NaturalWidth / a.NaturalHeight
	}
	return 1
}

// Element is a layer on a slide. Exactly one payload matches Kind: Text for
// KindText, Image for KindImage and KindBackground.
type Element struct {
	ID       string
	Kind     Kind
	Position Point
	ZIndex   int
	Visible  bool
	Width    *float64 // nil: intrinsic size
	Height   *float64
	Axes     Axes

	Text  *TextAttrs
	Image *ImageAttrs
}

// F returns a pointer to v; handy for Width/Height and patches.
func F(v float64) *float64 { return &v }

// NewText builds a visible text element with the default style.
func NewText(id, content string) Element {
	return Element{
		ID:      id,
		Kind:    KindText,
		Visible: true,
		Text:    &TextAttrs{Content: content, FontSize: DefaultFontSize, Color: DefaultTextColor},
	}
}

// NewImage builds a visible image element. Width/height are seeded from the
// natural size, scaled down so that the longer side is at most maxSide
// (MaxInitialImageSide when maxSide <= 0).
func NewImage(id, url string, naturalW, naturalH, maxSide float64) Element {
	img := &ImageAttrs{URL: url, NaturalWidth: naturalW, NaturalHeight: naturalH}
	if naturalW > 0 && naturalH > 0 {
		img.AspectRatio = naturalW / naturalH
	}
	w, h := InitialImageSize(naturalW, naturalH, maxSide)
	return Element{
		ID:      id,
		Kind:    KindImage,
		Visible: true,
		Width:   F(w),
		Height:  F(h),
		Image:   img,
	}
}

// NewBackground builds a background element from an image URL.
func NewBackground(id, url string, naturalW, naturalH float64) Element {
	el := NewImage(id, url, naturalW, naturalH, 0)
	el.Kind = KindBackground
	return el
}

// InitialImageSize caps the longer side at maxSide preserving aspect ratio.
func InitialImageSize(naturalW, naturalH, maxSide float64) (float64, float64) {
	if maxSide <= 0 {
		maxSide = MaxInitialImageSide
	}
	if naturalW <= 0 || naturalH <= 0 {
		return 0, 0
	}
	longer := math.Max(naturalW, naturalH)
	if longer <= maxSide {
		return naturalW, naturalH
	}
	s := maxSide / longer
	return naturalW * s, naturalH * s
}

// Content returns the text content or image URL.
func (e Element) Content() string {
	switch {
	case e.Text != nil:
		return e.Text.Content
	case e.Image != nil:
		return e.Image.URL
	}
	return ""
}

// Size returns width and height, 0 for unset.
func (e Element) Size() (float64, float64) {
	var w, h float64
	if e.Width != nil {
		w = *e.Width
	}
	if e.Height != nil {
		h = *e.Height
	}
	return w, h
}

// HasBox reports whether both width and height are set.
func (e Element) HasBox() bool { return e.Width != nil && e.Height != nil }

// Clone returns a deep copy.
func (e Element) Clone() Element {
	c := e
	if e.Width != nil {
		c.Width = F(*e.Width)
	}
	if e.Height != nil {
		c.Height = F(*e.Height)
	}
	if e.Text != nil {
		t := *e.Text
		c.Text = &t
	}
	if e.Image != nil {
		i := *e.Image
		c.Image = &i
	}
	return c
}

// Validate checks the kind-specific required fields.
func (e Element) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	switch e.Kind {
	case KindText:
		if e.Text == nil {
			return &ValidationError{ID: e.ID, Field: "content", Reason: "text element without text attributes"}
		}
		if e.Text.Content == "" {
			return &ValidationError{ID: e.ID, Field: "content", Reason: "is required"}
		}
		if e.Text.FontSize <= 0 || math.IsNaN(e.Text.FontSize) {
			return &ValidationError{ID: e.ID, Field: "fontSize", Reason: "must be positive"}
		}
		switch e.Text.TextAlign {
		case "", AlignLeft, AlignCenter, AlignRight:
		default:
			return &ValidationError{ID: e.ID, Field: "textAlign", Reason: "must be left, center or right"}
		}
		switch e.Text.VerticalAlign {
		case "", AlignTop, AlignMiddle, AlignBottom:
		default:
			return &ValidationError{ID: e.ID, Field: "verticalAlign", Reason: "must be top, middle or bottom"}
		}
	case KindImage, KindBackground:
		if e.Image == nil || strings.TrimSpace(e.Image.URL) == "" {
			return &ValidationError{ID: e.ID, Field: "content", Reason: "image URL is required"}
		}
		if e.Image.NaturalWidth < 0 || e.Image.NaturalHeight < 0 {
			return &ValidationError{ID: e.ID, Field: "naturalWidth", Reason: "must not be negative"}
		}
	default:
		return &ValidationError{ID: e.ID, Field: "type", Reason: "unknown element type " + string(e.Kind)}
	}
	for _, v := range []*float64{e.Width, e.Height} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return &ValidationError{ID: e.ID, Field: "size", Reason: "must be finite"}
		}
	}
	return nil
}

// normalize fills defaults that a decoded or user-built element may lack.
func (e *Element) normalize() {
	if e.Kind == KindText && e.Text != nil {
		if e.Text.FontSize <= 0 {
			e.Text.FontSize = DefaultFontSize
		}
	}
}
