/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// ElementPatch is a partial update; nil fields are left untouched.
// Content targets the text content or the image URL depending on the kind.
// Text and image fields that do not match the element's kind are ignored.
type ElementPatch struct {
	Position *Point
	ZIndex   *int
	Visible  *bool
	Width    *float64
	Height   *float64
	CenterX  *bool
	CenterY  *bool

	Content        *string
	FontSize       *float64
	Color          *string
	FontFamily     *string
	FontWeight     *string
	FontStyle      *string
	TextDecoration *string
	TextAlign      *TextAlign
	VerticalAlign  *VerticalAlign

	NaturalWidth  *float64
	NaturalHeight *float64
	AspectRatio   *float64
}

// IsZero reports whether the patch changes nothing.
func (p ElementPatch) IsZero() bool { return p == ElementPatch{} }

// Geometry reports whether the patch touches position, size or centering.
func (p ElementPatch) Geometry() bool {
	return p.Position != nil || p.Width != nil || p.Height != nil || p.CenterX != nil || p.CenterY != nil || p.FontSize != nil || p.Content != nil
}

// Apply returns a deep copy of el with the patch merged in. ID and Kind never change.
func (p ElementPatch) Apply(el Element) Element {
	out := el.Clone()
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.ZIndex != nil {
		out.ZIndex = *p.ZIndex
	}
	if p.Visible != nil {
		out.Visible = *p.Visible
	}
	if p.Width != nil {
		out.Width = F(*p.Width)
	}
	if p.Height != nil {
		out.Height = F(*p.Height)
	}
	if p.CenterX != nil {
		out.Axes = out.Axes.With(Horizontal, modeOf(*p.CenterX))
	}
	if p.CenterY != nil {
		out.Axes = out.Axes.With(Vertical, modeOf(*p.CenterY))
	}

	if t := out.Text; t != nil {
		setStr(&t.Content, p.Content)
		if p.FontSize != nil {
			t.FontSize = *p.FontSize
		}
		setStr(&t.Color, p.Color)
		setStr(&t.FontFamily, p.FontFamily)
		setStr(&t.FontWeight, p.FontWeight)
		setStr(&t.FontStyle, p.FontStyle)
		setStr(&t.TextDecoration, p.TextDecoration)
		if p.TextAlign != nil {
			t.TextAlign = *p.TextAlign
		}
		if p.VerticalAlign != nil {
			t.VerticalAlign = *p.VerticalAlign
		}
	}
	if im := out.Image; im != nil {
		setStr(&im.URL, p.Content)
		if p.NaturalWidth != nil {
			im.NaturalWidth = *p.NaturalWidth
		}
		if p.NaturalHeight != nil {
			im.NaturalHeight = *p.NaturalHeight
		}
		if p.AspectRatio != nil {
			im.AspectRatio = *p.AspectRatio
		}
	}
	return out
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func modeOf(centered bool) AxisMode {
	if centered {
		return AxisCentered
	}
	return AxisFree
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
