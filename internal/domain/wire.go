/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"
)

// wireElement is the flat element object of template files.
type wireElement struct {
	ID                 string   `json:"id"`
	Type               Kind     `json:"type"`
	Content            string   `json:"content"`
	Position           Point    `json:"position"`
	Width              *float64 `json:"width,omitempty"`
	Height             *float64 `json:"height,omitempty"`
	FontSize           *float64 `json:"fontSize,omitempty"`
	Color              string   `json:"color,omitempty"`
	ZIndex             *int     `json:"zIndex,omitempty"`
	Visible            *bool    `json:"visible,omitempty"`
	FontFamily         string   `json:"fontFamily,omitempty"`
	FontWeight         string   `json:"fontWeight,omitempty"`
	TextDecoration     string   `json:"textDecoration,omitempty"`
	FontStyle          string   `json:"fontStyle,omitempty"`
	TextAlign          string   `json:"textAlign,omitempty"`
	VerticalAlign      string   `json:"verticalAlign,omitempty"`
	CenterHorizontally bool     `json:"centerHorizontally,omitempty"`
	CenterVertically   bool     `json:"centerVertically,omitempty"`
	AspectRatio        *float64 `json:"aspectRatio,omitempty"`
	NaturalWidth       *float64 `json:"naturalWidth,omitempty"`
	NaturalHeight      *float64 `json:"naturalHeight,omitempty"`
}

// MarshalJSON writes the flat template-file shape.
func (e Element) MarshalJSON() ([]byte, error) {
	w := wireElement{
		ID:                 e.ID,
		Type:               e.Kind,
		Content:            e.Content(),
		Position:           e.Position,
		Width:              e.Width,
		Height:             e.Height,
		ZIndex:             Ptr(e.ZIndex),
		Visible:            Ptr(e.Visible),
		CenterHorizontally: e.Axes.X == AxisCentered,
		CenterVertically:   e.Axes.Y == AxisCentered,
	}
	if t := e.Text; t != nil {
		w.FontSize = Ptr(t.FontSize)
		w.Color = t.Color
		w.FontFamily = t.FontFamily
		w.FontWeight = t.FontWeight
		w.TextDecoration = t.TextDecoration
		w.FontStyle = t.FontStyle
		w.TextAlign = string(t.TextAlign)
		w.VerticalAlign = string(t.VerticalAlign)
	}
	if im := e.Image; im != nil {
		if im.AspectRatio > 0 {
			w.AspectRatio = Ptr(im.AspectRatio)
		}
		if im.NaturalWidth > 0 {
			w.NaturalWidth = Ptr(im.NaturalWidth)
		}
		if im.NaturalHeight > 0 {
			w.NaturalHeight = Ptr(im.NaturalHeight)
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the flat shape. A missing "visible" means visible and
// a text element without fontSize gets DefaultFontSize.
func (e *Element) UnmarshalJSON(b []byte) error {
	var w wireElement
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := Element{
		ID:       w.ID,
		Kind:     w.Type,
		Position: w.Position,
		Width:    w.Width,
		Height:   w.Height,
		Visible:  w.Visible == nil || *w.Visible,
	}
	if w.ZIndex != nil {
		out.ZIndex = *w.ZIndex
	}
	if w.CenterHorizontally {
		out.Axes.X = AxisCentered
	}
	if w.CenterVertically {
		out.Axes.Y = AxisCentered
	}
	switch w.Type {
	case KindText:
		t := &TextAttrs{
			Content:        w.Content,
			Color:          w.Color,
			FontFamily:     w.FontFamily,
			FontWeight:     w.FontWeight,
			FontStyle:      w.FontStyle,
			TextDecoration: w.TextDecoration,
			TextAlign:      TextAlign(w.TextAlign),
			VerticalAlign:  VerticalAlign(w.VerticalAlign),
		}
		if w.FontSize != nil {
			t.FontSize = *w.FontSize
		}
		out.Text = t
	case KindImage, KindBackground:
		im := &ImageAttrs{URL: w.Content}
		if w.AspectRatio != nil {
			im.AspectRatio = *w.AspectRatio
		}
		if w.NaturalWidth != nil {
			im.NaturalWidth = *w.NaturalWidth
		}
		if w.NaturalHeight != nil {
			im.NaturalHeight = *w.NaturalHeight
		}
		out.Image = im
	default:
		return fmt.Errorf("element %q: unknown type %q", w.ID, w.Type)
	}
	out.normalize()
	*e = out
	return nil
}
