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
	"errors"
	"math"
	"testing"
	"unicode/utf8"
)

func TestNewTextDefaults(t *testing.T) {
	el := NewText("t1", "Hi")
	if el.Kind != KindText || !el.Visible {
		t.Fatalf("unexpected element: %+v", el)
	}
	if el.Text.FontSize != 16 || el.Text.Color != "#000000" {
		t.Fatalf("defaults not applied: %+v", el.Text)
	}
	if err := el.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNewImageCapsLongerSide(t *testing.T) {
	cases := []struct {
		name       string
		nw, nh     float64
		wantW      float64
		wantH      float64
		wantAspect float64
	}{
		{"landscape", 1200, 600, 300, 150, 2},
		{"portrait", 400, 800, 150, 300, 0.5},
		{"small", 120, 80, 120, 80, 1.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			el := NewImage("i1", "https://example.test/a.png", tc.nw, tc.nh, 0)
			w, h := el.Size()
			if math.Abs(w-tc.wantW) > 1e-9 || math.Abs(h-tc.wantH) > 1e-9 {
				t.Fatalf("size = %vx%v, want %vx%v", w, h, tc.wantW, tc.wantH)
			}
			if el.Image.AspectRatio != tc.wantAspect {
				t.Fatalf("aspect = %v, want %v", el.Image.AspectRatio, tc.wantAspect)
			}
		})
	}
}

func TestRatioFallbacks(t *testing.T) {
	if r := (ImageAttrs{AspectRatio: 2, NaturalWidth: 1, NaturalHeight: 1}).Ratio(); r != 2 {
		t.Fatalf("stored ratio ignored: %v", r)
	}
	if r := (ImageAttrs{NaturalWidth: 300, NaturalHeight: 100}).Ratio(); r != 3 {
		t.Fatalf("natural ratio ignored: %v", r)
	}
	if r := (ImageAttrs{}).Ratio(); r != 1 {
		t.Fatalf("fallback ratio = %v", r)
	}
}

func TestValidateRejects(t *testing.T) {
	bad := []Element{
		{Kind: KindText, Text: &TextAttrs{Content: "x", FontSize: 12}},
		{ID: "a", Kind: KindText},
		{ID: "a", Kind: KindText, Text: &TextAttrs{FontSize: 12}},
		{ID: "a", Kind: KindText, Text: &TextAttrs{Content: "x"}},
		{ID: "a", Kind: KindText, Text: &TextAttrs{Content: "x", FontSize: 12, TextAlign: "justify"}},
		{ID: "a", Kind: KindImage},
		{ID: "a", Kind: KindImage, Image: &ImageAttrs{URL: " "}},
		{ID: "a", Kind: "video"},
	}
	for i, el := range bad {
		err := el.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestPatchNeverChangesIdentity(t *testing.T) {
	el := NewText("t1", "Hi")
	p := ElementPatch{
		Content:     Ptr("Hello"),
		FontSize:    Ptr(32.0),
		CenterX:     Ptr(true),
		Width:       Ptr(200.0),
		AspectRatio: Ptr(3.0), // image-only, ignored
	}
	got := p.Apply(el)
	if got.ID != "t1" || got.Kind != KindText {
		t.Fatalf("identity changed: %+v", got)
	}
	if got.Text.Content != "Hello" || got.Text.FontSize != 32 || got.Axes.X != AxisCentered || *got.Width != 200 {
		t.Fatalf("patch not applied: %+v %+v", got, got.Text)
	}
	if got.Image != nil {
		t.Fatalf("image payload created on text element")
	}
	if el.Text.Content != "Hi" || el.Width != nil {
		t.Fatalf("original mutated: %+v", el)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := Slide{ID: "s", Elements: []Element{NewText("t1", "Hi"), NewImage("i1", "u", 10, 10, 0)}}
	bg := NewBackground("bg", "b", 10, 10)
	s.Background = &bg

	c := s.Clone()
	c.Elements[0].Text.Content = "changed"
	*c.Elements[1].Width = 1
	c.Background.Image.URL = "other"

	if s.Elements[0].Text.Content != "Hi" || *s.Elements[1].Width != 10 || s.Background.Image.URL != "b" {
		t.Fatalf("clone shares state with original")
	}
	if c.Elements[0].ID != "t1" || c.ID != "s" {
		t.Fatalf("clone must keep ids")
	}
}

func TestElementJSONShape(t *testing.T) {
	el := NewText("abcdefgh", "Sale™")
	el.Position = Point{X: 10, Y: 20}
	el.Axes.X = AxisCentered
	el.Text.TextAlign = AlignCenter
	b, err := json.Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	for k, want := range map[string]any{"id": "abcdefgh", "type": "text", "content": "Sale™", "fontSize": 16.0, "centerHorizontally": true, "textAlign": "center", "visible": true} {
		if m[k] != want {
			t.Fatalf("%s = %v, want %v", k, m[k], want)
		}
	}
	if _, ok := m["centerVertically"]; ok {
		t.Fatalf("false centering flag should be omitted")
	}
}

func TestElementJSONDefaults(t *testing.T) {
	var el Element
	if err := json.Unmarshal([]byte(`{"id":"x","type":"text","content":"Hi","position":{"x":1,"y":2}}`), &el); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !el.Visible || el.ZIndex != 0 || el.Text.FontSize != DefaultFontSize {
		t.Fatalf("defaults not applied: %+v %+v", el, el.Text)
	}
	if err := json.Unmarshal([]byte(`{"id":"x","type":"sticker","content":"Hi"}`), &el); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestPresetsAndIDs(t *testing.T) {
	tpl, ok := PresetByID("Instagram-Story")
	if !ok || tpl.Width != 1080 || tpl.Height != 1920 || tpl.Format != "story" {
		t.Fatalf("preset lookup failed: %+v %v", tpl, ok)
	}
	if len(Presets()) != 3 {
		t.Fatalf("expected 3 presets")
	}
	if id := NewID(); len(id) != ShortIDLen {
		t.Fatalf("NewID length = %d", len(id))
	}
	if ShortID("abc") != "abc" || ShortID("0123456789") != "01234567" {
		t.Fatalf("ShortID truncation wrong")
	}
}

func TestShortIDKeepsRunesWhole(t *testing.T) {
	cases := map[string]string{
		"abcdefgüx":   "abcdefgü",
		"äöüßäöüßäöü": "äöüßäöüß",
		"über":        "über",
		"日本語のテキスト要素":  "日本語のテキスト",
	}
	for in, want := range cases {
		got := ShortID(in)
		if !utf8.ValidString(got) {
			t.Fatalf("ShortID(%q) = %q is not valid UTF-8", in, got)
		}
		if got != want {
			t.Fatalf("ShortID(%q) = %q, want %q", in, got, want)
		}
	}
}
