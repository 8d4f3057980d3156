/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render turns a slide into the ordered paint list consumed by
// presentation layers and exporters.
package render

import (
	"html"
	"sort"
	"strings"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/layout"
)

// SuperscriptScale is the relative size of superscript runs.
const SuperscriptScale = 0.6

// Run is a piece of text content drawn with the same baseline.
type Run struct {
	Text        string
	Superscript bool
}

// Item is one entry of the paint list.
type Item struct {
	Element    domain.Element
	Background bool
	Runs       []Run // text elements only
}

// PaintList is the bottom-to-top drawing order of a slide.
type PaintList struct {
	Width, Height int
	Items         []Item
}

// Project builds the paint list of an already resolved slide. The
// background paints first regardless of its z-index; then visible elements
// follow in ascending z-index, ties kept in insertion order.
func Project(tpl domain.Template, s domain.Slide) PaintList {
	pl := PaintList{Width: tpl.Width, Height: tpl.Height}
	if s.Background != nil {
		pl.Items = append(pl.Items, Item{Element: s.Background.Clone(), Background: true})
	}
	els := make([]domain.Element, 0, len(s.Elements))
	for _, el := range s.Elements {
		if el.Visible {
			els = append(els, el.Clone())
		}
	}
	sort.SliceStable(els, func(i, j int) bool { return els[i].ZIndex < els[j].ZIndex })
	for _, el := range els {
		it := Item{Element: el}
		if el.Kind == domain.KindText && el.Text != nil {
			it.Runs = Runs(el.Text.Content)
		}
		pl.Items = append(pl.Items, it)
	}
	return pl
}

// Frame resolves s with r and projects it.
func Frame(r layout.Resolver, s domain.Slide) PaintList {
	return Project(r.Template, r.ResolveSlide(s))
}

func isSuperscript(r rune) bool { return r == '®' || r == '™' }

// Runs splits content into plain and superscript runs.
func Runs(content string) []Run {
	var out []Run
	var b strings.Builder
	flush := func(sup bool) {
		if b.Len() > 0 {
			out = append(out, Run{Text: b.String(), Superscript: sup})
			b.Reset()
		}
	}
	sup := false
	for _, r := range content {
		if isSuperscript(r) != sup {
			flush(sup)
			sup = !sup
		}
		b.WriteRune(r)
	}
	flush(sup)
	return out
}

// SuperscriptHTML escapes content for HTML and wraps ® and ™ in sup tags.
func SuperscriptHTML(content string) string {
	var b strings.Builder
	for _, r := range Runs(content) {
		if !r.Superscript {
			b.WriteString(html.EscapeString(r.Text))
			continue
		}
		for _, c := range r.Text {
			b.WriteString(`<sup style="font-size: 0.6em">`)
			b.WriteRune(c)
			b.WriteString(`</sup>`)
		}
	}
	return b.String()
}
