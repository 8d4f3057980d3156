/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/layout"
	"github.com/OSRdesign/social-media-composer/internal/render"
	"github.com/OSRdesign/social-media-composer/internal/textlayout"
)

// SlideSVG renders one slide as SVG. Images are referenced by URL, fonts
// by family name; line breaks are computed with m so that wrapping matches
// the raster export.
func SlideSVG(m *textlayout.FaceMeasurer, tpl domain.Template, s domain.Slide) ([]byte, error) {
	if m == nil {
		m = textlayout.NewFaceMeasurer(nil)
	}
	pl := render.Frame(layout.Resolver{Template: tpl, Measurer: m}, s)

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n", pl.Width, pl.Height, pl.Width, pl.Height)
	wf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"#ffffff\"/>\n", pl.Width, pl.Height)

	for i, it := range pl.Items {
		el := it.Element
		switch {
		case it.Background && el.Image != nil:
			wf("  <image x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" preserveAspectRatio=\"xMidYMid slice\" xlink:href=\"%s\"/>\n", pl.Width, pl.Height, escAttr(el.Image.URL))
		case el.Image != nil:
			w, h := el.Size()
			if w <= 0 || h <= 0 {
				continue
			}
			clip := fmt.Sprintf("clip-%d", i)
			wf("  <clipPath id=\"%s\"><rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" rx=\"%d\"/></clipPath>\n", clip, el.Position.X, el.Position.Y, w, h, ImageCornerRadius)
			wf("  <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" preserveAspectRatio=\"none\" clip-path=\"url(#%s)\" xlink:href=\"%s\"/>\n", el.Position.X, el.Position.Y, w, h, clip, escAttr(el.Image.URL))
		case el.Text != nil:
			writeSVGText(wf, el, m)
		}
	}
	wf("</svg>\n")
	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

func writeSVGText(wf func(string, ...any), el domain.Element, m *textlayout.FaceMeasurer) {
	t := el.Text
	st := layout.StyleOf(t)
	bw, bh := el.Size()
	box := m.Layout(t.Content, st, bw)
	if bw <= 0 {
		bw = box.Width
	}
	if bh <= 0 {
		bh = box.Height
	}
	dy := 0.0
	switch t.VerticalAlign {
	case domain.AlignMiddle:
		dy = (bh - box.Height) / 2
	case domain.AlignBottom:
		dy = bh - box.Height
	}
	anchor, ax := "start", el.Position.X
	switch t.TextAlign {
	case domain.AlignCenter:
		anchor, ax = "middle", el.Position.X+bw/2
	case domain.AlignRight:
		anchor, ax = "end", el.Position.X+bw
	}
	family := t.FontFamily
	if family == "" {
		family = "sans-serif"
	}
	attrs := fmt.Sprintf("font-family=\"%s\" font-size=\"%g\" fill=\"%s\" text-anchor=\"%s\" xml:space=\"preserve\"", escAttr(family), t.FontSize, escAttr(colorAttr(t.Color)), anchor)
	if t.FontWeight != "" {
		attrs += fmt.Sprintf(" font-weight=\"%s\"", escAttr(t.FontWeight))
	}
	if t.FontStyle != "" {
		attrs += fmt.Sprintf(" font-style=\"%s\"", escAttr(t.FontStyle))
	}
	if t.TextDecoration != "" && t.TextDecoration != "none" {
		attrs += fmt.Sprintf(" text-decoration=\"%s\"", escAttr(t.TextDecoration))
	}
	wf("  <text %s>\n", attrs)
	for i, ln := range box.Lines {
		// baseline at 80% of the line box
		y := el.Position.Y + dy + float64(i)*box.LineHeight + box.LineHeight*0.8
		var b strings.Builder
		for _, run := range render.Runs(ln.Text) {
			if run.Superscript {
				fmt.Fprintf(&b, "<tspan baseline-shift=\"super\" font-size=\"%g%%\">%s</tspan>", render.SuperscriptScale*100, escText(run.Text))
				continue
			}
			b.WriteString(escText(run.Text))
		}
		wf("    <tspan x=\"%g\" y=\"%g\">%s</tspan>\n", ax, y, b.String())
	}
	wf("  </text>\n")
}

func colorAttr(s string) string {
	if strings.TrimSpace(s) == "" {
		return "#000000"
	}
	return s
}


func escAttr(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString("&quot;")
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\n':
			b.WriteByte(' ')
		case '\r':
			// skip
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func escText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
