/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/session"
	"github.com/OSRdesign/social-media-composer/internal/textlayout"
)

func TestSlideCSV(t *testing.T) {
	txt := domain.NewText("a", "Hello, world")
	img := domain.NewImage("b", "https://x/y.png", 10, 10, 0)
	data, err := SlideCSV(domain.Slide{Elements: []domain.Element{txt, img}})
	if err != nil {
		t.Fatalf("SlideCSV: %v", err)
	}
	want := "a:text,b:image\r\n\"Hello, world\",https://x/y.png"
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}
	if data, _ := SlideCSV(domain.Slide{}); len(data) != 0 {
		t.Fatalf("empty slide must export nothing, got %q", data)
	}
}

func TestExtendedCSV(t *testing.T) {
	txt := domain.NewText("t1", "Say \"hi\"")
	txt.Position = domain.Point{X: 10, Y: 20.5}
	img := domain.NewImage("img-0123456789", "https://e.x/a.png", 600, 300, 0)
	bg := domain.NewBackground("bg", "https://e.x/bg.png", 10, 10)
	doc := domain.Document{Template: small, Slides: []domain.Slide{
		{Elements: []domain.Element{txt}, Background: &bg},
		{Elements: []domain.Element{img}},
	}}
	data, err := ExtendedCSV(doc)
	if err != nil {
		t.Fatalf("ExtendedCSV: %v", err)
	}
	want := strings.Join([]string{
		`ID,Type,Content,X,Y,Properties`,
		`"t1","text","Say ""hi""",10,20.5,"{""fontSize"":16,""color"":""#000000"",""slideIndex"":0}"`,
		`"img-0123","image","https://e.x/a.png",0,0,"{""width"":300,""height"":150,""slideIndex"":1}"`,
	}, "\n")
	if string(data) != want {
		t.Fatalf("got\n%s\nwant\n%s", data, want)
	}
}

func TestImportCSV(t *testing.T) {
	s := session.Open(small, session.Options{})
	probe := fakeImages{"https://x/p.png": solid(600, 300, blue)}
	in := "a:text,b:image,c:text\nHello,,World\n,https://x/p.png,Second\n"
	n, err := ImportCSV(context.Background(), s, probe, []byte(in))
	if err != nil || n != 4 {
		t.Fatalf("ImportCSV = %d, %v", n, err)
	}
	doc := s.Snapshot()
	if len(doc.Slides) != 2 || s.CurrentIndex() != 0 {
		t.Fatalf("slides = %d, current = %d", len(doc.Slides), s.CurrentIndex())
	}
	first := doc.Slides[0].Elements
	if len(first) != 2 || first[0].ID != "a" || first[1].Text.Content != "World" {
		t.Fatalf("first slide = %+v", first)
	}
	if first[0].Text.FontSize != 16 || first[0].Text.Color != "#000000" || first[0].Position != session.NewLayerPosition {
		t.Fatalf("text defaults = %+v at %v", first[0].Text, first[0].Position)
	}
	second := doc.Slides[1].Elements
	if len(second) != 2 || second[0].Kind != domain.KindImage || second[1].ZIndex != 1 {
		t.Fatalf("second slide = %+v", second)
	}
	if w, h := second[0].Size(); w != 300 || h != 150 {
		t.Fatalf("image size = %v x %v", w, h)
	}
	if id, _ := s.Selected(); id != "c" {
		t.Fatalf("selected = %q", id)
	}
}

func TestImportCSVFillsFirstSlide(t *testing.T) {
	s := session.Open(small, session.Options{})
	s.AddSlide()
	s.SetCurrentSlide(1)
	n, err := ImportCSV(context.Background(), s, nil, []byte("t:text\nfirst\nsecond\n"))
	if err != nil || n != 2 {
		t.Fatalf("ImportCSV = %d, %v", n, err)
	}
	doc := s.Snapshot()
	if len(doc.Slides) != 3 || s.CurrentIndex() != 1 {
		t.Fatalf("slides = %d, current = %d", len(doc.Slides), s.CurrentIndex())
	}
	if els := doc.Slides[0].Elements; len(els) != 1 || els[0].Text.Content != "first" {
		t.Fatalf("first slide = %+v", els)
	}
	if len(doc.Slides[1].Elements) != 0 {
		t.Fatalf("current slide must stay untouched")
	}
	if els := doc.Slides[2].Elements; len(els) != 1 || els[0].Text.Content != "second" {
		t.Fatalf("new slide = %+v", els)
	}
	if _, ok := s.Selected(); ok {
		t.Fatalf("selection must not move off the current slide")
	}
}

func TestImportCSVRenamesCollidingIDs(t *testing.T) {
	s := session.Open(small, session.Options{})
	if _, err := s.AddElement(domain.NewText("a", "existing")); err != nil {
		t.Fatal(err)
	}
	n, err := ImportCSV(context.Background(), s, nil, []byte("a:text,a:text\nx,y\n"))
	if err != nil || n != 2 {
		t.Fatalf("ImportCSV = %d, %v", n, err)
	}
	cur, _ := s.CurrentSlide()
	seen := map[string]bool{}
	for _, el := range cur.Elements {
		if seen[el.ID] {
			t.Fatalf("duplicate id %s", el.ID)
		}
		seen[el.ID] = true
	}
	if len(cur.Elements) != 3 {
		t.Fatalf("elements = %d", len(cur.Elements))
	}
}

func TestImportCSVRejectsWithoutChanges(t *testing.T) {
	cases := map[string]string{
		"no colon":     "name\nx\n",
		"unknown type": "a:video\nx\n",
		"bad quoting":  "a:text\n\"unterminated\n",
		"empty":        "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			s := session.Open(small, session.Options{})
			_, err := ImportCSV(context.Background(), s, nil, []byte(in))
			var pe *domain.ParseError
			if !errors.As(err, &pe) || pe.UserMessage() != "Invalid CSV file" {
				t.Fatalf("expected csv ParseError, got %v", err)
			}
			if s.SlideCount() != 1 {
				t.Fatalf("session changed")
			}
		})
	}

	s := session.Open(small, session.Options{})
	_, err := ImportCSV(context.Background(), s, fakeImages{}, []byte("a:text,b:image\nx,https://gone\ny,\n"))
	var rle *domain.ResourceLoadError
	if !errors.As(err, &rle) {
		t.Fatalf("expected ResourceLoadError, got %v", err)
	}
	if cur, _ := s.CurrentSlide(); len(cur.Elements) != 0 || s.SlideCount() != 1 {
		t.Fatalf("session changed after failed probe")
	}
	if _, err := ImportCSV(context.Background(), session.New(session.Options{}), nil, []byte("a:text\nx\n")); !errors.Is(err, session.ErrNoTemplate) {
		t.Fatalf("expected ErrNoTemplate, got %v", err)
	}
}

func TestImportCSVLongHeadersSurviveTemplateRoundTrip(t *testing.T) {
	s := session.Open(small, session.Options{})
	in := "product_name:text,product_price:text\nShoe,9.99\n"
	if _, err := ImportCSV(context.Background(), s, fakeImages{}, []byte(in)); err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	data, err := TemplateJSON(s)
	if err != nil {
		t.Fatalf("TemplateJSON: %v", err)
	}
	dst := session.New(session.Options{})
	if err := LoadTemplate(dst, data); err != nil {
		t.Fatalf("own export cannot be re-imported: %v", err)
	}
	cur, _ := dst.CurrentSlide()
	if len(cur.Elements) != 2 || cur.Elements[0].ID == cur.Elements[1].ID {
		t.Fatalf("elements = %+v", cur.Elements)
	}
	if cur.Elements[0].Text.Content != "Shoe" || cur.Elements[1].Text.Content != "9.99" {
		t.Fatalf("contents = %q %q", cur.Elements[0].Content(), cur.Elements[1].Content())
	}
}

func richDocument() domain.Document {
	headline := domain.NewText("headline-element", "Big Sale")
	headline.Position = domain.Point{X: 3, Y: 12.5}
	headline.Axes.X = domain.AxisCentered
	headline.ZIndex = 2
	*headline.Text = domain.TextAttrs{
		Content:        "Big Sale",
		FontSize:       24,
		Color:          "#ff0000",
		FontFamily:     "Inter",
		FontWeight:     "bold",
		FontStyle:      "italic",
		TextDecoration: "underline",
		TextAlign:      domain.AlignCenter,
		VerticalAlign:  domain.AlignMiddle,
	}
	hero := domain.NewImage("hero-image-0001", "https://x/hero.png", 1200, 600, 0)
	hero.Position = domain.Point{X: 5, Y: 6}
	hero.Axes.Y = domain.AxisCentered
	hero.ZIndex = 1
	hero.Visible = false
	bg := domain.NewBackground("background-long-id", "https://x/bg.jpg", 400, 320)

	boxed := domain.NewText("t2", "Boxed caption")
	boxed.Width, boxed.Height = domain.F(60), domain.F(20)
	boxed.Axes = domain.Axes{X: domain.AxisCentered, Y: domain.AxisCentered}
	boxed.Text.TextAlign = domain.AlignRight
	boxed.Text.VerticalAlign = domain.AlignBottom
	logo := domain.NewImage("logo-image-identifier", "https://x/logo.png", 50, 200, 0)
	logo.Position = domain.Point{X: 70.25, Y: 1}

	return domain.Document{Template: small, Slides: []domain.Slide{
		{ID: "first-slide-with-a-long-id", Elements: []domain.Element{headline, hero}, Background: &bg},
		{ID: "second", Elements: []domain.Element{boxed, logo}},
		{ID: "third", Elements: []domain.Element{}},
	}}
}

func TestTemplateRoundTripThroughSession(t *testing.T) {
	opts := session.Options{Measurer: textlayout.NewFaceMeasurer(nil)}
	src := session.Open(small, opts)
	src.Replace(richDocument())
	if _, err := src.AddText("Title"); err != nil {
		t.Fatal(err)
	}
	want := src.Snapshot()
	data, err := TemplateJSON(src)
	if err != nil {
		t.Fatalf("TemplateJSON: %v", err)
	}

	dst := session.Open(domain.Template{ID: "other", Width: 10, Height: 10}, opts)
	if _, err := dst.AddText("keep"); err != nil {
		t.Fatal(err)
	}
	if err := LoadTemplate(dst, []byte("{not json")); err == nil {
		t.Fatalf("expected parse error")
	}
	if dst.Template().ID != "other" || dst.SlideCount() != 1 {
		t.Fatalf("failed import changed the session")
	}
	if err := LoadTemplate(dst, data); err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if dst.Template() != small || dst.SlideCount() != 3 || dst.CurrentIndex() != 0 {
		t.Fatalf("replace: %+v, %d slides", dst.Template(), dst.SlideCount())
	}
	if _, ok := dst.Selected(); ok {
		t.Fatalf("selection must be cleared")
	}

	// Loaded slides equal the exported ones with ids cut to ShortIDLen.
	for i := range want.Slides {
		ws := &want.Slides[i]
		for j := range ws.Elements {
			ws.Elements[j].ID = domain.ShortID(ws.Elements[j].ID)
		}
		if ws.Background != nil {
			ws.Background.ID = domain.ShortID(ws.Background.ID)
		}
	}
	got := dst.Snapshot()
	for i := range want.Slides {
		if !reflect.DeepEqual(got.Slides[i], want.Slides[i]) {
			t.Fatalf("slide %d:\n got %+v\nwant %+v", i, got.Slides[i], want.Slides[i])
		}
	}

	first := got.Slides[0]
	if first.Elements[0].ID != "headline" || first.Background.ID != "backgrou" || first.ID != "first-slide-with-a-long-id" {
		t.Fatalf("ids = %s %s %s", first.Elements[0].ID, first.Background.ID, first.ID)
	}
	if first.Elements[2].Text.Content != "Title" {
		t.Fatalf("added text lost: %+v", first.Elements)
	}
	if hero := first.Elements[1]; hero.Visible || hero.Image.Ratio() != 2 || hero.Image.NaturalWidth != 1200 {
		t.Fatalf("hero = %+v %+v", hero, hero.Image)
	}
	if c := got.Slides[1].Elements[0]; c.Axes.X != domain.AxisCentered || c.Position.X != 20 || c.Position.Y != 30 {
		t.Fatalf("boxed caption not centered: %+v", c.Position)
	}
}
