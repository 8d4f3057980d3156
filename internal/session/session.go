/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session holds the single editing session of the composer: the
// chosen template, the carousel of slides, the current-slide cursor, the
// selection and the view zoom. It is the only place where slides and
// elements are mutated.
//
// Mutations addressing a missing element or slide are no-ops. Every
// operation runs under one mutex, so completions of asynchronous image or
// font loads apply as a single step.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/layout"
	applog "github.com/OSRdesign/social-media-composer/internal/log"
	"github.com/OSRdesign/social-media-composer/internal/render"
)

var (
	// ErrNoTemplate is returned by element operations before a template is chosen.
	ErrNoTemplate = errors.New("no template selected")
	// ErrAxisDerived rejects a position edit on a centered axis.
	ErrAxisDerived = errors.New("position axis is derived from centering")
)

// Options tune a session. Zero values fall back to the editor defaults.
type Options struct {
	MaxImageSide  float64
	Measurer      layout.TextMeasurer
	Snapping      bool
	SnapThreshold float64
	Logger        *slog.Logger
}

// Session is the composer state store.
type Session struct {
	mu   sync.Mutex
	opts Options
	log  *slog.Logger
	id   string

	tpl      domain.Template
	slides   []domain.Slide
	current  int
	selected string
	zoom     float64
	neutral  int // active WithNeutralZoom calls
}

// New returns a session without a template. Call SelectTemplate or Replace
// before editing.
func New(opts Options) *Session {
	if opts.MaxImageSide <= 0 {
		opts.MaxImageSide = domain.MaxInitialImageSide
	}
	id := domain.NewSlideID()
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("session")
	}
	return &Session{opts: opts, id: id, log: l.With(slog.String("session", id)), zoom: 1}
}

// Open returns a session with tpl selected.
func Open(tpl domain.Template, opts Options) *Session {
	s := New(opts)
	s.SelectTemplate(tpl)
	return s
}

// ID identifies the session in logs and crash reports.
func (s *Session) ID() string { return s.id }

// SelectTemplate switches the canvas and resets the carousel to one empty
// slide with nothing selected.
func (s *Session) SelectTemplate(tpl domain.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tpl = tpl
	s.slides = []domain.Slide{domain.NewSlide()}
	s.current = 0
	s.selected = ""
	s.log.Debug("template selected", slog.String("template", tpl.ID), slog.Int("width", tpl.Width), slog.Int("height", tpl.Height))
}

// Replace swaps in an imported document: new slides, first slide current,
// selection cleared. The document is deep-copied and resolved.
func (s *Session) Replace(doc domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tpl = doc.Template
	s.slides = doc.Clone().Slides
	if len(s.slides) == 0 {
		s.slides = []domain.Slide{domain.NewSlide()}
	}
	r := s.resolver()
	for i := range s.slides {
		s.slides[i] = r.ResolveSlide(s.slides[i])
	}
	s.current = 0
	s.selected = ""
	s.log.Debug("document replaced", slog.String("template", doc.ID), slog.Int("slides", len(s.slides)))
}

// Template returns the current template.
func (s *Session) Template() domain.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tpl
}

// HasTemplate reports whether editing is possible.
func (s *Session) HasTemplate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slides) > 0
}

// Snapshot deep-copies the template and all slides.
func (s *Session) Snapshot() domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Document{Template: s.tpl, Slides: domain.Document{Slides: s.slides}.Clone().Slides}
}

// CurrentIndex returns the current-slide cursor.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SlideCount returns the number of slides.
func (s *Session) SlideCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slides)
}

// CurrentSlide returns a copy of the current slide.
func (s *Session) CurrentSlide() (domain.Slide, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur()
	if cur == nil {
		return domain.Slide{}, false
	}
	return cur.Clone(), true
}

// Selected returns the selected element id. The id may not exist on the
// current slide.
func (s *Session) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// SelectedElement returns the selected element if it exists on the current slide.
func (s *Session) SelectedElement() (domain.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur()
	if cur == nil || s.selected == "" {
		return domain.Element{}, false
	}
	el, ok := cur.Find(s.selected)
	if !ok {
		return domain.Element{}, false
	}
	return el.Clone(), true
}

// SetSelectedElement sets or clears (empty id) the selection without
// checking that the element exists.
func (s *Session) SetSelectedElement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// Resolver returns the layout resolver for the current template.
func (s *Session) Resolver() layout.Resolver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver()
}

// PaintList projects the current slide for drawing.
func (s *Session) PaintList() render.PaintList {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur()
	if cur == nil {
		return render.PaintList{Width: s.tpl.Width, Height: s.tpl.Height}
	}
	return render.Frame(s.resolver(), *cur)
}

func (s *Session) resolver() layout.Resolver {
	return layout.Resolver{Template: s.tpl, Measurer: s.opts.Measurer}
}

// cur returns the current slide, or nil without a template.
func (s *Session) cur() *domain.Slide {
	if s.current < 0 || s.current >= len(s.slides) {
		return nil
	}
	return &s.slides[s.current]
}
