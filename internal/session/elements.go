/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"log/slog"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/layout"
	"github.com/OSRdesign/social-media-composer/internal/snap"
)

// Defaults of the "add text" action.
const (
	NewTextContent  = "Double click to edit"
	NewTextFontSize = 24.0
)

// NewLayerPosition is where added text and images are placed.
var NewLayerPosition = domain.Point{X: 50, Y: 50}

// AddElement appends el to the current slide on top of the existing
// elements (z-index = element count), makes it visible and selects it.
// An element without id gets a fresh one.
func (s *Session) AddElement(el domain.Element) (domain.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(s.current, el)
}

// AddElementToSlide is AddElement against slide i. The selection only
// moves when i is the current slide. An out of range index is a no-op.
func (s *Session) AddElementToSlide(i int, el domain.Element) (domain.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slides) == 0 {
		return domain.Element{}, ErrNoTemplate
	}
	if i < 0 || i >= len(s.slides) {
		return domain.Element{}, nil
	}
	return s.addLocked(i, el)
}

func (s *Session) addLocked(i int, el domain.Element) (domain.Element, error) {
	if i < 0 || i >= len(s.slides) {
		return domain.Element{}, ErrNoTemplate
	}
	cur := &s.slides[i]
	el = el.Clone()
	if el.ID == "" {
		el.ID = domain.NewID()
	}
	if el.Kind == domain.KindText && el.Text != nil && el.Text.FontSize <= 0 {
		el.Text.FontSize = domain.DefaultFontSize
	}
	if err := el.Validate(); err != nil {
		return domain.Element{}, err
	}
	if el.Kind == domain.KindBackground {
		return domain.Element{}, &domain.ValidationError{ID: el.ID, Field: "type", Reason: "background belongs in the background slot"}
	}
	if cur.Index(el.ID) >= 0 {
		return domain.Element{}, &domain.ValidationError{ID: el.ID, Field: "id", Reason: "already used on this slide"}
	}
	el.ZIndex = len(cur.Elements)
	el.Visible = true
	el = s.resolver().Resolve(el)
	cur.Elements = append(cur.Elements, el)
	if i == s.current {
		s.selected = el.ID
	}
	s.log.Debug("element added", slog.String("id", el.ID), slog.String("type", string(el.Kind)), slog.Int("slide", i), slog.Int("z", el.ZIndex))
	return el.Clone(), nil
}

// AddText adds a text layer with the toolbar defaults. Empty content uses
// NewTextContent.
func (s *Session) AddText(content string) (domain.Element, error) {
	if content == "" {
		content = NewTextContent
	}
	el := domain.NewText(domain.NewID(), content)
	el.Text.FontSize = NewTextFontSize
	el.Position = NewLayerPosition
	return s.AddElement(el)
}

// UpdateElement merges p into element id of the current slide. A missing id
// is a no-op. Position edits on centered axes are overwritten by layout.
// The merged element is validated before anything is stored.
func (s *Session) UpdateElement(id string, p domain.ElementPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, func(el domain.Element) (domain.Element, error) { return p.Apply(el), nil })
}

// updateLocked runs fn on element id and stores the resolved result.
func (s *Session) updateLocked(id string, fn func(domain.Element) (domain.Element, error)) error {
	cur := s.cur()
	if cur == nil {
		return nil
	}
	i := cur.Index(id)
	if i < 0 {
		return nil
	}
	old := cur.Elements[i]
	next, err := fn(old.Clone())
	if err != nil {
		return err
	}
	next.ID, next.Kind = old.ID, old.Kind
	if err := next.Validate(); err != nil {
		return err
	}
	cur.Elements[i] = s.resolver().Resolve(next)
	return nil
}

// RemoveElement deletes element id from the current slide and clears the
// selection if it pointed at it.
func (s *Session) RemoveElement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur()
	if cur == nil {
		return
	}
	i := cur.Index(id)
	if i < 0 {
		return
	}
	cur.Elements = append(cur.Elements[:i], cur.Elements[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	s.log.Debug("element removed", slog.String("id", id))
}

// MoveElement sets an absolute z-index.
func (s *Session) MoveElement(id string, z int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.updateLocked(id, func(el domain.Element) (domain.Element, error) {
		el.ZIndex = z
		return el, nil
	})
}

// ToggleElementVisibility flips the visible flag.
func (s *Session) ToggleElementVisibility(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.updateLocked(id, func(el domain.Element) (domain.Element, error) {
		el.Visible = !el.Visible
		return el, nil
	})
}

// SetPosition stores one coordinate. Centered axes reject the edit with
// ErrAxisDerived.
func (s *Session) SetPosition(id string, axis domain.Axis, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, func(el domain.Element) (domain.Element, error) {
		if el.Axes.Mode(axis) == domain.AxisCentered {
			return el, ErrAxisDerived
		}
		if axis == domain.Vertical {
			el.Position.Y = v
		} else {
			el.Position.X = v
		}
		return el, nil
	})
}

// Drag stores a position reported by the view after a drag. Centered axes
// keep their derived value. With snapping enabled the box is aligned to the
// canvas and the other visible elements; the guides that fired are returned.
func (s *Session) Drag(id string, to domain.Point) (domain.Point, []snap.Guide) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur()
	if cur == nil {
		return to, nil
	}
	i := cur.Index(id)
	if i < 0 {
		return to, nil
	}
	r := s.resolver()
	el := cur.Elements[i]
	var guides []snap.Guide
	if s.opts.Snapping {
		w, h := r.Extent(el)
		anchors := []snap.Rect{snap.R(0, 0, float64(s.tpl.Width), float64(s.tpl.Height))}
		for j, o := range cur.Elements {
			if j == i || !o.Visible {
				continue
			}
			ow, oh := r.Extent(o)
			anchors = append(anchors, snap.R(o.Position.X, o.Position.Y, ow, oh))
		}
		moved, g := snap.Align(snap.R(to.X, to.Y, w, h), anchors, snap.Options{
			Threshold: s.opts.SnapThreshold,
			Edges:     true,
			Centers:   true,
			LockX:     el.Axes.X == domain.AxisCentered,
			LockY:     el.Axes.Y == domain.AxisCentered,
		})
		to, guides = domain.Point{X: moved.X, Y: moved.Y}, g
	}
	if el.Axes.X == domain.AxisFree {
		el.Position.X = to.X
	}
	if el.Axes.Y == domain.AxisFree {
		el.Position.Y = to.Y
	}
	cur.Elements[i] = r.Resolve(el)
	return cur.Elements[i].Position, guides
}

// SetCentered switches an axis between free and centered. Leaving centered
// mode keeps the last derived coordinate.
func (s *Session) SetCentered(id string, axis domain.Axis, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode := domain.AxisFree
	if on {
		mode = domain.AxisCentered
	}
	_ = s.updateLocked(id, func(el domain.Element) (domain.Element, error) {
		el.Axes = el.Axes.With(axis, mode)
		return el, nil
	})
}

// SetImageHeight resizes an image to height h and derives the width from
// its aspect ratio. Text elements only get their height set.
func (s *Session) SetImageHeight(id string, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.updateLocked(id, func(el domain.Element) (domain.Element, error) {
		h = max(h, 0)
		el.Height = domain.F(h)
		if el.Image != nil {
			el.Width = domain.F(layout.ImageWidthForHeight(el, h))
		}
		return el, nil
	})
}

// SetBoxSize sets a bounding box. Images keep their aspect ratio, so only
// the height is taken for them. Nil clears the dimension for text.
func (s *Session) SetBoxSize(id string, w, h *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.updateLocked(id, func(el domain.Element) (domain.Element, error) {
		if el.Image != nil {
			if h != nil {
				hh := max(*h, 0)
				el.Height = domain.F(hh)
				el.Width = domain.F(layout.ImageWidthForHeight(el, hh))
			}
			return el, nil
		}
		el.Width, el.Height = nil, nil
		if w != nil {
			el.Width = domain.F(*w)
		}
		if h != nil {
			el.Height = domain.F(*h)
		}
		return el, nil
	})
}

// SetFontSize applies a font size request to text element id. Text with a
// bounding box is shrunk until it fits; the measuring runs outside the lock
// and the result is dropped if the element disappeared meanwhile. The stored
// size is returned.
func (s *Session) SetFontSize(ctx context.Context, id string, size float64) (float64, error) {
	if size <= 0 {
		return 0, &domain.ValidationError{ID: id, Field: "fontSize", Reason: "must be positive"}
	}
	s.mu.Lock()
	el, ok := s.findLocked(id)
	r := s.resolver()
	s.mu.Unlock()
	if !ok || el.Kind != domain.KindText {
		return 0, nil
	}
	fitted := r.FitFontSize(ctx, el, size)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, still := s.findLocked(id); !still {
		return 0, nil
	}
	err := s.updateLocked(id, func(el domain.Element) (domain.Element, error) {
		el.Text.FontSize = fitted
		return el, nil
	})
	if err != nil {
		return 0, err
	}
	if fitted != size {
		s.log.Debug("font size fitted to box", slog.String("id", id), slog.Float64("requested", size), slog.Float64("size", fitted))
	}
	return fitted, nil
}

func (s *Session) findLocked(id string) (domain.Element, bool) {
	cur := s.cur()
	if cur == nil {
		return domain.Element{}, false
	}
	el, ok := cur.Find(id)
	if !ok {
		return domain.Element{}, false
	}
	return el.Clone(), true
}

// SetBackground fills the background slot of the current slide. The
// element is always stored as kind background; a text payload is taken as
// the image URL.
func (s *Session) SetBackground(el domain.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur()
	if cur == nil {
		return ErrNoTemplate
	}
	bg := el.Clone()
	bg.Kind = domain.KindBackground
	if bg.Image == nil && bg.Text != nil {
		bg.Image = &domain.ImageAttrs{URL: bg.Text.Content}
	}
	bg.Text = nil
	if bg.ID == "" {
		bg.ID = domain.NewID()
	}
	bg.Visible = true
	if err := bg.Validate(); err != nil {
		return err
	}
	cur.Background = &bg
	s.log.Debug("background set", slog.String("id", bg.ID))
	return nil
}

// UpdateBackground merges p into the background. No background, no-op.
func (s *Session) UpdateBackground(p domain.ElementPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cur()
	if cur == nil || cur.Background == nil {
		return nil
	}
	next := p.Apply(*cur.Background)
	if err := next.Validate(); err != nil {
		return err
	}
	cur.Background = &next
	return nil
}

// ClearBackground empties the background slot.
func (s *Session) ClearBackground() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.cur(); cur != nil {
		cur.Background = nil
	}
}
