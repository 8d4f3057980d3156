/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Slide is one page of a carousel. Elements keep insertion order; paint
// order is decided by z-index at render time. The background is a singleton
// slot outside the element list.
type Slide struct {
	ID         string    `json:"id"`
	Elements   []Element `json:"elements"`
	Background *Element  `json:"background,omitempty"`
}

// NewSlide returns an empty slide with a fresh id.
func NewSlide() Slide { return Slide{ID: NewSlideID(), Elements: []Element{}} }

// Clone deep-copies the slide, keeping all ids.
func (s Slide) Clone() Slide {
	c := Slide{ID: s.ID, Elements: make([]Element, len(s.Elements))}
	for i, el := range s.Elements {
		c.Elements[i] = el.Clone()
	}
	if s.Background != nil {
		bg := s.Background.Clone()
		c.Background = &bg
	}
	return c
}

// Index returns the position of element id, or -1.
func (s Slide) Index(id string) int {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the element with id.
func (s Slide) Find(id string) (Element, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Elements[i], true
	}
	return Element{}, false
}

// Document is the template file shape: the canvas template plus its slides.
type Document struct {
	Template
	Slides []Slide `json:"slides"`
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	c := Document{Template: d.Template, Slides: make([]Slide, len(d.Slides))}
	for i, s := range d.Slides {
		c.Slides[i] = s.Clone()
	}
	return c
}
