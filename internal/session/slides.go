/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"log/slog"
	"slices"

	"github.com/OSRdesign/social-media-composer/internal/domain"
)

// AddSlide appends an empty slide and returns its index. The cursor does
// not move. Without a template it returns -1.
func (s *Session) AddSlide() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slides) == 0 {
		return -1
	}
	s.slides = append(s.slides, domain.NewSlide())
	return len(s.slides) - 1
}

// RemoveSlide deletes slide i. The last remaining slide cannot be removed.
// When i is at or before the cursor the cursor moves back by one, never
// below 0. Removing the current slide clears the selection.
func (s *Session) RemoveSlide(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slides) || len(s.slides) <= 1 {
		return false
	}
	s.slides = slices.Delete(s.slides, i, i+1)
	if i == s.current {
		s.selected = ""
	}
	if i <= s.current && s.current > 0 {
		s.current--
	}
	s.log.Debug("slide removed", slog.Int("index", i), slog.Int("current", s.current), slog.Int("slides", len(s.slides)))
	return true
}

// DuplicateSlide inserts a deep copy of slide i right after it. The copy
// gets a new slide id but keeps the element ids. The cursor keeps pointing
// at the same slide.
func (s *Session) DuplicateSlide(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slides) {
		return false
	}
	dup := s.slides[i].Clone()
	dup.ID = domain.NewSlideID()
	s.slides = slices.Insert(s.slides, i+1, dup)
	if i < s.current {
		s.current++
	}
	s.log.Debug("slide duplicated", slog.Int("index", i), slog.Int("slides", len(s.slides)))
	return true
}

// SetCurrentSlide moves the cursor to i and clears the selection. Out of
// range indexes are ignored.
func (s *Session) SetCurrentSlide(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slides) {
		return false
	}
	s.current = i
	s.selected = ""
	return true
}
