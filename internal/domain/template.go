/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the composer's data model: canvas templates,
// slides and the element union (text, image, background), together with
// validation, partial updates and the JSON wire shape used by template files.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Template fixes the canvas bounds of a composition.
type Template struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Format string `json:"format"` // post, story, ...
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Valid reports whether the canvas has a usable size.
func (t Template) Valid() bool { return t.Width > 0 && t.Height > 0 }

// Preset is a built-in template with a short description.
type Preset struct {
	Template
	Description string
}

var presets = []Preset{
	{Template: Template{ID: "instagram-post", Name: "Instagram Post", Format: "post", Width: 1080, Height: 1080}, Description: "Square format (1080×1080px)"},
	{Template: Template{ID: "instagram-story", Name: "Instagram Story", Format: "story", Width: 1080, Height: 1920}, Description: "Vertical format (1080×1920px)"},
	{Template: Template{ID: "facebook-post", Name: "Facebook Post", Format: "post", Width: 1200, Height: 630}, Description: "Landscape format (1200×630px)"},
}

// Presets lists the built-in templates in display order.
func Presets() []Preset { return append([]Preset(nil), presets...) }

// PresetByID looks up a built-in template.
func PresetByID(id string) (Template, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range presets {
		if p.ID == id {
			return p.Template, true
		}
	}
	return Template{}, false
}

// ShortIDLen is the id length kept by template files.
const ShortIDLen = 8

// NewID returns a fresh short id for elements and templates.
func NewID() string { return ShortID(uuid.NewString()) }

// NewSlideID returns a fresh full-length slide id.
func NewSlideID() string { return uuid.NewString() }

// ShortID truncates id to its first ShortIDLen runes, so multi-byte
// characters are never split.
func ShortID(id string) string {
	n := 0
	for i := range id {
		if n == ShortIDLen {
			return id[:i]
		}
		n++
	}
	return id
}
