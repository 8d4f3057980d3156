/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"

	"github.com/OSRdesign/social-media-composer/internal/domain"
)

// TextStyle is a named preset for new text layers.
// Sizes are canvas pixels.
type TextStyle struct {
	Name       string
	Family     string
	SizePx     float64
	Weight     string
	Italic     bool
	Align      domain.TextAlign
	Decoration string
}

var builtinStyles = []TextStyle{
	{Name: "Headline", Family: "Montserrat", SizePx: 64, Weight: "bold", Align: domain.AlignCenter},
	{Name: "Subhead", Family: "Montserrat", SizePx: 40, Weight: "600", Align: domain.AlignCenter},
	{Name: "Body", Family: "Open Sans", SizePx: 24, Weight: "normal", Align: domain.AlignLeft},
	{Name: "Caption", Family: "Open Sans", SizePx: 16, Weight: "normal", Italic: true, Align: domain.AlignLeft},
}

// GetStyle returns a builtin style by name, case-insensitive.
func GetStyle(name string) (TextStyle, bool) {
	for _, s := range builtinStyles {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return TextStyle{}, false
}

// ListStyles lists the builtin style names in display order.
func ListStyles() []string {
	out := make([]string, len(builtinStyles))
	for i, s := range builtinStyles {
		out[i] = s.Name
	}
	return out
}

// Patch returns the element update that applies the style.
func (s TextStyle) Patch() domain.ElementPatch {
	fs := "normal"
	if s.Italic {
		fs = "italic"
	}
	p := domain.ElementPatch{
		FontSize:   domain.Ptr(s.SizePx),
		FontFamily: domain.Ptr(s.Family),
		FontWeight: domain.Ptr(s.Weight),
		FontStyle:  domain.Ptr(fs),
		TextAlign:  domain.Ptr(s.Align),
	}
	if s.Decoration != "" {
		p.TextDecoration = domain.Ptr(s.Decoration)
	}
	return p
}
