/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/OSRdesign/social-media-composer/internal/domain"
)

//go:embed template.schema.json
var templateSchema []byte

// TemplateSchema returns the JSON schema of template files.
func TemplateSchema() []byte { return append([]byte(nil), templateSchema...) }

// EncodeTemplate renders doc as an indented template file. Template and
// element ids are truncated to domain.ShortIDLen; a document without id gets
// a fresh one. An element whose truncated id is already taken on its slide,
// background included, gets a fresh id so the file always decodes again.
func EncodeTemplate(doc domain.Document) ([]byte, error) {
	c := doc.Clone()
	c.ID = domain.ShortID(c.ID)
	if c.ID == "" {
		c.ID = domain.NewID()
	}
	for i := range c.Slides {
		s := &c.Slides[i]
		used := make(map[string]bool, len(s.Elements)+1)
		for j := range s.Elements {
			s.Elements[j].ID = shortUniqueID(s.Elements[j].ID, used)
		}
		if s.Background != nil {
			s.Background.ID = shortUniqueID(s.Background.ID, used)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	return append(data, '\n'), nil
}

func shortUniqueID(id string, used map[string]bool) string {
	short := domain.ShortID(id)
	for short == "" || used[short] {
		short = domain.NewID()
	}
	used[short] = true
	return short
}

// DecodeTemplate parses and validates a template file. Every failure is a
// *domain.ParseError with format "json".
func DecodeTemplate(data []byte) (domain.Document, error) {
	fail := func(err error) (domain.Document, error) {
		return domain.Document{}, &domain.ParseError{Format: "json", Err: err}
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(templateSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fail(err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fail(errors.New(strings.Join(msgs, "; ")))
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fail(err)
	}
	for i := range doc.Slides {
		s := &doc.Slides[i]
		if s.ID == "" {
			s.ID = domain.NewSlideID()
		}
		if s.Elements == nil {
			s.Elements = []domain.Element{}
		}
		seen := map[string]bool{}
		for _, el := range s.Elements {
			if err := el.Validate(); err != nil {
				return fail(fmt.Errorf("slide %d: %w", i+1, err))
			}
			if el.Kind == domain.KindBackground {
				return fail(fmt.Errorf("slide %d: element %s: background outside the background slot", i+1, el.ID))
			}
			if seen[el.ID] {
				return fail(fmt.Errorf("slide %d: duplicate element id %s", i+1, el.ID))
			}
			seen[el.ID] = true
		}
		if bg := s.Background; bg != nil {
			if bg.Kind == domain.KindText {
				return fail(fmt.Errorf("slide %d: text background", i+1))
			}
			bg.Kind = domain.KindBackground
			if err := bg.Validate(); err != nil {
				return fail(fmt.Errorf("slide %d background: %w", i+1, err))
			}
		}
	}
	return doc, nil
}
