/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"log/slog"

	applog "github.com/OSRdesign/social-media-composer/internal/log"
	"github.com/OSRdesign/social-media-composer/internal/session"
	"github.com/OSRdesign/social-media-composer/internal/storage"
)

// TemplateJSON exports the whole session as a template file.
func TemplateJSON(s *session.Session) ([]byte, error) {
	return storage.EncodeTemplate(s.Snapshot())
}

// LoadTemplate replaces the session with the template file in data: new
// slides, first slide current, nothing selected. A malformed file yields a
// *domain.ParseError and leaves the session unchanged.
func LoadTemplate(s *session.Session, data []byte) error {
	doc, err := storage.DecodeTemplate(data)
	if err != nil {
		applog.WithComponent("export").Warn("template rejected", slog.Any("err", err))
		return err
	}
	s.Replace(doc)
	return nil
}
