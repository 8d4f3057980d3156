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
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	applog "github.com/OSRdesign/social-media-composer/internal/log"
	"github.com/OSRdesign/social-media-composer/internal/session"
)

// Defaults of CSV-imported text elements.
const (
	CSVTextFontSize = 16.0
	CSVTextColor    = "#000000"
)

// ExtendedCSVHeader is the header row of the extended export.
var ExtendedCSVHeader = []string{"ID", "Type", "Content", "X", "Y", "Properties"}

// SlideCSV exports the elements of one slide as a header row of id:type
// pairs and one row of contents, in element order. Rows end in CRLF.
func SlideCSV(s domain.Slide) ([]byte, error) {
	if len(s.Elements) == 0 {
		return nil, nil
	}
	header := make([]string, len(s.Elements))
	row := make([]string, len(s.Elements))
	for i, el := range s.Elements {
		header[i] = el.ID + ":" + string(el.Kind)
		row[i] = el.Content()
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.WriteAll([][]string{header, row}); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\r\n")), nil
}

type csvProps struct {
	FontSize       *float64 `json:"fontSize,omitempty"`
	Color          string   `json:"color,omitempty"`
	FontFamily     string   `json:"fontFamily,omitempty"`
	FontWeight     string   `json:"fontWeight,omitempty"`
	TextDecoration string   `json:"textDecoration,omitempty"`
	FontStyle      string   `json:"fontStyle,omitempty"`
	TextAlign      string   `json:"textAlign,omitempty"`
	Width          *float64 `json:"width,omitempty"`
	Height         *float64 `json:"height,omitempty"`
	SlideIndex     int      `json:"slideIndex"`
}

// ExtendedCSV exports every element of every slide, one per row, with the
// style attributes and the slide index as a JSON blob. Text cells are
// always quoted with inner quotes doubled; numbers are bare. Rows are
// separated by LF. Backgrounds are not elements and are not exported.
func ExtendedCSV(doc domain.Document) ([]byte, error) {
	var b strings.Builder
	b.WriteString(strings.Join(ExtendedCSVHeader, ","))
	for si, s := range doc.Slides {
		for _, el := range s.Elements {
			p := csvProps{Width: el.Width, Height: el.Height, SlideIndex: si}
			if t := el.Text; t != nil {
				p.FontSize = domain.Ptr(t.FontSize)
				p.Color = t.Color
				p.FontFamily = t.FontFamily
				p.FontWeight = t.FontWeight
				p.TextDecoration = t.TextDecoration
				p.FontStyle = t.FontStyle
				p.TextAlign = string(t.TextAlign)
			}
			var js bytes.Buffer
			enc := json.NewEncoder(&js)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(p); err != nil {
				return nil, fmt.Errorf("encode properties of %s: %w", el.ID, err)
			}
			cells := []string{
				quoteCell(domain.ShortID(el.ID)),
				quoteCell(string(el.Kind)),
				quoteCell(el.Content()),
				strconv.FormatFloat(el.Position.X, 'f', -1, 64),
				strconv.FormatFloat(el.Position.Y, 'f', -1, 64),
				quoteCell(strings.TrimSuffix(js.String(), "\n")),
			}
			b.WriteByte('\n')
			b.WriteString(strings.Join(cells, ","))
		}
	}
	return []byte(b.String()), nil
}

func quoteCell(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

type csvColumn struct {
	id   string
	kind domain.Kind
}

// ImportCSV reads a header row of id:type columns followed by data rows.
// Row 0 fills the first slide, every later row is added as a new slide.
// Empty cells are skipped. Text gets font size 16 and color #000000; images
// are probed with p for their natural size (left unsized when p is nil).
// Everything is parsed and probed before the session changes, so a
// malformed file (*domain.ParseError) or an unreachable image leaves it
// untouched. It returns the number of elements added.
func ImportCSV(ctx context.Context, s *session.Session, p session.ImageProber, data []byte) (int, error) {
	log := applog.WithComponent("export")
	fail := func(err error) (int, error) { return 0, &domain.ParseError{Format: "csv", Err: err} }
	if !s.HasTemplate() {
		return 0, session.ErrNoTemplate
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return fail(err)
	}
	if len(records) == 0 {
		return fail(errors.New("missing header row"))
	}
	cols := make([]csvColumn, len(records[0]))
	for i, h := range records[0] {
		id, kind, ok := strings.Cut(strings.TrimSpace(h), ":")
		if !ok {
			return fail(fmt.Errorf("column %d: header %q is not id:type", i+1, h))
		}
		switch k := domain.Kind(strings.ToLower(kind)); k {
		case domain.KindText, domain.KindImage:
			cols[i] = csvColumn{id: id, kind: k}
		default:
			return fail(fmt.Errorf("column %d: unsupported type %q", i+1, kind))
		}
	}

	rows := make([][]domain.Element, 0, len(records)-1)
	for ri, rec := range records[1:] {
		var els []domain.Element
		for ci, col := range cols {
			if ci >= len(rec) || rec[ci] == "" {
				continue
			}
			var el domain.Element
			if col.kind == domain.KindText {
				el = domain.NewText(col.id, rec[ci])
				el.Text.FontSize = CSVTextFontSize
				el.Text.Color = CSVTextColor
				el.Position = session.NewLayerPosition
			} else {
				el, err = csvImage(ctx, s, p, col.id, rec[ci])
				if err != nil {
					return 0, err
				}
			}
			if el.ID != "" {
				if err := el.Validate(); err != nil {
					return fail(fmt.Errorf("row %d: %w", ri+2, err))
				}
			}
			els = append(els, el)
		}
		rows = append(rows, els)
	}

	first := s.Snapshot().Slides[0]
	added := 0
	for ri, els := range rows {
		idx := 0
		used := map[string]bool{}
		if ri == 0 {
			for _, el := range first.Elements {
				used[el.ID] = true
			}
		} else {
			idx = s.AddSlide()
		}
		for _, el := range els {
			if used[el.ID] {
				el.ID = ""
			}
			got, err := s.AddElementToSlide(idx, el)
			if err != nil {
				log.Warn("csv element rejected", slog.Int("row", ri+2), slog.String("id", el.ID), slog.Any("err", err))
				continue
			}
			used[got.ID] = true
			added++
		}
	}
	log.Debug("csv imported", slog.Int("rows", len(rows)), slog.Int("elements", added))
	return added, nil
}

func csvImage(ctx context.Context, s *session.Session, p session.ImageProber, id, url string) (domain.Element, error) {
	if p != nil {
		return s.LoadImage(ctx, p, id, url)
	}
	return domain.Element{
		ID:       id,
		Kind:     domain.KindImage,
		Position: session.NewLayerPosition,
		Visible:  true,
		Image:    &domain.ImageAttrs{URL: strings.TrimSpace(url)},
	}, nil
}
