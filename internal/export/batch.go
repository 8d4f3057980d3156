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
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/storage"
	"github.com/OSRdesign/social-media-composer/internal/textlayout"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// Formats understood by Batch.
var Formats = []string{"png", "svg", "pdf", "zip", "json", "csv"}

// BatchOptions controls a batch export of one document.
//
// Per-slide formats (png, svg) write slide-NN.<ext> into <OutDir>/<format>/;
// the others write carousel.pdf, carousel.zip, template.json and
// template-data.csv (the extended CSV) into OutDir.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // empty means preset defaults
	Slides  []int    // zero-based; empty means all slides (png and svg only)
	OutDir  string
}

// Batch runs the exports of opt and returns the files written.
func Batch(ctx context.Context, r *Rasterizer, doc domain.Document, opt BatchOptions) ([]string, error) {
	if strings.TrimSpace(opt.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !slices.Contains(Formats, f) {
			return written, fmt.Errorf("unknown format: %s", f)
		}
		switch f {
		case "png", "svg":
			files, err := batchSlides(ctx, r, doc, f, opt)
			written = append(written, files...)
			if err != nil {
				return written, fmt.Errorf("%s: %w", f, err)
			}
		case "pdf":
			out := filepath.Join(opt.OutDir, "carousel.pdf")
			if err := CarouselPDF(ctx, r, doc, out); err != nil {
				return written, fmt.Errorf("pdf: %w", err)
			}
			written = append(written, out)
		case "zip":
			out := filepath.Join(opt.OutDir, "carousel.zip")
			if err := CarouselZIP(ctx, r, doc, out); err != nil {
				return written, fmt.Errorf("zip: %w", err)
			}
			written = append(written, out)
		case "json":
			out := filepath.Join(opt.OutDir, "template.json")
			if err := storage.SaveTemplate(out, doc); err != nil {
				return written, fmt.Errorf("json: %w", err)
			}
			written = append(written, out)
		case "csv":
			data, err := ExtendedCSV(doc)
			if err == nil {
				out := filepath.Join(opt.OutDir, "template-data.csv")
				if err = WriteFile(out, data); err == nil {
					written = append(written, out)
				}
			}
			if err != nil {
				return written, fmt.Errorf("csv: %w", err)
			}
		}
	}
	r.logger().Info("batch export done", slog.String("dir", opt.OutDir), slog.Int("files", len(written)))
	return written, nil
}

func batchSlides(ctx context.Context, r *Rasterizer, doc domain.Document, format string, opt BatchOptions) ([]string, error) {
	idx := slideIndexes(len(doc.Slides), opt.Slides)
	sub := domain.Document{Template: doc.Template}
	for _, i := range idx {
		sub.Slides = append(sub.Slides, doc.Slides[i])
	}
	dir := filepath.Join(opt.OutDir, format)
	var written []string
	if format == "svg" {
		m := textlayout.NewFaceMeasurer(r.Fonts)
		for k, s := range sub.Slides {
			data, err := SlideSVG(m, doc.Template, s)
			if err != nil {
				return written, err
			}
			out := filepath.Join(dir, SlideFileName(idx[k], len(doc.Slides), "svg"))
			if err := WriteFile(out, data); err != nil {
				return written, err
			}
			written = append(written, out)
		}
		return written, nil
	}
	imgs, err := r.RenderAll(ctx, sub)
	if err != nil {
		return nil, err
	}
	for k, img := range imgs {
		out := filepath.Join(dir, SlideFileName(idx[k], len(doc.Slides), "png"))
		if err := WritePNG(out, img); err != nil {
			return written, err
		}
		written = append(written, out)
	}
	return written, nil
}

// slideIndexes filters want to valid indexes, or returns all of 0..n-1.
func slideIndexes(n int, want []int) []int {
	var out []int
	if len(want) == 0 {
		for i := range n {
			out = append(out, i)
		}
		return out
	}
	for _, i := range want {
		if i >= 0 && i < n {
			out = append(out, i)
		}
	}
	return out
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "zip", "json"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}
