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
	"fmt"
	"image/png"
	"io"
	"log/slog"

	"github.com/jung-kurt/gofpdf"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/storage"
	"github.com/OSRdesign/social-media-composer/internal/version"
)

// PxToPt converts CSS pixels to PDF points.
const PxToPt = 0.75

// CarouselPDF writes doc as a PDF with one page per slide. Pages have the
// template's aspect ratio, one CSS pixel being 0.75pt.
func CarouselPDF(ctx context.Context, r *Rasterizer, doc domain.Document, path string) error {
	imgs, err := r.RenderAll(ctx, doc)
	if err != nil {
		return err
	}
	w, h := float64(doc.Width)*PxToPt, float64(doc.Height)*PxToPt
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetTitle(doc.Name, true)
	pdf.SetCreator(version.String(), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	for i, img := range imgs {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode slide %d: %w", i+1, err)
		}
		name := fmt.Sprintf("slide-%d", i+1)
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: w, Ht: h})
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := storage.WriteAtomic(path, func(w io.Writer) error { return pdf.Output(w) }); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	r.logger().Info("pdf exported", slog.String("path", path), slog.Int("pages", len(imgs)))
	return nil
}
