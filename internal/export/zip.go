/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"log/slog"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/storage"
)

// TemplateEntryName is the template file stored next to the slide images.
const TemplateEntryName = "template.json"

// CarouselZIP writes one PNG per slide (slide-01.png, ...) plus the
// template file into a ZIP archive.
func CarouselZIP(ctx context.Context, r *Rasterizer, doc domain.Document, path string) error {
	imgs, err := r.RenderAll(ctx, doc)
	if err != nil {
		return err
	}
	tpl, err := storage.EncodeTemplate(doc)
	if err != nil {
		return err
	}
	err = storage.WriteAtomic(path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for i, img := range imgs {
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				return fmt.Errorf("encode slide %d: %w", i+1, err)
			}
			if err := addZipFile(zw, SlideFileName(i, len(imgs), "png"), buf.Bytes(), zip.Store); err != nil {
				return err
			}
		}
		if err := addZipFile(zw, TemplateEntryName, tpl, zip.Deflate); err != nil {
			return err
		}
		return zw.Close()
	})
	if err != nil {
		return fmt.Errorf("write zip: %w", err)
	}
	r.logger().Info("zip exported", slog.String("path", path), slog.Int("slides", len(imgs)))
	return nil
}

// SlideFileName names slide i of n with zero padding so that names sort in
// slide order; at least two digits are used.
func SlideFileName(i, n int, ext string) string {
	digits := max(len(fmt.Sprint(n)), 2)
	return fmt.Sprintf("slide-%0*d.%s", digits, i+1, ext)
}

func addZipFile(zw *zip.Writer, name string, data []byte, method uint16) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
