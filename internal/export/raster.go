/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders carousels to PNG, ZIP, PDF and SVG files and
// converts slides to and from CSV. Files are written atomically so that a
// failed export never leaves a partial file behind.
package export

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/layout"
	applog "github.com/OSRdesign/social-media-composer/internal/log"
	"github.com/OSRdesign/social-media-composer/internal/render"
	"github.com/OSRdesign/social-media-composer/internal/session"
	"github.com/OSRdesign/social-media-composer/internal/storage"
	"github.com/OSRdesign/social-media-composer/internal/textlayout"
)

// ImageCornerRadius rounds the corners of image layers.
const ImageCornerRadius = 8

// superscriptRaise lifts superscript runs, relative to the font size.
const superscriptRaise = 0.33

var errNoImageSource = errors.New("no image source configured")

// ImageSource resolves image URLs. *assets.ImageLoader implements it.
type ImageSource interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// Rasterizer draws slides at the template's native pixel size.
type Rasterizer struct {
	Images ImageSource
	Fonts  *textlayout.FontLibrary
	// Measurer resolves centered layers before drawing. It should be the
	// session's measurer so stored and rendered positions agree; nil uses
	// a FaceMeasurer over Fonts.
	Measurer layout.TextMeasurer
	// SkipBrokenImages drops layers whose image cannot be loaded instead of
	// failing the export.
	SkipBrokenImages bool
	// Workers bounds concurrent image loads; 4 when <= 0.
	Workers int

	log *slog.Logger
}

// NewRasterizer returns a rasterizer over images and fonts (the Go fonts
// when nil).
func NewRasterizer(images ImageSource, fonts *textlayout.FontLibrary) *Rasterizer {
	if fonts == nil {
		fonts = textlayout.NewFontLibrary()
	}
	return &Rasterizer{Images: images, Fonts: fonts, log: applog.WithComponent("export")}
}

func (r *Rasterizer) logger() *slog.Logger {
	if r.log == nil {
		r.log = applog.WithComponent("export")
	}
	return r.log
}

func (r *Rasterizer) layoutMeasurer(fallback layout.TextMeasurer) layout.TextMeasurer {
	if r.Measurer != nil {
		return r.Measurer
	}
	return fallback
}

// Render draws one slide.
func (r *Rasterizer) Render(ctx context.Context, tpl domain.Template, s domain.Slide) (*image.RGBA, error) {
	out, err := r.RenderAll(ctx, domain.Document{Template: tpl, Slides: []domain.Slide{s}})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// RenderAll draws every slide of doc. All images are fetched up front,
// concurrently; drawing itself is sequential.
func (r *Rasterizer) RenderAll(ctx context.Context, doc domain.Document) ([]*image.RGBA, error) {
	if !doc.Valid() {
		return nil, &domain.ValidationError{Field: "template", Reason: "has no canvas size"}
	}
	m := textlayout.NewFaceMeasurer(r.Fonts)
	res := layout.Resolver{Template: doc.Template, Measurer: r.layoutMeasurer(m)}
	frames := make([]render.PaintList, len(doc.Slides))
	for i, s := range doc.Slides {
		frames[i] = render.Frame(res, s)
	}
	imgs, err := r.prefetch(ctx, frames)
	if err != nil {
		return nil, err
	}
	out := make([]*image.RGBA, len(frames))
	for i, pl := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = r.paint(pl, imgs, m)
	}
	r.logger().Debug("slides rendered", slog.Int("slides", len(out)), slog.Int("images", len(imgs)), slog.Int("width", doc.Width), slog.Int("height", doc.Height))
	return out, nil
}

func (r *Rasterizer) prefetch(ctx context.Context, frames []render.PaintList) (map[string]image.Image, error) {
	seen := map[string]bool{}
	var urls []string
	for _, pl := range frames {
		for _, it := range pl.Items {
			if im := it.Element.Image; im != nil && !seen[im.URL] {
				seen[im.URL] = true
				urls = append(urls, im.URL)
			}
		}
	}
	out := make(map[string]image.Image, len(urls))
	if len(urls) == 0 {
		return out, nil
	}
	if r.Images == nil {
		if r.SkipBrokenImages {
			return out, nil
		}
		return nil, &domain.ResourceLoadError{URL: urls[0], Err: errNoImageSource}
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 4
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, u := range urls {
		g.Go(func() error {
			img, err := r.Images.Load(gctx, u)
			if err != nil {
				if r.SkipBrokenImages {
					r.logger().Warn("skipping image", slog.String("url", u), slog.Any("err", err))
					return nil
				}
				return err
			}
			mu.Lock()
			out[u] = img
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Rasterizer) paint(pl render.PaintList, imgs map[string]image.Image, m *textlayout.FaceMeasurer) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, pl.Width, pl.Height))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	for _, it := range pl.Items {
		el := it.Element
		switch {
		case it.Background && el.Image != nil:
			if img := imgs[el.Image.URL]; img != nil {
				drawCover(dst, img)
			}
		case el.Image != nil:
			if img := imgs[el.Image.URL]; img != nil {
				drawImage(dst, el, img)
			}
		case el.Text != nil:
			if err := drawText(dst, el, m); err != nil {
				r.logger().Debug("text skipped", slog.String("id", el.ID), slog.Any("err", err))
			}
		}
	}
	return dst
}

// drawCover scales img to cover the whole canvas, centered and cropped.
func drawCover(dst *image.RGBA, img image.Image) {
	b, sb := dst.Bounds(), img.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}
	s := math.Max(float64(b.Dx())/float64(sb.Dx()), float64(b.Dy())/float64(sb.Dy()))
	w, h := float64(sb.Dx())*s, float64(sb.Dy())*s
	x, y := (float64(b.Dx())-w)/2, (float64(b.Dy())-h)/2
	dr := image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
	xdraw.CatmullRom.Scale(dst, dr, img, sb, xdraw.Over, nil)
}

// drawImage stretches img into the element box with rounded corners.
func drawImage(dst *image.RGBA, el domain.Element, img image.Image) {
	w, h := el.Size()
	if w <= 0 || h <= 0 {
		return
	}
	dr := image.Rect(
		int(math.Round(el.Position.X)), int(math.Round(el.Position.Y)),
		int(math.Round(el.Position.X+w)), int(math.Round(el.Position.Y+h)),
	)
	if dr.Empty() {
		return
	}
	xdraw.CatmullRom.Scale(dst, dr, img, img.Bounds(), xdraw.Over, &xdraw.Options{DstMask: roundedMask{r: dr, radius: ImageCornerRadius}})
}

// roundedMask is opaque inside r except for the rounded corners.
type roundedMask struct {
	r      image.Rectangle
	radius float64
}

func (m roundedMask) ColorModel() color.Model { return color.AlphaModel }

func (m roundedMask) Bounds() image.Rectangle { return m.r }

func (m roundedMask) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.r)) {
		return color.Alpha{}
	}
	rad := min(m.radius, float64(m.r.Dx())/2, float64(m.r.Dy())/2)
	px, py := float64(x)+0.5, float64(y)+0.5
	cx := clamp(px, float64(m.r.Min.X)+rad, float64(m.r.Max.X)-rad)
	cy := clamp(py, float64(m.r.Min.Y)+rad, float64(m.r.Max.Y)-rad)
	d := math.Hypot(px-cx, py-cy)
	switch {
	case d <= rad-0.5:
		return color.Alpha{A: 255}
	case d >= rad+0.5:
		return color.Alpha{}
	}
	return color.Alpha{A: uint8((rad + 0.5 - d) * 255)}
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(v, hi)) }

// drawText lays out the element like the editor does: pre-wrap lines
// wrapped at the box width, horizontal and vertical alignment inside the
// box, superscript runs for ® and ™.
func drawText(dst *image.RGBA, el domain.Element, m *textlayout.FaceMeasurer) error {
	st := layout.StyleOf(el.Text)
	bw, bh := el.Size()
	box := m.Layout(el.Text.Content, st, bw)
	if bw <= 0 {
		bw = box.Width
	}
	if bh <= 0 {
		bh = box.Height
	}
	face, err := m.Provider().Face(st)
	if err != nil {
		return err
	}
	sup := st
	sup.SizePx = st.SizePx * render.SuperscriptScale
	supFace, err := m.Provider().Face(sup)
	if err != nil {
		return err
	}
	met := face.Metrics()
	asc, desc := fx(met.Ascent), fx(met.Descent)

	dy := 0.0
	switch el.Text.VerticalAlign {
	case domain.AlignMiddle:
		dy = (bh - box.Height) / 2
	case domain.AlignBottom:
		dy = bh - box.Height
	}
	col := image.NewUniform(colorOr(el.Text.Color, color.NRGBA{A: 255}))
	deco := strings.ToLower(el.Text.TextDecoration)
	thick := math.Max(1, st.SizePx/16)

	d := font.Drawer{Dst: dst, Src: col}
	for i, ln := range box.Lines {
		dx := 0.0
		switch el.Text.TextAlign {
		case domain.AlignCenter:
			dx = (bw - ln.Width) / 2
		case domain.AlignRight:
			dx = bw - ln.Width
		}
		x := el.Position.X + dx
		top := el.Position.Y + dy + float64(i)*box.LineHeight
		baseline := top + (box.LineHeight-(asc+desc))/2 + asc
		d.Dot = fixed.Point26_6{X: toFixed(x), Y: toFixed(baseline)}
		for _, run := range render.Runs(ln.Text) {
			d.Face = face
			d.Dot.Y = toFixed(baseline)
			if run.Superscript {
				d.Face = supFace
				d.Dot.Y = toFixed(baseline - st.SizePx*superscriptRaise)
			}
			d.DrawString(run.Text)
		}
		if ln.Width <= 0 {
			continue
		}
		if strings.Contains(deco, "underline") {
			fillRect(dst, x, baseline+thick, ln.Width, thick, col)
		}
		if strings.Contains(deco, "line-through") {
			fillRect(dst, x, baseline-asc*0.3, ln.Width, thick, col)
		}
	}
	return nil
}

func fillRect(dst *image.RGBA, x, y, w, h float64, src image.Image) {
	r := image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
	xdraw.Draw(dst, r, src, image.Point{}, xdraw.Over)
}

func fx(v fixed.Int26_6) float64 { return float64(v) / 64 }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }

// SlidePNG writes the session's current slide as a PNG at the template's
// native size. The viewport zoom is neutral for the duration and restored
// afterwards.
func SlidePNG(ctx context.Context, s *session.Session, r *Rasterizer, path string) error {
	return s.WithNeutralZoom(func() error {
		slide, ok := s.CurrentSlide()
		if !ok {
			return session.ErrNoTemplate
		}
		img, err := r.Render(ctx, s.Template(), slide)
		if err != nil {
			return err
		}
		return WritePNG(path, img)
	})
}

// WritePNG encodes img to path atomically.
func WritePNG(path string, img image.Image) error {
	return storage.WriteAtomic(path, func(w io.Writer) error { return png.Encode(w, img) })
}

// WriteFile writes data to path atomically.
func WriteFile(path string, data []byte) error {
	return storage.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
