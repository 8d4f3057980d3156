/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/OSRdesign/social-media-composer/internal/domain"
)

// ImageProber resolves an image URL to its natural pixel size.
type ImageProber interface {
	Probe(ctx context.Context, url string) (width, height int, err error)
}

func (s *Session) probe(ctx context.Context, p ImageProber, url string) (float64, float64, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return 0, 0, &domain.ResourceLoadError{URL: url, Err: errors.New("empty URL")}
	}
	w, h, err := p.Probe(ctx, url)
	if err == nil && (w <= 0 || h <= 0) {
		err = errors.New("image has no size")
	}
	if err != nil {
		var rle *domain.ResourceLoadError
		if !errors.As(err, &rle) {
			err = &domain.ResourceLoadError{URL: url, Err: err}
		}
		s.log.Warn("image load failed", slog.String("url", url), slog.Any("err", err))
		return 0, 0, err
	}
	return float64(w), float64(h), nil
}

// AddImageFromURL loads url and adds it as an image layer at
// NewLayerPosition, sized to at most the configured initial side. Loading
// happens without holding the session; the element is added to whichever
// slide is current when loading completes. On failure nothing changes and
// a *domain.ResourceLoadError is returned.
func (s *Session) AddImageFromURL(ctx context.Context, p ImageProber, url string) (domain.Element, error) {
	el, err := s.LoadImage(ctx, p, domain.NewID(), url)
	if err != nil {
		return domain.Element{}, err
	}
	return s.AddElement(el)
}

// LoadImage builds the element AddImageFromURL would add, without adding
// it. The session is not touched.
func (s *Session) LoadImage(ctx context.Context, p ImageProber, id, url string) (domain.Element, error) {
	w, h, err := s.probe(ctx, p, url)
	if err != nil {
		return domain.Element{}, err
	}
	el := domain.NewImage(id, strings.TrimSpace(url), w, h, s.opts.MaxImageSide)
	el.Position = NewLayerPosition
	return el, nil
}

// SetBackgroundFromURL loads url and places it in the background slot of
// the slide that is current when loading completes.
func (s *Session) SetBackgroundFromURL(ctx context.Context, p ImageProber, url string) error {
	w, h, err := s.probe(ctx, p, url)
	if err != nil {
		return err
	}
	bg := domain.NewBackground(domain.NewID(), strings.TrimSpace(url), w, h)
	bg.Width, bg.Height = nil, nil
	return s.SetBackground(bg)
}
