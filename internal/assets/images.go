/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets resolves external resources of a composition: images
// referenced by URL and the list of available font families.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/OSRdesign/social-media-composer/internal/config"
	"github.com/OSRdesign/social-media-composer/internal/domain"
	applog "github.com/OSRdesign/social-media-composer/internal/log"
)

// ImageLoader fetches and decodes images from http(s), file and data URLs
// or plain file paths. Decoded images are cached by URL.
type ImageLoader struct {
	Client    *http.Client
	MaxBytes  int64
	UserAgent string
	Token     string // sent as bearer token to http(s) hosts

	log   *slog.Logger
	mu    sync.Mutex
	cache map[string]image.Image
}

// NewImageLoader builds a loader from the assets configuration.
func NewImageLoader(cfg config.AssetsConfig, token string) *ImageLoader {
	return &ImageLoader{
		Client:    &http.Client{Timeout: cfg.ImageTimeout()},
		MaxBytes:  cfg.MaxImageBytes,
		UserAgent: cfg.UserAgent,
		Token:     token,
		log:       applog.WithComponent("assets"),
		cache:     map[string]image.Image{},
	}
}

func (l *ImageLoader) fail(u string, err error) error {
	if l.log != nil {
		l.log.Debug("image load failed", slog.String("url", u), slog.Any("err", err))
	}
	return &domain.ResourceLoadError{URL: u, Err: err}
}

// Fetch returns the raw bytes behind u.
func (l *ImageLoader) Fetch(ctx context.Context, u string) ([]byte, error) {
	u = strings.TrimSpace(u)
	if u == "" {
		return nil, l.fail(u, errors.New("empty URL"))
	}
	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case strings.HasPrefix(u, "data:"):
		var b []byte
		b, err = decodeDataURL(u)
		if err == nil {
			rc = io.NopCloser(bytes.NewReader(b))
		}
	case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
		rc, err = l.get(ctx, u)
	default:
		p := u
		if strings.HasPrefix(u, "file://") {
			pu, perr := url.Parse(u)
			if perr != nil {
				return nil, l.fail(u, perr)
			}
			p = pu.Path
		}
		rc, err = os.Open(p)
	}
	if err != nil {
		return nil, l.fail(u, err)
	}
	defer rc.Close()
	limit := l.MaxBytes
	if limit <= 0 {
		limit = 25 << 20
	}
	b, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, l.fail(u, err)
	}
	if int64(len(b)) > limit {
		return nil, l.fail(u, fmt.Errorf("image larger than %d bytes", limit))
	}
	return b, nil
}

func (l *ImageLoader) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}
	if l.Token != "" {
		req.Header.Set("Authorization", "Bearer "+l.Token)
	}
	req.Header.Set("Accept", "image/*")
	cli := l.Client
	if cli == nil {
		cli = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func decodeDataURL(u string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}

// Load fetches and decodes u, using the cache.
func (l *ImageLoader) Load(ctx context.Context, u string) (image.Image, error) {
	u = strings.TrimSpace(u)
	l.mu.Lock()
	if img, ok := l.cache[u]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()
	b, err := l.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, l.fail(u, err)
	}
	l.mu.Lock()
	if l.cache == nil {
		l.cache = map[string]image.Image{}
	}
	l.cache[u] = img
	l.mu.Unlock()
	return img, nil
}

// Probe returns the natural size of the image at u. It decodes the whole
// image so that the later render hits the cache.
func (l *ImageLoader) Probe(ctx context.Context, u string) (int, int, error) {
	img, err := l.Load(ctx, u)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}
