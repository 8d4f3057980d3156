/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/OSRdesign/social-media-composer/internal/config"
	"github.com/OSRdesign/social-media-composer/internal/domain"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestImageLoader_HTTPWithTokenAndCache(t *testing.T) {
	data := pngBytes(t, 40, 20)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	l := NewImageLoader(config.Defaults().Assets, "secret")
	w, h, err := l.Probe(context.Background(), srv.URL+"/a.png")
	if err != nil || w != 40 || h != 20 {
		t.Fatalf("Probe = %d x %d, %v", w, h, err)
	}
	if _, err := l.Load(context.Background(), srv.URL+"/a.png"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected cached second load, hits=%d", hits.Load())
	}

	anon := NewImageLoader(config.Defaults().Assets, "")
	_, _, err = anon.Probe(context.Background(), srv.URL+"/a.png")
	var rle *domain.ResourceLoadError
	if !errors.As(err, &rle) || rle.URL != srv.URL+"/a.png" {
		t.Fatalf("expected ResourceLoadError, got %v", err)
	}
}

func TestImageLoader_RejectsNonImagesAndLargeBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()
	l := NewImageLoader(config.Defaults().Assets, "")
	var rle *domain.ResourceLoadError
	if _, _, err := l.Probe(context.Background(), srv.URL); !errors.As(err, &rle) {
		t.Fatalf("expected ResourceLoadError for html, got %v", err)
	}
	l.MaxBytes = 4
	if _, err := l.Fetch(context.Background(), srv.URL); !errors.As(err, &rle) {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestImageLoader_DataAndFileURLs(t *testing.T) {
	data := pngBytes(t, 3, 7)
	l := NewImageLoader(config.Defaults().Assets, "")
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	if w, h, err := l.Probe(context.Background(), uri); err != nil || w != 3 || h != 7 {
		t.Fatalf("data URL: %d x %d, %v", w, h, err)
	}
	p := filepath.Join(t.TempDir(), "x.png")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	for _, u := range []string{p, "file://" + filepath.ToSlash(p)} {
		if w, _, err := l.Probe(context.Background(), u); err != nil || w != 3 {
			t.Fatalf("%s: %d, %v", u, w, err)
		}
	}
	if _, _, err := l.Probe(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty URL")
	}
}

type failingSource struct{}

func (failingSource) Families(context.Context) ([]string, error) {
	return nil, errors.New("no fontconfig")
}

type listSource []string

func (l listSource) Families(context.Context) ([]string, error) { return l, nil }

func TestFontFamilies_Fallback(t *testing.T) {
	got := FontFamilies(context.Background(), failingSource{})
	if len(got) != 20 || got[0] != "Arial" {
		t.Fatalf("fallback = %v", got)
	}
	if got := FontFamilies(context.Background(), listSource{}); len(got) != 20 {
		t.Fatalf("empty source must fall back, got %v", got)
	}
	got = FontFamilies(context.Background(), listSource{"Inter", "inter", " ", "Roboto"})
	if len(got) != 2 || got[0] != "Inter" || got[1] != "Roboto" {
		t.Fatalf("distinct families = %v", got)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "GoRegular.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.otf"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	fams, err := DirSource{Dirs: []string{dir, filepath.Join(dir, "missing")}}.Families(context.Background())
	if err != nil || len(fams) != 1 || fams[0] != "Go" {
		t.Fatalf("families = %v, %v", fams, err)
	}
	_, err = DirSource{Dirs: []string{filepath.Join(dir, "missing")}}.Families(context.Background())
	var fse *domain.FontSourceError
	if !errors.As(err, &fse) {
		t.Fatalf("expected FontSourceError, got %v", err)
	}
}
