/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	applog "github.com/OSRdesign/social-media-composer/internal/log"
	"github.com/OSRdesign/social-media-composer/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the library schema. Bump it together with a new
// migration step.
const schemaVersion = 1

// tsLayout is fixed width so that timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a saved template does not exist.
var ErrNotFound = errors.New("template not found")

// Entry describes a saved template without its slides.
type Entry struct {
	ID        string
	Name      string
	Format    string
	Width     int
	Height    int
	Slides    int
	UpdatedAt time.Time
}

// Library is the saved-template collection, kept in a local SQLite file.
// Templates are stored in their file shape so that a library entry and an
// exported JSON file are interchangeable.
type Library struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// OpenLibrary opens or creates the library at path.
func OpenLibrary(path string) (*Library, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "library_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("library path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureLibrarySchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure library schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("library ready")
	return &Library{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

// Path returns the database file.
func (lib *Library) Path() string { return lib.path }

// Close releases the database.
func (lib *Library) Close() error { return lib.db.Close() }

func ensureLibrarySchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS templates (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			format      TEXT NOT NULL,
			width       INTEGER NOT NULL,
			height      INTEGER NOT NULL,
			slides      INTEGER NOT NULL,
			data        TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_templates_updated ON templates(updated_at);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure library schema: %w", err)
		}
	}
	now := time.Now().UTC().Format(tsLayout)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	case cur > schemaVersion:
		return fmt.Errorf("library schema %d is newer than supported %d", cur, schemaVersion)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// Save stores doc under its short id, replacing an entry with the same id.
// A document without id gets a fresh one; name overrides doc.Name when set.
func (lib *Library) Save(ctx context.Context, doc domain.Document, name string) (Entry, error) {
	if !doc.Valid() {
		return Entry{}, errors.New("template has no canvas size")
	}
	if strings.TrimSpace(name) != "" {
		doc.Name = strings.TrimSpace(name)
	}
	if doc.ID == "" {
		doc.ID = domain.NewID()
	}
	doc.ID = domain.ShortID(doc.ID)
	data, err := EncodeTemplate(doc)
	if err != nil {
		return Entry{}, err
	}
	now := time.Now().UTC()
	ts := now.Format(tsLayout)
	_, err = lib.db.ExecContext(ctx, `INSERT INTO templates (id, name, format, width, height, slides, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, format=excluded.format, width=excluded.width,
			height=excluded.height, slides=excluded.slides, data=excluded.data, updated_at=excluded.updated_at`,
		doc.ID, doc.Name, doc.Format, doc.Width, doc.Height, len(doc.Slides), string(data), ts, ts)
	if err != nil {
		return Entry{}, fmt.Errorf("save template %s: %w", doc.ID, err)
	}
	lib.log.Debug("template saved", slog.String("id", doc.ID), slog.String("name", doc.Name), slog.Int("slides", len(doc.Slides)))
	return Entry{ID: doc.ID, Name: doc.Name, Format: doc.Format, Width: doc.Width, Height: doc.Height, Slides: len(doc.Slides), UpdatedAt: now}, nil
}

// List returns all entries, most recently saved first.
func (lib *Library) List(ctx context.Context) ([]Entry, error) {
	rows, err := lib.db.QueryContext(ctx, `SELECT id, name, format, width, height, slides, updated_at FROM templates ORDER BY updated_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &e.Name, &e.Format, &e.Width, &e.Height, &e.Slides, &ts); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		e.UpdatedAt, _ = time.Parse(tsLayout, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Load returns the saved template id. Unknown ids yield ErrNotFound.
func (lib *Library) Load(ctx context.Context, id string) (domain.Document, error) {
	var data string
	err := lib.db.QueryRowContext(ctx, `SELECT data FROM templates WHERE id=?`, domain.ShortID(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("load template %s: %w", id, err)
	}
	return DecodeTemplate([]byte(data))
}

// Delete removes the saved template id and reports whether it existed.
func (lib *Library) Delete(ctx context.Context, id string) (bool, error) {
	res, err := lib.db.ExecContext(ctx, `DELETE FROM templates WHERE id=?`, domain.ShortID(id))
	if err != nil {
		return false, fmt.Errorf("delete template %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		lib.log.Debug("template deleted", slog.String("id", id))
	}
	return n > 0, nil
}
