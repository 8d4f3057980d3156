/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/OSRdesign/social-media-composer/internal/assets"
	"github.com/OSRdesign/social-media-composer/internal/config"
	"github.com/OSRdesign/social-media-composer/internal/crash"
	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/export"
	"github.com/OSRdesign/social-media-composer/internal/layout"
	applog "github.com/OSRdesign/social-media-composer/internal/log"
	"github.com/OSRdesign/social-media-composer/internal/session"
	"github.com/OSRdesign/social-media-composer/internal/storage"
	"github.com/OSRdesign/social-media-composer/internal/telemetry"
	"github.com/OSRdesign/social-media-composer/internal/textlayout"
	"github.com/OSRdesign/social-media-composer/internal/version"
)

func usage() {
	fmt.Println("Social Media Composer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  composer version|-v|--version                      Show version")
	fmt.Println("  composer presets                                   List built-in templates")
	fmt.Println("  composer styles                                    List text styles")
	fmt.Println("  composer fonts                                     List available font families")
	fmt.Println("  composer new <preset> <file.json>                  Create an empty template file")
	fmt.Println("  composer info <file.json>                          Print slides and elements")
	fmt.Println("  composer add-text <file.json> <text> [-slide N] [-style S]")
	fmt.Println("  composer add-image <file.json> <url> [-slide N] [-background]")
	fmt.Println("  composer add-slide <file.json> [-duplicate N]")
	fmt.Println("  composer remove-slide <file.json> <N>")
	fmt.Println("  composer render <file.json> <out.png> [-slide N]   Export one slide as PNG")
	fmt.Println("  composer svg <file.json> <out.svg> [-slide N]      Export one slide as SVG")
	fmt.Println("  composer pdf <file.json> <out.pdf>                 Export the carousel as PDF")
	fmt.Println("  composer zip <file.json> <out.zip>                 Export slide PNGs and template.json")
	fmt.Println("  composer csv <file.json> <out.csv> [-slide N] [-extended]")
	fmt.Println("  composer import-csv <file.json> <data.csv>         Add CSV rows as elements")
	fmt.Println("  composer batch <file.json> <outdir> [-preset web|print] [-formats png,pdf,...]")
	fmt.Println("  composer library save <file.json> [name] | list | load <id> <file.json> | delete <id>")
}

// app bundles what the commands need, built from the user config.
type app struct {
	cfg    config.AppConfig
	log    *slog.Logger
	fonts  *textlayout.FontLibrary
	images *assets.ImageLoader
	// measure is shared by sessions and exports so stored and rendered
	// positions come from one engine.
	measure layout.TextMeasurer
}

func newApp() *app {
	cfg, token, err := config.Load()
	if err != nil {
		applog.WithComponent("cli").Warn("config unavailable, using defaults", slog.Any("err", err))
	}
	applog.Init(applog.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, AddSource: cfg.Logging.Source, File: cfg.Logging.File})

	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || cfg.General.TelemetryOptIn
	telemetry.SetDefault(tc)

	a := &app{
		cfg:    cfg,
		log:    applog.WithComponent("cli"),
		fonts:  textlayout.NewFontLibrary(),
		images: assets.NewImageLoader(cfg.Assets, token),
	}
	if len(cfg.Assets.FontDirs) > 0 {
		fams := assets.FontFamilies(context.Background(), assets.DirSource{Dirs: cfg.Assets.FontDirs, Lib: a.fonts})
		a.log.Debug("fonts registered", slog.Int("families", len(fams)), slog.Any("dirs", cfg.Assets.FontDirs))
	}
	a.measure = textMeasurer(cfg.Editor.TextEngine, a.fonts)
	return a
}

// textMeasurer picks the text engine named in the editor config.
func textMeasurer(engine string, fonts *textlayout.FontLibrary) layout.TextMeasurer {
	if engine == "canvas" {
		return textlayout.NewCanvasMeasurer(fonts)
	}
	return textlayout.NewFaceMeasurer(fonts)
}

// crashDir is where crash reports go: the config directory, or the temp
// directory when that cannot be resolved.
func crashDir(l *slog.Logger, configDir func() (string, error)) string {
	dir, err := configDir()
	if err != nil || dir == "" {
		l.Warn("config directory unavailable, crash reports go to the temp directory", slog.Any("err", err))
		return os.TempDir()
	}
	return dir
}

func (a *app) options() session.Options {
	return session.Options{
		MaxImageSide:  a.cfg.Editor.MaxInitialImageSide,
		Measurer:      a.measure,
		Snapping:      a.cfg.Editor.Snapping,
		SnapThreshold: a.cfg.Editor.SnapThreshold,
		Logger:        applog.WithComponent("session"),
	}
}

func (a *app) rasterizer() *export.Rasterizer {
	r := export.NewRasterizer(a.images, a.fonts)
	r.Measurer = a.measure
	return r
}

// open loads a template file into a fresh session.
func (a *app) open(path string) (*session.Session, error) {
	doc, err := storage.OpenTemplate(path)
	if err != nil {
		return nil, err
	}
	s := session.New(a.options())
	s.Replace(doc)
	return s, nil
}

// selectSlide makes slide n (1-based) current; 0 keeps the first slide.
func selectSlide(s *session.Session, n int) error {
	if n == 0 {
		return nil
	}
	if !s.SetCurrentSlide(n - 1) {
		return fmt.Errorf("slide %d out of range (1..%d)", n, s.SlideCount())
	}
	return nil
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	telemetry.Flush(context.Background())
	os.Exit(1)
}

func need(args []string, n int, what string) {
	if len(args) < n {
		fmt.Println(what)
		usage()
		os.Exit(2)
	}
}

// parse splits positional arguments from flags, which may follow them.
func parse(fs *flag.FlagSet, args []string) []string {
	var pos, rest []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			rest = append(rest, args[i:]...)
			break
		}
		pos = append(pos, args[i])
	}
	if err := fs.Parse(rest); err != nil {
		os.Exit(2)
	}
	return append(pos, fs.Args()...)
}

// timed runs an export and reports it to telemetry.
func timed(format string, slides int, fn func() error) error {
	start := time.Now()
	err := fn()
	telemetry.Export(format, slides, time.Since(start), err)
	return err
}

func main() {
	args := os.Args
	if len(args) < 2 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Social Media Composer")
		fmt.Println(version.String())
		return
	case "help", "-h", "--help":
		usage()
		return
	}

	a := newApp()
	l := a.log
	var sess *session.Session
	defer crash.Recover(crashDir(l, config.ConfigDir), sessionRef{&sess})
	defer telemetry.Flush(context.Background())

	ctx := applog.ContextWithSession(context.Background(), "cli")
	l.Debug("start", slog.String("cmd", args[1]), slog.Int("args", len(args)))

	switch args[1] {
	case "presets":
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, p := range domain.Presets() {
			fmt.Fprintf(tw, "%s\t%s\t%d×%d\t%s\n", p.ID, p.Name, p.Width, p.Height, p.Description)
		}
		_ = tw.Flush()
	case "styles":
		for _, name := range textlayout.ListStyles() {
			st, _ := textlayout.GetStyle(name)
			fmt.Printf("%-10s %s %gpx %s\n", st.Name, st.Family, st.SizePx, st.Weight)
		}
	case "fonts":
		dirs := append(append([]string(nil), a.cfg.Assets.FontDirs...), assets.PlatformFontDirs()...)
		for _, f := range assets.FontFamilies(ctx, assets.DirSource{Dirs: dirs}) {
			fmt.Println(f)
		}
	case "new":
		need(args, 4, "new requires <preset> and <file.json>")
		tpl, ok := domain.PresetByID(args[2])
		if !ok {
			fail(l, "unknown preset", fmt.Errorf("unknown preset %q (see: composer presets)", args[2]))
		}
		sess = session.Open(tpl, a.options())
		if err := storage.SaveTemplate(args[3], sess.Snapshot()); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Printf("Created %s (%s, %d×%d)\n", args[3], tpl.Name, tpl.Width, tpl.Height)
	case "info":
		need(args, 3, "info requires <file.json>")
		s, err := a.open(args[2])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		printInfo(s.Snapshot())
	case "add-text":
		fs := flag.NewFlagSet("add-text", flag.ExitOnError)
		slide := fs.Int("slide", 0, "1-based slide number")
		style := fs.String("style", "", "text style name")
		pos := parse(fs, args[2:])
		need(pos, 2, "add-text requires <file.json> and <text>")
		s, err := a.open(pos[0])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		if err := selectSlide(s, *slide); err != nil {
			fail(l, "select slide", err)
		}
		el, err := s.AddText(pos[1])
		if err != nil {
			fail(l, "add text", err)
		}
		if *style != "" {
			st, ok := textlayout.GetStyle(*style)
			if !ok {
				fail(l, "unknown style", fmt.Errorf("unknown style %q (see: composer styles)", *style))
			}
			if err := s.UpdateElement(el.ID, st.Patch()); err != nil {
				fail(l, "apply style", err)
			}
		}
		if err := storage.SaveTemplate(pos[0], s.Snapshot()); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Println("Added text", el.ID)
	case "add-image":
		fs := flag.NewFlagSet("add-image", flag.ExitOnError)
		slide := fs.Int("slide", 0, "1-based slide number")
		bg := fs.Bool("background", false, "use as slide background")
		pos := parse(fs, args[2:])
		need(pos, 2, "add-image requires <file.json> and <url>")
		s, err := a.open(pos[0])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		if err := selectSlide(s, *slide); err != nil {
			fail(l, "select slide", err)
		}
		var id string
		if *bg {
			err = s.SetBackgroundFromURL(ctx, a.images, pos[1])
			id = "background"
		} else {
			var el domain.Element
			el, err = s.AddImageFromURL(ctx, a.images, pos[1])
			id = el.ID
		}
		if err != nil {
			fail(l, "add image", err)
		}
		if err := storage.SaveTemplate(pos[0], s.Snapshot()); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Println("Added image", id)
	case "add-slide":
		fs := flag.NewFlagSet("add-slide", flag.ExitOnError)
		dup := fs.Int("duplicate", 0, "1-based slide to duplicate instead of adding an empty one")
		pos := parse(fs, args[2:])
		need(pos, 1, "add-slide requires <file.json>")
		s, err := a.open(pos[0])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		if *dup > 0 {
			if !s.DuplicateSlide(*dup - 1) {
				fail(l, "duplicate slide", fmt.Errorf("slide %d out of range (1..%d)", *dup, s.SlideCount()))
			}
		} else {
			s.AddSlide()
		}
		if err := storage.SaveTemplate(pos[0], s.Snapshot()); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Printf("Slides: %d\n", s.SlideCount())
	case "remove-slide":
		need(args, 4, "remove-slide requires <file.json> and <N>")
		n, err := strconv.Atoi(args[3])
		if err != nil {
			fail(l, "bad slide number", err)
		}
		s, err := a.open(args[2])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		if !s.RemoveSlide(n - 1) {
			fail(l, "remove slide", fmt.Errorf("cannot remove slide %d of %d", n, s.SlideCount()))
		}
		if err := storage.SaveTemplate(args[2], s.Snapshot()); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Printf("Slides: %d\n", s.SlideCount())
	case "render", "svg":
		fs := flag.NewFlagSet(args[1], flag.ExitOnError)
		slide := fs.Int("slide", 0, "1-based slide number")
		pos := parse(fs, args[2:])
		need(pos, 2, args[1]+" requires <file.json> and <out>")
		s, err := a.open(pos[0])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		if err := selectSlide(s, *slide); err != nil {
			fail(l, "select slide", err)
		}
		err = timed(args[1], 1, func() error {
			if args[1] == "render" {
				return export.SlidePNG(ctx, s, a.rasterizer(), pos[1])
			}
			cur, _ := s.CurrentSlide()
			data, err := export.SlideSVG(textlayout.NewFaceMeasurer(a.fonts), s.Template(), cur)
			if err != nil {
				return err
			}
			return export.WriteFile(pos[1], data)
		})
		if err != nil {
			fail(l, "export failed", err)
		}
		fmt.Println("Wrote", pos[1])
	case "pdf", "zip":
		need(args, 4, args[1]+" requires <file.json> and <out>")
		s, err := a.open(args[2])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		doc := s.Snapshot()
		err = timed(args[1], len(doc.Slides), func() error {
			if args[1] == "pdf" {
				return export.CarouselPDF(ctx, a.rasterizer(), doc, args[3])
			}
			return export.CarouselZIP(ctx, a.rasterizer(), doc, args[3])
		})
		if err != nil {
			fail(l, "export failed", err)
		}
		fmt.Printf("Wrote %s (%d slides)\n", args[3], len(doc.Slides))
	case "csv":
		fs := flag.NewFlagSet("csv", flag.ExitOnError)
		slide := fs.Int("slide", 0, "1-based slide number")
		extended := fs.Bool("extended", false, "one row per element across all slides")
		pos := parse(fs, args[2:])
		need(pos, 2, "csv requires <file.json> and <out.csv>")
		s, err := a.open(pos[0])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		if err := selectSlide(s, *slide); err != nil {
			fail(l, "select slide", err)
		}
		var data []byte
		if *extended {
			data, err = export.ExtendedCSV(s.Snapshot())
		} else {
			cur, _ := s.CurrentSlide()
			data, err = export.SlideCSV(cur)
		}
		if err != nil {
			fail(l, "csv export failed", err)
		}
		if data == nil {
			fmt.Println("Slide has no elements; nothing written")
			return
		}
		if err := export.WriteFile(pos[1], data); err != nil {
			fail(l, "write failed", err)
		}
		fmt.Println("Wrote", pos[1])
	case "import-csv":
		need(args, 4, "import-csv requires <file.json> and <data.csv>")
		s, err := a.open(args[2])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		data, err := os.ReadFile(args[3])
		if err != nil {
			fail(l, "read csv", err)
		}
		n, err := export.ImportCSV(ctx, s, a.images, data)
		if err != nil {
			fail(l, "import failed", err)
		}
		if err := storage.SaveTemplate(args[2], s.Snapshot()); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Printf("Imported %d elements; %d slides\n", n, s.SlideCount())
	case "batch":
		fs := flag.NewFlagSet("batch", flag.ExitOnError)
		preset := fs.String("preset", string(export.PresetWeb), "web or print")
		formats := fs.String("formats", "", "comma separated: "+strings.Join(export.Formats, ","))
		pos := parse(fs, args[2:])
		need(pos, 2, "batch requires <file.json> and <outdir>")
		s, err := a.open(pos[0])
		if err != nil {
			fail(l, "open failed", err)
		}
		sess = s
		opt := export.BatchOptions{Preset: export.PresetName(*preset), OutDir: pos[1]}
		if *formats != "" {
			opt.Formats = strings.Split(*formats, ",")
		}
		doc := s.Snapshot()
		var files []string
		err = timed("batch", len(doc.Slides), func() error {
			var err error
			files, err = export.Batch(ctx, a.rasterizer(), doc, opt)
			return err
		})
		for _, f := range files {
			fmt.Println("Wrote", f)
		}
		if err != nil {
			fail(l, "batch failed", err)
		}
	case "library":
		need(args, 3, "library requires save, list, load or delete")
		runLibrary(ctx, a, args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

// sessionRef lets the deferred crash handler see the session opened later.
type sessionRef struct{ s **session.Session }

func (r sessionRef) HasTemplate() bool { return *r.s != nil && (*r.s).HasTemplate() }

func (r sessionRef) Snapshot() domain.Document { return (*r.s).Snapshot() }

func printInfo(doc domain.Document) {
	fmt.Printf("Template: %s (%s) %d×%d\n", doc.Name, doc.ID, doc.Width, doc.Height)
	fmt.Printf("Slides: %d\n", len(doc.Slides))
	for i, sl := range doc.Slides {
		fmt.Printf("  [%d] %s, %d elements", i+1, sl.ID, len(sl.Elements))
		if sl.Background != nil {
			fmt.Print(", background")
		}
		fmt.Println()
		for _, el := range sl.Elements {
			vis := ""
			if !el.Visible {
				vis = " (hidden)"
			}
			fmt.Printf("      %-8s %-5s z=%d %q%s\n", el.ID, el.Kind, el.ZIndex, el.Content(), vis)
		}
	}
}

func runLibrary(ctx context.Context, a *app, args []string) {
	l := a.log
	path, err := a.cfg.LibraryPath()
	if err != nil {
		fail(l, "library path", err)
	}
	lib, err := storage.OpenLibrary(path)
	if err != nil {
		fail(l, "open library", err)
	}
	defer func() { _ = lib.Close() }()

	switch args[0] {
	case "save":
		need(args, 2, "library save requires <file.json>")
		doc, err := storage.OpenTemplate(args[1])
		if err != nil {
			fail(l, "open failed", err)
		}
		name := ""
		if len(args) > 2 {
			name = args[2]
		}
		e, err := lib.Save(ctx, doc, name)
		if err != nil {
			fail(l, "library save", err)
		}
		fmt.Printf("Saved %s as %s\n", e.Name, e.ID)
	case "list":
		entries, err := lib.List(ctx)
		if err != nil {
			fail(l, "library list", err)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%d×%d\t%d slides\t%s\n", e.ID, e.Name, e.Width, e.Height, e.Slides, e.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		_ = tw.Flush()
	case "load":
		need(args, 3, "library load requires <id> and <file.json>")
		doc, err := lib.Load(ctx, args[1])
		if errors.Is(err, storage.ErrNotFound) {
			fail(l, "library load", fmt.Errorf("no saved template %q", args[1]))
		}
		if err != nil {
			fail(l, "library load", err)
		}
		if err := storage.SaveTemplate(args[2], doc); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Println("Wrote", args[2])
	case "delete":
		need(args, 2, "library delete requires <id>")
		ok, err := lib.Delete(ctx, args[1])
		if err != nil {
			fail(l, "library delete", err)
		}
		if !ok {
			fmt.Println("Nothing to delete")
			return
		}
		fmt.Println("Deleted", args[1])
	default:
		usage()
		os.Exit(2)
	}
}
