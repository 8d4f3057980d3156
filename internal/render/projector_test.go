/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"testing"

	"github.com/OSRdesign/social-media-composer/internal/domain"
	"github.com/OSRdesign/social-media-composer/internal/layout"
)

var tpl = domain.Template{ID: "instagram-post", Width: 1080, Height: 1080}

func ids(pl PaintList) []string {
	out := make([]string, 0, len(pl.Items))
	for _, it := range pl.Items {
		out = append(out, it.Element.ID)
	}
	return out
}

func same(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestProjectStableZOrder(t *testing.T) {
	s := domain.Slide{ID: "s"}
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Elements = append(s.Elements, domain.NewText(id, id))
	}
	s.Elements[0].ZIndex = 2
	s.Elements[3].ZIndex = -1
	// b and c tie at 0 and keep insertion order
	got := ids(Project(tpl, s))
	if want := []string{"d", "b", "c", "a"}; !same(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestProjectFiltersHiddenAndPaintsBackgroundFirst(t *testing.T) {
	bg := domain.NewBackground("bg", "https://example.test/bg.png", 10, 10)
	bg.ZIndex = 99
	hidden := domain.NewText("h", "hidden")
	hidden.Visible = false
	hidden.ZIndex = 100
	s := domain.Slide{ID: "s", Background: &bg, Elements: []domain.Element{hidden, domain.NewText("v", "visible")}}

	pl := Project(tpl, s)
	if got := ids(pl); !same(got, []string{"bg", "v"}) {
		t.Fatalf("paint list = %v", got)
	}
	if !pl.Items[0].Background || pl.Width != 1080 {
		t.Fatalf("background item not flagged: %+v", pl.Items[0])
	}
}

func TestRunsSplitSuperscripts(t *testing.T) {
	runs := Runs("Brand® Cola™™ ok")
	want := []Run{{"Brand", false}, {"®", true}, {" Cola", false}, {"™™", true}, {" ok", false}}
	if len(runs) != len(want) {
		t.Fatalf("runs = %+v", runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Fatalf("run %d = %+v, want %+v", i, runs[i], want[i])
		}
	}
	if Runs("") != nil {
		t.Fatalf("empty content must give no runs")
	}
}

func TestProjectDoesNotMutateContent(t *testing.T) {
	s := domain.Slide{ID: "s", Elements: []domain.Element{domain.NewText("t", "Acme™")}}
	pl := Project(tpl, s)
	if s.Elements[0].Text.Content != "Acme™" || pl.Items[0].Element.Text.Content != "Acme™" {
		t.Fatalf("content changed")
	}
	if len(pl.Items[0].Runs) != 2 {
		t.Fatalf("runs = %+v", pl.Items[0].Runs)
	}
}

func TestSuperscriptHTML(t *testing.T) {
	got := SuperscriptHTML("<b>X</b>®")
	want := `&lt;b&gt;X&lt;/b&gt;<sup style="font-size: 0.6em">®</sup>`
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestFrameResolvesCentering(t *testing.T) {
	el := domain.NewImage("i", "u", 200, 100, 0)
	el.Axes.X = domain.AxisCentered
	s := domain.Slide{ID: "s", Elements: []domain.Element{el}}
	pl := Frame(layout.Resolver{Template: tpl}, s)
	if x := pl.Items[0].Element.Position.X; x != 440 {
		t.Fatalf("x = %v, want 440", x)
	}
}
