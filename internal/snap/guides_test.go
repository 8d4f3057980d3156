/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import "testing"

var canvas = R(0, 0, 1080, 1080)

func TestAlign_SnapToCanvasEdges(t *testing.T) {
	moving := R(3, 4, 80, 40)
	snapped, guides := Align(moving, []Rect{canvas}, Options{Threshold: 6, Edges: true})
	if snapped.X != 0 || snapped.Y != 0 {
		t.Fatalf("expected snap to 0,0; got %+v", snapped)
	}
	var v, h bool
	for _, g := range guides {
		if g.Orientation == Vertical && g.Position == 0 && g.Kind == "edge" {
			v = true
		}
		if g.Orientation == Horizontal && g.Position == 0 {
			h = true
		}
	}
	if !v || !h {
		t.Fatalf("expected guides at x=0 (%v) and y=0 (%v): %+v", v, h, guides)
	}
}

func TestAlign_SnapToCenters(t *testing.T) {
	moving := R(540-50-2, 540-30+3, 100, 60)
	snapped, guides := Align(moving, []Rect{canvas}, Options{Threshold: 5, Centers: true})
	if snapped.X != 490 || snapped.Y != 510 {
		t.Fatalf("expected centered rect, got %+v", snapped)
	}
	if len(guides) != 2 || guides[0].Kind != "center" || guides[0].Position != 540 {
		t.Fatalf("unexpected guides: %+v", guides)
	}
}

func TestAlign_ThresholdPreventsSnap(t *testing.T) {
	moving := R(10, 10, 50, 20)
	snapped, guides := Align(moving, []Rect{canvas}, Options{Threshold: 5, Edges: true})
	if snapped != moving || len(guides) != 0 {
		t.Fatalf("expected no snap, got %+v %+v", snapped, guides)
	}
}

func TestAlign_ClosestPerAxisAndLocks(t *testing.T) {
	anchors := []Rect{R(0, 0, 100, 100), R(300, 0, 100, 100)}
	moving := R(2, 97, 80, 80)
	snapped, _ := Align(moving, anchors, Options{Threshold: 5, Edges: true})
	if snapped.X != 0 || snapped.Y != 100 {
		t.Fatalf("expected (0,100), got %+v", snapped)
	}

	locked, guides := Align(moving, anchors, Options{Threshold: 5, Edges: true, LockX: true})
	if locked.X != 2 || locked.Y != 100 || len(guides) != 1 || guides[0].Orientation != Horizontal {
		t.Fatalf("locked x must not move: %+v %+v", locked, guides)
	}
}

func TestRectHelpers(t *testing.T) {
	a, b := R(0, 0, 10, 10), R(5, 5, 10, 10)
	if u := a.Union(b); u != R(0, 0, 15, 15) {
		t.Fatalf("union = %+v", u)
	}
	if !a.Intersects(b) || a.Intersects(R(10, 0, 5, 5)) {
		t.Fatalf("intersects wrong")
	}
}
