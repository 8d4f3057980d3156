/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import "math"

// DefaultThreshold is the snap distance used when Options.Threshold is unset.
const DefaultThreshold = 6

// Options selects guide candidates.
type Options struct {
	Threshold float64
	Edges     bool // left/right/top/bottom, including abutting
	Centers   bool
	// LockX / LockY leave an axis untouched (derived axes).
	LockX, LockY bool
}

// Orientation of a guide line.
type Orientation string

const (
	Vertical   Orientation = "vertical"   // aligns x
	Horizontal Orientation = "horizontal" // aligns y
)

// Guide is a line to draw while a snap is active.
type Guide struct {
	Orientation Orientation
	Kind        string // edge or center
	Position    float64
	From, To    float64 // extent along the other axis
}

type candidate struct {
	delta float64
	dist  float64
	guide Guide
}

// edges of one axis of a rect: low, center, high.
type span struct{ lo, mid, hi float64 }

func xSpan(r Rect) span { return span{r.X, r.CenterX(), r.Right()} }
func ySpan(r Rect) span { return span{r.Y, r.CenterY(), r.Bottom()} }

// Align snaps moving against the anchors, each axis on its own, and returns
// the snapped rect with the guides that caused the snap. The closest
// candidate within the threshold wins; the first anchor wins ties.
func Align(moving Rect, anchors []Rect, opts Options) (Rect, []Guide) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	var guides []Guide
	out := moving
	if !opts.LockX {
		if c, ok := best(xSpan(moving), anchors, xSpan, opts, func(pos float64, a Rect) Guide {
			u := moving.Union(a)
			return Guide{Orientation: Vertical, Position: pos, From: u.Y, To: u.Bottom()}
		}); ok {
			out.X = round3(moving.X - c.delta)
			guides = append(guides, c.guide)
		}
	}
	if !opts.LockY {
		if c, ok := best(ySpan(moving), anchors, ySpan, opts, func(pos float64, a Rect) Guide {
			u := moving.Union(a)
			return Guide{Orientation: Horizontal, Position: pos, From: u.X, To: u.Right()}
		}); ok {
			out.Y = round3(moving.Y - c.delta)
			guides = append(guides, c.guide)
		}
	}
	return out, guides
}

func best(m span, anchors []Rect, axis func(Rect) span, opts Options, mk func(float64, Rect) Guide) (candidate, bool) {
	found := false
	var win candidate
	try := func(from, to float64, kind string, a Rect) {
		d := from - to
		dist := math.Abs(d)
		if dist > opts.Threshold || (found && dist >= win.dist) {
			return
		}
		g := mk(round3(to), a)
		g.Kind = kind
		win, found = candidate{delta: d, dist: dist, guide: g}, true
	}
	for _, a := range anchors {
		s := axis(a)
		if opts.Edges {
			try(m.lo, s.lo, "edge", a)
			try(m.hi, s.hi, "edge", a)
			try(m.lo, s.hi, "edge", a)
			try(m.hi, s.lo, "edge", a)
		}
		if opts.Centers {
			try(m.mid, s.mid, "center", a)
		}
	}
	return win, found
}
