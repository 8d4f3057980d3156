/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import "math"

// Zoom limits of the view transform.
const (
	ZoomStep = 0.1
	ZoomMin  = 0.1
	ZoomMax  = 2.0
)

// Zoom returns the view scale. It reads 1 while WithNeutralZoom runs.
func (s *Session) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoomLocked()
}

func (s *Session) zoomLocked() float64 {
	if s.neutral > 0 {
		return 1
	}
	return s.zoom
}

// stepZoom adjusts the user scale in one critical section.
func (s *Session) stepZoom(next func(cur float64) float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	// one decimal keeps repeated steps from drifting
	s.zoom = math.Round(min(max(next(s.zoom), ZoomMin), ZoomMax)*10) / 10
	return s.zoomLocked()
}

// ZoomIn increases the scale by one step.
func (s *Session) ZoomIn() float64 {
	return s.stepZoom(func(z float64) float64 { return z + ZoomStep })
}

// ZoomOut decreases the scale by one step.
func (s *Session) ZoomOut() float64 {
	return s.stepZoom(func(z float64) float64 { return z - ZoomStep })
}

// ResetZoom returns to scale 1.
func (s *Session) ResetZoom() { s.stepZoom(func(float64) float64 { return 1 }) }

// WithNeutralZoom runs fn with the view scale reading 1, also when fn fails
// or panics. Zoom steps taken meanwhile change the user scale, which is in
// effect again once fn returns. Calls may nest.
func (s *Session) WithNeutralZoom(fn func() error) error {
	s.mu.Lock()
	s.neutral++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.neutral--
		s.mu.Unlock()
	}()
	return fn()
}
