/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "fmt"

// ValidationError rejects a malformed element before any state changes.
type ValidationError struct {
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid element %s: %s %s", e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid element: %s %s", e.Field, e.Reason)
}

// ResourceLoadError reports an image that could not be fetched or decoded.
type ResourceLoadError struct {
	URL string
	Err error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("load image %q: %v", e.URL, e.Err)
}

func (e *ResourceLoadError) Unwrap() error { return e.Err }

// UserMessage is the text shown to the user.
func (e *ResourceLoadError) UserMessage() string {
	return "Invalid image URL. Please provide a valid direct image URL."
}

// ParseError reports a malformed import file.
type ParseError struct {
	Format string // json or csv
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UserMessage is the text shown to the user.
func (e *ParseError) UserMessage() string {
	if e.Format == "csv" {
		return "Invalid CSV file"
	}
	return "Invalid template file"
}

// FontSourceError is recovered by falling back to the built-in font list.
type FontSourceError struct {
	Err error
}

func (e *FontSourceError) Error() string { return fmt.Sprintf("font source: %v", e.Err) }

func (e *FontSourceError) Unwrap() error { return e.Err }
