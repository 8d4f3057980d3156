/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package version

import (
	"strings"
	"testing"
)

func TestStringStartsWithVersion(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v9.9.9"
	s := String()
	if !strings.HasPrefix(s, "v9.9.9") {
		t.Fatalf("String() = %q, want prefix v9.9.9", s)
	}
	if rest := strings.TrimPrefix(s, "v9.9.9"); rest != "" && (!strings.HasPrefix(rest, "+") || len(rest) != 8) {
		t.Fatalf("unexpected revision suffix %q", rest)
	}
}
