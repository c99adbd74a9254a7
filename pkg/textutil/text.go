// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package textutil holds small text helpers shared by agents and reporters.
package textutil

import "strings"

// Clean collapses runs of whitespace to single spaces and truncates to
// maxLength runes. maxLength <= 0 disables truncation.
func Clean(text string, maxLength int) string {
	if text == "" {
		return ""
	}

	cleaned := strings.Join(strings.Fields(text), " ")

	if maxLength > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLength {
			cleaned = string(runes[:maxLength])
		}
	}

	return cleaned
}

// Truncate shortens text to maxLength runes, appending an ellipsis when it
// had to cut.
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
