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

// Package validate holds input admission checks shared by config loading and
// the orchestrator. Targets are validated once, at admission, not per step.
package validate

import (
	"fmt"
	"net/url"
	"strings"
)

// Viewport bounds match what headless Chrome accepts in practice.
const (
	MinViewportWidth  = 320
	MaxViewportWidth  = 7680
	MinViewportHeight = 240
	MaxViewportHeight = 4320
)

// URL normalizes and validates a target address. A missing scheme defaults
// to https. The returned string is the form a run should use.
func URL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("URL must be a non-empty string")
	}

	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", raw)
	}

	return trimmed, nil
}

// Viewport checks browser viewport dimensions.
func Viewport(width, height int) error {
	if width < MinViewportWidth || width > MaxViewportWidth {
		return fmt.Errorf("viewport width must be between %d and %d, got %d",
			MinViewportWidth, MaxViewportWidth, width)
	}
	if height < MinViewportHeight || height > MaxViewportHeight {
		return fmt.Errorf("viewport height must be between %d and %d, got %d",
			MinViewportHeight, MaxViewportHeight, height)
	}
	return nil
}
