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

// Package browser implements the scraping collaborator: a headless-Chrome
// session for text and screenshots, plus a plain-HTTP fallback for static
// pages. Navigation and transport failures are marked transient so step-level
// retry policies re-attempt them.
package browser

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Scraper extracts page content for a target. The auth descriptor travels
// through the core untouched; only the scraper interprets it.
type Scraper interface {
	// Text returns the page's visible text.
	Text(ctx context.Context, url string, auth map[string]any) (string, error)

	// Screenshot returns a base64-encoded PNG capture of the page.
	Screenshot(ctx context.Context, url string, auth map[string]any) (string, error)
}

// Auth is the decoded form of a target's opaque auth descriptor.
type Auth struct {
	// Type: "basic" or "header".
	Type string `mapstructure:"type"`

	// Basic auth credentials.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// Custom header, e.g. a bearer token.
	Header string `mapstructure:"header"`
	Value  string `mapstructure:"value"`
}

// DecodeAuth interprets an opaque auth descriptor. A nil descriptor yields
// nil. Unknown types are rejected here, at the collaborator boundary.
func DecodeAuth(descriptor map[string]any) (*Auth, error) {
	if len(descriptor) == 0 {
		return nil, nil
	}

	var auth Auth
	if err := mapstructure.Decode(descriptor, &auth); err != nil {
		return nil, fmt.Errorf("invalid auth descriptor: %w", err)
	}

	switch auth.Type {
	case "basic":
		if auth.Username == "" {
			return nil, fmt.Errorf("basic auth requires a username")
		}
	case "header":
		if auth.Header == "" {
			return nil, fmt.Errorf("header auth requires a header name")
		}
	default:
		return nil, fmt.Errorf("unknown auth type: %q", auth.Type)
	}

	return &auth, nil
}

// headers returns the HTTP headers the auth descriptor translates to.
func (a *Auth) headers() map[string]any {
	if a == nil {
		return nil
	}

	switch a.Type {
	case "basic":
		token := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		return map[string]any{"Authorization": "Basic " + token}
	case "header":
		return map[string]any{a.Header: a.Value}
	}
	return nil
}
