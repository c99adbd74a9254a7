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

package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kadirpekel/pagecheck/pkg/retry"
)

// HTTPScraper fetches pages with a plain HTTP GET and extracts visible text
// from the static HTML. It cannot execute scripts or take screenshots; use it
// for server-rendered pages where launching Chrome is overkill.
type HTTPScraper struct {
	client    *http.Client
	userAgent string
}

// NewHTTPScraper creates an HTTPScraper with the given request timeout.
func NewHTTPScraper(timeout time.Duration, userAgent string) *HTTPScraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPScraper{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// Text fetches the page and returns its visible text.
func (s *HTTPScraper) Text(ctx context.Context, url string, auth map[string]any) (string, error) {
	decoded, err := DecodeAuth(auth)
	if err != nil {
		return "", retry.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", retry.Permanent(err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	for name, value := range decoded.headers() {
		req.Header.Set(name, fmt.Sprint(value))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", retry.Transient(fmt.Errorf("fetch %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", retry.Transient(fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return "", retry.Permanent(fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("parse %s: %w", url, err))
	}

	return ExtractVisibleText(doc), nil
}

// Screenshot is unsupported without a browser.
func (s *HTTPScraper) Screenshot(ctx context.Context, url string, auth map[string]any) (string, error) {
	return "", retry.Permanent(fmt.Errorf("http scraper cannot capture screenshots; use the chromedp engine"))
}

// ExtractVisibleText strips non-visible elements and returns the body text
// with block boundaries preserved as newlines.
func ExtractVisibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template, head").Remove()

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		sb.WriteString(sel.Text())
	})

	// Collapse blank lines left behind by removed nodes.
	lines := strings.Split(sb.String(), "\n")
	var out []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
