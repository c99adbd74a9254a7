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
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/kadirpekel/pagecheck/pkg/config"
	"github.com/kadirpekel/pagecheck/pkg/retry"
	"github.com/kadirpekel/pagecheck/pkg/validate"
)

// ChromeScraper drives a shared headless-Chrome allocator. Each call gets its
// own browser tab; the allocator is reused across runs and is safe for
// concurrent use.
type ChromeScraper struct {
	cfg        config.BrowserConfig
	allocCtx   context.Context
	allocStop  context.CancelFunc
	navTimeout time.Duration
	wait       time.Duration
}

// NewChromeScraper validates the browser configuration and prepares the
// Chrome allocator. The first Run launches the browser process.
func NewChromeScraper(cfg config.BrowserConfig) (*ChromeScraper, error) {
	if err := validate.Viewport(cfg.Viewport.Width, cfg.Viewport.Height); err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocStop := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeScraper{
		cfg:        cfg,
		allocCtx:   allocCtx,
		allocStop:  allocStop,
		navTimeout: cfg.NavTimeout,
		wait:       cfg.Wait,
	}, nil
}

// Close shuts down the Chrome allocator and any remaining browser process.
func (s *ChromeScraper) Close() {
	s.allocStop()
}

// Text navigates to the page and extracts the body's visible text.
func (s *ChromeScraper) Text(ctx context.Context, url string, auth map[string]any) (string, error) {
	var text string
	err := s.run(ctx, url, auth,
		chromedp.Sleep(s.wait),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}

	slog.Debug("extracted page text", "url", url, "chars", len(text))
	return text, nil
}

// Screenshot navigates to the page and captures a full-page PNG, returned
// base64-encoded.
func (s *ChromeScraper) Screenshot(ctx context.Context, url string, auth map[string]any) (string, error) {
	var shot []byte
	err := s.run(ctx, url, auth,
		chromedp.Sleep(s.wait),
		chromedp.FullScreenshot(&shot, 90),
	)
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(shot)
	slog.Debug("captured screenshot", "url", url, "bytes", len(shot))
	return encoded, nil
}

// run opens a fresh tab, applies auth headers, navigates, and executes the
// supplied actions under the navigation timeout.
func (s *ChromeScraper) run(ctx context.Context, url string, auth map[string]any, actions ...chromedp.Action) error {
	decoded, err := DecodeAuth(auth)
	if err != nil {
		return retry.Permanent(err)
	}

	tabCtx, cancelTab := chromedp.NewContext(s.allocCtx)
	defer cancelTab()

	timeout := s.navTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	runCtx, cancelRun := context.WithTimeout(tabCtx, timeout)
	defer cancelRun()

	prelude := []chromedp.Action{network.Enable()}
	if headers := decoded.headers(); headers != nil {
		prelude = append(prelude, network.SetExtraHTTPHeaders(network.Headers(headers)))
	}
	prelude = append(prelude, chromedp.Navigate(url))

	if err := chromedp.Run(runCtx, append(prelude, actions...)...); err != nil {
		return retry.Transient(fmt.Errorf("browser navigation to %s failed: %w", url, err))
	}
	return nil
}
