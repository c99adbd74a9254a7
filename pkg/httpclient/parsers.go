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

package httpclient

import (
	"net/http"
	"strconv"
	"time"
)

func parseRetryAfter(headers http.Header) time.Duration {
	if retryAfter := headers.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

func parseIntHeader(headers http.Header, name string) int {
	if v := headers.Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// ParseAnthropicHeaders extracts rate-limit info from Anthropic API headers.
func ParseAnthropicHeaders(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{
		RetryAfter:        parseRetryAfter(headers),
		RequestsRemaining: parseIntHeader(headers, "anthropic-ratelimit-requests-remaining"),
		TokensRemaining:   parseIntHeader(headers, "anthropic-ratelimit-output-tokens-remaining"),
	}

	// Reset headers are RFC3339 timestamps.
	for _, header := range []string{
		"anthropic-ratelimit-input-tokens-reset",
		"anthropic-ratelimit-output-tokens-reset",
		"anthropic-ratelimit-requests-reset",
	} {
		if resetStr := headers.Get(header); resetStr != "" {
			if resetTime, err := time.Parse(time.RFC3339, resetStr); err == nil {
				info.ResetTime = resetTime.Unix()
				break
			}
		}
	}

	return info
}

// ParseOpenAIHeaders extracts rate-limit info from OpenAI API headers.
func ParseOpenAIHeaders(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{
		RetryAfter:        parseRetryAfter(headers),
		RequestsRemaining: parseIntHeader(headers, "x-ratelimit-remaining-requests"),
		TokensRemaining:   parseIntHeader(headers, "x-ratelimit-remaining-tokens"),
	}

	for _, header := range []string{"x-ratelimit-reset-tokens", "x-ratelimit-reset-requests"} {
		if resetStr := headers.Get(header); resetStr != "" {
			if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
				info.ResetTime = resetTime
				break
			}
		}
	}

	return info
}

// ParseGeminiHeaders extracts rate-limit info from Google Gemini API headers.
// Gemini only exposes Retry-After.
func ParseGeminiHeaders(headers http.Header) RateLimitInfo {
	return RateLimitInfo{RetryAfter: parseRetryAfter(headers)}
}
