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

package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kadirpekel/pagecheck/pkg/config"
	"github.com/kadirpekel/pagecheck/pkg/httpclient"
	"github.com/kadirpekel/pagecheck/pkg/retry"
)

const defaultGeminiHost = "https://generativelanguage.googleapis.com"

// GeminiProvider implements Provider for the Google Gemini API.
type GeminiProvider struct {
	config     config.LLMConfig
	httpClient *httpclient.Client
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGeminiProvider creates a provider from configuration.
func NewGeminiProvider(cfg config.LLMConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Gemini")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiHost
	}

	return &GeminiProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(cfg.RetryDelay),
			httpclient.WithHeaderParser(httpclient.ParseGeminiHeaders),
		),
	}, nil
}

func (p *GeminiProvider) ModelName() string {
	return p.config.Model
}

func (p *GeminiProvider) SupportsVision() bool {
	return true
}

func (p *GeminiProvider) Close() error {
	return nil
}

// Generate sends one user turn and returns the first candidate's text.
func (p *GeminiProvider) Generate(ctx context.Context, parts []ContentPart) (string, int, error) {
	geminiParts := make([]geminiPart, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ContentPartTypeText:
			geminiParts = append(geminiParts, geminiPart{Text: part.Text})
		case ContentPartTypeImageBase64:
			geminiParts = append(geminiParts, geminiPart{
				InlineData: &geminiInlineData{
					MimeType: part.MediaType,
					Data:     part.Data,
				},
			})
		}
	}

	request := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: geminiParts}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     p.config.Temperature,
			MaxOutputTokens: p.config.MaxTokens,
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", 0, retry.Permanent(fmt.Errorf("marshal gemini request: %w", err))
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.config.BaseURL, p.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return "", 0, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, retry.Transient(fmt.Errorf("read gemini response: %w", err))
	}

	var response geminiResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", 0, retry.Permanent(fmt.Errorf("parse gemini response: %w", err))
	}
	if response.Error != nil {
		return "", 0, retry.Permanent(fmt.Errorf("gemini API error: %s", response.Error.Message))
	}
	if len(response.Candidates) == 0 {
		return "", 0, retry.Permanent(fmt.Errorf("gemini response contained no candidates"))
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		text += part.Text
	}

	return text, response.UsageMetadata.TotalTokenCount, nil
}
