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

const defaultAnthropicHost = "https://api.anthropic.com"

// AnthropicProvider implements Provider for the Anthropic Messages API.
type AnthropicProvider struct {
	config     config.LLMConfig
	httpClient *httpclient.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicProvider creates a provider from configuration.
func NewAnthropicProvider(cfg config.LLMConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Anthropic")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicHost
	}

	return &AnthropicProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(cfg.RetryDelay),
			httpclient.WithHeaderParser(httpclient.ParseAnthropicHeaders),
		),
	}, nil
}

func (p *AnthropicProvider) ModelName() string {
	return p.config.Model
}

func (p *AnthropicProvider) SupportsVision() bool {
	return true
}

func (p *AnthropicProvider) Close() error {
	return nil
}

// Generate sends one user message and returns the concatenated text blocks.
func (p *AnthropicProvider) Generate(ctx context.Context, parts []ContentPart) (string, int, error) {
	content := make([]anthropicContent, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ContentPartTypeText:
			content = append(content, anthropicContent{Type: "text", Text: part.Text})
		case ContentPartTypeImageBase64:
			content = append(content, anthropicContent{
				Type: "image",
				Source: &anthropicSource{
					Type:      "base64",
					MediaType: part.MediaType,
					Data:      part.Data,
				},
			})
		}
	}

	request := anthropicRequest{
		Model:       p.config.Model,
		Messages:    []anthropicMessage{{Role: "user", Content: content}},
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", 0, retry.Permanent(fmt.Errorf("marshal anthropic request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", 0, retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return "", 0, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, retry.Transient(fmt.Errorf("read anthropic response: %w", err))
	}

	var response anthropicResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", 0, retry.Permanent(fmt.Errorf("parse anthropic response: %w", err))
	}
	if response.Error != nil {
		return "", 0, retry.Permanent(fmt.Errorf("anthropic API error: %s", response.Error.Message))
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	tokens := response.Usage.InputTokens + response.Usage.OutputTokens
	return text, tokens, nil
}
