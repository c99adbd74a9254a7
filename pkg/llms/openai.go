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

const defaultOpenAIHost = "https://api.openai.com"

// OpenAIProvider implements Provider for the OpenAI Chat Completions API.
type OpenAIProvider struct {
	config     config.LLMConfig
	httpClient *httpclient.Client
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string          `json:"role"`
	Content []openAIContent `json:"content"`
}

type openAIContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates a provider from configuration.
func NewOpenAIProvider(cfg config.LLMConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIHost
	}

	return &OpenAIProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithBaseDelay(cfg.RetryDelay),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
		),
	}, nil
}

func (p *OpenAIProvider) ModelName() string {
	return p.config.Model
}

func (p *OpenAIProvider) SupportsVision() bool {
	return true
}

func (p *OpenAIProvider) Close() error {
	return nil
}

// Generate sends one user message and returns the first choice's content.
func (p *OpenAIProvider) Generate(ctx context.Context, parts []ContentPart) (string, int, error) {
	content := make([]openAIContent, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ContentPartTypeText:
			content = append(content, openAIContent{Type: "text", Text: part.Text})
		case ContentPartTypeImageBase64:
			content = append(content, openAIContent{
				Type: "image_url",
				ImageURL: &openAIImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", part.MediaType, part.Data),
				},
			})
		}
	}

	request := openAIRequest{
		Model:       p.config.Model,
		Messages:    []openAIMessage{{Role: "user", Content: content}},
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", 0, retry.Permanent(fmt.Errorf("marshal openai request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return "", 0, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, retry.Transient(fmt.Errorf("read openai response: %w", err))
	}

	var response openAIResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", 0, retry.Permanent(fmt.Errorf("parse openai response: %w", err))
	}
	if response.Error != nil {
		return "", 0, retry.Permanent(fmt.Errorf("openai API error: %s", response.Error.Message))
	}
	if len(response.Choices) == 0 {
		return "", 0, retry.Permanent(fmt.Errorf("openai response contained no choices"))
	}

	return response.Choices[0].Message.Content, response.Usage.TotalTokens, nil
}
