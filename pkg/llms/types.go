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

// Package llms implements the model-inference collaborator: provider-neutral
// content parts and REST implementations for Anthropic, OpenAI, and Gemini.
package llms

import "context"

// ContentPartType identifies the kind of a content part.
type ContentPartType string

const (
	ContentPartTypeText        ContentPartType = "text"
	ContentPartTypeImageBase64 ContentPartType = "image_base64"
)

// ContentPart is one piece of a prompt: plain text or a base64-encoded image.
type ContentPart struct {
	Type ContentPartType
	// Text holds the prompt text for text parts.
	Text string
	// MediaType is the image MIME type, e.g. "image/png".
	MediaType string
	// Data is the base64-encoded image payload.
	Data string
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartTypeText, Text: text}
}

// ImagePart builds a base64 image content part.
func ImagePart(mediaType, data string) ContentPart {
	return ContentPart{Type: ContentPartTypeImageBase64, MediaType: mediaType, Data: data}
}

// Provider is a model-inference backend. Generate sends one user turn and
// returns the response text and total token usage. Transport-level failures
// surface as retryable errors; malformed or rejected requests are permanent.
type Provider interface {
	Generate(ctx context.Context, parts []ContentPart) (text string, tokens int, err error)

	ModelName() string

	// SupportsVision reports whether image parts are accepted.
	SupportsVision() bool

	Close() error
}
