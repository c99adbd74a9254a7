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
	"fmt"

	"github.com/kadirpekel/pagecheck/pkg/config"
	"github.com/kadirpekel/pagecheck/pkg/registry"
)

// Registry holds named providers, built once from configuration.
type Registry struct {
	*registry.Registry[Provider]
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{Registry: registry.New[Provider]()}
}

// NewRegistryFromConfig constructs all configured providers and freezes the
// registry.
func NewRegistryFromConfig(llms map[string]config.LLMConfig) (*Registry, error) {
	r := NewRegistry()

	for name, cfg := range llms {
		provider, err := NewProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("llm %q: %w", name, err)
		}
		if err := r.Register(name, provider); err != nil {
			return nil, err
		}
	}

	r.Freeze()
	return r, nil
}

// NewProvider builds a single provider from its configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "openai":
		return NewOpenAIProvider(cfg)
	case "gemini":
		return NewGeminiProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Provider)
	}
}

// Lookup returns the named provider or an error naming it.
func (r *Registry) Lookup(name string) (Provider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("unknown llm: %s", name)
	}
	return provider, nil
}

// Close closes every registered provider.
func (r *Registry) Close() error {
	var firstErr error
	for _, name := range r.Names() {
		if provider, ok := r.Get(name); ok {
			if err := provider.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
