package llms

import (
	"context"
	"testing"
	"time"

	"github.com/kadirpekel/pagecheck/pkg/config"
)

// mockProvider satisfies Provider for registry tests.
type mockProvider struct {
	model string
}

func (m *mockProvider) Generate(context.Context, []ContentPart) (string, int, error) {
	return "", 0, nil
}
func (m *mockProvider) ModelName() string    { return m.model }
func (m *mockProvider) SupportsVision() bool { return false }
func (m *mockProvider) Close() error         { return nil }

func testLLMConfig(provider string) config.LLMConfig {
	return config.LLMConfig{
		Provider:   provider,
		Model:      "test-model",
		APIKey:     "test-key",
		Timeout:    time.Second,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	provider := &mockProvider{model: "test-model"}
	if err := r.Register("default", provider); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := r.Lookup("default")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.ModelName() != "test-model" {
		t.Errorf("ModelName() = %q, want test-model", got.ModelName())
	}
}

func TestRegistry_Lookup_Unknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("missing")
	if err == nil {
		t.Fatal("expected error for unknown llm")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"anthropic", false},
		{"openai", false},
		{"gemini", false},
		{"cohere", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			_, err := NewProvider(testLLMConfig(tt.provider))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProvider(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
			}
		})
	}
}

func TestNewProvider_MissingAPIKey(t *testing.T) {
	cfg := testLLMConfig("openai")
	cfg.APIKey = ""

	if _, err := NewProvider(cfg); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	r, err := NewRegistryFromConfig(map[string]config.LLMConfig{
		"primary":  testLLMConfig("gemini"),
		"fallback": testLLMConfig("openai"),
	})
	if err != nil {
		t.Fatalf("NewRegistryFromConfig() error = %v", err)
	}

	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if !r.Frozen() {
		t.Error("registry should be frozen after construction")
	}
}
