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

// Package config loads and validates pagecheck configuration from YAML with
// environment variable expansion.
package config

import (
	"fmt"
	"time"

	"github.com/kadirpekel/pagecheck/pkg/retry"
	"github.com/kadirpekel/pagecheck/pkg/validate"
)

// Config is the root configuration.
type Config struct {
	LogLevel  string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`

	LLMs         map[string]LLMConfig   `yaml:"llms" mapstructure:"llms"`
	Browser      BrowserConfig          `yaml:"browser" mapstructure:"browser"`
	Agents       map[string]AgentConfig `yaml:"agents" mapstructure:"agents"`
	Orchestrator OrchestratorConfig     `yaml:"orchestrator" mapstructure:"orchestrator"`
	Targets      []TargetConfig         `yaml:"targets" mapstructure:"targets"`
	Output       OutputConfig           `yaml:"output" mapstructure:"output"`
}

// LLMConfig configures one LLM provider entry.
type LLMConfig struct {
	// Provider type: anthropic, openai, or gemini.
	Provider string `yaml:"provider" mapstructure:"provider"`
	// Model name (e.g. "gemini-2.0-flash", "gpt-4o").
	Model string `yaml:"model" mapstructure:"model"`
	// APIKey supports ${VAR} expansion.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// BaseURL overrides the default API endpoint.
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	// Timeout bounds a single HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxRetries and RetryDelay tune the HTTP client's own retry loop for
	// rate limits, below the step-level retry policy.
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
}

// BrowserConfig configures the headless browser collaborator.
type BrowserConfig struct {
	Headless bool           `yaml:"headless" mapstructure:"headless"`
	Viewport ViewportConfig `yaml:"viewport" mapstructure:"viewport"`
	// NavTimeout bounds a single page navigation.
	NavTimeout time.Duration `yaml:"nav_timeout" mapstructure:"nav_timeout"`
	// Wait is the settle time for dynamic content before extraction.
	Wait      time.Duration `yaml:"wait" mapstructure:"wait"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// ViewportConfig holds browser window dimensions.
type ViewportConfig struct {
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`
}

// AgentConfig holds per-agent settings. Keys under Options are agent-specific.
type AgentConfig struct {
	Enabled *bool `yaml:"enabled" mapstructure:"enabled"`
	// LLM names the provider entry this agent uses.
	LLM string `yaml:"llm" mapstructure:"llm"`
	// Engine selects the scraper: "chromedp" (default) or "http".
	Engine  string         `yaml:"engine" mapstructure:"engine"`
	Options map[string]any `yaml:"options" mapstructure:"options"`
}

// IsEnabled treats a missing flag as enabled.
func (a AgentConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// RetryConfig maps onto a retry.Policy.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	ExponentialBase float64       `yaml:"exponential_base" mapstructure:"exponential_base"`
	Jitter          bool          `yaml:"jitter" mapstructure:"jitter"`
}

// Policy converts the configuration into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  r.MaxAttempts,
		InitialDelay: r.InitialDelay,
		Base:         r.ExponentialBase,
		Jitter:       r.Jitter,
	}
}

// OrchestratorConfig tunes batch execution.
type OrchestratorConfig struct {
	Parallel   bool `yaml:"parallel" mapstructure:"parallel"`
	MaxWorkers int  `yaml:"max_workers" mapstructure:"max_workers"`
	// RunTimeout force-fails a run that exceeds it; zero disables.
	RunTimeout time.Duration `yaml:"run_timeout" mapstructure:"run_timeout"`
	Retry      RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

// TargetConfig is one page to validate.
type TargetConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
	// Agents lists agent names to run; empty means all enabled agents.
	Agents []string `yaml:"agents" mapstructure:"agents"`
	// Auth is opaque to the core and handed to the scraper untouched.
	Auth map[string]any `yaml:"auth" mapstructure:"auth"`
}

// OutputConfig selects report rendering.
type OutputConfig struct {
	// Format: text, json, or html.
	Format string `yaml:"format" mapstructure:"format"`
	// Path writes the report to a file; empty means stdout.
	Path string `yaml:"path" mapstructure:"path"`
}

// SetDefaults applies defaults in place.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "simple"
	}

	for name, llm := range c.LLMs {
		if llm.Model == "" {
			switch llm.Provider {
			case "anthropic":
				llm.Model = "claude-sonnet-4-20250514"
			case "openai":
				llm.Model = "gpt-4o"
			case "gemini":
				llm.Model = "gemini-2.0-flash"
			}
		}
		if llm.MaxTokens == 0 {
			llm.MaxTokens = 4096
		}
		if llm.Timeout == 0 {
			llm.Timeout = 2 * time.Minute
		}
		if llm.MaxRetries == 0 {
			llm.MaxRetries = 3
		}
		if llm.RetryDelay == 0 {
			llm.RetryDelay = 2 * time.Second
		}
		c.LLMs[name] = llm
	}

	if c.Browser.Viewport.Width == 0 {
		c.Browser.Viewport.Width = 1920
	}
	if c.Browser.Viewport.Height == 0 {
		c.Browser.Viewport.Height = 1080
	}
	if c.Browser.NavTimeout == 0 {
		c.Browser.NavTimeout = time.Minute
	}
	if c.Browser.Wait == 0 {
		c.Browser.Wait = 2 * time.Second
	}

	if c.Orchestrator.MaxWorkers == 0 {
		c.Orchestrator.MaxWorkers = 4
	}
	if c.Orchestrator.Retry.MaxAttempts == 0 {
		c.Orchestrator.Retry.MaxAttempts = 3
	}
	if c.Orchestrator.Retry.InitialDelay == 0 {
		c.Orchestrator.Retry.InitialDelay = time.Second
	}
	if c.Orchestrator.Retry.ExponentialBase == 0 {
		c.Orchestrator.Retry.ExponentialBase = 2.0
	}

	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
}

// Validate checks the configuration. Target URLs are normalized in place so
// the orchestrator receives admitted addresses.
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		switch llm.Provider {
		case "anthropic", "openai", "gemini":
		default:
			return fmt.Errorf("llm %q: unknown provider %q", name, llm.Provider)
		}
	}

	if err := validate.Viewport(c.Browser.Viewport.Width, c.Browser.Viewport.Height); err != nil {
		return fmt.Errorf("browser: %w", err)
	}

	for name, agent := range c.Agents {
		if agent.LLM != "" {
			if _, ok := c.LLMs[agent.LLM]; !ok {
				return fmt.Errorf("agent %q: unknown llm %q", name, agent.LLM)
			}
		}
		switch agent.Engine {
		case "", "chromedp", "http":
		default:
			return fmt.Errorf("agent %q: unknown engine %q", name, agent.Engine)
		}
	}

	if c.Orchestrator.MaxWorkers < 1 {
		return fmt.Errorf("orchestrator: max_workers must be >= 1, got %d", c.Orchestrator.MaxWorkers)
	}

	for i := range c.Targets {
		normalized, err := validate.URL(c.Targets[i].URL)
		if err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
		c.Targets[i].URL = normalized
	}

	switch c.Output.Format {
	case "text", "json", "html":
	default:
		return fmt.Errorf("output: unknown format %q", c.Output.Format)
	}

	return nil
}
