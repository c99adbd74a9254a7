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

// Package agents provides the built-in validation agents. Each agent is a
// three-step pipeline: collect page content, analyze it with a model, and
// render a per-run summary.
package agents

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/pagecheck/pkg/agent"
	"github.com/kadirpekel/pagecheck/pkg/browser"
	"github.com/kadirpekel/pagecheck/pkg/config"
	"github.com/kadirpekel/pagecheck/pkg/llms"
	"github.com/kadirpekel/pagecheck/pkg/pipeline"
	"github.com/kadirpekel/pagecheck/pkg/retry"
	"github.com/kadirpekel/pagecheck/pkg/textutil"
)

//go:embed prompts/*.md
var promptFS embed.FS

// pageTextToken is the placeholder in prompt templates replaced with the
// scraped page text.
const pageTextToken = "{{PAGE_TEXT}}"

// defaultMaxTextChars caps the page text handed to the model.
const defaultMaxTextChars = 12000

// Deps are the collaborators an agent's steps call out to.
type Deps struct {
	Scraper browser.Scraper
	LLM     llms.Provider
	// Retry is applied to each collaborator-facing step. The zero value
	// disables retries for that agent.
	Retry retry.Policy
}

func (d Deps) validate(agentName string) error {
	if d.Scraper == nil {
		return fmt.Errorf("agent %q: scraper is required", agentName)
	}
	if d.LLM == nil {
		return fmt.Errorf("agent %q: llm provider is required", agentName)
	}
	return nil
}

// stagePolicy returns the retry policy pointer for collaborator steps, or nil
// when retries are disabled.
func (d Deps) stagePolicy() *retry.Policy {
	if d.Retry.MaxAttempts == 0 {
		return nil
	}
	p := d.Retry
	return &p
}

// Options are the agent-specific settings decoded from the configuration's
// free-form options map.
type Options struct {
	// MaxTextChars caps the scraped text included in the prompt.
	MaxTextChars int `mapstructure:"max_text_chars"`
}

// DecodeOptions interprets an agent's free-form options map.
func DecodeOptions(raw map[string]any) (Options, error) {
	opts := Options{MaxTextChars: defaultMaxTextChars}
	if len(raw) == 0 {
		return opts, nil
	}
	if err := mapstructure.Decode(raw, &opts); err != nil {
		return Options{}, fmt.Errorf("invalid agent options: %w", err)
	}
	if opts.MaxTextChars <= 0 {
		opts.MaxTextChars = defaultMaxTextChars
	}
	return opts, nil
}

// loadPrompt reads an embedded prompt template by file name.
func loadPrompt(name string) (string, error) {
	data, err := promptFS.ReadFile("prompts/" + name)
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", name, err)
	}
	return string(data), nil
}

// analysisResponse is the JSON document the prompts instruct the model to
// return.
type analysisResponse struct {
	Findings []pipeline.Finding `json:"findings"`
}

// parseFindings decodes the model's response into findings. A response that
// is not the expected JSON degrades to zero findings with a warning rather
// than failing the run; the model's failure to follow instructions is not a
// page defect.
func parseFindings(agentName, raw string) []pipeline.Finding {
	payload := llms.ExtractJSONBlock(raw)

	var resp analysisResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		slog.Warn("model returned malformed analysis, treating as no findings",
			"agent", agentName, "error", err,
			"response", textutil.Truncate(raw, 200))
		return nil
	}
	return resp.Findings
}

// scrapeTextStep extracts and normalizes the page text.
func scrapeTextStep(deps Deps, maxChars int) pipeline.Step {
	return pipeline.StepFunc{
		StepName: "scrape",
		Fn: func(ctx context.Context, state *pipeline.State) error {
			text, err := deps.Scraper.Text(ctx, state.TargetURL, state.Auth)
			if err != nil {
				return err
			}
			state.RawText = textutil.Clean(text, maxChars)
			if state.RawText == "" {
				return retry.Permanent(fmt.Errorf("page %s has no visible text", state.TargetURL))
			}
			return nil
		},
	}
}

// analyzeStep sends the prompt to the model and records the findings.
// buildParts assembles the prompt from the current state.
func analyzeStep(deps Deps, agentName string, buildParts func(state *pipeline.State) []llms.ContentPart) pipeline.Step {
	return pipeline.StepFunc{
		StepName: "analyze",
		Fn: func(ctx context.Context, state *pipeline.State) error {
			text, tokens, err := deps.LLM.Generate(ctx, buildParts(state))
			if err != nil {
				return err
			}
			slog.Debug("analysis complete",
				"agent", agentName, "model", deps.LLM.ModelName(), "tokens", tokens)

			state.Findings = append(state.Findings, parseFindings(agentName, text)...)
			return nil
		},
	}
}

// reportStep renders the per-run summary into the state.
func reportStep(agentName string) pipeline.Step {
	return pipeline.StepFunc{
		StepName: "report",
		Fn: func(ctx context.Context, state *pipeline.State) error {
			state.Report = Summarize(agentName, state)
			return nil
		},
	}
}

// Summarize renders a short human-readable summary of a run's findings.
func Summarize(agentName string, state *pipeline.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", agentName, state.TargetURL)

	if len(state.Findings) == 0 {
		sb.WriteString("No issues found.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "%d issue(s) found:\n", len(state.Findings))
	for i, f := range state.Findings {
		fmt.Fprintf(&sb, "%d. [%s/%s] %s", i+1, f.Category, f.Severity, f.Description)
		if f.Original != "" && f.Correction != "" {
			fmt.Fprintf(&sb, " (%q -> %q)", f.Original, f.Correction)
		}
		if f.Location != "" {
			fmt.Fprintf(&sb, " @ %s", f.Location)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Register builds the named built-in agent and adds it to the registry.
func Register(reg *agent.Registry, name string, deps Deps, opts Options) error {
	var def *agent.Definition
	var err error

	switch name {
	case SpellCheckerName:
		def, err = NewSpellChecker(deps, opts)
	case VisualQAName:
		def, err = NewVisualQA(deps, opts)
	default:
		return fmt.Errorf("no built-in agent named %q", name)
	}
	if err != nil {
		return err
	}
	return reg.Register(def)
}

// BuildRegistry constructs every enabled agent from configuration and returns
// a frozen registry.
func BuildRegistry(cfg *config.Config, scrapers map[string]browser.Scraper, providers *llms.Registry) (*agent.Registry, error) {
	reg := agent.NewRegistry()

	for name, agentCfg := range cfg.Agents {
		if !agentCfg.IsEnabled() {
			slog.Debug("agent disabled", "agent", name)
			continue
		}

		engine := agentCfg.Engine
		if engine == "" {
			engine = "chromedp"
		}
		scraper, ok := scrapers[engine]
		if !ok {
			return nil, fmt.Errorf("agent %q: unknown engine %q", name, engine)
		}

		llmName := agentCfg.LLM
		if llmName == "" {
			// A single configured provider serves agents that name none.
			if names := providers.Names(); len(names) == 1 {
				llmName = names[0]
			} else {
				return nil, fmt.Errorf("agent %q: llm is required when multiple providers are configured", name)
			}
		}
		provider, err := providers.Lookup(llmName)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", name, err)
		}

		opts, err := DecodeOptions(agentCfg.Options)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", name, err)
		}

		deps := Deps{
			Scraper: scraper,
			LLM:     provider,
			Retry:   cfg.Orchestrator.Retry.Policy(),
		}
		if err := Register(reg, name, deps, opts); err != nil {
			return nil, err
		}
	}

	if reg.Len() == 0 {
		return nil, fmt.Errorf("no agents enabled")
	}

	reg.Freeze()
	return reg, nil
}
