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

// Package pipeline implements the linear validation pipeline: an ordered
// sequence of steps that share one mutable state. Execution is strictly
// sequential and halts on the first step failure; steps may carry their own
// retry policy for transient collaborator errors.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kadirpekel/pagecheck/pkg/retry"
)

// Finding is a single validation issue detected on a page.
type Finding struct {
	// Category groups findings, e.g. "spelling", "grammar", "layout".
	Category string `json:"category"`
	// Severity: "low", "medium", "high".
	Severity string `json:"severity"`
	// Description explains the issue in one sentence.
	Description string `json:"description"`
	// Location describes where on the page the issue appears.
	Location string `json:"location,omitempty"`
	// Original is the offending text, when applicable.
	Original string `json:"original,omitempty"`
	// Correction is the suggested fix, when applicable.
	Correction string `json:"correction,omitempty"`
	// Context is surrounding text to help locate the issue.
	Context string `json:"context,omitempty"`
}

// State is the shared scratchpad a pipeline run mutates. Each run gets a
// fresh State from its agent's factory; states are never shared between runs.
type State struct {
	// TargetURL is the normalized page URL under validation.
	TargetURL string `json:"target_url"`
	// Auth is the target's opaque auth descriptor, passed through to the
	// scraper uninterpreted.
	Auth map[string]any `json:"-"`

	// RawText is the extracted page text, filled by a scrape step.
	RawText string `json:"-"`
	// Screenshot is a base64 PNG capture, filled by a capture step.
	Screenshot string `json:"-"`

	// Findings accumulates validation issues across analysis steps.
	Findings []Finding `json:"findings"`
	// Report is the human-readable summary produced by a report step.
	Report string `json:"report,omitempty"`
}

// Step is one unit of work in a pipeline. Run mutates the shared state and
// returns an error to halt the pipeline.
type Step interface {
	Name() string
	Run(ctx context.Context, state *State) error
}

// StepFunc adapts a function to the Step interface.
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context, state *State) error
}

func (s StepFunc) Name() string { return s.StepName }

func (s StepFunc) Run(ctx context.Context, state *State) error { return s.Fn(ctx, state) }

// Stage binds a step to an optional retry policy. A nil policy means the
// step runs exactly once.
type Stage struct {
	Step  Step
	Retry *retry.Policy
}

// Pipeline is an ordered, non-empty sequence of stages.
type Pipeline struct {
	stages []Stage
}

// New builds a pipeline from the given stages. At least one stage is
// required, every stage needs a step, and attached retry policies must be
// valid.
func New(stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline: at least one stage is required")
	}
	for i, stage := range stages {
		if stage.Step == nil {
			return nil, fmt.Errorf("pipeline: stage %d has no step", i)
		}
		if stage.Retry != nil {
			if err := stage.Retry.Validate(); err != nil {
				return nil, fmt.Errorf("pipeline: stage %q: %w", stage.Step.Name(), err)
			}
		}
	}
	return &Pipeline{stages: stages}, nil
}

// Len returns the number of stages.
func (p *Pipeline) Len() int { return len(p.stages) }

// StepNames returns the stage step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.stages))
	for i, stage := range p.stages {
		names[i] = stage.Step.Name()
	}
	return names
}

// Run executes the stages in order against state. The first failing stage
// halts the run and its error is returned wrapped with the step name;
// subsequent stages do not execute. Steps with a retry policy are re-attempted
// per that policy before the failure counts.
func (p *Pipeline) Run(ctx context.Context, state *State) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := stage.Step.Name()
		started := time.Now()

		var err error
		if stage.Retry != nil {
			err = stage.Retry.Do(ctx, func() error {
				return stage.Step.Run(ctx, state)
			})
		} else {
			err = stage.Step.Run(ctx, state)
		}

		if err != nil {
			slog.Debug("pipeline step failed",
				"step", name, "duration", time.Since(started), "error", err)
			return fmt.Errorf("step %q: %w", name, err)
		}
		slog.Debug("pipeline step completed", "step", name, "duration", time.Since(started))
	}
	return nil
}
