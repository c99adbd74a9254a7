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

// Package orchestrator executes validation runs over a batch of targets.
// Every (target, agent) pair becomes exactly one run result; a pair that
// cannot run still produces a failed result, so nothing is silently dropped.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/pagecheck/pkg/agent"
	"github.com/kadirpekel/pagecheck/pkg/config"
	"github.com/kadirpekel/pagecheck/pkg/pipeline"
	"github.com/kadirpekel/pagecheck/pkg/validate"
)

// Status is the lifecycle state of one run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Target is one page to validate.
type Target struct {
	// URL is the page address; it is normalized at admission.
	URL string
	// Agents lists agent names to run against this target. Empty means every
	// registered agent.
	Agents []string
	// Auth is the opaque auth descriptor handed to the scraper.
	Auth map[string]any
}

// RunResult is the outcome of one (target, agent) pair.
type RunResult struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`
	// Agent is the agent name, as submitted even when unknown.
	Agent string `json:"agent"`
	// TargetURL is the submitted URL, normalized when valid.
	TargetURL string `json:"target_url"`

	Status Status `json:"status"`

	// State is the final pipeline state of a succeeded run. Failed runs carry
	// only the error; partial state is discarded.
	State *pipeline.State `json:"state,omitempty"`

	// Err is the failure cause for program use; Error carries it in rendered
	// reports.
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Findings returns the run's findings, nil-safe.
func (r RunResult) Findings() []pipeline.Finding {
	if r.State == nil {
		return nil
	}
	return r.State.Findings
}

// Report is the outcome of one batch, with results in submission order.
type Report struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Results     []RunResult `json:"results"`

	Total         int `json:"total"`
	Succeeded     int `json:"succeeded"`
	Failed        int `json:"failed"`
	TotalFindings int `json:"total_findings"`
}

// Orchestrator fans a batch of targets out over registered agents.
type Orchestrator struct {
	agents     *agent.Registry
	parallel   bool
	maxWorkers int
	runTimeout time.Duration
}

// New creates an orchestrator over a frozen agent registry.
func New(agents *agent.Registry, cfg config.OrchestratorConfig) (*Orchestrator, error) {
	if agents == nil {
		return nil, fmt.Errorf("orchestrator: agent registry is required")
	}
	if !agents.Frozen() {
		return nil, fmt.Errorf("orchestrator: agent registry must be frozen before runs start")
	}
	workers := cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		agents:     agents,
		parallel:   cfg.Parallel,
		maxWorkers: workers,
		runTimeout: cfg.RunTimeout,
	}, nil
}

// job is one admitted (target, agent) pair awaiting execution.
type job struct {
	index  int
	result RunResult
	def    *agent.Definition
	auth   map[string]any
}

// Run executes every (target, agent) pair and returns the batch report.
// Pairs whose target URL is invalid or whose agent is unknown fail
// individually without aborting the batch. Results appear in submission
// order regardless of execution order.
func (o *Orchestrator) Run(ctx context.Context, targets []Target) *Report {
	jobs, results := o.admit(targets)

	if o.parallel {
		o.runParallel(ctx, jobs, results)
	} else {
		o.runSequential(ctx, jobs, results)
	}

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Results:     results,
		Total:       len(results),
	}
	for i := range results {
		switch results[i].Status {
		case StatusSucceeded:
			report.Succeeded++
		default:
			report.Failed++
		}
		report.TotalFindings += len(results[i].Findings())
	}

	slog.Info("batch complete",
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"findings", report.TotalFindings)
	return report
}

// admit expands targets into pairs, pre-failing those that cannot run. The
// returned results slice is indexed by submission position; jobs reference
// their slot by index.
func (o *Orchestrator) admit(targets []Target) ([]job, []RunResult) {
	var jobs []job
	var results []RunResult

	for _, target := range targets {
		agentNames := target.Agents
		if len(agentNames) == 0 {
			agentNames = o.agents.Names()
		}

		normalized, urlErr := validate.URL(target.URL)

		for _, name := range agentNames {
			result := RunResult{
				ID:        uuid.NewString(),
				Agent:     name,
				TargetURL: target.URL,
				Status:    StatusPending,
			}

			if urlErr != nil {
				result.Status = StatusFailed
				result.Err = urlErr
				result.Error = urlErr.Error()
				results = append(results, result)
				continue
			}
			result.TargetURL = normalized

			def, err := o.agents.Get(name)
			if err != nil {
				result.Status = StatusFailed
				result.Err = err
				result.Error = err.Error()
				results = append(results, result)
				continue
			}

			index := len(results)
			results = append(results, result)
			jobs = append(jobs, job{index: index, result: result, def: def, auth: target.Auth})
		}
	}

	return jobs, results
}

func (o *Orchestrator) runSequential(ctx context.Context, jobs []job, results []RunResult) {
	for _, j := range jobs {
		results[j.index] = o.execute(ctx, j)
	}
}

func (o *Orchestrator) runParallel(ctx context.Context, jobs []job, results []RunResult) {
	g := &errgroup.Group{}
	g.SetLimit(o.maxWorkers)

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			results[j.index] = o.execute(ctx, j)
			return nil
		})
	}
	g.Wait()
}

// execute runs one admitted pair through its agent's pipeline.
func (o *Orchestrator) execute(ctx context.Context, j job) RunResult {
	result := j.result
	result.Status = StatusRunning

	runCtx := ctx
	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	slog.Debug("run started", "run_id", result.ID, "agent", result.Agent, "url", result.TargetURL)
	started := time.Now()

	state := j.def.NewState(result.TargetURL, j.auth)
	err := j.def.Pipeline().Run(runCtx, state)

	result.Duration = time.Since(started)

	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		result.Error = err.Error()
		// The state is half-written at the point of failure; only the error
		// is reported, never partial findings.
		slog.Warn("run failed",
			"run_id", result.ID, "agent", result.Agent, "url", result.TargetURL,
			"duration", result.Duration, "error", err)
		return result
	}

	result.Status = StatusSucceeded
	result.State = state
	slog.Info("run succeeded",
		"run_id", result.ID, "agent", result.Agent, "url", result.TargetURL,
		"duration", result.Duration, "findings", len(state.Findings))
	return result
}
