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

// Package agent defines validation agents: a named pipeline plus a factory
// for the run's initial state. Agents are registered once during startup and
// looked up by name for every run.
package agent

import (
	"errors"
	"fmt"

	"github.com/kadirpekel/pagecheck/pkg/pipeline"
	"github.com/kadirpekel/pagecheck/pkg/registry"
)

// ErrUnknownAgent is returned by Registry.Get for names never registered.
// Detect it with errors.Is.
var ErrUnknownAgent = errors.New("unknown agent")

// StateFactory builds the initial pipeline state for one run. The factory is
// invoked once per (target, agent) pair; it must return a fresh value every
// time so concurrent runs never share state.
type StateFactory func(targetURL string, auth map[string]any) *pipeline.State

// Definition is a validation agent: a name, the pipeline its runs execute,
// and the factory seeding each run's state.
type Definition struct {
	name     string
	desc     string
	pipeline *pipeline.Pipeline
	initial  StateFactory
}

// New builds an agent definition. Name and pipeline are required; when the
// factory is nil a default producing a bare state with the target's URL and
// auth is used.
func New(name, desc string, p *pipeline.Pipeline, factory StateFactory) (*Definition, error) {
	if name == "" {
		return nil, fmt.Errorf("agent: name is required")
	}
	if p == nil {
		return nil, fmt.Errorf("agent %q: pipeline is required", name)
	}
	if factory == nil {
		factory = func(targetURL string, auth map[string]any) *pipeline.State {
			return &pipeline.State{TargetURL: targetURL, Auth: auth}
		}
	}
	return &Definition{name: name, desc: desc, pipeline: p, initial: factory}, nil
}

// Name returns the agent's registered name.
func (d *Definition) Name() string { return d.name }

// Description returns the agent's one-line description.
func (d *Definition) Description() string { return d.desc }

// Pipeline returns the agent's pipeline.
func (d *Definition) Pipeline() *pipeline.Pipeline { return d.pipeline }

// NewState produces a fresh initial state for a run against the given target.
func (d *Definition) NewState(targetURL string, auth map[string]any) *pipeline.State {
	return d.initial(targetURL, auth)
}

// Registry is the process-wide agent catalog. It is populated during startup,
// frozen before the first run, and read-only thereafter.
type Registry struct {
	reg *registry.Registry[*Definition]
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{reg: registry.New[*Definition]()}
}

// Register adds an agent. Duplicate names and post-freeze registration fail.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("agent: cannot register nil definition")
	}
	return r.reg.Register(def.Name(), def)
}

// Freeze makes the registry read-only. Lookups after Freeze are safe for
// unsynchronized concurrent use.
func (r *Registry) Freeze() { r.reg.Freeze() }

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.reg.Frozen() }

// Get returns the agent registered under name, or ErrUnknownAgent.
func (r *Registry) Get(name string) (*Definition, error) {
	def, ok := r.reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}
	return def, nil
}

// Names returns the registered agent names in registration order.
func (r *Registry) Names() []string { return r.reg.Names() }

// Len returns the number of registered agents.
func (r *Registry) Len() int { return r.reg.Len() }
