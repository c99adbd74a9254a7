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

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/kadirpekel/pagecheck/pkg/agents"
	"github.com/kadirpekel/pagecheck/pkg/browser"
	"github.com/kadirpekel/pagecheck/pkg/config"
	"github.com/kadirpekel/pagecheck/pkg/llms"
	"github.com/kadirpekel/pagecheck/pkg/orchestrator"
	"github.com/kadirpekel/pagecheck/pkg/report"
)

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("pagecheck version %s\n", version)
	return nil
}

// RunCmd executes the configured agents against the configured targets.
type RunCmd struct {
	URL    string `help:"Validate a single URL instead of the configured targets."`
	Agent  string `help:"Restrict the run to one agent."`
	Format string `short:"f" help:"Report format: text, json, html. Overrides config." enum:",text,json,html" default:""`
	Output string `short:"o" help:"Write the report to a file. Overrides config." type:"path"`
}

func (c *RunCmd) Run(cli *CLI) error {
	cfg, cleanup, err := setup(cli)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	providers, err := llms.NewRegistryFromConfig(cfg.LLMs)
	if err != nil {
		return err
	}
	defer func() { _ = providers.Close() }()

	chrome, err := browser.NewChromeScraper(cfg.Browser)
	if err != nil {
		return err
	}
	defer chrome.Close()

	scrapers := map[string]browser.Scraper{
		"chromedp": chrome,
		"http":     browser.NewHTTPScraper(cfg.Browser.NavTimeout, cfg.Browser.UserAgent),
	}

	agentRegistry, err := agents.BuildRegistry(cfg, scrapers, providers)
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(agentRegistry, cfg.Orchestrator)
	if err != nil {
		return err
	}

	targets, err := c.targets(cfg)
	if err != nil {
		return err
	}

	slog.Info("starting validation batch",
		"targets", len(targets), "agents", agentRegistry.Len(),
		"parallel", cfg.Orchestrator.Parallel)
	batch := orch.Run(ctx, targets)

	if err := c.render(cfg, batch); err != nil {
		return err
	}

	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d run(s) failed", batch.Failed, batch.Total)
	}
	return nil
}

// targets resolves the batch: the --url flag wins over configured targets.
func (c *RunCmd) targets(cfg *config.Config) ([]orchestrator.Target, error) {
	if c.URL != "" {
		target := orchestrator.Target{URL: c.URL}
		if c.Agent != "" {
			target.Agents = []string{c.Agent}
		}
		return []orchestrator.Target{target}, nil
	}

	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets configured; add a targets section or pass --url")
	}

	targets := make([]orchestrator.Target, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		target := orchestrator.Target{URL: t.URL, Agents: t.Agents, Auth: t.Auth}
		if c.Agent != "" {
			target.Agents = []string{c.Agent}
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// render writes the batch report per flags and config.
func (c *RunCmd) render(cfg *config.Config, batch *orchestrator.Report) error {
	format := c.Format
	if format == "" {
		format = cfg.Output.Format
	}
	reporter, err := report.New(format)
	if err != nil {
		return err
	}

	path := c.Output
	if path == "" {
		path = cfg.Output.Path
	}

	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
		slog.Info("writing report", "path", path, "format", format)
	}

	return reporter.Render(out, batch)
}

// AgentsCmd lists the configured agents and their pipelines.
type AgentsCmd struct{}

func (c *AgentsCmd) Run(cli *CLI) error {
	cfg, cleanup, err := setup(cli)
	if err != nil {
		return err
	}
	defer cleanup()

	for name, agentCfg := range cfg.Agents {
		status := "enabled"
		if !agentCfg.IsEnabled() {
			status = "disabled"
		}
		engine := agentCfg.Engine
		if engine == "" {
			engine = "chromedp"
		}
		fmt.Printf("%s\t%s\tllm=%s engine=%s\n", name, status, agentCfg.LLM, engine)
	}
	return nil
}

// ValidateCmd checks a configuration file without running anything.
type ValidateCmd struct {
	Config string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	_ = config.LoadEnvFiles()

	cfg, err := config.Load(c.Config)
	if err != nil {
		fmt.Printf("✗ %s\n", c.Config)
		return err
	}

	fmt.Printf("✓ %s\n", c.Config)
	fmt.Printf("  llms: %d, agents: %d, targets: %d\n",
		len(cfg.LLMs), len(cfg.Agents), len(cfg.Targets))
	return nil
}
