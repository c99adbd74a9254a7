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

// Command pagecheck validates web pages with model-backed agents.
//
// Usage:
//
//	pagecheck run --config pagecheck.yaml
//	pagecheck run --config pagecheck.yaml --url https://example.com
//	pagecheck agents --config pagecheck.yaml
//	pagecheck validate pagecheck.yaml
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/pagecheck/pkg/config"
	"github.com/kadirpekel/pagecheck/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Run      RunCmd      `cmd:"" help:"Run validation agents against the configured targets."`
	Agents   AgentsCmd   `cmd:"" help:"List the configured agents."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path" default:"pagecheck.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error). Overrides config."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose). Overrides config." enum:",simple,verbose" default:""`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("pagecheck"),
		kong.Description("Model-backed validation for web pages."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads .env files, the configuration, and installs the logger.
// CLI flags win over config values for logging.
func setup(cli *CLI) (*config.Config, func(), error) {
	_ = config.LoadEnvFiles()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, nil, err
	}

	level := cli.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	format := cli.LogFormat
	if format == "" {
		format = cfg.LogFormat
	}

	cleanup, err := logger.Init(logger.Options{
		Level:  level,
		Format: format,
		File:   cli.LogFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	return cfg, cleanup, nil
}
