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

// Package report renders batch reports as text, JSON, or HTML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kadirpekel/pagecheck/pkg/orchestrator"
)

// Reporter renders a batch report to a writer.
type Reporter interface {
	Render(w io.Writer, report *orchestrator.Report) error
}

// New returns the reporter for the given format: "text", "json", or "html".
func New(format string) (Reporter, error) {
	switch format {
	case "", "text":
		return &TextReporter{}, nil
	case "json":
		return &JSONReporter{}, nil
	case "html":
		return &HTMLReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown report format: %q", format)
	}
}

// TextReporter renders a plain-text summary for terminals.
type TextReporter struct{}

func (t *TextReporter) Render(w io.Writer, report *orchestrator.Report) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Validation report — %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Runs: %d total, %d succeeded, %d failed — %d finding(s)\n\n",
		report.Total, report.Succeeded, report.Failed, report.TotalFindings)

	for _, r := range report.Results {
		fmt.Fprintf(&sb, "[%s] %s @ %s (%s)\n", r.Status, r.Agent, r.TargetURL, r.Duration.Round(time.Millisecond))
		if r.Error != "" {
			fmt.Fprintf(&sb, "  error: %s\n", r.Error)
		}
		for i, f := range r.Findings() {
			fmt.Fprintf(&sb, "  %d. [%s/%s] %s", i+1, f.Category, f.Severity, f.Description)
			if f.Original != "" && f.Correction != "" {
				fmt.Fprintf(&sb, " (%q -> %q)", f.Original, f.Correction)
			}
			if f.Location != "" {
				fmt.Fprintf(&sb, " @ %s", f.Location)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// JSONReporter renders the report as indented JSON for machine consumers.
type JSONReporter struct{}

func (j *JSONReporter) Render(w io.Writer, report *orchestrator.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
