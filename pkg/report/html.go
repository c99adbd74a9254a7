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

package report

import (
	"html/template"
	"io"

	"github.com/kadirpekel/pagecheck/pkg/orchestrator"
)

// HTMLReporter renders a self-contained HTML page.
type HTMLReporter struct{}

func (h *HTMLReporter) Render(w io.Writer, report *orchestrator.Report) error {
	return htmlTemplate.Execute(w, report)
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Validation Report</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
  h1 { font-size: 1.4rem; }
  .summary { color: #555; margin-bottom: 1.5rem; }
  .run { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; margin-bottom: 1rem; }
  .run h2 { font-size: 1rem; margin: 0 0 .5rem; }
  .SUCCEEDED { color: #1a7f37; }
  .FAILED { color: #cf222e; }
  .error { color: #cf222e; font-family: monospace; }
  table { border-collapse: collapse; width: 100%; margin-top: .5rem; }
  th, td { text-align: left; padding: .3rem .6rem; border-bottom: 1px solid #eee; font-size: .9rem; }
  .severity-high { color: #cf222e; font-weight: 600; }
  .severity-medium { color: #9a6700; }
  .severity-low { color: #555; }
</style>
</head>
<body>
<h1>Validation Report</h1>
<p class="summary">
  Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}} —
  {{.Total}} run(s), {{.Succeeded}} succeeded, {{.Failed}} failed,
  {{.TotalFindings}} finding(s)
</p>
{{range .Results}}
<div class="run">
  <h2><span class="{{.Status}}">{{.Status}}</span> {{.Agent}} — {{.TargetURL}}</h2>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  {{with .Findings}}
  <table>
    <tr><th>Category</th><th>Severity</th><th>Description</th><th>Detail</th></tr>
    {{range .}}
    <tr>
      <td>{{.Category}}</td>
      <td class="severity-{{.Severity}}">{{.Severity}}</td>
      <td>{{.Description}}</td>
      <td>
        {{if .Original}}<code>{{.Original}}</code> &rarr; <code>{{.Correction}}</code>{{end}}
        {{if .Location}}{{.Location}}{{end}}
      </td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <p>No issues found.</p>
  {{end}}
</div>
{{end}}
</body>
</html>
`))
