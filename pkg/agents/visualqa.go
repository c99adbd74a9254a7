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

package agents

import (
	"context"
	"fmt"

	"github.com/kadirpekel/pagecheck/pkg/agent"
	"github.com/kadirpekel/pagecheck/pkg/llms"
	"github.com/kadirpekel/pagecheck/pkg/pipeline"
	"github.com/kadirpekel/pagecheck/pkg/retry"
)

// VisualQAName is the registry name of the visual inspection agent.
const VisualQAName = "visual_qa"

// NewVisualQA builds the visual inspection agent: capture a full-page
// screenshot, ask a vision model for layout and rendering issues, and
// summarize. The configured model must support vision.
func NewVisualQA(deps Deps, opts Options) (*agent.Definition, error) {
	if err := deps.validate(VisualQAName); err != nil {
		return nil, err
	}
	if !deps.LLM.SupportsVision() {
		return nil, fmt.Errorf("agent %q: model %q does not accept images",
			VisualQAName, deps.LLM.ModelName())
	}

	prompt, err := loadPrompt("visual_qa.md")
	if err != nil {
		return nil, err
	}

	capture := pipeline.StepFunc{
		StepName: "capture",
		Fn: func(ctx context.Context, state *pipeline.State) error {
			shot, err := deps.Scraper.Screenshot(ctx, state.TargetURL, state.Auth)
			if err != nil {
				return err
			}
			if shot == "" {
				return retry.Transient(fmt.Errorf("empty screenshot for %s", state.TargetURL))
			}
			state.Screenshot = shot
			return nil
		},
	}

	buildParts := func(state *pipeline.State) []llms.ContentPart {
		return []llms.ContentPart{
			llms.TextPart(prompt),
			llms.ImagePart("image/png", state.Screenshot),
		}
	}

	p, err := pipeline.New(
		pipeline.Stage{Step: capture, Retry: deps.stagePolicy()},
		pipeline.Stage{Step: analyzeStep(deps, VisualQAName, buildParts), Retry: deps.stagePolicy()},
		pipeline.Stage{Step: reportStep(VisualQAName)},
	)
	if err != nil {
		return nil, err
	}

	return agent.New(VisualQAName, "Inspects a page screenshot for layout and rendering issues", p, nil)
}
