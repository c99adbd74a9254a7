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
	"strings"

	"github.com/kadirpekel/pagecheck/pkg/agent"
	"github.com/kadirpekel/pagecheck/pkg/llms"
	"github.com/kadirpekel/pagecheck/pkg/pipeline"
)

// SpellCheckerName is the registry name of the spelling and grammar agent.
const SpellCheckerName = "spell_checker"

// NewSpellChecker builds the spelling and grammar agent: scrape the page
// text, ask the model for spelling and grammar issues, and summarize.
func NewSpellChecker(deps Deps, opts Options) (*agent.Definition, error) {
	if err := deps.validate(SpellCheckerName); err != nil {
		return nil, err
	}

	prompt, err := loadPrompt("spell_checker.md")
	if err != nil {
		return nil, err
	}

	buildParts := func(state *pipeline.State) []llms.ContentPart {
		return []llms.ContentPart{
			llms.TextPart(strings.ReplaceAll(prompt, pageTextToken, state.RawText)),
		}
	}

	p, err := pipeline.New(
		pipeline.Stage{Step: scrapeTextStep(deps, opts.MaxTextChars), Retry: deps.stagePolicy()},
		pipeline.Stage{Step: analyzeStep(deps, SpellCheckerName, buildParts), Retry: deps.stagePolicy()},
		pipeline.Stage{Step: reportStep(SpellCheckerName)},
	)
	if err != nil {
		return nil, err
	}

	return agent.New(SpellCheckerName, "Checks page text for spelling and grammar issues", p, nil)
}
