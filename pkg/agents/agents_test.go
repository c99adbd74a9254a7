package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kadirpekel/pagecheck/pkg/browser"
	"github.com/kadirpekel/pagecheck/pkg/config"
	"github.com/kadirpekel/pagecheck/pkg/llms"
	"github.com/kadirpekel/pagecheck/pkg/pipeline"
	"github.com/kadirpekel/pagecheck/pkg/retry"
)

// fakeScraper serves canned text/screenshots and can fail the first N calls.
type fakeScraper struct {
	text       string
	screenshot string
	failFirst  int
	failErr    error
	textCalls  int
	shotCalls  int
}

func (f *fakeScraper) Text(ctx context.Context, url string, auth map[string]any) (string, error) {
	f.textCalls++
	if f.textCalls <= f.failFirst {
		return "", f.failErr
	}
	return f.text, nil
}

func (f *fakeScraper) Screenshot(ctx context.Context, url string, auth map[string]any) (string, error) {
	f.shotCalls++
	if f.shotCalls <= f.failFirst {
		return "", f.failErr
	}
	return f.screenshot, nil
}

// fakeLLM returns a canned response and records the parts it was given.
type fakeLLM struct {
	response string
	err      error
	vision   bool
	calls    int
	gotParts []llms.ContentPart
}

func (f *fakeLLM) Generate(ctx context.Context, parts []llms.ContentPart) (string, int, error) {
	f.calls++
	f.gotParts = parts
	if f.err != nil {
		return "", 0, f.err
	}
	return f.response, 42, nil
}

func (f *fakeLLM) ModelName() string    { return "fake-model" }
func (f *fakeLLM) SupportsVision() bool { return f.vision }
func (f *fakeLLM) Close() error         { return nil }

func quickPolicy(maxAttempts int) retry.Policy {
	return retry.Policy{MaxAttempts: maxAttempts, InitialDelay: time.Millisecond, Base: 2.0}
}

func TestSpellChecker_FindsTypo(t *testing.T) {
	scraper := &fakeScraper{text: "this is teh text"}
	llm := &fakeLLM{response: `{"findings": [{
		"category": "spelling",
		"severity": "low",
		"description": "misspelling of 'the'",
		"original": "teh",
		"correction": "the",
		"context": "this is teh text"
	}]}`}

	def, err := NewSpellChecker(Deps{Scraper: scraper, LLM: llm}, Options{MaxTextChars: defaultMaxTextChars})
	if err != nil {
		t.Fatalf("NewSpellChecker() error = %v", err)
	}

	state := def.NewState("https://example.com", nil)
	if err := def.Pipeline().Run(context.Background(), state); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(state.Findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(state.Findings))
	}
	f := state.Findings[0]
	if f.Original != "teh" || f.Correction != "the" {
		t.Errorf("finding = %+v, want teh -> the", f)
	}
	if !strings.Contains(state.Report, "teh") {
		t.Errorf("report %q should mention the typo", state.Report)
	}

	// The prompt must carry the scraped text.
	if len(llm.gotParts) != 1 || !strings.Contains(llm.gotParts[0].Text, "this is teh text") {
		t.Errorf("prompt parts = %+v, want page text embedded", llm.gotParts)
	}
}

func TestSpellChecker_CleanTextNoFindings(t *testing.T) {
	scraper := &fakeScraper{text: "perfectly fine prose"}
	llm := &fakeLLM{response: `{"findings": []}`}

	def, err := NewSpellChecker(Deps{Scraper: scraper, LLM: llm}, Options{MaxTextChars: defaultMaxTextChars})
	if err != nil {
		t.Fatalf("NewSpellChecker() error = %v", err)
	}

	state := def.NewState("https://example.com", nil)
	if err := def.Pipeline().Run(context.Background(), state); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(state.Findings) != 0 {
		t.Errorf("findings = %+v, want none", state.Findings)
	}
	if !strings.Contains(state.Report, "No issues found") {
		t.Errorf("report = %q", state.Report)
	}
}

func TestSpellChecker_RetriesTransientScrape(t *testing.T) {
	scraper := &fakeScraper{
		text:      "this is teh text",
		failFirst: 2,
		failErr:   retry.Transient(errors.New("navigation timed out")),
	}
	llm := &fakeLLM{response: `{"findings": []}`}

	def, err := NewSpellChecker(
		Deps{Scraper: scraper, LLM: llm, Retry: quickPolicy(3)},
		Options{MaxTextChars: defaultMaxTextChars},
	)
	if err != nil {
		t.Fatalf("NewSpellChecker() error = %v", err)
	}

	state := def.NewState("https://example.com", nil)
	if err := def.Pipeline().Run(context.Background(), state); err != nil {
		t.Fatalf("Run() error = %v, want success after retries", err)
	}
	if scraper.textCalls != 3 {
		t.Errorf("scraper called %d times, want 3", scraper.textCalls)
	}
	if llm.calls != 1 {
		t.Errorf("llm called %d times, want 1", llm.calls)
	}
}

func TestSpellChecker_ExhaustedRetriesFailRun(t *testing.T) {
	scraper := &fakeScraper{
		failFirst: 100,
		failErr:   retry.Transient(errors.New("navigation timed out")),
	}
	llm := &fakeLLM{}

	def, err := NewSpellChecker(
		Deps{Scraper: scraper, LLM: llm, Retry: quickPolicy(3)},
		Options{MaxTextChars: defaultMaxTextChars},
	)
	if err != nil {
		t.Fatalf("NewSpellChecker() error = %v", err)
	}

	runErr := def.Pipeline().Run(context.Background(), def.NewState("https://example.com", nil))
	if !errors.Is(runErr, retry.ErrExhausted) {
		t.Fatalf("Run() error = %v, want ErrExhausted", runErr)
	}
	if scraper.textCalls != 3 {
		t.Errorf("scraper called %d times, want 3", scraper.textCalls)
	}
	if llm.calls != 0 {
		t.Errorf("llm called %d times after scrape failure, want 0", llm.calls)
	}
}

func TestSpellChecker_MalformedModelOutputDegrades(t *testing.T) {
	scraper := &fakeScraper{text: "some page text"}
	llm := &fakeLLM{response: "I found no issues, great page!"}

	def, err := NewSpellChecker(Deps{Scraper: scraper, LLM: llm}, Options{MaxTextChars: defaultMaxTextChars})
	if err != nil {
		t.Fatalf("NewSpellChecker() error = %v", err)
	}

	state := def.NewState("https://example.com", nil)
	if err := def.Pipeline().Run(context.Background(), state); err != nil {
		t.Fatalf("Run() error = %v, malformed output should degrade, not fail", err)
	}
	if len(state.Findings) != 0 {
		t.Errorf("findings = %+v, want none", state.Findings)
	}
}

func TestSpellChecker_FencedJSONAccepted(t *testing.T) {
	scraper := &fakeScraper{text: "this is teh text"}
	llm := &fakeLLM{response: "```json\n{\"findings\": [{\"category\": \"spelling\", \"original\": \"teh\", \"correction\": \"the\", \"description\": \"typo\"}]}\n```"}

	def, err := NewSpellChecker(Deps{Scraper: scraper, LLM: llm}, Options{MaxTextChars: defaultMaxTextChars})
	if err != nil {
		t.Fatalf("NewSpellChecker() error = %v", err)
	}

	state := def.NewState("https://example.com", nil)
	if err := def.Pipeline().Run(context.Background(), state); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(state.Findings) != 1 {
		t.Errorf("got %d findings, want 1", len(state.Findings))
	}
}

func TestSpellChecker_EmptyPageFailsPermanently(t *testing.T) {
	scraper := &fakeScraper{text: "   \n\t  "}
	llm := &fakeLLM{}

	def, err := NewSpellChecker(
		Deps{Scraper: scraper, LLM: llm, Retry: quickPolicy(3)},
		Options{MaxTextChars: defaultMaxTextChars},
	)
	if err != nil {
		t.Fatalf("NewSpellChecker() error = %v", err)
	}

	runErr := def.Pipeline().Run(context.Background(), def.NewState("https://example.com", nil))
	if runErr == nil {
		t.Fatal("expected error for empty page")
	}
	if scraper.textCalls != 1 {
		t.Errorf("scraper called %d times, want 1 (permanent failure)", scraper.textCalls)
	}
}

func TestVisualQA_RequiresVisionModel(t *testing.T) {
	deps := Deps{Scraper: &fakeScraper{}, LLM: &fakeLLM{vision: false}}
	if _, err := NewVisualQA(deps, Options{}); err == nil {
		t.Error("text-only model should be rejected")
	}
}

func TestVisualQA_SendsScreenshot(t *testing.T) {
	scraper := &fakeScraper{screenshot: "aGVsbG8="}
	llm := &fakeLLM{
		vision:   true,
		response: `{"findings": [{"category": "layout", "severity": "medium", "description": "header overlaps hero image", "location": "top of page"}]}`,
	}

	def, err := NewVisualQA(Deps{Scraper: scraper, LLM: llm}, Options{})
	if err != nil {
		t.Fatalf("NewVisualQA() error = %v", err)
	}

	state := def.NewState("https://example.com", nil)
	if err := def.Pipeline().Run(context.Background(), state); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(llm.gotParts) != 2 {
		t.Fatalf("got %d parts, want prompt + image", len(llm.gotParts))
	}
	if llm.gotParts[1].Type != llms.ContentPartTypeImageBase64 || llm.gotParts[1].Data != "aGVsbG8=" {
		t.Errorf("image part = %+v", llm.gotParts[1])
	}
	if len(state.Findings) != 1 || state.Findings[0].Category != "layout" {
		t.Errorf("findings = %+v", state.Findings)
	}
	if !strings.Contains(state.Report, "header overlaps hero image") {
		t.Errorf("report = %q", state.Report)
	}
}

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    int
		wantErr bool
	}{
		{"nil uses default", nil, defaultMaxTextChars, false},
		{"explicit value", map[string]any{"max_text_chars": 500}, 500, false},
		{"zero falls back to default", map[string]any{"max_text_chars": 0}, defaultMaxTextChars, false},
		{"wrong type rejected", map[string]any{"max_text_chars": map[string]any{}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := DecodeOptions(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && opts.MaxTextChars != tt.want {
				t.Errorf("MaxTextChars = %d, want %d", opts.MaxTextChars, tt.want)
			}
		})
	}
}

func TestBuildRegistry(t *testing.T) {
	disabled := false
	cfg := &config.Config{
		Agents: map[string]config.AgentConfig{
			"spell_checker": {LLM: "main"},
			"visual_qa":     {Enabled: &disabled, LLM: "main"},
		},
	}
	cfg.SetDefaults()

	providers := llms.NewRegistry()
	if err := providers.Register("main", &fakeLLM{vision: true}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	providers.Freeze()

	scrapers := map[string]browser.Scraper{
		"chromedp": &fakeScraper{},
		"http":     &fakeScraper{},
	}

	reg, err := BuildRegistry(cfg, scrapers, providers)
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	if !reg.Frozen() {
		t.Error("registry should be frozen")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (visual_qa disabled)", reg.Len())
	}
	if _, err := reg.Get("spell_checker"); err != nil {
		t.Errorf("Get(spell_checker) error = %v", err)
	}
}

func TestBuildRegistry_DefaultsLLMWithSingleProvider(t *testing.T) {
	cfg := &config.Config{
		Agents: map[string]config.AgentConfig{
			"spell_checker": {Engine: "http"},
		},
	}
	cfg.SetDefaults()

	providers := llms.NewRegistry()
	if err := providers.Register("only", &fakeLLM{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	providers.Freeze()

	reg, err := BuildRegistry(cfg, map[string]browser.Scraper{"http": &fakeScraper{}}, providers)
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestSummarize(t *testing.T) {
	state := &pipeline.State{
		TargetURL: "https://example.com",
		Findings: []pipeline.Finding{
			{Category: "spelling", Severity: "low", Description: "typo", Original: "teh", Correction: "the"},
			{Category: "layout", Severity: "high", Description: "clipped text", Location: "footer"},
		},
	}

	got := Summarize("spell_checker", state)
	for _, want := range []string{"2 issue(s)", `"teh" -> "the"`, "@ footer", "[layout/high]"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary %q missing %q", got, want)
		}
	}
}
