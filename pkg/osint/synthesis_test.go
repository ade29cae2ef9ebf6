package osint

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

type fakeCompleter struct {
	responses []fakeResponse
	calls     []string // keys used, in order
	prompts   []string
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt, apiKey string) (string, error) {
	f.calls = append(f.calls, apiKey)
	f.prompts = append(f.prompts, prompt)
	if len(f.responses) == 0 {
		return "", errors.New("no response configured")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r.text, r.err
}

func newTestSynthesizer(c Completer, keys ...string) (*Synthesizer, *[]time.Duration) {
	var sleeps []time.Duration
	return &Synthesizer{
		Completer: c,
		Keys:      keys,
		Sleep:     func(d time.Duration) { sleeps = append(sleeps, d) },
	}, &sleeps
}

const validResponse = `{"short_summary":"Engineer in Pune.","detailed_summary":"Works at Acme.",
"riskAnalysis":{"riskScore":3,"riskJustification":"Nothing adverse.","sentimentScore":2,"sentimentJustification":"Positive press."},
"keyFindings":["Works at Acme"],"associatedEntities":[{"name":"Acme","type":"ORG","relationship":"employer"}]}`

func TestParseAIResponse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantRisk  int
		wantSent  int
		wantShort string
	}{
		{"Plain JSON", validResponse, false, 3, 2, "Engineer in Pune."},
		{"Json fence", "```json\n" + validResponse + "\n```", false, 3, 2, "Engineer in Pune."},
		{"Bare fence", "```\n" + validResponse + "\n```", false, 3, 2, "Engineer in Pune."},
		{"Surrounding prose", "Here you go:\n" + validResponse + "\nHope this helps.", false, 3, 2, "Engineer in Pune."},
		{"Flat scores as strings", `{"short_summary":"s","riskScore":"7","sentimentScore":"-2"}`, false, 7, -2, "s"},
		{"Out of range clamped", `{"short_summary":"s","riskAnalysis":{"riskScore":42,"sentimentScore":-9}}`, false, 10, -5, "s"},
		{"Missing summary", `{"detailed_summary":"d"}`, true, 0, 0, ""},
		{"Empty summary", `{"short_summary":"  "}`, true, 0, 0, ""},
		{"Not JSON", "I cannot help with that.", true, 0, 0, ""},
		{"Broken braces", "{ not json }", true, 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAIResponse(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAIResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.ShortSummary != tt.wantShort {
				t.Errorf("ShortSummary = %q, want %q", got.ShortSummary, tt.wantShort)
			}
			if got.RiskAnalysis.RiskScore != tt.wantRisk || got.RiskAnalysis.SentimentScore != tt.wantSent {
				t.Errorf("scores = (%d, %d), want (%d, %d)", got.RiskAnalysis.RiskScore, got.RiskAnalysis.SentimentScore, tt.wantRisk, tt.wantSent)
			}
			if got.KeyFindings == nil || got.AssociatedEntities == nil {
				t.Errorf("expected non-nil slices, got %+v", got)
			}
		})
	}
}

func TestSynthesize_AllAttemptsFailReturnsFallback(t *testing.T) {
	fc := &fakeCompleter{responses: []fakeResponse{
		{err: errors.New("quota")},
		{text: "garbage"},
		{err: errors.New("quota")},
		{text: `{"detailed_summary":"no short"}`},
	}}
	s, sleeps := newTestSynthesizer(fc, "key-aaaaa", "key-bbbbb")

	got := s.Synthesize(context.Background(), "Jane Doe", "Pune", []string{"LinkedIn: Jane Doe - Engineer"})

	if !reflect.DeepEqual(got, FallbackAnalysis()) {
		t.Errorf("Synthesize() = %+v, want fallback", got)
	}
	if got.RiskAnalysis.RiskScore != 0 || got.RiskAnalysis.SentimentScore != 0 {
		t.Errorf("fallback scores must be zero, got %+v", got.RiskAnalysis)
	}
	wantCalls := []string{"key-aaaaa", "key-aaaaa", "key-bbbbb", "key-bbbbb"}
	if !reflect.DeepEqual(fc.calls, wantCalls) {
		t.Errorf("calls = %v, want %v", fc.calls, wantCalls)
	}
	if len(*sleeps) != 2 {
		t.Errorf("expected one backoff per key, got %v", *sleeps)
	}
}

func TestSynthesize_RecoversOnSecondKey(t *testing.T) {
	fc := &fakeCompleter{responses: []fakeResponse{
		{err: errors.New("boom")},
		{text: "not json"},
		{text: "```json\n" + validResponse + "\n```"},
	}}
	s, _ := newTestSynthesizer(fc, "first", "second")

	got := s.Synthesize(context.Background(), "Jane Doe", "Pune", []string{"a", "b"})

	if got.ShortSummary != "Engineer in Pune." {
		t.Errorf("ShortSummary = %q", got.ShortSummary)
	}
	if len(fc.calls) != 3 || fc.calls[2] != "second" {
		t.Errorf("calls = %v", fc.calls)
	}
}

func TestSynthesize_NoKeysOrSnippets(t *testing.T) {
	fc := &fakeCompleter{}
	s, _ := newTestSynthesizer(fc)
	if got := s.Synthesize(context.Background(), "Jane", "", []string{"x"}); !reflect.DeepEqual(got, FallbackAnalysis()) {
		t.Errorf("expected fallback without keys, got %+v", got)
	}

	s, _ = newTestSynthesizer(fc, "k")
	if got := s.Synthesize(context.Background(), "Jane", "", nil); !reflect.DeepEqual(got, FallbackAnalysis()) {
		t.Errorf("expected fallback without snippets, got %+v", got)
	}
	if len(fc.calls) != 0 {
		t.Errorf("backend should not be called, got %v", fc.calls)
	}
}

func TestBuildSynthesisPrompt_CapsSnippets(t *testing.T) {
	var snippets []string
	for i := range 40 {
		snippets = append(snippets, fmt.Sprintf("snippet-%02d", i))
	}

	prompt := BuildSynthesisPrompt("Jane Doe", "Pune", snippets)

	if !strings.Contains(prompt, "snippet-29") {
		t.Error("expected the 30th snippet in the prompt")
	}
	if strings.Contains(prompt, "snippet-30") {
		t.Error("expected snippets beyond 30 to be dropped")
	}
	if !strings.Contains(prompt, "snippet-00"+snippetDelimiter+"snippet-01") {
		t.Error("expected snippets joined by the delimiter")
	}
	if !strings.Contains(prompt, "'Jane Doe' in 'Pune'") {
		t.Error("expected the target in the prompt")
	}
}
