package osint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mikeboe/osint-investigator/pkg/logging"
)

const (
	// MaxSynthesisSnippets bounds the evidence sent in one prompt.
	MaxSynthesisSnippets = 30
	snippetDelimiter     = "\n---\n"
	attemptsPerAIKey     = 2
)

var errMissingSummary = errors.New("response has no short_summary")

// Completer is a generative-AI backend returning raw text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt, apiKey string) (string, error)
}

// Synthesizer turns collected snippets into an AIAnalysis using a pool of
// API keys. It never fails: exhausting the pool yields FallbackAnalysis.
type Synthesizer struct {
	Completer Completer
	Keys      []string
	Timeout   time.Duration
	Logger    *slog.Logger
	Sleep     func(time.Duration)
}

// FallbackAnalysis is returned when no backend produced a usable response.
func FallbackAnalysis() AIAnalysis {
	return AIAnalysis{
		ShortSummary:    "An error occurred during AI analysis.",
		DetailedSummary: "The detailed analysis could not be generated due to an AI error.",
		RiskAnalysis: RiskAnalysis{
			RiskScore:              0,
			RiskJustification:      "Analysis failed.",
			SentimentScore:         0,
			SentimentJustification: "Analysis failed.",
		},
		KeyFindings:        []string{},
		AssociatedEntities: []AssociatedEntity{},
	}
}

// Synthesize asks the backend for a summary of name in city, trying every key
// up to twice with a linear backoff between attempts.
func (s *Synthesizer) Synthesize(ctx context.Context, name, city string, snippets []string) AIAnalysis {
	logger := s.logger()
	if s.Completer == nil || len(s.Keys) == 0 || len(snippets) == 0 {
		logger.Warn("AI synthesis skipped", "keys", len(s.Keys), "snippets", len(snippets))
		return FallbackAnalysis()
	}

	prompt := BuildSynthesisPrompt(name, city, snippets)

	for _, key := range s.Keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		for attempt := range attemptsPerAIKey {
			if attempt > 0 {
				s.sleep(time.Second * time.Duration(attempt))
			}

			analysis, err := s.attempt(ctx, prompt, key)
			if err == nil {
				logger.Info("AI synthesis succeeded", "key", logging.KeyHint(key), "attempt", attempt+1)
				return analysis
			}
			logger.Warn("AI synthesis attempt failed", "key", logging.KeyHint(key), "attempt", attempt+1, "error", err)

			if ctx.Err() != nil {
				logger.Error("AI synthesis aborted", "error", ctx.Err())
				return FallbackAnalysis()
			}
		}
	}

	logger.Error("All AI keys failed, returning fallback analysis")
	return FallbackAnalysis()
}

func (s *Synthesizer) attempt(ctx context.Context, prompt, key string) (AIAnalysis, error) {
	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	raw, err := s.Completer.Complete(callCtx, prompt, key)
	if err != nil {
		return AIAnalysis{}, fmt.Errorf("completion failed: %w", err)
	}
	return ParseAIResponse(raw)
}

func (s *Synthesizer) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Synthesizer) sleep(d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

// BuildSynthesisPrompt renders the analyst prompt over at most
// MaxSynthesisSnippets snippets.
func BuildSynthesisPrompt(name, city string, snippets []string) string {
	if len(snippets) > MaxSynthesisSnippets {
		snippets = snippets[:MaxSynthesisSnippets]
	}
	location := city
	if strings.TrimSpace(location) == "" {
		location = "an unspecified location"
	}

	return fmt.Sprintf(`As an expert OSINT analyst, analyze the collected snippets about '%s' in '%s'.
Use only the evidence below. If the snippets may describe more than one person with this name, say so explicitly.

%s

Collected Information:
---
%s
`, name, location, synthesisSchema, strings.Join(snippets, snippetDelimiter))
}

const synthesisSchema = `Return the JSON object directly without any formatting or additional text. The JSON object must have this structure:
{
  "short_summary": "Brief 1-2 sentence summary of the person",
  "detailed_summary": "Detailed analysis of the person based on available information",
  "riskAnalysis": {
    "riskScore": "integer 1-10",
    "riskJustification": "Explanation of the risk score",
    "sentimentScore": "integer -5 to 5",
    "sentimentJustification": "Explanation of the sentiment score"
  },
  "keyFindings": ["finding"],
  "associatedEntities": [{"name": "entity name", "type": "PERSON|ORG|LOCATION", "relationship": "how it relates"}]
}`

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*f = flexInt(int(v))
	return nil
}

type aiScores struct {
	RiskScore              flexInt `json:"riskScore"`
	RiskJustification      string  `json:"riskJustification"`
	SentimentScore         flexInt `json:"sentimentScore"`
	SentimentJustification string  `json:"sentimentJustification"`
}

type aiPayload struct {
	ShortSummary       string             `json:"short_summary"`
	DetailedSummary    string             `json:"detailed_summary"`
	RiskAnalysis       *aiScores          `json:"riskAnalysis"`
	KeyFindings        []string           `json:"keyFindings"`
	AssociatedEntities []AssociatedEntity `json:"associatedEntities"`
	aiScores
}

// ParseAIResponse recovers an AIAnalysis from raw model output. It strips a
// code fence, tries the whole text, then the span from the first '{' to the
// last '}'.
func ParseAIResponse(raw string) (AIAnalysis, error) {
	txt := stripCodeFence(strings.TrimSpace(raw))

	payload, err := decodePayload(txt)
	if err != nil {
		start := strings.Index(txt, "{")
		end := strings.LastIndex(txt, "}")
		if start == -1 || end <= start {
			return AIAnalysis{}, fmt.Errorf("no JSON object in response: %w", err)
		}
		payload, err = decodePayload(txt[start : end+1])
		if err != nil {
			return AIAnalysis{}, err
		}
	}

	scores := payload.aiScores
	if payload.RiskAnalysis != nil {
		scores = *payload.RiskAnalysis
	}

	analysis := AIAnalysis{
		ShortSummary:    payload.ShortSummary,
		DetailedSummary: payload.DetailedSummary,
		RiskAnalysis: RiskAnalysis{
			RiskScore:              clamp(int(scores.RiskScore), 1, 10),
			RiskJustification:      scores.RiskJustification,
			SentimentScore:         clamp(int(scores.SentimentScore), -5, 5),
			SentimentJustification: scores.SentimentJustification,
		},
		KeyFindings:        payload.KeyFindings,
		AssociatedEntities: payload.AssociatedEntities,
	}
	if analysis.KeyFindings == nil {
		analysis.KeyFindings = []string{}
	}
	if analysis.AssociatedEntities == nil {
		analysis.AssociatedEntities = []AssociatedEntity{}
	}
	return analysis, nil
}

func decodePayload(txt string) (aiPayload, error) {
	var p aiPayload
	if err := json.Unmarshal([]byte(txt), &p); err != nil {
		return aiPayload{}, fmt.Errorf("json parse error: %w", err)
	}
	if strings.TrimSpace(p.ShortSummary) == "" {
		return aiPayload{}, errMissingSummary
	}
	return p, nil
}

func stripCodeFence(txt string) string {
	switch {
	case strings.HasPrefix(txt, "```json"):
		txt = txt[len("```json"):]
	case strings.HasPrefix(txt, "```"):
		txt = txt[len("```"):]
	default:
		return txt
	}
	txt = strings.TrimSuffix(strings.TrimSpace(txt), "```")
	return strings.TrimSpace(txt)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
