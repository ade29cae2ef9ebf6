package osint

import (
	"regexp"
	"strings"
)

// Fixed acceptance thresholds of the fuzzy tiers. The whole-name tier is
// stricter than the per-token tier because every token must pass on its own.
const (
	FullNameThreshold = 88.0
	TokenThreshold    = 83.0
)

// RelevanceFilter decides whether a result refers to the target person by
// running four tiers in order and tagging the first one that fires.
type RelevanceFilter struct {
	Scorer Scorer
}

// NewRelevanceFilter returns a filter scoring with PartialRatio.
func NewRelevanceFilter() *RelevanceFilter {
	return &RelevanceFilter{Scorer: PartialRatio}
}

// Word boundaries for the phrase tier. `\b` only knows ASCII word characters,
// so names with accented letters at either end need explicit guards.
const (
	phraseStart = `(?:^|[^\p{L}\p{N}_])`
	phraseEnd   = `(?:$|[^\p{L}\p{N}_])`
)

type nameMatcher struct {
	tokens []string // lowercased
	joined string
	phrase *regexp.Regexp
}

func newNameMatcher(targetName string) *nameMatcher {
	raw := strings.Fields(targetName)
	if len(raw) == 0 {
		return nil
	}

	quoted := make([]string, len(raw))
	tokens := make([]string, len(raw))
	for i, tok := range raw {
		quoted[i] = regexp.QuoteMeta(tok)
		tokens[i] = strings.ToLower(tok)
	}

	return &nameMatcher{
		tokens: tokens,
		joined: strings.Join(tokens, " "),
		phrase: regexp.MustCompile(`(?i)` + phraseStart + strings.Join(quoted, `\s+`) + phraseEnd),
	}
}

// Filter keeps the results that match targetName, preserving input order.
func (f *RelevanceFilter) Filter(results []RawResult, targetName string) []FilteredResult {
	m := newNameMatcher(targetName)
	if m == nil {
		return []FilteredResult{}
	}

	out := make([]FilteredResult, 0, len(results))
	for _, r := range results {
		if method, ok := f.match(m, r); ok {
			out = append(out, FilteredResult{RawResult: r, MatchMethod: method})
		}
	}
	return out
}

// Match reports the tier that accepts r for targetName, if any.
func (f *RelevanceFilter) Match(r RawResult, targetName string) (MatchMethod, bool) {
	m := newNameMatcher(targetName)
	if m == nil {
		return "", false
	}
	return f.match(m, r)
}

func (f *RelevanceFilter) match(m *nameMatcher, r RawResult) (MatchMethod, bool) {
	if m.matchesEntities(r.Entities) {
		return MatchEntity, true
	}

	if m.phrase.MatchString(r.Title) || m.phrase.MatchString(r.Snippet) {
		return MatchExactPhrase, true
	}

	scorer := f.Scorer
	if scorer == nil {
		scorer = PartialRatio
	}
	text := strings.ToLower(r.Title + " " + r.Snippet)

	if scorer(m.joined, text) >= FullNameThreshold {
		return MatchFuzzyFullName, true
	}

	for _, tok := range m.tokens {
		if scorer(tok, text) < TokenThreshold {
			return "", false
		}
	}
	return MatchFuzzyTokens, true
}

func (m *nameMatcher) matchesEntities(entities []EntityMention) bool {
	for _, ent := range entities {
		if ent.Label != LabelPerson {
			continue
		}
		person := strings.ToLower(ent.Text)
		if len(m.tokens) == 1 {
			if strings.Contains(person, m.tokens[0]) || (person != "" && strings.Contains(m.tokens[0], person)) {
				return true
			}
			continue
		}
		all := true
		for _, tok := range m.tokens {
			if !strings.Contains(person, tok) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
