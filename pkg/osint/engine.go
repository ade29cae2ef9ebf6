package osint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrInvalidRequest is returned for requests that must never reach the pipeline.
var ErrInvalidRequest = errors.New("invalid request")

const (
	noResultsSummary  = "No results were found for this person in any queried source."
	noResultsDetailed = "Every search source returned an empty result set, so no analysis could be performed."
	noMatchSummary    = "No data found matching the person. They may not have a public profile or presence."
	noMatchDetailed   = "Search results were returned, but none of them could be confidently attributed to this person."
)

// Searcher runs one query against the search backend. Provider failures
// degrade to an empty slice; an error means the call itself was invalid.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int, tag string) ([]RawResult, error)
}

// Annotator extracts named entities from text.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]EntityMention, error)
}

// Engine runs the pipeline for one search: fan-out, merge, entity
// enrichment, relevance filter, profile and entity mining, AI synthesis and
// timeline, reporting progress at each phase boundary.
type Engine struct {
	Searcher    Searcher
	Annotator   Annotator // nil when no NER service is configured
	Filter      *RelevanceFilter
	Synthesizer *Synthesizer
	Sources     []Source
	Logger      *slog.Logger
	Now         func() time.Time
	OnProgress  func(percentage int, stage string)
}

// NewEngine wires an engine with the default source table and filter.
func NewEngine(searcher Searcher, annotator Annotator, synth *Synthesizer) *Engine {
	return &Engine{
		Searcher:    searcher,
		Annotator:   annotator,
		Filter:      NewRelevanceFilter(),
		Synthesizer: synth,
		Sources:     DefaultSources,
		Logger:      slog.Default(),
		Now:         time.Now,
	}
}

// Run executes the pipeline sequentially and always returns a fully shaped
// report unless the request is invalid or a search call is rejected.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}

	logger := e.logger()
	logger.Info("Starting OSINT search", "name", req.Name, "city", req.City, "extras", req.ExtraTerms)

	// 1. Fan-out
	bySource, err := e.searchPhase(ctx, req)
	if err != nil {
		return nil, err
	}

	// 2. Merge
	e.progress(70, "Processing results...")
	merged := Merge(e.mergeLists(bySource)...)
	logger.Info("Merged results", "count", len(merged))

	if len(merged) == 0 {
		logger.Warn("No results from any source")
		return e.emptyReport(req, 0, noResultsSummary, noResultsDetailed), nil
	}

	// 3. Entities
	e.progress(75, "Extracting named entities...")
	e.enrich(ctx, merged)

	// 4. Filter
	e.progress(80, "Filtering results...")
	filtered := e.filter().Filter(merged, req.Name)
	logger.Info("Filtering complete", "total", len(merged), "relevant", len(filtered))

	if len(filtered) == 0 {
		logger.Warn("No person match found in any search results")
		return e.emptyReport(req, len(merged), noMatchSummary, noMatchDetailed), nil
	}

	// 5. Profile and entity statistics
	e.progress(82, "Extracting profile information...")
	profile := ExtractProfile(filtered)

	e.progress(84, "Analyzing associated entities...")
	entityStats := AggregateEntities(filtered, req.Name)

	// 6. AI synthesis over every filtered result
	e.progress(85, "Generating AI summary...")
	snippets := make([]string, len(filtered))
	for i, r := range filtered {
		snippets[i] = fmt.Sprintf("%s: %s - %s", r.Source, r.Title, r.Snippet)
	}
	analysis := FallbackAnalysis()
	if e.Synthesizer != nil {
		analysis = e.Synthesizer.Synthesize(ctx, req.Name, req.City, snippets)
	}

	// 7. Timeline
	e.progress(95, "Building timeline...")
	timeline := BuildTimeline(filtered)

	// 8. Assemble
	e.progress(98, "Assembling report...")
	report := e.newReport(req, len(merged))
	report.ShortSummary = analysis.ShortSummary
	report.DetailedSummary = analysis.DetailedSummary
	report.RiskAnalysis = analysis.RiskAnalysis
	report.KeyFindings = analysis.KeyFindings
	report.AssociatedEntities = analysis.AssociatedEntities
	report.SourceAnalysis = e.countSources(filtered)
	report.TimelineEvents = timeline
	report.RawData = rawData(filtered)
	report.ProfileInfo = profile
	report.EntityAnalysis = entityStats
	report.SearchMeta.TotalResultsFiltered = len(filtered)

	logger.Info("OSINT search finished", "filtered", len(filtered), "timeline", len(timeline))
	return report, nil
}

func (e *Engine) searchPhase(ctx context.Context, req Request) (map[string][]RawResult, error) {
	bySource := make(map[string][]RawResult, len(e.sources()))
	for _, src := range e.sources() {
		e.progress(src.Progress, src.Stage)

		query := src.Query(req)
		results, err := e.Searcher.Search(ctx, query, src.MaxResults, src.Tag)
		if err != nil {
			return nil, fmt.Errorf("search %s failed: %w", src.Tag, err)
		}
		e.logger().Info("Source searched", "source", src.Tag, "count", len(results))
		bySource[src.Tag] = append(bySource[src.Tag], results...)
	}
	return bySource, nil
}

// mergeLists orders the per-source lists by MergeOrder, followed by any
// source of a custom table that MergeOrder does not name.
func (e *Engine) mergeLists(bySource map[string][]RawResult) [][]RawResult {
	lists := make([][]RawResult, 0, len(bySource))
	used := make(map[string]bool, len(MergeOrder))
	for _, tag := range MergeOrder {
		used[tag] = true
		lists = append(lists, bySource[tag])
	}
	for _, tag := range SourceTags(e.sources()) {
		if !used[tag] {
			used[tag] = true
			lists = append(lists, bySource[tag])
		}
	}
	return lists
}

func (e *Engine) enrich(ctx context.Context, results []RawResult) {
	for i := range results {
		results[i].Entities = []EntityMention{}
		if e.Annotator == nil {
			continue
		}
		text := results[i].Title + ". " + results[i].Snippet
		ents, err := e.Annotator.Annotate(ctx, text)
		if err != nil {
			e.logger().Warn("Entity extraction failed", "link", results[i].Link, "error", err)
			continue
		}
		if ents != nil {
			results[i].Entities = ents
		}
	}
}

func (e *Engine) countSources(filtered []FilteredResult) []SourceCount {
	counts := make(map[string]int)
	for _, r := range filtered {
		counts[r.Source]++
	}
	out := make([]SourceCount, 0, len(e.sources()))
	for _, tag := range SourceTags(e.sources()) {
		out = append(out, SourceCount{Name: tag, Count: counts[tag]})
	}
	return out
}

func (e *Engine) emptyReport(req Request, scanned int, short, detailed string) *Report {
	report := e.newReport(req, scanned)
	report.ShortSummary = short
	report.DetailedSummary = detailed
	report.RiskAnalysis = RiskAnalysis{
		RiskJustification:      "No attributable data.",
		SentimentJustification: "No attributable data.",
	}
	report.SourceAnalysis = e.countSources(nil)
	return report
}

func (e *Engine) newReport(req Request, scanned int) *Report {
	return &Report{
		Name:               req.Name,
		Location:           req.City,
		KeyFindings:        []string{},
		AssociatedEntities: []AssociatedEntity{},
		SourceAnalysis:     []SourceCount{},
		TimelineEvents:     []TimelineEvent{},
		RawData:            []RawDataItem{},
		ProfileInfo: ProfileInfo{
			ProfileImages:      []ProfileImage{},
			SocialProfiles:     []SocialProfile{},
			KnownTitles:        []string{},
			KnownOrganizations: []string{},
		},
		EntityAnalysis: EntityStats{
			TopPersons:       []EntityCount{},
			TopOrganizations: []EntityCount{},
			TopLocations:     []EntityCount{},
		},
		SearchMeta: SearchMeta{
			TotalResultsScanned: scanned,
			SearchTimestamp:     e.now().UTC().Format(time.RFC3339),
			SourcesQueried:      SourceTags(e.sources()),
		},
	}
}

func rawData(filtered []FilteredResult) []RawDataItem {
	out := make([]RawDataItem, len(filtered))
	for i, r := range filtered {
		out[i] = RawDataItem{
			Title:       r.Title,
			Snippet:     r.Snippet,
			Link:        r.Link,
			Source:      r.Source,
			MatchMethod: r.MatchMethod,
			DisplayLink: r.DisplayLink,
		}
	}
	return out
}

func (e *Engine) progress(pct int, stage string) {
	if e.OnProgress != nil {
		e.OnProgress(pct, stage)
	}
}

func (e *Engine) sources() []Source {
	if len(e.Sources) == 0 {
		return DefaultSources
	}
	return e.Sources
}

func (e *Engine) filter() *RelevanceFilter {
	if e.Filter == nil {
		return NewRelevanceFilter()
	}
	return e.Filter
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
