package osint

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimelineDateFormat is the layout of TimelineEvent.Date.
const TimelineDateFormat = "2006-01-02"

// MetatagDateFields lists the metatags keys holding a publication date, in
// priority order.
var MetatagDateFields = []string{
	"article:published_time",
	"og:published_time",
	"datePublished",
	"date",
	"pubdate",
	"publishdate",
	"dc.date",
	"dc.date.issued",
	"article:modified_time",
	"og:updated_time",
}

var (
	newsArticleDateFields = []string{"datepublished", "datemodified"}
	webPageDateFields     = []string{"datepublished"}
)

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December|` +
	`Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec`

// SnippetDatePatterns are tried against the snippet in order; the first match wins.
var SnippetDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:` + monthNames + `)\.?,?\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:` + monthNames + `)\.?\s+\d{1,2},?\s+\d{4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
}

var strictDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
}

// dateSource extracts a date from one location of a result.
type dateSource func(r FilteredResult) (time.Time, bool)

// DateSources is the extraction cascade, stopping at the first success.
var DateSources = []dateSource{
	metatagsDate,
	recordDate("newsarticle", newsArticleDateFields),
	recordDate("webpage", webPageDateFields),
	snippetDate,
}

// BuildTimeline dates every result it can, drops duplicate (date, title)
// pairs and orders events newest first. Results without a date are skipped.
func BuildTimeline(results []FilteredResult) []TimelineEvent {
	events := make([]TimelineEvent, 0, len(results))
	seen := make(map[[2]string]bool)

	for _, r := range results {
		d, ok := ExtractDate(r)
		if !ok {
			continue
		}
		ev := TimelineEvent{
			Date:   d.Format(TimelineDateFormat),
			Title:  r.Title,
			Source: r.Source,
			Link:   r.Link,
		}
		key := [2]string{ev.Date, ev.Title}
		if seen[key] {
			continue
		}
		seen[key] = true
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date > events[j].Date
	})
	return events
}

// ExtractDate runs DateSources in order and returns the first date found.
func ExtractDate(r FilteredResult) (time.Time, bool) {
	for _, src := range DateSources {
		if d, ok := src(r); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func metatagsDate(r FilteredResult) (time.Time, bool) {
	rec, ok := r.PageMap.First("metatags")
	if !ok {
		return time.Time{}, false
	}
	return firstParsable(rec, MetatagDateFields)
}

func recordDate(kind string, fields []string) dateSource {
	return func(r FilteredResult) (time.Time, bool) {
		rec, ok := r.PageMap.First(kind)
		if !ok {
			return time.Time{}, false
		}
		return firstParsable(rec, fields)
	}
}

func snippetDate(r FilteredResult) (time.Time, bool) {
	for _, re := range SnippetDatePatterns {
		if m := re.FindString(r.Snippet); m != "" {
			return ParseDate(m)
		}
	}
	return time.Time{}, false
}

func firstParsable(rec map[string]any, fields []string) (time.Time, bool) {
	for _, f := range fields {
		if v := fieldString(rec, f); v != "" {
			if d, ok := ParseDate(v); ok {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// ParseDate accepts the common publication layouts first and falls back to
// permissive parsing.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ". ", " "))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range strictDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	d, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
