package osint

import "strings"

// Source tags, one per fan-out query.
const (
	SourceLinkedIn  = "LinkedIn"
	SourceCaseNews  = "Case/News"
	SourceGeneral   = "General"
	SourceReddit    = "Reddit"
	SourceWikipedia = "Wikipedia"
	SourceBusiness  = "Business"
	SourceAcademic  = "Academic"
	SourceSocial    = "Social"
)

// Source is one fan-out query: its tag, result cap, the progress mark reached
// when it starts and the query it issues for a request.
type Source struct {
	Tag        string
	MaxResults int
	Progress   int
	Stage      string
	Query      func(req Request) string
}

// DefaultSources is the fan-out table in execution order.
var DefaultSources = []Source{
	{SourceLinkedIn, 5, 10, "Searching LinkedIn...", func(r Request) string {
		return joinQuery("site:linkedin.com/in", r.Name, r.City, extras(r))
	}},
	{SourceCaseNews, 5, 20, "Searching News/Legal...", func(r Request) string {
		return joinQuery(r.Name, r.City,
			"crime OR FIR OR arrested OR chargesheet OR court OR case",
			"site:ndtv.com OR site:thehindu.com OR site:indiatoday.in OR site:barandbench.com OR site:livelaw.in",
			extras(r))
	}},
	{SourceGeneral, 5, 30, "General Search...", func(r Request) string {
		return joinQuery(r.Name, r.City, extras(r))
	}},
	{SourceReddit, 2, 40, "Searching Reddit...", func(r Request) string {
		return joinQuery("site:reddit.com", quote(r.Name), quote(r.City))
	}},
	{SourceWikipedia, 1, 45, "Searching Wikipedia...", func(r Request) string {
		return joinQuery("site:en.wikipedia.org", r.Name, r.City, extras(r))
	}},
	{SourceBusiness, 1, 55, "Searching business records...", func(r Request) string {
		return joinQuery(quote(r.Name), "site:crunchbase.com OR site:zaubacorp.com")
	}},
	{SourceAcademic, 1, 65, "Searching academic records...", func(r Request) string {
		return joinQuery(quote(r.Name), "site:scholar.google.com")
	}},
	{SourceSocial, 5, 68, "Searching social platforms...", func(r Request) string {
		return joinQuery(quote(r.Name), r.City,
			"site:twitter.com OR site:x.com OR site:facebook.com OR site:instagram.com OR site:github.com")
	}},
}

// MergeOrder is the order in which per-source lists are merged, which decides
// the survivor when two sources return the same link.
var MergeOrder = []string{
	SourceWikipedia,
	SourceLinkedIn,
	SourceCaseNews,
	SourceGeneral,
	SourceReddit,
	SourceBusiness,
	SourceAcademic,
	SourceSocial,
}

// SourceTags lists the tags of sources in table order.
func SourceTags(sources []Source) []string {
	tags := make([]string, len(sources))
	for i, s := range sources {
		tags[i] = s.Tag
	}
	return tags
}

func extras(r Request) string {
	return strings.Join(r.ExtraTerms, " ")
}

func quote(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	if s == "" {
		return ""
	}
	return `"` + s + `"`
}

// joinQuery joins the non-empty parts with single spaces.
func joinQuery(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
