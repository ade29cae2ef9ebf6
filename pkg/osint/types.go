package osint

// PageMap is the structured page metadata a search hit carries, keyed by
// record type ("metatags", "cse_image", "person", "newsarticle", ...).
type PageMap map[string][]map[string]any

// EntityMention is one named-entity annotation over a result's title and snippet.
type EntityMention struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Entity labels produced by the NER capability.
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
	LabelGPE    = "GPE"
	LabelLoc    = "LOC"
)

// RawResult represents a single search hit. Link is the dedup key.
type RawResult struct {
	Source      string          `json:"source"`
	Title       string          `json:"title"`
	Snippet     string          `json:"snippet"`
	Link        string          `json:"link"`
	DisplayLink string          `json:"displayLink"`
	PageMap     PageMap         `json:"pagemap,omitempty"`
	Entities    []EntityMention `json:"entities"`
}

// MatchMethod names the relevance tier that accepted a result.
type MatchMethod string

const (
	MatchEntity        MatchMethod = "entity"
	MatchExactPhrase   MatchMethod = "exact_phrase"
	MatchFuzzyFullName MatchMethod = "fuzzy_full_name"
	MatchFuzzyTokens   MatchMethod = "fuzzy_tokens"
)

// FilteredResult is a RawResult confirmed to be about the target.
type FilteredResult struct {
	RawResult
	MatchMethod MatchMethod `json:"matchMethod"`
}

type ProfileImage struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

type SocialProfile struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

// ProfileInfo aggregates identity metadata mined from page metadata.
type ProfileInfo struct {
	ProfileImages      []ProfileImage  `json:"profileImages"`
	SocialProfiles     []SocialProfile `json:"socialProfiles"`
	KnownTitles        []string        `json:"knownTitles"`
	KnownOrganizations []string        `json:"knownOrganizations"`
}

// TimelineEvent is one dated occurrence. Date is yyyy-mm-dd.
type TimelineEvent struct {
	Date   string `json:"date"`
	Title  string `json:"title"`
	Source string `json:"source"`
	Link   string `json:"link"`
}

type EntityCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// EntityStats holds the co-mention frequency tables.
type EntityStats struct {
	TopPersons       []EntityCount `json:"topPersons"`
	TopOrganizations []EntityCount `json:"topOrganizations"`
	TopLocations     []EntityCount `json:"topLocations"`
}

type RiskAnalysis struct {
	RiskScore              int    `json:"riskScore"`
	RiskJustification      string `json:"riskJustification"`
	SentimentScore         int    `json:"sentimentScore"`
	SentimentJustification string `json:"sentimentJustification"`
}

type AssociatedEntity struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Relationship string `json:"relationship"`
}

// AIAnalysis is the synthesized narrative returned by the generative backend.
type AIAnalysis struct {
	ShortSummary       string             `json:"short_summary"`
	DetailedSummary    string             `json:"detailed_summary"`
	RiskAnalysis       RiskAnalysis       `json:"riskAnalysis"`
	KeyFindings        []string           `json:"keyFindings"`
	AssociatedEntities []AssociatedEntity `json:"associatedEntities"`
}

type SourceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type RawDataItem struct {
	Title       string      `json:"title"`
	Snippet     string      `json:"snippet"`
	Link        string      `json:"link"`
	Source      string      `json:"source"`
	MatchMethod MatchMethod `json:"matchMethod"`
	DisplayLink string      `json:"displayLink"`
}

type SearchMeta struct {
	TotalResultsScanned  int      `json:"totalResultsScanned"`
	TotalResultsFiltered int      `json:"totalResultsFiltered"`
	SearchTimestamp      string   `json:"searchTimestamp"`
	SourcesQueried       []string `json:"sourcesQueried"`
}

// Report is the final document. Every outcome (no results, no match, full
// success) produces this same shape with empty slices rather than nulls.
type Report struct {
	Name               string             `json:"name"`
	Location           string             `json:"location"`
	ShortSummary       string             `json:"short_summary"`
	DetailedSummary    string             `json:"detailed_summary"`
	RiskAnalysis       RiskAnalysis       `json:"riskAnalysis"`
	KeyFindings        []string           `json:"keyFindings"`
	AssociatedEntities []AssociatedEntity `json:"associatedEntities"`
	SourceAnalysis     []SourceCount      `json:"sourceAnalysis"`
	TimelineEvents     []TimelineEvent    `json:"timelineEvents"`
	RawData            []RawDataItem      `json:"raw_data"`
	ProfileInfo        ProfileInfo        `json:"profileInfo"`
	EntityAnalysis     EntityStats        `json:"entityAnalysis"`
	SearchMeta         SearchMeta         `json:"searchMeta"`
}

// Request describes one search.
type Request struct {
	Name       string   `json:"name"`
	City       string   `json:"city"`
	ExtraTerms []string `json:"extraTerms"`
}
