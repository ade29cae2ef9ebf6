package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mikeboe/osint-investigator/pkg/osint"
)

const toolVersion = "2.0"

var (
	ErrInvalidFilename = errors.New("invalid report filename")
	ErrNotFound        = errors.New("report not found")
)

var unsafeSlugChars = regexp.MustCompile(`[^\p{L}\p{N}_\-]`)

// Meta describes the generated document.
type Meta struct {
	GeneratedAt string `json:"generatedAt"`
	ToolVersion string `json:"toolVersion"`
	Subject     string `json:"subject"`
	Location    string `json:"location"`
}

// Document is the on-disk layout of a report.
type Document struct {
	ReportMeta          Meta                     `json:"reportMeta"`
	ExecutiveSummary    string                   `json:"executiveSummary"`
	DetailedAnalysis    string                   `json:"detailedAnalysis"`
	RiskAssessment      osint.RiskAnalysis       `json:"riskAssessment"`
	KeyFindings         []string                 `json:"keyFindings"`
	AssociatedEntities  []osint.AssociatedEntity `json:"associatedEntities"`
	ProfileInformation  osint.ProfileInfo        `json:"profileInformation"`
	EntityRelationships osint.EntityStats        `json:"entityRelationships"`
	SourceBreakdown     []osint.SourceCount      `json:"sourceBreakdown"`
	Timeline            []osint.TimelineEvent    `json:"timeline"`
	RawIntelligence     []osint.RawDataItem      `json:"rawIntelligence"`
	SearchStatistics    osint.SearchMeta         `json:"searchStatistics"`
}

// Writer stores report documents in a directory.
type Writer struct {
	Dir string
	Now func() time.Time
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Now: time.Now}
}

// BuildDocument maps a search report onto the document sections.
func BuildDocument(r *osint.Report, generatedAt time.Time) Document {
	subject := r.Name
	if subject == "" {
		subject = "Unknown"
	}
	return Document{
		ReportMeta: Meta{
			GeneratedAt: generatedAt.Format(time.RFC3339),
			ToolVersion: toolVersion,
			Subject:     subject,
			Location:    r.Location,
		},
		ExecutiveSummary:    r.ShortSummary,
		DetailedAnalysis:    r.DetailedSummary,
		RiskAssessment:      r.RiskAnalysis,
		KeyFindings:         orEmpty(r.KeyFindings),
		AssociatedEntities:  orEmpty(r.AssociatedEntities),
		ProfileInformation:  r.ProfileInfo,
		EntityRelationships: r.EntityAnalysis,
		SourceBreakdown:     orEmpty(r.SourceAnalysis),
		Timeline:            orEmpty(r.TimelineEvents),
		RawIntelligence:     orEmpty(r.RawData),
		SearchStatistics:    r.SearchMeta,
	}
}

// Write renders r and returns the generated filename and its path.
func (w *Writer) Write(r *osint.Report) (string, string, error) {
	if r == nil {
		return "", "", errors.New("nil report")
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create reports dir: %w", err)
	}

	now := w.now()
	filename := Filename(r.Name, now)
	path := filepath.Join(w.Dir, filename)

	body, err := json.MarshalIndent(BuildDocument(r, now), "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", "", fmt.Errorf("write report: %w", err)
	}
	return filename, path, nil
}

// Path resolves a previously generated filename inside the reports directory.
func (w *Writer) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") ||
		filepath.Ext(filename) != ".json" {
		return "", ErrInvalidFilename
	}
	path := filepath.Join(w.Dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Filename is <name_slug>_report_<YYYYmmdd_HHMMSS>.json.
func Filename(name string, at time.Time) string {
	slug := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	slug = unsafeSlugChars.ReplaceAllString(slug, "")
	if runes := []rune(slug); len(runes) > 30 {
		slug = string(runes[:30])
	}
	if slug == "" {
		slug = "person"
	}
	return fmt.Sprintf("%s_report_%s.json", slug, at.Format("20060102_150405"))
}

func (w *Writer) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
