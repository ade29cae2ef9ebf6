package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikeboe/osint-investigator/pkg/osint"
)

var fixedTime = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func TestFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Jane Doe", "Jane_Doe_report_20240506_070809.json"},
		{"", "person_report_20240506_070809.json"},
		{"../../etc/passwd", "etcpasswd_report_20240506_070809.json"},
		{"Abcdefghij Klmnopqrst Uvwxyzabcd Efgh", "Abcdefghij_Klmnopqrst_Uvwxyzab_report_20240506_070809.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.name, fixedTime); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestWriterWriteAndPath(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: filepath.Join(dir, "reports"), Now: func() time.Time { return fixedTime }}

	r := &osint.Report{
		Name:         "Jane Doe",
		Location:     "Pune",
		ShortSummary: "Engineer.",
		RiskAnalysis: osint.RiskAnalysis{RiskScore: 2},
		KeyFindings:  []string{"Works at Acme"},
	}
	filename, path, err := w.Write(r)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if filename != "Jane_Doe_report_20240506_070809.json" {
		t.Errorf("filename = %q", filename)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	for _, section := range []string{"reportMeta", "executiveSummary", "detailedAnalysis", "riskAssessment", "keyFindings",
		"associatedEntities", "profileInformation", "entityRelationships", "sourceBreakdown", "timeline",
		"rawIntelligence", "searchStatistics"} {
		if _, ok := doc[section]; !ok {
			t.Errorf("missing section %s", section)
		}
	}
	if doc["executiveSummary"] != "Engineer." {
		t.Errorf("executiveSummary = %v", doc["executiveSummary"])
	}
	if doc["timeline"] == nil {
		t.Error("timeline should be an empty list, not null")
	}

	got, err := w.Path(filename)
	if err != nil || got != path {
		t.Errorf("Path() = %q, %v; want %q", got, err, path)
	}
}

func TestWriterPathRejectsTraversal(t *testing.T) {
	w := NewWriter(t.TempDir())
	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{"Parent dir", "../secret.json", ErrInvalidFilename},
		{"Nested", "a/b.json", ErrInvalidFilename},
		{"Wrong extension", "report.txt", ErrInvalidFilename},
		{"Empty", "", ErrInvalidFilename},
		{"Missing", "nobody_report_20240101_000000.json", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.Path(tt.file); !errors.Is(err, tt.wantErr) {
				t.Errorf("Path(%q) error = %v, want %v", tt.file, err, tt.wantErr)
			}
		})
	}
}
