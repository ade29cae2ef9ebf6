package osint

import "testing"

func TestMerge(t *testing.T) {
	a := []RawResult{
		{Source: "LinkedIn", Link: "https://a.example/1", Title: "first"},
		{Source: "LinkedIn", Link: ""},
		{Source: "LinkedIn", Link: "https://a.example/2"},
	}
	b := []RawResult{
		{Source: "General", Link: "https://a.example/1", Title: "second"},
		{Source: "General", Link: "https://a.example/3"},
		{Source: "General", Link: "https://a.example/3"},
	}

	got := Merge(a, b)
	wantLinks := []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"}
	if len(got) != len(wantLinks) {
		t.Fatalf("Merge() returned %d results, want %d", len(got), len(wantLinks))
	}
	for i, link := range wantLinks {
		if got[i].Link != link {
			t.Errorf("Merge()[%d].Link = %q, want %q", i, got[i].Link, link)
		}
	}
	// The first occurrence wins, regardless of source tag.
	if got[0].Source != "LinkedIn" || got[0].Title != "first" {
		t.Errorf("expected first-seen result to be kept, got %+v", got[0])
	}
}

func TestMerge_NoDuplicateLinks(t *testing.T) {
	lists := [][]RawResult{
		{{Link: "x"}, {Link: "y"}, {Link: ""}},
		{{Link: "y"}, {Link: "z"}, {Link: "x"}},
		{},
		nil,
		{{Link: ""}, {Link: "z"}},
	}

	got := Merge(lists...)
	seen := map[string]int{}
	for _, r := range got {
		if r.Link == "" {
			t.Fatalf("empty link survived merge")
		}
		seen[r.Link]++
	}
	for link, n := range seen {
		if n != 1 {
			t.Errorf("link %q appears %d times", link, n)
		}
	}
	if len(got) != 3 {
		t.Errorf("expected 3 distinct links, got %d", len(got))
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := Merge(); len(got) != 0 {
		t.Errorf("Merge() of nothing = %v", got)
	}
	if got := Merge(nil, []RawResult{}); len(got) != 0 {
		t.Errorf("Merge() of empty lists = %v", got)
	}
}
