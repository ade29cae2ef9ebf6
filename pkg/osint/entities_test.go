package osint

import (
	"fmt"
	"testing"
)

func withEntities(ents ...EntityMention) FilteredResult {
	return FilteredResult{RawResult: RawResult{Entities: ents}}
}

func TestAggregateEntities(t *testing.T) {
	results := []FilteredResult{
		withEntities(
			EntityMention{Text: "Jane Doe", Label: LabelPerson},
			EntityMention{Text: "Jane", Label: LabelPerson},
			EntityMention{Text: "John Roe", Label: LabelPerson},
			EntityMention{Text: "Acme Corp", Label: LabelOrg},
			EntityMention{Text: "Pune", Label: LabelGPE},
		),
		withEntities(
			EntityMention{Text: "Mary Major", Label: LabelPerson},
			EntityMention{Text: "Dr. Jane Doe", Label: LabelPerson},
			EntityMention{Text: "acme corp", Label: LabelOrg},
			EntityMention{Text: "Maharashtra", Label: LabelLoc},
			EntityMention{Text: "2020", Label: "DATE"},
		),
		withEntities(
			EntityMention{Text: "Mary Major", Label: LabelPerson},
			EntityMention{Text: "  ", Label: LabelPerson},
			EntityMention{Text: "pune", Label: LabelGPE},
		),
	}

	stats := AggregateEntities(results, "Jane Doe")

	assertCounts(t, "persons", stats.TopPersons, []EntityCount{{"Mary Major", 2}, {"John Roe", 1}})
	assertCounts(t, "orgs", stats.TopOrganizations, []EntityCount{{"Acme Corp", 2}})
	assertCounts(t, "places", stats.TopLocations, []EntityCount{{"Pune", 2}, {"Maharashtra", 1}})
}

func TestAggregateEntities_TopTenWithStableTies(t *testing.T) {
	var ents []EntityMention
	for i := range 12 {
		ents = append(ents, EntityMention{Text: fmt.Sprintf("Org %02d", i), Label: LabelOrg})
	}
	ents = append(ents, EntityMention{Text: "Org 11", Label: LabelOrg})

	stats := AggregateEntities([]FilteredResult{withEntities(ents...)}, "Jane Doe")

	if len(stats.TopOrganizations) != 10 {
		t.Fatalf("expected 10 organizations, got %d", len(stats.TopOrganizations))
	}
	if stats.TopOrganizations[0] != (EntityCount{"Org 11", 2}) {
		t.Errorf("top = %v, want Org 11 x2", stats.TopOrganizations[0])
	}
	for i := 1; i < 10; i++ {
		want := fmt.Sprintf("Org %02d", i-1)
		if stats.TopOrganizations[i].Name != want {
			t.Errorf("position %d = %s, want %s", i, stats.TopOrganizations[i].Name, want)
		}
	}
}

func TestAggregateEntities_Empty(t *testing.T) {
	stats := AggregateEntities(nil, "Jane Doe")
	if stats.TopPersons == nil || stats.TopOrganizations == nil || stats.TopLocations == nil {
		t.Errorf("expected empty non-nil buckets, got %+v", stats)
	}
}

func assertCounts(t *testing.T, name string, got, want []EntityCount) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}
