package osint

import (
	"sort"
	"strings"
)

const maxEntitiesPerBucket = 10

type entityTally struct {
	display string
	count   int
	order   int
}

type entityBucket struct {
	byKey map[string]*entityTally
	next  int
}

func (b *entityBucket) add(text string) {
	key := strings.ToLower(text)
	if t, ok := b.byKey[key]; ok {
		t.count++
		return
	}
	b.byKey[key] = &entityTally{display: text, count: 1, order: b.next}
	b.next++
}

func (b *entityBucket) top(n int) []EntityCount {
	tallies := make([]*entityTally, 0, len(b.byKey))
	for _, t := range b.byKey {
		tallies = append(tallies, t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].count != tallies[j].count {
			return tallies[i].count > tallies[j].count
		}
		return tallies[i].order < tallies[j].order
	})

	out := make([]EntityCount, 0, min(n, len(tallies)))
	for _, t := range tallies {
		if len(out) == n {
			break
		}
		out = append(out, EntityCount{Name: t.display, Count: t.count})
	}
	return out
}

// AggregateEntities counts the people, organizations and places co-mentioned
// with the target. Mentions overlapping the target name are ignored.
func AggregateEntities(results []FilteredResult, targetName string) EntityStats {
	target := strings.ToLower(strings.TrimSpace(targetName))
	persons := &entityBucket{byKey: map[string]*entityTally{}}
	orgs := &entityBucket{byKey: map[string]*entityTally{}}
	places := &entityBucket{byKey: map[string]*entityTally{}}

	for _, r := range results {
		for _, ent := range r.Entities {
			text := strings.TrimSpace(ent.Text)
			if text == "" || isSelfMention(strings.ToLower(text), target) {
				continue
			}
			switch ent.Label {
			case LabelPerson:
				persons.add(text)
			case LabelOrg:
				orgs.add(text)
			case LabelGPE, LabelLoc:
				places.add(text)
			}
		}
	}

	return EntityStats{
		TopPersons:       persons.top(maxEntitiesPerBucket),
		TopOrganizations: orgs.top(maxEntitiesPerBucket),
		TopLocations:     places.top(maxEntitiesPerBucket),
	}
}

func isSelfMention(text, target string) bool {
	if target == "" {
		return false
	}
	return strings.Contains(target, text) || strings.Contains(text, target)
}
