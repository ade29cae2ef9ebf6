package osint

// Merge concatenates result lists in the given order and keeps the first
// result seen for every non-empty link. Results without a link are dropped.
func Merge(lists ...[]RawResult) []RawResult {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	out := make([]RawResult, 0, total)
	seen := make(map[string]bool, total)
	for _, l := range lists {
		for _, r := range l {
			if r.Link == "" || seen[r.Link] {
				continue
			}
			seen[r.Link] = true
			out = append(out, r)
		}
	}
	return out
}
