package osint

import edlib "github.com/hbollon/go-edlib"

// Scorer rates how closely needle appears inside haystack on a 0-100 scale.
type Scorer func(needle, haystack string) float64

// PartialRatio slides the shorter string across the longer one and returns the
// best Indel similarity (2*LCS / total length) of any window, so an exact
// substring scores 100 and transposed letters only cost one match each.
// Windows cut off at either end of the longer string are scored too.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	s, n := string(short), len(short)
	best := 0.0
	for _, w := range windows(long, n) {
		if r := indelRatio(s, n, w); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// windows returns every n-rune slice of long followed by the shorter
// prefixes and suffixes of long.
func windows(long []rune, n int) [][]rune {
	out := make([][]rune, 0, len(long)+n)
	for i := 0; i+n <= len(long); i++ {
		out = append(out, long[i:i+n])
	}
	for i := 1; i < n && i < len(long); i++ {
		out = append(out, long[:i], long[len(long)-i:])
	}
	return out
}

// indelRatio expects a to be n runes long.
func indelRatio(a string, n int, w []rune) float64 {
	total := n + len(w)
	if total == 0 {
		return 0
	}
	return 200 * float64(edlib.LCS(a, string(w))) / float64(total)
}
