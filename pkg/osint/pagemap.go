package osint

import (
	"fmt"
	"strings"
)

// First returns the first record of the given type, if present.
func (p PageMap) First(kind string) (map[string]any, bool) {
	records := p[kind]
	if len(records) == 0 || records[0] == nil {
		return nil, false
	}
	return records[0], true
}

// String reads a field of the first record of the given type.
func (p PageMap) String(kind, field string) string {
	rec, ok := p.First(kind)
	if !ok {
		return ""
	}
	return fieldString(rec, field)
}

func fieldString(rec map[string]any, field string) string {
	v, ok := rec[field]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
