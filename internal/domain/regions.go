package domain

import "strings"

// Regions is the allow-list of municipalities a worker may dispatch.
// Matching ignores case and surrounding whitespace.
type Regions struct {
	names map[string]struct{}
}

func NewRegions(names ...string) Regions {
	r := Regions{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if key := normalizeRegion(n); key != "" {
			r.names[key] = struct{}{}
		}
	}
	return r
}

func (r Regions) Allowed(name string) bool {
	_, ok := r.names[normalizeRegion(name)]
	return ok
}

func (r Regions) Len() int { return len(r.names) }

func normalizeRegion(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
