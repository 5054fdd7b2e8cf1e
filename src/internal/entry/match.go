package entry

import "strings"

// FilterKey selects a field and whether substrings must be present (Include)
// or absent.
type FilterKey struct {
	Field   string
	Include bool
}

// Filter maps field selectors to the substrings checked against them.
type Filter map[FilterKey][]string

// Matches evaluates f against the entry. Every (key, substring) pair yields one
// boolean; a missing field yields !Include for its key. With or set the entry
// matches when any boolean holds, otherwise all must hold.
func (e *Entry) Matches(f Filter, or bool) bool {
	var results []bool
	for key, subs := range f {
		if !e.Fields.Has(key.Field) {
			results = append(results, !key.Include)
			continue
		}
		for _, sub := range subs {
			if e.fieldContains(key.Field, sub) {
				results = append(results, key.Include)
			} else {
				results = append(results, !key.Include)
			}
		}
	}
	if or {
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}

func (e *Entry) fieldContains(field, sub string) bool {
	for _, v := range e.Fields.List(field) {
		if strings.Contains(v, sub) {
			return true
		}
	}
	return false
}
