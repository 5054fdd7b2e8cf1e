package stringsx

import "strings"

// FirstNonEmpty returns the first string in vals that is non-empty when trimmed.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// KeyValue splits "key=value" (a leading "--" is tolerated) into its trimmed
// parts. ok is false when there is no '=' or the key is empty.
func KeyValue(s string) (key, value string, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "--")
	k, v, found := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if !found || k == "" {
		return "", "", false
	}
	return k, strings.TrimSpace(v), true
}
