package sanitize

import (
    "net/url"
    "strings"

    "bibdb/src/internal/entry"
)

// CleanString trims and removes ASCII control characters except tab/newline/carriage
// return up to max runes (if max <= 0, no truncation).
func CleanString(s string, max int) string {
    s = strings.TrimSpace(s)
    if s == "" {
        return s
    }
    var b strings.Builder
    n := 0
    for _, r := range s {
        if r == '\n' || r == '\t' || r == '\r' || (r >= 0x20 && r != 0x7f) {
            b.WriteRune(r)
            n++
            if max > 0 && n >= max {
                break
            }
        }
    }
    return strings.TrimSpace(b.String())
}

// CollapseSpace replaces every whitespace run (newlines included) with a single space.
func CollapseSpace(s string) string {
    return strings.Join(strings.Fields(s), " ")
}

// CleanURL returns a validated http/https URL or empty string.
func CleanURL(raw string) string {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return ""
    }
    u, err := url.Parse(raw)
    if err != nil || u.Scheme == "" || u.Host == "" {
        return ""
    }
    if u.Scheme != "http" && u.Scheme != "https" {
        return ""
    }
    u.Path = strings.ReplaceAll(u.Path, " ", "%20")
    return u.String()
}

// CleanFields applies CleanString to every value of fetched metadata and drops
// fields left empty. The url field is additionally validated.
func CleanFields(f *entry.Fields) {
    if f == nil { return }
    const max = 12000
    for _, k := range f.Keys() {
        v, _ := f.Get(k)
        switch t := v.(type) {
        case string:
            s := CleanString(t, max)
            if k == "url" {
                s = CleanURL(s)
            }
            if s == "" {
                f.Delete(k)
                continue
            }
            f.Set(k, s)
        case []string:
            out := make([]string, 0, len(t))
            for _, s := range t {
                if s = CleanString(s, max); s != "" {
                    out = append(out, s)
                }
            }
            if len(out) == 0 {
                f.Delete(k)
                continue
            }
            f.SetList(k, out)
        }
    }
}
