package names

import (
    "strings"
)

// Surname returns the family name of a personal name. It accepts either
// "Family, Given Names" or "Given Names Family".
func Surname(name string) string {
    name = strings.TrimSpace(name)
    if name == "" {
        return ""
    }
    if i := strings.Index(name, ","); i >= 0 {
        return strings.TrimSpace(name[:i])
    }
    parts := strings.Fields(name)
    return parts[len(parts)-1]
}

// Join concatenates author names BibTeX style, separated by " and ".
// Blank names are skipped.
func Join(authors []string) string {
    out := make([]string, 0, len(authors))
    for _, a := range authors {
        if a = strings.TrimSpace(a); a != "" {
            out = append(out, a)
        }
    }
    return strings.Join(out, " and ")
}

// Label builds a citation label from the first author's surname and a year,
// e.g. ("Jane Doe", "2020") -> "Doe2020". Whitespace inside the surname is removed.
func Label(firstAuthor, year string) string {
    s := strings.Join(strings.Fields(Surname(firstAuthor)), "")
    return s + strings.TrimSpace(year)
}
