// Package doi recognises Digital Object Identifiers in text and resolves them
// to BibTeX through doi.org content negotiation.
package doi

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"bibdb/src/internal/httpx"
)

// Pattern matches DOI candidates: "10.", a registrant code, "/", then any run
// of non-space characters other than quotes and ampersands.
var Pattern = regexp.MustCompile(`10\.[0-9a-zA-Z]+/[^\s"&']+`)

var prefixes = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"}

// Find returns every DOI in text in order of appearance. Trailing punctuation
// is trimmed so that each match ends on a word character.
func Find(text string) []string {
	var out []string
	for _, m := range Pattern.FindAllString(text, -1) {
		if d, ok := trimTail(m); ok {
			out = append(out, d)
		}
	}
	return out
}

func trimTail(m string) (string, bool) {
	d := strings.TrimRightFunc(m, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	_, suffix, ok := strings.Cut(d, "/")
	return d, ok && suffix != ""
}

// Normalize strips resolver prefixes and returns the DOI at the start of s.
// Unlike Find it keeps trailing punctuation, which is legal in a DOI (SICI
// suffixes end in "-#" for example).
func Normalize(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, p := range prefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	loc := Pattern.FindStringIndex(s)
	if loc == nil || loc[0] != 0 {
		return "", false
	}
	d := s[loc[0]:loc[1]]
	_, suffix, _ := strings.Cut(d, "/")
	return d, strings.TrimFunc(suffix, unicode.IsPunct) != ""
}

// escapePath escapes each "/"-separated part of doi so that characters such
// as "#" and "?" stay in the request path.
func escapePath(doi string) string {
	parts := strings.Split(doi, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// MostCommon returns the DOI occurring most often in text. Ties go to the one
// seen first.
func MostCommon(text string) (string, bool) {
	counts := map[string]int{}
	var order []string
	for _, d := range Find(text) {
		if counts[d] == 0 {
			order = append(order, d)
		}
		counts[d]++
	}
	best, bestN := "", 0
	for _, d := range order {
		if counts[d] > bestN {
			best, bestN = d, counts[d]
		}
	}
	return best, bestN > 0
}

// Client fetches BibTeX records from a DOI resolver.
type Client struct {
	http    *httpx.Client
	baseURL string
}

// NewClient returns a Client resolving against baseURL (e.g. https://doi.org).
func NewClient(c *httpx.Client, baseURL string) *Client {
	return &Client{http: c, baseURL: strings.TrimRight(baseURL, "/")}
}

// FetchBibTeX resolves doi with an Accept: application/x-bibtex request and
// returns the response body.
func (c *Client) FetchBibTeX(ctx context.Context, doi string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/x-bibtex").
		Get(c.baseURL + "/" + escapePath(doi))
	if err != nil {
		return "", fmt.Errorf("doi: %w", err)
	}
	if err := httpx.CheckStatus("doi", resp); err != nil {
		return "", err
	}
	body := strings.TrimSpace(resp.String())
	if body == "" {
		return "", fmt.Errorf("doi: empty response for %s", doi)
	}
	return body, nil
}
