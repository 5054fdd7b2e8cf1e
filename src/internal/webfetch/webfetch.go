// Package webfetch downloads a web page (or a PDF served over HTTP) and maps
// its embedded metadata onto a bibliography entry. HTML pages are read from
// OpenGraph, JSON-LD and plain meta tags; PDFs from the info dictionary and
// XMP packet.
package webfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"bibdb/src/internal/dates"
	"bibdb/src/internal/entry"
	"bibdb/src/internal/httpx"
	"bibdb/src/internal/names"
	"bibdb/src/internal/sanitize"
	"bibdb/src/internal/stringsx"
)

const maxBody = 2 << 20

// ErrInvalidURL is returned for anything but an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// Page is a fetched document.
type Page struct {
	URL         string
	ContentType string
	Body        string
}

// Client fetches pages.
type Client struct {
	http *httpx.Client
}

// NewClient returns a Client using c for requests.
func NewClient(c *httpx.Client) *Client { return &Client{http: c} }

// Fetch downloads raw. At most 2 MiB of the body is read.
func (c *Client) Fetch(ctx context.Context, raw string) (*Page, error) {
	u := sanitize.CleanURL(raw)
	if u == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/pdf;q=0.9,*/*;q=0.8").
		SetDoNotParseResponse(true).
		Get(u)
	if err != nil {
		return nil, fmt.Errorf("url fetch: %w", err)
	}
	rc := resp.RawBody()
	defer func() { _ = rc.Close() }()
	body, err := io.ReadAll(io.LimitReader(rc, maxBody))
	if err != nil {
		return nil, fmt.Errorf("url fetch: %w", err)
	}
	if err := httpx.CheckBody("url fetch", resp, body); err != nil {
		return nil, err
	}
	return &Page{URL: u, ContentType: strings.ToLower(resp.Header().Get("Content-Type")), Body: string(body)}, nil
}

// IsPDF reports whether the page is a PDF document.
func (p *Page) IsPDF() bool {
	return strings.Contains(p.ContentType, "pdf") || strings.HasPrefix(p.Body, "%PDF-") ||
		strings.HasSuffix(strings.ToLower(p.URL), ".pdf")
}

// Entry describes the page as an "online" entry (or "article" for PDFs).
// accessed becomes the urldate field. An entry without a title is returned
// with the host as title.
func (p *Page) Entry(accessed time.Time) *entry.Entry {
	var m meta
	typ := "online"
	if p.IsPDF() {
		m = pdfMeta(p.Body)
		typ = "article"
	} else {
		m = htmlMeta(p.Body)
	}
	host := hostOf(p.URL)

	f := entry.NewFields()
	f.Set(entry.KeyType, typ)
	f.Set("title", stringsx.FirstNonEmpty(m.title, host))
	f.Set("author", names.Join(m.authors))
	f.Set("publisher", stringsx.FirstNonEmpty(m.publisher, m.site))
	f.Set("abstract", m.description)
	year := dates.YearString(dates.ExtractYear(m.date))
	f.Set("year", year)
	if len(m.date) >= 10 && dates.YearFromDate(m.date) > 0 {
		f.Set("date", m.date[:10])
	}
	f.Set("url", p.URL)
	f.Set("urldate", accessed.UTC().Format("2006-01-02"))
	sanitize.CleanFields(f)

	first := ""
	if len(m.authors) > 0 {
		first = m.authors[0]
	}
	label := names.Label(first, year)
	if label == year {
		label = hostLabel(host) + year
	}
	return entry.New(label, f)
}

type meta struct {
	title, site, publisher, description, date string
	authors                                   []string
}

func htmlMeta(body string) meta {
	og, metaTitle := parseOpenGraphAndTitle(body)
	ld := parseJSONLDArticle(body)
	m := meta{
		title:       htmlUnescape(stringsx.FirstNonEmpty(og["og:title"], ld.headline, ld.name, metaTitle)),
		site:        htmlUnescape(og["og:site_name"]),
		publisher:   htmlUnescape(ld.publisher),
		description: htmlUnescape(stringsx.FirstNonEmpty(og["og:description"], ld.description, metaName(body, "description"))),
		date:        stringsx.FirstNonEmpty(ld.datePublished, og["article:published_time"], metaName(body, "date")),
		authors:     ld.authors,
	}
	if len(m.authors) == 0 {
		if a := stringsx.FirstNonEmpty(og["author"], metaName(body, "author")); a != "" {
			m.authors = splitAuthors(htmlUnescape(a))
		}
	}
	return m
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// hostLabel turns "news.example.com" into "news_example_com".
func hostLabel(host string) string {
	return strings.Map(func(r rune) rune {
		if r == '.' || r == '-' {
			return '_'
		}
		return r
	}, host)
}

var reTitle = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
var reMetaProperty = regexp.MustCompile(`(?is)<meta[^>]*?property\s*=\s*"([^"]+)"[^>]*?content\s*=\s*"([^"]*)"[^>]*>`)
var reMetaName = regexp.MustCompile(`(?is)<meta[^>]*?name\s*=\s*"([^"]+)"[^>]*?content\s*=\s*"([^"]*)"[^>]*>`)

func parseOpenGraphAndTitle(body string) (map[string]string, string) {
	og := map[string]string{}
	for _, m := range reMetaProperty.FindAllStringSubmatch(body, -1) {
		prop := strings.ToLower(strings.TrimSpace(m[1]))
		if strings.HasPrefix(prop, "og:") || strings.HasPrefix(prop, "article:") {
			og[prop] = strings.TrimSpace(m[2])
		}
	}
	for _, m := range reMetaName.FindAllStringSubmatch(body, -1) {
		name := strings.ToLower(strings.TrimSpace(m[1]))
		content := strings.TrimSpace(m[2])
		if name == "author" && og["author"] == "" {
			og["author"] = content
		}
		if name == "description" && og["og:description"] == "" {
			og["og:description"] = content
		}
	}
	title := ""
	if m := reTitle.FindStringSubmatch(body); len(m) == 2 {
		title = sanitize.CollapseSpace(m[1])
	}
	return og, title
}

var reLDJSON = regexp.MustCompile(`(?is)<script[^>]+type="application/ld\+json"[^>]*>(.*?)</script>`)

type simplifiedLD struct {
	headline, name, description, datePublished, publisher string
	authors                                               []string
}

func parseJSONLDArticle(body string) simplifiedLD {
	m := reLDJSON.FindStringSubmatch(body)
	if len(m) != 2 {
		return simplifiedLD{}
	}
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(m[1])))
	dec.UseNumber()
	var anyv any
	if err := dec.Decode(&anyv); err != nil {
		return simplifiedLD{}
	}
	// Could be an array or a single object.
	var obj map[string]any
	switch t := anyv.(type) {
	case []any:
		for _, it := range t {
			if o, ok := it.(map[string]any); ok && hasArticleType(o["@type"]) {
				obj = o
				break
			}
		}
	case map[string]any:
		obj = t
	}
	if obj == nil {
		return simplifiedLD{}
	}
	var out simplifiedLD
	out.headline, _ = obj["headline"].(string)
	out.name, _ = obj["name"].(string)
	out.description, _ = obj["description"].(string)
	out.datePublished, _ = obj["datePublished"].(string)
	out.publisher = pickName(obj["publisher"])
	out.authors = extractAuthors(obj["author"])
	return out
}

func hasArticleType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(t), "article")
	case []any:
		for _, it := range t {
			if hasArticleType(it) {
				return true
			}
		}
	}
	return false
}

func pickName(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if m, ok := v.(map[string]any); ok {
		if n, ok := m["name"].(string); ok {
			return n
		}
	}
	return ""
}

func extractAuthors(v any) []string {
	var out []string
	switch t := v.(type) {
	case string:
		out = append(out, t)
	case []any:
		for _, it := range t {
			if n := pickName(it); n != "" {
				out = append(out, n)
			}
		}
	case map[string]any:
		if n := pickName(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// metaName finds <meta name="..." content="..."> even when the attributes are
// single quoted or unquoted.
func metaName(body string, name string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, fmt.Sprintf("name=%q", strings.ToLower(name)))
	if idx == -1 {
		return ""
	}
	rest := body[idx:]
	ci := strings.Index(strings.ToLower(rest), "content=")
	if ci == -1 {
		return ""
	}
	rest = strings.TrimLeft(rest[ci+8:], " \t\r\n")
	if len(rest) > 0 && (rest[0] == '"' || rest[0] == '\'') {
		quote := rest[0]
		rest = rest[1:]
		if j := strings.IndexByte(rest, quote); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	// unquoted: read until space or >
	for i, ch := range rest {
		if ch == ' ' || ch == '>' {
			return strings.TrimSpace(rest[:i])
		}
	}
	return ""
}

func splitAuthors(s string) []string {
	// "Doe, Jane" names a single person; otherwise split on ", " or " and ".
	if strings.Count(s, ",") == 1 && !strings.Contains(s, " and ") {
		return []string{strings.TrimSpace(s)}
	}
	s = strings.ReplaceAll(s, " and ", ",")
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var rePDFTitle = regexp.MustCompile(`(?s)/Title\s*\(((?:\\.|[^\\)])*)\)`)
var rePDFAuthor = regexp.MustCompile(`(?s)/Author\s*\(((?:\\.|[^\\)])*)\)`)
var rePDFCreation = regexp.MustCompile(`(?s)/CreationDate\s*\(((?:\\.|[^\\)])*)\)`)
var reXMPTitle = regexp.MustCompile(`(?is)<dc:title>.*?<rdf:Alt>.*?<rdf:li[^>]*>(.*?)</rdf:li>.*?</dc:title>`)
var reXMPAuthors = regexp.MustCompile(`(?is)<dc:creator>.*?<rdf:Seq>(.*?)</rdf:Seq>.*?</dc:creator>`)
var reXMPAuthorItem = regexp.MustCompile(`(?is)<rdf:li[^>]*>(.*?)</rdf:li>`)

func pdfMeta(s string) meta {
	m := meta{title: stringsx.FirstNonEmpty(pdfUnescape(matchFirst(rePDFTitle, s)), htmlUnescape(matchFirst(reXMPTitle, s)))}
	if block := matchFirst(reXMPAuthors, s); block != "" {
		for _, it := range reXMPAuthorItem.FindAllStringSubmatch(block, -1) {
			if n := strings.TrimSpace(htmlUnescape(it[1])); n != "" {
				m.authors = append(m.authors, n)
			}
		}
	}
	if len(m.authors) == 0 {
		if a := pdfUnescape(matchFirst(rePDFAuthor, s)); a != "" {
			m.authors = splitAuthors(a)
		}
	}
	// D:YYYYMMDD... carries no separators; only the year is usable.
	if y := dates.ExtractYear(pdfUnescape(matchFirst(rePDFCreation, s))); y > 0 {
		m.date = dates.YearString(y)
	}
	return m
}

func matchFirst(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func pdfUnescape(s string) string {
	s = strings.ReplaceAll(s, `\(`, "(")
	s = strings.ReplaceAll(s, `\)`, ")")
	s = strings.ReplaceAll(s, `\\`, `\`)
	return sanitize.CollapseSpace(s)
}

func htmlUnescape(s string) string {
	r := strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", "\"", "&#39;", "'")
	return r.Replace(s)
}
