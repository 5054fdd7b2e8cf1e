// Package arxiv fetches preprint metadata from the arXiv export API and maps
// the Atom feed onto a bibliography entry.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"bibdb/src/internal/dates"
	"bibdb/src/internal/entry"
	"bibdb/src/internal/httpx"
	"bibdb/src/internal/logger"
	"bibdb/src/internal/names"
	"bibdb/src/internal/sanitize"
)

const nsArxiv = "http://arxiv.org/schemas/atom"

var absPrefixes = []string{"http://arxiv.org/abs/", "https://arxiv.org/abs/"}

// ErrAPI is returned when the feed reports an error instead of a paper.
var ErrAPI = errors.New("arxiv api error")

// Client queries the arXiv export API.
type Client struct {
	http    *httpx.Client
	baseURL string
	log     *logger.Logger
}

// NewClient returns a Client for baseURL (e.g. https://export.arxiv.org/api/query).
func NewClient(c *httpx.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{http: c, baseURL: baseURL, log: log.Component("arxiv")}
}

type feed struct {
	Entries []node `xml:"entry"`
}

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n node) child(local string) (node, bool) {
	for _, c := range n.Children {
		if c.XMLName.Local == local {
			return c, true
		}
	}
	return node{}, false
}

// Fetch looks up id and returns the corresponding entry.
func (c *Client) Fetch(ctx context.Context, id string) (*entry.Entry, error) {
	id = strings.TrimSpace(id)
	c.log.Info().Str("id", id).Msg("gathering data for arXiv ID")
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id_list", id).
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}
	if err := httpx.CheckStatus("arxiv", resp); err != nil {
		return nil, err
	}
	return c.decode(resp.Body())
}

func (c *Client) decode(body []byte) (*entry.Entry, error) {
	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("arxiv: invalid feed: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("%w: feed contains no entry", ErrAPI)
	}
	atom := f.Entries[0]
	if t, ok := atom.child("title"); ok && strings.TrimSpace(t.Text) == "Error" {
		msg := ""
		if s, ok := atom.child("summary"); ok {
			msg = strings.TrimSpace(s.Text)
		}
		return nil, fmt.Errorf("%w: %s", ErrAPI, msg)
	}

	fields := entry.NewFields()
	fields.Set("archivePrefix", "arXiv")
	var authors []string
	first := true
	firstAuthor, year := "", ""
	for _, ch := range atom.Children {
		switch {
		case ch.XMLName.Local == "doi" && ch.XMLName.Space == nsArxiv:
			fields.Set("doi", strings.TrimSpace(ch.Text))
		case ch.XMLName.Local == "primary_category" && ch.XMLName.Space == nsArxiv:
			fields.Set("primaryClass", ch.attr("term"))
		case ch.XMLName.Local == "id":
			raw := strings.TrimSpace(ch.Text)
			fields.Set("arxivid", trimAbs(raw))
			fields.Set("eprint", raw)
		case ch.XMLName.Local == "published":
			if y := dates.YearFromDate(ch.Text); y > 0 {
				year = dates.YearString(y)
				fields.Set("year", year)
			}
		case ch.XMLName.Local == "title":
			fields.Set("title", sanitize.CollapseSpace(ch.Text))
		case ch.XMLName.Local == "summary":
			fields.Set("abstract", sanitize.CollapseSpace(ch.Text))
		case ch.XMLName.Local == "author":
			n, ok := ch.child("name")
			if !ok {
				continue
			}
			name := sanitize.CollapseSpace(n.Text)
			if first {
				firstAuthor = name
				first = false
			}
			authors = append(authors, name)
		default:
			c.log.Warn().Str("key", ch.XMLName.Local).Msg("key of this arXiv entry is not being processed")
		}
	}
	if len(authors) > 0 {
		fields.Set("author", names.Join(authors))
	}
	if fields.Has("doi") {
		fields.Set(entry.KeyType, "article")
	} else {
		fields.Set(entry.KeyType, "unpublished")
	}
	sanitize.CleanFields(fields)
	label := names.Label(firstAuthor, year)
	if label == "" {
		label = trimAbs(fields.String("eprint"))
	}
	return entry.New(label, fields), nil
}

// IDFromURL extracts the paper ID from an arxiv.org abstract or PDF link.
func IDFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Host)
	if host != "arxiv.org" && !strings.HasSuffix(host, ".arxiv.org") {
		return "", false
	}
	for _, dir := range []string{"/abs/", "/pdf/"} {
		if id, ok := strings.CutPrefix(u.Path, dir); ok && id != "" {
			return strings.TrimSuffix(id, ".pdf"), true
		}
	}
	return "", false
}

func trimAbs(s string) string {
	for _, p := range absPrefixes {
		s = strings.TrimPrefix(s, p)
	}
	return s
}
