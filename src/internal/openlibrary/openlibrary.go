// Package openlibrary resolves ISBNs to book entries via the OpenLibrary
// Books API, falling back to Google Books when OpenLibrary has no record.
package openlibrary

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "regexp"
    "strings"

    "bibdb/src/internal/dates"
    "bibdb/src/internal/entry"
    "bibdb/src/internal/httpx"
    "bibdb/src/internal/names"
    "bibdb/src/internal/sanitize"
)

// Pattern matches ISBN-13, ISBN-10 and loosely hyphenated forms.
var Pattern = regexp.MustCompile(`(?i)97[89](?:-?\d){10}|\d{9}[0-9X]|[-0-9X]{10,16}`)

// ErrNotFound is returned when neither service knows the ISBN.
var ErrNotFound = errors.New("no data found for ISBN")

// Client queries OpenLibrary and Google Books.
type Client struct {
    http           *httpx.Client
    openLibraryURL string
    googleBooksURL string
}

// NewClient returns a Client for the given endpoints.
func NewClient(c *httpx.Client, openLibraryURL, googleBooksURL string) *Client {
    return &Client{http: c, openLibraryURL: openLibraryURL, googleBooksURL: googleBooksURL}
}

// Valid reports whether s starts with an ISBN-like token.
func Valid(s string) bool {
    loc := Pattern.FindStringIndex(strings.TrimSpace(s))
    return loc != nil && loc[0] == 0
}

// FetchBookByISBN queries OpenLibrary and maps the response to a book entry.
func (c *Client) FetchBookByISBN(ctx context.Context, isbn string) (*entry.Entry, error) {
    norm := normalizeISBN(isbn)
    data, ok, err := c.fetchOpenLibrary(ctx, norm)
    if err != nil { return nil, err }
    if !ok {
        e, gErr := c.fetchGoogleBookByISBN(ctx, norm)
        if gErr == nil { return e, nil }
        return nil, fmt.Errorf("%w: %s (%v)", ErrNotFound, isbn, gErr)
    }
    return mapOpenLibraryToEntry(data, norm), nil
}

type olData struct {
    Title         string `json:"title"`
    PublishDate   string `json:"publish_date"`
    URL           string `json:"url"`
    NumberOfPages int    `json:"number_of_pages"`
    Authors       []struct{ Name string } `json:"authors"`
    Publishers    []struct{ Name string } `json:"publishers"`
}

func (c *Client) fetchOpenLibrary(ctx context.Context, norm string) (olData, bool, error) {
    resp, err := c.http.R().
        SetContext(ctx).
        SetHeader("Accept", "application/json").
        SetQueryParams(map[string]string{"bibkeys": "ISBN:" + norm, "format": "json", "jscmd": "data"}).
        Get(c.openLibraryURL)
    if err != nil { return olData{}, false, fmt.Errorf("openlibrary: %w", err) }
    if err := httpx.CheckStatus("openlibrary", resp); err != nil { return olData{}, false, err }
    return decodeOpenLibraryData(resp.Body(), norm)
}

func decodeOpenLibraryData(body []byte, norm string) (olData, bool, error) {
    var raw map[string]json.RawMessage
    if err := json.Unmarshal(body, &raw); err != nil { return olData{}, false, fmt.Errorf("openlibrary: %w", err) }
    dataRaw, ok := raw["ISBN:"+norm]
    if !ok || len(dataRaw) == 0 { return olData{}, false, nil }
    var data olData
    if err := json.Unmarshal(dataRaw, &data); err != nil { return olData{}, false, fmt.Errorf("openlibrary: %w", err) }
    return data, true, nil
}

func mapOpenLibraryToEntry(data olData, norm string) *entry.Entry {
    f := entry.NewFields()
    f.Set(entry.KeyType, "book")
    f.Set("title", data.Title)
    f.Set("url", data.URL)
    if data.NumberOfPages > 0 { f.Set("pages", fmt.Sprintf("%d", data.NumberOfPages)) }
    year := ""
    if strings.TrimSpace(data.PublishDate) != "" {
        f.Set("date", data.PublishDate)
        year = dates.YearString(dates.ExtractYear(data.PublishDate))
        f.Set("year", year)
    }
    authors := make([]string, 0, len(data.Authors))
    for _, a := range data.Authors { authors = append(authors, a.Name) }
    f.Set("author", names.Join(authors))
    pubs := make([]string, 0, len(data.Publishers))
    for _, p := range data.Publishers { pubs = append(pubs, p.Name) }
    f.Set("publisher", names.Join(pubs))
    f.Set("isbn", norm)
    sanitize.CleanFields(f)
    return entry.New(bookLabel(authors, year, norm), f)
}

func bookLabel(authors []string, year, norm string) string {
    first := ""
    if len(authors) > 0 { first = authors[0] }
    if l := names.Label(first, year); l != "" { return l }
    return "isbn" + norm
}

type gBooksResp struct {
    Items []struct{ VolumeInfo gVolume `json:"volumeInfo"` } `json:"items"`
}
type gVolume struct {
    Title         string   `json:"title"`
    Authors       []string `json:"authors"`
    Publisher     string   `json:"publisher"`
    PublishedDate string   `json:"publishedDate"`
    PageCount     int      `json:"pageCount"`
    InfoLink      string   `json:"infoLink"`
}

// fetchGoogleBookByISBN queries Google Books API for a given ISBN and maps the first result.
func (c *Client) fetchGoogleBookByISBN(ctx context.Context, isbn string) (*entry.Entry, error) {
    resp, err := c.http.R().
        SetContext(ctx).
        SetHeader("Accept", "application/json").
        SetQueryParam("q", "isbn:"+isbn).
        Get(c.googleBooksURL)
    if err != nil { return nil, fmt.Errorf("googlebooks: %w", err) }
    if err := httpx.CheckStatus("googlebooks", resp); err != nil { return nil, err }
    var gb gBooksResp
    if err := json.Unmarshal(resp.Body(), &gb); err != nil { return nil, fmt.Errorf("googlebooks: %w", err) }
    if len(gb.Items) == 0 { return nil, fmt.Errorf("googlebooks: no items for %s", isbn) }
    return mapGoogleBookToEntry(gb.Items[0].VolumeInfo, isbn), nil
}

func mapGoogleBookToEntry(v gVolume, isbn string) *entry.Entry {
    f := entry.NewFields()
    f.Set(entry.KeyType, "book")
    f.Set("title", v.Title)
    f.Set("publisher", v.Publisher)
    f.Set("url", v.InfoLink)
    if v.PageCount > 0 { f.Set("pages", fmt.Sprintf("%d", v.PageCount)) }
    year := ""
    if strings.TrimSpace(v.PublishedDate) != "" {
        f.Set("date", v.PublishedDate)
        year = dates.YearString(dates.ExtractYear(v.PublishedDate))
        f.Set("year", year)
    }
    f.Set("author", names.Join(v.Authors))
    f.Set("isbn", isbn)
    sanitize.CleanFields(f)
    return entry.New(bookLabel(v.Authors, year, isbn), f)
}

// normalizeISBN cleans input and, if a 9-digit core is provided, computes the ISBN-10 check digit.
func normalizeISBN(isbn string) string {
	s := strings.ToUpper(strings.TrimSpace(isbn))
	core := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' || r == 'X' {
			core = append(core, r)
		}
	}
	digitsOnly := true
	for _, r := range core {
		if r < '0' || r > '9' {
			digitsOnly = false
			break
		}
	}
	if len(core) == 9 && digitsOnly {
		return string(core) + isbn10CheckDigit(string(core))
	}
	return string(core)
}

// isbn10CheckDigit computes the ISBN-10 check digit for a 9-digit string, returning "0"-"9" or "X".
func isbn10CheckDigit(s string) string {
	sum := 0
	for i, ch := range s {
		sum += (i + 1) * int(ch-'0')
	}
	cd := sum % 11
	if cd == 10 {
		return "X"
	}
	return fmt.Sprintf("%d", cd)
}
