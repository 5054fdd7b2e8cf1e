package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibdb/src/internal/httpx"
)

var accessed = time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

func serve(t *testing.T, contentType, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestFetch_HTMLPage(t *testing.T) {
	html := `<!doctype html><html><head>
    <title>ignored</title>
    <meta property="og:title" content="Sample &amp; Title">
    <meta property="og:site_name" content="Example Site">
    <meta name="description" content="A description.">
    <script type="application/ld+json">{"@type":"NewsArticle","author":{"name":"Jane Doe"},"headline":"Sample Title","datePublished":"2024-06-01T10:00:00Z","publisher":{"name":"Example Press"}}</script>
    </head><body>...</body></html>`
	base := serve(t, "text/html; charset=utf-8", html)

	page, err := NewClient(httpx.New(time.Second)).Fetch(context.Background(), base+"/post")
	require.NoError(t, err)
	assert.False(t, page.IsPDF())

	e := page.Entry(accessed)
	assert.Equal(t, "Doe2024", e.Label)
	assert.Equal(t, "online", e.Type())
	assert.Equal(t, "Sample & Title", e.Fields.String("title"))
	assert.Equal(t, "Jane Doe", e.Fields.String("author"))
	assert.Equal(t, "Example Press", e.Fields.String("publisher"))
	assert.Equal(t, "A description.", e.Fields.String("abstract"))
	assert.Equal(t, "2024", e.Fields.String("year"))
	assert.Equal(t, "2024-06-01", e.Fields.String("date"))
	assert.Equal(t, base+"/post", e.Fields.String("url"))
	assert.Equal(t, "2025-03-04", e.Fields.String("urldate"))
}

func TestFetch_Errors(t *testing.T) {
	c := NewClient(httpx.New(time.Second))
	_, err := c.Fetch(context.Background(), "ftp://example.org/x")
	assert.ErrorIs(t, err, ErrInvalidURL)

	base := serve(t, "text/html", "")
	_, err = c.Fetch(context.Background(), base+"/missing")
	assert.True(t, httpx.IsNotFound(err))
	assert.Contains(t, err.Error(), "404 page not found")
}

func TestFetch_ReadsAtMostTheBodyCap(t *testing.T) {
	base := serve(t, "text/plain", strings.Repeat("x", maxBody+4096))
	page, err := NewClient(httpx.New(time.Second)).Fetch(context.Background(), base+"/big")
	require.NoError(t, err)
	assert.Len(t, page.Body, maxBody)
}

func TestEntry_BarePageFallsBackToHost(t *testing.T) {
	p := &Page{URL: "https://www.news-site.example.com/a", ContentType: "text/html", Body: "<html><head><title>\n  Hello\n  World </title></head></html>"}
	e := p.Entry(accessed)
	assert.Equal(t, "news_site_example_com", e.Label)
	assert.Equal(t, "Hello World", e.Fields.String("title"))
	assert.False(t, e.Fields.Has("author"))
	assert.False(t, e.Fields.Has("year"))

	p.Body = "<html></html>"
	assert.Equal(t, "news-site.example.com", p.Entry(accessed).Fields.String("title"))
}

func TestEntry_MetaAuthors(t *testing.T) {
	p := &Page{URL: "https://example.com/", Body: `<meta name="author" content="Ann Lee and Bo Kim"><meta name="date" content="2019-02-03">`}
	e := p.Entry(accessed)
	assert.Equal(t, "Ann Lee and Bo Kim", e.Fields.String("author"))
	assert.Equal(t, "Lee2019", e.Label)

	p.Body = `<meta name="author" content="Doe, Jane">`
	assert.Equal(t, "Doe, Jane", p.Entry(accessed).Fields.String("author"))
}

func TestEntry_PDF(t *testing.T) {
	pdf := "%PDF-1.4\n1 0 obj\n<< /Title (Some \\(great\\) title) /Author (Doe, Jane) /CreationDate (D:20230601120000Z) >>\nendobj\n"
	p := &Page{URL: "https://example.com/x", ContentType: "application/pdf", Body: pdf}
	require.True(t, p.IsPDF())
	e := p.Entry(accessed)
	assert.Equal(t, "article", e.Type())
	assert.Equal(t, "Some (great) title", e.Fields.String("title"))
	assert.Equal(t, "Doe, Jane", e.Fields.String("author"))
	assert.Equal(t, "Doe2023", e.Label)
	assert.False(t, e.Fields.Has("date"))
}

func TestEntry_XMPAuthors(t *testing.T) {
	body := "%PDF-1.7\n<dc:creator><rdf:Seq><rdf:li>Ann Lee</rdf:li><rdf:li>Bo Kim</rdf:li></rdf:Seq></dc:creator>" +
		"<dc:title><rdf:Alt><rdf:li xml:lang=\"x-default\">XMP Title</rdf:li></rdf:Alt></dc:title>"
	e := (&Page{URL: "https://example.com/paper.pdf", Body: body}).Entry(accessed)
	assert.Equal(t, "XMP Title", e.Fields.String("title"))
	assert.Equal(t, "Ann Lee and Bo Kim", e.Fields.String("author"))
	assert.Equal(t, "Lee", e.Label)
}
