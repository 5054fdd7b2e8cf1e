// Package parsers turns external inputs (identifiers, URLs, BibTeX, YAML, PDFs)
// into batches of entries behind one uniform interface, and lists them in a
// static registry used for flag generation and dispatch.
package parsers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bibdb/src/internal/arxiv"
	"bibdb/src/internal/config"
	"bibdb/src/internal/doi"
	"bibdb/src/internal/entry"
	"bibdb/src/internal/httpx"
	"bibdb/src/internal/logger"
	"bibdb/src/internal/openlibrary"
	"bibdb/src/internal/pdftext"
	"bibdb/src/internal/webfetch"
)

// Parser converts one input string into entries.
type Parser interface {
	// Name is the long flag name, e.g. "doi".
	Name() string
	// Short is the one-letter flag, e.g. "d".
	Short() string
	// Help describes the expected input.
	Help() string
	Parse(ctx context.Context, input string) (*entry.Batch, error)
}

// ParseError reports a failed parse. It wraps the underlying cause.
type ParseError struct {
	Parser string
	Input  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parser: cannot parse %q: %v", e.Parser, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	// ErrNoEntries is wrapped by a ParseError when the input yielded nothing.
	ErrNoEntries = errors.New("no entries found")
	// ErrNoRecord is wrapped by a ParseError when a remote service answered 404.
	ErrNoRecord = errors.New("no record found")
)

func fail(parser, input string, err error) error {
	if httpx.IsNotFound(err) && !errors.Is(err, ErrNoRecord) {
		err = fmt.Errorf("%w: %w", ErrNoRecord, err)
	}
	return &ParseError{Parser: parser, Input: input, Err: err}
}

// Deps carries what the network and file backed parsers need.
type Deps struct {
	HTTP    *httpx.Client
	Network config.Network
	Log     *logger.Logger
	PDF     pdftext.Extractor

	// Now stamps urldate on web pages; nil means time.Now.
	Now func() time.Time
}

// Registry is the fixed, ordered set of parsers.
type Registry struct {
	parsers []Parser
}

// NewRegistry wires every parser. The order is stable: arxiv, bibtex, doi,
// isbn, pdf, url, yaml.
func NewRegistry(d Deps) *Registry {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.PDF == nil {
		d.PDF = pdftext.Reader{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	log := d.Log.Component("parsers")
	doiParser := DOI{client: doi.NewClient(d.HTTP, d.Network.DOIURL), log: log}
	arxivParser := Arxiv{client: arxiv.NewClient(d.HTTP, d.Network.ArxivURL, d.Log)}
	return &Registry{parsers: []Parser{
		arxivParser,
		BibTeX{},
		doiParser,
		ISBN{client: openlibrary.NewClient(d.HTTP, d.Network.OpenLibraryURL, d.Network.GoogleBooksURL), log: log},
		PDF{text: d.PDF, doi: doiParser, log: log},
		URL{web: webfetch.NewClient(d.HTTP), arxiv: arxivParser, doi: doiParser, now: d.Now, log: log},
		YAML{log: log},
	}}
}

// All returns the parsers in registry order.
func (r *Registry) All() []Parser { return append([]Parser(nil), r.parsers...) }

// Lookup finds a parser by long name.
func (r *Registry) Lookup(name string) (Parser, bool) {
	for _, p := range r.parsers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// readInput returns the file content when s names an existing regular file,
// otherwise s itself.
func readInput(s string) (string, error) {
	fi, err := os.Stat(s)
	if err != nil || !fi.Mode().IsRegular() {
		return s, nil
	}
	b, err := os.ReadFile(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func single(e *entry.Entry) *entry.Batch { return entry.NewBatch(e) }
