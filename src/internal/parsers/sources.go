package parsers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bibdb/src/internal/arxiv"
	"bibdb/src/internal/doi"
	"bibdb/src/internal/entry"
	"bibdb/src/internal/logger"
	"bibdb/src/internal/openlibrary"
	"bibdb/src/internal/pdftext"
	"bibdb/src/internal/webfetch"
)

// BibTeX parses BibTeX text or a .bib file.
type BibTeX struct{}

func (BibTeX) Name() string { return "bibtex" }
func (BibTeX) Short() string { return "b" }
func (BibTeX) Help() string { return "BibTeX file or string" }

// Parse reads input as a BibTeX file path, falling back to BibTeX text.
func (p BibTeX) Parse(_ context.Context, input string) (*entry.Batch, error) {
	text, err := readInput(input)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	b, err := entry.ParseBibTeX(text)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	if b.Len() == 0 {
		return nil, fail(p.Name(), input, ErrNoEntries)
	}
	return b, nil
}

// YAML parses YAML documents in the database format.
type YAML struct {
	log *logger.Logger
}

func (YAML) Name() string { return "yaml" }
func (YAML) Short() string { return "y" }
func (YAML) Help() string { return "YAML file or string" }

// Parse reads input as a YAML file path, falling back to YAML text.
func (p YAML) Parse(_ context.Context, input string) (*entry.Batch, error) {
	text, err := readInput(input)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	b, dups, err := entry.ParseYAML(text)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	for _, l := range dups {
		p.log.Warn().Str("label", l).Msg("duplicate label in YAML input, the last occurrence wins")
	}
	if b.Len() == 0 {
		return nil, fail(p.Name(), input, ErrNoEntries)
	}
	return b, nil
}

// DOI resolves a DOI to BibTeX via doi.org.
type DOI struct {
	client *doi.Client
	log    *logger.Logger
}

func (DOI) Name() string { return "doi" }
func (DOI) Short() string { return "d" }
func (DOI) Help() string { return "DOI" }

// Parse resolves the DOI to BibTeX by content negotiation.
func (p DOI) Parse(ctx context.Context, input string) (*entry.Batch, error) {
	id, ok := doi.Normalize(input)
	if !ok {
		return nil, fail(p.Name(), input, fmt.Errorf("not a valid DOI"))
	}
	p.log.Info().Str("doi", id).Msg("gathering BibTeX data for DOI")
	body, err := p.client.FetchBibTeX(ctx, id)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	b, err := entry.ParseBibTeX(body)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	if b.Len() == 0 {
		return nil, fail(p.Name(), input, ErrNoEntries)
	}
	return b, nil
}

// Arxiv queries the arXiv export API.
type Arxiv struct {
	client *arxiv.Client
}

func (Arxiv) Name() string { return "arxiv" }
func (Arxiv) Short() string { return "a" }
func (Arxiv) Help() string { return "arXiv ID" }

// Parse fetches the arXiv record for the identifier.
func (p Arxiv) Parse(ctx context.Context, input string) (*entry.Batch, error) {
	e, err := p.client.Fetch(ctx, input)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	if strings.TrimSpace(e.Label) == "" {
		return nil, fail(p.Name(), input, ErrNoEntries)
	}
	return single(e), nil
}

// ISBN looks books up on OpenLibrary (Google Books as fallback).
type ISBN struct {
	client *openlibrary.Client
	log    *logger.Logger
}

func (ISBN) Name() string { return "isbn" }
func (ISBN) Short() string { return "i" }
func (ISBN) Help() string { return "ISBN" }

// Parse looks the ISBN up in Open Library.
func (p ISBN) Parse(ctx context.Context, input string) (*entry.Batch, error) {
	if !openlibrary.Valid(input) {
		return nil, fail(p.Name(), input, fmt.Errorf("not a valid ISBN"))
	}
	p.log.Info().Str("isbn", input).Msg("gathering data for ISBN")
	e, err := p.client.FetchBookByISBN(ctx, input)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	return single(e), nil
}

// PDF finds the most frequent DOI in a PDF's text, resolves it and points the
// resulting entries' file field at the PDF.
type PDF struct {
	text pdftext.Extractor
	doi  DOI
	log  *logger.Logger
}

func (PDF) Name() string { return "pdf" }
func (PDF) Short() string { return "p" }
func (PDF) Help() string { return "PDF file" }

// Parse extracts a DOI from the PDF text and resolves it.
func (p PDF) Parse(ctx context.Context, input string) (*entry.Batch, error) {
	text, err := p.text.Text(input)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	id, ok := doi.MostCommon(text)
	if !ok {
		return nil, fail(p.Name(), input, fmt.Errorf("no DOI found in document text"))
	}
	p.log.Info().Str("doi", id).Str("file", input).Msg("using most frequent DOI in PDF")
	b, err := p.doi.Parse(ctx, id)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	for _, e := range b.Entries() {
		if err := e.SetFile(input); err != nil {
			return nil, fail(p.Name(), input, err)
		}
	}
	return b, nil
}

// URL dispatches arXiv and DOI links to their parsers. Any other page is
// fetched: the most frequent DOI in it wins, and failing that the page's own
// metadata describes it.
type URL struct {
	web   *webfetch.Client
	arxiv Arxiv
	doi   DOI
	now   func() time.Time
	log   *logger.Logger
}

func (URL) Name() string { return "url" }
func (URL) Short() string { return "u" }
func (URL) Help() string { return "URL of an arXiv abstract, a DOI or any web page" }

// Parse dispatches arXiv and DOI links to their parsers and otherwise
// builds an entry from the fetched page.
func (p URL) Parse(ctx context.Context, input string) (*entry.Batch, error) {
	raw := strings.TrimSpace(input)
	if id, ok := arxiv.IDFromURL(raw); ok {
		p.log.Info().Str("url", raw).Str("id", id).Msg("URL points at arXiv")
		return p.arxiv.Parse(ctx, id)
	}
	if id, ok := doi.Normalize(raw); ok {
		p.log.Info().Str("url", raw).Str("doi", id).Msg("URL is a DOI")
		return p.doi.Parse(ctx, id)
	}
	page, err := p.web.Fetch(ctx, raw)
	if err != nil {
		return nil, fail(p.Name(), input, err)
	}
	if id, ok := doi.MostCommon(page.Body); ok {
		p.log.Info().Str("url", raw).Str("doi", id).Msg("using most frequent DOI on page")
		b, err := p.doi.Parse(ctx, id)
		if err == nil {
			return b, nil
		}
		p.log.Warn().Err(err).Msg("falling back to page metadata")
	}
	p.log.Info().Str("url", raw).Msg("no usable DOI, describing the page from its metadata")
	return single(page.Entry(p.now())), nil
}
