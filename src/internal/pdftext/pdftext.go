// Package pdftext extracts the plain text layer of PDF documents.
package pdftext

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Extractor returns the text of the document at path.
type Extractor interface {
	Text(path string) (string, error)
}

// Reader is the Extractor backed by github.com/ledongthuc/pdf.
type Reader struct{}

// Text reads every page of the PDF at path and concatenates its text.
func (Reader) Text(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", path, err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", path, err)
	}
	return string(b), nil
}
