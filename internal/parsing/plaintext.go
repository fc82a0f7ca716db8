// Package parsing provides the minimal document-to-pages reader the
// ingestion node needs. Real PDF/text extraction is an external collaborator
// swapped in behind the same interface; this package's PlainTextParser
// reads an upload as plain text, splitting it into pages only at form-feed
// characters.
package parsing

import (
	"bytes"
	"fmt"
	"io"
)

// Parser turns raw uploaded bytes into an ordered array of per-page text.
type Parser interface {
	Parse(r io.Reader, filename string) ([]string, error)
}

// PlainTextParser reads the entire input as text. Pages are split on
// the form-feed character (0x0C) when present, a common plain-text page
// break convention; otherwise the whole file is a single page.
type PlainTextParser struct{}

// Parse implements Parser.
func (PlainTextParser) Parse(r io.Reader, filename string) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("parsing.Parse: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("parsing.Parse: empty file")
	}

	parts := bytes.Split(data, []byte{0x0C})
	pages := make([]string, len(parts))
	for i, p := range parts {
		pages[i] = string(p)
	}
	return pages, nil
}
