// Package chunking splits already-parsed page text into the fixed-size,
// overlapping, densely-numbered chunks the rest of the retrieval core
// depends on.
package chunking

import (
	"strings"

	"github.com/connexus-ai/hybridrag/internal/model"
)

const (
	// DefaultChunkSize is the target whitespace-tokenized unit count per chunk.
	DefaultChunkSize = 500
	// DefaultOverlap is the number of trailing tokens repeated into the next
	// chunk from the same page.
	DefaultOverlap = 50
)

// Service splits a document's per-page text into ordered, overlapping
// chunks with deterministic, contiguous chunk ids.
type Service struct {
	chunkSize int
	overlap   int
}

// New creates a Service with the given chunk size and overlap. Invalid
// values (size <= 0, or overlap < 0 or >= size) fall back to the package
// defaults, and to an overlap of 0 when DefaultOverlap does not fit the
// size either, so the window step is always positive.
func New(chunkSize, overlap int) *Service {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = 0
		}
	}
	return &Service{chunkSize: chunkSize, overlap: overlap}
}

// Chunk tokenizes each page on whitespace and emits chunkSize-token windows
// stepping by (chunkSize - overlap), concatenated across pages in reading
// order. chunk_id is assigned monotonically from 0 over the whole document;
// a page with no tokens contributes no chunks but does not break the
// numbering of pages that follow it.
func (s *Service) Chunk(pages []string, documentID, source string) []model.Chunk {
	step := s.chunkSize - s.overlap

	var chunks []model.Chunk
	nextID := 0

	for pageIdx, pageText := range pages {
		tokens := strings.Fields(pageText)
		if len(tokens) == 0 {
			continue
		}

		page := pageIdx + 1
		for start := 0; start < len(tokens); start += step {
			end := start + s.chunkSize
			if end > len(tokens) {
				end = len(tokens)
			}

			chunks = append(chunks, model.Chunk{
				DocumentID: documentID,
				ChunkID:    nextID,
				Text:       strings.Join(tokens[start:end], " "),
				Page:       &page,
				Source:     source,
			})
			nextID++

			if end == len(tokens) {
				break
			}
		}
	}

	return chunks
}
