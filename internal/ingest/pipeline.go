// Package ingest orchestrates the ingestion-time path: chunk, embed, and
// dual-write to the vector store (authoritative) and the lexical store
// (best-effort accelerator).
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/connexus-ai/hybridrag/internal/model"
)

// Chunker splits parsed page text into ordered chunks.
type Chunker interface {
	Chunk(pages []string, documentID, source string) []model.Chunk
}

// Embedder produces one vector per input text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// VectorWriter is the authoritative store: a failure here aborts ingestion.
type VectorWriter interface {
	Upsert(ctx context.Context, chunks []model.Chunk) error
}

// LexicalWriter is the accelerator store: a failure here is logged and
// swallowed, never fatal.
type LexicalWriter interface {
	Index(ctx context.Context, chunk model.Chunk) error
}

// Pipeline runs the ingest-time chunk/embed/dual-write sequence.
type Pipeline struct {
	chunker  Chunker
	embedder Embedder
	vector   VectorWriter
	lexical  LexicalWriter
	logger   *slog.Logger
}

// New creates a Pipeline. logger defaults to slog.Default() if nil.
func New(chunker Chunker, embedder Embedder, vector VectorWriter, lexical LexicalWriter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{chunker: chunker, embedder: embedder, vector: vector, lexical: lexical, logger: logger}
}

// Result summarizes one ingestion for the HTTP response envelope.
type Result struct {
	DocumentID   string
	Characters   int
	Chunks       int
	EmbeddingDim int
}

// Ingest chunks pages, embeds every chunk, writes to the vector store
// (fatal on failure), then best-effort indexes into the lexical store
// (failures are logged and swallowed — the vector store write already
// succeeded and remains authoritative).
func (p *Pipeline) Ingest(ctx context.Context, pages []string, documentID, source string) (Result, error) {
	chunks := p.chunker.Chunk(pages, documentID, source)
	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("ingest.Ingest: document produced no chunks")
	}

	texts := make([]string, len(chunks))
	characters := 0
	for i, c := range chunks {
		texts[i] = c.Text
		characters += len(c.Text)
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return Result{}, fmt.Errorf("ingest.Ingest: embed: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := p.vector.Upsert(ctx, chunks); err != nil {
		return Result{}, fmt.Errorf("ingest.Ingest: vector store write failed: %w", err)
	}

	for _, c := range chunks {
		if err := p.lexical.Index(ctx, c); err != nil {
			p.logger.Warn("bm25 indexing failed, vector store write remains authoritative",
				"document_id", c.DocumentID, "chunk_id", c.ChunkID, "error", err)
		}
	}

	return Result{
		DocumentID:   documentID,
		Characters:   characters,
		Chunks:       len(chunks),
		EmbeddingDim: p.embedder.Dimension(),
	}, nil
}
