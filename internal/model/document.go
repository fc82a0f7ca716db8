// Package model holds the data types shared across the ingestion, search
// and query nodes.
package model

import "strconv"

// Document is a logical unit uploaded by a client. It is created once at
// ingest time and never mutated; deletion is out of scope for this core.
type Document struct {
	ID      string `json:"document_id"`
	Source  string `json:"source"`
	Version string `json:"version,omitempty"`
}

// Chunk is the atomic retrieval unit produced by the chunker and written to
// both the vector store and the lexical store.
//
// (DocumentID, ChunkID) is globally unique and ChunkID is dense and
// contiguous within a document: {0, 1, ..., N-1}. The vector store's
// physical key for a chunk is always VectorID(DocumentID, ChunkID).
type Chunk struct {
	DocumentID string    `json:"document_id"`
	ChunkID    int       `json:"chunk_id"`
	Text       string    `json:"text"`
	Page       *int      `json:"page,omitempty"`
	Source     string    `json:"source"`
	Tags       []string  `json:"tags,omitempty"`
	Embedding  []float32 `json:"-"`
}

// VectorID returns the deterministic vector-store primary key for a chunk:
// "{document_id}::{chunk_id}". Neighbor expansion and center fetches are
// built by constructing this string, never by querying for it.
func VectorID(documentID string, chunkID int) string {
	return documentID + "::" + strconv.Itoa(chunkID)
}
