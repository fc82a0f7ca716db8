package vectorstore

import (
	"strconv"
	"strings"

	"github.com/connexus-ai/hybridrag/internal/model"
)

// getResponse is the shape of Chroma's /get endpoint response.
type getResponse struct {
	IDs        []string                 `json:"ids"`
	Documents  []string                 `json:"documents"`
	Metadatas  []map[string]interface{} `json:"metadatas"`
	Embeddings [][]float32              `json:"embeddings"`
}

// queryResponse is the shape of Chroma's /query endpoint response, one
// extra level of nesting deep because it supports batched queries; this
// client only ever sends a single query vector, so every slice here has
// exactly one outer element.
type queryResponse struct {
	IDs        [][]string                 `json:"ids"`
	Documents  [][]string                 `json:"documents"`
	Metadatas  [][]map[string]interface{} `json:"metadatas"`
	Embeddings [][][]float32              `json:"embeddings"`
	Distances  [][]float64                `json:"distances"`
}

func (r getResponse) toCandidates(_ []float64) []model.Candidate {
	out := make([]model.Candidate, 0, len(r.IDs))
	for i, id := range r.IDs {
		c := fromMetadata(id, r.Metadatas[i])
		if i < len(r.Documents) {
			c.Text = r.Documents[i]
		}
		if i < len(r.Embeddings) {
			c.Embedding = r.Embeddings[i]
		}
		out = append(out, c)
	}
	return out
}

func (r queryResponse) toCandidates() []model.Candidate {
	if len(r.IDs) == 0 {
		return nil
	}
	ids := r.IDs[0]
	out := make([]model.Candidate, 0, len(ids))
	for i, id := range ids {
		var meta map[string]interface{}
		if len(r.Metadatas) > 0 && i < len(r.Metadatas[0]) {
			meta = r.Metadatas[0][i]
		}
		c := fromMetadata(id, meta)
		if len(r.Documents) > 0 && i < len(r.Documents[0]) {
			c.Text = r.Documents[0][i]
		}
		if len(r.Embeddings) > 0 && i < len(r.Embeddings[0]) {
			c.Embedding = r.Embeddings[0][i]
		}
		if len(r.Distances) > 0 && i < len(r.Distances[0]) {
			// Chroma's hnsw:space=cosine distance is 1 - cosine_similarity.
			c.Cosine = 1 - r.Distances[0][i]
			c.HasCosine = true
		}
		out = append(out, c)
	}
	return out
}

// fromMetadata rebuilds a Candidate's identity fields from Chroma metadata,
// falling back to parsing the composite id when a field is missing.
func fromMetadata(id string, meta map[string]interface{}) model.Candidate {
	c := model.Candidate{}

	docID, chunkID := parseVectorID(id)
	c.DocumentID = docID
	c.ChunkID = chunkID

	if meta == nil {
		return c
	}
	if v, ok := meta["document_id"].(string); ok {
		c.DocumentID = v
	}
	if v, ok := meta["chunk_id"].(float64); ok {
		c.ChunkID = int(v)
	}
	if v, ok := meta["source"].(string); ok {
		c.Source = v
	}
	if v, ok := meta["page"].(float64); ok {
		page := int(v)
		c.Page = &page
	}
	if v, ok := meta["tags"].(string); ok && v != "" {
		c.Tags = strings.Split(v, ",")
	}
	return c
}

// parseVectorID splits a "{document_id}::{chunk_id}" key back into its
// parts. Used only as a fallback when metadata is absent from a response.
func parseVectorID(id string) (string, int) {
	idx := strings.LastIndex(id, "::")
	if idx < 0 {
		return id, 0
	}
	chunkID, err := strconv.Atoi(id[idx+2:])
	if err != nil {
		return id, 0
	}
	return id[:idx], chunkID
}
