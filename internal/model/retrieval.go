package model

// Candidate is a transient record built while retrieving: a chunk plus
// whatever scores the current pipeline stage has computed for it so far.
// Later stages only fill in more fields; none of them are ever cleared.
type Candidate struct {
	DocumentID         string
	ChunkID            int
	Text               string
	Page               *int
	Source             string
	Tags               []string
	Embedding          []float32
	BM25Score          float64
	HasBM25Score       bool
	Cosine             float64
	HasCosine          bool
	FusedScore         float64
	DistanceFromCenter int
	CenterScore        float64
	EvidenceScore      float64
}

// VectorID is the candidate's deterministic physical key in the vector store.
func (c Candidate) VectorID() string {
	return VectorID(c.DocumentID, c.ChunkID)
}

// BM25Hit is one row returned by the lexical search facade.
type BM25Hit struct {
	DocumentID string   `json:"document_id"`
	ChunkID    int      `json:"chunk_id"`
	Source     string   `json:"source"`
	Page       *int     `json:"page,omitempty"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags,omitempty"`
	Score      float64  `json:"score"`
}

// Source is a single ranked citation returned alongside an answer.
type Source struct {
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
	Source     string `json:"source"`
	Page       *int   `json:"page,omitempty"`
	Snippet    string `json:"snippet"`
}

// AnswerRecord is the final result of a query: a grounded answer plus the
// ranked evidence that produced it.
type AnswerRecord struct {
	Answer      string   `json:"answer"`
	Sources     []Source `json:"sources"`
	ContextUsed int      `json:"context_used"`
	ModelUsed   string   `json:"model_used"`
}

// UnknownAnswer is returned verbatim whenever retrieval produces no usable
// context, instead of invoking the chat model.
const UnknownAnswer = "I don't know based on the provided document(s)."
