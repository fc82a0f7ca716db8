// Package retrieval implements the hybrid retrieval algorithm: BM25
// candidate pull fused with dense cosine similarity, center selection,
// neighbor expansion, dedup+rank, and context assembly under a character
// budget.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/connexus-ai/hybridrag/internal/config"
	"github.com/connexus-ai/hybridrag/internal/model"
	"github.com/connexus-ai/hybridrag/internal/searchclient"
)

// VectorStore is the subset of the dense vector store the engine needs.
type VectorStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.Candidate, error)
	QueryByVector(ctx context.Context, vector []float32, topK int, where map[string]string) ([]model.Candidate, error)
}

// LexicalSearch is the subset of the BM25 facade the engine needs.
type LexicalSearch interface {
	Search(ctx context.Context, req searchclient.SearchRequest) ([]model.BM25Hit, error)
}

// Embedder produces query vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// StageObserver records how long one named pipeline stage took, for the
// metrics middleware to export as a histogram.
type StageObserver func(stage string, d time.Duration)

// Engine runs the hybrid retrieval pipeline.
type Engine struct {
	vector  VectorStore
	lexical LexicalSearch
	embed   Embedder
	cfg     config.HybridConfig
	observe StageObserver
}

// New creates an Engine with the given collaborators and tuning config.
func New(vector VectorStore, lexical LexicalSearch, embed Embedder, cfg config.HybridConfig) *Engine {
	return &Engine{vector: vector, lexical: lexical, embed: embed, cfg: cfg, observe: func(string, time.Duration) {}}
}

// WithObserver attaches a StageObserver that receives the latency of each
// pipeline stage (embed, bm25, vector_fetch, expansion).
func (e *Engine) WithObserver(observe StageObserver) *Engine {
	if observe != nil {
		e.observe = observe
	}
	return e
}

func (e *Engine) timeStage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	e.observe(stage, time.Since(start))
	return err
}

// Result is the outcome of one retrieval pass: the final ranked, deduped
// candidate set plus the text actually assembled for the LLM prompt.
type Result struct {
	Candidates  []model.Candidate
	ContextText string
	ContextUsed int
}

// Retrieve runs the full pipeline for one question. documentID, if
// non-empty, restricts the search to a single document (the restricted
// path of step 1) and skips fusion and neighbor expansion entirely. topK is
// the caller-supplied result width and governs every query_by_vector call
// in this pipeline; it is distinct from the BM25Chunks tuning knob used for
// the lexical pull.
func (e *Engine) Retrieve(ctx context.Context, question string, documentID string, topK int) (Result, error) {
	if question == "" {
		return Result{}, fmt.Errorf("retrieval.Retrieve: empty question")
	}

	if documentID != "" {
		return e.retrieveRestricted(ctx, question, documentID, topK)
	}
	return e.retrieveHybrid(ctx, question, topK)
}

func (e *Engine) retrieveRestricted(ctx context.Context, question, documentID string, topK int) (Result, error) {
	var q []float32
	if err := e.timeStage("embed", func() error {
		vectors, err := e.embed.Embed(ctx, []string{question})
		if err != nil {
			return err
		}
		q = vectors[0]
		return nil
	}); err != nil {
		return Result{}, fmt.Errorf("retrieval.Retrieve: embed: %w", err)
	}

	var candidates []model.Candidate
	if err := e.timeStage("vector_fetch", func() error {
		var err error
		candidates, err = e.vector.QueryByVector(ctx, q, topK, map[string]string{"document_id": documentID})
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("retrieval.Retrieve: query_by_vector: %w", err)
	}

	for i := range candidates {
		candidates[i].EvidenceScore = candidates[i].Cosine
	}
	return e.finalize(candidates)
}

func (e *Engine) retrieveHybrid(ctx context.Context, question string, topK int) (Result, error) {
	var q []float32
	var bm25Hits []model.BM25Hit

	// Steps 1 (embed) and 2 (BM25 pull) are independent and fired
	// concurrently; steps 3-4 join on both results. A BM25 failure is not
	// fatal: it leaves bm25Hits empty, which takes the full-corpus vector
	// fallback below.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.timeStage("embed", func() error {
			vectors, err := e.embed.Embed(gctx, []string{question})
			if err != nil {
				return fmt.Errorf("embed: %w", err)
			}
			q = vectors[0]
			return nil
		})
	})
	g.Go(func() error {
		return e.timeStage("bm25", func() error {
			hits, err := e.lexical.Search(gctx, searchclient.SearchRequest{Query: question, TopK: e.cfg.BM25Chunks})
			if err != nil {
				return nil
			}
			bm25Hits = hits
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("retrieval.Retrieve: %w", err)
	}

	if len(bm25Hits) == 0 {
		var candidates []model.Candidate
		if err := e.timeStage("vector_fetch", func() error {
			var err error
			candidates, err = e.vector.QueryByVector(ctx, q, topK, nil)
			return err
		}); err != nil {
			return Result{}, fmt.Errorf("retrieval.Retrieve: fallback query_by_vector: %w", err)
		}
		for i := range candidates {
			candidates[i].EvidenceScore = candidates[i].Cosine
		}
		return e.finalize(candidates)
	}

	// Step 3: center fetch by deterministic id.
	ids := make([]string, len(bm25Hits))
	bm25ByID := make(map[string]model.BM25Hit, len(bm25Hits))
	for i, h := range bm25Hits {
		id := model.VectorID(h.DocumentID, h.ChunkID)
		ids[i] = id
		bm25ByID[id] = h
	}

	var fetched []model.Candidate
	if err := e.timeStage("vector_fetch", func() error {
		var err error
		fetched, err = e.vector.GetByIDs(ctx, ids)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("retrieval.Retrieve: get_by_ids: %w", err)
	}

	candidates := make([]model.Candidate, 0, len(fetched))
	for _, c := range fetched {
		id := model.VectorID(c.DocumentID, c.ChunkID)
		hit, ok := bm25ByID[id]
		if !ok {
			continue
		}
		c.BM25Score = hit.Score
		c.HasBM25Score = true
		c.Cosine = cosineSimilarity(q, c.Embedding)
		c.HasCosine = true
		candidates = append(candidates, c)
	}

	// Step 4: score fusion.
	fuseScores(candidates, e.cfg.FusionAlpha)

	// Step 5: center selection, with the BM25 rank-1 hard-keep.
	bm25Rank1ID := model.VectorID(bm25Hits[0].DocumentID, bm25Hits[0].ChunkID)
	centers := selectCenters(candidates, e.cfg.CenterRelThreshold, e.cfg.CenterK, bm25Rank1ID)

	// Step 6: neighbor expansion.
	var expanded []model.Candidate
	if err := e.timeStage("expansion", func() error {
		var err error
		expanded, err = e.expandNeighbors(ctx, centers, e.cfg.NeighborWindow)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("retrieval.Retrieve: %w", err)
	}

	// Step 7: dedup & rank.
	ranked := dedupAndRank(expanded, e.cfg.DistancePenalty, e.cfg.MaxContextChunks)

	return e.assembleContext(ranked), nil
}

func (e *Engine) finalize(candidates []model.Candidate) (Result, error) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return lessByEvidenceThenID(candidates[i], candidates[j])
	})
	if len(candidates) > e.cfg.MaxContextChunks {
		candidates = candidates[:e.cfg.MaxContextChunks]
	}
	return e.assembleContext(candidates), nil
}

// expandNeighbors fetches {d}::{c+i} for i in [-w, w] around every center,
// tagging each with its distance from that center and the center's fused
// score. Missing ids are silently omitted by the underlying GetByIDs.
func (e *Engine) expandNeighbors(ctx context.Context, centers []model.Candidate, w int) ([]model.Candidate, error) {
	type want struct {
		centerScore float64
		distance    int
	}
	idOrder := make([]string, 0, len(centers)*(2*w+1))
	wants := make(map[string][]want)

	for _, c := range centers {
		for i := -w; i <= w; i++ {
			id := model.VectorID(c.DocumentID, c.ChunkID+i)
			if _, seen := wants[id]; !seen {
				idOrder = append(idOrder, id)
			}
			wants[id] = append(wants[id], want{centerScore: c.FusedScore, distance: abs(i)})
		}
	}

	fetched, err := e.vector.GetByIDs(ctx, idOrder)
	if err != nil {
		return nil, fmt.Errorf("expand_neighbors: %w", err)
	}

	out := make([]model.Candidate, 0, len(fetched))
	for _, c := range fetched {
		id := model.VectorID(c.DocumentID, c.ChunkID)
		best := wants[id][0]
		for _, candidate := range wants[id] {
			if candidate.distance < best.distance {
				best = candidate
			}
		}
		c.DistanceFromCenter = best.distance
		c.CenterScore = best.centerScore
		out = append(out, c)
	}
	return out, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func lessByEvidenceThenID(a, b model.Candidate) bool {
	if a.EvidenceScore != b.EvidenceScore {
		return a.EvidenceScore > b.EvidenceScore
	}
	if a.DocumentID != b.DocumentID {
		return a.DocumentID < b.DocumentID
	}
	return a.ChunkID < b.ChunkID
}
