package retrieval

import (
	"math"
	"sort"

	"github.com/connexus-ai/hybridrag/internal/model"
)

// fuseScores normalizes BM25 and cosine scores independently to [0, 1]
// via min-max over the candidate set (a flat set when min==max) and sets
// each candidate's FusedScore to alpha*cos_norm + (1-alpha)*bm25_norm.
func fuseScores(candidates []model.Candidate, alpha float64) {
	if len(candidates) == 0 {
		return
	}

	bm25Min, bm25Max := candidates[0].BM25Score, candidates[0].BM25Score
	cosMin, cosMax := candidates[0].Cosine, candidates[0].Cosine
	for _, c := range candidates[1:] {
		bm25Min, bm25Max = minMax(bm25Min, bm25Max, c.BM25Score)
		cosMin, cosMax = minMax(cosMin, cosMax, c.Cosine)
	}

	for i := range candidates {
		bm25Norm := normalize(candidates[i].BM25Score, bm25Min, bm25Max)
		cosNorm := normalize(candidates[i].Cosine, cosMin, cosMax)
		candidates[i].FusedScore = alpha*cosNorm + (1-alpha)*bm25Norm
	}
}

func minMax(min, max, v float64) (float64, float64) {
	if v < min {
		min = v
	}
	if v > max {
		max = v
	}
	return min, max
}

func normalize(v, min, max float64) float64 {
	if min == max {
		return 1.0
	}
	return (v - min) / (max - min)
}

// cosineSimilarity computes the cosine similarity between two vectors. A
// zero-length vector yields 0 rather than dividing by zero.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// selectCenters sorts candidates by fused score descending, keeps those
// within centerRelThreshold of the top score, caps the result to centerK,
// and force-includes the BM25 rank-1 hit regardless of threshold.
func selectCenters(candidates []model.Candidate, centerRelThreshold float64, centerK int, bm25Rank1ID string) []model.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]model.Candidate, len(candidates))
	copy(sorted, candidates)
	sortByFusedDesc(sorted)

	sTop := sorted[0].FusedScore
	threshold := centerRelThreshold * sTop

	kept := make([]model.Candidate, 0, centerK+1)
	haveRank1 := false
	for _, c := range sorted {
		if len(kept) >= centerK {
			break
		}
		if c.FusedScore >= threshold {
			kept = append(kept, c)
			if c.VectorID() == bm25Rank1ID {
				haveRank1 = true
			}
		}
	}

	if !haveRank1 {
		for _, c := range sorted {
			if c.VectorID() == bm25Rank1ID {
				kept = append(kept, c)
				break
			}
		}
	}

	return kept
}

func sortByFusedDesc(candidates []model.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FusedScore > candidates[j].FusedScore
	})
}

// dedupAndRank collapses chunks reachable from multiple centers to their
// minimum distance_from_center, computes evidence_score, sorts descending
// with an ascending (document_id, chunk_id) tie-break, and truncates to
// maxChunks.
func dedupAndRank(candidates []model.Candidate, distancePenalty float64, maxChunks int) []model.Candidate {
	best := make(map[string]model.Candidate, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		id := c.VectorID()
		existing, ok := best[id]
		if !ok {
			order = append(order, id)
			best[id] = c
			continue
		}
		if c.DistanceFromCenter < existing.DistanceFromCenter {
			best[id] = c
		}
	}

	out := make([]model.Candidate, 0, len(order))
	for _, id := range order {
		c := best[id]
		c.EvidenceScore = c.CenterScore - float64(c.DistanceFromCenter)*distancePenalty
		out = append(out, c)
	}

	sortCandidates(out)

	if len(out) > maxChunks {
		out = out[:maxChunks]
	}
	return out
}

func sortCandidates(candidates []model.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return lessByEvidenceThenID(candidates[i], candidates[j])
	})
}
