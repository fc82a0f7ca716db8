package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/connexus-ai/hybridrag/internal/httpx"
	"github.com/connexus-ai/hybridrag/internal/model"
)

const (
	minQuestionLen = 3
	defaultTopK    = 5
	minTopK        = 1
	maxTopK        = 20
)

// QueryRequest is the POST /query request body.
type QueryRequest struct {
	Question   string `json:"question"`
	TopK       int    `json:"top_k"`
	ModelName  string `json:"model_name"`
	DocumentID string `json:"document_id"`
}

// QueryEngine answers one question end to end: retrieve then generate.
type QueryEngine interface {
	Answer(ctx context.Context, question, documentID, modelName string, topK int) (model.AnswerRecord, error)
}

// Query handles POST /query.
func Query(engine QueryEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if len(req.Question) < minQuestionLen {
			httpx.Error(w, http.StatusBadRequest, "question must be at least 3 characters")
			return
		}

		topK := req.TopK
		if topK == 0 {
			topK = defaultTopK
		}
		if topK < minTopK || topK > maxTopK {
			httpx.Error(w, http.StatusBadRequest, "top_k must be between 1 and 20")
			return
		}

		rec, err := engine.Answer(r.Context(), req.Question, req.DocumentID, req.ModelName, topK)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "query failed: "+err.Error())
			return
		}

		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"answer":       rec.Answer,
			"sources":      rec.Sources,
			"context_used": rec.ContextUsed,
			"model_used":   rec.ModelUsed,
		})
	}
}
