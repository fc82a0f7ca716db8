package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/connexus-ai/hybridrag/internal/model"
)

type stubQueryEngine struct {
	rec       model.AnswerRecord
	err       error
	lastTopK  int
	lastQ     string
	lastDocID string
}

func (s *stubQueryEngine) Answer(ctx context.Context, question, documentID, modelName string, topK int) (model.AnswerRecord, error) {
	s.lastQ, s.lastDocID, s.lastTopK = question, documentID, topK
	return s.rec, s.err
}

func doQuery(t *testing.T, engine *stubQueryEngine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	Query(engine).ServeHTTP(rec, req)
	return rec
}

func TestQuery_RejectsShortQuestion(t *testing.T) {
	rec := doQuery(t, &stubQueryEngine{}, `{"question":"hi"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestQuery_DefaultsTopKAndCallsEngine(t *testing.T) {
	engine := &stubQueryEngine{rec: model.AnswerRecord{Answer: "42", ModelUsed: "gpt-4o-mini"}}
	rec := doQuery(t, engine, `{"question":"what is the answer?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if engine.lastTopK != defaultTopK {
		t.Errorf("top_k = %d, want default %d", engine.lastTopK, defaultTopK)
	}

	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["answer"] != "42" {
		t.Errorf("answer = %v, want 42", body["answer"])
	}
}

func TestQuery_SourcesMarshalSnakeCase(t *testing.T) {
	page := 3
	engine := &stubQueryEngine{rec: model.AnswerRecord{
		Answer: "42",
		Sources: []model.Source{
			{DocumentID: "doc-1", ChunkID: "7", Source: "doc-1.txt", Page: &page, Snippet: "..."},
		},
	}}
	rec := doQuery(t, engine, `{"question":"what is the answer?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var body struct {
		Sources []model.Source `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Sources) != 1 || body.Sources[0].DocumentID != "doc-1" || body.Sources[0].ChunkID != "7" {
		t.Fatalf("sources did not round-trip through typed decode: %+v", body.Sources)
	}

	if !bytes.Contains(rec.Body.Bytes(), []byte(`"document_id":"doc-1"`)) {
		t.Errorf("expected snake_case document_id key in response body: %s", rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"chunk_id":"7"`)) {
		t.Errorf("expected snake_case chunk_id key in response body: %s", rec.Body.String())
	}
}

func TestQuery_RejectsOutOfRangeTopK(t *testing.T) {
	rec := doQuery(t, &stubQueryEngine{}, `{"question":"what is the answer?","top_k":100}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestQuery_EngineErrorIs500(t *testing.T) {
	engine := &stubQueryEngine{err: fmt.Errorf("retrieval down")}
	rec := doQuery(t, engine, `{"question":"what is the answer?"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["detail"] == "" {
		t.Error("expected non-empty detail field on error envelope")
	}
}
