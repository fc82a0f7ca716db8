package answer

import (
	"context"
	"strings"
	"testing"

	"github.com/connexus-ai/hybridrag/internal/model"
	"github.com/connexus-ai/hybridrag/internal/retrieval"
)

type mockChat struct {
	lastModel  string
	lastSystem string
	lastUser   string
	response   string
}

func (m *mockChat) GenerateWithModel(ctx context.Context, modelName, systemPrompt, userPrompt string) (string, error) {
	m.lastModel = modelName
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt
	return m.response, nil
}

func TestAnswer_EmptyRetrievalSkipsModelCall(t *testing.T) {
	chat := &mockChat{response: "should not be used"}
	gen := New(chat, "default-model")

	rec, err := gen.Answer(context.Background(), "anything?", retrieval.Result{}, "")
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if rec.Answer != model.UnknownAnswer {
		t.Errorf("answer = %q, want unknown-answer sentence", rec.Answer)
	}
	if len(rec.Sources) != 0 {
		t.Errorf("sources = %v, want empty", rec.Sources)
	}
	if chat.lastModel != "" {
		t.Error("chat model must not be called on empty retrieval")
	}
}

func TestAnswer_SendsContextAndDedupsSources(t *testing.T) {
	chat := &mockChat{response: "the answer"}
	gen := New(chat, "default-model")

	page := 3
	result := retrieval.Result{
		ContextText: "[Chunk 1]\nhello\n\n",
		ContextUsed: 18,
		Candidates: []model.Candidate{
			{DocumentID: "d", ChunkID: 1, Text: "hello world", Page: &page, Source: "a.pdf"},
			{DocumentID: "d", ChunkID: 1, Text: "hello world", Page: &page, Source: "a.pdf"}, // duplicate
		},
	}

	rec, err := gen.Answer(context.Background(), "what is this?", result, "")
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if rec.Answer != "the answer" {
		t.Errorf("answer = %q", rec.Answer)
	}
	if len(rec.Sources) != 1 {
		t.Fatalf("expected dedup to 1 source, got %d", len(rec.Sources))
	}
	if rec.Sources[0].ChunkID != "1" || rec.Sources[0].DocumentID != "d" {
		t.Errorf("source = %+v", rec.Sources[0])
	}
	if !strings.Contains(chat.lastUser, "what is this?") {
		t.Error("user prompt must contain the question")
	}
	if chat.lastModel != "default-model" {
		t.Errorf("model = %q, want default-model", chat.lastModel)
	}
}

func TestAnswer_ModelOverride(t *testing.T) {
	chat := &mockChat{response: "ok"}
	gen := New(chat, "default-model")

	result := retrieval.Result{
		ContextText: "[Chunk 1]\nhi\n\n",
		Candidates:  []model.Candidate{{DocumentID: "d", ChunkID: 0, Text: "hi"}},
	}
	_, err := gen.Answer(context.Background(), "q", result, "gpt-override")
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if chat.lastModel != "gpt-override" {
		t.Errorf("model = %q, want gpt-override", chat.lastModel)
	}
}

func TestSnippet_TruncatesTo200Chars(t *testing.T) {
	long := strings.Repeat("x", 500)
	result := retrieval.Result{
		Candidates: []model.Candidate{{DocumentID: "d", ChunkID: 0, Text: long}},
	}
	sources := assembleSources(result.Candidates)
	if len(sources[0].Snippet) != 200 {
		t.Errorf("snippet length = %d, want 200", len(sources[0].Snippet))
	}
}
