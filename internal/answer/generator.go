// Package answer turns a retrieval result into a grounded answer plus
// ranked source citations.
package answer

import (
	"context"
	"fmt"

	"github.com/connexus-ai/hybridrag/internal/model"
	"github.com/connexus-ai/hybridrag/internal/retrieval"
)

// ChatClient is the subset of the chat model client the generator needs.
type ChatClient interface {
	GenerateWithModel(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = `You are a careful research assistant. Answer the question using ONLY the information in the provided context. Do not use outside knowledge. If the context does not contain enough information to answer, respond with exactly this sentence and nothing else: "` + model.UnknownAnswer + `"`

// snippetLen is the maximum length of a Source's text preview.
const snippetLen = 200

// Generator assembles prompts from a retrieval.Result, calls the chat
// model, and builds the final answer record.
type Generator struct {
	chat         ChatClient
	defaultModel string
}

// New creates a Generator. defaultModel is used unless the caller's
// request names a model_name override.
func New(chat ChatClient, defaultModel string) *Generator {
	return &Generator{chat: chat, defaultModel: defaultModel}
}

// Answer builds sources from result and, if result has any candidates,
// calls the chat model for a grounded answer. An empty retrieval result
// short-circuits to the fixed unknown-sentence without a model call.
func (g *Generator) Answer(ctx context.Context, question string, result retrieval.Result, modelOverride string) (model.AnswerRecord, error) {
	sources := assembleSources(result.Candidates)

	if len(result.Candidates) == 0 {
		return model.AnswerRecord{
			Answer:      model.UnknownAnswer,
			Sources:     sources,
			ContextUsed: 0,
			ModelUsed:   "",
		}, nil
	}

	modelName := g.defaultModel
	if modelOverride != "" {
		modelName = modelOverride
	}

	userPrompt := fmt.Sprintf(
		"CONTEXT:\n%s\nQUESTION:\n%s\n\nINSTRUCTIONS: Answer only from the context above. Cite nothing explicitly; sources are returned separately.",
		result.ContextText, question,
	)

	text, err := g.chat.GenerateWithModel(ctx, modelName, systemPrompt, userPrompt)
	if err != nil {
		return model.AnswerRecord{}, fmt.Errorf("answer.Answer: %w", err)
	}

	return model.AnswerRecord{
		Answer:      text,
		Sources:     sources,
		ContextUsed: result.ContextUsed,
		ModelUsed:   modelName,
	}, nil
}

// assembleSources walks candidates in their already-evidence-ranked order,
// deduplicating by (document_id, chunk_id), and emits a 200-char snippet
// per source.
func assembleSources(candidates []model.Candidate) []model.Source {
	seen := make(map[string]bool, len(candidates))
	sources := make([]model.Source, 0, len(candidates))

	for _, c := range candidates {
		id := c.VectorID()
		if seen[id] {
			continue
		}
		seen[id] = true

		sources = append(sources, model.Source{
			DocumentID: c.DocumentID,
			ChunkID:    fmt.Sprintf("%d", c.ChunkID),
			Source:     c.Source,
			Page:       c.Page,
			Snippet:    snippet(c.Text),
		})
	}
	return sources
}

func snippet(text string) string {
	r := []rune(text)
	if len(r) <= snippetLen {
		return text
	}
	return string(r[:snippetLen])
}
