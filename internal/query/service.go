// Package query glues the retrieval engine and answer generator into the
// single operation the query node's HTTP handler calls, with an optional
// result cache in front of it.
package query

import (
	"context"
	"fmt"

	"github.com/connexus-ai/hybridrag/internal/cache"
	"github.com/connexus-ai/hybridrag/internal/model"
	"github.com/connexus-ai/hybridrag/internal/retrieval"
)

// Retriever runs the hybrid retrieval pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, question, documentID string, topK int) (retrieval.Result, error)
}

// Generator turns a retrieval result into a final answer record.
type Generator interface {
	Answer(ctx context.Context, question string, result retrieval.Result, modelOverride string) (model.AnswerRecord, error)
}

// ResultCache is an optional cache in front of the full pipeline.
type ResultCache interface {
	Get(ctx context.Context, key cache.Key) (model.AnswerRecord, bool, error)
	Set(ctx context.Context, key cache.Key, rec model.AnswerRecord) error
}

// Service is the query node's core operation: retrieve then generate,
// optionally fronted by a cache.
type Service struct {
	retriever Retriever
	generator Generator
	cache     ResultCache
}

// New creates a Service. cache may be nil to disable caching.
func New(retriever Retriever, generator Generator, cache ResultCache) *Service {
	return &Service{retriever: retriever, generator: generator, cache: cache}
}

// Answer implements handler.QueryEngine: retrieve context for the question
// (optionally scoped to documentID), then generate a grounded answer.
func (s *Service) Answer(ctx context.Context, question, documentID, modelName string, topK int) (model.AnswerRecord, error) {
	key := cache.Key{Question: question, DocumentID: documentID, TopK: topK, ModelName: modelName}

	if s.cache != nil {
		if rec, found, err := s.cache.Get(ctx, key); err == nil && found {
			return rec, nil
		}
	}

	result, err := s.retriever.Retrieve(ctx, question, documentID, topK)
	if err != nil {
		return model.AnswerRecord{}, fmt.Errorf("query.Answer: retrieve: %w", err)
	}

	rec, err := s.generator.Answer(ctx, question, result, modelName)
	if err != nil {
		return model.AnswerRecord{}, fmt.Errorf("query.Answer: generate: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, rec)
	}

	return rec, nil
}
