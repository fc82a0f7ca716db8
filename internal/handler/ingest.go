package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/connexus-ai/hybridrag/internal/httpx"
	"github.com/connexus-ai/hybridrag/internal/ingest"
	"github.com/connexus-ai/hybridrag/internal/parsing"
)

// IngestPipeline abstracts the ingest-time chunk/embed/dual-write sequence.
type IngestPipeline interface {
	Ingest(ctx context.Context, pages []string, documentID, source string) (ingest.Result, error)
}

const maxUploadBytes = 64 << 20 // 64MiB

// Ingest handles POST /ingest (multipart/form-data).
func Ingest(pipeline IngestPipeline, parser parsing.Parser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "file field is required")
			return
		}
		defer file.Close()

		documentID := r.FormValue("document_id")
		source := r.FormValue("source")
		version := r.FormValue("version")
		_ = version

		stem := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
		if documentID == "" {
			documentID = stem
		}
		if source == "" {
			source = header.Filename
		}
		if documentID == "" {
			httpx.Error(w, http.StatusBadRequest, "document_id could not be derived from an empty filename")
			return
		}

		pages, err := parser.Parse(file, header.Filename)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "could not read uploaded file: "+err.Error())
			return
		}

		result, err := pipeline.Ingest(r.Context(), pages, documentID, source)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "ingestion failed: "+err.Error())
			return
		}

		var preview interface{}
		if len(pages) > 0 && len(pages[0]) > 0 {
			p := pages[0]
			if len(p) > 200 {
				p = p[:200]
			}
			preview = p
		}

		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"status":        "embedded",
			"document_id":   result.DocumentID,
			"characters":    result.Characters,
			"chunks":        result.Chunks,
			"embedding_dim": result.EmbeddingDim,
			"preview":       preview,
		})
	}
}
