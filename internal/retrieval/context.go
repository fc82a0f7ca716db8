package retrieval

import (
	"fmt"
	"strings"

	"github.com/connexus-ai/hybridrag/internal/model"
)

// assembleContext concatenates candidate texts under a [Chunk i] delimiter,
// stopping before adding a chunk would exceed the character budget. The
// full (already-truncated-to-max-chunks) candidate set is preserved on the
// result for source assembly even though not all of it may fit the prompt.
func (e *Engine) assembleContext(candidates []model.Candidate) Result {
	var b strings.Builder
	used := 0

	for i, c := range candidates {
		piece := fmt.Sprintf("[Chunk %d]\n%s\n\n", i+1, c.Text)
		if used+len(piece) > e.cfg.ContextCharBudget {
			break
		}
		b.WriteString(piece)
		used += len(piece)
	}

	return Result{
		Candidates:  candidates,
		ContextText: b.String(),
		ContextUsed: used,
	}
}
