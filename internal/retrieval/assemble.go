// Package retrieval builds the grounding context for one request: embed the
// query, fetch nearest chunks, and assemble them into a single text block.
package retrieval

import (
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// Separator delimits chunks inside an assembled context block.
const Separator = "\n\n---\n\n"

// Assemble joins the matches' chunk text, in the given order, with
// Separator. A match without text contributes an empty segment so positions
// are preserved. Pure: no I/O, no re-ranking, no deduplication.
func Assemble(matches []models.RetrievalMatch) string {
	if len(matches) == 0 {
		return ""
	}
	segments := make([]string, len(matches))
	for i, m := range matches {
		segments[i] = m.Text()
	}
	return strings.Join(segments, Separator)
}
