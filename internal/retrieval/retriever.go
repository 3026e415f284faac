package retrieval

import (
	"context"
	"strings"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/vector"
)

// State classifies how a context block came to be, so operators and tests
// can tell "no relevant context found" from "retrieval backend failed".
type State int

const (
	// StateGrounded means retrieval succeeded and produced context text.
	StateGrounded State = iota
	// StateEmpty means retrieval was skipped (blank query) or succeeded
	// with nothing usable.
	StateEmpty
	// StateDegraded means the embed-or-query chain failed and the answer
	// proceeds ungrounded. Err carries the cause.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateGrounded:
		return "grounded"
	case StateEmpty:
		return "empty"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Result is the outcome of building one context block.
type Result struct {
	Context string
	State   State
	// Err is the retrieval-chain failure when State is StateDegraded.
	Err error
}

// Retriever runs the embed -> nearest-neighbor -> assemble chain.
type Retriever struct {
	embedder embedding.Embedder
	index    vector.Index
	topK     int
}

// NewRetriever creates a retriever querying the index with the given topK.
func NewRetriever(embedder embedding.Embedder, index vector.Index, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{embedder: embedder, index: index, topK: topK}
}

// Retrieve builds the context block for query. Failures anywhere in the
// chain degrade to an empty context instead of propagating: an ungrounded
// answer beats no answer. A blank query skips retrieval entirely.
func (r *Retriever) Retrieve(ctx context.Context, query string) Result {
	if strings.TrimSpace(query) == "" {
		return Result{State: StateEmpty}
	}
	if r.index == nil {
		return Result{State: StateEmpty}
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return Result{State: StateDegraded, Err: err}
	}
	matches, err := r.index.Query(ctx, vec, r.topK)
	if err != nil {
		return Result{State: StateDegraded, Err: err}
	}

	text := Assemble(matches)
	if strings.TrimSpace(text) == "" {
		return Result{State: StateEmpty}
	}
	return Result{Context: text, State: StateGrounded}
}
