// Package vector provides the client for the remote vector index.
package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrUnavailable reports that the index backend could not be reached or
// returned a server failure. Callers treat it as a degraded-retrieval
// signal, not a fatal condition.
var ErrUnavailable = errors.New("vector index unavailable")

// DimensionMismatchError reports configuration drift between the embedder
// and the index: the query vector's length differs from the index's
// configured dimensionality.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, index expects %d", e.Got, e.Want)
}

// Vector is one embedding plus its metadata, the unit of upsert.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]interface{}
}

// Index is a remote approximate-nearest-neighbor store bound to a single
// namespace. Query is read-only and never retried by the client.
type Index interface {
	Query(ctx context.Context, vector []float32, topK int) ([]models.RetrievalMatch, error)
	Upsert(ctx context.Context, vectors []Vector) error
}
