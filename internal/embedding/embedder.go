// Package embedding provides query and chunk embedding via a remote provider.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// ServiceError reports a failed embedding provider call: unreachable
// service, rate limiting, auth, or malformed output (wrong dimensionality).
type ServiceError struct {
	Reason string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding service: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("embedding service: %s", e.Reason)
}

func (e *ServiceError) Unwrap() error { return e.Err }
