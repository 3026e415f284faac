// Package generate streams answers from the generative model provider.
package generate

import (
	"context"
	"fmt"
)

// Message is one turn in the provider's expected chat format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamToken is one increment of a streamed answer. The channel carrying
// these is lazy, finite, and non-restartable: after Done or Err the channel
// closes and the stream cannot be resumed.
type StreamToken struct {
	Content string
	Done    bool
	Err     error
}

// Generator produces a streamed completion constrained by a system
// instruction. Cancelling ctx aborts the upstream call and closes the
// token channel promptly.
type Generator interface {
	Stream(ctx context.Context, system string, messages []Message) (<-chan StreamToken, error)
}

// ServiceError reports that the generative call could not be started:
// missing credentials, rejected request, or an unreachable provider.
// Failures after streaming has begun surface on the token channel instead.
type ServiceError struct {
	Reason string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generative service: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generative service: %s", e.Reason)
}

func (e *ServiceError) Unwrap() error { return e.Err }
