// Package chat orchestrates one question-answering request: extract the
// query, retrieve grounding context, and start the generative stream.
package chat

import (
	"context"

	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/pkg/utils"
	"go.uber.org/zap"
)

// Answer is a started response stream plus how its context was obtained.
type Answer struct {
	Tokens    <-chan generate.StreamToken
	Retrieval retrieval.Result
}

// Answerer composes retrieval and generation. It holds no per-request
// state; each Answer call is independent.
type Answerer struct {
	retriever  *retrieval.Retriever
	generator  generate.Generator
	maxHistory int
	logger     *zap.Logger
}

// NewAnswerer creates the orchestrator. maxHistory bounds how many of the
// newest conversation messages reach the generative model.
func NewAnswerer(retriever *retrieval.Retriever, generator generate.Generator, maxHistory int, logger *zap.Logger) *Answerer {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{
		retriever:  retriever,
		generator:  generator,
		maxHistory: maxHistory,
		logger:     logger,
	}
}

// Answer runs the pipeline for one conversation. Context assembly always
// completes before generation starts; retrieval failures degrade to an
// ungrounded answer and are logged, never surfaced. The returned error is
// non-nil only when the generative stream could not be started.
func (a *Answerer) Answer(ctx context.Context, messages []models.ConversationMessage) (*Answer, error) {
	query := models.QueryFromMessages(messages)
	a.logger.Debug("answering", zap.String("query", utils.Truncate(query, 120)), zap.Int("messages", len(messages)))
	result := a.retriever.Retrieve(ctx, query)
	if result.State == retrieval.StateDegraded {
		a.logger.Warn("retrieval degraded, answering without context", zap.Error(result.Err))
	}

	system := SystemInstruction(result.Context)
	history := convertHistory(messages, a.maxHistory)

	tokens, err := a.generator.Stream(ctx, system, history)
	if err != nil {
		return nil, err
	}
	return &Answer{Tokens: tokens, Retrieval: result}, nil
}

// convertHistory maps the full conversation into the generator's message
// format, keeping only the newest maxHistory turns. Messages with an
// unknown role or no text are dropped.
func convertHistory(messages []models.ConversationMessage, maxHistory int) []generate.Message {
	if len(messages) > maxHistory {
		messages = messages[len(messages)-maxHistory:]
	}
	out := make([]generate.Message, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		switch m.Role {
		case models.RoleUser, models.RoleAssistant, models.RoleSystem:
		default:
			continue
		}
		text := m.Text()
		if text == "" {
			continue
		}
		out = append(out, generate.Message{Role: m.Role, Content: text})
	}
	return out
}
