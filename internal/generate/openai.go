package generate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/config"
)

// OpenAIGenerator streams chat completions from an OpenAI-compatible
// endpoint.
type OpenAIGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAIGenerator creates a generator from resolved config.
func NewOpenAIGenerator(cfg *config.GenerateConfig) *OpenAIGenerator {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIGenerator{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Stream starts a streaming completion. The system instruction is prepended
// as the first message. An error here means the stream never started; once
// the channel is returned, failures arrive as the final token's Err.
func (g *OpenAIGenerator) Stream(ctx context.Context, system string, messages []Message) (<-chan StreamToken, error) {
	all := make([]Message, 0, len(messages)+1)
	if system != "" {
		all = append(all, Message{Role: "system", Content: system})
	}
	all = append(all, messages...)

	body, err := json.Marshal(chatRequest{Model: g.model, Messages: all, Stream: true})
	if err != nil {
		return nil, &ServiceError{Reason: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &ServiceError{Reason: "provider unreachable", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &ServiceError{Reason: fmt.Sprintf("provider returned %s", resp.Status)}
	}

	ch := make(chan StreamToken, 16)
	go g.consume(ctx, resp.Body, ch)
	return ch, nil
}

// consume reads SSE lines from the provider until [DONE], ctx cancellation,
// or a read error, forwarding content deltas to ch.
func (g *OpenAIGenerator) consume(ctx context.Context, body io.ReadCloser, ch chan<- StreamToken) {
	defer close(ch)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			ch <- StreamToken{Done: true, Err: ctx.Err()}
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			ch <- StreamToken{Done: true}
			return
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			ch <- StreamToken{Content: choice.Delta.Content}
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			ch <- StreamToken{Done: true}
			return
		}
	}

	if err := scanner.Err(); err != nil {
		ch <- StreamToken{Done: true, Err: err}
		return
	}
	// Provider closed the stream without a terminator; treat as complete.
	ch <- StreamToken{Done: true}
}
