package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hyperjump/kotae/internal/config"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. It is
// stateless: every call re-embeds its input, nothing is cached.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
	maxRetries int
}

// NewOpenAIEmbedder creates an embedder from resolved config. Credentials
// come from cfg; the environment is never consulted here.
func NewOpenAIEmbedder(cfg *config.EmbeddingConfig) *OpenAIEmbedder {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &OpenAIEmbedder{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
		maxRetries: 2,
	}
}

// Dimensions returns the configured embedding dimensionality.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one provider call. Rate-limited and 5xx
// responses are retried with backoff, honoring Retry-After when present.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embeddingsRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, &ServiceError{Reason: "encode request", Err: err}
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		vectors, retry, err := e.embedOnce(ctx, body, len(texts))
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !retry || attempt == e.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &ServiceError{Reason: "request canceled", Err: ctx.Err()}
		case <-time.After(retryDelay(attempt)):
		}
	}
	return nil, lastErr
}

// embedOnce performs one embeddings call. The second return reports whether
// the failure is retryable.
func (e *OpenAIEmbedder) embedOnce(ctx context.Context, body []byte, want int) ([][]float32, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, false, &ServiceError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, true, &ServiceError{Reason: "provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, convErr := strconv.Atoi(ra); convErr == nil {
				time.Sleep(time.Duration(secs) * time.Second)
			}
		}
		return nil, true, &ServiceError{Reason: fmt.Sprintf("provider returned %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, &ServiceError{Reason: fmt.Sprintf("provider returned %s", resp.Status)}
	}

	var out embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, true, &ServiceError{Reason: "decode response", Err: err}
	}
	if len(out.Data) != want {
		return nil, false, &ServiceError{Reason: fmt.Sprintf("provider returned %d embeddings for %d inputs", len(out.Data), want)}
	}
	vectors := make([][]float32, want)
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= want {
			return nil, false, &ServiceError{Reason: fmt.Sprintf("embedding index %d out of range", d.Index)}
		}
		if e.dimensions > 0 && len(d.Embedding) != e.dimensions {
			return nil, false, &ServiceError{
				Reason: fmt.Sprintf("embedding has %d dimensions, expected %d", len(d.Embedding), e.dimensions),
			}
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, false, &ServiceError{Reason: fmt.Sprintf("missing embedding for input %d", i)}
		}
	}
	return vectors, false, nil
}

// retryDelay is an exponential backoff capped at 2s.
func retryDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d
}
