package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// PineconeIndex is a REST client for one Pinecone index, fixed to a single
// namespace for the deployment's knowledge base.
type PineconeIndex struct {
	host       string
	apiKey     string
	namespace  string
	dimensions int
	client     *http.Client
}

// NewPineconeIndex creates a client from resolved config. dimensions is the
// index's configured dimensionality, used to reject mismatched query
// vectors before they reach the wire.
func NewPineconeIndex(cfg *config.VectorConfig, dimensions int) *PineconeIndex {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &PineconeIndex{
		host:       cfg.IndexHost,
		apiKey:     cfg.APIKey,
		namespace:  cfg.Namespace,
		dimensions: dimensions,
		client:     &http.Client{Timeout: timeout},
	}
}

type queryRequest struct {
	Namespace       string    `json:"namespace"`
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string                 `json:"id"`
		Score    float64                `json:"score"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"matches"`
}

// Query returns the topK nearest matches with metadata, in the index's
// descending-score order. Network and server failures surface as
// ErrUnavailable; there are no automatic retries on this read path.
func (p *PineconeIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.RetrievalMatch, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if p.dimensions > 0 && len(vector) != p.dimensions {
		return nil, &DimensionMismatchError{Got: len(vector), Want: p.dimensions}
	}

	body := queryRequest{
		Namespace:       p.namespace,
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}
	var out queryResponse
	if err := p.postJSON(ctx, "/query", body, &out); err != nil {
		return nil, err
	}

	matches := make([]models.RetrievalMatch, 0, len(out.Matches))
	for _, m := range out.Matches {
		matches = append(matches, models.RetrievalMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

type upsertRequest struct {
	Namespace string         `json:"namespace"`
	Vectors   []upsertVector `json:"vectors"`
}

type upsertVector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Upsert writes vectors into the configured namespace.
func (p *PineconeIndex) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	payload := upsertRequest{Namespace: p.namespace, Vectors: make([]upsertVector, 0, len(vectors))}
	for _, v := range vectors {
		if p.dimensions > 0 && len(v.Values) != p.dimensions {
			return &DimensionMismatchError{Got: len(v.Values), Want: p.dimensions}
		}
		payload.Vectors = append(payload.Vectors, upsertVector{ID: v.ID, Values: v.Values, Metadata: v.Metadata})
	}
	return p.postJSON(ctx, "/vectors/upsert", payload, nil)
}

func (p *PineconeIndex) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: index returned %s", ErrUnavailable, resp.Status)
	}
	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("index %s failed: %s", path, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
