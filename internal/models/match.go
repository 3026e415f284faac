package models

// RetrievalMatch is one nearest-neighbor hit returned by the vector index.
// Matches arrive in descending similarity order and are never re-sorted.
type RetrievalMatch struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Text returns the chunk content carried in metadata under the "text" key,
// or "" when the key is absent or not a string.
func (m *RetrievalMatch) Text() string {
	if m.Metadata == nil {
		return ""
	}
	if v, ok := m.Metadata["text"].(string); ok {
		return v
	}
	return ""
}
