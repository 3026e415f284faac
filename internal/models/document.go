package models

import "time"

// Document is an ingested source file tracked in the registry.
type Document struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentChunk is one retrieval unit produced from a document during
// ingestion. Content is what gets embedded and stored as the match's "text"
// metadata.
type DocumentChunk struct {
	ID         string
	DocumentID string
	Content    string
	ChunkIndex int
}
