// Package ingest turns uploaded documents into indexed, retrievable chunks.
package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/kotae/internal/models"
)

// Chunker splits text into overlapping word-based windows.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits text into DocumentChunks with overlapping windows.
func (c *Chunker) Chunk(docID, text string) []*models.DocumentChunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	chunks := make([]*models.DocumentChunk, 0)
	for i, index := 0, 0; i < len(words); i, index = i+step, index+1 {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, &models.DocumentChunk{
			ID:         fmt.Sprintf("%s_%s", docID, uuid.New().String()[:8]),
			DocumentID: docID,
			Content:    strings.Join(words[i:end], " "),
			ChunkIndex: index,
		})
		if end >= len(words) {
			break
		}
	}
	return chunks
}
