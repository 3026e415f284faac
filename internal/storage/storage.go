// Package storage persists the registry of ingested documents.
package storage

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// Storage records which documents have been ingested into the vector index.
// The chat pipeline never touches it; it serves ingestion and status.
type Storage interface {
	RecordDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)
	Close() error
}
