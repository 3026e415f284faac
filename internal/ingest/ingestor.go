package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// embedBatchSize bounds how many chunks go to the embedding provider per call.
const embedBatchSize = 32

// Ingestor runs the upload pipeline: extract text, chunk, embed, upsert into
// the vector index, and record the document in the registry.
type Ingestor struct {
	extractor *extract.Extractor
	chunker   *Chunker
	embedder  embedding.Embedder
	index     vector.Index
	store     storage.Storage
	logger    *zap.Logger
}

// NewIngestor wires the pipeline. store may be nil when no registry is
// configured; logger may be nil.
func NewIngestor(cfg *config.IngestConfig, embedder embedding.Embedder, index vector.Index, store storage.Storage, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		extractor: extract.NewExtractor(),
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder:  embedder,
		index:     index,
		store:     store,
		logger:    logger,
	}
}

// Supported reports whether the filename's extension can be ingested.
func (g *Ingestor) Supported(filename string) bool {
	return g.extractor.Supported(filepath.Ext(filename))
}

// IngestBytes ingests one document's raw bytes under its original filename
// and returns the number of chunks indexed.
func (g *Ingestor) IngestBytes(ctx context.Context, filename string, content []byte) (int, error) {
	if g.index == nil {
		return 0, fmt.Errorf("no vector index configured")
	}
	text, err := g.extractor.ExtractBytes(content, filepath.Ext(filename))
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", filename, err)
	}

	docID := DocID(filename)
	chunks := g.chunker.Chunk(docID, text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no text extracted from %s", filename)
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := g.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed chunks: %w", err)
		}

		upserts := make([]vector.Vector, len(batch))
		for i, c := range batch {
			upserts[i] = vector.Vector{
				ID:     c.ID,
				Values: vectors[i],
				Metadata: map[string]interface{}{
					"text":        c.Content,
					"document_id": c.DocumentID,
					"filename":    filename,
					"chunk_index": c.ChunkIndex,
				},
			}
		}
		if err := g.index.Upsert(ctx, upserts); err != nil {
			return 0, fmt.Errorf("upsert chunks: %w", err)
		}
	}

	if g.store != nil {
		doc := &models.Document{ID: docID, Filename: filename, Chunks: len(chunks)}
		if err := g.store.RecordDocument(ctx, doc); err != nil {
			// The chunks are already searchable; a registry failure only
			// costs status accounting.
			g.logger.Warn("failed to record ingested document", zap.String("filename", filename), zap.Error(err))
		}
	}

	g.logger.Info("document ingested", zap.String("filename", filename), zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// IngestFile ingests a document from disk.
func (g *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}
	return g.IngestBytes(ctx, filepath.Base(path), content)
}

// DocID derives a stable document ID from the filename, so re-uploading the
// same file replaces its registry record instead of duplicating it.
func DocID(filename string) string {
	sum := sha256.Sum256([]byte(filename))
	return "doc-" + hex.EncodeToString(sum[:8])
}
