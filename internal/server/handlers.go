package server

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("chat request", zap.Int("messages", len(req.Messages)))

	answer, err := s.answerer.Answer(r.Context(), req.Messages)
	if err != nil {
		s.logger.Error("generation failed to start", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "generation failed")
		return
	}

	sw, err := newStreamWriter(w)
	if err != nil {
		go func() {
			for range answer.Tokens {
			}
		}()
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	textID := uuid.New().String()
	sw.start()
	sw.textStart(textID)
	for tok := range answer.Tokens {
		if tok.Content != "" {
			sw.textDelta(textID, tok.Content)
		}
		if tok.Err != nil {
			s.logger.Warn("stream interrupted", zap.Error(tok.Err))
			sw.streamError(tok.Err.Error())
		}
		if tok.Done {
			break
		}
	}
	sw.textEnd(textID)
	sw.finish()
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Ingest.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing or oversized file field")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !s.ingestor.Supported(filename) {
		s.respondError(w, http.StatusBadRequest, "unsupported file type")
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	s.logger.Debug("ingest request", zap.String("filename", filename), zap.Int("bytes", len(content)))
	chunks, err := s.ingestor.IngestBytes(r.Context(), filename, content)
	if err != nil {
		s.logger.Error("ingestion failed", zap.String("filename", filename), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"filename": filename,
		"chunks":   chunks,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.storage.CountChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docCount,
		"chunks":    chunkCount,
		"config": map[string]interface{}{
			"embedding_model":      s.config.Embedding.Model,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"generate_model":       s.config.Generate.Model,
			"namespace":            s.config.Vector.Namespace,
			"top_k":                s.config.Vector.TopK,
			"chunk_size":           s.config.Ingest.ChunkSize,
			"chunk_overlap":        s.config.Ingest.ChunkOverlap,
			"database_path":        s.config.Storage.DatabasePath,
		},
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	docs, err := s.storage.ListDocuments(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
