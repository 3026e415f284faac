package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = 30
	}
	if cfg.Server.AllowedOrigin == "" {
		cfg.Server.AllowedOrigin = "http://localhost:3000"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 10
	}
	if cfg.Vector.APIKeyEnv == "" {
		cfg.Vector.APIKeyEnv = "PINECONE_API_KEY"
	}
	if cfg.Vector.Namespace == "" {
		cfg.Vector.Namespace = "pdf-rag"
	}
	if cfg.Vector.TopK == 0 {
		cfg.Vector.TopK = 3
	}
	if cfg.Vector.TimeoutSecs == 0 {
		cfg.Vector.TimeoutSecs = 10
	}
	if cfg.Generate.BaseURL == "" {
		cfg.Generate.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generate.APIKeyEnv == "" {
		cfg.Generate.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Generate.Model == "" {
		cfg.Generate.Model = "gpt-4-turbo"
	}
	if cfg.Generate.TimeoutSecs == 0 {
		// Covers the whole generation stream; must fit inside the server
		// request budget.
		cfg.Generate.TimeoutSecs = 30
	}
	if cfg.Chat.MaxHistory == 0 {
		cfg.Chat.MaxHistory = 20
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 200
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 40
	}
	if cfg.Ingest.MaxUploadBytes == 0 {
		cfg.Ingest.MaxUploadBytes = 32 << 20
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kotae/data/db/documents.db"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}
	}
}
