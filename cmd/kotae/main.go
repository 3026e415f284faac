// Package main is the Kotae CLI entry point.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/ingest"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Provider API keys come from the environment, so a .env file next
// to the process is loaded first when present.
func loadConfig(path string) (*config.Config, string, error) {
	_ = godotenv.Load()
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds everything the server command wires together.
type components struct {
	Answerer *chat.Answerer
	Ingestor *ingest.Ingestor
	Storage  storage.Storage
}

func (c *components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	embedder := embedding.NewOpenAIEmbedder(&cfg.Embedding)

	var index vector.Index
	if cfg.Vector.IndexHost != "" {
		index = vector.NewPineconeIndex(&cfg.Vector, cfg.Embedding.Dimensions)
	} else {
		logger.Warn("no vector index host configured, answers will not be grounded")
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document registry: %w", err)
	}

	retriever := retrieval.NewRetriever(embedder, index, cfg.Vector.TopK)
	generator := generate.NewOpenAIGenerator(&cfg.Generate)
	answerer := chat.NewAnswerer(retriever, generator, cfg.Chat.MaxHistory, logger)
	ingestor := ingest.NewIngestor(&cfg.Ingest, embedder, index, store, logger)

	return &components{
		Answerer: answerer,
		Ingestor: ingestor,
		Storage:  store,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Directory != "" {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(
			cfg.Watch.Directory,
			cfg.Watch.Extensions,
			func(path string) {
				chunks, err := comps.Ingestor.IngestFile(watchCtx, path)
				if err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("watch ingested", zap.String("path", path), zap.Int("chunks", chunks))
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(comps.Answerer, comps.Ingestor, comps.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: kotae ask [flags] <question>")
		os.Exit(1)
	}

	req := models.ChatRequest{Messages: []models.ConversationMessage{
		{Role: "user", Parts: []models.MessagePart{{Type: "text", Text: question}}},
	}}
	body, err := json.Marshal(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	resp, err := http.Post(*serverURL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %s: %s\n", resp.Status, strings.TrimSpace(string(data)))
		os.Exit(1)
	}

	if err := printAnswerStream(os.Stdout, resp.Body); err != nil {
		fmt.Fprintf(os.Stderr, "\nStream failed: %v\n", err)
		os.Exit(1)
	}
}

// printAnswerStream reads the server's SSE response and writes text deltas as
// they arrive.
func printAnswerStream(w io.Writer, body io.Reader) error {
	type frame struct {
		Type      string `json:"type"`
		Delta     string `json:"delta"`
		ErrorText string `json:"errorText"`
	}
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}
		var f frame
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			continue
		}
		switch f.Type {
		case "text-delta":
			fmt.Fprint(w, f.Delta)
		case "error":
			return fmt.Errorf("%s", f.ErrorText)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = ingest directly without a server)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: kotae ingest [flags] <file> [<file>...]")
		os.Exit(1)
	}

	for _, path := range fs.Args() {
		var chunks int
		var err error
		if *serverURL != "" {
			chunks, err = ingestViaHTTP(*serverURL, path)
		} else {
			chunks, err = ingestDirect(*configPath, path)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to ingest %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %s (%d chunks)\n", filepath.Base(path), chunks)
	}
}

func ingestViaHTTP(serverURL, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return 0, err
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}

	resp, err := http.Post(serverURL+"/ingest", mw.FormDataContentType(), &buf)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	var out struct {
		Chunks int `json:"chunks"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, err
	}
	return out.Chunks, nil
}

func ingestDirect(configPath, path string) (int, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return 0, err
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return 0, err
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return 0, err
	}
	defer comps.Close()

	return comps.Ingestor.IngestFile(context.Background(), path)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Server returned %s: %s\n", resp.Status, strings.TrimSpace(string(data)))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(strings.TrimSpace(string(data)))
		return
	}
	fmt.Println(pretty.String())
}

func printUsage() {
	fmt.Print(`Kotae - document question answering over your own files

Usage:
  kotae server [-config path] [-debug]     Start the HTTP server
  kotae ask [-server url] <question>       Ask a question, stream the answer
  kotae ingest [-server url] <file>...     Ingest documents (use -server "" for direct mode)
  kotae status [-server url]               Show ingested document counts
  kotae version                            Print version
  kotae help                               Show this help
`)
}
