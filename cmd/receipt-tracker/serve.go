package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/receipt-tracker/internal/auth"
	"github.com/zombor/receipt-tracker/internal/receipt"
	"github.com/zombor/receipt-tracker/internal/scanning"
)

type serveConfig struct {
	port        int
	dbPath      string
	storagePath string
	scannerType string
	geminiKey   string
	geminiModel string
	ollamaURL   string
	ollamaModel string
	authUser    string
	authPass    string
	jwtSecret   string
	tokenTTL    time.Duration
	maxBodyMB   int
}

func newServeCommand(parent *ff.FlagSet) *ff.Command {
	var cfg serveConfig
	fs := ff.NewFlagSet("serve").SetParent(parent)
	fs.IntVar(&cfg.port, 0, "port", 8080, "HTTP server port")
	fs.StringVar(&cfg.dbPath, 0, "db", "receipt-tracker.db", "Database file path")
	fs.StringVar(&cfg.storagePath, 0, "storage", "./receipts", "Storage directory path")
	fs.StringVar(&cfg.scannerType, 0, "scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
	fs.StringVar(&cfg.geminiKey, 0, "gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
	fs.StringVar(&cfg.geminiModel, 0, "gemini-model", "gemini-1.5-flash-latest", "Google Gemini model name")
	fs.StringVar(&cfg.ollamaURL, 0, "ollama-url", "http://localhost:11434", "Ollama API base URL")
	fs.StringVar(&cfg.ollamaModel, 0, "ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
	fs.StringVar(&cfg.authUser, 0, "auth-user", "", "Login username")
	fs.StringVar(&cfg.authPass, 0, "auth-pass", "", "Login password")
	fs.StringVar(&cfg.jwtSecret, 0, "jwt-secret", "", "Secret used to sign session tokens (random if empty)")
	fs.DurationVar(&cfg.tokenTTL, 0, "token-ttl", 24*time.Hour, "Session token lifetime")
	fs.IntVar(&cfg.maxBodyMB, 0, "max-body", 50, "Maximum upload size in MB")

	return &ff.Command{
		Name:      "serve",
		Usage:     "receipt-tracker serve [FLAGS]",
		ShortHelp: "run the receipt analysis server",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			return serve(ctx, cfg)
		},
	}
}

func newScanner(cfg serveConfig) (scanning.Scanner, error) {
	switch cfg.scannerType {
	case "gemini":
		apiKey := cfg.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", cfg.geminiModel)
		return scanning.NewGemini(apiKey, cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		return scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
	default:
		return nil, fmt.Errorf("invalid scanner type %q: want gemini or ollama", cfg.scannerType)
	}
}

func serve(ctx context.Context, cfg serveConfig) error {
	credentials := auth.Credentials{Username: cfg.authUser, Password: cfg.authPass}
	if !credentials.Configured() {
		return fmt.Errorf("--auth-user and --auth-pass are required")
	}

	secret := cfg.jwtSecret
	if secret == "" {
		secret = uuid.NewString()
		slog.Warn("No JWT secret configured, tokens will not survive a restart")
	}
	issuer, err := auth.NewIssuer(secret, cfg.tokenTTL)
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	slog.Info("Initializing database...", "path", cfg.dbPath)
	db, err := receipt.NewBoltDB(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	scanner, err := newScanner(cfg)
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}
	defer scanner.Close()

	slog.Info("Initializing storage...", "path", cfg.storagePath)
	store, err := receipt.NewLocalStorage(cfg.storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	service := receipt.NewService(db, scanner, store)
	server := receipt.NewServer(service, receipt.Config{
		Credentials:  credentials,
		Issuer:       issuer,
		MaxBodyBytes: int64(cfg.maxBodyMB) << 20,
	})

	addr := fmt.Sprintf(":%d", cfg.port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "user", cfg.authUser)
	return server.Start(ctx, addr)
}
