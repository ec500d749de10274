package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/scrypster/taskchat/internal/config"
	"github.com/scrypster/taskchat/internal/llm"
	"github.com/scrypster/taskchat/internal/server"
	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/internal/storage/postgres"
	"github.com/scrypster/taskchat/internal/storage/sqlite"
	"github.com/scrypster/taskchat/internal/tools"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (environment variables override it)")
	flag.Parse()

	cfg, err := config.LoadConfigFromFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	db, tasks, convs, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer db.Close()

	completer, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// A configured gateway URL means the tool gateway runs as its own
	// process; otherwise tools execute in-process.
	var invoker tools.Invoker
	if cfg.Tools.GatewayURL != "" {
		invoker = tools.NewClient(cfg.Tools.GatewayURL)
		log.Printf("Using remote tool gateway at %s", cfg.Tools.GatewayURL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, _, err := server.Start(ctx, server.Deps{
		Config:    cfg,
		Tasks:     tasks,
		Convs:     convs,
		Completer: completer,
		Invoker:   invoker,
	})
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("TaskChat web service running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

func openStores(cfg *config.Config) (*sql.DB, storage.TaskStore, storage.ConversationStore, error) {
	if cfg.Storage.StorageEngine == "postgres" {
		db, err := postgres.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, postgres.NewTaskStore(db), postgres.NewConversationStore(db), nil
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, nil, nil, err
	}
	db, err := sqlite.Open(filepath.Join(cfg.Storage.DataPath, "taskchat.db"))
	if err != nil {
		return nil, nil, nil, err
	}
	return db, sqlite.NewTaskStore(db), sqlite.NewConversationStore(db), nil
}
