// taskchat-tools runs the tool gateway as a standalone HTTP service so the
// web service can talk to it over the wire instead of in-process.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/scrypster/taskchat/internal/config"
	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/internal/storage/postgres"
	"github.com/scrypster/taskchat/internal/storage/sqlite"
	"github.com/scrypster/taskchat/internal/tools"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (environment variables override it)")
	port := flag.Int("port", 8001, "Port to listen on")
	flag.Parse()

	cfg, err := config.LoadConfigFromFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, taskStore, err := openTaskStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer db.Close()

	gateway := tools.NewGateway(taskStore)
	handler := tools.NewHTTPHandler(gateway)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, *port),
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("TaskChat tool gateway running at http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func openTaskStore(cfg *config.Config) (*sql.DB, storage.TaskStore, error) {
	if cfg.Storage.StorageEngine == "postgres" {
		db, err := postgres.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return db, postgres.NewTaskStore(db), nil
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, nil, err
	}
	db, err := sqlite.Open(filepath.Join(cfg.Storage.DataPath, "taskchat.db"))
	if err != nil {
		return nil, nil, err
	}
	return db, sqlite.NewTaskStore(db), nil
}
