/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Loop chore ledger server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open the document store (SQLite or plain JSON file)
  3. Load + migrate the persisted document (pre-migration backup first)
  4. Construct the ledger and its PIN gate
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path; use ":memory:" for in-memory
  -file    JSON document path, used instead of SQLite when set

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Flush the pending write-back and close the store
  4. Exit

EXAMPLES:
  # Run with SQLite
  ./server -db="./data/loop.db"

  # Run with a plain JSON file
  ./server -file="./data/loop.json"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - migrate/migrate.go: Document normalization
  - store/: Document store implementations
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loop/chore-ledger/api"
	"github.com/loop/chore-ledger/ledger"
	"github.com/loop/chore-ledger/migrate"
	"github.com/loop/chore-ledger/pingate"
	"github.com/loop/chore-ledger/store"
	"github.com/loop/chore-ledger/store/sqlite"
)

// documentStore joins the two store-side interfaces the startup
// sequence needs from one backend.
type documentStore interface {
	ledger.DocumentStore
	migrate.BackupWriter
}

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "loop.db", "SQLite database path")
	filePath := flag.String("file", "", "JSON document path (used instead of SQLite when set)")
	flag.Parse()

	// Open the document store
	var docs documentStore
	if *filePath != "" {
		docs = store.NewFile(*filePath)
	} else {
		s, err := sqlite.New(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		docs = s
	}

	// Migrate the persisted document; older payloads are backed up
	// untouched before the transform.
	state, err := migrate.Load(docs, docs)
	if err != nil {
		log.Fatalf("Failed to load document: %v", err)
	}

	l := ledger.New(state, docs)
	defer l.Close()

	gate := pingate.New(l)

	router := api.NewRouter(api.NewHandler(l, gate))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
