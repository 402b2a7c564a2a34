// Command statsserver serves stored simulation run summaries over HTTP.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/casperlundberg/omegasim/internal/resultstore"
	"github.com/casperlundberg/omegasim/internal/statsapi"
)

func main() {
	var (
		dbPath = flag.String("db", "omegasim.db", "Path to SQLite result-store database file")
		port   = flag.String("port", "8080", "Port to run the stats API server on")
	)
	flag.Parse()

	dbDir := filepath.Dir(*dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	log.Printf("Connecting to database at %s", *dbPath)
	db, err := resultstore.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repo := resultstore.NewRepository(db)

	log.Printf("Starting stats API server on port %s", *port)
	server := statsapi.NewServer(repo, *port)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
