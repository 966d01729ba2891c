// lapreport is the session server: upload ESP32 logger CSVs over HTTP,
// browse derived channels and laps in the dashboard, and query everything as
// JSON.
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

	"github.com/banshee-data/lap.report/internal/api"
	"github.com/banshee-data/lap.report/internal/config"
	"github.com/banshee-data/lap.report/internal/dashboard"
	"github.com/banshee-data/lap.report/internal/db"
	"github.com/banshee-data/lap.report/internal/telemetry"
	"github.com/banshee-data/lap.report/internal/units"
	"github.com/banshee-data/lap.report/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "HTTP listen address")
	dbFile      = flag.String("db", "lap_report.db", "Path to the SQLite database file")
	dataDir     = flag.String("data-dir", "sessions", "Directory for uploaded session CSVs (empty to keep sessions in memory only)")
	tuningFile  = flag.String("tuning", "", "Path to a tuning config JSON file (built-in defaults when empty)")
	unitsFlag   = flag.String("units", "mph", "Display units for speeds (mph, kmph, mps)")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("lapreport %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if !units.IsValid(*unitsFlag) {
		log.Fatalf("invalid units %q; valid units are: %s", *unitsFlag, units.GetValidUnitsString())
	}

	cfg := telemetry.DefaultConfig()
	if *tuningFile != "" {
		tuning, err := config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		cfg = tuning.Pipeline()
		log.Printf("loaded tuning config from %s", *tuningFile)
	}

	if *dataDir != "" {
		if err := os.MkdirAll(*dataDir, 0o755); err != nil {
			log.Fatalf("failed to create data directory: %v", err)
		}
	}

	database, err := db.OpenDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(db.MigrationsFS()); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	apiServer := api.NewServer(database, cfg, *unitsFlag, *dataDir)
	mux := apiServer.ServeMux()

	// admin debugging routes (tailsql, backup)
	database.AttachAdminRoutes(mux)

	dashboard.New(apiServer, database, *unitsFlag).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("lapreport %s listening on %s", version.Version, *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
