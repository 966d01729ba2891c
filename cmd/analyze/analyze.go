// analyze runs the derivation pipeline over a logger CSV and prints the
// session summary, alignment, and lap table. With -json the full result
// (every derived channel) goes to stdout instead.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lap.report/internal/config"
	"github.com/banshee-data/lap.report/internal/db"
	"github.com/banshee-data/lap.report/internal/esplog"
	"github.com/banshee-data/lap.report/internal/telemetry"
	"github.com/banshee-data/lap.report/internal/units"
)

var (
	tuningFile = flag.String("tuning", "", "Path to a tuning config JSON file (built-in defaults when empty)")
	unitsFlag  = flag.String("units", "mph", "Display units for speeds (mph, kmph, mps)")
	jsonOut    = flag.Bool("json", false, "Emit the full derived result as JSON")
	dbFile     = flag.String("db", "", "Also record the session summary in this SQLite database")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <session.csv>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
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
	}

	path := flag.Arg(0)
	samples, err := esplog.LoadFile(path)
	if err != nil {
		log.Fatalf("failed to load log: %v", err)
	}

	result, err := telemetry.Process(samples, cfg)
	if err != nil {
		log.Fatalf("failed to process log: %v", err)
	}

	if *dbFile != "" {
		if err := record(*dbFile, path, samples, result); err != nil {
			log.Fatalf("failed to record session: %v", err)
		}
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("failed to encode result: %v", err)
		}
		return
	}

	printSummary(path, samples, result, *unitsFlag)
}

// record stores the session summary and laps the same way an API upload
// does, so batch runs show up in the server's history.
func record(dbPath, logPath string, samples []telemetry.Sample, result *telemetry.Result) error {
	database, err := db.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.MigrateUp(db.MigrationsFS()); err != nil {
		return err
	}

	session := db.NewSessionSummary(uuid.New().String(), filepath.Base(logPath), time.Now(), samples, result)
	if err := database.InsertSession(session, result.Laps); err != nil {
		return err
	}
	log.Printf("recorded session %s in %s", session.ID, dbPath)
	return nil
}

func printSummary(path string, samples []telemetry.Sample, result *telemetry.Result, targetUnits string) {
	duration := samples[len(samples)-1].TimeS - samples[0].TimeS

	speeds := make([]float64, len(samples))
	for i, s := range samples {
		speeds[i] = units.ConvertSpeed(s.SpeedMPH, targetUnits)
	}
	sort.Float64s(speeds)

	fmt.Printf("%s: %d samples over %.1fs\n\n", path, len(samples), duration)
	fmt.Printf("speed (%s): max %.1f  p85 %.1f  p50 %.1f\n",
		targetUnits,
		speeds[len(speeds)-1],
		stat.Quantile(0.85, stat.Empirical, speeds, nil),
		stat.Quantile(0.50, stat.Empirical, speeds, nil))

	align := result.Alignment
	if align.Identity() {
		fmt.Println("yaw alignment: no heading-trusted samples, yaw left unaligned")
	} else {
		fmt.Printf("yaw alignment: sign %+d  offset %.1f deg  residual %.2f deg  (%d trusted samples)\n",
			align.Sign, align.OffsetDeg, align.ResidualStdDeg, align.TrustedSamples)
	}

	if len(result.Laps) == 0 {
		fmt.Println("\nno complete laps")
		return
	}

	best := result.Laps[0]
	for _, lap := range result.Laps {
		if lap.LapTimeS < best.LapTimeS {
			best = lap
		}
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "lap\tstart\tend\ttime\t")
	for _, lap := range result.Laps {
		marker := ""
		if lap.Lap == best.Lap {
			marker = "  *best"
		}
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f%s\t\n",
			lap.Lap, lap.StartTime, lap.EndTime, lap.LapTimeS, marker)
	}
	w.Flush()
}
