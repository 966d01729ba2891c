// report renders a printable PDF session report (and optionally the
// individual chart PNGs) from a logger CSV, without needing the server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/lap.report/internal/config"
	"github.com/banshee-data/lap.report/internal/db"
	"github.com/banshee-data/lap.report/internal/esplog"
	"github.com/banshee-data/lap.report/internal/report"
	"github.com/banshee-data/lap.report/internal/telemetry"
	"github.com/banshee-data/lap.report/internal/units"
)

var (
	tuningFile = flag.String("tuning", "", "Path to a tuning config JSON file (built-in defaults when empty)")
	unitsFlag  = flag.String("units", "mph", "Display units for speeds (mph, kmph, mps)")
	outFile    = flag.String("o", "", "Output PDF path (default: session CSV name with .pdf)")
	pngDir     = flag.String("png-dir", "", "Also write the individual chart PNGs into this directory")
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

	session := db.NewSessionSummary("", filepath.Base(path), time.Now(), samples, result)

	if *pngDir != "" {
		if err := writePNGs(*pngDir, samples, result, *unitsFlag); err != nil {
			log.Fatalf("failed to write charts: %v", err)
		}
	}

	pdf, err := report.GeneratePDF(session, samples, result, *unitsFlag)
	if err != nil {
		log.Fatalf("failed to generate PDF: %v", err)
	}

	out := *outFile
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf"
	}
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		log.Fatalf("failed to write PDF: %v", err)
	}
	log.Printf("wrote %s (%d laps, %d samples)", out, len(result.Laps), len(samples))
}

func writePNGs(dir string, samples []telemetry.Sample, result *telemetry.Result, targetUnits string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	charts := map[string]func() ([]byte, error){
		"track":       func() ([]byte, error) { return report.TrackPlot(samples) },
		"speed":       func() ([]byte, error) { return report.SpeedPlot(samples, targetUnits) },
		"orientation": func() ([]byte, error) { return report.OrientationPlot(samples, result) },
		"slip":        func() ([]byte, error) { return report.SlipPlot(samples, result) },
		"accel":       func() ([]byte, error) { return report.AccelPlot(samples, result) },
		"rpm":         func() ([]byte, error) { return report.RPMPlot(samples, result) },
	}
	for name, render := range charts {
		png, err := render()
		if err != nil {
			log.Printf("skipping %s chart: %v", name, err)
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name+".png"), png, 0o644); err != nil {
			return err
		}
	}
	return nil
}
