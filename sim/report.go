package sim

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// VehicleStats aggregates one vehicle's batch-run outcome.
type VehicleStats struct {
	VehicleID int
	Route     string
	Points    int
	Distance  float64 // world units
	Estimated float64 // seconds, from the route estimator
	Completed bool
}

// ReportSummary carries end-of-run metrics for reporting.
type ReportSummary struct {
	Spawned   int
	Completed int
	TotalDist float64
}

// WriteCSVReport writes a CSV report to the given path or directory.
// If reportPath is a directory, it creates a timestamped file inside.
// If reportPath is a file, a timestamp is suffixed before the extension.
func WriteCSVReport(reportPath string, stats []VehicleStats, sum ReportSummary) (string, error) {
	if reportPath == "" {
		return "", nil
	}
	ts := time.Now().Format("20060102-150405")
	outPath := reportPath
	if fi, err := os.Stat(outPath); err == nil && fi.IsDir() {
		outPath = filepath.Join(outPath, fmt.Sprintf("report-%s.csv", ts))
	} else {
		ext := filepath.Ext(outPath)
		base := outPath[:len(outPath)-len(ext)]
		outPath = fmt.Sprintf("%s-%s%s", base, ts, ext)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	round2 := func(x float64) float64 { return math.Round(x*100) / 100 }
	fmt.Fprintln(f, "section,vehicle_id,route,points,distance,estimated_s,completed,spawned,total_distance,timestamp")
	for _, s := range stats {
		fmt.Fprintf(f, "vehicle,%d,%q,%d,%.2f,%.2f,%v,,,%s\n",
			s.VehicleID, s.Route, s.Points, round2(s.Distance), round2(s.Estimated), s.Completed, ts)
	}
	fmt.Fprintf(f, "summary,,,,,,%d,%d,%.2f,%s\n", sum.Completed, sum.Spawned, round2(sum.TotalDist), ts)
	log.WithField("path", outPath).Info("report written")
	return outPath, nil
}
