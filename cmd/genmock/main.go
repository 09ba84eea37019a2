// Command genmock writes sample per-station weather CSV files for one date.
// Rows are passed through the real domain transform and validation rules so
// the printed stats match what a pipeline run over the output will report.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/input \
//	  -date 2025-01-01 \
//	  -stations 5 -hours 24 -invalid 3
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

var header = []string{
	domain.FieldStationID,
	domain.FieldStationName,
	domain.FieldTimestamp,
	domain.FieldTemperature,
	domain.FieldHumidity,
	domain.FieldWindSpeed,
	domain.FieldPrecipitation,
}

var stationNames = []string{"London", "Paris", "Berlin", "Madrid", "Oslo", "Vienna", "Lisbon", "Dublin"}

// sourceLayout is the timestamp shape station files use.
const sourceLayout = "2006-01-02 15:04:05"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "directory to write station CSV files into")
	dateStr := flag.String("date", "", "observation date, YYYY-MM-DD (default today)")
	stations := flag.Int("stations", 3, "number of stations")
	hours := flag.Int("hours", 24, "observations per station, one per hour")
	invalid := flag.Int("invalid", 0, "number of malformed rows to inject per station")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *stations < 1 || *hours < 1 || *hours > 24 {
		return fmt.Errorf("-stations must be >= 1 and -hours in 1..24")
	}

	day := clockwork.NewRealClock().Now().UTC().Truncate(24 * time.Hour)
	if *dateStr != "" {
		d, err := time.Parse(domain.DateLayout, *dateStr)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		day = d
	}
	date := day.Format(domain.DateLayout)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	var all []domain.RawRecord //nolint:prealloc // size depends on flags and injected rows

	for i := range *stations {
		id := fmt.Sprintf("STN%03d", i+1)
		rows := stationRows(rng, id, stationNames[i%len(stationNames)], day, *hours)
		rows = append(rows, malformedRows(id, day, *invalid)...)

		path := filepath.Join(*outDir, fmt.Sprintf("%s_%s.csv", id, date))
		if err := writeCSV(path, rows); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("%s: %d rows", path, len(rows))

		for _, row := range rows {
			all = append(all, toRaw(row))
		}
	}

	printStats(all)
	return nil
}

func stationRows(rng *rand.Rand, id, name string, day time.Time, hours int) [][]string {
	base := 30 + rng.Float64()*50 // daily mean, Fahrenheit
	rows := make([][]string, 0, hours)
	for h := range hours {
		ts := day.Add(time.Duration(h) * time.Hour)
		temp := base + 10*rng.Float64() - 5
		humidity := ""
		if rng.IntN(10) > 0 {
			humidity = strconv.FormatFloat(40+rng.Float64()*60, 'f', 1, 64)
		}
		wind := strconv.FormatFloat(rng.Float64()*25, 'f', 1, 64)
		precip := ""
		if rng.IntN(4) == 0 {
			precip = strconv.FormatFloat(rng.Float64()*5, 'f', 2, 64)
		}
		rows = append(rows, []string{
			id, name, ts.Format(sourceLayout),
			strconv.FormatFloat(temp, 'f', 1, 64),
			humidity, wind, precip,
		})
	}
	return rows
}

// malformedRows cycles through the ways a row can be dropped by the transformer.
func malformedRows(id string, day time.Time, n int) [][]string {
	ts := day.Add(12 * time.Hour).Format(sourceLayout)
	variants := [][]string{
		{id, "", ts, "", "50", "1", "0"},
		{id, "", day.Format("01/02/2006 15:04"), "60", "50", "1", "0"},
		{id, "", ts, "n/a", "50", "1", "0"},
	}
	rows := make([][]string, 0, n)
	for i := range n {
		rows = append(rows, variants[i%len(variants)])
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func toRaw(row []string) domain.RawRecord {
	raw := make(domain.RawRecord, len(header))
	for i, col := range header {
		raw[col] = row[i]
	}
	return raw
}

func printStats(raws []domain.RawRecord) {
	var records []domain.CanonicalRecord
	drops := map[domain.DropReason]int{}
	for _, raw := range raws {
		rec, drop := domain.TransformRecord(raw)
		if drop != nil {
			drops[drop.Reason]++
			continue
		}
		records = append(records, rec)
	}
	report := domain.Validate(records)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Raw rows: %d\n", len(raws))
	fmt.Printf("Transformed: %d\n", len(records))
	fmt.Printf("Dropped: missing=%d, timestamp=%d, temperature=%d\n",
		drops[domain.DropMissingField], drops[domain.DropInvalidTimestamp], drops[domain.DropInvalidTemperature])
	fmt.Printf("Valid: %t (%d diagnostics)\n", report.Valid, report.Total)
	for _, msg := range report.Errors {
		fmt.Printf("  %s\n", msg)
	}
}
