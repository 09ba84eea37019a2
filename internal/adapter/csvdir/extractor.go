// Package csvdir reads per-station daily CSV files from a local directory.
package csvdir

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
)

const csvExt = ".csv"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor implements pipeline.Extractor over a filesystem directory.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a directory extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the rows of every CSV file in dir whose name contains date,
// both matches case-insensitive. Files are read in directory listing order.
// A matched file without data rows is skipped with a warning. Any I/O or
// decode failure is returned as a *domain.ExtractionError and no rows are
// returned with it.
func (e *Extractor) Extract(ctx context.Context, dir, date string) ([]domain.RawRecord, error) {
	logger := observability.LoggerFrom(ctx, e.logger)
	logger.Info("extracting weather data", "dir", dir, "date", date)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.ExtractionError{Path: dir, Err: err}
	}

	records := []domain.RawRecord{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !Matches(entry.Name(), date) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		logger.Info("processing file", "path", path)

		rows, err := readFile(path)
		if err != nil {
			return nil, &domain.ExtractionError{Path: path, Err: err}
		}
		if len(rows) == 0 {
			logger.Warn("no data found in file", "path", path)
			continue
		}

		records = append(records, rows...)
		logger.Info("extracted records", "file", entry.Name(), "count", len(rows))
	}

	return records, nil
}

// Matches reports whether a file name is a CSV file for the given date token.
func Matches(name, date string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, strings.ToLower(date)) && strings.HasSuffix(lower, csvExt)
}

func readFile(path string) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseCSV(f)
}

// parseCSV reads a header-driven CSV stream. Short rows leave the missing
// trailing columns absent, extra cells are ignored and a repeated header name
// keeps the right-most value.
func parseCSV(r io.Reader) ([]domain.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errors.New("file is not valid UTF-8")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []domain.RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec := make(domain.RawRecord, len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			rec[name] = row[i]
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
