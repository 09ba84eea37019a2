package csvdir

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDate   = "2025-01-01"
	testHeader = "station_id,station_name,timestamp,temperature,humidity,wind_speed,precipitation\n"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestExtract_MatchesDateAndExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stn001_2025-01-01.csv", testHeader+
		"STN001,London,2025-01-01 12:00:00,68.0,75.5,10.3,0.5\n")
	writeFile(t, dir, "STN002_2025-01-01.CSV", testHeader+
		"STN002,Manchester,2025-01-01 12:00:00,59.0,80.0,5.5,1.2\n"+
		"STN002,Manchester,2025-01-01 13:00:00,60.0,81.0,5.0,0.0\n")
	writeFile(t, dir, "stn003_2025-01-02.csv", testHeader+
		"STN003,Leeds,2025-01-02 12:00:00,50.0,70.0,4.0,0.0\n")
	writeFile(t, dir, "stn001_2025-01-01.txt", testHeader+
		"STN001,London,2025-01-01 12:00:00,68.0,75.5,10.3,0.5\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive_2025-01-01.csv"), 0o755))

	records, err := NewExtractor(discardLogger()).Extract(context.Background(), dir, testDate)
	require.NoError(t, err)
	require.Len(t, records, 3)

	stations := map[string]int{}
	for _, r := range records {
		stations[r[domain.FieldStationID]]++
	}
	assert.Equal(t, map[string]int{"STN001": 1, "STN002": 2}, stations)
}

func TestExtract_CaseInsensitiveDate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Report_JAN01.csv", testHeader+
		"STN001,London,2025-01-01 12:00:00,68.0,,,\n")

	records, err := NewExtractor(discardLogger()).Extract(context.Background(), dir, "jan01")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0][domain.FieldHumidity])
}

func TestExtract_NoMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stn001_2024-12-31.csv", testHeader)

	records, err := NewExtractor(discardLogger()).Extract(context.Background(), dir, testDate)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestExtract_EmptyFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_2025-01-01.csv", testHeader)
	writeFile(t, dir, "b_2025-01-01.csv", "")
	writeFile(t, dir, "c_2025-01-01.csv", testHeader+
		"STN009,York,2025-01-01 09:00:00,41.0,90,2,0\n")

	records, err := NewExtractor(discardLogger()).Extract(context.Background(), dir, testDate)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "STN009", records[0][domain.FieldStationID])
}

func TestExtract_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	records, err := NewExtractor(discardLogger()).Extract(context.Background(), missing, testDate)
	require.Error(t, err)
	assert.Nil(t, records)

	var extErr *domain.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, missing, extErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_InvalidUTF8IsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_2025-01-01.csv", testHeader+
		"STN001,London,2025-01-01 12:00:00,68.0,75.5,10.3,0.5\n")
	writeFile(t, dir, "b_2025-01-01.csv", testHeader+
		"STN002,\xff\xfe,2025-01-01 12:00:00,68.0,75.5,10.3,0.5\n")

	records, err := NewExtractor(discardLogger()).Extract(context.Background(), dir, testDate)
	require.Error(t, err)
	assert.Nil(t, records)

	var extErr *domain.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, filepath.Join(dir, "b_2025-01-01.csv"), extErr.Path)
}

func TestExtract_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_2025-01-01.csv", testHeader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(discardLogger()).Extract(ctx, dir, testDate)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCSV(t *testing.T) {
	t.Run("short rows leave trailing keys absent", func(t *testing.T) {
		rows, err := parseCSV(strings.NewReader(testHeader + "STN001,London,2025-01-01 12:00:00,68.0\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Len(t, rows[0], 4)
		_, ok := rows[0][domain.FieldHumidity]
		assert.False(t, ok)
	})

	t.Run("extra cells ignored", func(t *testing.T) {
		rows, err := parseCSV(strings.NewReader("station_id,temperature\nSTN001,68,extra\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, domain.RawRecord{"station_id": "STN001", "temperature": "68"}, rows[0])
	})

	t.Run("BOM stripped from header", func(t *testing.T) {
		rows, err := parseCSV(strings.NewReader("\xEF\xBB\xBFstation_id,temperature\nSTN001,68\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "STN001", rows[0][domain.FieldStationID])
	})

	t.Run("blank lines skipped", func(t *testing.T) {
		rows, err := parseCSV(strings.NewReader("station_id,temperature\n\nSTN001,68\n\n"))
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("quoted values", func(t *testing.T) {
		rows, err := parseCSV(strings.NewReader("station_id,station_name\nSTN001,\"London, City\"\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "London, City", rows[0][domain.FieldStationName])
	})

	t.Run("empty input", func(t *testing.T) {
		rows, err := parseCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		file string
		date string
		want bool
	}{
		{"exact", "stn001_2025-01-01.csv", testDate, true},
		{"upper extension", "stn001_2025-01-01.CSV", testDate, true},
		{"other date", "stn001_2025-01-02.csv", testDate, false},
		{"not csv", "stn001_2025-01-01.csv.bak", testDate, false},
		{"mixed case token", "WEATHER_Jan.csv", "jan", true},
		{"empty token matches every csv", "anything.csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.file, tt.date))
		})
	}
}
