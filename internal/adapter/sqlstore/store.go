// Package sqlstore persists canonical weather records in a relational store.
// SQLite is the default single-file backend; PostgreSQL is supported for
// shared deployments.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultFileName is the SQLite database file created under the output directory.
const DefaultFileName = "weather.db"

const recordColumns = "station_id, station_name, timestamp, date, temperature, humidity, wind_speed, precipitation"

type dialect struct {
	name       string
	schemaFile string
	insertSQL  string
	rangeSQL   string
	// savepoints isolates each row insert so a failed row does not abort the
	// surrounding transaction (PostgreSQL aborts on any statement error).
	savepoints bool
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:       DriverSQLite,
		schemaFile: "sql/sqlite.sql",
		insertSQL:  "INSERT INTO weather_data (" + recordColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rangeSQL:   "SELECT " + recordColumns + " FROM weather_data WHERE date >= ? AND date <= ? ORDER BY date, timestamp, id",
	},
	DriverPostgres: {
		name:       DriverPostgres,
		schemaFile: "sql/postgres.sql",
		insertSQL:  "INSERT INTO weather_data (" + recordColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		rangeSQL:   "SELECT " + recordColumns + " FROM weather_data WHERE date >= $1 AND date <= $2 ORDER BY date, timestamp, id",
		savepoints: true,
	},
}

// Store wraps a database handle for the weather_data table.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// Open connects to the store. For SQLite, dsn is a file path and its parent
// directory is created if needed.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	if dsn == "" {
		return nil, errors.New("store dsn is required")
	}

	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer per file; a single connection keeps the transaction and
		// its prepared statement on the same handle.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s store: %w", driver, err)
	}

	return &Store{db: db, dialect: d, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the weather_data table and its date index if they do
// not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl, err := schemaFiles.ReadFile(s.dialect.schemaFile)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	for _, stmt := range splitStatements(string(ddl)) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// InsertBatch appends every record inside a single transaction. A record that
// cannot be written is logged, reported in failures and skipped; the remaining
// rows are still committed. The returned error is non-nil only for
// transaction-level failures (begin, prepare, commit), in which case nothing
// was committed.
func (s *Store) InsertBatch(ctx context.Context, records []domain.CanonicalRecord) (inserted int, failures []domain.RowFailure, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.dialect.insertSQL)
	if err != nil {
		return 0, nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := records[i]
		if err := s.insertRow(ctx, tx, stmt, rec); err != nil {
			observability.LoggerFrom(ctx, s.logger).Error("insert failed, skipping record",
				"index", i,
				"station_id", rec.StationID,
				"error", err,
			)
			failures = append(failures, domain.RowFailure{Index: i, StationID: rec.StationID, Error: err.Error()})
			continue
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, failures, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return inserted, failures, nil
}

func (s *Store) insertRow(ctx context.Context, tx *sql.Tx, stmt *sql.Stmt, rec domain.CanonicalRecord) error {
	args, err := rowArgs(rec)
	if err != nil {
		return err
	}

	if !s.dialect.savepoints {
		_, err = stmt.ExecContext(ctx, args...)
		return err
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT weather_row"); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT weather_row"); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		return err
	}
	_, err = tx.ExecContext(ctx, "RELEASE SAVEPOINT weather_row")
	return err
}

// rowArgs maps a record to insert arguments in recordColumns order. Non-finite
// numbers are rejected because they do not survive a round trip through every
// backend (SQLite stores NaN as NULL).
func rowArgs(rec domain.CanonicalRecord) ([]any, error) {
	floats := []struct {
		name string
		v    *float64
	}{
		{domain.FieldTemperature, rec.Temperature},
		{domain.FieldHumidity, rec.Humidity},
		{domain.FieldWindSpeed, rec.WindSpeed},
		{domain.FieldPrecipitation, &rec.Precipitation},
	}
	for _, f := range floats {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			return nil, fmt.Errorf("%s is not a finite number: %v", f.name, *f.v)
		}
	}

	return []any{
		rec.StationID,
		nullString(rec.StationName),
		rec.Timestamp,
		rec.Date,
		nullFloat(rec.Temperature),
		nullFloat(rec.Humidity),
		nullFloat(rec.WindSpeed),
		rec.Precipitation,
	}, nil
}

// QueryRange returns records whose date falls within [from, to], both
// "YYYY-MM-DD", ordered by date and timestamp.
func (s *Store) QueryRange(ctx context.Context, from, to string) ([]domain.CanonicalRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rangeSQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("query weather data: %w", err)
	}
	defer rows.Close()

	records := []domain.CanonicalRecord{}
	for rows.Next() {
		var (
			rec           domain.CanonicalRecord
			name          sql.NullString
			temp, hum     sql.NullFloat64
			wind, precipN sql.NullFloat64
		)
		if err := rows.Scan(&rec.StationID, &name, &rec.Timestamp, &rec.Date, &temp, &hum, &wind, &precipN); err != nil {
			return nil, fmt.Errorf("scan weather data: %w", err)
		}
		if name.Valid {
			rec.StationName = domain.String(name.String)
		}
		rec.Temperature = floatPtr(temp)
		rec.Humidity = floatPtr(hum)
		rec.WindSpeed = floatPtr(wind)
		rec.Precipitation = precipN.Float64
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM weather_data").Scan(&n); err != nil {
		return 0, fmt.Errorf("count weather data: %w", err)
	}
	return n, nil
}

func splitStatements(ddl string) []string {
	var stmts []string
	for _, part := range strings.Split(ddl, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float64(v.Float64)
}
