package domain

// RawRecord is one source CSV row keyed by header name. Columns missing from a
// short row are absent from the map rather than empty.
type RawRecord map[string]string

// Source column names.
const (
	FieldStationID     = "station_id"
	FieldStationName   = "station_name"
	FieldTimestamp     = "timestamp"
	FieldDate          = "date"
	FieldTemperature   = "temperature"
	FieldHumidity      = "humidity"
	FieldWindSpeed     = "wind_speed"
	FieldPrecipitation = "precipitation"
)

// CanonicalRecord is a normalized weather observation ready for validation and
// persistence. Temperature is in degrees Celsius.
//
// Nullable fields are pointers. Temperature is a pointer as well so that the
// validator can report a missing value on records that did not come through
// TransformRecord; TransformRecord never leaves it nil.
type CanonicalRecord struct {
	StationID     string   `json:"station_id"`
	StationName   *string  `json:"station_name"`
	Timestamp     string   `json:"timestamp"`
	Date          string   `json:"date"`
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	WindSpeed     *float64 `json:"wind_speed"`
	Precipitation float64  `json:"precipitation"`
}

// DropReason classifies why a raw record did not make it out of the transform stage.
type DropReason string

const (
	DropMissingField       DropReason = "missing_required_field"
	DropInvalidTimestamp   DropReason = "invalid_timestamp"
	DropInvalidTemperature DropReason = "invalid_temperature"
	DropPanic              DropReason = "panic"
)

// Drop describes a raw record that was skipped during transformation.
// Index points into the raw batch handed to the transformer.
type Drop struct {
	Index     int        `json:"index"`
	StationID string     `json:"station_id,omitempty"`
	Reason    DropReason `json:"reason"`
	Detail    string     `json:"detail,omitempty"`
}

// ValidationReport is the outcome of Validate. Errors holds at most
// MaxReportedErrors diagnostics plus one summary entry; Total counts all of them.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
	Total  int      `json:"total"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

// RowFailure records a canonical record that could not be written to the store.
type RowFailure struct {
	Index     int    `json:"index"`
	StationID string `json:"station_id,omitempty"`
	Error     string `json:"error"`
}
