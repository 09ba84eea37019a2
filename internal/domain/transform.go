package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// sourceTimestampLayout is the only timestamp shape accepted from station files.
	sourceTimestampLayout = "2006-01-02 15:04:05"

	// TimestampLayout is the ISO-8601 form stored on CanonicalRecord.Timestamp.
	TimestampLayout = "2006-01-02T15:04:05"

	// DateLayout is the calendar date form stored on CanonicalRecord.Date.
	DateLayout = "2006-01-02"
)

// requiredRawFields must be present and non-empty on a raw record.
var requiredRawFields = []string{FieldStationID, FieldTimestamp, FieldTemperature}

// TransformRecord converts one raw row into a CanonicalRecord. A non-nil Drop
// means the row must be skipped; its Index is left for the caller to fill in.
//
// Rules:
//   - station_id, timestamp and temperature must be present and non-empty
//   - station_name is trimmed and upper-cased, nil when the column is absent
//   - timestamp must match "YYYY-MM-DD HH:MM:SS" exactly
//   - temperature is read as Fahrenheit and stored as Celsius, 2 decimals
//   - humidity and wind_speed are nil when absent or unparseable
//   - precipitation is 0 when absent or unparseable
func TransformRecord(raw RawRecord) (CanonicalRecord, *Drop) {
	for _, field := range requiredRawFields {
		if raw[field] == "" {
			return CanonicalRecord{}, &Drop{
				StationID: raw[FieldStationID],
				Reason:    DropMissingField,
				Detail:    field,
			}
		}
	}

	stationID := raw[FieldStationID]
	rec := CanonicalRecord{StationID: stationID}

	if name, ok := raw[FieldStationName]; ok {
		rec.StationName = String(normalizeStationName(name))
	}

	ts, err := time.Parse(sourceTimestampLayout, raw[FieldTimestamp])
	if err != nil {
		return CanonicalRecord{}, &Drop{
			StationID: stationID,
			Reason:    DropInvalidTimestamp,
			Detail:    fmt.Sprintf("invalid timestamp format: %q", raw[FieldTimestamp]),
		}
	}
	rec.Timestamp = ts.Format(TimestampLayout)
	rec.Date = ts.Format(DateLayout)

	tempF, err := parseFloat(raw[FieldTemperature])
	if err != nil {
		return CanonicalRecord{}, &Drop{
			StationID: stationID,
			Reason:    DropInvalidTemperature,
			Detail:    fmt.Sprintf("invalid temperature value: %q", raw[FieldTemperature]),
		}
	}
	rec.Temperature = Float64(FahrenheitToCelsius(tempF))

	rec.Humidity = parseOptionalFloat(raw, FieldHumidity)
	rec.WindSpeed = parseOptionalFloat(raw, FieldWindSpeed)
	if p := parseOptionalFloat(raw, FieldPrecipitation); p != nil {
		rec.Precipitation = *p
	}

	return rec, nil
}

// FahrenheitToCelsius converts and rounds to two decimal places.
func FahrenheitToCelsius(f float64) float64 {
	return roundTo((f-32)*5/9, 2)
}

func normalizeStationName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// parseFloat accepts surrounding whitespace, like most CSV producers emit.
// Hex notation is rejected. Magnitudes beyond float64 parse as ±Inf so the
// validator, not the parser, reports them.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if digits := strings.TrimLeft(s, "+-"); len(digits) > 1 && (digits[:2] == "0x" || digits[:2] == "0X") {
		return 0, fmt.Errorf("hex notation not accepted: %q", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		return v, nil
	}
	return v, err
}

// parseOptionalFloat returns nil when the field is absent, empty or not a number.
func parseOptionalFloat(raw RawRecord, field string) *float64 {
	s := raw[field]
	if s == "" {
		return nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return nil
	}
	return &v
}

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
