package domain

import (
	"fmt"
	"regexp"
)

// MaxReportedErrors caps the detailed diagnostics kept in a ValidationReport.
const MaxReportedErrors = 10

// Plausible observation ranges.
const (
	MinTemperatureC = -60.0
	MaxTemperatureC = 60.0
	MinHumidity     = 0.0
	MaxHumidity     = 100.0
)

// MsgNoData is the single diagnostic reported for an empty batch.
const MsgNoData = "no data to validate"

// isoTimestampRe checks the ISO-8601 prefix produced by TransformRecord.
var isoTimestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

// Validate checks every record against every rule and never stops early, so the
// report reflects all problems in the batch. It does not modify its input.
func Validate(records []CanonicalRecord) ValidationReport {
	if len(records) == 0 {
		return ValidationReport{Valid: false, Errors: []string{MsgNoData}, Total: 1}
	}

	var diags []string
	for i := range records {
		diags = append(diags, validateRecord(i, records[i])...)
	}

	report := ValidationReport{
		Valid:  len(diags) == 0,
		Errors: diags,
		Total:  len(diags),
	}
	if len(diags) > MaxReportedErrors {
		report.Errors = append(diags[:MaxReportedErrors:MaxReportedErrors],
			fmt.Sprintf("... and %d more errors", len(diags)-MaxReportedErrors))
	}
	if report.Errors == nil {
		report.Errors = []string{}
	}
	return report
}

func validateRecord(i int, rec CanonicalRecord) []string {
	var diags []string
	prefix := recordPrefix(i, rec.StationID)

	missing := func(field string) {
		diags = append(diags, fmt.Sprintf("%s missing required field: %s", prefix, field))
	}
	if rec.StationID == "" {
		missing(FieldStationID)
	}
	if rec.StationName == nil {
		missing(FieldStationName)
	}
	if rec.Timestamp == "" {
		missing(FieldTimestamp)
	}
	if rec.Date == "" {
		missing(FieldDate)
	}
	if rec.Temperature == nil {
		missing(FieldTemperature)
	}

	if rec.Timestamp != "" && !isoTimestampRe.MatchString(rec.Timestamp) {
		diags = append(diags, fmt.Sprintf("%s has invalid timestamp format: %q", prefix, rec.Timestamp))
	}

	// Range checks are written as negated inclusive bounds so NaN fails them.
	if t := rec.Temperature; t != nil && !(*t >= MinTemperatureC && *t <= MaxTemperatureC) {
		diags = append(diags, fmt.Sprintf("%s has invalid temperature: %g", prefix, *t))
	}
	if h := rec.Humidity; h != nil && !(*h >= MinHumidity && *h <= MaxHumidity) {
		diags = append(diags, fmt.Sprintf("%s has invalid humidity: %g", prefix, *h))
	}
	if w := rec.WindSpeed; w != nil && *w < 0 {
		diags = append(diags, fmt.Sprintf("%s has negative wind speed: %g", prefix, *w))
	}
	if rec.Precipitation < 0 {
		diags = append(diags, fmt.Sprintf("%s has negative precipitation: %g", prefix, rec.Precipitation))
	}

	return diags
}

func recordPrefix(i int, stationID string) string {
	if stationID == "" {
		return fmt.Sprintf("record %d", i)
	}
	return fmt.Sprintf("record %d (station %s)", i, stationID)
}
