// Package domain models daily weather station observations and the pure rules
// that turn raw CSV rows into validated records.
//
// # Data Source
//
// Each weather station drops one CSV file per day into the input directory. The
// file name embeds the date ("stn001_2025-01-01.csv") and the header names the
// columns:
//
//	station_id,station_name,timestamp,temperature,humidity,wind_speed,precipitation
//
// The first four columns are expected on every row; the last three are optional.
//
// # Conventions
//
// Timestamps:
//
//	Source rows use "YYYY-MM-DD HH:MM:SS" with no zone. Any other shape drops the row.
//	Canonical records carry "YYYY-MM-DDTHH:MM:SS" plus the derived "YYYY-MM-DD" date.
//
// Temperature:
//
//	Source values are read as degrees Fahrenheit and stored as Celsius,
//	(F - 32) * 5/9 rounded to two decimals: 68.0 -> 20.0, 59.0 -> 15.0.
//
// Station names:
//
//	Trimmed and upper-cased: " london " -> "LONDON".
//
// Missing values:
//
//	Humidity and wind speed become null when absent or unparseable.
//	Precipitation becomes 0.0 instead, since "no reading" at a rain gauge is
//	recorded as no rain.
//
// # Validation
//
// [Validate] applies the plausibility ranges below to every record and collects
// one diagnostic per violation. It keeps the first [MaxReportedErrors] entries
// and summarizes the rest.
//
//	temperature    -60..60 °C inclusive
//	humidity       0..100 % inclusive
//	wind speed     >= 0
//	precipitation  >= 0
package domain
