package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a day's input without loading it",
	Long: `Extract, transform and validate the input for a date and print a JSON
report. Nothing is written to the store.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("date", "", "date to check, YYYY-MM-DD (default today)")
}

type validateReport struct {
	Date       string                  `json:"date"`
	Extracted  int                     `json:"extracted"`
	Records    int                     `json:"records"`
	Drops      []domain.Drop           `json:"drops"`
	Validation domain.ValidationReport `json:"validation"`
	Error      string                  `json:"error,omitempty"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	cfg, logger, metrics, err := setup()
	if err != nil {
		return err
	}

	p, closeFn := pipeline.NewFromConfig(cfg, logger, metrics)
	defer closeFn()

	res := p.DryRun(cmd.Context(), cfg.InputDirectory, date)

	report := validateReport{
		Date:       res.Date,
		Extracted:  res.Extracted,
		Records:    len(res.Records),
		Drops:      res.Drops,
		Validation: res.Validation,
	}
	if report.Drops == nil {
		report.Drops = []domain.Drop{}
	}
	if res.Err != nil {
		report.Error = res.Err.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !res.Success {
		return errors.New("input is not loadable")
	}
	return nil
}

// dateFlag returns the --date value after checking its layout. Empty means
// the pipeline picks today.
func dateFlag(cmd *cobra.Command) (string, error) {
	date, err := cmd.Flags().GetString("date")
	if err != nil {
		return "", err
	}
	if date == "" {
		return "", nil
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
	}
	return date, nil
}
