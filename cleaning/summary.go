package cleaning

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/agriclean/pkg/errors"
)

// Summary is the serializable digest of a Result written next to the cleaned
// dataset.
type Summary struct {
	RunID          string  `yaml:"run_id"`
	Rows           int     `yaml:"rows"`
	DuplicateRatio float64 `yaml:"duplicate_ratio"`
	DurationMs     int64   `yaml:"duration_ms"`

	Imputation  ImputationSummary   `yaml:"imputation"`
	IQROutliers map[string]int      `yaml:"iqr_outliers"`
	Corrections []CorrectionSummary `yaml:"corrections"`
	// Remaining lists range violations still present after correction.
	Remaining map[string]int `yaml:"remaining_out_of_range"`
}

// ImputationSummary digests the imputation step.
type ImputationSummary struct {
	Skipped       bool            `yaml:"skipped"`
	Columns       []string        `yaml:"columns,omitempty"`
	MissingBefore map[string]int  `yaml:"missing_before,omitempty"`
	SelectedK     int             `yaml:"selected_k,omitempty"`
	SampleRows    int             `yaml:"sample_rows,omitempty"`
	MSE           map[int]float64 `yaml:"mse_by_k,omitempty"`
	SanityMSE     *float64        `yaml:"sanity_mse,omitempty"`
}

// CorrectionSummary digests one corrected column.
type CorrectionSummary struct {
	Column    string  `yaml:"column"`
	Median    float64 `yaml:"median"`
	Corrected int     `yaml:"corrected"`
}

// Summary builds the digest of r.
func (r *Result) Summary() Summary {
	s := Summary{
		RunID:          r.RunID,
		Rows:           r.Sensor.NumRows(),
		DuplicateRatio: r.DuplicateRatio,
		DurationMs:     r.Duration.Milliseconds(),
		IQROutliers:    make(map[string]int, len(r.IQR)),
		Remaining:      make(map[string]int),
	}

	if imp := r.Imputation; imp != nil {
		s.Imputation = ImputationSummary{
			Skipped:       imp.Skipped,
			Columns:       imp.Columns,
			MissingBefore: imp.MissingBefore,
			SelectedK:     imp.SelectedK,
		}
		if tr := imp.Tuning; tr != nil {
			s.Imputation.SampleRows = tr.SampleRows
			s.Imputation.MSE = make(map[int]float64, len(tr.Errors))
			for _, ke := range tr.Errors {
				s.Imputation.MSE[ke.K] = ke.MSE
			}
			if tr.SanityChecked {
				v := tr.SanityMSE
				s.Imputation.SanityMSE = &v
			}
		}
	}

	for _, q := range r.IQR {
		s.IQROutliers[q.Column] = q.Outliers
	}
	for _, c := range r.Corrections {
		s.Corrections = append(s.Corrections, CorrectionSummary{Column: c.Column, Median: c.Median, Corrected: c.Corrected})
	}
	for _, c := range r.RangesAfter.Checks {
		if c.Present && c.OutOfRange > 0 {
			s.Remaining[c.Column] = c.OutOfRange
		}
	}
	return s
}

// WriteSummary writes the digest of r as YAML.
func (r *Result) WriteSummary(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.Summary()); err != nil {
		return errors.Wrap(err, "encode summary")
	}
	return errors.Wrap(enc.Close(), "encode summary")
}
