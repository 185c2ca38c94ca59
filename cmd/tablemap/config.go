package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/tablemap/merge"
	"github.com/tsawler/tablemap/tables"
)

// fileConfig mirrors the YAML config file. Every field is a pointer so an
// absent key leaves the built-in default untouched.
type fileConfig struct {
	Detection struct {
		BandTolerance     *float64 `yaml:"band_tolerance"`
		MinRows           *int     `yaml:"min_rows"`
		MinCols           *int     `yaml:"min_cols"`
		GapVoteFraction   *float64 `yaml:"gap_vote_fraction"`
		AlignVoteFraction *float64 `yaml:"align_vote_fraction"`
		FixCenteredText   *bool    `yaml:"fix_centered_text"`
		MergeWrappedRows  *bool    `yaml:"merge_wrapped_rows"`
		DetectSpans       *bool    `yaml:"detect_spans"`
	} `yaml:"detection"`
	Merge struct {
		BottomTolerance     *float64 `yaml:"bottom_tolerance"`
		TopTolerance        *float64 `yaml:"top_tolerance"`
		SignatureTolerance  *float64 `yaml:"signature_tolerance"`
		TrimRepeatedHeaders *bool    `yaml:"trim_repeated_headers"`
	} `yaml:"merge"`
}

// loadConfig returns the detection and merge configuration, overlaying
// values from the YAML file at path when given.
func loadConfig(path string) (tables.Config, merge.Config, error) {
	detection := tables.DefaultConfig()
	merging := merge.DefaultConfig()
	if path == "" {
		return detection, merging, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return detection, merging, fmt.Errorf("reading config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return detection, merging, fmt.Errorf("parsing config: %w", err)
	}

	d := fc.Detection
	if d.BandTolerance != nil {
		detection.BandTolerance = *d.BandTolerance
	}
	if d.MinRows != nil {
		detection.MinRows = *d.MinRows
	}
	if d.MinCols != nil {
		detection.MinCols = *d.MinCols
	}
	if d.GapVoteFraction != nil {
		detection.GapVoteFraction = *d.GapVoteFraction
	}
	if d.AlignVoteFraction != nil {
		detection.AlignVoteFraction = *d.AlignVoteFraction
	}
	if d.FixCenteredText != nil {
		detection.FixCenteredText = *d.FixCenteredText
	}
	if d.MergeWrappedRows != nil {
		detection.MergeWrappedRows = *d.MergeWrappedRows
	}
	if d.DetectSpans != nil {
		detection.DetectSpans = *d.DetectSpans
	}

	m := fc.Merge
	if m.BottomTolerance != nil {
		merging.BottomTolerance = *m.BottomTolerance
	}
	if m.TopTolerance != nil {
		merging.TopTolerance = *m.TopTolerance
	}
	if m.SignatureTolerance != nil {
		merging.SignatureTolerance = *m.SignatureTolerance
	}
	if m.TrimRepeatedHeaders != nil {
		merging.TrimRepeatedHeaders = *m.TrimRepeatedHeaders
	}
	return detection, merging, nil
}
