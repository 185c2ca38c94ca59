// Package tables reconstructs table grids from page primitives.
//
// Three detection strategies are provided, from most to least explicit:
//
//   - [BorderedDetector] - grids delimited by drawn ruling lines
//   - [SpatialDetector] - grids inferred from whitespace gaps between runs
//   - [AlignmentDetector] - grids inferred from recurring left-alignment only
//
// Detectors share one interface and are meant to run as an ordered chain:
// each call receives the page plus a [ClaimSet] of regions earlier
// detectors already claimed, so a page never yields overlapping tables from
// different strategies. A detector finding nothing returns a nil slice and
// no error; that is the normal outcome for most pages.
//
// The [Corrector] post-processes any detected grid: it merges spurious
// columns produced by centered text, folds wrapped lines back into their
// rows, and records merged-cell spans.
//
// Detector behavior is controlled by [Config]:
//
//	config := tables.DefaultConfig()
//	config.GapVoteFraction = 0.6
//	detector.Configure(config)
//
// Every tolerance is a policy parameter with a documented default, not an
// invariant; see DefaultConfig.
package tables
