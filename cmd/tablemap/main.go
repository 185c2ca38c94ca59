// Command tablemap detects tables in a document structure map and writes
// them as CSV files or an XLSX workbook.
//
// Usage:
//
//	tablemap -in report.json -out ./tables
//	tablemap -in report.json -format xlsx -pages 1,2,3 -config tablemap.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tsawler/tablemap"
	"github.com/tsawler/tablemap/export"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	in := flag.String("in", "", "structure map JSON file (required)")
	out := flag.String("out", ".", "output directory")
	format := flag.String("format", "csv", "output format: csv or xlsx")
	configPath := flag.String("config", "", "YAML config file overriding detection and merge thresholds")
	pagesFlag := flag.String("pages", "", "comma-separated page numbers, default all")
	noMerge := flag.Bool("no-merge", false, "keep cross-page tables as separate per-page tables")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return errors.New("-in is required")
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	detection, merging, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	pipeline := tablemap.Load(*in).
		WithLogger(logger).
		WithConfig(detection).
		WithMergeConfig(merging)
	if *noMerge {
		pipeline = pipeline.WithoutMerge()
	}
	if *pagesFlag != "" {
		pages, err := parsePages(*pagesFlag)
		if err != nil {
			return err
		}
		pipeline = pipeline.Pages(pages...)
	}

	found, warnings, err := pipeline.Tables()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn("processing warning",
			zap.Int("page", w.Page),
			zap.String("stage", w.Stage),
			zap.String("detail", w.Message))
	}

	switch *format {
	case "csv":
		paths, err := export.WriteCSVFiles(*out, found)
		if err != nil {
			return err
		}
		logger.Info("export complete",
			zap.Int("tables", len(found)),
			zap.Int("files", len(paths)),
			zap.String("dir", *out))
	case "xlsx":
		if err := os.MkdirAll(*out, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		path := filepath.Join(*out, "tables.xlsx")
		if err := export.WriteXLSXFile(path, found); err != nil {
			return err
		}
		logger.Info("export complete",
			zap.Int("tables", len(found)),
			zap.String("file", path))
	default:
		return fmt.Errorf("unknown format %q, want csv or xlsx", *format)
	}
	return nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func parsePages(s string) ([]int, error) {
	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid page number %q", part)
		}
		pages = append(pages, n)
	}
	if len(pages) == 0 {
		return nil, errors.New("no pages given")
	}
	return pages, nil
}
