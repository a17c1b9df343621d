package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/a3tai/ctreport-extractor/internal/report"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions controls the tabular export.
type CSVOptions struct {
	IncludeLocation bool
	// BOM prefixes the file with a UTF-8 byte order mark so spreadsheet
	// tools detect the encoding
	BOM bool
}

// WriteCSV writes a header row and one row per record in report column order.
func WriteCSV(w io.Writer, records []report.Record, opts CSVOptions) error {
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write byte order mark: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(report.Columns(opts.IncludeLocation)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row(opts.IncludeLocation)); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", rec.FileName, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteCSVFile creates path and writes records to it
func WriteCSVFile(path string, records []report.Record, opts CSVOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return WriteCSV(f, records, opts)
}

// CleanRecords keeps only records complete in every column except the comments.
func CleanRecords(records []report.Record) []report.Record {
	out := make([]report.Record, 0, len(records))
	for _, rec := range records {
		if rec.Complete() {
			out = append(out, rec)
		}
	}
	return out
}

// CleanPath derives the cleaned export path from the main export path
func CleanPath(path string) string {
	return strings.TrimSuffix(path, ".csv") + "_cleaned.csv"
}

// ManifestPath derives the manifest path from the main export path
func ManifestPath(path string) string {
	return strings.TrimSuffix(path, ".csv") + "_manifest.json"
}
