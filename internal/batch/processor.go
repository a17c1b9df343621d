package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/a3tai/ctreport-extractor/internal/export"
	"github.com/a3tai/ctreport-extractor/internal/pdf"
	"github.com/a3tai/ctreport-extractor/internal/report"
)

// TextSource obtains the text of one PDF.
type TextSource interface {
	Extract(path string) (*pdf.Extraction, error)
}

// Outcome is the result of processing one file.
type Outcome struct {
	File    File
	Record  report.Record
	Info    *pdf.Info
	Pages   int
	Digest  string
	Err     error
	Elapsed time.Duration
}

// Processor runs the extraction pipeline for single files.
type Processor struct {
	source TextSource
	digest bool
}

// NewProcessor creates a processor. When digest is set each source file is
// hashed for the run manifest.
func NewProcessor(source TextSource, digest bool) *Processor {
	return &Processor{source: source, digest: digest}
}

// Process turns one file into a record. It never fails: text that cannot be
// obtained, and any panic along the way, become a READ_FAILED record with
// Err set.
func (p *Processor) Process(f File) (out Outcome) {
	start := time.Now()
	out.File = f

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic while processing %s: %v", f.Name, r)
			out.Record = report.ReadFailed(f.Name, f.Location, out.Err)
		}
		out.Elapsed = time.Since(start)
	}()

	if p.digest {
		if sum, err := export.HashFile(f.Path); err == nil {
			out.Digest = sum
		}
	}

	ext, err := p.source.Extract(f.Path)
	if err == nil && ext == nil {
		err = fmt.Errorf("%s: %w", f.Name, pdf.ErrNoText)
	}
	if err != nil {
		out.Err = err
		out.Record = report.ReadFailed(f.Name, f.Location, err)
		return out
	}

	out.Info = ext.Info
	out.Pages = len(ext.Pages)

	text := ext.Text()
	if strings.TrimSpace(text) == "" {
		out.Err = fmt.Errorf("%s: %w", f.Name, pdf.ErrNoText)
		out.Record = report.ReadFailed(f.Name, f.Location, out.Err)
		return out
	}

	out.Record = report.Assemble(report.Document{
		FileName: f.Name,
		Text:     text,
		Location: f.Location,
	})
	return out
}
