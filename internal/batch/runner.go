package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/ctreport-extractor/internal/export"
	"github.com/a3tai/ctreport-extractor/internal/logger"
	"github.com/a3tai/ctreport-extractor/internal/observability"
	"github.com/a3tai/ctreport-extractor/internal/report"
)

const defaultDirPerm = 0o750

// Options configures a batch run.
type Options struct {
	Root string
	// OutputDir receives the export; it is never scanned for input.
	OutputDir string
	// OutputFile is the export file name inside OutputDir.
	OutputFile      string
	IncludeLocation bool
	BOM             bool
	Clean           bool
	Manifest        bool
	MetricsFile     string
	Policy          Policy
	RunID           string
	Now             func() time.Time
}

// Result summarises a finished run.
type Result struct {
	RunID        string
	Root         string
	Discovered   int
	Records      []report.Record
	Duplicates   []Duplicate
	Outcomes     []Outcome
	OutputPath   string
	CleanPath    string
	ManifestPath string
	MetricsPath  string
	Started      time.Time
	Finished     time.Time

	// owners maps each exported key to the path of the file holding it
	owners map[string]string
}

// Exported reports whether the outcome's record made it into the export
func (res *Result) Exported(o Outcome) bool {
	return res.owners[o.Record.Key()] == o.File.Path
}

// Runner drives discovery, extraction and export for one root.
type Runner struct {
	opts      Options
	processor *Processor
	metrics   *observability.Metrics
	log       *logger.Logger
}

// NewRunner creates a runner reading text through source.
func NewRunner(opts Options, source TextSource, log *logger.Logger) *Runner {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFirst
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		opts:      opts,
		processor: NewProcessor(source, opts.Manifest),
		metrics:   observability.NewMetrics(opts.RunID),
		log:       log.With("run_id", opts.RunID),
	}
}

// Metrics exposes the run's metrics
func (r *Runner) Metrics() *observability.Metrics {
	return r.metrics
}

// Collect discovers and processes every PDF under the root without writing
// anything. Documents are processed one at a time in path order, so the
// first-seen record of a key is deterministic.
func (r *Runner) Collect(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:   r.opts.RunID,
		Root:    r.opts.Root,
		Started: r.opts.Now(),
		owners:  make(map[string]string),
	}

	var skip []string
	if r.opts.OutputDir != "" {
		skip = append(skip, r.opts.OutputDir)
	}
	files, err := Discover(r.opts.Root, skip...)
	if err != nil {
		return nil, err
	}
	res.Discovered = len(files)
	r.log.Info("Discovered reports", "root", r.opts.Root, "count", len(files))

	coll := NewCollection(r.opts.Policy)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}

		out := r.processor.Process(f)
		res.Outcomes = append(res.Outcomes, out)
		r.metrics.ObserveDocument(out.Record, out.Pages, out.Elapsed)

		if out.Err != nil {
			r.log.Warn("Failed to read report", "file", f.Path, "error", out.Err)
		} else {
			r.log.Debug("Processed report",
				"file", f.Path,
				"key", out.Record.Key(),
				"status", out.Record.Status.String(),
				"vendor", string(out.Record.Vendor),
				"strategy", string(out.Record.Strategy),
			)
		}

		stored, dup, err := coll.Insert(out.Record)
		if stored {
			res.owners[out.Record.Key()] = f.Path
		}
		if dup != nil {
			r.metrics.ObserveDuplicate()
			r.log.Warn("Duplicate report key", "key", dup.Key, "kept", dup.Kept, "rejected", dup.Rejected)
		}
		if err != nil {
			return nil, err
		}
	}

	res.Records = coll.Records()
	res.Duplicates = coll.Duplicates()
	res.Finished = r.opts.Now()
	return res, nil
}

// Run collects every record and writes the export with its companions. An
// output directory that cannot be created is fatal.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res, err := r.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if r.opts.OutputDir == "" || r.opts.OutputFile == "" {
		return nil, errors.New("output directory and file name are required")
	}

	if err := os.MkdirAll(r.opts.OutputDir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", r.opts.OutputDir, err)
	}

	csvOpts := export.CSVOptions{IncludeLocation: r.opts.IncludeLocation, BOM: r.opts.BOM}
	res.OutputPath = filepath.Join(r.opts.OutputDir, r.opts.OutputFile)
	if err := export.WriteCSVFile(res.OutputPath, res.Records, csvOpts); err != nil {
		return nil, err
	}
	r.log.Info("Wrote export", "path", res.OutputPath, "rows", len(res.Records))

	outputs := []export.Output{{Path: res.OutputPath, Rows: len(res.Records)}}

	if r.opts.Clean {
		cleaned := export.CleanRecords(res.Records)
		res.CleanPath = export.CleanPath(res.OutputPath)
		if err := export.WriteCSVFile(res.CleanPath, cleaned, csvOpts); err != nil {
			return nil, err
		}
		outputs = append(outputs, export.Output{Path: res.CleanPath, Rows: len(cleaned)})
		r.log.Info("Wrote cleaned export", "path", res.CleanPath, "rows", len(cleaned))
	}

	res.Finished = r.opts.Now()
	r.metrics.ObserveRun(res.Finished.Sub(res.Started), len(res.Records), res.Finished)

	if r.opts.Manifest {
		res.ManifestPath = export.ManifestPath(res.OutputPath)
		if err := export.WriteManifest(res.ManifestPath, r.manifest(res, outputs)); err != nil {
			return nil, err
		}
		r.log.Info("Wrote manifest", "path", res.ManifestPath)
	}

	if r.opts.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.opts.MetricsFile); err != nil {
			return nil, fmt.Errorf("failed to write metrics: %w", err)
		}
		res.MetricsPath = r.opts.MetricsFile
	}

	return res, nil
}

func (r *Runner) manifest(res *Result, outputs []export.Output) *export.Manifest {
	for i := range outputs {
		if sum, err := export.HashFile(outputs[i].Path); err == nil {
			outputs[i].BLAKE3 = sum
		}
	}

	docs := make([]export.Document, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		rec := o.Record
		doc := export.Document{
			Path:     o.File.Path,
			File:     o.File.Name,
			Key:      rec.Key(),
			Status:   rec.Status,
			Vendor:   rec.Vendor,
			Strategy: string(rec.Strategy),
			Reason:   rec.Reason,
			Pages:    o.Pages,
			BLAKE3:   o.Digest,
			Exported: res.Exported(o),
		}
		if o.Info != nil {
			doc.PDFVersion = o.Info.Version
			doc.Encrypted = o.Info.Encrypted
		}
		docs = append(docs, doc)
	}

	dups := make([]export.DuplicateNote, 0, len(res.Duplicates))
	for _, d := range res.Duplicates {
		dups = append(dups, export.DuplicateNote{Key: d.Key, Kept: d.Kept, Rejected: d.Rejected})
	}

	return &export.Manifest{
		RunID:      res.RunID,
		Root:       res.Root,
		Started:    res.Started,
		Finished:   res.Finished,
		Outputs:    outputs,
		Documents:  docs,
		Duplicates: dups,
	}
}
