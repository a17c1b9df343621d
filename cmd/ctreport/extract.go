package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/a3tai/ctreport-extractor/internal/batch"
	"github.com/a3tai/ctreport-extractor/internal/config"
	"github.com/a3tai/ctreport-extractor/internal/pdf"
	"github.com/a3tai/ctreport-extractor/internal/summary"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [root]",
		Short: "Process every report PDF under a directory and write the CSV export",
		Long: `Recursively finds *.pdf files (any case) under root, extracts each report and
writes one CSV row per unique patient and scan to <root>/StratX_Results unless
--output-dir is set. A status summary and completeness analysis follow.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExtract,
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		if err := cmd.Flags().Set(config.KeyRoot, args[0]); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.IsDebug() {
		log.Debug("Starting with configuration", "config", cfg.String())
	}

	opts, err := runnerOptions(cfg, time.Now())
	if err != nil {
		return err
	}

	reader := pdf.NewReader(pdf.Options{
		MaxFileSize: cfg.MaxFileSize,
		Mode:        pdf.TextMode(cfg.TextMode),
		Probe:       cfg.ProbeWithPDFCPU,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := batch.NewRunner(opts, reader, log).Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Extracted data saved to: %s\n", res.OutputPath)
	if res.CleanPath != "" {
		fmt.Fprintf(out, "Cleaned data saved to: %s\n", res.CleanPath)
	}
	if res.ManifestPath != "" {
		fmt.Fprintf(out, "Manifest saved to: %s\n", res.ManifestPath)
	}
	fmt.Fprintln(out)

	return summary.Build(res.Records, res.Discovered, len(res.Duplicates)).Write(out)
}

// runnerOptions maps configuration onto a batch run started at now
func runnerOptions(cfg *config.Config, now time.Time) (batch.Options, error) {
	policy, err := batch.ParsePolicy(cfg.DuplicatePolicy)
	if err != nil {
		return batch.Options{}, err
	}
	return batch.Options{
		Root:            cfg.RootDir,
		OutputDir:       cfg.ResolvedOutputDir(),
		OutputFile:      cfg.OutputFileName(now),
		IncludeLocation: cfg.IncludeLocation,
		BOM:             cfg.WriteBOM,
		Clean:           cfg.WriteClean,
		Manifest:        cfg.WriteManifest,
		MetricsFile:     cfg.MetricsFile,
		Policy:          policy,
	}, nil
}
