package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/a3tai/ctreport-extractor/internal/config"
	"github.com/a3tai/ctreport-extractor/internal/logger"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newRootCmd builds the command tree. Configuration flags are persistent so
// every subcommand resolves the same config.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ctreport",
		Short: "Extract structured data from lung CT analysis report PDFs",
		Long: `ctreport reads StratX, Thirona and LungQ lung CT analysis reports and
exports patient, scan and result panel data to CSV.

Examples:
  ctreport extract /data/trial-2024
  ctreport extract --include-location --clean --manifest /data/trial-2024
  ctreport dump report.pdf --format yaml
  ctreport serve --root /data/trial-2024`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.DefineFlags(root.PersistentFlags(), config.DefaultConfig())

	root.AddCommand(
		newExtractCmd(),
		newDumpCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves configuration for cmd and applies the build version
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if version != "dev" {
		cfg.Version = version
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Redact: cfg.RedactPatientID,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "CT Report Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
