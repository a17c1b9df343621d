package main

import (
	"github.com/spf13/cobra"

	"github.com/a3tai/ctreport-extractor/internal/mcp"
	"github.com/a3tai/ctreport-extractor/internal/pdf"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve report extraction tools over MCP stdio",
		Long: `Speaks the Model Context Protocol on stdin/stdout. Tools:
report_extract_file, report_scan_directory and report_columns. Logs go to
stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			reader := pdf.NewReader(pdf.Options{
				MaxFileSize: cfg.MaxFileSize,
				Mode:        pdf.TextMode(cfg.TextMode),
				Probe:       cfg.ProbeWithPDFCPU,
			})

			server, err := mcp.NewServer(cfg, reader, log)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context())
		},
	}
}
