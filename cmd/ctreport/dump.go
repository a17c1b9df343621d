package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/ctreport-extractor/internal/batch"
	"github.com/a3tai/ctreport-extractor/internal/pdf"
	"github.com/a3tai/ctreport-extractor/internal/report"
)

const (
	dumpFormatText = "text"
	dumpFormatJSON = "json"
	dumpFormatYAML = "yaml"
)

// dumpResult is everything known about one file, for debugging extraction.
type dumpResult struct {
	File       string        `json:"file" yaml:"file"`
	Info       *pdf.Info     `json:"info,omitempty" yaml:"info,omitempty"`
	ProbeError string        `json:"probe_error,omitempty" yaml:"probe_error,omitempty"`
	Plain      []string      `json:"plain" yaml:"plain"`
	PlainError string        `json:"plain_error,omitempty" yaml:"plain_error,omitempty"`
	Layout     []string      `json:"layout" yaml:"layout"`
	LayoutErr  string        `json:"layout_error,omitempty" yaml:"layout_error,omitempty"`
	Record     report.Record `json:"record" yaml:"record"`
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Show the extracted text and parsed record of one PDF",
		Long: `Prints the pdfcpu probe, the text of every page in both plain and layout
mode, and the record the configured text mode produces.`,
		Args: cobra.ExactArgs(1),
		RunE: runDump,
	}
	cmd.Flags().StringP("format", "f", dumpFormatText, "output format (text, json, yaml)")
	return cmd
}

func runDump(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case dumpFormatText, dumpFormatJSON, dumpFormatYAML:
	default:
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml)", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reader := pdf.NewReader(pdf.Options{
		MaxFileSize: cfg.MaxFileSize,
		Mode:        pdf.TextMode(cfg.TextMode),
		Probe:       cfg.ProbeWithPDFCPU,
	})

	res := dumpFile(reader, args[0])
	return writeDump(cmd.OutOrStdout(), res, format)
}

// dumpFile gathers probe, per-mode text and the parsed record for path.
// Failures are recorded in the result rather than returned.
func dumpFile(reader *pdf.Reader, path string) *dumpResult {
	res := &dumpResult{File: path}

	info, err := pdf.Probe(path)
	res.Info = info
	if err != nil {
		res.ProbeError = err.Error()
	}

	res.Plain, err = reader.PageTexts(path, pdf.ModePlain)
	if err != nil {
		res.PlainError = err.Error()
	}
	res.Layout, err = reader.PageTexts(path, pdf.ModeLayout)
	if err != nil {
		res.LayoutErr = err.Error()
	}

	out := batch.NewProcessor(reader, false).Process(batch.File{Path: path, Name: filepath.Base(path)})
	res.Record = out.Record
	return res
}

func writeDump(w io.Writer, res *dumpResult, format string) error {
	switch format {
	case dumpFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case dumpFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "File: %s\n", res.File)
	if res.Info != nil {
		fmt.Fprintf(w, "PDF version: %s\nPages: %d\nEncrypted: %t\n", res.Info.Version, res.Info.Pages, res.Info.Encrypted)
	}
	if res.ProbeError != "" {
		fmt.Fprintf(w, "Probe error: %s\n", res.ProbeError)
	}

	writePages(w, "plain", res.Plain, res.PlainError)
	writePages(w, "layout", res.Layout, res.LayoutErr)

	fmt.Fprintf(w, "\n=== Record ===\n")
	data, err := yaml.Marshal(res.Record)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writePages(w io.Writer, mode string, pages []string, errText string) {
	if errText != "" {
		fmt.Fprintf(w, "\n=== %s text failed: %s ===\n", mode, errText)
	}
	for i, page := range pages {
		fmt.Fprintf(w, "\n=== Page %d (%s) ===\n%s\n", i+1, mode, strings.TrimRight(page, "\n"))
	}
}
