package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/ctreport-extractor/internal/batch"
	"github.com/a3tai/ctreport-extractor/internal/config"
	"github.com/a3tai/ctreport-extractor/internal/descriptions"
	"github.com/a3tai/ctreport-extractor/internal/logger"
	"github.com/a3tai/ctreport-extractor/internal/pdf"
	"github.com/a3tai/ctreport-extractor/internal/report"
	"github.com/a3tai/ctreport-extractor/internal/summary"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	source    batch.TextSource
	log       *logger.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, source batch.TextSource, log *logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("text source cannot be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		source:    source,
		log:       log,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractFileTool := mcp.NewTool(
		"report_extract_file",
		mcp.WithDescription(descriptions.ReportExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the report PDF"),
		),
	)
	s.mcpServer.AddTool(extractFileTool, s.handleExtractFile)

	scanDirectoryTool := mcp.NewTool(
		"report_scan_directory",
		mcp.WithDescription(descriptions.ReportScanDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory tree to scan (uses the configured root if empty)"),
		),
	)
	s.mcpServer.AddTool(scanDirectoryTool, s.handleScanDirectory)

	columnsTool := mcp.NewTool(
		"report_columns",
		mcp.WithDescription(descriptions.ReportColumnsDescription),
		mcp.WithBoolean("include_location",
			mcp.Description("Prefix the Site and Folder Name columns"),
		),
	)
	s.mcpServer.AddTool(columnsTool, s.handleColumns)
}

// Handler functions
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !pdf.HasPDFExtension(path) {
		return mcp.NewToolResultError(fmt.Sprintf("not a PDF file: %s", path)), nil
	}

	out := batch.NewProcessor(s.source, false).Process(batch.File{
		Path: path,
		Name: filepath.Base(path),
	})
	if out.Err != nil {
		s.log.Warn("Failed to read report", "file", path, "error", out.Err)
	}

	data, err := json.MarshalIndent(out.Record, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode record: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleScanDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	directory := s.config.RootDir // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	policy, err := batch.ParsePolicy(s.config.DuplicatePolicy)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	runner := batch.NewRunner(batch.Options{
		Root:      directory,
		OutputDir: filepath.Join(directory, config.DefaultOutputFolder),
		Policy:    policy,
	}, s.source, s.log)

	res, err := runner.Collect(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatScanResult(res)), nil
}

func (s *Server) handleColumns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeLocation := false
	if v, ok := request.GetArguments()["include_location"].(bool); ok {
		includeLocation = v
	}
	return mcp.NewToolResultText(strings.Join(report.Columns(includeLocation), "\n")), nil
}

// Formatting methods
func (s *Server) formatScanResult(res *batch.Result) string {
	if res.Discovered == 0 {
		return fmt.Sprintf("No PDF files found in directory: %s", res.Root)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Scanned %d PDF file(s) in directory: %s\n\n", res.Discovered, res.Root)

	sum := summary.Build(res.Records, res.Discovered, len(res.Duplicates))
	if err := sum.Write(&buf); err != nil {
		return fmt.Sprintf("failed to render summary: %v", err)
	}

	if len(res.Duplicates) > 0 {
		buf.WriteString("\nDuplicates:\n")
		for _, d := range res.Duplicates {
			fmt.Fprintf(&buf, "  %s kept, %s skipped\n", d.Kept, d.Rejected)
		}
	}

	return buf.String()
}

// Run serves MCP over stdio until the client disconnects. stdout belongs
// to the protocol, so server errors go through the logger.
func (s *Server) Run(_ context.Context) error {
	if s.config.IsDebug() {
		s.log.Debug("Starting report MCP server in stdio mode", "root", s.config.RootDir)
	}

	errLog := zap.NewStdLog(s.log.SugaredLogger.Desugar())
	if err := server.ServeStdio(s.mcpServer, server.WithErrorLogger(errLog)); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
