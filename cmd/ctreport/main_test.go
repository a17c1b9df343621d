package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/ctreport-extractor/internal/batch"
	"github.com/a3tai/ctreport-extractor/internal/config"
)

const testVersion = "1.2.3"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	output, err := execute(t, "version")
	require.NoError(t, err)

	for _, expected := range []string{
		"CT Report Extractor",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		assert.Contains(t, output, expected)
	}
}

func TestRunnerOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RootDir = "/data"
	cfg.WriteClean = true
	cfg.DuplicatePolicy = config.DuplicateLast

	opts, err := runnerOptions(cfg, time.Date(2024, 1, 6, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "/data", opts.Root)
	assert.Equal(t, filepath.Join("/data", config.DefaultOutputFolder), opts.OutputDir)
	assert.Equal(t, "StratX_Parsed_Results_20240106_103000.csv", opts.OutputFile)
	assert.True(t, opts.BOM)
	assert.True(t, opts.Clean)
	assert.Equal(t, batch.PolicyLast, opts.Policy)

	cfg.DuplicatePolicy = "newest"
	_, err = runnerOptions(cfg, time.Now())
	assert.Error(t, err)
}

func TestExtractCommand(t *testing.T) {
	root := t.TempDir()
	site := filepath.Join(root, "Leiden")
	require.NoError(t, os.MkdirAll(site, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site, "broken.pdf"), []byte("not a pdf"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(site, "notes.txt"), []byte("ignored"), 0o600))

	output, err := execute(t, "extract", root, "--log-level", "error", "--include-location", "--probe=false")
	require.NoError(t, err)
	assert.Contains(t, output, "Extracted data saved to:")
	assert.Contains(t, output, "Total PDFs Processed:")
	assert.Contains(t, output, "Failed to Read")

	matches, err := filepath.Glob(filepath.Join(root, config.DefaultOutputFolder, config.DefaultOutputPrefix+"_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "BOM by default")

	lines := strings.Split(strings.TrimSpace(string(data[3:])), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Site,Folder Name,File Name"))
	assert.True(t, strings.HasPrefix(lines[1], "Leiden,Leiden,broken.pdf"))
	assert.Contains(t, lines[1], "READ_FAILED")
}

func TestExtractCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing root", args: []string{"extract", filepath.Join(t.TempDir(), "missing"), "--log-level", "error"}},
		{name: "bad text mode", args: []string{"extract", t.TempDir(), "--text-mode", "ocr"}},
		{name: "bad duplicate policy", args: []string{"extract", t.TempDir(), "--duplicates", "newest"}},
		{name: "too many args", args: []string{"extract", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestDumpCommand(t *testing.T) {
	file := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(file, []byte("not a pdf"), 0o600))

	t.Run("json", func(t *testing.T) {
		output, err := execute(t, "dump", file, "--format", "json")
		require.NoError(t, err)

		var res map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(output), &res))
		assert.Equal(t, file, res["file"])
		assert.NotEmpty(t, res["probe_error"])
		record, ok := res["record"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "READ_FAILED", record["status"])
	})

	t.Run("yaml", func(t *testing.T) {
		output, err := execute(t, "dump", file, "--format", "yaml")
		require.NoError(t, err)
		assert.Contains(t, output, "file: "+file)
		assert.Contains(t, output, "status: READ_FAILED")
	})

	t.Run("text", func(t *testing.T) {
		output, err := execute(t, "dump", file)
		require.NoError(t, err)
		assert.Contains(t, output, "=== Record ===")
		assert.Contains(t, output, "file_name: broken.pdf")
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := execute(t, "dump", file, "--format", "xml")
		assert.Error(t, err)
	})
}
