package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/ctreport-extractor/internal/export"
	"github.com/a3tai/ctreport-extractor/internal/pdf"
	"github.com/a3tai/ctreport-extractor/internal/report"
)

const reportText = `StratX Lung Analysis Report
Patient ID %s
Scan ID %s
Upload Date: Jan. 5, 2024
CT Scan Date: Jan. 3, 2024
Report Date: Jan. 6, 2024
RESULTS
% Fissure Completeness
90 85 88 92 80 75
% Voxel Density -910 HU
20 18 22 25 19 21
% Voxel Density -950 HU
5 4 6 7 3 5
Inspiratory Volume (ml)
1500 300 400 1800 1600 1700
`

// fakeSource serves canned text by file name.
type fakeSource struct {
	mu    sync.Mutex
	texts map[string]string
	fail  map[string]error
	calls []string
}

func (f *fakeSource) Extract(path string) (*pdf.Extraction, error) {
	name := filepath.Base(path)
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if err, ok := f.fail[name]; ok {
		return nil, err
	}
	text, ok := f.texts[name]
	if !ok {
		return nil, errors.New("no fixture for " + name)
	}
	return &pdf.Extraction{Path: path, Pages: []string{text}}, nil
}

func reportFor(patient, scan string) string {
	text := strings.Replace(reportText, "%s", patient, 1)
	return strings.Replace(text, "%s", scan, 1)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o600))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "top.pdf"))
	touch(t, filepath.Join(root, "Leiden", "batch1", "b.PDF"))
	touch(t, filepath.Join(root, "Leiden", "batch1", "a.pdf"))
	touch(t, filepath.Join(root, "Groningen", "g.pdf"))
	touch(t, filepath.Join(root, "Groningen", "notes.txt"))
	touch(t, filepath.Join(root, "out", "old.pdf"))

	files, err := Discover(root, filepath.Join(root, "out"))
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"g.pdf", "a.pdf", "b.PDF", "top.pdf"}, names)

	assert.Equal(t, report.Location{Site: "Groningen", Folder: "Groningen"}, files[0].Location)
	assert.Equal(t, report.Location{Site: "Leiden", Folder: "batch1"}, files[1].Location)
	assert.Equal(t, "", files[3].Location.Site)
	assert.Equal(t, filepath.Base(root), files[3].Location.Folder)
	assert.EqualValues(t, len("%PDF-1.4\n"), files[1].Size)
}

func TestDiscover_Errors(t *testing.T) {
	tests := []struct {
		name string
		root string
	}{
		{name: "empty", root: ""},
		{name: "missing", root: filepath.Join(t.TempDir(), "nope")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Discover(tt.root)
			assert.ErrorIs(t, err, ErrRootNotFound)
		})
	}

	file := filepath.Join(t.TempDir(), "x.pdf")
	touch(t, file)
	_, err := Discover(file)
	assert.ErrorIs(t, err, ErrRootNotFound)
}

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"first", "last", "error"} {
		p, err := ParsePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, Policy(s), p)
	}
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFirst, p)

	_, err = ParsePolicy("newest")
	assert.Error(t, err)
}

func TestCollection_Policies(t *testing.T) {
	first := report.Record{Header: report.Header{FileName: "a.pdf", PatientID: "P1", ScanID: "1"}}
	second := report.Record{Header: report.Header{FileName: "b.pdf", PatientID: "P1", ScanID: "1"}}
	other := report.Record{Header: report.Header{FileName: "c.pdf", PatientID: "P2", ScanID: "1"}}

	t.Run("first", func(t *testing.T) {
		c := NewCollection(PolicyFirst)
		stored, dup, err := c.Insert(first)
		require.NoError(t, err)
		assert.True(t, stored)
		assert.Nil(t, dup)

		stored, dup, err = c.Insert(second)
		require.NoError(t, err)
		assert.False(t, stored)
		require.NotNil(t, dup)
		assert.Equal(t, Duplicate{Key: "P1_1", Kept: "a.pdf", Rejected: "b.pdf"}, *dup)

		_, _, err = c.Insert(other)
		require.NoError(t, err)

		recs := c.Records()
		require.Len(t, recs, 2)
		assert.Equal(t, "a.pdf", recs[0].FileName)
		assert.Equal(t, "c.pdf", recs[1].FileName)
		assert.Len(t, c.Duplicates(), 1)
	})

	t.Run("last", func(t *testing.T) {
		c := NewCollection(PolicyLast)
		_, _, _ = c.Insert(first)
		_, _, _ = c.Insert(other)
		stored, dup, err := c.Insert(second)
		require.NoError(t, err)
		assert.True(t, stored)
		require.NotNil(t, dup)
		assert.Equal(t, "a.pdf", dup.Rejected)

		recs := c.Records()
		require.Len(t, recs, 2)
		assert.Equal(t, "b.pdf", recs[0].FileName, "replaced in place")
	})

	t.Run("error", func(t *testing.T) {
		c := NewCollection(PolicyError)
		_, _, err := c.Insert(first)
		require.NoError(t, err)
		stored, dup, err := c.Insert(second)
		assert.ErrorIs(t, err, ErrDuplicateKey)
		assert.False(t, stored)
		assert.NotNil(t, dup)
		assert.Equal(t, 1, c.Len())
	})
}

func TestCollection_ConcurrentInsert(t *testing.T) {
	c := NewCollection(PolicyFirst)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.Insert(report.Record{Header: report.Header{FileName: "same.pdf"}})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
	assert.Len(t, c.Duplicates(), 49)
}

func TestProcessor(t *testing.T) {
	src := &fakeSource{
		texts: map[string]string{
			"ok.pdf":    reportFor("P1", "1"),
			"blank.pdf": "   \n",
		},
		fail: map[string]error{"bad.pdf": pdf.ErrNotPDF},
	}
	p := NewProcessor(src, false)

	out := p.Process(File{Path: "/r/ok.pdf", Name: "ok.pdf"})
	require.NoError(t, out.Err)
	assert.Equal(t, report.StatusOK, out.Record.Status)
	assert.Equal(t, 1, out.Pages)

	out = p.Process(File{Path: "/r/bad.pdf", Name: "bad.pdf"})
	assert.ErrorIs(t, out.Err, pdf.ErrNotPDF)
	assert.Equal(t, report.StatusReadFailed, out.Record.Status)

	out = p.Process(File{Path: "/r/blank.pdf", Name: "blank.pdf"})
	assert.ErrorIs(t, out.Err, pdf.ErrNoText)
	assert.Equal(t, report.StatusReadFailed, out.Record.Status)
}

type panicSource struct{}

func (panicSource) Extract(string) (*pdf.Extraction, error) { panic("boom") }

func TestProcessor_RecoversPanic(t *testing.T) {
	out := NewProcessor(panicSource{}, false).Process(File{Path: "/r/x.pdf", Name: "x.pdf"})
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "boom")
	assert.Equal(t, report.StatusReadFailed, out.Record.Status)
}

func newTree(t *testing.T) (string, *fakeSource) {
	t.Helper()
	root := t.TempDir()
	touch(t, filepath.Join(root, "Leiden", "b1", "a.pdf"))
	touch(t, filepath.Join(root, "Leiden", "b1", "b.pdf"))
	touch(t, filepath.Join(root, "Leiden", "b2", "broken.pdf"))
	touch(t, filepath.Join(root, "Oslo", "c.pdf"))
	src := &fakeSource{
		texts: map[string]string{
			"a.pdf": reportFor("P1", "1"),
			"b.pdf": reportFor("P1", "1"),
			"c.pdf": reportFor("P2", "7"),
		},
		fail: map[string]error{"broken.pdf": errors.New("unexpected EOF")},
	}
	return root, src
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
}

func TestRunner_Collect(t *testing.T) {
	root, src := newTree(t)
	r := NewRunner(Options{Root: root, RunID: "test", Now: fixedNow}, src, nil)

	res, err := r.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Discovered)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "a.pdf", res.Records[0].FileName)
	assert.Equal(t, "broken.pdf", res.Records[1].FileName)
	assert.Equal(t, report.StatusReadFailed, res.Records[1].Status)
	assert.Equal(t, "c.pdf", res.Records[2].FileName)
	assert.Equal(t, "Oslo", res.Records[2].Site)

	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, "b.pdf", res.Duplicates[0].Rejected)

	require.Len(t, res.Outcomes, 4)
	assert.True(t, res.Exported(res.Outcomes[0]))
	assert.False(t, res.Exported(res.Outcomes[1]))
}

func TestRunner_CollectIdempotent(t *testing.T) {
	root, src := newTree(t)
	first, err := NewRunner(Options{Root: root, RunID: "a"}, src, nil).Collect(context.Background())
	require.NoError(t, err)
	second, err := NewRunner(Options{Root: root, RunID: "b"}, src, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Records, second.Records)
}

func TestRunner_ErrorPolicyAborts(t *testing.T) {
	root, src := newTree(t)
	_, err := NewRunner(Options{Root: root, Policy: PolicyError}, src, nil).Collect(context.Background())
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestRunner_Cancelled(t *testing.T) {
	root, src := newTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(Options{Root: root}, src, nil).Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.calls)
}

func TestRunner_Run(t *testing.T) {
	root, src := newTree(t)
	outDir := filepath.Join(root, "results")
	touch(t, filepath.Join(outDir, "stale.pdf"))
	metricsFile := filepath.Join(t.TempDir(), "ctreport.prom")

	r := NewRunner(Options{
		Root:            root,
		OutputDir:       outDir,
		OutputFile:      "run.csv",
		IncludeLocation: true,
		Clean:           true,
		Manifest:        true,
		MetricsFile:     metricsFile,
		RunID:           "run-1",
		Now:             fixedNow,
	}, src, nil)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Discovered, "output directory is not scanned")

	f, err := os.Open(res.OutputPath)
	require.NoError(t, err)
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, report.Columns(true), rows[0])
	assert.Equal(t, "Leiden", rows[1][0])

	f, err = os.Open(res.CleanPath)
	require.NoError(t, err)
	cleaned, err := csv.NewReader(f).ReadAll()
	f.Close()
	require.NoError(t, err)
	assert.Len(t, cleaned, 3, "header plus two complete rows")

	m, err := export.ReadManifest(res.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "run-1", m.RunID)
	require.Len(t, m.Outputs, 2)
	assert.Len(t, m.Outputs[0].BLAKE3, 64)
	require.Len(t, m.Documents, 4)
	assert.Len(t, m.Documents[0].BLAKE3, 64)
	assert.True(t, m.Documents[0].Exported)
	assert.False(t, m.Documents[1].Exported)
	assert.Equal(t, report.StatusReadFailed, m.Documents[2].Status)
	assert.Equal(t, "unexpected EOF", m.Documents[2].Reason)
	require.Len(t, m.Duplicates, 1)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `ctreport_documents_total{run_id="run-1",status="READ_FAILED"} 1`)
	assert.Contains(t, string(prom), `ctreport_duplicates_total{run_id="run-1"} 1`)
}

func TestRunner_RunOutputDirFailure(t *testing.T) {
	root, src := newTree(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewRunner(Options{
		Root:       root,
		OutputDir:  filepath.Join(blocker, "out"),
		OutputFile: "run.csv",
	}, src, nil).Run(context.Background())
	assert.Error(t, err)
}
