package summary

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/ctreport-extractor/internal/report"
)

func record(site string, status report.Status, complete bool) report.Record {
	panel := report.NewPanel([]float64{1, 2, 3, 4, 5, 6})
	rec := report.Record{
		Location: report.Location{Site: site, Folder: "f"},
		Header: report.Header{
			FileName:   "x.pdf",
			PatientID:  "P1",
			UploadDate: "Jan. 5, 2024",
			ScanID:     "1",
			ReportDate: "Jan. 6, 2024",
			CTScanDate: "Jan. 3, 2024",
			Status:     status,
			Vendor:     report.VendorStratX,
		},
		Panels: report.Panels{
			report.PanelFissureCompleteness: panel,
			report.PanelVoxelDensity910:     panel,
			report.PanelVoxelDensity950:     panel,
			report.PanelInspiratoryVolume:   panel,
		},
	}
	if !complete {
		rec.CTScanDate = ""
	}
	return rec
}

func TestBuild(t *testing.T) {
	withComment := record("Leiden", report.StatusOK, true)
	withComment.Comments = "motion"
	failed := report.ReadFailed("bad.pdf", report.Location{}, nil)

	records := []report.Record{
		withComment,
		record("Leiden", report.StatusWarning, false),
		record("Oslo", report.StatusNotUsable, true),
		record("Oslo", report.StatusNotUsable, false),
		failed,
	}

	s := Build(records, 6, 1)

	assert.Equal(t, 6, s.Discovered)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Duplicates)

	require.Len(t, s.Statuses, len(report.StatusOrder))
	for i, st := range report.StatusOrder {
		assert.Equal(t, st, s.Statuses[i].Status)
	}
	assert.Equal(t, 1, s.Count(report.StatusOK))
	assert.Equal(t, 1, s.Count(report.StatusWarning))
	assert.Equal(t, 2, s.Count(report.StatusNotUsable))
	assert.Equal(t, 0, s.Count(report.StatusParseFailed))
	assert.Equal(t, 1, s.Count(report.StatusReadFailed))

	assert.Equal(t, 4, s.Vendors[report.VendorStratX])
	assert.Equal(t, 1, s.Vendors[report.VendorUnknown])

	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 3, s.Incomplete)
	assert.Equal(t, 1, s.WithComments)

	require.Len(t, s.Sites, 3)
	assert.Equal(t, NoSite, s.Sites[0].Site)
	assert.Equal(t, SiteStats{Site: "Leiden", Total: 2, Warnings: 1, Complete: 1, Percent: 50}, s.Sites[1])
	assert.Equal(t, SiteStats{Site: "Oslo", Total: 2, NotUsable: 2, Complete: 1, Percent: 50}, s.Sites[2])

	cols := map[string]ColumnStats{}
	for _, c := range s.Columns {
		cols[c.Column] = c
	}
	assert.NotContains(t, cols, report.ColumnComments)
	assert.Equal(t, 5, cols[report.ColumnFileName].Filled)
	assert.InDelta(t, 100.0, cols[report.ColumnStatus].Percent, 0.001)
	assert.Equal(t, 2, cols[report.ColumnCTScanDate].Filled)
	assert.InDelta(t, 40.0, cols[report.ColumnCTScanDate].Percent, 0.001)
	assert.InDelta(t, 80.0, cols[report.PanelColumn(report.PanelInspiratoryVolume, report.RegionLLL)].Percent, 0.001)
}

func TestBuild_Empty(t *testing.T) {
	s := Build(nil, 0, 0)
	assert.Zero(t, s.Total)
	assert.Len(t, s.Statuses, len(report.StatusOrder))
	assert.Empty(t, s.Sites)
	for _, c := range s.Columns {
		assert.Zero(t, c.Percent)
	}
}

func TestWriteStatus(t *testing.T) {
	s := Build([]report.Record{
		record("A", report.StatusOK, true),
		record("A", report.StatusOK, true),
		record("A", report.StatusWarning, true),
	}, 3, 0)

	var buf bytes.Buffer
	require.NoError(t, s.WriteStatus(&buf))
	out := buf.String()

	assert.Contains(t, out, "Total PDFs Processed:")
	assert.NotContains(t, out, "Duplicates")

	var order []int
	for _, st := range report.StatusOrder {
		idx := strings.Index(out, st.Label())
		require.GreaterOrEqual(t, idx, 0, st.Label())
		order = append(order, idx)
	}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i])
	}

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 2)
	assert.Regexp(t, `^Total PDFs Processed:\s+3$`, lines[1])
	assert.Regexp(t, `^No Warnings:\s+2$`, lines[2])
}

func TestWrite(t *testing.T) {
	s := Build([]report.Record{record("Leiden", report.StatusOK, true)}, 1, 2)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	out := buf.String()

	assert.Contains(t, out, "Duplicates Skipped:")
	assert.Contains(t, out, "Completeness (excluding Scan Comments)")
	assert.Contains(t, out, "Leiden")
	assert.Contains(t, out, "100.0")
	assert.Contains(t, out, "Fissure Completeness RUL")
}
