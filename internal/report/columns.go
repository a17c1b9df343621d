package report

// Export column names that are not panel cells.
const (
	ColumnSite       = "Site"
	ColumnFolder     = "Folder Name"
	ColumnFileName   = "File Name"
	ColumnPatientID  = "Patient ID"
	ColumnUploadDate = "Upload Date"
	ColumnScanID     = "Scan ID"
	ColumnReportDate = "Report Date"
	ColumnCTScanDate = "CT Scan Date"
	ColumnComments   = "Scan Comments"
	ColumnStatus     = "Scan Status"
)

var headerColumns = []string{
	ColumnFileName,
	ColumnPatientID,
	ColumnUploadDate,
	ColumnScanID,
	ColumnReportDate,
	ColumnCTScanDate,
	ColumnComments,
	ColumnStatus,
}

// PanelColumn names the export column of one panel region
func PanelColumn(panel PanelName, region Region) string {
	return panel.Title() + " " + region.String()
}

// Columns returns the export column order. Site and Folder Name lead when
// includeLocation is set; each panel expands to six region columns.
func Columns(includeLocation bool) []string {
	cols := make([]string, 0, 2+len(headerColumns)+len(PanelOrder)*RegionCount)
	if includeLocation {
		cols = append(cols, ColumnSite, ColumnFolder)
	}
	cols = append(cols, headerColumns...)
	for _, panel := range PanelOrder {
		for _, region := range Regions() {
			cols = append(cols, PanelColumn(panel, region))
		}
	}
	return cols
}

// Row serializes the record in Columns order. Absent values are empty cells.
func (r Record) Row(includeLocation bool) []string {
	row := make([]string, 0, 2+len(headerColumns)+len(PanelOrder)*RegionCount)
	if includeLocation {
		row = append(row, r.Site, r.Folder)
	}
	row = append(row,
		r.FileName,
		r.PatientID,
		r.UploadDate,
		r.ScanID,
		r.ReportDate,
		r.CTScanDate,
		r.Comments,
		r.Status.String(),
	)
	for _, panel := range PanelOrder {
		for _, v := range r.Panels.Get(panel) {
			row = append(row, v.String())
		}
	}
	return row
}

// Cells returns the record keyed by column name, for completeness checks
func (r Record) Cells(includeLocation bool) map[string]string {
	cols := Columns(includeLocation)
	row := r.Row(includeLocation)
	out := make(map[string]string, len(cols))
	for i, c := range cols {
		out[c] = row[i]
	}
	return out
}

// Complete reports whether every exported field other than the comments is
// present. Location columns are not considered.
func (r Record) Complete() bool {
	cols := Columns(false)
	row := r.Row(false)
	for i, c := range cols {
		if c == ColumnComments {
			continue
		}
		if row[i] == "" {
			return false
		}
	}
	return true
}
