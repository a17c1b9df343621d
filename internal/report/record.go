package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Region is one of the six anatomical lung regions a panel reports on.
type Region int

const (
	RegionRUL Region = iota
	RegionRULRML
	RegionRML
	RegionRLL
	RegionLUL
	RegionLLL
)

// RegionCount is the fixed number of values in every panel.
const RegionCount = 6

var regionNames = [RegionCount]string{"RUL", "RUL+RML", "RML", "RLL", "LUL", "LLL"}

// String returns the region label used in export headers
func (r Region) String() string {
	if r < 0 || int(r) >= RegionCount {
		return "UNKNOWN"
	}
	return regionNames[r]
}

// Regions returns all regions in canonical order
func Regions() []Region {
	return []Region{RegionRUL, RegionRULRML, RegionRML, RegionRLL, RegionLUL, RegionLLL}
}

// PanelName identifies one of the four six-region measurement panels
type PanelName string

const (
	PanelFissureCompleteness PanelName = "FissureCompleteness"
	PanelVoxelDensity910     PanelName = "VoxelDensity910"
	PanelVoxelDensity950     PanelName = "VoxelDensity950"
	PanelInspiratoryVolume   PanelName = "InspiratoryVolume"
)

// PanelOrder is the export order of the panels.
var PanelOrder = []PanelName{
	PanelFissureCompleteness,
	PanelVoxelDensity910,
	PanelVoxelDensity950,
	PanelInspiratoryVolume,
}

// Title returns the human-readable panel title used as a column prefix
func (p PanelName) Title() string {
	switch p {
	case PanelFissureCompleteness:
		return "Fissure Completeness"
	case PanelVoxelDensity910:
		return "Voxel Density -910 HU"
	case PanelVoxelDensity950:
		return "Voxel Density -950 HU"
	case PanelInspiratoryVolume:
		return "Inspiratory Volume"
	default:
		return string(p)
	}
}

// Value is an optional numeric measurement. The zero Value is absent.
type Value struct {
	Number float64
	Valid  bool
}

// Some returns a present Value
func Some(n float64) Value {
	return Value{Number: n, Valid: true}
}

// String formats the value with the shortest exact decimal, or "" when absent
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Number, 'f', -1, 64)
}

// MarshalJSON encodes an absent value as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return []byte(v.String()), nil
}

// MarshalYAML encodes an absent value as null
func (v Value) MarshalYAML() (interface{}, error) {
	if !v.Valid {
		return nil, nil
	}
	return v.Number, nil
}

// Panel holds one value per region in canonical region order.
type Panel [RegionCount]Value

// NewPanel builds a panel from up to six values; extra values are dropped
// and missing ones stay absent.
func NewPanel(values []float64) Panel {
	var p Panel
	for i := 0; i < len(values) && i < RegionCount; i++ {
		p[i] = Some(values[i])
	}
	return p
}

// Empty reports whether every value in the panel is absent
func (p Panel) Empty() bool {
	for _, v := range p {
		if v.Valid {
			return false
		}
	}
	return true
}

// Complete reports whether every value in the panel is present
func (p Panel) Complete() bool {
	for _, v := range p {
		if !v.Valid {
			return false
		}
	}
	return true
}

// Panels maps panel names to their values.
type Panels map[PanelName]Panel

// Get returns the named panel, or an all-absent panel when missing
func (ps Panels) Get(name PanelName) Panel {
	return ps[name]
}

// Filled returns a copy holding every panel in PanelOrder, absent ones
// as all-absent sequences.
func (ps Panels) Filled() Panels {
	out := make(Panels, len(PanelOrder))
	for _, name := range PanelOrder {
		out[name] = ps[name]
	}
	return out
}

// MissingAny reports whether any required panel is entirely absent
func (ps Panels) MissingAny() bool {
	for _, name := range PanelOrder {
		if ps[name].Empty() {
			return true
		}
	}
	return false
}

// Status is the terminal classification of a processed document.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusNotUsable
	StatusParseFailed
	StatusReadFailed
)

// StatusOrder is the fixed order statuses are summarised in.
var StatusOrder = []Status{StatusOK, StatusWarning, StatusNotUsable, StatusParseFailed, StatusReadFailed}

// String returns the status code written to the export
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	case StatusNotUsable:
		return "NOT_USABLE"
	case StatusParseFailed:
		return "PARSE_FAILED"
	case StatusReadFailed:
		return "READ_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Label returns the human-readable status used in summaries
func (s Status) Label() string {
	switch s {
	case StatusOK:
		return "No Warnings"
	case StatusWarning:
		return "Warning (from PDF)"
	case StatusNotUsable:
		return "Not Usable (from PDF)"
	case StatusParseFailed:
		return "Parsing Failed"
	case StatusReadFailed:
		return "Failed to Read"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the status as its code
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status code written by MarshalText
func (s *Status) UnmarshalText(b []byte) error {
	for _, st := range StatusOrder {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// Vendor is the reporting software a document appears to come from.
type Vendor string

const (
	VendorUnknown Vendor = "Unknown"
	VendorStratX  Vendor = "StratX"
	VendorThirona Vendor = "Thirona"
	VendorLungQ   Vendor = "LungQ"
)

// Location places a document within the scanned tree.
type Location struct {
	Site   string `json:"site,omitempty" yaml:"site,omitempty"`
	Folder string `json:"folder,omitempty" yaml:"folder,omitempty"`
}

// Header is the metadata block of a report. Empty strings mean absent.
type Header struct {
	FileName   string `json:"file_name" yaml:"file_name"`
	PatientID  string `json:"patient_id,omitempty" yaml:"patient_id,omitempty"`
	UploadDate string `json:"upload_date,omitempty" yaml:"upload_date,omitempty"`
	ScanID     string `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	ReportDate string `json:"report_date,omitempty" yaml:"report_date,omitempty"`
	CTScanDate string `json:"ct_scan_date,omitempty" yaml:"ct_scan_date,omitempty"`
	Comments   string `json:"comments,omitempty" yaml:"comments,omitempty"`
	Status     Status `json:"status" yaml:"status"`
	Vendor     Vendor `json:"vendor" yaml:"vendor"`
}

// Record is one processed document, ready for export.
type Record struct {
	Location `yaml:",inline"`
	Header   `yaml:",inline"`
	Panels   Panels   `json:"panels" yaml:"panels"`
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	// Reason explains a READ_FAILED status; it is not exported as a column.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Key returns the deduplication key: "<patient>_<scan>" when both are known,
// otherwise the file name.
func (r Record) Key() string {
	if r.PatientID != "" && r.ScanID != "" {
		return r.PatientID + "_" + r.ScanID
	}
	return r.FileName
}

// HasComments reports whether the record carries a non-empty comment
func (r Record) HasComments() bool {
	return strings.TrimSpace(r.Comments) != ""
}
