// Package summary computes the post-run statistics printed after an export:
// status counts, completeness analysis and per-site breakdowns.
package summary

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/a3tai/ctreport-extractor/internal/report"
)

// NoSite labels records found directly in the scan root.
const NoSite = "(root)"

// StatusCount is the number of records with one status.
type StatusCount struct {
	Status report.Status `json:"status"`
	Label  string        `json:"label"`
	Count  int           `json:"count"`
}

// SiteStats breaks records down for one site.
type SiteStats struct {
	Site      string  `json:"site"`
	Total     int     `json:"total"`
	NotUsable int     `json:"not_usable"`
	Warnings  int     `json:"warnings"`
	Complete  int     `json:"complete"`
	Percent   float64 `json:"complete_percent"`
}

// ColumnStats is the share of records with a value in one column.
type ColumnStats struct {
	Column  string  `json:"column"`
	Filled  int     `json:"filled"`
	Percent float64 `json:"percent"`
}

// Summary is the full post-run analysis.
type Summary struct {
	Discovered   int                   `json:"discovered"`
	Total        int                   `json:"total"`
	Duplicates   int                   `json:"duplicates"`
	Statuses     []StatusCount         `json:"statuses"`
	Vendors      map[report.Vendor]int `json:"vendors"`
	Complete     int                   `json:"complete"`
	Incomplete   int                   `json:"incomplete"`
	WithComments int                   `json:"with_comments"`
	Sites        []SiteStats           `json:"sites"`
	Columns      []ColumnStats         `json:"columns"`
}

// Build analyses the exported records. discovered and duplicates come from
// the batch run and are reported as given.
func Build(records []report.Record, discovered, duplicates int) *Summary {
	s := &Summary{
		Discovered: discovered,
		Total:      len(records),
		Duplicates: duplicates,
		Vendors:    make(map[report.Vendor]int),
	}

	byStatus := make(map[report.Status]int, len(report.StatusOrder))
	sites := make(map[string]*SiteStats)

	cols := completenessColumns()
	filled := make([]int, len(cols))

	for _, rec := range records {
		byStatus[rec.Status]++
		s.Vendors[rec.Vendor]++

		complete := rec.Complete()
		if complete {
			s.Complete++
		}
		if rec.HasComments() {
			s.WithComments++
		}

		site := rec.Site
		if site == "" {
			site = NoSite
		}
		st, ok := sites[site]
		if !ok {
			st = &SiteStats{Site: site}
			sites[site] = st
		}
		st.Total++
		switch rec.Status {
		case report.StatusNotUsable:
			st.NotUsable++
		case report.StatusWarning:
			st.Warnings++
		}
		if complete {
			st.Complete++
		}

		cells := rec.Cells(false)
		for i, c := range cols {
			if cells[c] != "" {
				filled[i]++
			}
		}
	}
	s.Incomplete = s.Total - s.Complete

	for _, st := range report.StatusOrder {
		s.Statuses = append(s.Statuses, StatusCount{Status: st, Label: st.Label(), Count: byStatus[st]})
	}

	for _, st := range sites {
		st.Percent = percent(st.Complete, st.Total)
		s.Sites = append(s.Sites, *st)
	}
	sort.Slice(s.Sites, func(i, j int) bool { return s.Sites[i].Site < s.Sites[j].Site })

	for i, c := range cols {
		s.Columns = append(s.Columns, ColumnStats{Column: c, Filled: filled[i], Percent: percent(filled[i], s.Total)})
	}

	return s
}

// Count returns the number of records with status st
func (s *Summary) Count(st report.Status) int {
	for _, c := range s.Statuses {
		if c.Status == st {
			return c.Count
		}
	}
	return 0
}

// completenessColumns lists the columns completeness is measured over
func completenessColumns() []string {
	all := report.Columns(false)
	out := make([]string, 0, len(all))
	for _, c := range all {
		if c != report.ColumnComments {
			out = append(out, c)
		}
	}
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// WriteStatus renders the status block: total processed, then one line per
// status in the fixed order.
func (s *Summary) WriteStatus(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Summary Report")
	fmt.Fprintf(tw, "Total PDFs Processed:\t%d\n", s.Total)
	for _, c := range s.Statuses {
		fmt.Fprintf(tw, "%s:\t%d\n", c.Label, c.Count)
	}
	if s.Duplicates > 0 {
		fmt.Fprintf(tw, "Duplicates Skipped:\t%d\n", s.Duplicates)
	}
	return tw.Flush()
}

// Write renders the status block followed by the completeness analysis.
func (s *Summary) Write(w io.Writer) error {
	if err := s.WriteStatus(w); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "\nVendors")
	for _, v := range sortedVendors(s.Vendors) {
		fmt.Fprintf(tw, "  %s\t%d\n", v, s.Vendors[v])
	}

	fmt.Fprintln(tw, "\nCompleteness (excluding Scan Comments)")
	fmt.Fprintf(tw, "  Complete Rows\t%d\n", s.Complete)
	fmt.Fprintf(tw, "  Incomplete Rows\t%d\n", s.Incomplete)
	fmt.Fprintf(tw, "  Rows with Scan Comments\t%d\n", s.WithComments)

	fmt.Fprintln(tw, "\nPer Site\tRows\tNot Usable\tWarnings\tComplete %")
	for _, st := range s.Sites {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%.1f\n", st.Site, st.Total, st.NotUsable, st.Warnings, st.Percent)
	}

	fmt.Fprintln(tw, "\nColumn Completeness\t%")
	for _, c := range s.Columns {
		fmt.Fprintf(tw, "  %s\t%.1f\n", c.Column, c.Percent)
	}

	return tw.Flush()
}

func sortedVendors(m map[report.Vendor]int) []report.Vendor {
	out := make([]report.Vendor, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
