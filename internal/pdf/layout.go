package pdf

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Row assembly tuning, in PDF points.
const (
	rowTolerance        = 2.0
	wordSpaceMultiplier = 0.3
	fallbackWordGap     = 3.0
)

type glyphRow struct {
	yMin, yMax float64
	glyphs     []pdf.Text
}

// LayoutText rebuilds the visible lines of a page from positioned glyphs.
// Glyphs are bucketed into rows by baseline, rows are emitted top to bottom
// and each row is read left to right with a space inserted wherever the
// horizontal gap exceeds a fraction of the font size.
func LayoutText(glyphs []pdf.Text) string {
	rows := groupIntoRows(glyphs)

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := rowText(row.glyphs); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func groupIntoRows(glyphs []pdf.Text) []glyphRow {
	var rows []glyphRow
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			continue
		}
		placed := false
		for i := range rows {
			if g.Y >= rows[i].yMin-rowTolerance && g.Y <= rows[i].yMax+rowTolerance {
				rows[i].glyphs = append(rows[i].glyphs, g)
				if g.Y < rows[i].yMin {
					rows[i].yMin = g.Y
				}
				if g.Y > rows[i].yMax {
					rows[i].yMax = g.Y
				}
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, glyphRow{yMin: g.Y, yMax: g.Y, glyphs: []pdf.Text{g}})
		}
	}

	// PDF y grows upwards: higher rows come first
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].yMax > rows[j].yMax
	})
	return rows
}

func rowText(glyphs []pdf.Text) string {
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].X < glyphs[j].X
	})

	var b strings.Builder
	var end float64
	for i, g := range glyphs {
		if i > 0 {
			threshold := wordSpaceMultiplier * g.FontSize
			if g.FontSize == 0 {
				threshold = fallbackWordGap
			}
			if g.X-end > threshold {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
		if right := g.X + g.W; right > end || i == 0 {
			end = right
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
