package report

import (
	"regexp"
	"strings"
)

// Strategy records which pass recovered a document's panels.
type Strategy string

const (
	StrategyNone    Strategy = "none"
	StrategyLabeled Strategy = "labeled"
	StrategyShape   Strategy = "shape"
)

// rowWindow is how many lines past a section marker are searched for its row
const rowWindow = 8

var (
	resultsAnchor     = regexp.MustCompile(`(?i)\bresults\b`)
	fissureMarker     = regexp.MustCompile(`(?i)%\s*fissure|fissure\s+completeness`)
	voxelMarker       = regexp.MustCompile(`(?i)voxel\s*density`)
	inspiratoryMarker = regexp.MustCompile(`(?i)inspirat`)
	thresholdHint     = regexp.MustCompile(`\b9(10|50)\b`)

	// thresholdToken is the HU label that layout mode can put on the row line
	thresholdToken = regexp.MustCompile(`(?i)-?[ \t]*9[15]0[ \t]*HU\b`)
)

// ExtractResults recovers the four panels. The labeled pass runs on the
// text after the first RESULTS token; only when it yields nothing at all
// does the shape pass run over the whole document. Results are never merged
// across passes. text must already be normalized.
func ExtractResults(text string) (Panels, Strategy) {
	if panels := extractLabeled(text); len(panels) > 0 {
		return panels, StrategyLabeled
	}
	if panels := extractByShape(text); len(panels) > 0 {
		return panels, StrategyShape
	}
	return Panels{}, StrategyNone
}

// extractLabeled finds each panel by its section marker below RESULTS.
// It may return a partial result.
func extractLabeled(text string) Panels {
	loc := resultsAnchor.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	lines := nonEmptyLines(text[loc[1]:])
	panels := Panels{}

	if at := firstMatch(lines, fissureMarker); at >= 0 {
		if r, _, ok := rowNear(lines, at); ok {
			panels[PanelFissureCompleteness] = r.Panel()
		}
	}

	extractVoxelDensity(lines, panels)

	if at := firstMatch(lines, inspiratoryMarker); at >= 0 {
		if r, _, ok := rowNear(lines, at); ok {
			panels[PanelInspiratoryVolume] = r.Panel()
		}
	}

	return panels
}

// anchoredRow is a row together with the marker line it was found under
type anchoredRow struct {
	row    Row
	marker int
	at     int
}

func extractVoxelDensity(lines []string, panels Panels) {
	var found []anchoredRow
	for _, marker := range allMatches(lines, voxelMarker) {
		if len(found) == 2 {
			break
		}
		if r, at, ok := rowNear(lines, marker); ok {
			found = append(found, anchoredRow{row: r, marker: marker, at: at})
		}
	}

	// Some layouts repeat the first row under the second marker. Keep
	// scanning for the next distinct row in the fraction range.
	if len(found) == 2 && found[0].row.Values == found[1].row.Values {
		last := found[1]
		found = found[:1]
		for i := last.at + 1; i < len(lines); i++ {
			r, ok := parseResultRow(lines[i])
			if !ok || r.Values == found[0].row.Values || !r.Within(FractionMin, FractionMax) {
				continue
			}
			found = append(found, anchoredRow{row: r, marker: last.marker, at: i})
			break
		}
	}

	switch len(found) {
	case 2:
		hu910, hu950, _ := RankVoxelDensity([]Row{found[0].row, found[1].row})
		panels[PanelVoxelDensity910] = hu910.Panel()
		panels[PanelVoxelDensity950] = hu950.Panel()
	case 1:
		if thresholdOf(lines, found[0]) == "950" {
			panels[PanelVoxelDensity950] = found[0].row.Panel()
		} else {
			panels[PanelVoxelDensity910] = found[0].row.Panel()
		}
	}
}

// thresholdOf reads a 910/950 hint from the marker line or the line after
// it, unless that line is the row itself
func thresholdOf(lines []string, a anchoredRow) string {
	candidates := []int{a.marker}
	if next := a.marker + 1; next < len(lines) && next != a.at {
		candidates = append(candidates, next)
	}
	for _, i := range candidates {
		if m := thresholdHint.FindStringSubmatch(lines[i]); m != nil {
			return "9" + m[1]
		}
	}
	return ""
}

// extractByShape classifies every six-number line of the document by
// magnitude and decimal presence.
func extractByShape(text string) Panels {
	var candidates []Row
	for _, line := range nonEmptyLines(text) {
		if r, ok := parseResultRow(line); ok {
			candidates = append(candidates, r)
		}
	}

	panels := Panels{}

	for _, r := range candidates {
		if r.Decimal && r.Within(FractionMin, FractionMax) {
			panels[PanelFissureCompleteness] = r.Panel()
			break
		}
	}

	var voxel []Row
	seen := make(map[[RegionCount]float64]bool)
	for _, r := range candidates {
		if r.Decimal || seen[r.Values] || !r.Within(FractionMin, FractionMax) {
			continue
		}
		seen[r.Values] = true
		voxel = append(voxel, r)
	}
	if hu910, hu950, ok := RankVoxelDensity(voxel); ok {
		panels[PanelVoxelDensity910] = hu910.Panel()
		panels[PanelVoxelDensity950] = hu950.Panel()
	}

	for _, r := range candidates {
		if !r.Decimal && r.Within(VolumeMin, VolumeMax) {
			panels[PanelInspiratoryVolume] = r.Panel()
			break
		}
	}

	return panels
}

// rowNear returns the first six-number row on the marker line or within
// the following rowWindow lines, with the index it was found at.
func rowNear(lines []string, marker int) (Row, int, bool) {
	for i := marker; i <= marker+rowWindow && i < len(lines); i++ {
		if r, ok := parseResultRow(lines[i]); ok {
			return r, i, true
		}
	}
	return Row{}, -1, false
}

// parseResultRow reads a row with any -910/-950 HU label removed
func parseResultRow(line string) (Row, bool) {
	return ParseRow(thresholdToken.ReplaceAllString(line, " "))
}

func firstMatch(lines []string, re *regexp.Regexp) int {
	for i, line := range lines {
		if re.MatchString(line) {
			return i
		}
	}
	return -1
}

func allMatches(lines []string, re *regexp.Regexp) []int {
	var out []int
	for i, line := range lines {
		if re.MatchString(line) {
			out = append(out, i)
		}
	}
	return out
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
