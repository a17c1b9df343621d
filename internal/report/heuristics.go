package report

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Physiological ranges used to tell unlabeled panels apart.
const (
	FractionMin = 0.0
	FractionMax = 100.0
	VolumeMin   = 100.0
	VolumeMax   = 20000.0
)

var numberToken = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Row is the first six numeric tokens of a text line.
type Row struct {
	Values [RegionCount]float64
	// Decimal is set when any of the six tokens carried a decimal point
	Decimal bool
}

// ParseRow reads the first six numeric tokens of line. It reports false
// when the line holds fewer than six.
func ParseRow(line string) (Row, bool) {
	tokens := numberToken.FindAllString(line, -1)
	if len(tokens) < RegionCount {
		return Row{}, false
	}

	var r Row
	for i, tok := range tokens[:RegionCount] {
		n, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Row{}, false
		}
		r.Values[i] = n
		if strings.Contains(tok, ".") {
			r.Decimal = true
		}
	}
	return r, true
}

// Sum adds the six values
func (r Row) Sum() float64 {
	var total float64
	for _, v := range r.Values {
		total += v
	}
	return total
}

// Within reports whether every value lies in [lo, hi]
func (r Row) Within(lo, hi float64) bool {
	for _, v := range r.Values {
		if v < lo || v > hi {
			return false
		}
	}
	return true
}

// Panel converts the row to a fully populated panel
func (r Row) Panel() Panel {
	return NewPanel(r.Values[:])
}

// RowKind is the panel a row most plausibly belongs to, judged by shape alone.
type RowKind int

const (
	RowUnknown RowKind = iota
	RowFissure
	RowVoxelDensity
	RowVolume
)

// String returns a short name for the kind
func (k RowKind) String() string {
	switch k {
	case RowFissure:
		return "fissure"
	case RowVoxelDensity:
		return "voxel-density"
	case RowVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// ClassifyRow judges a row by magnitude and decimal presence: decimal
// fractions are fissure completeness, integer fractions are voxel density,
// integers in the millilitre range are inspiratory volume. A row of all
// 100s is reported as voxel density even though it also fits the volume
// range.
func ClassifyRow(r Row) RowKind {
	switch {
	case r.Decimal && r.Within(FractionMin, FractionMax):
		return RowFissure
	case !r.Decimal && r.Within(FractionMin, FractionMax):
		return RowVoxelDensity
	case !r.Decimal && r.Within(VolumeMin, VolumeMax):
		return RowVolume
	default:
		return RowUnknown
	}
}

// RankVoxelDensity orders two or more voxel-density rows by descending sum
// and returns the top two as the -910 HU and -950 HU panels. The less dense
// threshold captures a larger voxel fraction, so the larger sum is taken as
// -910 HU. This is a magnitude tie-break, not a label read. Equal sums keep
// input order.
func RankVoxelDensity(rows []Row) (hu910, hu950 Row, ok bool) {
	if len(rows) < 2 {
		return Row{}, Row{}, false
	}
	ranked := make([]Row, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Sum() > ranked[j].Sum()
	})
	return ranked[0], ranked[1], true
}
