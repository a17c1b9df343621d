package report

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const (
	// identifierChars is the value charset accepted for patient and scan ids
	identifierChars = `A-Za-z0-9._\-/+`

	// monthPattern matches an English month name or abbreviation, optionally
	// followed by a dot
	monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

	// datePattern is the textual "Month. D, YYYY" shape used by every vendor
	datePattern = `\b` + monthPattern + `[ \t]+\d{1,2},[ \t]*\d{4}\b`

	stitchLineLimit   = 4
	scanIDSearchLimit = 500
)

var (
	patientIDLabeled = regexp.MustCompile(`(?i)\bpatient[ \t]?(?:identifier|id)\b[ \t]*[:#]?[ \t]*([` + identifierChars + `]+)`)
	scanIDLabeled    = regexp.MustCompile(`(?i)\bscan[ \t]?(?:identifier|id)\b[ \t]*[:#]?[ \t]*([` + identifierChars + `]+)`)

	// anchors for labels that may be split across a line break
	patientIDAnchor = regexp.MustCompile(`(?i)\bpatient\s*(?:identifier|id)\b`)
	scanIDAnchor    = regexp.MustCompile(`(?i)\bscan\s*(?:identifier|id)\b`)

	// headerLabel ends a stitched identifier at the next header field
	headerLabel = regexp.MustCompile(`(?i)\b(?:(?:patient|scan)\s*(?:identifier|id)|(?:upload|report|(?:ct\s+)?scan)\s+date|(?:scan\s+)?comments?)\b`)

	uploadDateLabeled = regexp.MustCompile(`(?i)\bupload\s+date\b\s*:?\s*(` + datePattern + `)`)
	reportDateLabeled = regexp.MustCompile(`(?i)\breport\s+date\b\s*:?\s*(` + datePattern + `)`)
	ctScanDateLabeled = regexp.MustCompile(`(?i)\b(?:ct\s+)?scan\s+date\b\s*:?\s*(` + datePattern + `)`)
	anyDate           = regexp.MustCompile(`(?i)` + datePattern)

	commentsLabel = regexp.MustCompile(`(?im)(?:\bscan\s+comments?\b|^[ \t]*comments?\b)[ \t]*:?`)
	commentsStop  = regexp.MustCompile(`(?i)\b(?:summary|results|key|fissure\s+completeness)\b`)

	identifierToken = regexp.MustCompile(`[` + identifierChars + `]+`)
	hyphenWrap      = regexp.MustCompile(`-[ \t]*\n[ \t]*`)
	bareNumber      = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

	thironaRegionHeader = regexp.MustCompile(`RUL\s+RUL\s+\+\s+RML\s+RML\s+RLL\s+LUL\s+LLL`)
)

// labelWords are header vocabulary that is never an identifier value
var labelWords = map[string]bool{
	"patient":    true,
	"scan":       true,
	"id":         true,
	"identifier": true,
	"upload":     true,
	"report":     true,
	"date":       true,
	"ct":         true,
	"comment":    true,
	"comments":   true,
}

// fileNameBoilerplate lists tokens that never carry a patient id
var fileNameBoilerplate = map[string]bool{
	"stratx":  true,
	"lungq":   true,
	"thirona": true,
	"report":  true,
}

// Status marker phrases, matched against lowercased text
const (
	markerRejected  = "the following patient order has been rejected"
	markerNotUsable = "not usable"
	markerAttention = "attention"
)

// document is the normalized input shared by the field strategies
type document struct {
	text     string
	lower    string
	fileName string
}

// fieldStrategy recovers one header field, returning "" when it cannot
type fieldStrategy func(doc *document) string

// firstOf evaluates strategies in priority order and keeps the first hit
func firstOf(doc *document, strategies ...fieldStrategy) string {
	for _, strategy := range strategies {
		if v := strategy(doc); v != "" {
			return v
		}
	}
	return ""
}

func labeled(re *regexp.Regexp) fieldStrategy {
	return func(doc *document) string {
		m := re.FindStringSubmatch(doc.text)
		if len(m) < 2 {
			return ""
		}
		return collapseSpace(m[1])
	}
}

func labeledIdentifier(re *regexp.Regexp) fieldStrategy {
	return func(doc *document) string {
		for _, m := range re.FindAllStringSubmatch(doc.text, -1) {
			v := trimIdentifier(m[1])
			if v != "" && !labelWords[strings.ToLower(v)] {
				return v
			}
		}
		return ""
	}
}

func stitched(anchor *regexp.Regexp) fieldStrategy {
	return func(doc *document) string {
		return stitchIdentifier(doc.text, anchor)
	}
}

func fromFileName(doc *document) string {
	return PatientIDFromFileName(doc.fileName)
}

// ExtractHeader recovers the header fields and the preliminary status of a
// report. text must already be normalized. It never fails: fields that
// cannot be found are left empty.
func ExtractHeader(text, fileName string) Header {
	doc := &document{text: text, lower: strings.ToLower(text), fileName: fileName}

	h := Header{
		FileName: fileName,
		PatientID: firstOf(doc,
			labeledIdentifier(patientIDLabeled),
			stitched(patientIDAnchor),
			fromFileName,
		),
		ScanID: firstOf(doc,
			labeledIdentifier(scanIDLabeled),
			stitched(scanIDAnchor),
		),
		UploadDate: firstOf(doc, labeled(uploadDateLabeled)),
		ReportDate: firstOf(doc, labeled(reportDateLabeled)),
		CTScanDate: firstOf(doc, labeled(ctScanDateLabeled)),
		Comments:   extractComments(text),
		Vendor:     DetectVendor(text),
	}

	fillUnlabeledDates(text, &h)

	if h.ScanID == "" {
		h.ScanID = unlabeledScanID(text, h.PatientID)
	}

	h.Status = MarkerStatus(doc.lower)
	return h
}

// MarkerStatus derives the status signalled by vendor language in the
// lowercased report text. Rejection beats attention.
func MarkerStatus(lower string) Status {
	switch {
	case strings.Contains(lower, markerRejected), strings.Contains(lower, markerNotUsable):
		return StatusNotUsable
	case strings.Contains(lower, markerAttention):
		return StatusWarning
	default:
		return StatusOK
	}
}

// DetectVendor guesses which reporting software produced the text
func DetectVendor(text string) Vendor {
	lower := strings.ToLower(text)
	switch {
	case thironaRegionHeader.MatchString(text), strings.Contains(lower, "thirona"):
		return VendorThirona
	case strings.Contains(lower, "lungq"):
		return VendorLungQ
	case strings.Contains(lower, "stratx"):
		return VendorStratX
	default:
		return VendorUnknown
	}
}

// stitchIdentifier handles a label split across lines, or a value wrapped
// onto the following lines. It joins up to four non-empty lines after the
// label, stopping at the next header label, repairs hyphen line-wraps and
// returns the first id-shaped token that contains a digit.
func stitchIdentifier(text string, anchor *regexp.Regexp) string {
	loc := anchor.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	var picked []string
	for _, line := range strings.Split(text[loc[1]:], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		picked = append(picked, line)
		if len(picked) == stitchLineLimit {
			break
		}
	}

	joined := strings.Join(picked, "\n")
	if stop := headerLabel.FindStringIndex(joined); stop != nil {
		joined = joined[:stop[0]]
	}
	joined = hyphenWrap.ReplaceAllString(joined, "-")
	joined = strings.ReplaceAll(joined, "\n", " ")
	for _, tok := range identifierToken.FindAllString(joined, -1) {
		tok = trimIdentifier(tok)
		if containsDigit(tok) {
			return tok
		}
	}
	return ""
}

// PatientIDFromFileName takes the first all-digit token (two or more
// digits) of the file name stem, ignoring vendor boilerplate.
func PatientIDFromFileName(fileName string) string {
	base := filepath.Base(fileName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	fields := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})
	for _, f := range fields {
		if fileNameBoilerplate[strings.ToLower(f)] {
			continue
		}
		if len(f) >= 2 && allDigits(f) {
			return f
		}
	}
	return ""
}

// fillUnlabeledDates assigns the first three date-shaped substrings to
// upload, CT scan and report date, in that order, when the labeled pass
// left any of them empty. This is positional, not a label read: extra
// dates ahead of the header block shift every assignment.
func fillUnlabeledDates(text string, h *Header) {
	if h.UploadDate != "" && h.CTScanDate != "" && h.ReportDate != "" {
		return
	}
	dates := anyDate.FindAllString(text, -1)
	if len(dates) < 3 {
		return
	}
	targets := []*string{&h.UploadDate, &h.CTScanDate, &h.ReportDate}
	for i, target := range targets {
		if *target == "" {
			*target = collapseSpace(dates[i])
		}
	}
}

// unlabeledScanID returns the first bare integer or decimal token in the
// opening characters of the report, skipping the patient id.
func unlabeledScanID(text, patientID string) string {
	head := text
	if len(head) > scanIDSearchLimit {
		head = head[:scanIDSearchLimit]
	}
	for _, tok := range bareNumber.FindAllString(head, -1) {
		if tok != patientID {
			return tok
		}
	}
	return ""
}

// extractComments returns the free-text comment block, whitespace
// collapsed, ending at the next known section label.
func extractComments(text string) string {
	loc := commentsLabel.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if stop := commentsStop.FindStringIndex(rest); stop != nil {
		rest = rest[:stop[0]]
	}
	return collapseSpace(rest)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func trimIdentifier(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".")
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
