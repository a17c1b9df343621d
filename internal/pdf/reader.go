package pdf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextMode selects how page text is assembled.
type TextMode string

const (
	// ModeLayout rebuilds lines from glyph positions.
	ModeLayout TextMode = "layout"
	// ModePlain uses the content stream order as-is.
	ModePlain TextMode = "plain"
)

// ValidTextMode reports whether m names a supported mode
func ValidTextMode(m string) bool {
	return m == string(ModeLayout) || m == string(ModePlain)
}

// Options configures a Reader.
type Options struct {
	MaxFileSize int64
	Mode        TextMode
	// Probe runs a pdfcpu structure read before text extraction
	Probe bool
}

// Extraction is the text of one document, page by page.
type Extraction struct {
	Path  string   `json:"path"`
	Pages []string `json:"pages"`
	// Info is nil when probing is disabled or failed
	Info     *Info `json:"info,omitempty"`
	ProbeErr error `json:"-"`
}

// Text joins the pages with newlines
func (e *Extraction) Text() string {
	return strings.Join(e.Pages, "\n")
}

// Reader handles PDF file reading operations
type Reader struct {
	validator   *Validator
	mode        TextMode
	probe       bool
	maxTextSize int
}

// NewReader creates a new PDF reader with the specified constraints
func NewReader(opts Options) *Reader {
	mode := opts.Mode
	if mode == "" {
		mode = ModeLayout
	}
	return &Reader{
		validator:   NewValidator(opts.MaxFileSize),
		mode:        mode,
		probe:       opts.Probe,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
	}
}

// Mode returns the reader's text mode
func (r *Reader) Mode() TextMode {
	return r.mode
}

// ReadText returns the newline-joined text of every page of path
func (r *Reader) ReadText(path string) (string, error) {
	ext, err := r.Extract(path)
	if err != nil {
		return "", err
	}
	return ext.Text(), nil
}

// Extract validates path, optionally probes it with pdfcpu and extracts its
// per-page text. A document whose pages yield no visible text at all fails
// with ErrNoText; when the probe saw encryption the failure wraps
// ErrEncrypted as well.
func (r *Reader) Extract(path string) (*Extraction, error) {
	if err := r.validator.Validate(path); err != nil {
		return nil, err
	}

	ext := &Extraction{Path: path}
	if r.probe {
		ext.Info, ext.ProbeErr = Probe(path)
	}
	encrypted := ext.Info != nil && ext.Info.Encrypted

	pages, err := r.PageTexts(path, r.mode)
	if err != nil {
		if encrypted {
			return nil, readError(path, "extract", fmt.Errorf("%w: %w", ErrEncrypted, err))
		}
		return nil, err
	}
	ext.Pages = pages

	if strings.TrimSpace(ext.Text()) == "" {
		if encrypted {
			return nil, readError(path, "extract", fmt.Errorf("%w: %w", ErrEncrypted, ErrNoText))
		}
		return nil, readError(path, "extract", ErrNoText)
	}

	return ext, nil
}

// PageTexts opens path with ledongthuc/pdf and returns the text of every
// page in the given mode. Pages that fail to decode yield an empty string
// so page positions are preserved. Panics inside the parser are recovered
// and reported as a *ReadError.
func (r *Reader) PageTexts(path string, mode TextMode) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = readError(path, "extract", fmt.Errorf("pdf parser panic: %v", rec))
		}
	}()

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, readError(path, "open", err)
	}
	defer f.Close()

	numPages := pdfReader.NumPage()
	pages = make([]string, 0, numPages)
	totalLength := 0
	var pageErrs []error

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		content, err := pageText(page, mode)
		if err != nil {
			pageErrs = append(pageErrs, fmt.Errorf("page %d: %w", pageNum, err))
			pages = append(pages, "")
			continue
		}

		// Check if adding this content would exceed the limit
		if totalLength+len(content) > r.maxTextSize {
			remaining := r.maxTextSize - totalLength
			if remaining > 0 {
				pages = append(pages, content[:remaining])
			}
			break
		}

		pages = append(pages, content)
		totalLength += len(content)
	}

	if len(pageErrs) == numPages && numPages > 0 {
		return nil, readError(path, "extract", errors.Join(pageErrs...))
	}

	return pages, nil
}

func pageText(page pdf.Page, mode TextMode) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page decode panic: %v", rec)
		}
	}()

	if mode == ModePlain {
		return page.GetPlainText(nil)
	}
	return LayoutText(page.Content().Text), nil
}
