package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// headerWindow is how far into a file the %PDF- signature may appear
const headerWindow = 1024

var pdfSignature = []byte("%PDF-")

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// HasPDFExtension reports whether name ends in .pdf, in any letter case
func HasPDFExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Validate checks that path is a readable, non-empty PDF within the size
// limit. Failures are *ReadError values wrapping one of the package
// sentinels or the underlying os error.
func (v *Validator) Validate(path string) error {
	if path == "" {
		return readError(path, "validate", fmt.Errorf("path cannot be empty"))
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		return readError(path, "validate", err)
	}

	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return err
	}

	return v.checkSignature(path)
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(path string) bool {
	return v.Validate(path) == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return readError(path, "validate", fmt.Errorf("path is a directory, not a file"))
	}

	if !HasPDFExtension(path) {
		return readError(path, "validate", ErrNotPDF)
	}

	if fileInfo.Size() == 0 {
		return readError(path, "validate", ErrEmptyFile)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return readError(path, "validate", fmt.Errorf("%w: %d bytes (max: %d bytes)",
			ErrTooLarge, fileInfo.Size(), v.maxFileSize))
	}

	return nil
}

func (v *Validator) checkSignature(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return readError(path, "validate", err)
	}
	defer f.Close()

	head := make([]byte, headerWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return readError(path, "validate", err)
	}

	if !bytes.Contains(head[:n], pdfSignature) {
		return readError(path, "validate", fmt.Errorf("%w: missing %%PDF- header", ErrNotPDF))
	}
	return nil
}
