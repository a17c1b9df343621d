package pdf

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by ReadError.
var (
	ErrNoText    = errors.New("no text content could be extracted")
	ErrEncrypted = errors.New("document is encrypted")
	ErrNotPDF    = errors.New("file is not a PDF")
	ErrTooLarge  = errors.New("file too large")
	ErrEmptyFile = errors.New("file is empty")
)

// ReadError reports which stage of obtaining a document's text failed.
type ReadError struct {
	Path string `json:"path"`
	Op   string `json:"operation"`
	Err  error  `json:"error"`
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("pdf %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func readError(path, op string, err error) error {
	return &ReadError{Path: path, Op: op, Err: err}
}
