package export

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zeebo/blake3"

	"github.com/a3tai/ctreport-extractor/internal/report"
)

// Manifest describes one run: what was read, what was written and which
// documents collided.
type Manifest struct {
	RunID      string          `json:"run_id"`
	Root       string          `json:"root"`
	Started    time.Time       `json:"started"`
	Finished   time.Time       `json:"finished"`
	Outputs    []Output        `json:"outputs"`
	Documents  []Document      `json:"documents"`
	Duplicates []DuplicateNote `json:"duplicates,omitempty"`
}

// Output is one file written by the run.
type Output struct {
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
	BLAKE3 string `json:"blake3"`
}

// Document is one processed source file.
type Document struct {
	Path       string        `json:"path"`
	File       string        `json:"file"`
	Key        string        `json:"key"`
	Status     report.Status `json:"status"`
	Vendor     report.Vendor `json:"vendor"`
	Strategy   string        `json:"strategy"`
	Reason     string        `json:"reason,omitempty"`
	Pages      int           `json:"pages"`
	PDFVersion string        `json:"pdf_version,omitempty"`
	Encrypted  bool          `json:"encrypted,omitempty"`
	BLAKE3     string        `json:"blake3,omitempty"`
	Exported   bool          `json:"exported"`
}

// DuplicateNote records a key collision.
type DuplicateNote struct {
	Key      string `json:"key"`
	Kept     string `json:"kept"`
	Rejected string `json:"rejected"`
}

// HashFile returns the hex BLAKE3 digest of the file at path
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteManifest writes m as indented JSON
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	return &m, nil
}
