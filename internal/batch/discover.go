package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/ctreport-extractor/internal/pdf"
	"github.com/a3tai/ctreport-extractor/internal/report"
)

// ErrRootNotFound is returned when the scan root is missing or not a directory.
var ErrRootNotFound = errors.New("root directory not found")

// File is one discovered report.
type File struct {
	Path     string
	Name     string
	Size     int64
	Location report.Location
}

// Discover walks root and returns every file with a .pdf extension, in
// lexical path order. Files are not validated here: unreadable ones still
// need a READ_FAILED row. Directories listed in skip are not descended into.
func Discover(root string, skip ...string) ([]File, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrRootNotFound)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, absRoot)
	}

	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipped[filepath.Clean(abs)] = true
		}
	}

	var files []File
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Continue walking even if we encounter an error with a specific file
			return nil //nolint:nilerr // Intentionally continue on file errors
		}

		if info.IsDir() {
			if path != absRoot && skipped[filepath.Clean(path)] {
				return filepath.SkipDir
			}
			return nil
		}

		if !pdf.HasPDFExtension(info.Name()) {
			return nil
		}

		// Security check: ensure path is within the scanned directory
		within, err := isPathWithinDirectory(path, absRoot)
		if err != nil || !within {
			return nil //nolint:nilerr // Skip files that escape the root
		}

		files = append(files, File{
			Path:     path,
			Name:     info.Name(),
			Size:     info.Size(),
			Location: locate(absRoot, path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return files, nil
}

// locate derives the site (first directory below root) and folder (parent
// directory name) of path. Files directly in root have no site.
func locate(root, path string) report.Location {
	loc := report.Location{Folder: filepath.Base(filepath.Dir(path))}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return loc
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 1 {
		loc.Site = parts[0]
	}
	return loc
}

// isPathWithinDirectory checks if a path is within the specified directory
func isPathWithinDirectory(path, directory string) (bool, error) {
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate symlinks: %w", err)
	}

	realDir, err := filepath.EvalSymlinks(directory)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate directory symlinks: %w", err)
	}

	realPath = filepath.Clean(realPath)
	realDir = filepath.Clean(realDir)

	// Add a separator to the directory to ensure exact match
	if !strings.HasSuffix(realDir, string(filepath.Separator)) {
		realDir += string(filepath.Separator)
	}

	return strings.HasPrefix(realPath, realDir), nil
}
