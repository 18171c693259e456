package fileutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
	"github.com/spf13/afero"
)

// GetFileExtension extracts the file extension from a path, or empty string if none
func GetFileExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	// Remove the leading dot
	return strings.TrimPrefix(ext, ".")
}

// EnsureDir creates dir joined with path on fs if it does not exist yet.
func EnsureDir(fs afero.Fs, dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	target := filepath.Join(targetPath...)
	if err := fs.MkdirAll(target, 0o755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}
