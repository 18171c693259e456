package fileutil_test

import (
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/wayback-archiver/pkg/fileutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileExtension(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"references.pdf", "pdf"},
		{"archive.tar.gz", "gz"},
		{"README", ""},
		{"/home/user/notes/links.md", "md"},
		{"page.HTML", "HTML"},
		{"", ""},
		{"trailing.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, fileutil.GetFileExtension(tt.path))
		})
	}
}

func TestEnsureDir_CreatesNested(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := fileutil.EnsureDir(fs, "/reports", "2024", "06")
	require.NoError(t, err)

	exists, statErr := afero.DirExists(fs, filepath.Join("/reports", "2024", "06"))
	require.NoError(t, statErr)
	assert.True(t, exists)
}

func TestEnsureDir_ExistingDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/reports", 0o755))

	assert.Nil(t, fileutil.EnsureDir(fs, "/reports"))
}

func TestEnsureDir_ReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	err := fileutil.EnsureDir(fs, "/reports")
	require.Error(t, err)

	var fileErr *fileutil.FileError
	if assert.ErrorAs(t, err, &fileErr) {
		assert.False(t, fileErr.Retryable)
		assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
	}
}
