package wayback

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
	"github.com/stretchr/testify/assert"
)

func TestArchiveError_Messages(t *testing.T) {
	tests := []struct {
		err  *ArchiveError
		want string
	}{
		{&ArchiveError{Cause: ErrCauseInvalidURL, URL: "example.com"}, "Invalid URL: example.com"},
		{&ArchiveError{Cause: ErrCauseExcludedURL, URL: "https://jstor.org/x"}, "Excluded URL: https://jstor.org/x"},
		{&ArchiveError{Cause: ErrCauseRequestFailed, Message: "connection refused"}, "Request failed: connection refused"},
		{&ArchiveError{Cause: ErrCauseCannotCheckArchive, Message: "bad json"}, "Failed to get archive: bad json"},
		{&ArchiveError{Cause: ErrCauseNoRecentArchive, URL: "https://example.com/"}, "No recent archive exists: https://example.com/"},
		{&ArchiveError{Cause: ErrCauseCannotArchive, Status: 520, URL: "https://example.com/"}, "Failed (520): https://example.com/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestArchiveError_IsMatchesByCause(t *testing.T) {
	err := &ArchiveError{Cause: ErrCauseCannotArchive, Status: 502, URL: "https://example.com/"}
	wrapped := fmt.Errorf("batch: %w", err)

	assert.True(t, errors.Is(wrapped, ErrCannotArchive))
	assert.False(t, errors.Is(wrapped, ErrRequestFailed))
}

func TestArchiveError_Severity(t *testing.T) {
	assert.Equal(t, failure.SeverityIgnorable, ErrInvalidURL.Severity())
	assert.Equal(t, failure.SeverityIgnorable, ErrExcludedURL.Severity())
	for _, err := range []*ArchiveError{ErrRequestFailed, ErrCannotCheckArchive, ErrNoRecentArchive, ErrCannotArchive} {
		assert.Equal(t, failure.SeverityRecoverable, err.Severity(), err.Cause)
	}
}
