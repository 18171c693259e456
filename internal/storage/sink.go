package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
	"github.com/rohmanhakim/wayback-archiver/pkg/fileutil"
	"github.com/rohmanhakim/wayback-archiver/pkg/hashutil"
	"github.com/spf13/afero"
)

/*
Responsibilities
- Persist the per-URL run report as JSON Lines
- Create the report directory when missing

Output Characteristics
- One record per input URL, in input order
- Overwrite-safe reruns: the file is replaced, never appended
*/

type Sink interface {
	Write(path string, records []Record) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	fs           afero.Fs
	metadataSink metadata.MetadataSink
}

func NewLocalSink(fs afero.Fs, metadataSink metadata.MetadataSink) LocalSink {
	return LocalSink{
		fs:           fs,
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) Write(path string, records []Record) (WriteResult, failure.ClassifiedError) {
	writeResult, err := s.write(path, records)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrPath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	return writeResult, nil
}

func (s *LocalSink) write(path string, records []Record) (WriteResult, failure.ClassifiedError) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return WriteResult{}, &StorageError{
				Message: err.Error(),
				Cause:   ErrCauseEncodeFailure,
				Path:    path,
			}
		}
	}
	content := buf.Bytes()

	contentHash, err := hashutil.HashBytes(content, hashutil.HashAlgoSHA256)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message: err.Error(),
			Cause:   ErrCauseHashComputationFailed,
			Path:    path,
		}
	}

	dir := filepath.Dir(path)
	if dirErr := fileutil.EnsureDir(s.fs, dir); dirErr != nil {
		return WriteResult{}, &StorageError{
			Message: dirErr.Error(),
			Cause:   ErrCausePathError,
			Path:    dir,
		}
	}

	if err := afero.WriteFile(s.fs, path, content, 0o644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      path,
		}
	}

	return NewWriteResult(path, len(records), contentHash), nil
}
