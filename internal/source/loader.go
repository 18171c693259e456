package source

import (
	"io"
	"net/url"

	"github.com/spf13/afero"
)

// StdinPath names standard input as a source.
const StdinPath = "-"

/*
Loader turns input documents into candidate URL strings.

- Files are read through an afero.Fs so callers and tests pick the backing store
- The format is explicit or detected from the file extension
- Standard input defaults to the list format
- Extracted URLs are returned unvalidated and in document order
*/
type Loader struct {
	fs      afero.Fs
	stdin   io.Reader
	baseURL *url.URL
}

func NewLoader(fs afero.Fs, stdin io.Reader) *Loader {
	return &Loader{
		fs:    fs,
		stdin: stdin,
	}
}

// WithBaseURL sets the URL relative links in HTML and Markdown resolve against.
func (l *Loader) WithBaseURL(base *url.URL) *Loader {
	l.baseURL = base
	return l
}

// Load reads path (or stdin for "-") and extracts URLs using format.
func (l *Loader) Load(path string, format Format) ([]string, error) {
	data, err := l.read(path)
	if err != nil {
		return nil, err
	}

	if format == "" || format == FormatAuto {
		format = FormatList
		if path != StdinPath {
			format = DetectFormat(path)
		}
	}

	urls, err := Extract(data, format, l.baseURL)
	if err != nil {
		if sourceErr, ok := err.(*SourceError); ok {
			sourceErr.Path = path
		}
		return nil, err
	}
	return urls, nil
}

// LoadAll loads every path in order and concatenates the results.
func (l *Loader) LoadAll(paths []string, format Format) ([]string, error) {
	var all []string
	for _, path := range paths {
		urls, err := l.Load(path, format)
		if err != nil {
			return nil, err
		}
		all = append(all, urls...)
	}
	return all, nil
}

// Extract dispatches data to the extractor for format.
func Extract(data []byte, format Format, base *url.URL) ([]string, error) {
	switch format {
	case FormatList:
		return ParseList(data)
	case FormatPDF:
		return ExtractPDFLinks(data)
	case FormatHTML:
		return ExtractHTMLLinks(data, base)
	case FormatMarkdown:
		return ExtractMarkdownLinks(data, base)
	default:
		return nil, &SourceError{Message: string(format), Cause: ErrCauseUnknownFormat}
	}
}

func (l *Loader) read(path string) ([]byte, error) {
	if path == StdinPath {
		if l.stdin == nil {
			return nil, &SourceError{Message: "stdin is not available", Cause: ErrCauseReadFailure, Path: path}
		}
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, &SourceError{Message: err.Error(), Cause: ErrCauseReadFailure, Path: path}
		}
		return data, nil
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, &SourceError{Message: err.Error(), Cause: ErrCauseReadFailure, Path: path}
	}
	return data, nil
}
