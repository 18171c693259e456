package source

import (
	"strings"

	"github.com/rohmanhakim/wayback-archiver/pkg/fileutil"
)

type Format string

const (
	FormatAuto     Format = "auto"
	FormatList     Format = "list"
	FormatPDF      Format = "pdf"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name as given on the command line.
// The empty string means FormatAuto.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatList, "txt", "text":
		return FormatList, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatHTML, "htm":
		return FormatHTML, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	default:
		return "", &SourceError{Message: name, Cause: ErrCauseUnknownFormat}
	}
}

// DetectFormat picks a format from the file extension, defaulting to a
// plain URL list.
func DetectFormat(path string) Format {
	switch strings.ToLower(fileutil.GetFileExtension(path)) {
	case "pdf":
		return FormatPDF
	case "html", "htm", "xhtml":
		return FormatHTML
	case "md", "markdown":
		return FormatMarkdown
	default:
		return FormatList
	}
}
