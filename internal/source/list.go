package source

import (
	"bufio"
	"bytes"
	"strings"
)

// ParseList reads one URL per line. Blank lines and lines starting with
// '#' are ignored; surrounding whitespace is trimmed.
func ParseList(data []byte) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &SourceError{Message: err.Error(), Cause: ErrCauseParseFailure}
	}
	return urls, nil
}
