package wayback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/transport"
)

// snapshotLayout is the capture timestamp format, always UTC.
const snapshotLayout = "20060102150405"

// CheckRecent asks the snapshot index whether target has a capture newer
// than the configured cutoff. A nil result means a recent archive exists
// and target should not be submitted again; any error permits submission.
func (c *Client) CheckRecent(ctx context.Context, target ArchivableURL) *ArchiveError {
	resp, err := c.transport.Send(ctx, transport.NewRequestParam(c.checkURL(target)))
	if err != nil {
		return &ArchiveError{Cause: ErrCauseCannotCheckArchive, URL: target.String(), Message: err.Error()}
	}
	if !resp.IsSuccess() {
		return &ArchiveError{
			Cause:   ErrCauseCannotCheckArchive,
			URL:     target.String(),
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode()),
		}
	}
	return evaluateSnapshots(resp.Body(), target.String(), c.config.cutoff)
}

// checkURL appends target to the check endpoint, query-escaping it when
// the endpoint ends in a query parameter.
func (c *Client) checkURL(target ArchivableURL) string {
	endpoint := c.config.checkEndpoint
	if strings.HasSuffix(endpoint, "=") {
		return endpoint + url.QueryEscape(target.String())
	}
	return endpoint + target.String()
}

func evaluateSnapshots(body []byte, target string, cutoff time.Time) *ArchiveError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return noRecentArchive(target)
	}

	switch trimmed[0] {
	case '[':
		var rows [][]string
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return cannotCheck(target, err.Error())
		}
		return evaluateRows(rows, target, cutoff)
	case '{':
		var legacy availabilityResponse
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return cannotCheck(target, err.Error())
		}
		return evaluateAvailability(legacy, target, cutoff)
	default:
		return cannotCheck(target, "unrecognised snapshot index response")
	}
}

// evaluateRows reads the CDX row format: a header row, then one row per
// capture. Anything but exactly one capture counts as no recent archive.
func evaluateRows(rows [][]string, target string, cutoff time.Time) *ArchiveError {
	if len(rows) != 2 {
		return noRecentArchive(target)
	}

	column := 0
	for i, name := range rows[0] {
		if name == "timestamp" {
			column = i
			break
		}
	}

	record := rows[1]
	if column >= len(record) {
		return cannotCheck(target, "snapshot row has no timestamp")
	}

	fresh, err := isFresh(record[column], cutoff)
	if err != nil {
		return cannotCheck(target, err.Error())
	}
	if !fresh {
		return noRecentArchive(target)
	}
	return nil
}

// evaluateAvailability reads the older availability API shape and judges
// the record with the greatest timestamp.
func evaluateAvailability(resp availabilityResponse, target string, cutoff time.Time) *ArchiveError {
	var latest *Snapshot
	for _, snapshot := range resp.ArchivedSnapshots {
		if latest == nil || snapshot.Timestamp > latest.Timestamp {
			s := snapshot
			latest = &s
		}
	}
	if latest == nil {
		return noRecentArchive(target)
	}

	fresh, err := isFresh(latest.Timestamp, cutoff)
	if err != nil {
		return cannotCheck(target, err.Error())
	}
	if fresh && latest.Available && latest.Status == "200" {
		return nil
	}
	return noRecentArchive(target)
}

func isFresh(timestamp string, cutoff time.Time) (bool, error) {
	if len(timestamp) != len(snapshotLayout) {
		return false, fmt.Errorf("malformed snapshot timestamp %q", timestamp)
	}
	capturedAt, err := time.ParseInLocation(snapshotLayout, timestamp, time.UTC)
	if err != nil {
		return false, fmt.Errorf("malformed snapshot timestamp %q: %w", timestamp, err)
	}
	return capturedAt.After(cutoff), nil
}

func noRecentArchive(target string) *ArchiveError {
	return &ArchiveError{Cause: ErrCauseNoRecentArchive, URL: target}
}

func cannotCheck(target string, detail string) *ArchiveError {
	return &ArchiveError{Cause: ErrCauseCannotCheckArchive, URL: target, Message: detail}
}
