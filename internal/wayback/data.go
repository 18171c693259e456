package wayback

import (
	"net/url"
)

// ArchivableURL is a URL that passed validation. Only Validator creates it.
type ArchivableURL struct {
	url  url.URL
	host string
}

func (a ArchivableURL) URL() url.URL {
	return a.url
}

// Host is the lowercased ASCII form of the URL's host.
func (a ArchivableURL) Host() string {
	return a.host
}

func (a ArchivableURL) String() string {
	return a.url.String()
}

type ResultKind int

const (
	ResultArchived ResultKind = iota + 1
	ResultRecentArchiveExists
)

// ArchiveResult is the outcome of a successful ArchiveURL call: either the
// URL was archived, or a fresh snapshot already existed.
type ArchiveResult struct {
	kind     ResultKind
	location string
}

func Archived(location string) ArchiveResult {
	return ArchiveResult{kind: ResultArchived, location: location}
}

func RecentArchiveExists() ArchiveResult {
	return ArchiveResult{kind: ResultRecentArchiveExists}
}

func (r ArchiveResult) Kind() ResultKind {
	return r.kind
}

// Location is the archived location; empty unless Kind is ResultArchived.
func (r ArchiveResult) Location() string {
	return r.location
}

func (r ArchiveResult) IsArchived() bool {
	return r.kind == ResultArchived
}

func (r ArchiveResult) String() string {
	switch r.kind {
	case ResultArchived:
		return "archived: " + r.location
	case ResultRecentArchiveExists:
		return "recent archive exists"
	default:
		return "unknown"
	}
}

// Snapshot is one capture record from the legacy availability response.
// CDX rows only carry the timestamp.
type Snapshot struct {
	Status    string `json:"status"`
	Available bool   `json:"available"`
	Timestamp string `json:"timestamp"`
}

type availabilityResponse struct {
	ArchivedSnapshots map[string]Snapshot `json:"archived_snapshots"`
}
