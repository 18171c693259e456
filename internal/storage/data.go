package storage

import (
	"github.com/rohmanhakim/wayback-archiver/internal/batch"
	"github.com/rohmanhakim/wayback-archiver/pkg/hashutil"
	"github.com/rohmanhakim/wayback-archiver/pkg/urlutil"
)

// Record is one line of the run report.
type Record struct {
	RunID    string `json:"run_id"`
	URL      string `json:"url"`
	URLID    string `json:"url_id"`
	Outcome  string `json:"outcome"`
	Location string `json:"location,omitempty"`
	Cause    string `json:"cause,omitempty"`
	Status   int    `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// NewRecords flattens a run summary into report records, in input order.
func NewRecords(summary batch.Summary) []Record {
	records := make([]Record, 0, len(summary.Items))
	for _, item := range summary.Items {
		record := Record{
			RunID:   summary.RunID,
			URL:     item.Input,
			URLID:   hashutil.URLID(urlutil.CanonicalString(item.Input)),
			Outcome: string(item.Outcome),
			Detail:  item.Detail(),
		}
		if item.Result.IsArchived() {
			record.Location = item.Result.Location()
		}
		if item.Err != nil {
			record.Cause = string(item.Err.Cause)
			record.Status = item.Err.Status
		}
		records = append(records, record)
	}
	return records
}

type WriteResult struct {
	path        string
	records     int
	contentHash string
}

func NewWriteResult(path string, records int, contentHash string) WriteResult {
	return WriteResult{
		path:        path,
		records:     records,
		contentHash: contentHash,
	}
}

func (w WriteResult) Path() string {
	return w.path
}

func (w WriteResult) Records() int {
	return w.records
}

// ContentHash is the SHA-256 of the written report.
func (w WriteResult) ContentHash() string {
	return w.contentHash
}
