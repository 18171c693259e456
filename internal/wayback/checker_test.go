package wayback

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow    = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	testCutoff = testNow.AddDate(0, 0, -30)
)

const (
	freshTimestamp = "20240531000000"
	staleTimestamp = "20240222000000" // 100 days before testNow
)

func TestEvaluateSnapshots_Rows(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		cause ArchiveErrorCause
	}{
		{"fresh capture", `[["timestamp"],["` + freshTimestamp + `"]]`, ""},
		{"stale capture", `[["timestamp"],["` + staleTimestamp + `"]]`, ErrCauseNoRecentArchive},
		{"capture at cutoff", `[["timestamp"],["20240502000000"]]`, ErrCauseNoRecentArchive},
		{"one second after cutoff", `[["timestamp"],["20240502000001"]]`, ""},
		{"empty body", ``, ErrCauseNoRecentArchive},
		{"whitespace body", " \n", ErrCauseNoRecentArchive},
		{"empty array", `[]`, ErrCauseNoRecentArchive},
		{"header only", `[["timestamp"]]`, ErrCauseNoRecentArchive},
		{"several captures", `[["timestamp"],["` + freshTimestamp + `"],["` + freshTimestamp + `"]]`, ErrCauseNoRecentArchive},
		{"timestamp column located by name", `[["urlkey","timestamp"],["com,example)/","` + freshTimestamp + `"]]`, ""},
		{"malformed timestamp", `[["timestamp"],["2024-05-31"]]`, ErrCauseCannotCheckArchive},
		{"timestamp out of range", `[["timestamp"],["20241340000000"]]`, ErrCauseCannotCheckArchive},
		{"short row", `[["urlkey","timestamp"],["com,example)/"]]`, ErrCauseCannotCheckArchive},
		{"invalid json", `[["timestamp"],`, ErrCauseCannotCheckArchive},
		{"not json", `<html>busy</html>`, ErrCauseCannotCheckArchive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluateSnapshots([]byte(tt.body), "https://example.com/", testCutoff)
			if tt.cause == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.cause, err.Cause)
		})
	}
}

func TestEvaluateSnapshots_Legacy(t *testing.T) {
	snapshot := func(ts string, available bool, status string) string {
		avail := "false"
		if available {
			avail = "true"
		}
		return `{"status":"` + status + `","available":` + avail + `,"timestamp":"` + ts + `"}`
	}

	tests := []struct {
		name  string
		body  string
		cause ArchiveErrorCause
	}{
		{"fresh available", `{"archived_snapshots":{"closest":` + snapshot(freshTimestamp, true, "200") + `}}`, ""},
		{"stale available", `{"archived_snapshots":{"closest":` + snapshot(staleTimestamp, true, "200") + `}}`, ErrCauseNoRecentArchive},
		{"fresh unavailable", `{"archived_snapshots":{"closest":` + snapshot(freshTimestamp, false, "200") + `}}`, ErrCauseNoRecentArchive},
		{"fresh non-200", `{"archived_snapshots":{"closest":` + snapshot(freshTimestamp, true, "404") + `}}`, ErrCauseNoRecentArchive},
		{"greatest timestamp wins", `{"archived_snapshots":{"a":` + snapshot(staleTimestamp, true, "200") + `,"b":` + snapshot(freshTimestamp, true, "200") + `}}`, ""},
		{"no snapshots", `{"archived_snapshots":{}}`, ErrCauseNoRecentArchive},
		{"missing key", `{"url":"https://example.com/"}`, ErrCauseNoRecentArchive},
		{"malformed timestamp", `{"archived_snapshots":{"closest":` + snapshot("yesterday", true, "200") + `}}`, ErrCauseCannotCheckArchive},
		{"broken object", `{"archived_snapshots":`, ErrCauseCannotCheckArchive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluateSnapshots([]byte(tt.body), "https://example.com/", testCutoff)
			if tt.cause == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.cause, err.Cause)
		})
	}
}

func TestCheckRecent_QueryEscapesTarget(t *testing.T) {
	ft := newFakeTransport()
	ft.on(checkPrefix, respondBody(http.StatusOK, `[["timestamp"],["`+freshTimestamp+`"]]`))
	client := newTestClient(t, ft)

	target, verr := Parse("https://example.com/search?q=a&b=c")
	require.Nil(t, verr)

	err := client.CheckRecent(context.Background(), target)
	assert.Nil(t, err)

	targets := ft.targets(checkPrefix)
	require.Len(t, targets, 1)
	assert.Equal(t, checkPrefix+"https%3A%2F%2Fexample.com%2Fsearch%3Fq%3Da%26b%3Dc", targets[0])
}

func TestCheckRecent_PathStyleEndpointAppendsVerbatim(t *testing.T) {
	ft := newFakeTransport()
	ft.on("http://wayback.test/available/", respondBody(http.StatusOK, `[]`))
	cfg, err := DefaultClientConfig().
		WithArchiveEndpoint(archivePrefix).
		WithCheckEndpoint("http://wayback.test/available/").
		WithClock(func() time.Time { return testNow }).
		Build()
	require.NoError(t, err)
	client := NewClientWithTransport(cfg, ft, nil)

	target, _ := Parse("https://example.com/x")
	checkErr := client.CheckRecent(context.Background(), target)

	require.NotNil(t, checkErr)
	assert.True(t, errors.Is(checkErr, ErrNoRecentArchive))
	assert.Equal(t, []string{"http://wayback.test/available/https://example.com/x"}, ft.targets("http://wayback.test/available/"))
}

func TestCheckRecent_NonSuccessStatus(t *testing.T) {
	ft := newFakeTransport()
	ft.on(checkPrefix, respondBody(http.StatusServiceUnavailable, ""))
	client := newTestClient(t, ft)

	target, _ := Parse("https://example.com/")
	err := client.CheckRecent(context.Background(), target)

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrCannotCheckArchive))
	assert.True(t, strings.Contains(err.Error(), "503"))
}

func TestCheckRecent_TransportFailure(t *testing.T) {
	ft := newFakeTransport()
	ft.on(checkPrefix, respondError())
	client := newTestClient(t, ft)

	target, _ := Parse("https://example.com/")
	err := client.CheckRecent(context.Background(), target)

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrCannotCheckArchive))
}
