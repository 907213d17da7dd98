package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"brokenlinks/internal/crawler"
)

func sampleReport() *crawler.Report {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &crawler.Report{
		RunID: "run-1",
		Seed:  "https://example.test/",
		Result: crawler.Result{
			Visited: []crawler.URLKey{"https://example.test/", "https://example.test/a"},
			BadLinks: []crawler.BadLink{
				{Source: "https://example.test/", Target: "https://example.test/c", Status: 404},
				{Source: "https://example.test/a", Target: "https://down.test/,x", Status: crawler.NoResponse},
			},
			Unhandled: []crawler.UnhandledLink{
				{Source: "https://example.test/", Target: "mailto:team@example.test", Raw: "mailto:team@example.test"},
				{Source: "https://example.test/a", Raw: "http://[::1"},
			},
			Errors: []crawler.Error{
				{Target: "https://example.test/c", Kind: crawler.KindHTTPError, Message: "status 404", Status: 404},
			},
		},
		Stats:      crawler.Stats{PagesVisited: 2, BadLinks: 2, Duration: time.Second},
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport().Result.BadLinks))

	want := "host_page,broken_url,status\n" +
		"https://example.test/,https://example.test/c,404\n" +
		"https://example.test/a,\"https://down.test/,x\",999\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVHeaderOnlyWhenClean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "host_page,broken_url,status\n", buf.String())
}

func TestWriteVisitedAndUnhandled(t *testing.T) {
	r := sampleReport()

	var visited bytes.Buffer
	require.NoError(t, WriteVisited(&visited, r.Result.Visited))
	assert.Equal(t, "https://example.test/\nhttps://example.test/a\n", visited.String())

	var unhandled bytes.Buffer
	require.NoError(t, WriteUnhandled(&unhandled, r.Result.Unhandled))
	assert.Equal(t, "https://example.test/\tmailto:team@example.test\nhttps://example.test/a\thttp://[::1\n", unhandled.String())
}

func TestWriteAllCreatesStreams(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteAll(dir, sampleReport())
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for _, name := range []string{ResultsFile, VisitedFile, UnhandledFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
	data, err := os.ReadFile(filepath.Join(dir, ResultsFile))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", JSONFile)
	require.NoError(t, WriteJSON(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded crawler.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.Result.BadLinks, 2)
	assert.Equal(t, crawler.KindHTTPError, decoded.Result.Errors[0].Kind)
	assert.Equal(t, 2, decoded.Stats.PagesVisited)
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), WorkbookFile)
	require.NoError(t, WriteWorkbook(path, sampleReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetBad, sheetVisited, sheetUnhandled, sheetErrors, sheetStats}, f.GetSheetList())

	rows, err := f.GetRows(sheetBad)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"host_page", "broken_url", "status"}, rows[0])
	assert.Equal(t, []string{"https://example.test/", "https://example.test/c", "404"}, rows[1])

	unhandled, err := f.GetRows(sheetUnhandled)
	require.NoError(t, err)
	assert.Len(t, unhandled, 3)
}
