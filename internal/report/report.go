// Package report writes the output files of a crawl.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"brokenlinks/internal/crawler"
)

// Output file names.
const (
	ResultsFile   = "results.csv"
	VisitedFile   = "visited_links.txt"
	UnhandledFile = "unhandled_links.txt"
	JSONFile      = "report.json"
	WorkbookFile  = "report.xlsx"
)

var resultsHeader = []string{"host_page", "broken_url", "status"}

// WriteAll writes the three record streams of r into dir and returns the
// paths written.
func WriteAll(dir string, r *crawler.Report) ([]string, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ResultsFile, func(w io.Writer) error { return WriteCSV(w, r.Result.BadLinks) }},
		{VisitedFile, func(w io.Writer) error { return WriteVisited(w, r.Result.Visited) }},
		{UnhandledFile, func(w io.Writer) error { return WriteUnhandled(w, r.Result.Unhandled) }},
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteCSV writes a header row followed by one row per bad link.
func WriteCSV(w io.Writer, bad []crawler.BadLink) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return err
	}
	for _, b := range bad {
		if err := cw.Write([]string{string(b.Source), string(b.Target), strconv.Itoa(b.Status)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteVisited writes one visited page URL per line.
func WriteVisited(w io.Writer, visited []crawler.URLKey) error {
	for _, u := range visited {
		if _, err := fmt.Fprintln(w, u); err != nil {
			return err
		}
	}
	return nil
}

// WriteUnhandled writes one "source<TAB>link" line per unhandled link. The raw
// link text is used so malformed references stay visible.
func WriteUnhandled(w io.Writer, links []crawler.UnhandledLink) error {
	for _, l := range links {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", l.Source, l.Raw); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON stores the whole report, stats and errors included, at path.
func WriteJSON(path string, r *crawler.Report) error {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return bw.Flush()
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
