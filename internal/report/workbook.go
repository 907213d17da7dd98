package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"brokenlinks/internal/crawler"
)

const (
	sheetBad       = "Bad links"
	sheetVisited   = "Visited"
	sheetUnhandled = "Unhandled"
	sheetErrors    = "Errors"
	sheetStats     = "Stats"
)

// WriteWorkbook saves r as an xlsx workbook with one sheet per stream.
func WriteWorkbook(path string, r *crawler.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetBad); err != nil {
		return err
	}
	for _, name := range []string{sheetVisited, sheetUnhandled, sheetErrors, sheetStats} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	bad := [][]any{{"host_page", "broken_url", "status"}}
	for _, b := range r.Result.BadLinks {
		bad = append(bad, []any{string(b.Source), string(b.Target), b.Status})
	}
	visited := [][]any{{"url"}}
	for _, u := range r.Result.Visited {
		visited = append(visited, []any{string(u)})
	}
	unhandled := [][]any{{"source", "link", "normalized"}}
	for _, u := range r.Result.Unhandled {
		unhandled = append(unhandled, []any{string(u.Source), u.Raw, string(u.Target)})
	}
	errs := [][]any{{"source", "target", "kind", "status", "message"}}
	for _, e := range r.Result.Errors {
		errs = append(errs, []any{string(e.Source), e.Target, string(e.Kind), e.Status, e.Message})
	}
	stats := [][]any{
		{"run", r.RunID},
		{"seed", string(r.Seed)},
		{"started", r.StartedAt},
		{"finished", r.FinishedAt},
		{"pages visited", r.Stats.PagesVisited},
		{"unique pages", r.Stats.UniquePages},
		{"resources checked", r.Stats.ResourcesChecked},
		{"page links", r.Stats.TotalPageLinks},
		{"resource links", r.Stats.TotalResourceLinks},
		{"unhandled links", r.Stats.TotalUnhandledLinks},
		{"bad links", r.Stats.BadLinks},
		{"skipped by robots", r.Stats.SkippedByRobots},
		{"skipped by extension", r.Stats.SkippedByExtension},
		{"skipped by limit", r.Stats.SkippedByLimit},
		{"duration", r.Stats.Duration.String()},
		{"truncated", r.Stats.Truncated},
	}

	for sheet, rows := range map[string][][]any{
		sheetBad:       bad,
		sheetVisited:   visited,
		sheetUnhandled: unhandled,
		sheetErrors:    errs,
		sheetStats:     stats,
	} {
		if err := setRows(f, sheet, rows); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
