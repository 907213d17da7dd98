package crawler

import (
	"fmt"
	"time"
)

func (c *crawler) recordError(err Error) {
	c.results.RecordError(err)
}

// recordFailure keeps the cause of a failed fetch, which the bad-link record
// itself loses once it collapses to a status code.
func (c *crawler) recordFailure(referrers []URLKey, out Outcome) {
	var source URLKey
	if len(referrers) > 0 {
		source = referrers[0]
	}
	msg := fmt.Sprintf("status %d", out.Status)
	if out.Err != nil {
		msg = out.Err.Error()
	}
	c.logger.Debug("bad link", "url", out.URL, "status", out.Status, "referrers", len(referrers), "reason", msg)
	c.recordError(Error{
		Source:  source,
		Target:  string(out.URL),
		Kind:    outcomeKind(out.Status),
		Message: msg,
		Status:  out.Status,
		cause:   out.Err,
	})
}

func (c *crawler) buildReport(started, finished time.Time, truncated bool) *Report {
	result := c.results.Finalize()
	return &Report{
		RunID:      c.runID,
		Seed:       c.start,
		Result:     result,
		Stats:      c.collectStats(result, finished.Sub(started), truncated),
		StartedAt:  started,
		FinishedAt: finished,
	}
}
