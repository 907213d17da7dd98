package crawler

import "time"

func (c *crawler) recordResourceChecked() {
	c.mu.Lock()
	c.stats.ResourcesChecked++
	c.mu.Unlock()
}

func (c *crawler) recordLink(typ LinkType) {
	c.mu.Lock()
	switch typ {
	case LinkTypePage:
		c.stats.TotalPageLinks++
	case LinkTypeResource:
		c.stats.TotalResourceLinks++
	case LinkTypeUnhandled:
		c.stats.TotalUnhandledLinks++
	}
	c.mu.Unlock()
}

func (c *crawler) recordSkip(reason skipReason) {
	c.mu.Lock()
	switch reason {
	case skipExtension:
		c.stats.SkippedByExtension++
	case skipRobots:
		c.stats.SkippedByRobots++
	case skipLimit:
		c.stats.SkippedByLimit++
	}
	c.mu.Unlock()
}

func (c *crawler) collectStats(result Result, duration time.Duration, truncated bool) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.PagesVisited = len(result.Visited)
	stats.UniquePages = c.frontier.Len()
	stats.BadLinks = len(result.BadLinks)
	stats.Duration = duration
	stats.Truncated = truncated
	return stats
}
