package crawler

import "context"

func (c *crawler) pageWorker(ctx context.Context) {
	for {
		page, ok := c.frontier.Next(ctx)
		if !ok {
			return
		}
		c.processPage(ctx, page)
		c.frontier.Done()
	}
}

// dispatchCheck starts the status check of a resource. Checks only originate
// from page workers, so every Add happens before run waits on checksWG.
func (c *crawler) dispatchCheck(ctx context.Context, target URLKey) {
	c.checksWG.Go(func() {
		c.processResource(ctx, target)
	})
}
