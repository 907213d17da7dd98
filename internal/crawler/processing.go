package crawler

import (
	"bytes"
	"context"
)

func (c *crawler) processPage(ctx context.Context, page URLKey) {
	if ctx.Err() != nil {
		return
	}
	c.emitProgress(page)
	c.logger.Debug("crawling page", "url", page)

	if !c.acquireRequestSlot(ctx) {
		return
	}
	outcome, body := c.fetcher.Get(ctx, page)
	c.releaseRequestSlot()
	c.logger.Debug("fetched page", "url", page, "status", outcome.Status)

	referrers := c.checks.resolve(page, outcome.Status)
	if !outcome.OK() {
		c.recordFailure(referrers, outcome)
		return
	}

	c.results.RecordVisited(page)
	if outcome.Err != nil {
		c.recordError(Error{Target: string(page), Kind: KindParseFailure, Message: outcome.Err.Error(), Status: outcome.Status, cause: outcome.Err})
		return
	}
	if !isHTMLContent(outcome.ContentType) {
		c.logger.Debug("skipping link extraction", "url", page, "content_type", outcome.ContentType)
		return
	}

	base := page
	if outcome.FinalURL != "" && outcome.FinalURL != page {
		if typ, _ := c.classifier.classify(outcome.FinalURL); typ != LinkTypePage {
			c.logger.Debug("redirected out of scope", "url", page, "final", outcome.FinalURL)
			return
		}
		base = outcome.FinalURL
	}

	raws, err := c.extractor.ExtractLinks(bytes.NewReader(body))
	if err != nil {
		c.logger.Debug("link extraction failed", "url", page, "error", err)
		c.recordError(Error{Target: string(page), Kind: KindParseFailure, Message: err.Error(), Status: outcome.Status, cause: err})
		return
	}
	c.processLinks(ctx, page, base, raws)
}

// processLinks resolves raws against base and attributes them to page, the
// URL its referrers know it by.
func (c *crawler) processLinks(ctx context.Context, page, base URLKey, raws []string) {
	seen := make(map[URLKey]struct{}, len(raws))
	for _, raw := range raws {
		if ctx.Err() != nil {
			return
		}
		target, err := Normalize(raw, base)
		if err != nil {
			c.logger.Debug("malformed link", "page", page, "link", raw, "error", err)
			c.recordLink(LinkTypeUnhandled)
			c.results.RecordUnhandled(page, "", raw)
			c.recordError(Error{Source: page, Target: raw, Kind: KindMalformedURL, Message: err.Error(), cause: err})
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		c.handleLink(ctx, Link{Source: page, Target: target, Raw: raw})
	}
}

// handleLink routes one discovered link. Every page or resource target gets
// exactly one status check: for pages it is the crawl itself, for resources a
// separate check. Pages that cannot be crawled (robots.txt, page limit) are
// checked like resources.
func (c *crawler) handleLink(ctx context.Context, link Link) {
	typ, reason := c.classifier.classify(link.Target)
	if typ == LinkTypePage && !c.robots.allowed(ctx, link.Target) {
		typ, reason = LinkTypeResource, skipRobots
	}
	link.Type = typ
	c.recordLink(typ)
	c.logger.Debug("processing link", "page", link.Source, "link", link.Target, "type", typ)

	if typ == LinkTypeUnhandled {
		c.results.RecordUnhandled(link.Source, link.Target, link.Raw)
		return
	}

	first := c.checks.reference(link.Source, link.Target)
	if typ == LinkTypePage {
		if c.frontier.TryEnqueue(link.Target) {
			c.logger.Debug("queued page", "url", link.Target)
			return
		}
		if c.frontier.Seen(link.Target) {
			c.logger.Debug("already seen", "url", link.Target)
			return
		}
		reason = skipLimit
	}
	if !first {
		return
	}
	c.recordSkip(reason)
	c.dispatchCheck(ctx, link.Target)
}

func (c *crawler) processResource(ctx context.Context, target URLKey) {
	if ctx.Err() != nil {
		return
	}
	c.emitProgress(target)

	if !c.acquireRequestSlot(ctx) {
		return
	}
	outcome := c.fetcher.Check(ctx, target)
	c.releaseRequestSlot()
	c.recordResourceChecked()
	c.logger.Debug("checked link", "url", target, "status", outcome.Status)

	referrers := c.checks.resolve(target, outcome.Status)
	if !outcome.OK() {
		c.recordFailure(referrers, outcome)
	}
}
