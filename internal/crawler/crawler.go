package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const defaultWorkers = 8

type state int32

const (
	stateIdle state = iota
	stateRunning
	stateDraining
	stateDone
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	case stateDraining:
		return "draining"
	case stateDone:
		return "done"
	}
	return "unknown"
}

type crawler struct {
	runID      string
	start      URLKey
	workers    int
	runTimeout time.Duration

	classifier *Classifier
	fetcher    Fetcher
	extractor  LinkExtractor
	robots     *robotsAgent

	frontier *Frontier
	checks   *checkRegistry
	results  *Aggregator

	limiter  *rate.Limiter
	slots    *semaphore.Weighted
	checksWG sync.WaitGroup

	logger   *log.Logger
	progress func(string)
	state    atomic.Int32

	mu    sync.Mutex
	stats Stats
}

// Crawl performs the crawl using the provided configuration and returns a
// report. Only an unusable start URL is an error; fetch failures, parse
// failures and an expired RunTimeout all end up in the report.
func Crawl(ctx context.Context, cfg Config) (*Report, error) {
	c, err := newCrawler(cfg)
	if err != nil {
		return nil, err
	}
	return c.run(ctx), nil
}

func newCrawler(cfg Config) (*crawler, error) {
	start, root, err := parseSeed(cfg.StartURL)
	if err != nil {
		return nil, err
	}

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = defaultWorkers
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = maxWorkers
	}

	fetcher := NewHTTPFetcher(FetcherOptions{
		Client:          client,
		UserAgent:       userAgent,
		Timeout:         cfg.Timeout,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		FollowRedirects: cfg.FollowRedirects,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
	})

	extractor := cfg.Extractor
	if extractor == nil {
		extractor = newDefaultExtractor(cfg.CheckAssets)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	runID := uuid.NewString()

	results := NewAggregator()
	c := &crawler{
		runID:      runID,
		start:      start,
		workers:    maxWorkers,
		runTimeout: cfg.RunTimeout,
		classifier: NewClassifier(root, cfg.PathPrefix, cfg.UnhandledSchemes, cfg.SkipExtensions),
		fetcher:    fetcher,
		extractor:  extractor,
		frontier:   NewFrontier(cfg.MaxPages),
		checks:     newCheckRegistry(results),
		results:    results,
		limiter:    newRateLimiter(cfg.RequestsPerSecond, burst),
		slots:      semaphore.NewWeighted(int64(maxWorkers)),
		logger:     logger.With("run", runID),
		progress:   cfg.Progress,
	}
	c.robots = newRobotsAgent(gatedFetcher{c: c}, userAgent, cfg.IgnoreRobots)
	return c, nil
}

func (c *crawler) run(parent context.Context) *Report {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.runTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.runTimeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	started := time.Now()
	c.setState(stateRunning)
	c.logger.Info("crawl started", "seed", c.start, "workers", c.workers)

	c.checks.reference(c.start, c.start)
	c.frontier.TryEnqueue(c.start)

	var workers sync.WaitGroup
	for range c.workers {
		workers.Go(func() {
			c.pageWorker(ctx)
		})
	}
	workers.Wait()

	c.setState(stateDraining)
	c.checksWG.Wait()

	truncated := ctx.Err() != nil
	if truncated {
		kind := KindCanceled
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindRunTimeout
		}
		c.recordError(Error{Target: string(c.start), Kind: kind, Message: ctx.Err().Error(), cause: ctx.Err()})
		c.logger.Warn("crawl stopped before completion", "reason", kind, "queued", c.frontier.Queued())
	}
	c.setState(stateDone)

	report := c.buildReport(started, time.Now(), truncated)
	c.logger.Info("crawl finished",
		"visited", report.Stats.PagesVisited,
		"bad", report.Stats.BadLinks,
		"unhandled", len(report.Result.Unhandled),
		"duration", report.Stats.Duration,
	)
	return report
}

func (c *crawler) setState(s state) {
	prev := state(c.state.Swap(int32(s)))
	c.logger.Debug("crawl state", "from", prev, "to", s)
}

func (c *crawler) emitProgress(u URLKey) {
	if c.progress == nil {
		return
	}
	c.progress(string(u))
}
