package crawler

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// robotsAgent evaluates robots.txt rules per host. Rules are fetched once per
// host; a missing, failing or unparsable robots.txt allows everything.
type robotsAgent struct {
	fetcher   Fetcher
	userAgent string
	ignore    bool

	mu    sync.RWMutex
	rules map[string]*robotstxt.RobotsData
	group singleflight.Group
}

func newRobotsAgent(fetcher Fetcher, userAgent string, ignore bool) *robotsAgent {
	return &robotsAgent{
		fetcher:   fetcher,
		userAgent: userAgent,
		ignore:    ignore,
		rules:     make(map[string]*robotstxt.RobotsData),
	}
}

func (a *robotsAgent) allowed(ctx context.Context, target URLKey) bool {
	if a.ignore {
		return true
	}
	u, err := url.Parse(string(target))
	if err != nil || u.Host == "" {
		return true
	}
	rules := a.rulesFor(ctx, u)
	if rules == nil {
		return true
	}
	pathValue := u.EscapedPath()
	if pathValue == "" {
		pathValue = "/"
	}
	return rules.TestAgent(pathValue, a.userAgent)
}

func (a *robotsAgent) rulesFor(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	host := strings.ToLower(u.Host)

	a.mu.RLock()
	rules, ok := a.rules[host]
	a.mu.RUnlock()
	if ok {
		return rules
	}

	v, _, _ := a.group.Do(host, func() (any, error) {
		fetched := a.fetchRobots(ctx, u)
		a.mu.Lock()
		a.rules[host] = fetched
		a.mu.Unlock()
		return fetched, nil
	})
	rules, _ = v.(*robotstxt.RobotsData)
	return rules
}

func (a *robotsAgent) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := &url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   "/robots.txt",
	}
	out, body := a.fetcher.Get(ctx, URLKey(robotsURL.String()))
	if !out.OK() || out.Err != nil {
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data
}
