package crawler

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const defaultUserAgent = "brokenlinks-bot/1.0"

// NoResponse is the status recorded for a link when no HTTP response was
// obtained at all (timeout, DNS failure, refused connection).
const NoResponse = 999

// URLKey is the normalized, comparable form of a URL.
type URLKey string

func (u URLKey) String() string { return string(u) }

// Config defines inputs for the crawler.
type Config struct {
	StartURL          string
	MaxWorkers        int
	Client            *http.Client
	Timeout           time.Duration
	RunTimeout        time.Duration
	MaxPages          int
	RequestsPerSecond float64
	Burst             int
	PathPrefix        string
	UnhandledSchemes  []string
	SkipExtensions    []string
	CheckAssets       bool
	IgnoreRobots      bool
	FollowRedirects   bool
	MaxRetries        int
	RetryBackoff      time.Duration
	MaxBodyBytes      int64
	UserAgent         string
	Extractor         LinkExtractor
	Logger            *log.Logger
	Progress          func(string)
}

// Report captures the outcome of a crawl.
type Report struct {
	RunID      string    `json:"runId"`
	Seed       URLKey    `json:"seed"`
	Result     Result    `json:"result"`
	Stats      Stats     `json:"stats"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Result holds the three output streams of a crawl plus the recovered errors.
type Result struct {
	Visited   []URLKey        `json:"visited"`
	BadLinks  []BadLink       `json:"badLinks"`
	Unhandled []UnhandledLink `json:"unhandled"`
	Errors    []Error         `json:"errors,omitempty"`
}

// Link is one discovered hyperlink edge.
type Link struct {
	Source URLKey
	Target URLKey
	Raw    string
	Type   LinkType
}

// LinkType describes the classification of a link.
type LinkType string

const (
	// LinkTypePage is an in-scope link whose content is crawled for more links.
	LinkTypePage LinkType = "page"
	// LinkTypeResource is a link that is status-checked but never parsed.
	LinkTypeResource LinkType = "resource"
	// LinkTypeUnhandled is a link whose scheme is not verified.
	LinkTypeUnhandled LinkType = "unhandled"
)

// BadLink is a link whose check did not produce a 2xx status.
type BadLink struct {
	Source URLKey `json:"source"`
	Target URLKey `json:"target"`
	Status int    `json:"status"`
}

// UnhandledLink is a link the crawler does not attempt to verify. Target is
// empty when the raw reference could not be parsed at all.
type UnhandledLink struct {
	Source URLKey `json:"source"`
	Target URLKey `json:"target,omitempty"`
	Raw    string `json:"raw"`
}

// Stats aggregates crawl level counters.
type Stats struct {
	PagesVisited        int           `json:"pagesVisited"`
	UniquePages         int           `json:"uniquePages"`
	ResourcesChecked    int           `json:"resourcesChecked"`
	TotalPageLinks      int           `json:"totalPageLinks"`
	TotalResourceLinks  int           `json:"totalResourceLinks"`
	TotalUnhandledLinks int           `json:"totalUnhandledLinks"`
	BadLinks            int           `json:"badLinks"`
	SkippedByRobots     int           `json:"skippedByRobots"`
	SkippedByExtension  int           `json:"skippedByExtension"`
	SkippedByLimit      int           `json:"skippedByLimit"`
	Duration            time.Duration `json:"duration"`
	Truncated           bool          `json:"truncated"`
}

// IsBad reports whether status marks a broken link.
func IsBad(status int) bool {
	return status < 200 || status > 299
}
