package crawler

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 5 * 1024 * 1024
	maxDrainBytes       = 64 * 1024
)

// Outcome is the normalized result of one fetch. Status is NoResponse when no
// HTTP response was received; Err then holds the cause. Err may also be set
// alongside a real status when the body could not be read. FinalURL is the
// address that answered, which differs from URL after followed redirects.
type Outcome struct {
	URL         URLKey
	FinalURL    URLKey
	Status      int
	ContentType string
	Err         error
}

// OK reports whether the fetch produced a 2xx status.
func (o Outcome) OK() bool {
	return !IsBad(o.Status)
}

// Fetcher performs the network requests of a crawl. Implementations never
// return errors; every failure is folded into the Outcome.
type Fetcher interface {
	// Check verifies that target is reachable without reading its content.
	Check(ctx context.Context, target URLKey) Outcome
	// Get fetches target and, on a 2xx status, returns its body decoded to UTF-8.
	Get(ctx context.Context, target URLKey) (Outcome, []byte)
}

// FetcherOptions controls HTTP fetching behaviour.
type FetcherOptions struct {
	Client          *http.Client
	UserAgent       string
	Timeout         time.Duration
	MaxBodyBytes    int64
	FollowRedirects bool
	MaxRetries      int
	RetryBackoff    time.Duration
}

// HTTPFetcher implements Fetcher on top of an http.Client.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	timeout      time.Duration
	maxBodyBytes int64
	maxRetries   int
	retryBackoff time.Duration
}

// NewHTTPFetcher constructs an HTTP fetcher. Redirects are not followed unless
// FollowRedirects is set, so a 3xx answer is reported as the link's status.
func NewHTTPFetcher(opts FetcherOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	var client http.Client
	if opts.Client != nil {
		client = *opts.Client
	}
	if opts.FollowRedirects {
		client.CheckRedirect = nil
	} else {
		client.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &HTTPFetcher{
		client:       &client,
		userAgent:    opts.UserAgent,
		timeout:      opts.Timeout,
		maxBodyBytes: opts.MaxBodyBytes,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
	}
}

// Check issues a HEAD request. Servers that answer HEAD with 405 or 501 are
// asked again with GET, since those codes mean the method is unsupported.
func (f *HTTPFetcher) Check(ctx context.Context, target URLKey) Outcome {
	out, _ := f.do(ctx, http.MethodHead, target, false)
	if out.Status == http.StatusMethodNotAllowed || out.Status == http.StatusNotImplemented {
		out, _ = f.do(ctx, http.MethodGet, target, false)
	}
	return out
}

// Get issues a GET request and returns the decoded body of a 2xx response.
func (f *HTTPFetcher) Get(ctx context.Context, target URLKey) (Outcome, []byte) {
	return f.do(ctx, http.MethodGet, target, true)
}

func (f *HTTPFetcher) do(ctx context.Context, method string, target URLKey, wantBody bool) (Outcome, []byte) {
	for attempt := 0; ; attempt++ {
		out, body := f.once(ctx, method, target, wantBody)
		if out.Status != NoResponse || attempt >= f.maxRetries || ctx.Err() != nil {
			return out, body
		}
		if f.retryBackoff > 0 {
			timer := time.NewTimer(f.retryBackoff * time.Duration(attempt+1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return out, body
			case <-timer.C:
			}
		}
	}
}

func (f *HTTPFetcher) once(ctx context.Context, method string, target URLKey, wantBody bool) (Outcome, []byte) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	out := Outcome{URL: target, Status: NoResponse}
	req, err := http.NewRequestWithContext(reqCtx, method, string(target), nil)
	if err != nil {
		out.Err = fmt.Errorf("build request: %w", err)
		return out, nil
	}
	req.Header.Set("User-Agent", f.userAgent)
	if wantBody {
		req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		out.Err = err
		return out, nil
	}
	defer resp.Body.Close()

	out.Status = resp.StatusCode
	out.FinalURL = target
	if resp.Request != nil && resp.Request.URL != nil {
		out.FinalURL = canonicalKey(resp.Request.URL)
	}
	out.ContentType = resp.Header.Get("Content-Type")
	if !wantBody || !out.OK() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		return out, nil
	}

	body, err := f.readBody(resp)
	if err != nil {
		out.Err = err
		return out, nil
	}
	return out, decodeCharset(body, out.ContentType)
}

func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func decodeCharset(body []byte, contentType string) []byte {
	if len(body) == 0 {
		return body
	}
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return body
	}
	return decoded
}
