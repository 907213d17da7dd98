package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize resolves raw against base and returns its comparable key.
//
// Fragments are dropped and the scheme and host are lowercased. Trailing
// slashes and the http/https distinction are kept, so "/a" and "/a/" are
// different pages. An empty path on an http(s) URL becomes "/".
func Normalize(raw string, base URLKey) (URLKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty reference", ErrMalformedURL)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if base != "" {
		baseURL, err := url.Parse(string(base))
		if err != nil {
			return "", fmt.Errorf("%w: base %q: %v", ErrMalformedURL, base, err)
		}
		ref = baseURL.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return "", fmt.Errorf("%w: %q has no scheme", ErrMalformedURL, raw)
	}
	return canonicalKey(ref), nil
}

func canonicalKey(u *url.URL) URLKey {
	normalized := *u
	normalized.Fragment = ""
	normalized.RawFragment = ""
	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)
	if isHTTPScheme(normalized.Scheme) && normalized.Opaque == "" && normalized.Path == "" {
		normalized.Path = "/"
		normalized.RawPath = ""
	}
	return URLKey(normalized.String())
}

func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// ValidateSeed reports whether raw is usable as a start URL.
func ValidateSeed(raw string) error {
	_, _, err := parseSeed(raw)
	return err
}

// parseSeed validates the start URL. A seed without a scheme defaults to https.
func parseSeed(raw string) (URLKey, *url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, fmt.Errorf("%w: start URL is required", ErrInvalidSeed)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if !isHTTPScheme(scheme) {
		return "", nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSeed, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", nil, fmt.Errorf("%w: start URL must include a host", ErrInvalidSeed)
	}
	key := canonicalKey(parsed)
	root, err := url.Parse(string(key))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return key, root, nil
}
