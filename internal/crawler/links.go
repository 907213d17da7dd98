package crawler

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkExtractor yields the raw link strings found in a page. Malformed markup
// must produce a possibly empty list, not an error; errors are reserved for
// content that could not be read at all.
type LinkExtractor interface {
	ExtractLinks(content io.Reader) ([]string, error)
}

// LinkTarget names an element selector and the attribute holding its URL.
type LinkTarget struct {
	Selector string
	Attr     string
}

var (
	anchorTargets = []LinkTarget{{Selector: "a[href]", Attr: "href"}}
	assetTargets  = []LinkTarget{
		{Selector: "img[src]", Attr: "src"},
		{Selector: "script[src]", Attr: "src"},
		{Selector: "link[href]", Attr: "href"},
		{Selector: "iframe[src]", Attr: "src"},
	}
)

// GoqueryExtractor extracts links with CSS selectors.
type GoqueryExtractor struct {
	targets []LinkTarget
}

// NewGoqueryExtractor returns an extractor for the given targets. With no
// targets it extracts anchor hrefs only.
func NewGoqueryExtractor(targets ...LinkTarget) *GoqueryExtractor {
	if len(targets) == 0 {
		targets = anchorTargets
	}
	return &GoqueryExtractor{targets: targets}
}

func newDefaultExtractor(checkAssets bool) *GoqueryExtractor {
	if !checkAssets {
		return NewGoqueryExtractor()
	}
	targets := make([]LinkTarget, 0, len(anchorTargets)+len(assetTargets))
	targets = append(targets, anchorTargets...)
	targets = append(targets, assetTargets...)
	return NewGoqueryExtractor(targets...)
}

// ExtractLinks returns the raw URL strings without duplicates, grouped by
// target in the order the targets were given.
func (e *GoqueryExtractor) ExtractLinks(content io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	for _, target := range e.targets {
		doc.Find(target.Selector).Each(func(_ int, s *goquery.Selection) {
			value, ok := s.Attr(target.Attr)
			if !ok {
				return
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return
			}
			if _, dup := seen[value]; dup {
				return
			}
			seen[value] = struct{}{}
			links = append(links, value)
		})
	}
	return links, nil
}

func isHTMLContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
