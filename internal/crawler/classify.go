package crawler

import (
	"net/url"
	"path"
	"strings"
)

var (
	defaultUnhandledSchemes = []string{"mailto", "javascript", "tel", "data", "ftp"}
	defaultSkipExtensions   = []string{"gif", "jpg", "jpeg", "png", "mp4", "mov", "pdf", "zip"}
)

type skipReason int

const (
	skipNone skipReason = iota
	skipExtension
	skipOutOfScope
	skipRobots
	skipLimit
)

// Classifier decides how each normalized link is handled relative to the
// site root.
type Classifier struct {
	root       *url.URL
	pathPrefix string
	unhandled  map[string]struct{}
	skipExt    map[string]struct{}
}

// NewClassifier builds a classifier scoped to root's host. A nil scheme or
// extension list selects the defaults; an empty non-nil list disables them.
func NewClassifier(root *url.URL, pathPrefix string, unhandledSchemes, skipExtensions []string) *Classifier {
	if unhandledSchemes == nil {
		unhandledSchemes = defaultUnhandledSchemes
	}
	if skipExtensions == nil {
		skipExtensions = defaultSkipExtensions
	}
	prefix := strings.TrimSuffix(strings.TrimSpace(pathPrefix), "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return &Classifier{
		root:       root,
		pathPrefix: prefix,
		unhandled:  buildSchemeSet(unhandledSchemes),
		skipExt:    buildExtensionSet(skipExtensions),
	}
}

// Classify returns the handling for u.
func (c *Classifier) Classify(u URLKey) LinkType {
	typ, _ := c.classify(u)
	return typ
}

func (c *Classifier) classify(u URLKey) (LinkType, skipReason) {
	parsed, err := url.Parse(string(u))
	if err != nil {
		return LinkTypeUnhandled, skipNone
	}
	scheme := strings.ToLower(parsed.Scheme)
	if _, ok := c.unhandled[scheme]; ok {
		return LinkTypeUnhandled, skipNone
	}
	if !isHTTPScheme(scheme) {
		return LinkTypeResource, skipOutOfScope
	}
	if !strings.EqualFold(parsed.Host, c.root.Host) {
		return LinkTypeResource, skipOutOfScope
	}
	if !c.inPrefix(parsed.Path) {
		return LinkTypeResource, skipOutOfScope
	}
	if c.skippedExtension(parsed) {
		return LinkTypeResource, skipExtension
	}
	return LinkTypePage, skipNone
}

// inPrefix matches whole path segments, so "/docs" admits "/docs/intro" but
// not "/docsearch".
func (c *Classifier) inPrefix(pathValue string) bool {
	if c.pathPrefix == "" {
		return true
	}
	return pathValue == c.pathPrefix || strings.HasPrefix(pathValue, c.pathPrefix+"/")
}

func (c *Classifier) skippedExtension(u *url.URL) bool {
	if len(c.skipExt) == 0 {
		return false
	}
	pathValue := u.Path
	if pathValue == "" || strings.HasSuffix(pathValue, "/") {
		return false
	}
	ext := strings.ToLower(path.Ext(pathValue))
	if ext == "" {
		return false
	}
	_, ok := c.skipExt[ext]
	return ok
}

func buildSchemeSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, item := range list {
		scheme := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(item), ":"))
		if scheme == "" {
			continue
		}
		set[scheme] = struct{}{}
	}
	return set
}

func buildExtensionSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, item := range list {
		trimmed := strings.ToLower(strings.TrimSpace(item))
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		set[trimmed] = struct{}{}
	}
	return set
}
