package crawler

import (
	"slices"
	"strings"
	"testing"
)

func TestGoqueryExtractorAnchorsOnly(t *testing.T) {
	t.Parallel()

	markup := `<html><head><link rel="stylesheet" href="/style.css"></head><body>
	<a href="/a">A</a>
	<a href=" /b ">B</a>
	<a href="">empty</a>
	<a name="anchor">no href</a>
	<a href="/a">A again</a>
	<img src="/logo.png">
	</body></html>`

	links, err := NewGoqueryExtractor().ExtractLinks(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := []string{"/a", "/b"}
	if !slices.Equal(links, want) {
		t.Fatalf("unexpected links: got %v want %v", links, want)
	}
}

func TestDefaultExtractorWithAssets(t *testing.T) {
	t.Parallel()

	markup := `<html><head><link rel="stylesheet" href="/style.css"><script src="/app.js"></script></head>
	<body><a href="/a">A</a><img src="/logo.png"><iframe src="https://video.test/embed"></iframe></body></html>`

	links, err := newDefaultExtractor(true).ExtractLinks(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	slices.Sort(links)
	want := []string{"/a", "/app.js", "/logo.png", "/style.css", "https://video.test/embed"}
	if !slices.Equal(links, want) {
		t.Fatalf("unexpected links: got %v want %v", links, want)
	}
}

func TestExtractorToleratesBrokenMarkup(t *testing.T) {
	t.Parallel()

	links, err := NewGoqueryExtractor().ExtractLinks(strings.NewReader(`<div><a href="/ok">ok<p><a href=/unquoted>`))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !slices.Equal(links, []string{"/ok", "/unquoted"}) {
		t.Fatalf("unexpected links: %v", links)
	}
}

func TestIsHTMLContent(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"":                          true,
		"text/html":                 true,
		"TEXT/HTML; charset=latin1": true,
		"application/xhtml+xml":     true,
		"application/json":          false,
		"image/png":                 false,
	}
	for contentType, want := range cases {
		if got := isHTMLContent(contentType); got != want {
			t.Fatalf("isHTMLContent(%q) = %v, want %v", contentType, got, want)
		}
	}
}
