// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
)

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// NewClient builds an http.Client over the given transport function.
func NewClient(fn RoundTripFunc) *http.Client {
	return &http.Client{Transport: fn}
}

// TextResponse builds an in-memory response with a string body.
func TextResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// BytesResponse builds an in-memory response with a binary body.
func BytesResponse(status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     make(http.Header),
	}
}

// CountingTransport serves responses from a handler while counting requests
// per URL. Safe for concurrent use.
type CountingTransport struct {
	mu      sync.Mutex
	counts  map[string]int
	Handler func(*http.Request) (*http.Response, error)
}

func NewCountingTransport(handler func(*http.Request) (*http.Response, error)) *CountingTransport {
	return &CountingTransport{counts: make(map[string]int), Handler: handler}
}

func (t *CountingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.counts[req.URL.String()]++
	t.mu.Unlock()
	return t.Handler(req)
}

// Count returns how many requests hit the given URL.
func (t *CountingTransport) Count(url string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[url]
}

// Total returns the number of requests across all URLs.
func (t *CountingTransport) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}

// PNGBytes encodes a solid-color PNG of the given size. Uniform colors
// survive resizing, so tests can identify a card by sampling one pixel.
func PNGBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return content
}
