package pdfwriter

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/cardforge/proxysheet/internal/layout"
	tu "github.com/cardforge/proxysheet/internal/testing"
)

func testPages(n int) []*image.RGBA {
	pages := make([]*image.RGBA, n)
	for i := range pages {
		page := image.NewRGBA(image.Rect(0, 0, 80, 120))
		draw.Draw(page, page.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		pages[i] = page
	}
	return pages
}

func TestPDFWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	w := NewPDF(path, layout.DefaultConfig())

	if err := w.Write(testPages(3)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	tu.AssertFileExists(t, path)
	data := tu.MustReadFile(t, path)
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header: %q", data[:min(8, len(data))])
	}
}

func TestPNGWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewPNG(dir, "sheet")

	if err := w.Write(testPages(2)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	for _, name := range []string{"sheet-001.png", "sheet-002.png"} {
		path := filepath.Join(dir, name)
		tu.AssertFileExists(t, path)
		data := tu.MustReadFile(t, path)
		if !bytes.HasPrefix(data, []byte("\x89PNG")) {
			t.Errorf("%s does not start with a PNG header", name)
		}
	}
}

func TestPNGWriterDefaultPrefix(t *testing.T) {
	dir := t.TempDir()
	w := NewPNG(dir, "")

	if err := w.Write(testPages(1)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	tu.AssertFileExists(t, filepath.Join(dir, "page-001.png"))
}
