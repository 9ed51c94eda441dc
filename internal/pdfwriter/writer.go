// package pdfwriter serializes finished page rasters into output documents.
//
// The layout engine hands over ordered page images; writers only encode.
package pdfwriter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/cardforge/proxysheet/internal/layout"
)

// Writer serializes an ordered sequence of page images.
type Writer interface {
	Write(pages []*image.RGBA) error
}

// PDFWriter assembles pages into a single PDF at the configured physical size.
type PDFWriter struct {
	path     string
	widthMM  float64
	heightMM float64
}

// NewPDF creates a writer targeting path, sized from the layout config.
func NewPDF(path string, cfg layout.Config) *PDFWriter {
	return &PDFWriter{path: path, widthMM: cfg.SheetWidthMM, heightMM: cfg.SheetHeightMM}
}

// Write encodes each page as PNG and places it full-bleed on its own PDF page.
func (w *PDFWriter) Write(pages []*image.RGBA) error {
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: w.widthMM, Ht: w.heightMM},
	})

	for i, page := range pages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, page); err != nil {
			return fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}

		doc.AddPage()
		name := fmt.Sprintf("page-%d", i+1)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		doc.RegisterImageOptionsReader(name, opts, &buf)
		doc.ImageOptions(name, 0, 0, w.widthMM, w.heightMM, false, opts, 0, "")
	}

	if err := doc.OutputFileAndClose(w.path); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// PNGWriter writes each page as a numbered PNG file into a directory.
type PNGWriter struct {
	dir    string
	prefix string
}

// NewPNG creates a writer emitting <dir>/<prefix>-NNN.png files.
func NewPNG(dir, prefix string) *PNGWriter {
	if prefix == "" {
		prefix = "page"
	}
	return &PNGWriter{dir: dir, prefix: prefix}
}

// Write encodes the pages in order.
func (w *PNGWriter) Write(pages []*image.RGBA) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for i, page := range pages {
		path := filepath.Join(w.dir, fmt.Sprintf("%s-%03d.png", w.prefix, i+1))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := png.Encode(f, page); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", path, err)
		}
	}
	return nil
}
