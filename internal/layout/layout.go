// package layout arranges fetched card images onto fixed-size sheets at true
// physical scale.
//
// The printable grid is computed once from the physical sheet, margin, card,
// and gap sizes at the configured DPI and stays fixed for the run. Units fill
// pages in row-major order; a new page starts exactly when the grid is full
// and units remain.
package layout

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/charmbracelet/log"
	"github.com/nfnt/resize"

	"github.com/cardforge/proxysheet/internal/resolve"
	"github.com/cardforge/proxysheet/internal/shared"
)

const mmPerInch = 25.4

// MissingPolicy selects what happens to a slot whose image is unavailable.
type MissingPolicy string

const (
	// MissingSkip leaves the slot blank.
	MissingSkip MissingPolicy = "skip"
	// MissingPlaceholder draws a neutral placeholder in the slot.
	MissingPlaceholder MissingPolicy = "placeholder"
)

// Config is the physical layout geometry. All lengths are millimeters.
type Config struct {
	DPI           int
	CardWidthMM   float64
	CardHeightMM  float64
	GapMM         float64
	MarginMM      float64
	SheetWidthMM  float64
	SheetHeightMM float64
	Missing       MissingPolicy
}

// DefaultConfig returns A4 sheets of standard-size cards at 300 DPI.
func DefaultConfig() Config {
	return Config{
		DPI:           300,
		CardWidthMM:   63.5,
		CardHeightMM:  88.9,
		GapMM:         0.25,
		MarginMM:      5.0,
		SheetWidthMM:  210.0,
		SheetHeightMM: 297.0,
		Missing:       MissingPlaceholder,
	}
}

// ConfigError reports an invalid layout parameter.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid layout config %s: %s", e.Field, e.Msg)
}

// Validate checks the geometry for non-positive dimensions and an unknown
// missing-image policy.
func (c Config) Validate() error {
	checks := []struct {
		field string
		value float64
	}{
		{"dpi", float64(c.DPI)},
		{"card_width_mm", c.CardWidthMM},
		{"card_height_mm", c.CardHeightMM},
		{"sheet_width_mm", c.SheetWidthMM},
		{"sheet_height_mm", c.SheetHeightMM},
	}
	for _, chk := range checks {
		if chk.value <= 0 {
			return &ConfigError{Field: chk.field, Msg: "must be positive"}
		}
	}
	if c.GapMM < 0 {
		return &ConfigError{Field: "gap_mm", Msg: "must not be negative"}
	}
	if c.MarginMM < 0 {
		return &ConfigError{Field: "margin_mm", Msg: "must not be negative"}
	}
	switch c.Missing {
	case MissingSkip, MissingPlaceholder, "":
	default:
		return &ConfigError{Field: "missing_image", Msg: fmt.Sprintf("unknown policy %q", c.Missing)}
	}
	return nil
}

func (c Config) pixels(mm float64) int {
	return int(mm / mmPerInch * float64(c.DPI))
}

// Grid is the fixed pixel geometry of one sheet.
type Grid struct {
	Columns int
	Rows    int
	CardW   int
	CardH   int
	Gap     int
	Margin  int
	PageW   int
	PageH   int
}

// Slots returns the per-page capacity.
func (g Grid) Slots() int { return g.Columns * g.Rows }

// Grid computes the sheet grid from the physical geometry.
func (c Config) Grid() (Grid, error) {
	if err := c.Validate(); err != nil {
		return Grid{}, err
	}
	g := Grid{
		CardW:  c.pixels(c.CardWidthMM),
		CardH:  c.pixels(c.CardHeightMM),
		Gap:    c.pixels(c.GapMM),
		Margin: c.pixels(c.MarginMM),
		PageW:  c.pixels(c.SheetWidthMM),
		PageH:  c.pixels(c.SheetHeightMM),
	}
	usableW := g.PageW - 2*g.Margin
	usableH := g.PageH - 2*g.Margin
	if g.CardW > 0 {
		g.Columns = (usableW + g.Gap) / (g.CardW + g.Gap)
	}
	if g.CardH > 0 {
		g.Rows = (usableH + g.Gap) / (g.CardH + g.Gap)
	}
	if g.Slots() < 1 {
		return Grid{}, &ConfigError{Field: "sheet", Msg: "no card fits on the sheet"}
	}
	return g, nil
}

// Item pairs an image unit with its fetched bytes. Nil bytes mark a unit the
// caller chose to lay out despite a fetch failure.
type Item struct {
	Unit  resolve.ImageUnit
	Image []byte
}

// Engine paginates items onto sheets.
type Engine struct {
	cfg    Config
	grid   Grid
	logger *log.Logger
}

// NewEngine validates the config, computes the grid, and returns an engine.
func NewEngine(cfg Config, logger *log.Logger) (*Engine, error) {
	grid, err := cfg.Grid()
	if err != nil {
		return nil, err
	}
	if cfg.Missing == "" {
		cfg.Missing = MissingPlaceholder
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{cfg: cfg, grid: grid, logger: logger}, nil
}

// Grid returns the fixed sheet grid.
func (e *Engine) Grid() Grid { return e.grid }

// MissingPolicy returns the active policy for unavailable images.
func (e *Engine) MissingPolicy() MissingPolicy { return e.cfg.Missing }

// Pages lays the items out in order and returns the finished sheets. The last
// page may be partially filled; blank slots stay white. Items without bytes
// follow the missing-image policy and never abort the run.
func (e *Engine) Pages(items []Item) ([]*image.RGBA, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var pages []*image.RGBA
	page := e.newPage()
	pages = append(pages, page)
	slot := 0

	for _, item := range items {
		if slot == e.grid.Slots() {
			page = e.newPage()
			pages = append(pages, page)
			slot = 0
		}

		img := e.render(item)
		if img != nil {
			origin := e.slotOrigin(slot)
			draw.Draw(page, image.Rect(origin.X, origin.Y, origin.X+e.grid.CardW, origin.Y+e.grid.CardH),
				img, image.Point{}, draw.Src)
		}
		slot++
	}
	return pages, nil
}

// render produces the slot-sized image for an item, or nil when the slot
// stays blank.
func (e *Engine) render(item Item) image.Image {
	if item.Image == nil {
		return e.missing()
	}
	src, _, err := image.Decode(bytes.NewReader(item.Image))
	if err != nil {
		e.logger.Warn("failed to decode card image, applying missing-image policy",
			"card", item.Unit.CardName, "face", item.Unit.FaceIndex, "err", err)
		return e.missing()
	}
	// Exact target dimensions; aspect mismatch becomes distortion, not an error.
	return resize.Resize(uint(e.grid.CardW), uint(e.grid.CardH), src, resize.Lanczos3)
}

func (e *Engine) missing() image.Image {
	if e.cfg.Missing == MissingSkip {
		return nil
	}
	return e.placeholder()
}

// placeholder is a flat gray card with a darker border, sized to the slot.
func (e *Engine) placeholder() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, e.grid.CardW, e.grid.CardH))
	fill := color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}
	border := color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetRGBA(x, b.Min.Y, border)
		img.SetRGBA(x, b.Max.Y-1, border)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetRGBA(b.Min.X, y, border)
		img.SetRGBA(b.Max.X-1, y, border)
	}
	return img
}

func (e *Engine) newPage() *image.RGBA {
	page := image.NewRGBA(image.Rect(0, 0, e.grid.PageW, e.grid.PageH))
	draw.Draw(page, page.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return page
}

// slotOrigin returns the top-left pixel of slot i in row-major order.
func (e *Engine) slotOrigin(i int) image.Point {
	col := i % e.grid.Columns
	row := i / e.grid.Columns
	return image.Point{
		X: e.grid.Margin + col*(e.grid.CardW+e.grid.Gap),
		Y: e.grid.Margin + row*(e.grid.CardH+e.grid.Gap),
	}
}
