// Package display draws one slideshow frame onto an abstract Canvas.
//
// Render is pure with respect to application state: it reads a Frame and
// issues draw calls. The fyne-backed Canvas lives in the fyneview
// sub-package; tests use a recording fake.
package display

import (
	"image"
	"image/color"
	"math"

	"github.com/rivo/uniseg"

	"github.com/oukeidos/walldisplay/internal/config"
	"github.com/oukeidos/walldisplay/internal/transition"
)

// Canvas is the drawing surface. Coordinates are in canvas units with the
// origin at the top-left corner. Draw calls accumulate until Present.
type Canvas interface {
	// Extent is the drawable size; zero until the surface is laid out.
	Extent() image.Point
	FillRect(r image.Rectangle, c color.NRGBA)
	DrawImage(img *image.NRGBA, r image.Rectangle, opacity float64)
	// DrawText draws a single line with its top-left corner at at.
	DrawText(text string, at image.Point, size float32, c color.NRGBA)
	MeasureText(text string, size float32) image.Point
	Present()
}

// Key is an input command, already decoded from the backend's key codes.
type Key int

const (
	KeyNone Key = iota
	KeyQuit
	KeyPause
	KeyNextCategory
	KeyPrevCategory
	KeyNextImage
	KeyPrevImage
)

func (k Key) String() string {
	switch k {
	case KeyQuit:
		return "quit"
	case KeyPause:
		return "pause"
	case KeyNextCategory:
		return "next_category"
	case KeyPrevCategory:
		return "prev_category"
	case KeyNextImage:
		return "next_image"
	case KeyPrevImage:
		return "prev_image"
	default:
		return "none"
	}
}

// InputSource yields pending key commands without waiting.
type InputSource interface {
	PollInput() (Key, bool)
}

// Layout holds the sidebar geometry.
type Layout struct {
	MenuWidth int
	FontSize  float32
	LabelTop  int // y of the first label
	LabelGap  int // added to the line height between labels
	Padding   int
}

// DefaultLayout returns the sidebar geometry for a menu width.
func DefaultLayout(menuWidth int) Layout {
	return Layout{MenuWidth: menuWidth, FontSize: 20, LabelTop: 40, LabelGap: 40, Padding: 12}
}

// Theme is the resolved palette and texts.
type Theme struct {
	Background     color.NRGBA
	MenuBackground color.NRGBA
	MenuActive     color.NRGBA
	MenuInactive   color.NRGBA
	Spinner        color.NRGBA
	Failure        color.NRGBA
	FailureText    string
	EmptyText      string
	PausedText     string
}

func ThemeFrom(cfg config.Config) Theme {
	return Theme{
		Background:     cfg.Colors.Background.NRGBA(),
		MenuBackground: cfg.Colors.MenuBackground.NRGBA(),
		MenuActive:     cfg.Colors.MenuActive.NRGBA(),
		MenuInactive:   cfg.Colors.MenuInactive.NRGBA(),
		Spinner:        cfg.Colors.Spinner.NRGBA(),
		Failure:        cfg.Colors.Failure.NRGBA(),
		FailureText:    cfg.Slideshow.FailureText,
		EmptyText:      cfg.Slideshow.EmptyText,
		PausedText:     cfg.Slideshow.PausedText,
	}
}

// Frame is everything one render needs.
type Frame struct {
	Categories []string
	Active     int
	View       transition.View
	Paused     bool
	Empty      bool // the active category has no images
}

// ImageArea returns the part of a canvas of the given size right of the
// sidebar.
func ImageArea(size image.Point, menuWidth int) image.Rectangle {
	if menuWidth > size.X {
		menuWidth = size.X
	}
	if menuWidth < 0 {
		menuWidth = 0
	}
	return image.Rect(menuWidth, 0, size.X, size.Y)
}

const spinnerDots = 8

// Render draws f and presents it.
func Render(c Canvas, f Frame, l Layout, th Theme) {
	size := c.Extent()
	area := ImageArea(size, l.MenuWidth)

	c.FillRect(area, th.Background)
	if area.Min.X > 0 {
		c.FillRect(image.Rect(0, 0, area.Min.X, size.Y), th.MenuBackground)
		drawSidebar(c, f, l, th, size)
	}

	v := f.View
	switch {
	case v.Image != nil && v.Image.Surface != nil && v.Opacity > 0:
		c.DrawImage(v.Image.Surface, centered(area, v.Image.Surface.Bounds().Size()), v.Opacity)
	case v.Failed:
		drawCentered(c, area, th.FailureText, l.FontSize, th.Failure)
	case v.Spinner:
		drawSpinner(c, area, v, th.Spinner)
	case f.Empty && v.Image == nil:
		drawCentered(c, area, th.EmptyText, l.FontSize, th.MenuInactive)
	}

	c.Present()
}

func drawSidebar(c Canvas, f Frame, l Layout, th Theme, size image.Point) {
	lineHeight := c.MeasureText("Ag", l.FontSize).Y
	maxWidth := l.MenuWidth - 2*l.Padding
	y := l.LabelTop
	for i, name := range f.Categories {
		col := th.MenuInactive
		if i == f.Active {
			col = th.MenuActive
		}
		label := Truncate(name, maxWidth, func(s string) int { return c.MeasureText(s, l.FontSize).X })
		c.DrawText(label, image.Pt(l.Padding, y), l.FontSize, col)
		y += lineHeight + l.LabelGap
	}
	if f.Paused && th.PausedText != "" {
		c.DrawText(th.PausedText, image.Pt(l.Padding, size.Y-lineHeight-l.Padding), l.FontSize, th.MenuInactive)
	}
}

// Truncate shortens s by whole grapheme clusters until it fits maxWidth,
// appending an ellipsis when anything was cut.
func Truncate(s string, maxWidth int, measure func(string) int) string {
	if maxWidth <= 0 {
		return ""
	}
	if measure(s) <= maxWidth {
		return s
	}
	const ellipsis = "…"
	var clusters []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}
	for n := len(clusters) - 1; n > 0; n-- {
		cand := joinClusters(clusters[:n]) + ellipsis
		if measure(cand) <= maxWidth {
			return cand
		}
	}
	return ""
}

func joinClusters(cs []string) string {
	n := 0
	for _, c := range cs {
		n += len(c)
	}
	b := make([]byte, 0, n)
	for _, c := range cs {
		b = append(b, c...)
	}
	return string(b)
}

func centered(area image.Rectangle, sz image.Point) image.Rectangle {
	x := area.Min.X + (area.Dx()-sz.X)/2
	y := area.Min.Y + (area.Dy()-sz.Y)/2
	return image.Rect(x, y, x+sz.X, y+sz.Y)
}

func drawCentered(c Canvas, area image.Rectangle, text string, size float32, col color.NRGBA) {
	if text == "" {
		return
	}
	r := centered(area, c.MeasureText(text, size))
	c.DrawText(text, r.Min, size, col)
}

// drawSpinner places the dots on a circle; the leading dot is brightest and
// the trail fades out.
func drawSpinner(c Canvas, area image.Rectangle, v transition.View, col color.NRGBA) {
	short := area.Dx()
	if area.Dy() < short {
		short = area.Dy()
	}
	radius := clampInt(short/16, 12, 48)
	dot := clampInt(radius/4, 3, 12)
	cx := area.Min.X + area.Dx()/2
	cy := area.Min.Y + area.Dy()/2

	for i := 0; i < spinnerDots; i++ {
		theta := v.SpinnerAngle - 2*math.Pi*float64(i)/spinnerDots
		x := cx + int(math.Round(float64(radius)*math.Cos(theta)))
		y := cy + int(math.Round(float64(radius)*math.Sin(theta)))
		trail := 1 - float64(i)/spinnerDots
		dc := col
		dc.A = uint8(math.Round(float64(col.A) * v.SpinnerAlpha * trail))
		c.FillRect(image.Rect(x-dot/2, y-dot/2, x-dot/2+dot, y-dot/2+dot), dc)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
