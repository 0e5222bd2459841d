// Package fyneview implements display.Canvas on a fyne widget.
//
// Draw calls from the display loop are recorded into a frame. Present hands
// the frame to the fyne goroutine with fyne.Do; if the previous frame has not
// been applied yet it is replaced, so a slow driver skips frames instead of
// queueing them.
package fyneview

import (
	"image"
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/oukeidos/walldisplay/internal/display"
	"github.com/oukeidos/walldisplay/internal/logger"
)

// InputBuffer is the capacity of the key channel.
const InputBuffer = 16

type opKind int

const (
	opRect opKind = iota
	opImage
	opText
)

type op struct {
	kind    opKind
	rect    image.Rectangle
	color   color.NRGBA
	img     *image.NRGBA
	opacity float64
	text    string
	size    float32
}

// Screen is a full-window widget that shows committed frames.
type Screen struct {
	widget.BaseWidget

	mu        sync.Mutex
	size      fyne.Size
	recording []op
	latest    []op
	scheduled bool

	// slots is only touched on the fyne goroutine.
	slots []fyne.CanvasObject

	keys chan display.Key
}

var (
	_ fyne.Widget         = (*Screen)(nil)
	_ display.Canvas      = (*Screen)(nil)
	_ display.InputSource = (*Screen)(nil)
	_ desktop.Cursorable  = (*Screen)(nil)
	_ desktop.Hoverable   = (*Screen)(nil)
)

func NewScreen() *Screen {
	s := &Screen{keys: make(chan display.Key, InputBuffer)}
	s.ExtendBaseWidget(s)
	return s
}

// Bind routes the window's key events to the screen.
func (s *Screen) Bind(w fyne.Window) {
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		key := MapKey(ev.Name)
		if key == display.KeyNone {
			return
		}
		select {
		case s.keys <- key:
		default:
			logger.Debug("Input buffer full, key dropped", "key", key)
		}
	})
}

// MapKey translates fyne key names. Keypad digits arrive as digit names.
func MapKey(name fyne.KeyName) display.Key {
	switch name {
	case fyne.KeyEscape, fyne.KeyQ:
		return display.KeyQuit
	case fyne.KeyP:
		return display.KeyPause
	case fyne.KeyUp, fyne.Key8:
		return display.KeyNextCategory
	case fyne.KeyDown, fyne.Key2:
		return display.KeyPrevCategory
	case fyne.KeyRight, fyne.Key6:
		return display.KeyNextImage
	case fyne.KeyLeft, fyne.Key4:
		return display.KeyPrevImage
	default:
		return display.KeyNone
	}
}

func (s *Screen) PollInput() (display.Key, bool) {
	select {
	case k := <-s.keys:
		return k, true
	default:
		return display.KeyNone, false
	}
}

func (s *Screen) Cursor() desktop.Cursor { return desktop.HiddenCursor }

func (s *Screen) MouseIn(*desktop.MouseEvent)    {}
func (s *Screen) MouseMoved(*desktop.MouseEvent) {}
func (s *Screen) MouseOut()                      {}

// Extent reports the laid-out widget size; zero until the window is shown.
func (s *Screen) Extent() image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return image.Pt(int(s.size.Width), int(s.size.Height))
}

func (s *Screen) FillRect(r image.Rectangle, c color.NRGBA) {
	if r.Empty() {
		return
	}
	s.record(op{kind: opRect, rect: r, color: c})
}

func (s *Screen) DrawImage(img *image.NRGBA, r image.Rectangle, opacity float64) {
	if img == nil || r.Empty() {
		return
	}
	s.record(op{kind: opImage, rect: r, img: img, opacity: opacity})
}

func (s *Screen) DrawText(text string, at image.Point, size float32, c color.NRGBA) {
	if text == "" {
		return
	}
	s.record(op{kind: opText, rect: image.Rectangle{Min: at}, text: text, size: size, color: c})
}

func (s *Screen) MeasureText(text string, size float32) image.Point {
	m := fyne.MeasureText(text, size, fyne.TextStyle{})
	return image.Pt(int(math.Ceil(float64(m.Width))), int(math.Ceil(float64(m.Height))))
}

// Present commits the recorded frame.
func (s *Screen) Present() {
	s.mu.Lock()
	s.latest = s.recording
	s.recording = nil
	if s.scheduled {
		s.mu.Unlock()
		return
	}
	s.scheduled = true
	s.mu.Unlock()

	fyne.Do(s.commit)
}

func (s *Screen) record(o op) {
	s.mu.Lock()
	s.recording = append(s.recording, o)
	s.mu.Unlock()
}

func (s *Screen) commit() {
	s.mu.Lock()
	ops := s.latest
	s.latest = nil
	s.scheduled = false
	s.mu.Unlock()

	s.apply(ops)
	s.Refresh()
}

// apply reuses the object at each position when its type matches, so an
// unchanged image is not uploaded again.
func (s *Screen) apply(ops []op) {
	for i, o := range ops {
		var obj fyne.CanvasObject
		if i < len(s.slots) {
			obj = s.slots[i]
		}
		switch o.kind {
		case opRect:
			r, ok := obj.(*canvas.Rectangle)
			if !ok {
				r = canvas.NewRectangle(o.color)
				obj = r
			}
			r.FillColor = o.color
			place(r, o.rect)
		case opImage:
			im, ok := obj.(*canvas.Image)
			if !ok {
				im = canvas.NewImageFromImage(o.img)
				im.FillMode = canvas.ImageFillStretch
				im.ScaleMode = canvas.ImageScaleSmooth
				obj = im
			}
			if im.Image != o.img {
				im.Image = o.img
			}
			im.Translucency = 1 - o.opacity
			place(im, o.rect)
		case opText:
			tx, ok := obj.(*canvas.Text)
			if !ok {
				tx = canvas.NewText(o.text, o.color)
				obj = tx
			}
			tx.Text = o.text
			tx.Color = o.color
			tx.TextSize = o.size
			tx.Move(fyne.NewPos(float32(o.rect.Min.X), float32(o.rect.Min.Y)))
			tx.Resize(tx.MinSize())
		}
		obj.Show()
		if i < len(s.slots) {
			s.slots[i] = obj
		} else {
			s.slots = append(s.slots, obj)
		}
		obj.Refresh()
	}
	for i := len(ops); i < len(s.slots); i++ {
		s.slots[i].Hide()
	}
}

func place(o fyne.CanvasObject, r image.Rectangle) {
	o.Move(fyne.NewPos(float32(r.Min.X), float32(r.Min.Y)))
	o.Resize(fyne.NewSize(float32(r.Dx()), float32(r.Dy())))
}

func (s *Screen) CreateRenderer() fyne.WidgetRenderer {
	return &screenRenderer{s: s}
}

type screenRenderer struct {
	s *Screen
}

func (r *screenRenderer) Layout(size fyne.Size) {
	r.s.mu.Lock()
	changed := r.s.size != size
	r.s.size = size
	r.s.mu.Unlock()
	if changed {
		logger.Debug("Screen resized", "width", size.Width, "height", size.Height)
	}
}

func (r *screenRenderer) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func (r *screenRenderer) Refresh() {}

func (r *screenRenderer) Objects() []fyne.CanvasObject { return r.s.slots }

func (r *screenRenderer) Destroy() {}
