package main

import (
	"context"
	"image"
	"time"

	"github.com/oukeidos/walldisplay/internal/display"
	"github.com/oukeidos/walldisplay/internal/logger"
	"github.com/oukeidos/walldisplay/internal/menu"
	"github.com/oukeidos/walldisplay/internal/playback"
	"github.com/oukeidos/walldisplay/internal/scan"
	"github.com/oukeidos/walldisplay/internal/transition"
)

// session is the display loop. It owns the controller, the engine and the
// playback state; nothing else touches them.
type session struct {
	reg    *menu.Registry
	ctrl   *playback.Controller
	engine *transition.Engine
	canvas display.Canvas
	input  display.InputSource
	layout display.Layout
	theme  display.Theme

	// updates is nil when content watching is off.
	updates func() (scan.Catalog, bool)

	started bool
	size    image.Point
	last    time.Time
}

// run steps the session every interval until ctx ends or quit is requested.
func (s *session) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.step(now) {
				return
			}
		}
	}
}

// step runs one frame: input, catalogue refresh, loader results, timer,
// animation and render. It returns false once quit was requested.
func (s *session) step(now time.Time) bool {
	size := s.canvas.Extent()
	if size.X <= 0 || size.Y <= 0 {
		// The window is not laid out yet.
		return true
	}
	if size != s.size {
		s.size = size
		area := display.ImageArea(size, s.layout.MenuWidth)
		s.ctrl.SetImageBounds(area.Dx(), area.Dy())
	}
	if !s.started {
		s.started = true
		s.last = now
		s.ctrl.Start()
	}

	for {
		key, ok := s.input.PollInput()
		if !ok {
			break
		}
		if !s.handleKey(key) {
			return false
		}
	}

	if s.updates != nil {
		if c, ok := s.updates(); ok {
			s.ctrl.ApplyCatalog(c)
		}
	}
	s.ctrl.DrainResults()
	s.ctrl.OnTick(now)

	dt := now.Sub(s.last)
	s.last = now
	s.engine.Update(dt)

	snap := s.ctrl.Snapshot()
	display.Render(s.canvas, display.Frame{
		Categories: s.reg.Names(),
		Active:     snap.CategoryIndex,
		View:       s.engine.View(),
		Paused:     snap.Paused,
		Empty:      snap.ImageCount == 0,
	}, s.layout, s.theme)
	return true
}

func (s *session) handleKey(k display.Key) bool {
	logger.Debug("Key", "command", k.String())
	switch k {
	case display.KeyQuit:
		logger.Info("Quit requested")
		return false
	case display.KeyPause:
		s.ctrl.TogglePause()
	case display.KeyNextCategory:
		s.ctrl.ChangeCategory(1)
	case display.KeyPrevCategory:
		s.ctrl.ChangeCategory(-1)
	case display.KeyNextImage:
		s.ctrl.AdvanceImage(1)
	case display.KeyPrevImage:
		s.ctrl.AdvanceImage(-1)
	}
	return true
}
