// Package transition drives the fade between two slideshow images and the
// loading spinner shown while the next image is decoded.
//
// The engine is a plain state machine advanced by Update with the time
// elapsed since the previous frame. It is owned by the display loop and is
// not safe for concurrent use.
package transition

import (
	"math"
	"time"

	"github.com/oukeidos/walldisplay/internal/apperrors"
	"github.com/oukeidos/walldisplay/internal/loader"
	"github.com/oukeidos/walldisplay/internal/logger"
)

type Phase int

const (
	Idle Phase = iota
	FadingOut
	Loading
	FadingIn
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case FadingOut:
		return "fading_out"
	case Loading:
		return "loading"
	case FadingIn:
		return "fading_in"
	default:
		return "unknown"
	}
}

// DefaultSpinnerPeriod is one full spinner revolution.
const DefaultSpinnerPeriod = 1200 * time.Millisecond

type Options struct {
	Fade          time.Duration // shared by fade-in and fade-out; 0 switches instantly
	ErrorDisplay  time.Duration // how long the failure placeholder stays up
	SpinnerPeriod time.Duration
}

// State is the engine state. Previous is the image on screen before the
// current navigation; Next is the decoded replacement once it arrives.
type State struct {
	Phase      Phase
	Elapsed    time.Duration // time spent in the failure sub-state
	Previous   *loader.Entry
	Next       *loader.Entry
	Opacity    float64
	Failed     bool
	FailReason apperrors.Reason
}

// View is what the renderer needs for one frame.
type View struct {
	Phase        Phase
	Image        *loader.Entry
	Opacity      float64
	Spinner      bool
	SpinnerAngle float64 // radians
	SpinnerAlpha float64 // 0..1
	Failed       bool
}

type Engine struct {
	opts  Options
	st    State
	clock time.Duration

	// failPending holds a failure that arrived during a fade-out.
	failPending bool
}

func New(opts Options) *Engine {
	if opts.SpinnerPeriod <= 0 {
		opts.SpinnerPeriod = DefaultSpinnerPeriod
	}
	if opts.Fade < 0 {
		opts.Fade = 0
	}
	if opts.ErrorDisplay < 0 {
		opts.ErrorDisplay = 0
	}
	return &Engine{opts: opts}
}

// State returns a copy of the current state.
func (e *Engine) State() State { return e.st }

// Begin starts a navigation: the visible image fades out from its current
// opacity while the next one loads.
func (e *Engine) Begin() {
	e.failPending = false
	e.st.Failed = false
	e.st.FailReason = ""
	e.st.Elapsed = 0

	switch e.st.Phase {
	case Idle:
		if e.st.Previous == nil {
			e.st.Phase = Loading
			e.st.Opacity = 0
			return
		}
		e.st.Phase = FadingOut
		e.st.Opacity = 1
	case FadingIn:
		// The half-shown image fades out from where it is.
		e.st.Previous = e.st.Next
		e.st.Next = nil
		e.st.Phase = FadingOut
	case FadingOut:
		e.st.Next = nil
	case Loading:
	}
}

// Deliver hands over the image for the latest request.
func (e *Engine) Deliver(entry *loader.Entry) {
	if entry == nil {
		return
	}
	e.failPending = false
	e.st.Failed = false
	e.st.FailReason = ""
	e.st.Elapsed = 0

	switch e.st.Phase {
	case FadingOut:
		e.st.Next = entry
	case Loading:
		e.st.Next = entry
		e.st.Phase = FadingIn
		e.st.Opacity = 0
		if e.opts.Fade == 0 {
			e.finishFadeIn()
		}
	case Idle:
		e.st.Next = entry
		if e.st.Previous == nil {
			e.st.Phase = FadingIn
			e.st.Opacity = 0
			return
		}
		e.st.Phase = FadingOut
		e.st.Opacity = 1
	case FadingIn:
		e.st.Next = entry
	}
}

// Fail records that the latest request could not be loaded. The placeholder
// is shown for ErrorDisplay, after which the previous image comes back.
func (e *Engine) Fail(reason apperrors.Reason) {
	e.st.FailReason = reason
	switch e.st.Phase {
	case FadingOut:
		e.st.Next = nil
		e.failPending = true
		return
	case FadingIn:
		e.st.Previous = e.st.Next
		e.st.Next = nil
	case Idle, Loading:
		e.st.Next = nil
	}
	e.enterFailed()
}

// Clear drops both images and returns to Idle.
func (e *Engine) Clear() {
	e.st = State{Phase: Idle}
	e.failPending = false
}

// Update advances the engine by dt.
func (e *Engine) Update(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	e.clock += dt

	switch e.st.Phase {
	case FadingOut:
		e.st.Opacity = clamp01(e.st.Opacity - e.step(dt))
		if e.st.Opacity > 0 {
			return
		}
		switch {
		case e.failPending:
			e.failPending = false
			e.enterFailed()
		case e.st.Next != nil:
			e.st.Phase = FadingIn
			e.st.Opacity = 0
		default:
			e.st.Phase = Loading
		}
	case Loading:
		if !e.st.Failed {
			return
		}
		e.st.Elapsed += dt
		if e.st.Elapsed >= e.opts.ErrorDisplay {
			logger.Debug("Failure placeholder expired", "reason", e.st.FailReason)
			e.st.Failed = false
			e.st.FailReason = ""
			e.st.Elapsed = 0
			e.st.Phase = Idle
			if e.st.Previous != nil {
				e.st.Opacity = 1
			} else {
				e.st.Opacity = 0
			}
		}
	case FadingIn:
		e.st.Opacity = clamp01(e.st.Opacity + e.step(dt))
		if e.st.Opacity >= 1 {
			e.finishFadeIn()
		}
	case Idle:
	}
}

// View returns the render snapshot for the current state.
func (e *Engine) View() View {
	v := View{Phase: e.st.Phase, Opacity: e.st.Opacity, Failed: e.st.Failed}
	switch e.st.Phase {
	case Idle, FadingOut:
		v.Image = e.st.Previous
	case FadingIn:
		v.Image = e.st.Next
	case Loading:
		v.Opacity = 0
		if !e.st.Failed {
			v.Spinner = true
			v.SpinnerAngle, v.SpinnerAlpha = e.spinner()
		}
	}
	if v.Image == nil && e.st.Phase != Loading {
		v.Opacity = 0
	}
	return v
}

func (e *Engine) enterFailed() {
	e.st.Phase = Loading
	e.st.Failed = true
	e.st.Elapsed = 0
	e.st.Opacity = 0
}

func (e *Engine) finishFadeIn() {
	e.st.Previous = e.st.Next
	e.st.Next = nil
	e.st.Opacity = 1
	e.st.Phase = Idle
}

func (e *Engine) step(dt time.Duration) float64 {
	if e.opts.Fade <= 0 {
		return 1
	}
	return float64(dt) / float64(e.opts.Fade)
}

// spinner derives the angle and pulse from accumulated time, so the
// animation speed does not depend on the frame rate.
func (e *Engine) spinner() (angle, alpha float64) {
	period := e.opts.SpinnerPeriod
	phase := float64(e.clock%period) / float64(period)
	angle = 2 * math.Pi * phase
	alpha = 0.65 + 0.35*math.Cos(2*math.Pi*phase)
	return angle, alpha
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
