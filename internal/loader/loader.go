// Package loader decodes slideshow images off the display loop.
//
// Submissions go into a single-slot mailbox: a new request overwrites one the
// worker has not claimed yet. Results are tagged with the request id and
// published on a buffered channel that the display loop polls without
// waiting. Superseded work is never cancelled; the consumer discards stale
// results by id.
package loader

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/oukeidos/walldisplay/internal/apperrors"
	"github.com/oukeidos/walldisplay/internal/logger"
)

// DefaultResultBuffer is the capacity of the result channel.
const DefaultResultBuffer = 8

// Entry is a decoded, display-ready image.
type Entry struct {
	Path    string
	Surface *image.NRGBA
}

// Request asks for one image. Width and Height bound the decoded surface;
// zero keeps the natural size.
type Request struct {
	ID         uint64
	CategoryID int
	Path       string
	Width      int
	Height     int
}

// Result is the outcome of a Request. Exactly one of Entry and Err is set.
type Result struct {
	RequestID  uint64
	CategoryID int
	Path       string
	Entry      *Entry
	Err        error
}

// Decoder turns a file into a surface no larger than width x height.
type Decoder interface {
	Decode(path string, width, height int) (*image.NRGBA, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(path string, width, height int) (*image.NRGBA, error)

func (f DecoderFunc) Decode(path string, width, height int) (*image.NRGBA, error) {
	return f(path, width, height)
}

// Stats is a snapshot of the loader counters.
type Stats struct {
	Submitted  uint64
	Superseded uint64 // overwritten in the mailbox before the worker claimed them
	Decoded    uint64
	Failed     uint64
	Dropped    uint64 // evicted from a full result channel
}

type Loader struct {
	decoder Decoder

	mu      sync.Mutex
	cond    *sync.Cond
	pending *Request
	closed  bool

	results chan Result
	wg      sync.WaitGroup
	once    sync.Once

	submitted  atomic.Uint64
	superseded atomic.Uint64
	decoded    atomic.Uint64
	failed     atomic.Uint64
	dropped    atomic.Uint64
}

// Option configures a Loader.
type Option func(*Loader)

// WithResultBuffer sets the result channel capacity (minimum 1).
func WithResultBuffer(n int) Option {
	return func(l *Loader) {
		if n < 1 {
			n = 1
		}
		l.results = make(chan Result, n)
	}
}

// New starts a loader with one worker goroutine.
func New(decoder Decoder, opts ...Option) *Loader {
	l := &Loader{
		decoder: decoder,
		results: make(chan Result, DefaultResultBuffer),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.cond = sync.NewCond(&l.mu)

	l.wg.Add(1)
	go l.worker()
	return l
}

// Submit enqueues a decode job and returns immediately.
func (l *Loader) Submit(req Request) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if l.pending != nil {
		l.superseded.Add(1)
		logger.Debug("Load request superseded", "request_id", l.pending.ID, "by", req.ID)
	}
	l.pending = &req
	l.submitted.Add(1)
	l.cond.Signal()
	l.mu.Unlock()
}

// TryReceive returns a pending result without waiting.
func (l *Loader) TryReceive() (Result, bool) {
	select {
	case r := <-l.results:
		return r, true
	default:
		return Result{}, false
	}
}

// Stats returns the current counters.
func (l *Loader) Stats() Stats {
	return Stats{
		Submitted:  l.submitted.Load(),
		Superseded: l.superseded.Load(),
		Decoded:    l.decoded.Load(),
		Failed:     l.failed.Load(),
		Dropped:    l.dropped.Load(),
	}
}

// Close stops the worker. An unclaimed request is discarded; a decode in
// progress finishes first. Close is safe to call more than once.
func (l *Loader) Close() error {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.pending = nil
		l.cond.Broadcast()
		l.mu.Unlock()
		l.wg.Wait()
	})
	return nil
}

func (l *Loader) worker() {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		for l.pending == nil && !l.closed {
			l.cond.Wait()
		}
		if l.closed {
			l.mu.Unlock()
			return
		}
		req := *l.pending
		l.pending = nil
		l.mu.Unlock()

		l.publish(l.load(req))
	}
}

func (l *Loader) load(req Request) (res Result) {
	res = Result{RequestID: req.ID, CategoryID: req.CategoryID, Path: req.Path}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered panic", "scope", "loader.decode", "panic", fmt.Sprint(r))
			res.Entry = nil
			res.Err = apperrors.ImageLoad(apperrors.ReasonPanic, fmt.Errorf("decode %s: %v", req.Path, r))
			l.failed.Add(1)
		}
	}()

	surface, err := l.decoder.Decode(req.Path, req.Width, req.Height)
	if err != nil {
		l.failed.Add(1)
		if _, ok := apperrors.KindOf(err); !ok {
			err = apperrors.ImageLoad(apperrors.ReasonDecode, err)
		}
		reason, _ := apperrors.ReasonOf(err)
		logger.Warn("Image load failed", "request_id", req.ID, "path", req.Path, "reason", reason, "error", err)
		res.Err = err
		return res
	}
	l.decoded.Add(1)
	b := surface.Bounds()
	logger.Debug("Image decoded", "request_id", req.ID, "path", req.Path, "width", b.Dx(), "height", b.Dy())
	res.Entry = &Entry{Path: req.Path, Surface: surface}
	return res
}

// publish never blocks: when the channel is full the oldest result is evicted.
func (l *Loader) publish(res Result) {
	for {
		select {
		case l.results <- res:
			return
		default:
		}
		select {
		case old := <-l.results:
			l.dropped.Add(1)
			logger.Debug("Result evicted", "request_id", old.RequestID)
		default:
		}
	}
}
