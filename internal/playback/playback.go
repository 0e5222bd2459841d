// Package playback owns the slideshow position: which category and image are
// current, whether auto-advance is paused, and which load request is the
// latest one. It issues loads, filters stale results and feeds the
// transition engine.
package playback

import (
	"time"

	"github.com/oukeidos/walldisplay/internal/apperrors"
	"github.com/oukeidos/walldisplay/internal/loader"
	"github.com/oukeidos/walldisplay/internal/logger"
	"github.com/oukeidos/walldisplay/internal/menu"
	"github.com/oukeidos/walldisplay/internal/scan"
	"github.com/oukeidos/walldisplay/internal/transition"
)

// Source is the part of the loader the controller uses.
type Source interface {
	Submit(req loader.Request)
	TryReceive() (loader.Result, bool)
}

// Engine is the part of the transition engine the controller drives.
type Engine interface {
	Begin()
	Deliver(entry *loader.Entry)
	Fail(reason apperrors.Reason)
	Clear()
}

var _ Engine = (*transition.Engine)(nil)

type Options struct {
	ImageDelay time.Duration
	StartDelay time.Duration
	// ImageWidth and ImageHeight bound the decoded surfaces.
	ImageWidth  int
	ImageHeight int
	// Now defaults to time.Now.
	Now func() time.Time
}

// State is the playback position.
type State struct {
	CategoryIndex int
	ImageIndex    int
	Paused        bool
	LastAdvance   time.Time
	Delay         time.Duration
}

// Snapshot is a read-only copy for rendering and tests.
type Snapshot struct {
	State
	Category        menu.Category
	ImageCount      int
	CurrentPath     string
	LatestRequestID uint64
	Stale           uint64
}

type Controller struct {
	reg     *menu.Registry
	catalog scan.Catalog
	engine  Engine
	src     Source
	opts    Options

	st     State
	latest uint64
	stale  uint64
}

func New(reg *menu.Registry, catalog scan.Catalog, engine Engine, src Source, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if catalog == nil {
		catalog = scan.Catalog{}
	}
	return &Controller{reg: reg, catalog: catalog, engine: engine, src: src, opts: opts}
}

// Start arms the start delay and loads the first image of the first category.
func (c *Controller) Start() {
	c.st.LastAdvance = c.opts.Now()
	c.st.Delay = c.opts.StartDelay
	c.loadCurrent()
}

// AdvanceImage moves dir images forward (negative: backward), wrapping.
func (c *Controller) AdvanceImage(dir int) {
	paths := c.currentPaths()
	if len(paths) == 0 {
		cat := c.reg.At(c.st.CategoryIndex)
		logger.Warn("Cannot advance image", "category", cat.Name,
			"error", apperrors.EmptyCategory("category "+cat.Name+" has no images"))
		return
	}
	c.st.ImageIndex = wrap(c.st.ImageIndex+dir, len(paths))
	c.rearm(c.opts.StartDelay)
	c.loadCurrent()
}

// ChangeCategory moves dir categories forward (negative: backward), wrapping,
// and starts from the first image. With a single category it does nothing.
func (c *Controller) ChangeCategory(dir int) {
	n := c.reg.Len()
	if n <= 1 {
		logger.Debug("Category change ignored", "enabled", n)
		return
	}
	c.st.CategoryIndex = wrap(c.st.CategoryIndex+dir, n)
	c.st.ImageIndex = 0
	c.rearm(c.opts.StartDelay)
	logger.Info("Category changed", "category", c.reg.At(c.st.CategoryIndex).Name)
	c.loadCurrent()
}

// TogglePause flips auto-advance. Resuming waits a full image delay.
func (c *Controller) TogglePause() {
	c.st.Paused = !c.st.Paused
	if !c.st.Paused {
		c.rearm(c.opts.ImageDelay)
	}
	logger.Info("Playback toggled", "paused", c.st.Paused)
}

// OnTick advances to the next image once the armed delay has passed.
// It reports whether it advanced.
func (c *Controller) OnTick(now time.Time) bool {
	if c.st.Paused || now.Sub(c.st.LastAdvance) < c.st.Delay {
		return false
	}
	c.st.LastAdvance = now
	c.st.Delay = c.opts.ImageDelay
	paths := c.currentPaths()
	if len(paths) == 0 {
		return false
	}
	c.st.ImageIndex = wrap(c.st.ImageIndex+1, len(paths))
	c.loadCurrent()
	return true
}

// DrainResults consumes every pending loader result. Only the result for the
// latest request reaches the engine; it reports whether one did.
func (c *Controller) DrainResults() bool {
	applied := false
	for {
		res, ok := c.src.TryReceive()
		if !ok {
			return applied
		}
		if res.RequestID != c.latest {
			c.stale++
			logger.Debug("Discarding stale result", "request_id", res.RequestID, "latest", c.latest)
			continue
		}
		applied = true
		if res.Err != nil {
			reason, _ := apperrors.ReasonOf(res.Err)
			c.engine.Fail(reason)
			continue
		}
		c.engine.Deliver(res.Entry)
	}
}

// ApplyCatalog swaps in a rescanned catalogue. The image on screen stays
// when its path is still listed; otherwise the category restarts at its
// first image.
func (c *Controller) ApplyCatalog(catalog scan.Catalog) {
	if catalog == nil {
		catalog = scan.Catalog{}
	}
	current := c.currentPath()
	c.catalog = catalog

	paths := c.currentPaths()
	for i, p := range paths {
		if p == current && current != "" {
			c.st.ImageIndex = i
			logger.Debug("Catalog refreshed", "images", catalog.Total(), "kept", p)
			return
		}
	}
	logger.Info("Catalog refreshed, reloading category", "images", catalog.Total())
	c.st.ImageIndex = 0
	c.loadCurrent()
}

// SetImageBounds changes the fit box for loads issued from now on.
func (c *Controller) SetImageBounds(width, height int) {
	c.opts.ImageWidth = width
	c.opts.ImageHeight = height
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:           c.st,
		Category:        c.reg.At(c.st.CategoryIndex),
		ImageCount:      len(c.currentPaths()),
		CurrentPath:     c.currentPath(),
		LatestRequestID: c.latest,
		Stale:           c.stale,
	}
}

func (c *Controller) loadCurrent() {
	// Every load bumps the id, even when nothing is submitted, so a late
	// result for the previous category can never match.
	c.latest++
	cat := c.reg.At(c.st.CategoryIndex)
	paths := c.catalog.Paths(cat.ID)
	if len(paths) == 0 {
		logger.Warn("Category is empty", "category", cat.Name,
			"error", apperrors.EmptyCategory("category "+cat.Name+" has no images"))
		c.engine.Clear()
		return
	}
	if c.st.ImageIndex >= len(paths) {
		c.st.ImageIndex = 0
	}
	path := paths[c.st.ImageIndex]
	c.engine.Begin()
	c.src.Submit(loader.Request{
		ID:         c.latest,
		CategoryID: cat.ID,
		Path:       path,
		Width:      c.opts.ImageWidth,
		Height:     c.opts.ImageHeight,
	})
	logger.Debug("Load requested", "request_id", c.latest, "category", cat.Name, "path", path)
}

func (c *Controller) rearm(d time.Duration) {
	c.st.LastAdvance = c.opts.Now()
	c.st.Delay = d
}

func (c *Controller) currentPaths() []string {
	return c.catalog.Paths(c.reg.At(c.st.CategoryIndex).ID)
}

func (c *Controller) currentPath() string {
	paths := c.currentPaths()
	if c.st.ImageIndex < 0 || c.st.ImageIndex >= len(paths) {
		return ""
	}
	return paths[c.st.ImageIndex]
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
