package playback

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oukeidos/walldisplay/internal/apperrors"
	"github.com/oukeidos/walldisplay/internal/loader"
	"github.com/oukeidos/walldisplay/internal/menu"
	"github.com/oukeidos/walldisplay/internal/scan"
	"github.com/oukeidos/walldisplay/internal/transition"
)

// fakeSource records submissions; the test decides when and in which order
// results come back.
type fakeSource struct {
	submitted []loader.Request
	queue     []loader.Result
}

func (f *fakeSource) Submit(req loader.Request) { f.submitted = append(f.submitted, req) }

func (f *fakeSource) TryReceive() (loader.Result, bool) {
	if len(f.queue) == 0 {
		return loader.Result{}, false
	}
	r := f.queue[0]
	f.queue = f.queue[1:]
	return r, true
}

func (f *fakeSource) complete(req loader.Request) {
	f.queue = append(f.queue, loader.Result{
		RequestID: req.ID, CategoryID: req.CategoryID, Path: req.Path,
		Entry: &loader.Entry{Path: req.Path},
	})
}

func (f *fakeSource) fail(req loader.Request, reason apperrors.Reason) {
	f.queue = append(f.queue, loader.Result{
		RequestID: req.ID, CategoryID: req.CategoryID, Path: req.Path,
		Err: apperrors.ImageLoad(reason, errors.New(req.Path)),
	})
}

func (f *fakeSource) last() loader.Request { return f.submitted[len(f.submitted)-1] }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func registry(t *testing.T, data string) *menu.Registry {
	t.Helper()
	cats, errs := menu.Parse(strings.NewReader(data))
	if len(errs) != 0 {
		t.Fatalf("menu errors: %v", errs)
	}
	return menu.NewRegistry(cats)
}

type fixture struct {
	ctrl   *Controller
	src    *fakeSource
	engine *transition.Engine
	clock  *clock
}

func newFixture(t *testing.T, data string, catalog scan.Catalog) fixture {
	t.Helper()
	src := &fakeSource{}
	eng := transition.New(transition.Options{Fade: 10 * time.Millisecond, ErrorDisplay: 50 * time.Millisecond})
	clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	ctrl := New(registry(t, data), catalog, eng, src, Options{
		ImageDelay: 15 * time.Second,
		StartDelay: 20 * time.Second,
		ImageWidth: 800, ImageHeight: 600,
		Now: clk.now,
	})
	return fixture{ctrl: ctrl, src: src, engine: eng, clock: clk}
}

const twoCategories = "1:eventos:1:Eventos:\n2:avisos:0:Avisos:x\n3:menu:1:Menu:\n"

func catalogTwo() scan.Catalog {
	return scan.Catalog{
		1: {"eventos/a.jpg", "eventos/b.jpg", "eventos/c.jpg"},
		3: {"menu/x.jpg", "menu/y.jpg"},
	}
}

func settle(f fixture) {
	f.ctrl.DrainResults()
	for i := 0; i < 10; i++ {
		f.engine.Update(10 * time.Millisecond)
	}
}

func TestStart_LoadsFirstImage(t *testing.T) {
	f := newFixture(t, twoCategories, catalogTwo())
	f.ctrl.Start()

	req := f.src.last()
	if req.ID != 1 || req.Path != "eventos/a.jpg" || req.CategoryID != 1 {
		t.Fatalf("request = %+v", req)
	}
	if req.Width != 800 || req.Height != 600 {
		t.Fatalf("fit box = %dx%d", req.Width, req.Height)
	}
	if s := f.ctrl.Snapshot(); s.Delay != 20*time.Second {
		t.Fatalf("armed delay = %v, want start delay", s.Delay)
	}
}

func TestOnlyLatestResultIsDisplayed(t *testing.T) {
	f := newFixture(t, twoCategories, catalogTwo())
	f.ctrl.Start()
	f.ctrl.AdvanceImage(1)
	f.ctrl.ChangeCategory(1)
	f.ctrl.AdvanceImage(1)
	f.ctrl.AdvanceImage(-1)

	reqs := f.src.submitted
	if len(reqs) != 5 {
		t.Fatalf("submitted %d requests, want 5", len(reqs))
	}
	// Complete in reverse issue order: the latest arrives first.
	for i := len(reqs) - 1; i >= 0; i-- {
		f.src.complete(reqs[i])
	}
	settle(f)

	st := f.engine.State()
	if st.Previous == nil || st.Previous.Path != "menu/x.jpg" {
		t.Fatalf("displayed %+v, want menu/x.jpg", st.Previous)
	}
	if s := f.ctrl.Snapshot(); s.Stale != 4 || s.LatestRequestID != 5 {
		t.Fatalf("snapshot = %+v", s)
	}
}

func TestLateFailureDoesNotOverrideLatest(t *testing.T) {
	f := newFixture(t, "1:eventos:1:Eventos:\n", scan.Catalog{1: {"missing.jpg", "ok.jpg"}})
	f.ctrl.Start()
	f.ctrl.AdvanceImage(1)

	first, second := f.src.submitted[0], f.src.submitted[1]
	f.src.complete(second)
	f.src.fail(first, apperrors.ReasonNotFound)
	settle(f)

	v := f.engine.View()
	if v.Failed {
		t.Fatalf("engine shows the failure of a stale request")
	}
	if v.Image == nil || v.Image.Path != "ok.jpg" {
		t.Fatalf("view = %+v, want ok.jpg", v)
	}
}

func TestChangeCategory_WrapsAndResetsIndex(t *testing.T) {
	f := newFixture(t, twoCategories, catalogTwo())
	f.ctrl.Start()
	f.ctrl.AdvanceImage(2)
	if s := f.ctrl.Snapshot(); s.ImageIndex != 2 {
		t.Fatalf("image index = %d", s.ImageIndex)
	}

	f.ctrl.ChangeCategory(1)
	s := f.ctrl.Snapshot()
	if s.CategoryIndex != 1 || s.ImageIndex != 0 || s.Category.Name != "Menu" {
		t.Fatalf("after +1: %+v", s)
	}
	f.ctrl.ChangeCategory(1)
	if s := f.ctrl.Snapshot(); s.CategoryIndex != 0 {
		t.Fatalf("+1 from last category = %d, want 0", s.CategoryIndex)
	}
	f.ctrl.ChangeCategory(-1)
	if s := f.ctrl.Snapshot(); s.CategoryIndex != 1 {
		t.Fatalf("-1 from first category = %d, want 1", s.CategoryIndex)
	}
}

func TestAdvanceImage_Wraps(t *testing.T) {
	f := newFixture(t, twoCategories, catalogTwo())
	f.ctrl.Start()

	cases := []struct {
		dir  int
		want string
	}{
		{-1, "eventos/c.jpg"},
		{1, "eventos/a.jpg"},
		{1, "eventos/b.jpg"},
		{1, "eventos/c.jpg"},
		{1, "eventos/a.jpg"},
	}
	for i, tc := range cases {
		f.ctrl.AdvanceImage(tc.dir)
		if got := f.src.last().Path; got != tc.want {
			t.Fatalf("step %d: path = %q, want %q", i, got, tc.want)
		}
	}
}

func TestAdvanceImage_SingleImageIsIdempotent(t *testing.T) {
	f := newFixture(t, "1:solo:1:Solo:\n", scan.Catalog{1: {"solo/only.png"}})
	f.ctrl.Start()
	for i := 0; i < 4; i++ {
		f.ctrl.AdvanceImage(1)
		f.ctrl.AdvanceImage(-1)
	}
	for _, req := range f.src.submitted {
		if req.Path != "solo/only.png" {
			t.Fatalf("request path = %q", req.Path)
		}
	}
}

func TestSingleEnabledCategory(t *testing.T) {
	f := newFixture(t, "1:eventos:1:Eventos:\n2:avisos:0:Avisos:x\n", scan.Catalog{1: {"eventos/a.jpg"}})
	f.ctrl.Start()
	before := len(f.src.submitted)

	f.ctrl.ChangeCategory(1)

	if len(f.src.submitted) != before {
		t.Fatalf("ChangeCategory issued a load with one category")
	}
	if s := f.ctrl.Snapshot(); s.CategoryIndex != 0 || s.Category.Dir != "eventos" {
		t.Fatalf("snapshot = %+v", s)
	}
}

func TestEmptyCategory(t *testing.T) {
	f := newFixture(t, twoCategories, scan.Catalog{1: {"eventos/a.jpg"}})
	f.ctrl.Start()
	f.src.complete(f.src.last())
	settle(f)

	f.ctrl.ChangeCategory(1)
	if v := f.engine.View(); v.Image != nil {
		t.Fatalf("empty category still shows %q", v.Image.Path)
	}
	before := len(f.src.submitted)
	f.ctrl.AdvanceImage(1)
	if len(f.src.submitted) != before {
		t.Fatalf("AdvanceImage on empty category issued a load")
	}
}

func TestOnTick_Delays(t *testing.T) {
	f := newFixture(t, twoCategories, catalogTwo())
	f.ctrl.Start()

	f.clock.advance(19 * time.Second)
	if f.ctrl.OnTick(f.clock.now()) {
		t.Fatalf("advanced before the start delay")
	}
	f.clock.advance(time.Second)
	if !f.ctrl.OnTick(f.clock.now()) {
		t.Fatalf("did not advance after the start delay")
	}
	if s := f.ctrl.Snapshot(); s.ImageIndex != 1 || s.Delay != 15*time.Second {
		t.Fatalf("snapshot = %+v", s)
	}

	f.clock.advance(15 * time.Second)
	if !f.ctrl.OnTick(f.clock.now()) {
		t.Fatalf("did not advance after the image delay")
	}

	// Manual navigation re-arms the longer start delay.
	f.ctrl.AdvanceImage(1)
	f.clock.advance(15 * time.Second)
	if f.ctrl.OnTick(f.clock.now()) {
		t.Fatalf("advanced within the start delay after manual navigation")
	}
}

func TestTogglePause(t *testing.T) {
	f := newFixture(t, twoCategories, catalogTwo())
	f.ctrl.Start()
	f.ctrl.TogglePause()

	f.clock.advance(time.Minute)
	if f.ctrl.OnTick(f.clock.now()) {
		t.Fatalf("advanced while paused")
	}

	// Manual navigation still works while paused.
	before := len(f.src.submitted)
	f.ctrl.AdvanceImage(1)
	if len(f.src.submitted) != before+1 {
		t.Fatalf("manual navigation ignored while paused")
	}

	f.ctrl.TogglePause()
	if s := f.ctrl.Snapshot(); s.Paused || s.Delay != 15*time.Second || !s.LastAdvance.Equal(f.clock.now()) {
		t.Fatalf("after resume: %+v", s)
	}
	f.clock.advance(14 * time.Second)
	if f.ctrl.OnTick(f.clock.now()) {
		t.Fatalf("advanced before a full image delay after resume")
	}
}

func TestApplyCatalog(t *testing.T) {
	f := newFixture(t, twoCategories, catalogTwo())
	f.ctrl.Start()
	f.ctrl.AdvanceImage(1) // eventos/b.jpg
	before := len(f.src.submitted)

	f.ctrl.ApplyCatalog(scan.Catalog{1: {"eventos/0.jpg", "eventos/b.jpg"}, 3: {"menu/x.jpg"}})
	if s := f.ctrl.Snapshot(); s.ImageIndex != 1 || s.CurrentPath != "eventos/b.jpg" {
		t.Fatalf("snapshot = %+v", s)
	}
	if len(f.src.submitted) != before {
		t.Fatalf("reload issued although the current image survived")
	}

	f.ctrl.ApplyCatalog(scan.Catalog{1: {"eventos/z.jpg"}})
	if got := f.src.last().Path; got != "eventos/z.jpg" {
		t.Fatalf("reload path = %q", got)
	}
}
