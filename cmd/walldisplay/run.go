package main

import (
	"fmt"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"github.com/oukeidos/walldisplay/internal/cleanup"
	"github.com/oukeidos/walldisplay/internal/display"
	"github.com/oukeidos/walldisplay/internal/display/fyneview"
	"github.com/oukeidos/walldisplay/internal/loader"
	"github.com/oukeidos/walldisplay/internal/logger"
	"github.com/oukeidos/walldisplay/internal/playback"
	"github.com/oukeidos/walldisplay/internal/transition"
	"github.com/oukeidos/walldisplay/internal/version"
	"github.com/oukeidos/walldisplay/internal/watch"
)

const appID = "io.github.oukeidos.walldisplay"

func runDisplay(_ *cobra.Command, global *globalOptions, o *runOptions) error {
	st, err := prepare(global)
	if err != nil {
		return err
	}
	cfg := st.cfg
	if o.windowed {
		cfg.Window.Fullscreen = false
	}

	ctx, stop := signalContext()
	defer stop()

	a := app.NewWithID(appID)
	w := a.NewWindow("walldisplay")
	w.SetPadded(false)
	w.SetMaster()

	screen := fyneview.NewScreen()
	w.SetContent(screen)
	screen.Bind(w)
	if cfg.Window.Fullscreen {
		w.SetFullScreen(true)
	} else {
		w.Resize(fyne.NewSize(float32(cfg.Window.Width), float32(cfg.Window.Height)))
		w.CenterOnScreen()
	}

	ld := loader.New(loader.NewFitDecoder())
	cleanup.Register("loader", ld.Close)

	engine := transition.New(transition.Options{
		Fade:         cfg.Slideshow.FadeSpeed(),
		ErrorDisplay: cfg.Slideshow.ErrorDisplay(),
	})
	ctrl := playback.New(st.reg, st.catalog, engine, ld, playback.Options{
		ImageDelay: cfg.Slideshow.ImageDelay(),
		StartDelay: cfg.Slideshow.StartDelay(),
	})

	sess := &session{
		reg:    st.reg,
		ctrl:   ctrl,
		engine: engine,
		canvas: screen,
		input:  screen,
		layout: display.DefaultLayout(cfg.Window.MenuWidth),
		theme:  display.ThemeFrom(cfg),
	}

	if cfg.Content.Watch {
		wt, err := watch.New(global.dir, st.reg.Categories(), cfg.Content.Debounce())
		if err != nil {
			logger.Warn("Content watching disabled", "dir", global.dir, "error", err)
		} else {
			cleanup.Register("watcher", wt.Close)
			sess.updates = wt.Poll
			safeGo("content.watch", func() { wt.Run(ctx) })
		}
	}

	var loopPanic atomic.Value
	safeGo("display.loop", func() {
		withPanicGuard("display.loop.step", func(r any) {
			loopPanic.Store(fmt.Sprint(r))
		}, func() {
			sess.run(ctx, cfg.Window.FrameInterval())
		})
		safeDo("app.quit", a.Quit)
	})

	logger.Info("Display started",
		"version", version.Version,
		"fullscreen", cfg.Window.Fullscreen,
		"fps", cfg.Window.FPS,
		"categories", st.reg.Len())
	w.ShowAndRun()
	stop()

	stats := ld.Stats()
	logger.Info("Display stopped",
		"loads", stats.Submitted,
		"superseded", stats.Superseded,
		"decoded", stats.Decoded,
		"failed", stats.Failed)

	if r := loopPanic.Load(); r != nil {
		return fmt.Errorf("display loop stopped: %v", r)
	}
	return nil
}
