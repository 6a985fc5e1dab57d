package main

import (
	"fmt"

	"backdrop-engine/core"
	"backdrop-engine/envshader"
	"backdrop-engine/internal/debugctl"
	"backdrop-engine/internal/opengl"
	"backdrop-engine/internal/window"
	"backdrop-engine/pipeline"
)

// runInteractive opens a window and drives frames until it closes.
func runInteractive(opts *options) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	log := opts.logger()

	wc := window.DefaultWindowConfig()
	wc.Width, wc.Height = cfg.Window.Width, cfg.Window.Height
	wc.Title = cfg.Window.Title
	wc.VSync = cfg.Window.VSync
	win, err := window.NewWindow(wc)
	if err != nil {
		return err
	}
	defer win.Destroy()

	vp := win.Viewport()
	if cfg.Window.PixelRatio > 0 {
		vp.PixelRatio = cfg.Window.PixelRatio
	}
	dev, err := opengl.NewDevice(vp.Width, vp.Height, log)
	if err != nil {
		return err
	}
	defer dev.Destroy()
	dev.SetFramebufferSize(win.GetFramebufferSize())

	ctl := debugctl.New(cfg.Profile(), log)
	defer ctl.Close()
	if cfg.Debug.ParamsFile != "" {
		if err := ctl.Watch(cfg.Debug.ParamsFile); err != nil {
			log.Warn("live params disabled", "err", err)
		}
	}

	st, err := pipeline.NewStage(dev, cfg, pipeline.StageOptions{Viewport: vp, Profile: ctl, Log: log})
	if err != nil {
		return err
	}
	defer st.Destroy()
	drv := st.Driver

	// ── Input ──
	var screenshot bool
	win.SetResizeCallback(func(v core.ViewportState) {
		if cfg.Window.PixelRatio > 0 {
			v.PixelRatio = cfg.Window.PixelRatio
		}
		dev.SetFramebufferSize(win.GetFramebufferSize())
		drv.Post(pipeline.ResizeEvent{Viewport: v})
	})
	win.SetCursorCallback(func(x, y float64) {
		drv.Post(pipeline.PointerMoveEvent{X: x, Y: y})
	})
	win.SetButtonCallback(func(button int, pressed bool) {
		if button == window.MouseButtonLeft {
			x, y := win.GetCursorPos()
			drv.Post(pipeline.PointerButtonEvent{Down: pressed, X: x, Y: y})
		}
	})
	win.SetScrollCallback(func(_, dy float64) {
		drv.Post(pipeline.ScrollEvent{DY: dy})
	})
	win.SetKeyCallback(func(key int, pressed bool) {
		if !pressed {
			return
		}
		switch key {
		case window.KeyEscape:
			win.Close()
		case window.KeyP:
			screenshot = true
		case window.Key0, window.Key1, window.Key2:
			ctl.HandleKey(rune('0' + key - window.Key0))
		}
	})

	log.Info("running", "profile", ctl.Profile(), "params", cfg.Debug.ParamsFile)
	shown := envshader.Profile(-1)
	for !win.ShouldClose() {
		win.PollEvents()
		if ctl.Poll() {
			st.Background.SetParams(ctl.Params(st.Background.Params()))
		}
		if p := ctl.Profile(); p != shown {
			win.SetTitle(fmt.Sprintf("%s [profile %s]", cfg.Window.Title, p))
			shown = p
		}
		if err := drv.Tick(); err != nil {
			return fmt.Errorf("tick: %w", err)
		}
		if screenshot {
			screenshot = false
			path := fmt.Sprintf("screenshot-%04d.png", drv.Stats().Frames)
			if err := writeImage(path, dev.ReadPixels()); err != nil {
				log.Warn("screenshot failed", "err", err)
			} else {
				log.Info("wrote screenshot", "path", path)
			}
		}
		win.SwapBuffers()
	}

	stats := drv.Stats()
	log.Info("closed", "frames", stats.Frames, "elapsed", stats.Elapsed)
	return nil
}
