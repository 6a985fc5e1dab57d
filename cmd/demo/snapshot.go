package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/spf13/cobra"

	"backdrop-engine/config"
	"backdrop-engine/core"
	"backdrop-engine/internal/software"
	"backdrop-engine/math"
	"backdrop-engine/model"
	"backdrop-engine/pipeline"
	"backdrop-engine/scene"
)

// ErrImageFormat means the output extension is neither .webp nor .png.
var ErrImageFormat = errors.New("demo: unsupported image format")

type snapshotOptions struct {
	output string
	frames int
	fps    float64
}

func newSnapshotCommand(opts *options) *cobra.Command {
	var so snapshotOptions
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render frames on the CPU and write the last one to an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return snapshot(cfg, so, opts.logger())
		},
	}
	cmd.Flags().StringVarP(&so.output, "output", "o", "frame.webp", "output image, .webp or .png")
	cmd.Flags().IntVarP(&so.frames, "frames", "n", 30, "frames to drive before writing")
	cmd.Flags().Float64Var(&so.fps, "fps", 60, "simulated frame rate")
	return cmd
}

// snapshot drives the pipeline on the software device with a manual clock.
// The model is loaded synchronously so the written frame always has it.
func snapshot(cfg *config.Config, so snapshotOptions, log *slog.Logger) error {
	if so.frames < 1 || so.fps <= 0 {
		return fmt.Errorf("snapshot: %d frames at %v fps", so.frames, so.fps)
	}

	vp := core.ViewportState{Width: cfg.Window.Width, Height: cfg.Window.Height, PixelRatio: 1}
	if cfg.Window.PixelRatio > 0 {
		vp.PixelRatio = cfg.Window.PixelRatio
	}
	dev := software.NewDevice(vp.Width, vp.Height, log)

	var m *model.Model
	if cfg.Model.Path != "" {
		res, err := scene.LoadGLTF(cfg.Model.Path)
		m = model.New(model.Resolved(res, err), model.Options{
			Name:        "model",
			Offset:      vec3(cfg.Model.Offset),
			StripMaps:   cfg.Model.StripMaps,
			PointerSway: cfg.Model.PointerSway,
		}, log)
	}

	clock := &pipeline.ManualClock{}
	st, err := pipeline.NewStage(dev, cfg, pipeline.StageOptions{Viewport: vp, Model: m, Clock: clock, Log: log})
	if err != nil {
		return err
	}
	defer st.Destroy()

	step := time.Duration(float64(time.Second) / so.fps)
	start := time.Now()
	for range so.frames {
		clock.Advance(step)
		if err := st.Driver.Tick(); err != nil {
			return err
		}
	}
	log.Info("rendered", "frames", so.frames, "took", time.Since(start), "stats", fmt.Sprintf("%+v", dev.Stats()))

	if err := writeImage(so.output, dev.Screen().Image()); err != nil {
		return err
	}
	log.Info("wrote snapshot", "path", so.output)
	return nil
}

func vec3(v [3]float32) math.Vec3 { return math.Vec3{X: v[0], Y: v[1], Z: v[2]} }

// writeImage picks the encoder from the file extension.
func writeImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := encodeImage(f, filepath.Ext(path), img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	return f.Close()
}

func encodeImage(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".webp":
		return nativewebp.Encode(w, img, nil)
	case ".png":
		return png.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", ErrImageFormat, ext)
}
