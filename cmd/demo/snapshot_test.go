package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"backdrop-engine/config"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := range 2 {
		for x := range 4 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 200), B: 40, A: 255})
		}
	}
	return img
}

func TestEncodeImage(t *testing.T) {
	img := testImage()

	var buf bytes.Buffer
	require.NoError(t, encodeImage(&buf, ".PNG", img))
	got, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), got.Bounds())
	assert.Equal(t, color.NRGBAModel.Convert(img.At(3, 1)), color.NRGBAModel.Convert(got.At(3, 1)))

	buf.Reset()
	require.NoError(t, encodeImage(&buf, ".webp", img))
	cfg, err := webp.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 2, cfg.Height)

	assert.ErrorIs(t, encodeImage(&buf, ".gif", img), ErrImageFormat)
}

func TestWriteImageRemovesFailedOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.bmp")
	assert.ErrorIs(t, writeImage(path, testImage()), ErrImageFormat)
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSnapshotWritesFrame(t *testing.T) {
	cfg := config.Default()
	cfg.Window.Width, cfg.Window.Height = 24, 16
	cfg.Backdrop.Width, cfg.Backdrop.Height = 16, 8
	cfg.Backdrop.Source = filepath.Join(t.TempDir(), "missing.png")
	cfg.Cube.Size = 4
	cfg.Torus.RadialSegments, cfg.Torus.TubularSegments = 4, 8
	cfg.Model.Path = ""

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, snapshot(cfg, snapshotOptions{output: path, frames: 2, fps: 30}, testLogger()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 24, 16), img.Bounds())
}

func TestSnapshotRejectsZeroFrames(t *testing.T) {
	assert.Error(t, snapshot(config.Default(), snapshotOptions{output: "x.png", fps: 60}, testLogger()))
}

func TestRootFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "demo.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[window]\nwidth = 640\nheight = 480\n"), 0o644))

	root := newRootCommand()
	snap, _, err := root.Find([]string{"snapshot"})
	require.NoError(t, err)
	require.NotNil(t, snap)

	opts := &options{flags: config.Flags{Profile: config.NoProfile}}
	opts.configPath = cfgPath
	opts.flags.Height = 200
	opts.flags.Profile = 2
	cfg, err := opts.load()
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 200, cfg.Window.Height)
	assert.Equal(t, 2, cfg.Backdrop.Profile)

	opts.flags.Profile = 5
	_, err = opts.load()
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
