package scene

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Mapping tells the renderer how to project a texture.
type Mapping int

const (
	MappingUV Mapping = iota
	MappingEquirectangular
	MappingCube
)

func (m Mapping) String() string {
	switch m {
	case MappingEquirectangular:
		return "equirectangular"
	case MappingCube:
		return "cube"
	default:
		return "uv"
	}
}

// Format is the texel storage of a texture or render target.
type Format int

const (
	FormatRGBA8 Format = iota
	FormatHalfFloat
	FormatFloat
)

func (f Format) String() string {
	switch f {
	case FormatHalfFloat:
		return "half-float"
	case FormatFloat:
		return "float"
	default:
		return "rgba8"
	}
}

// Texture is either CPU-side RGBA8 pixel data waiting for upload, or a
// handle to a render target's color attachment (Pixels nil, Source set).
type Texture struct {
	Name    string
	Width   int
	Height  int
	Format  Format
	Mapping Mapping
	Cube    bool

	// Pixels in RGBA8 format (4 bytes per pixel, row-major, top-to-bottom).
	Pixels []byte

	// Version increases whenever Pixels changes; backends re-upload on change.
	Version uint64

	// GLID is the OpenGL texture object ID, set by the OpenGL backend.
	GLID uint32
	// Source is the backend object behind a render-target texture.
	Source any
}

// MarkUpdated flags new pixel data for upload.
func (t *Texture) MarkUpdated() {
	t.Version++
}

// IsRenderTarget reports whether the texture is a render target attachment.
func (t *Texture) IsRenderTarget() bool {
	return t.Pixels == nil && t.Source != nil
}

// TextureOptions controls decoding.
type TextureOptions struct {
	// MaxSize bounds the longest edge; larger images are resampled with
	// Catmull-Rom. Zero keeps the original size.
	MaxSize int
}

// LoadTexture reads a PNG, JPEG, TGA, BMP or WebP file from disk.
// The image is converted to RGBA8 automatically.
func LoadTexture(path string, opts TextureOptions) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	tex, err := DecodeTexture(path, f, opts)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}
	return tex, nil
}

// DecodeTexture decodes a PNG, JPEG, BMP or WebP image from r, picked by
// its magic bytes. TGA has no magic, so it is only tried when name ends
// in .tga.
func DecodeTexture(name string, r io.Reader, opts TextureOptions) (*Texture, error) {
	img, err := decodeImage(name, r)
	if err != nil {
		return nil, err
	}
	return NewTextureFromImage(name, img, opts), nil
}

// The tga package registers itself with an empty magic that matches any
// input, so image.Decode cannot be used once it is linked.
func decodeImage(name string, r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(12)
	switch {
	case bytes.HasPrefix(head, []byte("\x89PNG\r\n\x1a\n")):
		return png.Decode(br)
	case bytes.HasPrefix(head, []byte{0xff, 0xd8, 0xff}):
		return jpeg.Decode(br)
	case bytes.HasPrefix(head, []byte("BM")):
		return bmp.Decode(br)
	case len(head) == 12 && string(head[:4]) == "RIFF" && string(head[8:]) == "WEBP":
		return webp.Decode(br)
	case strings.EqualFold(filepath.Ext(name), ".tga"):
		return tga.Decode(br)
	}
	return nil, image.ErrFormat
}

// decodeImageBytes decodes an embedded image into an RGBA8 texture.
func decodeImageBytes(name string, data []byte) (*Texture, error) {
	return DecodeTexture(name, bytes.NewReader(data), TextureOptions{})
}

// NewTextureFromImage converts img to RGBA8, resampling when it exceeds MaxSize.
func NewTextureFromImage(name string, img image.Image, opts TextureOptions) *Texture {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if opts.MaxSize > 0 && (w > opts.MaxSize || h > opts.MaxSize) {
		if w >= h {
			h = max(1, h*opts.MaxSize/w)
			w = opts.MaxSize
		} else {
			w = max(1, w*opts.MaxSize/h)
			h = opts.MaxSize
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, bounds, draw.Src, nil)
	}

	return &Texture{
		Name:    name,
		Width:   w,
		Height:  h,
		Format:  FormatRGBA8,
		Pixels:  rgba.Pix,
		Version: 1,
	}
}

// NewSolidTexture creates a 1x1 texture with the given RGBA color values (0–255).
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	return &Texture{
		Name:    name,
		Width:   1,
		Height:  1,
		Format:  FormatRGBA8,
		Pixels:  []byte{r, g, b, a},
		Version: 1,
	}
}
