package preview

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // texture decoders
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/JPM1118/matthumb/internal/assets"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureLocator finds the file behind a texture GUID.
type TextureLocator interface {
	Lookup(guid string) (string, bool)
}

// Render draws a size x size preview of m. When the main texture is found
// it is scaled to fill the preview and tinted by the base color; otherwise
// the preview is a flat swatch of the base color. A texture that exists but
// cannot be decoded is an error.
func Render(m *assets.Material, loc TextureLocator, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid preview size %d", size)
	}
	base := m.BaseColor()
	dst := image.NewRGBA(image.Rect(0, 0, size, size))

	if slot, ok := m.MainTexture(); ok && loc != nil {
		if path, found := loc.Lookup(slot.Texture.GUID); found {
			src, err := decodeFile(path)
			if err != nil {
				return nil, fmt.Errorf("main texture %s: %w", path, err)
			}
			draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
			tint(dst, base)
			return dst, nil
		}
	}

	draw.Draw(dst, dst.Bounds(), image.NewUniform(toNRGBA(base)), image.Point{}, draw.Src)
	return dst, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty image")
	}
	return img, nil
}

// tint multiplies premultiplied pixels by c in place.
func tint(img *image.RGBA, c assets.Color) {
	r, g, b, a := clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)
	if r == 1 && g == 1 && b == 1 && a == 1 {
		return
	}
	p := img.Pix
	for i := 0; i+3 < len(p); i += 4 {
		p[i+0] = scale8(p[i+0], r*a)
		p[i+1] = scale8(p[i+1], g*a)
		p[i+2] = scale8(p[i+2], b*a)
		p[i+3] = scale8(p[i+3], a)
	}
}

func scale8(v uint8, f float64) uint8 {
	return uint8(math.Round(float64(v) * f))
}

func toNRGBA(c assets.Color) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(clamp01(c.R) * 255)),
		G: uint8(math.Round(clamp01(c.G) * 255)),
		B: uint8(math.Round(clamp01(c.B) * 255)),
		A: uint8(math.Round(clamp01(c.A) * 255)),
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
