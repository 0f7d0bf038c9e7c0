package tilemap

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

// Framebuffer is a rectangular RGBA8 pixel buffer the renderers draw into.
type Framebuffer struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel
}

// NewFramebuffer creates a framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the framebuffer.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the height of the framebuffer.
func (f *Framebuffer) Height() int { return f.height }

// Data returns the raw pixel data, row-major, four bytes per pixel with
// non-premultiplied alpha. Consumers that expect premultiplied bytes,
// such as ebiten.Image.WritePixels, use Premultiplied instead.
func (f *Framebuffer) Data() []uint8 { return f.data }

// Premultiplied returns a copy of the pixel data with each color channel
// scaled by its alpha. Opaque pixels pass through unchanged.
func (f *Framebuffer) Premultiplied() []uint8 {
	out := make([]uint8, len(f.data))
	for i := 0; i < len(f.data); i += 4 {
		a := f.data[i+3]
		if a == 255 {
			copy(out[i:i+4], f.data[i:i+4])
			continue
		}
		m := uint32(a)
		out[i+0] = uint8((uint32(f.data[i+0])*m + 127) / 255)
		out[i+1] = uint8((uint32(f.data[i+1])*m + 127) / 255)
		out[i+2] = uint8((uint32(f.data[i+2])*m + 127) / 255)
		out[i+3] = a
	}
	return out
}

// SetPixel sets the color of a single pixel. Out-of-bounds writes are
// dropped.
func (f *Framebuffer) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	n := f.pixelNRGBA(c)
	i := (y*f.width + x) * 4
	f.data[i+0] = n.R
	f.data[i+1] = n.G
	f.data[i+2] = n.B
	f.data[i+3] = n.A
}

// GetPixel returns the color of a single pixel.
func (f *Framebuffer) GetPixel(x, y int) RGBA {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return Transparent
	}
	i := (y*f.width + x) * 4
	return RGBA{
		R: float64(f.data[i+0]) / 255,
		G: float64(f.data[i+1]) / 255,
		B: float64(f.data[i+2]) / 255,
		A: float64(f.data[i+3]) / 255,
	}
}

// Clear fills the entire framebuffer with a color.
func (f *Framebuffer) Clear(c RGBA) {
	n := f.pixelNRGBA(c)
	for i := 0; i < len(f.data); i += 4 {
		f.data[i+0] = n.R
		f.data[i+1] = n.G
		f.data[i+2] = n.B
		f.data[i+3] = n.A
	}
}

func (f *Framebuffer) pixelNRGBA(c RGBA) color.NRGBA {
	return c.NRGBA()
}

// Image converts the framebuffer to an image.RGBA copy, premultiplying
// alpha to match that type's color model.
func (f *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	copy(img.Pix, f.Premultiplied())
	return img
}

// WritePNG encodes the framebuffer as PNG to w.
func (f *Framebuffer) WritePNG(w io.Writer) error {
	return png.Encode(w, f.Image())
}

// SavePNG saves the framebuffer to a PNG file.
func (f *Framebuffer) SavePNG(path string) error {
	out, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()
	return f.WritePNG(out)
}

// At implements the image.Image interface.
func (f *Framebuffer) At(x, y int) color.Color {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return color.NRGBA{}
	}
	i := (y*f.width + x) * 4
	return color.NRGBA{R: f.data[i+0], G: f.data[i+1], B: f.data[i+2], A: f.data[i+3]}
}

// Bounds implements the image.Image interface.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// ColorModel implements the image.Image interface.
func (f *Framebuffer) ColorModel() color.Model {
	return color.NRGBAModel
}
