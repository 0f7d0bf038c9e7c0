package tilemap

import (
	"math"

	"github.com/gogpu/tilemap/internal/parallel"
)

// SoftwareRenderer rasterizes frames on the CPU.
//
// Every pixel is a pure function of the immutable frame buffers, so the
// target is split into horizontal bands rendered in parallel by a worker
// pool. Within a band, instances are processed in draw order, which keeps
// painter's semantics: the last instance covering a pixel wins.
//
// SoftwareRenderer is safe for concurrent use after creation, but two
// concurrent Render calls must target different framebuffers.
type SoftwareRenderer struct {
	pool *parallel.WorkerPool
}

// NewSoftwareRenderer creates a software renderer with GOMAXPROCS workers.
func NewSoftwareRenderer() *SoftwareRenderer {
	return &SoftwareRenderer{pool: parallel.NewWorkerPool(0)}
}

// NewSoftwareRendererWithWorkers creates a software renderer with a
// specific worker count. If workers <= 0, GOMAXPROCS is used.
func NewSoftwareRendererWithWorkers(workers int) *SoftwareRenderer {
	return &SoftwareRenderer{pool: parallel.NewWorkerPool(workers)}
}

// Close shuts down the worker pool. The renderer must not be used after.
func (sw *SoftwareRenderer) Close() {
	sw.pool.Close()
}

// Render draws the frame. The framebuffer is first cleared to transparent
// black, so a draw replaces the previous contents the same way the GPU
// path's cleared render target does. A zero-valued Uniforms.Resolution
// defaults to the framebuffer size.
func (sw *SoftwareRenderer) Render(fb *Framebuffer, frame *Frame) error {
	if fb == nil || frame == nil {
		return ErrNoFrame
	}
	if len(frame.Graphics) == 0 || len(frame.Palette) == 0 {
		return ErrNoFrame
	}
	fb.Clear(Transparent)

	u := frame.Uniforms
	if u.Resolution.X == 0 && u.Resolution.Y == 0 {
		u.Resolution = Vec2{X: float32(fb.Width()), Y: float32(fb.Height())}
	}

	quads := make([][4]Vertex, len(frame.Instances))
	for i, inst := range frame.Instances {
		quads[i] = PlaceQuad(inst, u)
	}

	bands := parallel.Bands(fb.Height(), sw.pool.Workers()*4)
	Logger().Debug("software render",
		"instances", len(frame.Instances), "bands", len(bands))

	work := make([]func(), len(bands))
	for i, band := range bands {
		b := band
		work[i] = func() {
			sw.renderBand(fb, frame, quads, b)
		}
	}
	sw.pool.ExecuteAll(work)

	return nil
}

// renderBand draws every instance clipped to rows [band.Y0, band.Y1).
func (sw *SoftwareRenderer) renderBand(fb *Framebuffer, frame *Frame, quads [][4]Vertex, band parallel.Band) {
	w := fb.Width()
	h := fb.Height()

	for qi, quad := range quads {
		inst := frame.Instances[qi]

		// The quad is axis-aligned: corner 0 is (u,v)=(0,0), corner 3
		// is (1,1). NDC y up flips into screen y down.
		left := ndcToScreenX(quad[0].Pos.X, w)
		right := ndcToScreenX(quad[3].Pos.X, w)
		top := ndcToScreenY(quad[3].Pos.Y, h)
		bottom := ndcToScreenY(quad[0].Pos.Y, h)
		if right <= left || bottom <= top {
			continue
		}

		x0 := clampInt(int(math.Floor(left)), 0, w)
		x1 := clampInt(int(math.Ceil(right)), 0, w)
		y0 := clampInt(int(math.Floor(top)), band.Y0, band.Y1)
		y1 := clampInt(int(math.Ceil(bottom)), band.Y0, band.Y1)

		for y := y0; y < y1; y++ {
			v := 1 - (float64(y)+0.5-top)/(bottom-top)
			if v < 0 || v >= 1 {
				continue
			}
			for x := x0; x < x1; x++ {
				uCoord := (float64(x) + 0.5 - left) / (right - left)
				if uCoord < 0 || uCoord >= 1 {
					continue
				}
				if c, ok := DecodePixel(frame.Graphics, frame.Palette, inst, uCoord, v); ok {
					fb.SetPixel(x, y, c)
				}
			}
		}
	}
}

// RenderPalette fills the whole framebuffer with the 16x16 palette preview
// swatch, sampling the palette directly from the normalized position of
// each pixel. No tile decode and no transparency are involved.
func (sw *SoftwareRenderer) RenderPalette(fb *Framebuffer, pal Palette) {
	w := fb.Width()
	h := fb.Height()

	bands := parallel.Bands(h, sw.pool.Workers()*4)
	work := make([]func(), len(bands))
	for i, band := range bands {
		b := band
		work[i] = func() {
			for y := b.Y0; y < b.Y1; y++ {
				v := 1 - (float64(y)+0.5)/float64(h)
				for x := 0; x < w; x++ {
					u := (float64(x) + 0.5) / float64(w)
					fb.SetPixel(x, y, pal.Sample(u, v))
				}
			}
		}
	}
	sw.pool.ExecuteAll(work)
}

// ndcToScreenX maps normalized device x to a screen column.
func ndcToScreenX(ndc float32, width int) float64 {
	return (float64(ndc) + 1) / 2 * float64(width)
}

// ndcToScreenY maps normalized device y to a screen row, flipping the
// axis: ndc +1 is the top row.
func ndcToScreenY(ndc float32, height int) float64 {
	return (1 - float64(ndc)) / 2 * float64(height)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
