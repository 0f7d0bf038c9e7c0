package tilemap

import (
	"errors"
	"fmt"
)

// Frame bundles everything one draw reads: graphics memory, palette,
// the instance stream in draw order, and the screen mapping uniforms.
//
// All buffers must stay unmutated while a render that reads them is in
// flight (single writer, then many readers). The renderers only read.
type Frame struct {
	Graphics  GraphicsMemory
	Palette   Palette
	Instances []TileInstance
	Uniforms  Uniforms
}

// Validate checks every instance against the frame's buffers: tile ids
// must name whole tiles of the graphics memory and palette banks must be
// complete. The render paths do not bounds-check per pixel, so frames
// built from untrusted data go through Validate first.
func (f *Frame) Validate() error {
	for i, inst := range f.Instances {
		if err := f.Graphics.Validate(inst.ID); err != nil {
			return fmt.Errorf("instance %d: %w", i, err)
		}
		if err := f.Palette.Validate(BankSize-1, inst.Pal); err != nil {
			return fmt.Errorf("instance %d: %w", i, err)
		}
	}
	return nil
}

// Renderer draws frames into a framebuffer.
type Renderer interface {
	// Render draws every instance of the frame in order. A failed render
	// leaves the framebuffer in an unspecified state; the caller abandons
	// it wholesale.
	Render(fb *Framebuffer, frame *Frame) error
}

// ErrNoFrame is returned when Render is called without a frame, or with a
// frame that carries no graphics or palette data.
var ErrNoFrame = errors.New("tilemap: nil frame")
