// Package tilemap renders fixed 8x8 tiles from a packed bitplane graphics
// format, resolving pixel colors through a banked 16-color palette.
//
// # Overview
//
// tilemap is the CPU core of a hardware-style tile renderer in the GoGPU
// ecosystem. Graphics data lives in a flat word buffer (GraphicsMemory),
// colors in a flat palette buffer organized in banks of 16 (Palette), and
// each drawn tile is described by a small instance record (TileInstance).
// The renderer reconstructs one RGBA color per covered pixel, or skips the
// pixel entirely when its 4-bit color index is zero.
//
// # Quick Start
//
//	gfx, _ := tilemap.GraphicsFromBytes(sheetBytes)
//	pal := tilemap.PaletteFromColors(colors)
//
//	fb := tilemap.NewFramebuffer(256, 256)
//	sw := tilemap.NewSoftwareRenderer()
//	defer sw.Close()
//
//	frame := &tilemap.Frame{
//	    Graphics:  gfx,
//	    Palette:   pal,
//	    Instances: tilemap.LayoutSheet(len(sheetBytes), 0, 0),
//	}
//	_ = sw.Render(fb, frame)
//	_ = fb.SavePNG("sheet.png")
//
// # Binary contract
//
// The graphics format is a documented bit-level contract: every tile is two
// consecutive 4-word records (8 uint32 words, 32 bytes), holding two
// interleaved bitplane pairs. Bit 7 of a scanline half is the leftmost
// pixel. See GraphicsMemory.PixelIndex for the exact layout. Any reordering
// breaks visual output silently, so the layout is pinned by tests rather
// than re-derived.
//
// # Renderers
//
// SoftwareRenderer rasterizes on the CPU using a worker pool; every pixel is
// a pure function of the immutable frame buffers, so bands of the target are
// filled in parallel. The gpu subpackage carries the WGSL pipeline for the
// same two programs (tile decode and palette preview) via gogpu/wgpu.
package tilemap
