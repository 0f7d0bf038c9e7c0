// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/tilemap"
)

// uniformsSize is the byte size of the Uniforms struct in tilemap.wgsl:
// vec2<f32> resolution, vec2<f32> origin, f32 scale, u32 padding. The
// members end at byte 24; uniform structs round up to their 16-byte
// alignment, so the binding must span 32.
const uniformsSize = 32

// instanceStride is the byte size of one packed tile instance record.
const instanceStride = 16

// PackUniforms lays out the uniform buffer contents for a draw. The zero
// Scale defaults to 1 so the buffer always carries a usable factor.
func PackUniforms(u tilemap.Uniforms) []byte {
	b := make([]byte, uniformsSize)
	putF32(b[0:], u.Resolution.X)
	putF32(b[4:], u.Resolution.Y)
	putF32(b[8:], u.Origin.X)
	putF32(b[12:], u.Origin.Y)
	putF32(b[16:], u.EffectiveScale())
	// b[20:] is padding
	return b
}

// PackInstances lays out the instance vertex buffer: four little-endian
// words per instance, in draw order.
func PackInstances(instances []tilemap.TileInstance) []byte {
	b := make([]byte, len(instances)*instanceStride)
	for i, inst := range instances {
		words := inst.Pack()
		for j, w := range words {
			binary.LittleEndian.PutUint32(b[i*instanceStride+j*4:], w)
		}
	}
	return b
}

// PackPalette lays out the palette storage buffer as rgba32f entries.
func PackPalette(pal tilemap.Palette) []byte {
	b := make([]byte, len(pal)*16)
	for i, c := range pal {
		putF32(b[i*16+0:], float32(c.R))
		putF32(b[i*16+4:], float32(c.G))
		putF32(b[i*16+8:], float32(c.B))
		putF32(b[i*16+12:], float32(c.A))
	}
	return b
}

// PackGraphics lays out the graphics storage buffer, little-endian words.
func PackGraphics(gfx tilemap.GraphicsMemory) []byte {
	return gfx.Bytes()
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
