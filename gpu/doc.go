// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu provides the wgpu render path for the tilemap programs.
//
// Two WGSL programs are embedded: the tilemap program (instanced unit
// quads placed by the vertex stage, bitplane decode and palette fetch in
// the fragment stage, discard on color index 0) and the palette preview
// program (a single quad sampling the palette from its UV). Shaders are
// compiled to SPIR-V with gogpu/naga and wired into bind group and
// pipeline layouts through gogpu/wgpu/hal.
//
// Rendering is offscreen: each frame draws into a BGRA8 color target,
// copies it to a staging buffer and reads the pixels back into the
// caller's framebuffer. Hosts that already own a device (gogpu apps) wrap
// it with NewRenderer or NewRendererFromProvider; headless use opens a
// standalone Vulkan device with NewStandalone.
package gpu
