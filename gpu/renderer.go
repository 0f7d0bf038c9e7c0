// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap"
)

// gpuWaitTimeout bounds the fence wait after a frame submission.
const gpuWaitTimeout = 5 * time.Second

// Interface compliance check.
var _ tilemap.Renderer = (*Renderer)(nil)

// Renderer draws tile frames on the GPU through the wgpu HAL. It compiles
// the WGSL programs to SPIR-V once at construction, renders each frame into
// an offscreen color target, and reads the pixels back into the caller's
// framebuffer.
//
// The renderer supports two construction modes:
//   - NewRenderer wraps an existing hal.Device/hal.Queue pair, for hosts
//     that already own a device (windowed apps, shared contexts).
//   - NewStandalone opens its own Vulkan device, for headless rendering.
type Renderer struct {
	device hal.Device
	queue  hal.Queue

	// instance is non-nil only for standalone renderers, which own the
	// whole device chain and must tear it down on Destroy.
	instance hal.Instance

	tileModule    hal.ShaderModule
	paletteModule hal.ShaderModule

	tileBindLayout    hal.BindGroupLayout
	paletteBindLayout hal.BindGroupLayout
	tilePipeLayout    hal.PipelineLayout
	palettePipeLayout hal.PipelineLayout
	tilePipeline      hal.RenderPipeline
	palettePipeline   hal.RenderPipeline

	// Offscreen color target, recreated when the framebuffer size changes.
	targetTex    hal.Texture
	targetView   hal.TextureView
	targetWidth  uint32
	targetHeight uint32
}

// NewRenderer creates a GPU renderer on an existing device and queue.
func NewRenderer(device hal.Device, queue hal.Queue) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: nil device or queue")
	}
	r := &Renderer{device: device, queue: queue}
	if err := r.createPipelines(); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

// NewRendererFromProvider creates a GPU renderer from a shared device
// provider. The provider's device and queue must expose the underlying HAL
// handles via HalDevice() any and HalQueue() any.
func NewRendererFromProvider(p gpucontext.DeviceProvider) (*Renderer, error) {
	if p == nil {
		return nil, fmt.Errorf("gpu: nil device provider")
	}
	dp, ok := p.Device().(interface{ HalDevice() any })
	if !ok {
		return nil, fmt.Errorf("gpu: provider device does not expose HAL types")
	}
	qp, ok := p.Queue().(interface{ HalQueue() any })
	if !ok {
		return nil, fmt.Errorf("gpu: provider queue does not expose HAL types")
	}
	device, ok := dp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := qp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return NewRenderer(device, queue)
}

// NewStandalone opens a Vulkan device and creates a renderer that owns it.
// Destroy releases the device and instance along with the pipelines.
func NewStandalone() (*Renderer, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: no adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}

	r := &Renderer{
		device:   openDev.Device,
		queue:    openDev.Queue,
		instance: instance,
	}
	if err := r.createPipelines(); err != nil {
		r.Destroy()
		return nil, err
	}
	tilemap.Logger().Info("gpu renderer ready",
		"adapter", selected.Info.Name,
		"backend", "vulkan")
	return r, nil
}

func (r *Renderer) createPipelines() error {
	tileSPIRV, err := compileShader(tilemapShaderWGSL)
	if err != nil {
		return fmt.Errorf("gpu: tile shader: %w", err)
	}
	paletteSPIRV, err := compileShader(paletteShaderWGSL)
	if err != nil {
		return fmt.Errorf("gpu: palette shader: %w", err)
	}

	tileModule, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "tilemap_shader",
		Source: hal.ShaderSource{SPIRV: tileSPIRV},
	})
	if err != nil {
		return fmt.Errorf("gpu: create tile shader module: %w", err)
	}
	r.tileModule = tileModule

	paletteModule, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "palette_shader",
		Source: hal.ShaderSource{SPIRV: paletteSPIRV},
	})
	if err != nil {
		return fmt.Errorf("gpu: create palette shader module: %w", err)
	}
	r.paletteModule = paletteModule

	tileBindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "tilemap_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create tile bind layout: %w", err)
	}
	r.tileBindLayout = tileBindLayout

	paletteBindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "palette_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create palette bind layout: %w", err)
	}
	r.paletteBindLayout = paletteBindLayout

	tilePipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "tilemap_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.tileBindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create tile pipeline layout: %w", err)
	}
	r.tilePipeLayout = tilePipeLayout

	palettePipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "palette_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.paletteBindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create palette pipeline layout: %w", err)
	}
	r.palettePipeLayout = palettePipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	colorTargets := []gputypes.ColorTargetState{
		{
			Format:    gputypes.TextureFormatBGRA8Unorm,
			Blend:     &premulBlend,
			WriteMask: gputypes.ColorWriteMaskAll,
		},
	}

	tilePipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "tilemap_pipeline",
		Layout: r.tilePipeLayout,
		Vertex: hal.VertexState{
			Module:     r.tileModule,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: instanceStride,
					StepMode:    gputypes.VertexStepModeInstance,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatUint32x4, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     r.tileModule,
			EntryPoint: "fs_main",
			Targets:    colorTargets,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create tile pipeline: %w", err)
	}
	r.tilePipeline = tilePipeline

	palettePipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "palette_pipeline",
		Layout: r.palettePipeLayout,
		Vertex: hal.VertexState{
			Module:     r.paletteModule,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     r.paletteModule,
			EntryPoint: "fs_main",
			Targets:    colorTargets,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create palette pipeline: %w", err)
	}
	r.palettePipeline = palettePipeline

	return nil
}

// ensureTarget creates or recreates the offscreen color target if the
// requested dimensions differ from the current size.
func (r *Renderer) ensureTarget(w, h uint32) error {
	if r.targetWidth == w && r.targetHeight == h && r.targetTex != nil {
		return nil
	}
	r.destroyTarget()

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "tilemap_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create target texture: %w", err)
	}
	r.targetTex = tex

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "tilemap_target_view",
	})
	if err != nil {
		r.destroyTarget()
		return fmt.Errorf("gpu: create target view: %w", err)
	}
	r.targetView = view

	r.targetWidth = w
	r.targetHeight = h
	return nil
}

func (r *Renderer) destroyTarget() {
	if r.targetView != nil {
		r.device.DestroyTextureView(r.targetView)
		r.targetView = nil
	}
	if r.targetTex != nil {
		r.device.DestroyTexture(r.targetTex)
		r.targetTex = nil
	}
	r.targetWidth = 0
	r.targetHeight = 0
}

// Render draws the frame into fb. The target is cleared to transparent
// black, instances are drawn back to front in slice order, and the
// resulting pixels are read back into fb's pixel store.
//
// A zero frame Resolution defaults to the framebuffer size, matching the
// software renderer.
func (r *Renderer) Render(fb *tilemap.Framebuffer, frame *tilemap.Frame) error {
	if fb == nil || frame == nil {
		return tilemap.ErrNoFrame
	}
	if len(frame.Graphics) == 0 || len(frame.Palette) == 0 {
		return tilemap.ErrNoFrame
	}

	u := frame.Uniforms
	if u.Resolution.X == 0 && u.Resolution.Y == 0 {
		u.Resolution = tilemap.Vec2{X: float32(fb.Width()), Y: float32(fb.Height())}
	}

	w, h := uint32(fb.Width()), uint32(fb.Height())
	if err := r.ensureTarget(w, h); err != nil {
		return err
	}

	paletteBuf, err := r.createAndUploadBuffer("tilemap_palette",
		PackPalette(frame.Palette), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	defer r.device.DestroyBuffer(paletteBuf)

	graphicsBuf, err := r.createAndUploadBuffer("tilemap_graphics",
		PackGraphics(frame.Graphics), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	defer r.device.DestroyBuffer(graphicsBuf)

	uniformBuf, err := r.createAndUploadBuffer("tilemap_uniforms",
		PackUniforms(u), gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	defer r.device.DestroyBuffer(uniformBuf)

	var instanceBuf hal.Buffer
	if len(frame.Instances) > 0 {
		instanceBuf, err = r.createAndUploadBuffer("tilemap_instances",
			PackInstances(frame.Instances), gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
		defer r.device.DestroyBuffer(instanceBuf)
	}

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "tilemap_bind",
		Layout: r.tileBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: paletteBuf.NativeHandle(), Offset: 0, Size: uint64(len(frame.Palette) * 16),
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: graphicsBuf.NativeHandle(), Offset: 0, Size: uint64(len(frame.Graphics) * 4),
			}},
			{Binding: 2, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uniformsSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(bindGroup)

	instCount := uint32(len(frame.Instances))
	record := func(rp hal.RenderPassEncoder) {
		if instCount == 0 {
			return
		}
		rp.SetPipeline(r.tilePipeline)
		rp.SetBindGroup(0, bindGroup, nil)
		rp.SetVertexBuffer(0, instanceBuf, 0)
		rp.Draw(4, instCount, 0, 0)
	}
	return r.encodeSubmitReadback(w, h, record, fb.Data())
}

// RenderPalette draws the 16x16 palette preview grid into fb. Missing
// entries past the end of the palette are padded with transparent black so
// the grid always covers a full 256-entry bank view.
func (r *Renderer) RenderPalette(fb *tilemap.Framebuffer, pal tilemap.Palette) error {
	if fb == nil || len(pal) == 0 {
		return tilemap.ErrNoFrame
	}

	const gridEntries = 256
	padded := make(tilemap.Palette, gridEntries)
	copy(padded, pal)

	w, h := uint32(fb.Width()), uint32(fb.Height())
	if err := r.ensureTarget(w, h); err != nil {
		return err
	}

	paletteBuf, err := r.createAndUploadBuffer("palette_preview",
		PackPalette(padded), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	defer r.device.DestroyBuffer(paletteBuf)

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "palette_bind",
		Layout: r.paletteBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: paletteBuf.NativeHandle(), Offset: 0, Size: gridEntries * 16,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create palette bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(bindGroup)

	record := func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(r.palettePipeline)
		rp.SetBindGroup(0, bindGroup, nil)
		rp.Draw(4, 1, 0, 0)
	}
	return r.encodeSubmitReadback(w, h, record, fb.Data())
}

// encodeSubmitReadback encodes one render pass on the offscreen target,
// records the caller's draws, copies the target into a staging buffer,
// submits with a fence, and reads the pixels back into dst as RGBA8.
func (r *Renderer) encodeSubmitReadback(w, h uint32, record func(hal.RenderPassEncoder), dst []uint8) error {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "tilemap_encoder",
	})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("tilemap_frame"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "tilemap_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       r.targetView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	record(rp)
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	// DX12 and WebGPU require BytesPerRow aligned to 256.
	bytesPerRow := w * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "tilemap_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(r.targetTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: r.targetTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	// Return the target to RenderAttachment for the next frame's pass.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	fenceOK, err := r.device.Wait(fence, 1, gpuWaitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("gpu: wait for frame: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, stagingSize)
	if err := r.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("gpu: readback: %w", err)
	}

	// Strip row padding and swizzle BGRA to RGBA.
	for row := uint32(0); row < h; row++ {
		src := readback[row*alignedBytesPerRow:]
		dstRow := dst[row*bytesPerRow:]
		bgraToRGBA(src[:bytesPerRow], dstRow[:bytesPerRow])
	}
	return nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data through the queue.
func (r *Renderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	r.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// Destroy releases all GPU resources in reverse creation order. For
// standalone renderers this also destroys the device and instance.
func (r *Renderer) Destroy() {
	if r.device == nil {
		return
	}
	r.destroyTarget()
	if r.palettePipeline != nil {
		r.device.DestroyRenderPipeline(r.palettePipeline)
		r.palettePipeline = nil
	}
	if r.tilePipeline != nil {
		r.device.DestroyRenderPipeline(r.tilePipeline)
		r.tilePipeline = nil
	}
	if r.palettePipeLayout != nil {
		r.device.DestroyPipelineLayout(r.palettePipeLayout)
		r.palettePipeLayout = nil
	}
	if r.tilePipeLayout != nil {
		r.device.DestroyPipelineLayout(r.tilePipeLayout)
		r.tilePipeLayout = nil
	}
	if r.paletteBindLayout != nil {
		r.device.DestroyBindGroupLayout(r.paletteBindLayout)
		r.paletteBindLayout = nil
	}
	if r.tileBindLayout != nil {
		r.device.DestroyBindGroupLayout(r.tileBindLayout)
		r.tileBindLayout = nil
	}
	if r.paletteModule != nil {
		r.device.DestroyShaderModule(r.paletteModule)
		r.paletteModule = nil
	}
	if r.tileModule != nil {
		r.device.DestroyShaderModule(r.tileModule)
		r.tileModule = nil
	}
	if r.instance != nil {
		r.device.Destroy()
		r.instance.Destroy()
		r.instance = nil
	}
	r.device = nil
	r.queue = nil
}

// bgraToRGBA swizzles BGRA8 pixels into RGBA8. src and dst must be the
// same length, a multiple of 4.
func bgraToRGBA(src, dst []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = src[i+3]
	}
}
