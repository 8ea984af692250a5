// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/fbstack"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// validationShaderSource is a minimal fullscreen-triangle shader. The
// cached pipelines exist to bake and validate state combinations; the
// shader only has to be a legal vertex/fragment pair for the target
// formats.
const validationShaderSource = `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    var pos = array<vec2<f32>, 3>(
        vec2<f32>(-1.0, -3.0),
        vec2<f32>( 3.0,  1.0),
        vec2<f32>(-1.0,  1.0),
    );
    return vec4<f32>(pos[idx], 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 0.0);
}
`

// pipelineKey identifies a cached pipeline: the full applied state plus
// the attachment formats it was built against.
type pipelineKey struct {
	state  fbstack.State
	color  gputypes.TextureFormat
	ds     gputypes.TextureFormat
	hasCol bool
}

// keyLocked derives the cache key from the current state and target.
func (d *Device) keyLocked() pipelineKey {
	color, ds, hasColor := d.boundFormatsLocked()
	return pipelineKey{
		state:  fbstack.State{Depth: d.depth, Stencil: d.stencil, Blend: d.blend},
		color:  color,
		ds:     ds,
		hasCol: hasColor,
	}
}

// boundFormatsLocked reports the attachment formats of the bound target.
// The surface framebuffer (nil target) is assumed BGRA8 with a combined
// depth-stencil buffer, matching the gogpu surface configuration.
func (d *Device) boundFormatsLocked() (color, ds gputypes.TextureFormat, hasColor bool) {
	if d.bound == nil {
		return gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatDepth24PlusStencil8, true
	}
	ds = gputypes.TextureFormatUndefined
	for _, spec := range d.bound.Attachments() {
		tex := d.bound.AttachmentTexture(spec.Point)
		if tex == nil {
			continue
		}
		switch spec.Point {
		case fbstack.AttachmentColor0:
			color = tex.Format()
			hasColor = true
		case fbstack.AttachmentDepth, fbstack.AttachmentStencil, fbstack.AttachmentDepthStencil:
			ds = tex.Format()
		}
	}
	return color, ds, hasColor
}

// boundViewsLocked returns the hal views of the bound target's first
// color attachment and depth-stencil attachment.
func (d *Device) boundViewsLocked() (colorView, dsView hal.TextureView, dsFormat gputypes.TextureFormat) {
	if d.bound == nil {
		return nil, nil, gputypes.TextureFormatUndefined
	}
	dsFormat = gputypes.TextureFormatUndefined
	for _, spec := range d.bound.Attachments() {
		t, ok := d.bound.AttachmentTexture(spec.Point).(*texture)
		if !ok {
			continue
		}
		switch spec.Point {
		case fbstack.AttachmentColor0:
			colorView = t.view
		case fbstack.AttachmentDepth, fbstack.AttachmentStencil, fbstack.AttachmentDepthStencil:
			dsView = t.view
			dsFormat = t.format
		}
	}
	return colorView, dsView, dsFormat
}

// ensurePipelineLocked builds and caches the pipeline for the current
// state and target formats. Returns an error when the combination is
// rejected by the driver, which is how illegal state surfaces here.
func (d *Device) ensurePipelineLocked() error {
	if d.device == nil {
		return fmt.Errorf("%w: device closed", fbstack.ErrBackend)
	}
	key := d.keyLocked()
	if _, ok := d.pipelines[key]; ok {
		return nil
	}
	if err := d.ensureShaderLocked(); err != nil {
		return err
	}

	desc := &hal.RenderPipelineDescriptor{
		Label:  "fbstack_state_pipeline",
		Layout: d.layout,
		Vertex: hal.VertexState{
			Module:     d.shader,
			EntryPoint: "vs_main",
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
	}
	if key.hasCol {
		desc.Fragment = &hal.FragmentState{
			Module:     d.shader,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{colorTarget(key.color, d.blend)},
		}
	}
	if key.ds != gputypes.TextureFormatUndefined {
		desc.DepthStencil = depthStencilState(key.ds, d.depth, d.stencil)
	}

	pipeline, err := d.device.CreateRenderPipeline(desc)
	if err != nil {
		return fmt.Errorf("%w: state rejected: %w", fbstack.ErrBackend, err)
	}
	d.pipelines[key] = pipeline
	return nil
}

// ensureShaderLocked compiles the validation shader to SPIR-V and
// creates the shared empty pipeline layout, once.
func (d *Device) ensureShaderLocked() error {
	if d.shader != nil {
		return nil
	}
	spirvBytes, err := naga.Compile(validationShaderSource)
	if err != nil {
		return fmt.Errorf("%w: compile validation shader: %w", fbstack.ErrBackend, err)
	}
	// SPIR-V is little-endian 32-bit words.
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	shader, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "fbstack_validation_shader",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("%w: create shader module: %w", fbstack.ErrBackend, err)
	}
	layout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "fbstack_state_layout",
	})
	if err != nil {
		d.device.DestroyShaderModule(shader)
		return fmt.Errorf("%w: create pipeline layout: %w", fbstack.ErrBackend, err)
	}
	d.shader = shader
	d.layout = layout
	return nil
}

// colorTarget converts a blend configuration to a color target state.
func colorTarget(format gputypes.TextureFormat, blend fbstack.BlendState) gputypes.ColorTargetState {
	target := gputypes.ColorTargetState{
		Format:    format,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if blend.Enabled {
		target.Blend = &gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: blend.SrcRGB,
				DstFactor: blend.DstRGB,
				Operation: blend.OperationRGB,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: blend.SrcAlpha,
				DstFactor: blend.DstAlpha,
				Operation: blend.OperationAlpha,
			},
		}
	}
	return target
}

// depthStencilState converts the depth and stencil configuration to the
// pipeline representation. Disabled tests collapse to Always compares
// with writes off, which is how WebGPU expresses "off". The stencil
// reference is dynamic state and not part of the pipeline.
func depthStencilState(format gputypes.TextureFormat, depth fbstack.DepthState, stencil fbstack.StencilState) *hal.DepthStencilState {
	ds := &hal.DepthStencilState{
		Format:       format,
		DepthCompare: gputypes.CompareFunctionAlways,
		StencilFront: hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		},
	}
	if depth.Test && formatHasDepth(format) {
		ds.DepthCompare = depth.Function
		ds.DepthWriteEnabled = depth.Write
	}
	if stencil.Test && formatHasStencil(format) {
		ds.StencilFront = hal.StencilFaceState{
			Compare:     stencil.Function,
			FailOp:      stencilOperation(stencil.FailOp),
			DepthFailOp: stencilOperation(stencil.DepthFailOp),
			PassOp:      stencilOperation(stencil.PassOp),
		}
		ds.StencilReadMask = uint32(stencil.ReadMask)
		ds.StencilWriteMask = uint32(stencil.WriteMask)
	}
	ds.StencilBack = ds.StencilFront
	return ds
}

// stencilOperation maps the portable stencil op to the hal enum.
func stencilOperation(op fbstack.StencilOp) hal.StencilOperation {
	switch op {
	case fbstack.StencilOpZero:
		return hal.StencilOperationZero
	case fbstack.StencilOpReplace:
		return hal.StencilOperationReplace
	case fbstack.StencilOpInvert:
		return hal.StencilOperationInvert
	case fbstack.StencilOpIncrementClamp:
		return hal.StencilOperationIncrementClamp
	case fbstack.StencilOpDecrementClamp:
		return hal.StencilOperationDecrementClamp
	case fbstack.StencilOpIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case fbstack.StencilOpDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}

func formatHasDepth(format gputypes.TextureFormat) bool {
	switch format {
	case gputypes.TextureFormatDepth24Plus, gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32Float:
		return true
	default:
		return false
	}
}

func formatHasStencil(format gputypes.TextureFormat) bool {
	switch format {
	case gputypes.TextureFormatStencil8, gputypes.TextureFormatDepth24PlusStencil8:
		return true
	default:
		return false
	}
}
