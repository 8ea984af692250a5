// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// The Depth/Stencil/Blend controls mutate the current top frame's
// effective state in place and immediately issue the matching device
// call(s). They are how a frame's state is adjusted after push without a
// new push/pop pair.
//
// Mutation never affects frames below the top; it does affect what a
// subsequent inherit-mode push copies and what the eventual pop of the
// frame above would restore.

// DepthControl mutates the top frame's depth state.
type DepthControl struct {
	s *Stack
}

// Get returns a copy of the top frame's depth state.
func (c DepthControl) Get() DepthState {
	return c.s.top().state.Depth
}

// SetTest enables or disables the depth test.
func (c DepthControl) SetTest(enabled bool) error {
	c.s.topRef().state.Depth.Test = enabled
	return c.apply()
}

// SetWrite enables or disables depth buffer writes.
func (c DepthControl) SetWrite(enabled bool) error {
	c.s.topRef().state.Depth.Write = enabled
	return c.apply()
}

// SetFunction sets the depth comparison function.
func (c DepthControl) SetFunction(fn gputypes.CompareFunction) error {
	c.s.topRef().state.Depth.Function = fn
	return c.apply()
}

// SetClamp enables or disables depth clamping.
func (c DepthControl) SetClamp(enabled bool) error {
	c.s.topRef().state.Depth.Clamp = enabled
	return c.apply()
}

// SetRange sets the depth range mapping. Values outside [0, 1] are
// clamped.
func (c DepthControl) SetRange(near, far float32) error {
	d := &c.s.topRef().state.Depth
	d.RangeNear = clampUnit(near)
	d.RangeFar = clampUnit(far)
	return c.apply()
}

func (c DepthControl) apply() error {
	if err := c.s.dev.ApplyDepth(c.s.top().state.Depth); err != nil {
		return fmt.Errorf("apply depth state: %w: %w", ErrBackend, err)
	}
	return nil
}

// StencilControl mutates the top frame's stencil state.
type StencilControl struct {
	s *Stack
}

// Get returns a copy of the top frame's stencil state.
func (c StencilControl) Get() StencilState {
	return c.s.top().state.Stencil
}

// SetTest enables or disables the stencil test.
func (c StencilControl) SetTest(enabled bool) error {
	c.s.topRef().state.Stencil.Test = enabled
	return c.apply()
}

// SetFunction sets the stencil comparison function, reference value and
// read mask. The reference value is masked to 8 bits.
func (c StencilControl) SetFunction(fn gputypes.CompareFunction, reference int, mask uint8) error {
	st := &c.s.topRef().state.Stencil
	st.Function = fn
	st.Reference = reference & 0xFF
	st.ReadMask = mask
	return c.apply()
}

// SetOperation sets the three stencil update operations: on stencil
// fail, on depth fail, and on pass.
func (c StencilControl) SetOperation(fail, depthFail, pass StencilOp) error {
	st := &c.s.topRef().state.Stencil
	st.FailOp = fail
	st.DepthFailOp = depthFail
	st.PassOp = pass
	return c.apply()
}

// SetWriteMask selects which stencil bit planes are writable.
func (c StencilControl) SetWriteMask(mask uint8) error {
	c.s.topRef().state.Stencil.WriteMask = mask
	return c.apply()
}

// SetClearValue sets the value Clear writes to the stencil buffer. The
// device is not touched until Clear is called.
func (c StencilControl) SetClearValue(value uint8) error {
	c.s.topRef().state.Stencil.ClearValue = value
	return nil
}

// Clear clears the bound target's stencil buffer to ClearValue.
func (c StencilControl) Clear() error {
	if err := c.s.dev.ClearStencil(c.s.top().state.Stencil.ClearValue); err != nil {
		return fmt.Errorf("clear stencil: %w: %w", ErrBackend, err)
	}
	return nil
}

func (c StencilControl) apply() error {
	if err := c.s.dev.ApplyStencil(c.s.top().state.Stencil); err != nil {
		return fmt.Errorf("apply stencil state: %w: %w", ErrBackend, err)
	}
	return nil
}

// BlendControl mutates the top frame's blend state.
type BlendControl struct {
	s *Stack
}

// Get returns a copy of the top frame's blend state.
func (c BlendControl) Get() BlendState {
	return c.s.top().state.Blend
}

// SetEnabled turns blending on or off.
func (c BlendControl) SetEnabled(enabled bool) error {
	c.s.topRef().state.Blend.Enabled = enabled
	return c.apply()
}

// SetEquation sets the blend operation for both color and alpha.
func (c BlendControl) SetEquation(op gputypes.BlendOperation) error {
	b := &c.s.topRef().state.Blend
	b.OperationRGB = op
	b.OperationAlpha = op
	return c.apply()
}

// SetEquationSeparate sets independent blend operations for color and
// alpha.
func (c BlendControl) SetEquationSeparate(rgb, alpha gputypes.BlendOperation) error {
	b := &c.s.topRef().state.Blend
	b.OperationRGB = rgb
	b.OperationAlpha = alpha
	return c.apply()
}

// SetFunction sets the source and destination factors for both color
// and alpha.
func (c BlendControl) SetFunction(src, dst gputypes.BlendFactor) error {
	b := &c.s.topRef().state.Blend
	b.SrcRGB = src
	b.DstRGB = dst
	b.SrcAlpha = src
	b.DstAlpha = dst
	return c.apply()
}

// SetFunctionSeparate sets independent factors for the color and alpha
// channels.
func (c BlendControl) SetFunctionSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha gputypes.BlendFactor) error {
	b := &c.s.topRef().state.Blend
	b.SrcRGB = srcRGB
	b.DstRGB = dstRGB
	b.SrcAlpha = srcAlpha
	b.DstAlpha = dstAlpha
	return c.apply()
}

// SetConstant sets the blend constant color. Components outside [0, 1]
// are clamped.
func (c BlendControl) SetConstant(color gputypes.Color) error {
	c.s.topRef().state.Blend.Constant = clampColor(color)
	return c.apply()
}

func (c BlendControl) apply() error {
	if err := c.s.dev.ApplyBlend(c.s.top().state.Blend); err != nil {
		return fmt.Errorf("apply blend state: %w: %w", ErrBackend, err)
	}
	return nil
}
