// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import (
	"github.com/gogpu/gputypes"
)

// StencilOp specifies how the stencil buffer is updated after a stencil
// or depth test outcome.
type StencilOp uint8

// Stencil operations.
const (
	// StencilOpKeep leaves the stencil value unchanged.
	StencilOpKeep StencilOp = iota
	// StencilOpZero sets the stencil value to zero.
	StencilOpZero
	// StencilOpReplace sets the stencil value to the reference value.
	StencilOpReplace
	// StencilOpInvert bitwise-inverts the stencil value.
	StencilOpInvert
	// StencilOpIncrementClamp increments, clamping at the maximum value.
	StencilOpIncrementClamp
	// StencilOpDecrementClamp decrements, clamping at zero.
	StencilOpDecrementClamp
	// StencilOpIncrementWrap increments, wrapping to zero past the maximum.
	StencilOpIncrementWrap
	// StencilOpDecrementWrap decrements, wrapping to the maximum past zero.
	StencilOpDecrementWrap
)

// String returns the operation name.
func (op StencilOp) String() string {
	switch op {
	case StencilOpKeep:
		return "keep"
	case StencilOpZero:
		return "zero"
	case StencilOpReplace:
		return "replace"
	case StencilOpInvert:
		return "invert"
	case StencilOpIncrementClamp:
		return "increment-clamp"
	case StencilOpDecrementClamp:
		return "decrement-clamp"
	case StencilOpIncrementWrap:
		return "increment-wrap"
	case StencilOpDecrementWrap:
		return "decrement-wrap"
	default:
		return "unknown"
	}
}

// DepthState describes the depth test configuration.
type DepthState struct {
	// Test enables the depth test.
	Test bool

	// Write enables depth buffer writes. A disabled write with an
	// enabled test gives a read-only depth buffer.
	Write bool

	// Function is the depth comparison function.
	Function gputypes.CompareFunction

	// Clamp disables near/far plane clipping and clamps depth values
	// to the depth range instead.
	Clamp bool

	// RangeNear and RangeFar map NDC depth to window depth.
	// Both are kept within [0, 1].
	RangeNear float32
	RangeFar  float32
}

// StencilState describes the stencil test configuration.
type StencilState struct {
	// Test enables the stencil test.
	Test bool

	// Function compares the masked reference value against the masked
	// stencil buffer value.
	Function gputypes.CompareFunction

	// Reference is the comparison reference value, kept within 8 bits.
	Reference int

	// ReadMask is ANDed with both the reference and the stored stencil
	// value before comparison.
	ReadMask uint8

	// WriteMask selects which stencil bit planes are writable.
	WriteMask uint8

	// FailOp runs when the stencil test fails.
	FailOp StencilOp
	// DepthFailOp runs when the stencil test passes but the depth test
	// fails.
	DepthFailOp StencilOp
	// PassOp runs when both tests pass.
	PassOp StencilOp

	// ClearValue is the value the stencil buffer is cleared to.
	ClearValue uint8
}

// BlendState describes the blend configuration.
type BlendState struct {
	// Enabled turns blending on.
	Enabled bool

	// OperationRGB and OperationAlpha combine the weighted source and
	// destination components.
	OperationRGB   gputypes.BlendOperation
	OperationAlpha gputypes.BlendOperation

	// Source and destination weights for the color and alpha channels.
	SrcRGB   gputypes.BlendFactor
	DstRGB   gputypes.BlendFactor
	SrcAlpha gputypes.BlendFactor
	DstAlpha gputypes.BlendFactor

	// Constant is the blend constant color used by the Constant /
	// OneMinusConstant factors. Components are kept within [0, 1].
	Constant gputypes.Color
}

// State is one complete, self-consistent snapshot of depth, stencil and
// blend configuration. Every field is total: a State never has "unset"
// fields. Inheritance is a property of how a stack frame is constructed,
// not of the descriptor itself.
//
// Mutating a State value has no effect on any stack or device; only the
// stack's Depth/Stencil/Blend controls issue device calls.
type State struct {
	Depth   DepthState
	Stencil StencilState
	Blend   BlendState
}

// DefaultState returns the state of a freshly created context: depth test
// off (writes enabled, Less, range [0,1]), stencil test off (Always,
// masks 0xFF, all operations Keep), blending off (Add, One/Zero).
func DefaultState() State {
	return State{
		Depth: DepthState{
			Test:      false,
			Write:     true,
			Function:  gputypes.CompareFunctionLess,
			Clamp:     false,
			RangeNear: 0,
			RangeFar:  1,
		},
		Stencil: StencilState{
			Test:        false,
			Function:    gputypes.CompareFunctionAlways,
			Reference:   0,
			ReadMask:    0xFF,
			WriteMask:   0xFF,
			FailOp:      StencilOpKeep,
			DepthFailOp: StencilOpKeep,
			PassOp:      StencilOpKeep,
			ClearValue:  0,
		},
		Blend: BlendState{
			Enabled:        false,
			OperationRGB:   gputypes.BlendOperationAdd,
			OperationAlpha: gputypes.BlendOperationAdd,
			SrcRGB:         gputypes.BlendFactorOne,
			DstRGB:         gputypes.BlendFactorZero,
			SrcAlpha:       gputypes.BlendFactorOne,
			DstAlpha:       gputypes.BlendFactorZero,
			Constant:       gputypes.Color{},
		},
	}
}

// clampUnit clamps v to [0, 1].
func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampColor clamps every component of c to [0, 1].
func clampColor(c gputypes.Color) gputypes.Color {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return gputypes.Color{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}
