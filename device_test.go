// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// mockTexture is in-memory texture metadata for tests.
type mockTexture struct {
	label      string
	width      int
	height     int
	format     gputypes.TextureFormat
	mipLevels  int
	sampleable bool
}

func (m *mockTexture) Width() int                     { return m.width }
func (m *mockTexture) Height() int                    { return m.height }
func (m *mockTexture) Format() gputypes.TextureFormat { return m.format }
func (m *mockTexture) MipLevels() int                 { return m.mipLevels }
func (m *mockTexture) Sampleable() bool               { return m.sampleable }
func (m *mockTexture) NativeHandle() any              { return nil }

// mockDevice records every call and supports one-shot fault injection,
// so tests can verify both the calls a stack operation issues and its
// behavior when the device rejects one of them.
type mockDevice struct {
	bound    *Target
	depth    DepthState
	stencil  StencilState
	blend    BlendState
	calls    []string
	failNext map[string]error
	live     int
	clears   []uint8
	mipCalls int

	// createBudget caps successful CreateTexture calls when >= 0, so
	// tests can fail the Nth allocation.
	createBudget int
}

func newMockDevice() *mockDevice {
	def := DefaultState()
	return &mockDevice{
		depth:        def.Depth,
		stencil:      def.Stencil,
		blend:        def.Blend,
		failNext:     make(map[string]error),
		createBudget: -1,
	}
}

func (d *mockDevice) fail(method string) error {
	if err, ok := d.failNext[method]; ok {
		delete(d.failNext, method)
		return err
	}
	return nil
}

func (d *mockDevice) Name() string { return "mock" }

func (d *mockDevice) CreateTexture(desc *TextureDescriptor) (Texture, error) {
	d.calls = append(d.calls, "CreateTexture")
	if err := d.fail("CreateTexture"); err != nil {
		return nil, err
	}
	if d.createBudget == 0 {
		return nil, errors.New("mock: texture allocation budget exhausted")
	}
	if d.createBudget > 0 {
		d.createBudget--
	}
	d.live++
	return &mockTexture{
		label:      desc.Label,
		width:      desc.Width,
		height:     desc.Height,
		format:     desc.Format,
		mipLevels:  desc.MipLevels,
		sampleable: desc.Sampleable,
	}, nil
}

func (d *mockDevice) DestroyTexture(Texture) {
	d.calls = append(d.calls, "DestroyTexture")
	d.live--
}

func (d *mockDevice) GenerateMipmaps(Texture) error {
	d.calls = append(d.calls, "GenerateMipmaps")
	if err := d.fail("GenerateMipmaps"); err != nil {
		return err
	}
	d.mipCalls++
	return nil
}

func (d *mockDevice) BindTarget(t *Target) error {
	d.calls = append(d.calls, fmt.Sprintf("BindTarget(%s)", targetLabel(t)))
	if err := d.fail("BindTarget"); err != nil {
		return err
	}
	d.bound = t
	return nil
}

func (d *mockDevice) ApplyDepth(s DepthState) error {
	d.calls = append(d.calls, "ApplyDepth")
	if err := d.fail("ApplyDepth"); err != nil {
		return err
	}
	d.depth = s
	return nil
}

func (d *mockDevice) ApplyStencil(s StencilState) error {
	d.calls = append(d.calls, "ApplyStencil")
	if err := d.fail("ApplyStencil"); err != nil {
		return err
	}
	d.stencil = s
	return nil
}

func (d *mockDevice) ApplyBlend(s BlendState) error {
	d.calls = append(d.calls, "ApplyBlend")
	if err := d.fail("ApplyBlend"); err != nil {
		return err
	}
	d.blend = s
	return nil
}

func (d *mockDevice) ClearStencil(value uint8) error {
	d.calls = append(d.calls, fmt.Sprintf("ClearStencil(%d)", value))
	if err := d.fail("ClearStencil"); err != nil {
		return err
	}
	d.clears = append(d.clears, value)
	return nil
}

func (d *mockDevice) Close() {}

func (d *mockDevice) resetCalls() { d.calls = nil }

// state returns the device's view of the full state.
func (d *mockDevice) state() State {
	return State{Depth: d.depth, Stencil: d.stencil, Blend: d.blend}
}
