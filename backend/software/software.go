// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software provides a CPU-based simulated device for fbstack.
//
// The device keeps attachment storage in plain Go images, applies state
// by recording it, and generates real mip chains on the CPU. It is the
// reference backend for tests and for headless use: every operation the
// stack can issue is observable through the device's inspection methods
// (BoundTarget, DepthState, Calls, ...).
package software

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/gogpu/fbstack"
	"github.com/gogpu/fbstack/backend"
	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
)

// ErrClosed is returned when operations are called after Close.
var ErrClosed = errors.New("software: device closed")

// init registers the software backend on package import.
func init() {
	backend.Register(backend.Software, func() (fbstack.Device, error) {
		return New(), nil
	})
}

// Device is a CPU-based simulated device.
//
// Besides implementing fbstack.Device it records every call it receives,
// so tests can assert not only the final state but also which calls a
// stack operation issued (e.g. that an inherit-mode push binds the
// target without touching state).
type Device struct {
	bound   *fbstack.Target
	depth   fbstack.DepthState
	stencil fbstack.StencilState
	blend   fbstack.BlendState

	textures map[*texture]struct{}
	calls    []string
	failures map[string]error
	closed   bool
}

// New creates a software device with default state.
func New() *Device {
	return &Device{
		depth:    fbstack.DefaultState().Depth,
		stencil:  fbstack.DefaultState().Stencil,
		blend:    fbstack.DefaultState().Blend,
		textures: make(map[*texture]struct{}),
		failures: make(map[string]error),
	}
}

// Name returns the backend identifier.
func (d *Device) Name() string { return backend.Software }

// CreateTexture allocates CPU backing storage.
func (d *Device) CreateTexture(desc *fbstack.TextureDescriptor) (fbstack.Texture, error) {
	if err := d.enter("CreateTexture"); err != nil {
		return nil, err
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("software: texture dimensions must be positive, got %dx%d", desc.Width, desc.Height)
	}
	mips := desc.MipLevels
	if mips < 1 {
		mips = 1
	}
	t := &texture{
		label:      desc.Label,
		width:      desc.Width,
		height:     desc.Height,
		format:     desc.Format,
		mipLevels:  mips,
		sampleable: desc.Sampleable,
	}
	if t.sampleable {
		t.levels = make([]*image.RGBA, mips)
		t.levels[0] = image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	}
	d.textures[t] = struct{}{}
	return t, nil
}

// DestroyTexture releases storage created by CreateTexture.
func (d *Device) DestroyTexture(tex fbstack.Texture) {
	d.record("DestroyTexture")
	if t, ok := tex.(*texture); ok {
		t.levels = nil
		delete(d.textures, t)
	}
}

// GenerateMipmaps downsamples the base level into every mip level.
// Levels are regenerated on every call, so repeated calls are harmless.
func (d *Device) GenerateMipmaps(tex fbstack.Texture) error {
	if err := d.enter("GenerateMipmaps"); err != nil {
		return err
	}
	t, ok := tex.(*texture)
	if !ok {
		return fmt.Errorf("software: foreign texture %T", tex)
	}
	if !t.sampleable {
		return fmt.Errorf("software: texture %q has no sampleable storage", t.label)
	}
	for level := 1; level < t.mipLevels; level++ {
		w := mipExtent(t.width, level)
		h := mipExtent(t.height, level)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), t.levels[0], t.levels[0].Bounds(), xdraw.Src, nil)
		t.levels[level] = dst
	}
	return nil
}

// BindTarget switches the simulated bound framebuffer.
func (d *Device) BindTarget(t *fbstack.Target) error {
	if err := d.enter("BindTarget"); err != nil {
		return err
	}
	d.bound = t
	return nil
}

// ApplyDepth records the depth configuration.
func (d *Device) ApplyDepth(s fbstack.DepthState) error {
	if err := d.enter("ApplyDepth"); err != nil {
		return err
	}
	d.depth = s
	return nil
}

// ApplyStencil records the stencil configuration.
func (d *Device) ApplyStencil(s fbstack.StencilState) error {
	if err := d.enter("ApplyStencil"); err != nil {
		return err
	}
	d.stencil = s
	return nil
}

// ApplyBlend records the blend configuration.
func (d *Device) ApplyBlend(s fbstack.BlendState) error {
	if err := d.enter("ApplyBlend"); err != nil {
		return err
	}
	d.blend = s
	return nil
}

// ClearStencil records a stencil clear of the bound target.
func (d *Device) ClearStencil(value uint8) error {
	if err := d.enter(fmt.Sprintf("ClearStencil(%d)", value)); err != nil {
		return err
	}
	return nil
}

// Close releases all resources.
func (d *Device) Close() {
	for t := range d.textures {
		t.levels = nil
		delete(d.textures, t)
	}
	d.closed = true
}

// BoundTarget returns the currently bound target; nil is the default
// framebuffer.
func (d *Device) BoundTarget() *fbstack.Target { return d.bound }

// DepthState returns the last applied depth state.
func (d *Device) DepthState() fbstack.DepthState { return d.depth }

// StencilState returns the last applied stencil state.
func (d *Device) StencilState() fbstack.StencilState { return d.stencil }

// BlendState returns the last applied blend state.
func (d *Device) BlendState() fbstack.BlendState { return d.blend }

// TextureCount returns the number of live textures. Useful for leak
// checks in tests.
func (d *Device) TextureCount() int { return len(d.textures) }

// Calls returns the calls received since the last ResetCalls, in order.
// Calls are recorded by method name, e.g. "BindTarget", "ApplyDepth".
func (d *Device) Calls() []string {
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// ResetCalls clears the recorded call log.
func (d *Device) ResetCalls() { d.calls = nil }

// FailNext makes the next call to the named method return err, once.
// Lets tests exercise the stack's all-or-nothing failure handling.
func (d *Device) FailNext(method string, err error) {
	d.failures[method] = err
}

// enter records a call and returns an injected failure, if any.
func (d *Device) enter(call string) error {
	if d.closed {
		return ErrClosed
	}
	d.record(call)
	method := call
	if i := strings.IndexByte(call, '('); i >= 0 {
		method = call[:i]
	}
	if err, ok := d.failures[method]; ok {
		delete(d.failures, method)
		return err
	}
	return nil
}

func (d *Device) record(call string) {
	d.calls = append(d.calls, call)
}

// texture is CPU-backed attachment storage. Sampleable textures carry an
// RGBA image per mip level; renderbuffer storage carries metadata only.
type texture struct {
	label      string
	width      int
	height     int
	format     gputypes.TextureFormat
	mipLevels  int
	sampleable bool
	levels     []*image.RGBA
}

// Width returns the base level width.
func (t *texture) Width() int { return t.width }

// Height returns the base level height.
func (t *texture) Height() int { return t.height }

// Format returns the pixel format.
func (t *texture) Format() gputypes.TextureFormat { return t.format }

// MipLevels returns the number of allocated mip levels.
func (t *texture) MipLevels() int { return t.mipLevels }

// Sampleable reports whether the texture can be bound as a sampler.
func (t *texture) Sampleable() bool { return t.sampleable }

// NativeHandle returns the base level image, or nil for renderbuffer
// storage.
func (t *texture) NativeHandle() any {
	if len(t.levels) == 0 {
		return nil
	}
	return t.levels[0]
}

// Level returns the image backing a mip level, or nil if the level has
// not been generated.
func (t *texture) Level(i int) *image.RGBA {
	if i < 0 || i >= len(t.levels) {
		return nil
	}
	return t.levels[i]
}

// mipExtent halves extent level times, clamping at 1.
func mipExtent(extent, level int) int {
	e := extent >> level
	if e < 1 {
		return 1
	}
	return e
}
