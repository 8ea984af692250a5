// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Device is the interface the stack drives to reflect its top frame on
// the GPU (or a simulated backend). Implementations live in the backend
// packages.
//
// The stack is the only caller of BindTarget and the Apply methods;
// rendering code must never bypass it with direct device calls. That
// invariant is what makes full-restore Pop sufficient for consistency.
//
// Devices are confined to the goroutine that owns the GPU context and
// carry no internal locking.
type Device interface {
	// Name returns the device identifier (e.g., "software", "wgpu").
	Name() string

	// CreateTexture materializes backing storage for an attachment.
	CreateTexture(desc *TextureDescriptor) (Texture, error)

	// DestroyTexture releases storage created by CreateTexture.
	DestroyTexture(tex Texture)

	// GenerateMipmaps regenerates the full mip chain of a sampleable
	// texture from its base level. Idempotent.
	GenerateMipmaps(tex Texture) error

	// BindTarget switches the destination all subsequent draws render
	// into. A nil target binds the default framebuffer.
	BindTarget(t *Target) error

	// ApplyDepth, ApplyStencil and ApplyBlend reconfigure one state
	// group to match the given descriptor exactly.
	ApplyDepth(s DepthState) error
	ApplyStencil(s StencilState) error
	ApplyBlend(s BlendState) error

	// ClearStencil clears the bound target's stencil buffer to value.
	ClearStencil(value uint8) error

	// Close releases all device resources. The device must not be used
	// after Close.
	Close()
}

// TextureDescriptor describes backing storage for a target attachment.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the storage dimensions in pixels.
	Width  int
	Height int

	// Format is the pixel format.
	Format gputypes.TextureFormat

	// MipLevels is the number of mip levels to allocate. Use 1 for no
	// mip chain.
	MipLevels int

	// Sampleable requests storage that can be bound as a shader
	// sampler. Renderbuffer-style attachments set this to false.
	Sampleable bool
}

// Texture is an opaque handle to attachment backing storage.
type Texture interface {
	// Width and Height return the base level dimensions in pixels.
	Width() int
	Height() int

	// Format returns the pixel format.
	Format() gputypes.TextureFormat

	// MipLevels returns the number of allocated mip levels.
	MipLevels() int

	// Sampleable reports whether the texture can be bound as a shader
	// sampler.
	Sampleable() bool

	// NativeHandle returns the backend-specific handle (e.g. hal.Texture
	// for the wgpu device, *image.RGBA for the software device).
	NativeHandle() any
}

// DeviceHandle provides GPU device access from a host application.
//
// The host (e.g., a gogpu.App) implements DeviceHandle and passes it to
// backend constructors that support device sharing, so fbstack uses the
// shared GPU device instead of creating its own.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing an
// fbstack-specific name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider
