// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// AttachmentPoint identifies where an attachment connects to a target.
type AttachmentPoint uint8

// Attachment points. A target may carry several color attachments but at
// most one depth, one stencil, and one combined depth/stencil attachment.
const (
	AttachmentColor0 AttachmentPoint = iota
	AttachmentColor1
	AttachmentColor2
	AttachmentColor3
	AttachmentColor4
	AttachmentColor5
	AttachmentColor6
	AttachmentColor7
	AttachmentDepth
	AttachmentStencil
	AttachmentDepthStencil
)

// String returns the attachment point name.
func (p AttachmentPoint) String() string {
	switch {
	case p <= AttachmentColor7:
		return fmt.Sprintf("color%d", int(p))
	case p == AttachmentDepth:
		return "depth"
	case p == AttachmentStencil:
		return "stencil"
	case p == AttachmentDepthStencil:
		return "depth-stencil"
	default:
		return "unknown"
	}
}

// Storage selects the kind of backing storage for an attachment.
type Storage uint8

const (
	// StorageTexture backs the attachment with a sampleable texture.
	// Only texture storage can be looked up by name and bound as a
	// shader sampler.
	StorageTexture Storage = iota

	// StorageRenderbuffer backs the attachment with render-only storage
	// that cannot be sampled. Use it for depth/stencil buffers that are
	// never read back in a later pass.
	StorageRenderbuffer
)

// AttachmentSpec describes one attachment of a target.
type AttachmentSpec struct {
	// Point is the attachment point. Unique within a target.
	Point AttachmentPoint

	// Format is the pixel format. Leave as TextureFormatUndefined to
	// pick a default for the point (RGBA8Unorm for color, Depth24Plus
	// for depth, Stencil8 for stencil, Depth24PlusStencil8 for
	// combined).
	Format gputypes.TextureFormat

	// Storage selects texture or renderbuffer backing.
	Storage Storage

	// Name is the lookup key for texture-backed attachments. Optional;
	// unnamed attachments cannot be retrieved by collaborators. Unique
	// within a target when set.
	Name string
}

// attachment pairs a spec with its materialized storage.
type attachment struct {
	spec AttachmentSpec
	tex  Texture
}

// Target is a drawable destination with named attachments.
//
// Targets are shared: stack frames and external shader bindings may all
// reference one target simultaneously. Ownership is reference counted;
// Retain/Release track holders and device storage is freed when the last
// reference is released. A freshly created target holds one reference
// owned by the creator.
type Target struct {
	dev         Device
	width       int
	height      int
	attachments []attachment
	byName      map[string]int

	refs atomic.Int32
}

// NewTarget creates a target with the given attachment specs,
// materializing backing storage for each.
//
// Fails with ErrInvalidConfig if specs is empty, if two specs collide on
// attachment point or on a non-empty name, or if width/height are not
// positive.
func NewTarget(dev Device, width, height int, specs []AttachmentSpec) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidConfig, width, height)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no attachments", ErrInvalidConfig)
	}

	seenPoints := make(map[AttachmentPoint]bool, len(specs))
	seenNames := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seenPoints[spec.Point] {
			return nil, fmt.Errorf("%w: duplicate attachment point %s", ErrInvalidConfig, spec.Point)
		}
		seenPoints[spec.Point] = true
		if spec.Name != "" {
			if seenNames[spec.Name] {
				return nil, fmt.Errorf("%w: duplicate attachment name %q", ErrInvalidConfig, spec.Name)
			}
			seenNames[spec.Name] = true
		}
	}

	t := &Target{
		dev:    dev,
		width:  width,
		height: height,
		byName: make(map[string]int),
	}
	t.refs.Store(1)

	for _, spec := range specs {
		format := spec.Format
		if format == gputypes.TextureFormatUndefined {
			format = defaultFormat(spec.Point)
		}
		sampleable := spec.Storage == StorageTexture
		mipLevels := 1
		if sampleable {
			mipLevels = fullMipLevels(width, height)
		}
		tex, err := dev.CreateTexture(&TextureDescriptor{
			Label:      spec.Name,
			Width:      width,
			Height:     height,
			Format:     format,
			MipLevels:  mipLevels,
			Sampleable: sampleable,
		})
		if err != nil {
			t.destroyStorage()
			return nil, fmt.Errorf("create %s attachment: %w: %w", spec.Point, ErrBackend, err)
		}
		resolved := spec
		resolved.Format = format
		t.attachments = append(t.attachments, attachment{spec: resolved, tex: tex})
		if spec.Name != "" {
			t.byName[spec.Name] = len(t.attachments) - 1
		}
	}

	return t, nil
}

// NewRenderToTexture creates a target with a single sampleable color
// attachment and no depth or stencil buffer. The attachment is
// retrievable under colorName for use in a later display pass.
func NewRenderToTexture(dev Device, width, height int, colorName string) (*Target, error) {
	return NewTarget(dev, width, height, []AttachmentSpec{
		{Point: AttachmentColor0, Storage: StorageTexture, Name: colorName},
	})
}

// NewPostProcessing creates a target with a sampleable color attachment
// plus a non-sampleable depth buffer, enabling depth-tested offscreen
// rendering before a full-screen composite pass.
func NewPostProcessing(dev Device, width, height int, colorName string) (*Target, error) {
	return NewTarget(dev, width, height, []AttachmentSpec{
		{Point: AttachmentColor0, Storage: StorageTexture, Name: colorName},
		{Point: AttachmentDepth, Storage: StorageRenderbuffer},
	})
}

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.width }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.height }

// HasTexture reports whether a texture-backed attachment with the given
// name exists.
func (t *Target) HasTexture(name string) bool {
	i, ok := t.byName[name]
	return ok && t.attachments[i].tex.Sampleable()
}

// Texture returns the backing texture of the named attachment.
// Fails with ErrAttachmentNotFound if no texture-backed attachment with
// that name exists.
func (t *Target) Texture(name string) (Texture, error) {
	i, ok := t.byName[name]
	if !ok || !t.attachments[i].tex.Sampleable() {
		return nil, fmt.Errorf("%w: %q", ErrAttachmentNotFound, name)
	}
	return t.attachments[i].tex, nil
}

// GenerateMipmaps regenerates the named attachment's mip chain from its
// base level. Idempotent: repeated calls simply regenerate. Fails with
// ErrAttachmentNotFound if the name is unknown or the attachment is not
// texture-backed.
func (t *Target) GenerateMipmaps(name string) error {
	tex, err := t.Texture(name)
	if err != nil {
		return err
	}
	if err := t.dev.GenerateMipmaps(tex); err != nil {
		return fmt.Errorf("generate mipmaps %q: %w: %w", name, ErrBackend, err)
	}
	return nil
}

// BindTextures records on the shader a dynamic binding from each uniform
// to the corresponding attachment texture. bindings maps attachment name
// to uniform name. Fails with ErrAttachmentNotFound if any attachment
// name is unknown to this target; no bindings are recorded in that case.
func (t *Target) BindTextures(shader *Shader, bindings map[string]string) error {
	// Validate before mutating the shader's table.
	for attachmentName := range bindings {
		if !t.HasTexture(attachmentName) {
			return fmt.Errorf("%w: %q", ErrAttachmentNotFound, attachmentName)
		}
	}
	for attachmentName, uniformName := range bindings {
		tex, _ := t.Texture(attachmentName)
		shader.setSampler(uniformName, tex)
	}
	return nil
}

// Attachments returns the resolved attachment specs in creation order.
func (t *Target) Attachments() []AttachmentSpec {
	specs := make([]AttachmentSpec, len(t.attachments))
	for i, a := range t.attachments {
		specs[i] = a.spec
	}
	return specs
}

// AttachmentTexture returns the backing storage of the attachment at the
// given point, or nil if the point is not attached. Backends use this to
// assemble bind state; collaborators should use Texture.
func (t *Target) AttachmentTexture(p AttachmentPoint) Texture {
	for _, a := range t.attachments {
		if a.spec.Point == p {
			return a.tex
		}
	}
	return nil
}

// Retain adds a reference. Every Retain must be balanced by a Release.
func (t *Target) Retain() {
	t.refs.Add(1)
}

// Release drops a reference, destroying device storage when the last
// reference is released. Releasing an already-destroyed target panics.
func (t *Target) Release() {
	n := t.refs.Add(-1)
	if n < 0 {
		panic("fbstack: target released after destruction")
	}
	if n == 0 {
		t.destroyStorage()
	}
}

// destroyStorage frees all materialized attachments.
func (t *Target) destroyStorage() {
	for _, a := range t.attachments {
		if a.tex != nil {
			t.dev.DestroyTexture(a.tex)
		}
	}
	t.attachments = nil
	t.byName = nil
}

// defaultFormat picks the conventional format for an attachment point.
func defaultFormat(p AttachmentPoint) gputypes.TextureFormat {
	switch p {
	case AttachmentDepth:
		return gputypes.TextureFormatDepth24Plus
	case AttachmentStencil:
		return gputypes.TextureFormatStencil8
	case AttachmentDepthStencil:
		return gputypes.TextureFormatDepth24PlusStencil8
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// fullMipLevels returns the mip chain length down to 1x1.
func fullMipLevels(width, height int) int {
	m := width
	if height > m {
		m = height
	}
	return bits.Len(uint(m))
}
