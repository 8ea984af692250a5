// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/fbstack"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// texture wraps a hal texture and its default view.
type texture struct {
	tex        hal.Texture
	view       hal.TextureView
	width      int
	height     int
	format     gputypes.TextureFormat
	mipLevels  int
	sampleable bool
}

func (t *texture) Width() int                     { return t.width }
func (t *texture) Height() int                    { return t.height }
func (t *texture) Format() gputypes.TextureFormat { return t.format }
func (t *texture) MipLevels() int                 { return t.mipLevels }
func (t *texture) Sampleable() bool               { return t.sampleable }
func (t *texture) NativeHandle() any              { return t.tex }

// View returns the hal view covering the whole texture.
func (t *texture) View() hal.TextureView { return t.view }

// CreateTexture allocates a GPU texture usable as a render attachment.
// Sampleable textures additionally get binding and copy usage so they
// can feed later passes.
func (d *Device) CreateTexture(desc *fbstack.TextureDescriptor) (fbstack.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: texture dimensions must be positive, got %dx%d",
			fbstack.ErrBackend, desc.Width, desc.Height)
	}
	mips := desc.MipLevels
	if mips < 1 {
		mips = 1
	}
	usage := gputypes.TextureUsageRenderAttachment
	if desc.Sampleable {
		usage |= gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst
	}

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(mips),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create texture %q: %w", fbstack.ErrBackend, desc.Label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: desc.Label,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("%w: create texture view %q: %w", fbstack.ErrBackend, desc.Label, err)
	}

	return &texture{
		tex:        tex,
		view:       view,
		width:      desc.Width,
		height:     desc.Height,
		format:     desc.Format,
		mipLevels:  mips,
		sampleable: desc.Sampleable,
	}, nil
}

// DestroyTexture releases the hal texture and its view. Foreign textures
// are ignored.
func (d *Device) DestroyTexture(tex fbstack.Texture) {
	t, ok := tex.(*texture)
	if !ok {
		return
	}
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		d.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// GenerateMipmaps will downsample the base level into the mip chain with
// a blit pipeline per level. The HAL does not yet expose per-level
// texture views, so the GPU path is not available.
//
// TODO: implement once hal.TextureViewDescriptor grows BaseMipLevel.
func (d *Device) GenerateMipmaps(tex fbstack.Texture) error {
	t, ok := tex.(*texture)
	if !ok {
		return fmt.Errorf("%w: foreign texture %T", fbstack.ErrBackend, tex)
	}
	if !t.sampleable {
		return fmt.Errorf("%w: texture has no sampleable storage", fbstack.ErrBackend)
	}
	if t.mipLevels <= 1 {
		return nil
	}
	return fmt.Errorf("%w: GPU mipmap generation not yet implemented", fbstack.ErrBackend)
}
