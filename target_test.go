// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewTargetValidation(t *testing.T) {
	dev := newMockDevice()
	color := AttachmentSpec{Point: AttachmentColor0, Storage: StorageTexture, Name: "color"}

	tests := []struct {
		name   string
		width  int
		height int
		specs  []AttachmentSpec
	}{
		{"zero width", 0, 100, []AttachmentSpec{color}},
		{"negative height", 100, -1, []AttachmentSpec{color}},
		{"no attachments", 100, 100, nil},
		{"duplicate point", 100, 100, []AttachmentSpec{
			color,
			{Point: AttachmentColor0, Storage: StorageRenderbuffer},
		}},
		{"duplicate name", 100, 100, []AttachmentSpec{
			color,
			{Point: AttachmentColor1, Storage: StorageTexture, Name: "color"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTarget(dev, tt.width, tt.height, tt.specs)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewTarget = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewTargetDefaultFormats(t *testing.T) {
	tests := []struct {
		name  string
		point AttachmentPoint
		want  gputypes.TextureFormat
	}{
		{"color", AttachmentColor0, gputypes.TextureFormatRGBA8Unorm},
		{"depth", AttachmentDepth, gputypes.TextureFormatDepth24Plus},
		{"stencil", AttachmentStencil, gputypes.TextureFormatStencil8},
		{"depth-stencil", AttachmentDepthStencil, gputypes.TextureFormatDepth24PlusStencil8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newMockDevice()
			target, err := NewTarget(dev, 16, 16, []AttachmentSpec{
				{Point: tt.point, Storage: StorageRenderbuffer},
			})
			if err != nil {
				t.Fatalf("NewTarget: %v", err)
			}
			defer target.Release()

			specs := target.Attachments()
			if len(specs) != 1 {
				t.Fatalf("Attachments() len = %d, want 1", len(specs))
			}
			if specs[0].Format != tt.want {
				t.Errorf("resolved format = %v, want %v", specs[0].Format, tt.want)
			}
		})
	}
}

func TestNewTargetMipLevels(t *testing.T) {
	dev := newMockDevice()
	target, err := NewTarget(dev, 256, 128, []AttachmentSpec{
		{Point: AttachmentColor0, Storage: StorageTexture, Name: "color"},
		{Point: AttachmentDepth, Storage: StorageRenderbuffer},
	})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	defer target.Release()

	tex, err := target.Texture("color")
	if err != nil {
		t.Fatalf("Texture: %v", err)
	}
	// 256 -> 1 is 9 levels.
	if tex.MipLevels() != 9 {
		t.Errorf("MipLevels() = %d, want 9", tex.MipLevels())
	}

	depth := target.AttachmentTexture(AttachmentDepth)
	if depth == nil {
		t.Fatal("depth attachment missing")
	}
	if depth.MipLevels() != 1 {
		t.Errorf("renderbuffer MipLevels() = %d, want 1", depth.MipLevels())
	}
	if depth.Sampleable() {
		t.Error("renderbuffer storage should not be sampleable")
	}
}

func TestNewTargetCleansUpOnFailure(t *testing.T) {
	dev := newMockDevice()
	// Let the first allocation succeed and fail the second, so partial
	// storage must be torn down.
	dev.createBudget = 1
	_, err := NewTarget(dev, 16, 16, []AttachmentSpec{
		{Point: AttachmentColor0, Storage: StorageTexture, Name: "color"},
		{Point: AttachmentDepth, Storage: StorageRenderbuffer},
	})
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("NewTarget = %v, want ErrBackend", err)
	}
	if dev.live != 0 {
		t.Errorf("live textures = %d, want 0 after failed creation", dev.live)
	}
}

func TestTargetTextureLookup(t *testing.T) {
	dev := newMockDevice()
	target, err := NewTarget(dev, 32, 32, []AttachmentSpec{
		{Point: AttachmentColor0, Storage: StorageTexture, Name: "scene"},
		{Point: AttachmentDepth, Storage: StorageRenderbuffer, Name: "zbuf"},
	})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	defer target.Release()

	if !target.HasTexture("scene") {
		t.Error("HasTexture(scene) = false, want true")
	}
	if _, err := target.Texture("scene"); err != nil {
		t.Errorf("Texture(scene): %v", err)
	}

	// Unknown name.
	if _, err := target.Texture("nope"); !errors.Is(err, ErrAttachmentNotFound) {
		t.Errorf("Texture(nope) = %v, want ErrAttachmentNotFound", err)
	}
	// Named but renderbuffer-backed: not retrievable.
	if target.HasTexture("zbuf") {
		t.Error("HasTexture(zbuf) = true for renderbuffer storage")
	}
	if _, err := target.Texture("zbuf"); !errors.Is(err, ErrAttachmentNotFound) {
		t.Errorf("Texture(zbuf) = %v, want ErrAttachmentNotFound", err)
	}
}

func TestTargetGenerateMipmaps(t *testing.T) {
	dev := newMockDevice()
	target, err := NewRenderToTexture(dev, 64, 64, "color")
	if err != nil {
		t.Fatalf("NewRenderToTexture: %v", err)
	}
	defer target.Release()

	if err := target.GenerateMipmaps("color"); err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	// Idempotent: a second regeneration is fine.
	if err := target.GenerateMipmaps("color"); err != nil {
		t.Fatalf("second GenerateMipmaps: %v", err)
	}
	if dev.mipCalls != 2 {
		t.Errorf("device mip calls = %d, want 2", dev.mipCalls)
	}

	if err := target.GenerateMipmaps("missing"); !errors.Is(err, ErrAttachmentNotFound) {
		t.Errorf("GenerateMipmaps(missing) = %v, want ErrAttachmentNotFound", err)
	}

	dev.failNext["GenerateMipmaps"] = errors.New("unsupported")
	if err := target.GenerateMipmaps("color"); !errors.Is(err, ErrBackend) {
		t.Errorf("GenerateMipmaps = %v, want ErrBackend", err)
	}
}

func TestBindTexturesAllOrNothing(t *testing.T) {
	dev := newMockDevice()
	target, err := NewTarget(dev, 32, 32, []AttachmentSpec{
		{Point: AttachmentColor0, Storage: StorageTexture, Name: "albedo"},
		{Point: AttachmentColor1, Storage: StorageTexture, Name: "normal"},
	})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	defer target.Release()

	shader := NewShader("composite")
	err = target.BindTextures(shader, map[string]string{
		"albedo":  "uAlbedo",
		"missing": "uOops",
	})
	if !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("BindTextures = %v, want ErrAttachmentNotFound", err)
	}
	if len(shader.SamplerBindings()) != 0 {
		t.Error("failed BindTextures must not record any bindings")
	}

	if err := target.BindTextures(shader, map[string]string{
		"albedo": "uAlbedo",
		"normal": "uNormal",
	}); err != nil {
		t.Fatalf("BindTextures: %v", err)
	}
	if got := len(shader.SamplerBindings()); got != 2 {
		t.Errorf("bindings = %d, want 2", got)
	}
	if _, ok := shader.SamplerBinding("uAlbedo"); !ok {
		t.Error("uAlbedo binding missing")
	}
}

func TestTargetReleasePanicsAfterDestruction(t *testing.T) {
	dev := newMockDevice()
	target, err := NewRenderToTexture(dev, 8, 8, "color")
	if err != nil {
		t.Fatalf("NewRenderToTexture: %v", err)
	}
	target.Release()
	if dev.live != 0 {
		t.Fatalf("live textures = %d, want 0", dev.live)
	}

	defer func() {
		if recover() == nil {
			t.Error("Release after destruction should panic")
		}
	}()
	target.Release()
}
