// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the fbstack device on the gogpu WebGPU HAL.
//
// WebGPU has no mutable fixed-function state: depth, stencil, and blend
// configuration is baked into render pipelines. The device therefore
// records the applied state and validates it eagerly by building (and
// caching) a render pipeline for the current state and target formats.
// Renderers drawing through this device fetch the matching pipeline via
// Pipeline().
package wgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/fbstack"
	"github.com/gogpu/fbstack/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// submitTimeout bounds fence waits for internal passes.
const submitTimeout = 5 * time.Second

func init() {
	backend.Register(backend.WGPU, func() (fbstack.Device, error) {
		return New()
	})
}

// halProvider is the device-sharing contract: any value with HalDevice()
// and HalQueue() accessors returning hal.Device and hal.Queue can donate
// its GPU device. gpucontext.DeviceProvider satisfies this shape.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Device implements fbstack.Device on a hal.Device.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	owned    bool

	mu        sync.Mutex
	shader    hal.ShaderModule
	layout    hal.PipelineLayout
	pipelines map[pipelineKey]hal.RenderPipeline

	bound      *fbstack.Target
	depth      fbstack.DepthState
	stencil    fbstack.StencilState
	blend      fbstack.BlendState
	stencilRef int
}

// New creates a standalone device by opening the first usable Vulkan
// adapter, preferring discrete then integrated GPUs.
func New() (*Device, error) {
	be, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", fbstack.ErrBackend)
	}
	instance, err := be.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", fbstack.ErrBackend, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no GPU adapters found", fbstack.ErrBackend)
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
		return nil, fmt.Errorf("%w: open device: %w", fbstack.ErrBackend, err)
	}

	d := newDevice(openDev.Device, openDev.Queue, true)
	d.instance = instance
	fbstack.Logger().Info("wgpu: device initialized (standalone)", "adapter", selected.Info.Name)
	return d, nil
}

// NewWithProvider shares the GPU device of an existing context. The
// provider must expose HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue. The shared device is not destroyed on Close.
func NewWithProvider(provider fbstack.DeviceHandle) (*Device, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider %T does not expose a HAL device", fbstack.ErrBackend, provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", fbstack.ErrBackend)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", fbstack.ErrBackend)
	}
	d := newDevice(device, queue, false)
	fbstack.Logger().Info("wgpu: device initialized (shared)")
	return d, nil
}

func newDevice(device hal.Device, queue hal.Queue, owned bool) *Device {
	def := fbstack.DefaultState()
	return &Device{
		device:    device,
		queue:     queue,
		owned:     owned,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
		depth:     def.Depth,
		stencil:   def.Stencil,
		blend:     def.Blend,
	}
}

// Name returns the backend identifier.
func (d *Device) Name() string { return backend.WGPU }

// HalDevice returns the underlying hal.Device so other gogpu components
// can share it.
func (d *Device) HalDevice() any { return d.device }

// HalQueue returns the underlying hal.Queue.
func (d *Device) HalQueue() any { return d.queue }

// BindTarget records the draw target for subsequent passes. A nil target
// selects the surface framebuffer; pipeline validation then assumes the
// usual BGRA8 surface format.
func (d *Device) BindTarget(t *fbstack.Target) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t != nil {
		for _, spec := range t.Attachments() {
			tex := t.AttachmentTexture(spec.Point)
			if _, ok := tex.(*texture); !ok {
				return fmt.Errorf("%w: attachment %s was not created by this device", fbstack.ErrBackend, spec.Point)
			}
		}
	}
	prev := d.bound
	d.bound = t
	if err := d.ensurePipelineLocked(); err != nil {
		d.bound = prev
		return err
	}
	return nil
}

// ApplyDepth records the depth configuration and validates it against
// the bound target.
func (d *Device) ApplyDepth(s fbstack.DepthState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.depth
	d.depth = s
	if err := d.ensurePipelineLocked(); err != nil {
		d.depth = prev
		return err
	}
	return nil
}

// ApplyStencil records the stencil configuration and validates it
// against the bound target. The reference value is dynamic in WebGPU
// and is surfaced through StencilReference instead of the pipeline.
func (d *Device) ApplyStencil(s fbstack.StencilState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, prevRef := d.stencil, d.stencilRef
	d.stencil = s
	d.stencilRef = s.Reference
	if err := d.ensurePipelineLocked(); err != nil {
		d.stencil, d.stencilRef = prev, prevRef
		return err
	}
	return nil
}

// ApplyBlend records the blend configuration and validates it against
// the bound target.
func (d *Device) ApplyBlend(s fbstack.BlendState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.blend
	d.blend = s
	if err := d.ensurePipelineLocked(); err != nil {
		d.blend = prev
		return err
	}
	return nil
}

// ClearStencil clears the stencil buffer of the bound target by encoding
// a render pass that loads color and clears stencil.
func (d *Device) ClearStencil(value uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bound == nil {
		return fmt.Errorf("%w: stencil clear requires a bound target", fbstack.ErrBackend)
	}
	colorView, dsView, dsFormat := d.boundViewsLocked()
	if dsView == nil || !formatHasStencil(dsFormat) {
		return fmt.Errorf("%w: bound target has no stencil attachment", fbstack.ErrBackend)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "fbstack_clear_stencil"})
	if err != nil {
		return fmt.Errorf("%w: create encoder: %w", fbstack.ErrBackend, err)
	}
	if err := encoder.BeginEncoding("clear_stencil"); err != nil {
		return fmt.Errorf("%w: begin encoding: %w", fbstack.ErrBackend, err)
	}

	rpDesc := &hal.RenderPassDescriptor{
		Label: "fbstack_clear_stencil",
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              dsView,
			DepthLoadOp:       gputypes.LoadOpLoad,
			DepthStoreOp:      gputypes.StoreOpStore,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: uint32(value),
		},
	}
	if colorView != nil {
		rpDesc.ColorAttachments = []hal.RenderPassColorAttachment{{
			View:    colorView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}}
	}
	// Stencil-only formats cannot carry a depth load/store.
	if !formatHasDepth(dsFormat) {
		rpDesc.DepthStencilAttachment.DepthLoadOp = gputypes.LoadOpClear
		rpDesc.DepthStencilAttachment.DepthClearValue = 1.0
	}

	rp := encoder.BeginRenderPass(rpDesc)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("%w: end encoding: %w", fbstack.ErrBackend, err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("%w: create fence: %w", fbstack.ErrBackend, err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("%w: submit: %w", fbstack.ErrBackend, err)
	}
	ok, err := d.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("%w: wait: %w", fbstack.ErrBackend, err)
	}
	if !ok {
		return fmt.Errorf("%w: stencil clear timed out", fbstack.ErrBackend)
	}
	return nil
}

// Pipeline returns the render pipeline matching the current state and
// bound target, together with the dynamic stencil reference to set on
// the render pass.
func (d *Device) Pipeline() (hal.RenderPipeline, uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := d.keyLocked()
	return d.pipelines[key], uint32(d.stencilRef & 0xFF)
}

// StencilReference returns the stencil reference value for the render
// pass, masked to eight bits.
func (d *Device) StencilReference() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return uint32(d.stencilRef & 0xFF)
}

// Close destroys cached pipelines and, for standalone devices, the
// underlying device and instance. Shared devices are left running.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, p := range d.pipelines {
		d.device.DestroyRenderPipeline(p)
		delete(d.pipelines, key)
	}
	if d.layout != nil {
		d.device.DestroyPipelineLayout(d.layout)
		d.layout = nil
	}
	if d.shader != nil {
		d.device.DestroyShaderModule(d.shader)
		d.shader = nil
	}
	if d.owned {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
}
