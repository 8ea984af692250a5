// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import (
	"fmt"
)

// Mode records how a frame's effective state was constructed.
type Mode uint8

const (
	// ModeInherit frames copied their parent's effective state verbatim.
	ModeInherit Mode = iota
	// ModeApply frames installed a caller-supplied descriptor.
	ModeApply
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeApply {
		return "apply"
	}
	return "inherit"
}

// frame is one stack entry: a target, its effective state, and the mode
// it was pushed with.
type frame struct {
	target *Target
	state  State
	mode   Mode
}

// Stack is the hierarchical framebuffer/render-state stack: a LIFO of
// (target, effective state) frames whose top frame the device always
// reflects.
//
// The stack is never empty: a root frame for the default target exists
// before any push and after all matching pops, and cannot be popped.
//
// A Stack models a single GPU context and must be confined to the
// goroutine that owns it.
type Stack struct {
	dev    Device
	frames []frame
}

// Option configures a Stack during creation.
type Option func(*stackOptions)

type stackOptions struct {
	defaultState State
}

// WithDefaultState seeds the root frame with a state other than
// DefaultState. The root state is what every balanced push/pop sequence
// restores to.
func WithDefaultState(s State) Option {
	return func(o *stackOptions) {
		o.defaultState = s
	}
}

// New creates a stack rooted at the default framebuffer, binds it, and
// applies the root state so the device and the root frame agree.
func New(dev Device, opts ...Option) (*Stack, error) {
	o := stackOptions{defaultState: DefaultState()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Stack{
		dev:    dev,
		frames: []frame{{target: nil, state: o.defaultState, mode: ModeInherit}},
	}
	if err := s.applyFrame(nil, o.defaultState); err != nil {
		return nil, fmt.Errorf("install root frame: %w", err)
	}
	return s, nil
}

// Device returns the device this stack drives.
func (s *Stack) Device() Device { return s.dev }

// Len returns the number of frames including the root.
func (s *Stack) Len() int { return len(s.frames) }

// Target returns the top frame's target. nil means the default
// framebuffer.
func (s *Stack) Target() *Target { return s.top().target }

// State returns a copy of the top frame's effective state.
func (s *Stack) State() State { return s.top().state }

// Mode returns the top frame's push mode.
func (s *Stack) Mode() Mode { return s.top().mode }

// Push installs a new frame in inherit mode: the frame's effective state
// is the current top frame's state verbatim, and only the bound target
// changes. No state calls are issued, since state is assumed already
// correct from the parent.
//
// On device failure nothing changes: the previous binding is restored
// and no frame is installed.
func (s *Stack) Push(t *Target) error {
	prev := s.top()
	if err := s.dev.BindTarget(t); err != nil {
		s.rollback(prev)
		return fmt.Errorf("push: %w: %w", ErrBackend, err)
	}
	if t != nil {
		t.Retain()
	}
	s.frames = append(s.frames, frame{target: t, state: prev.state, mode: ModeInherit})
	logger().Debug("push", "mode", ModeInherit, "target", targetLabel(t), "depth", len(s.frames))
	return nil
}

// PushState installs a new frame in apply mode: the frame's effective
// state is exactly the supplied descriptor, independent of ancestry. The
// bound target is switched and every state call implied by the
// descriptor is issued atomically.
//
// On device failure nothing changes: the previous frame's binding and
// state are restored and no frame is installed.
func (s *Stack) PushState(t *Target, st State) error {
	prev := s.top()
	if err := s.applyFrame(t, st); err != nil {
		s.rollback(prev)
		return fmt.Errorf("push: %w", err)
	}
	if t != nil {
		t.Retain()
	}
	s.frames = append(s.frames, frame{target: t, state: st, mode: ModeApply})
	logger().Debug("push", "mode", ModeApply, "target", targetLabel(t), "depth", len(s.frames))
	return nil
}

// Pop discards the top frame and restores the enclosing frame: its
// target is rebound and its full effective state is reissued. Full
// restoration (never a diff) keeps the device consistent even after
// mid-frame mutation through the Depth/Stencil/Blend controls.
//
// Fails with ErrStackUnderflow when only the root frame remains; the
// stack is left unchanged. On device failure the top frame's state is
// restored and the frame stays installed.
func (s *Stack) Pop() error {
	if len(s.frames) == 1 {
		return fmt.Errorf("pop: %w", ErrStackUnderflow)
	}
	top := s.top()
	next := s.frames[len(s.frames)-2]
	if err := s.applyFrame(next.target, next.state); err != nil {
		s.rollback(top)
		return fmt.Errorf("pop: %w", err)
	}
	if top.target != nil {
		top.target.Release()
	}
	s.frames = s.frames[:len(s.frames)-1]
	logger().Debug("pop", "target", targetLabel(next.target), "depth", len(s.frames))
	return nil
}

// Depth returns the control for the top frame's depth state.
func (s *Stack) Depth() DepthControl { return DepthControl{s: s} }

// Stencil returns the control for the top frame's stencil state.
func (s *Stack) Stencil() StencilControl { return StencilControl{s: s} }

// Blend returns the control for the top frame's blend state.
func (s *Stack) Blend() BlendControl { return BlendControl{s: s} }

// top returns the current top frame.
func (s *Stack) top() frame {
	return s.frames[len(s.frames)-1]
}

// topRef returns a pointer to the current top frame for in-place
// mutation by the state controls.
func (s *Stack) topRef() *frame {
	return &s.frames[len(s.frames)-1]
}

// applyFrame binds a target and issues its complete state.
func (s *Stack) applyFrame(t *Target, st State) error {
	if err := s.dev.BindTarget(t); err != nil {
		return fmt.Errorf("bind %s: %w: %w", targetLabel(t), ErrBackend, err)
	}
	if err := s.dev.ApplyDepth(st.Depth); err != nil {
		return fmt.Errorf("apply depth state: %w: %w", ErrBackend, err)
	}
	if err := s.dev.ApplyStencil(st.Stencil); err != nil {
		return fmt.Errorf("apply stencil state: %w: %w", ErrBackend, err)
	}
	if err := s.dev.ApplyBlend(st.Blend); err != nil {
		return fmt.Errorf("apply blend state: %w: %w", ErrBackend, err)
	}
	return nil
}

// rollback restores a frame's binding and state after a failed push or
// pop, best effort. The stack's frame list is untouched by the caller on
// this path, so a successful rollback leaves everything as before the
// failed operation.
func (s *Stack) rollback(f frame) {
	if err := s.applyFrame(f.target, f.state); err != nil {
		logger().Warn("state rollback failed; device may be inconsistent",
			"target", targetLabel(f.target), "error", err)
	}
}

// targetLabel names a target for log output.
func targetLabel(t *Target) string {
	if t == nil {
		return "default"
	}
	return fmt.Sprintf("%dx%d", t.width, t.height)
}
