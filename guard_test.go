// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import (
	"errors"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	dev := newMockDevice()
	s, _ := New(dev)
	target := newTestTarget(t, dev, 16, 16)
	defer target.Release()

	g, err := s.Acquire(target)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if err := g.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after release", s.Len())
	}
}

func TestAcquireStateAppliesDescriptor(t *testing.T) {
	dev := newMockDevice()
	s, _ := New(dev)
	target := newTestTarget(t, dev, 16, 16)
	defer target.Release()

	st := DefaultState()
	st.Blend.Enabled = true
	g, err := s.AcquireState(target, st)
	if err != nil {
		t.Fatalf("AcquireState: %v", err)
	}
	if s.Mode() != ModeApply {
		t.Errorf("Mode() = %v, want apply", s.Mode())
	}
	if s.State() != st {
		t.Errorf("state = %+v, want descriptor", s.State())
	}
	if err := g.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestAcquireFailureReturnsNoGuard(t *testing.T) {
	dev := newMockDevice()
	s, _ := New(dev)
	target := newTestTarget(t, dev, 16, 16)
	defer target.Release()

	dev.failNext["BindTarget"] = errors.New("device lost")
	g, err := s.Acquire(target)
	if err == nil {
		t.Fatal("Acquire should fail when the push fails")
	}
	if g != nil {
		t.Error("failed Acquire must not return a guard")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestGuardDoubleReleasePanics(t *testing.T) {
	dev := newMockDevice()
	s, _ := New(dev)
	target := newTestTarget(t, dev, 16, 16)
	defer target.Release()

	g, err := s.Acquire(target)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("second Release should panic")
		}
	}()
	_ = g.Release()
}

func TestScopedPopsOnReturn(t *testing.T) {
	dev := newMockDevice()
	s, _ := New(dev)
	target := newTestTarget(t, dev, 16, 16)
	defer target.Release()

	ran := false
	err := s.Scoped(target, func() error {
		ran = true
		if s.Len() != 2 {
			t.Errorf("Len() inside scope = %d, want 2", s.Len())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Scoped: %v", err)
	}
	if !ran {
		t.Error("fn was not called")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after scope", s.Len())
	}
}

func TestScopedPropagatesFnError(t *testing.T) {
	dev := newMockDevice()
	s, _ := New(dev)
	target := newTestTarget(t, dev, 16, 16)
	defer target.Release()

	want := errors.New("render failed")
	err := s.Scoped(target, func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Scoped = %v, want fn error", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after failing scope", s.Len())
	}
}

func TestScopedPopsOnPanic(t *testing.T) {
	dev := newMockDevice()
	s, _ := New(dev)
	target := newTestTarget(t, dev, 16, 16)
	defer target.Release()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate out of Scoped")
			}
		}()
		_ = s.Scoped(target, func() error {
			panic("renderer bug")
		})
	}()

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after panicking scope", s.Len())
	}
	if dev.bound != nil {
		t.Error("device should be back on the default framebuffer")
	}
}

func TestScopedStateRestoresAncestor(t *testing.T) {
	dev := newMockDevice()
	s, _ := New(dev)
	target := newTestTarget(t, dev, 16, 16)
	defer target.Release()

	rootState := s.State()
	st := DefaultState()
	st.Depth.Test = true

	err := s.ScopedState(target, st, func() error {
		if s.State() != st {
			t.Errorf("state inside scope = %+v, want descriptor", s.State())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ScopedState: %v", err)
	}
	if dev.state() != rootState {
		t.Errorf("device state = %+v, want root state", dev.state())
	}
}
