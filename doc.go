// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fbstack implements a hierarchical framebuffer/render-state stack
// for GPU rendering.
//
// The stack is the single authority for "which render target is bound and
// what depth/stencil/blend state is the GPU configured with". Rendering
// code pushes a frame before drawing into a target and pops it afterwards;
// each frame pairs a [Target] with a complete [State] descriptor.
//
// Two push modes exist:
//
//   - Inherit: [Stack.Push] copies the parent frame's effective state
//     verbatim and only switches the bound target. No state calls are
//     issued, since state is already correct from the parent.
//   - Apply: [Stack.PushState] installs a caller-supplied descriptor
//     exactly, independent of ancestry, and issues every implied state
//     call atomically. Use it when a pass needs a known-good
//     configuration (e.g. a stencil-masking pass).
//
// [Stack.Pop] restores the enclosing frame by reissuing its full state,
// never a diff, so restoration is correct even after ad hoc mid-frame
// tweaks through the [Stack.Depth], [Stack.Stencil] and [Stack.Blend]
// controls.
//
// Scene-graph attachment points should use the scoped helpers so that a
// push is always paired with a pop across every exit path:
//
//	guard, err := stack.Acquire(offscreen)
//	if err != nil {
//	    return err
//	}
//	defer guard.Release()
//	// ... draw subtree into offscreen ...
//
// or, closure style (also pops when fn panics):
//
//	err := stack.Scoped(offscreen, func() error {
//	    // ... draw subtree ...
//	    return nil
//	})
//
// Targets are created through a [Device] (see the backend packages):
//
//	dev := software.New()
//	fbo, err := fbstack.NewRenderToTexture(dev, 800, 600, "scene_color")
//
// The stack models a single GPU context and is not safe for concurrent
// use; confine it to the goroutine that owns the context.
package fbstack
