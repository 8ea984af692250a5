// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

// Guard pairs a push with exactly one pop. Acquire pushes; Release pops.
// Releasing through defer guarantees the enclosing frame is restored on
// every exit path, including early returns and propagated failures.
//
// Release of an already-released guard is a programming error and
// panics.
type Guard struct {
	stack    *Stack
	released bool
}

// Acquire pushes t in inherit mode and returns a guard whose Release
// performs the matching pop.
func (s *Stack) Acquire(t *Target) (*Guard, error) {
	if err := s.Push(t); err != nil {
		return nil, err
	}
	return &Guard{stack: s}, nil
}

// AcquireState pushes t in apply mode with the given state and returns a
// guard whose Release performs the matching pop.
func (s *Stack) AcquireState(t *Target, st State) (*Guard, error) {
	if err := s.PushState(t, st); err != nil {
		return nil, err
	}
	return &Guard{stack: s}, nil
}

// Release pops the frame this guard pushed. Called exactly once, usually
// via defer.
func (g *Guard) Release() error {
	if g.released {
		panic("fbstack: guard released twice")
	}
	g.released = true
	return g.stack.Pop()
}

// Scoped pushes t in inherit mode, runs fn, and pops the frame on the
// way out, even when fn panics. Returns fn's error; a pop failure is
// reported only when fn itself succeeded.
func (s *Stack) Scoped(t *Target, fn func() error) (err error) {
	if err := s.Push(t); err != nil {
		return err
	}
	defer func() {
		if popErr := s.Pop(); popErr != nil && err == nil {
			err = popErr
		}
	}()
	return fn()
}

// ScopedState is Scoped with an apply-mode push.
func (s *Stack) ScopedState(t *Target, st State, fn func() error) (err error) {
	if err := s.PushState(t, st); err != nil {
		return err
	}
	defer func() {
		if popErr := s.Pop(); popErr != nil && err == nil {
			err = popErr
		}
	}()
	return fn()
}
