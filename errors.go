// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

import "errors"

// Common errors returned by the package.
var (
	// ErrInvalidConfig is returned when a target is created with invalid
	// parameters (empty attachment list, duplicate attachment points or
	// names, non-positive dimensions).
	ErrInvalidConfig = errors.New("fbstack: invalid configuration")

	// ErrAttachmentNotFound is returned when a named attachment lookup
	// fails, or when an operation requires a texture-backed attachment
	// and the name resolves to renderbuffer storage.
	ErrAttachmentNotFound = errors.New("fbstack: attachment not found")

	// ErrStackUnderflow is returned by Pop when only the root frame
	// remains. The root frame is never popped.
	ErrStackUnderflow = errors.New("fbstack: stack underflow")

	// ErrBackend is returned when the device rejects a requested
	// configuration. The stack is left as it was before the failed
	// operation.
	ErrBackend = errors.New("fbstack: backend error")
)
