// Package backend provides the device registry for fbstack.
//
// Backend packages register a factory via Register, typically from an
// init function, and embedders pick a device via Get or Default.
package backend

import (
	"errors"

	"github.com/gogpu/fbstack"
)

// Backend name constants.
const (
	// Software is the name of the CPU-based simulated device.
	Software = "software"
	// WGPU is the name of the WebGPU device (gogpu/wgpu).
	WGPU = "wgpu"
)

// Common backend errors.
var (
	// ErrNotAvailable is returned when a requested backend is not
	// available.
	ErrNotAvailable = errors.New("backend: not available")
)

// Factory creates a new device instance. A factory may fail, e.g. when
// no GPU adapter is present.
type Factory func() (fbstack.Device, error)
