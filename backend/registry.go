package backend

import (
	"fmt"
	"sync"

	"github.com/gogpu/fbstack"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// WGPU > Software (Software is the always-available fallback).
	backendPriority = []string{WGPU, Software}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be
// replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns a list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get creates a device by backend name. Returns ErrNotAvailable if the
// backend is not registered, or the factory's error if creation fails.
func Get(name string) (fbstack.Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotAvailable, name)
	}
	return factory()
}

// Default creates the best available device based on priority.
// Factories that fail (e.g. no GPU adapter) are skipped with a warning.
// Returns ErrNotAvailable if no backend could produce a device.
func Default() (fbstack.Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	tried := make(map[string]bool)
	for _, name := range backendPriority {
		factory, ok := backends[name]
		if !ok {
			continue
		}
		tried[name] = true
		dev, err := factory()
		if err != nil {
			fbstack.Logger().Warn("backend unavailable", "name", name, "error", err)
			continue
		}
		return dev, nil
	}

	// Fallback: first registered backend outside the priority list.
	for name, factory := range backends {
		if tried[name] {
			continue
		}
		dev, err := factory()
		if err != nil {
			fbstack.Logger().Warn("backend unavailable", "name", name, "error", err)
			continue
		}
		return dev, nil
	}

	return nil, ErrNotAvailable
}

// MustDefault creates the default device or panics.
func MustDefault() fbstack.Device {
	dev, err := Default()
	if err != nil {
		panic("backend: no backend available")
	}
	return dev
}
