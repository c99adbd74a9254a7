// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package registry provides a generic named registry with freeze semantics.
// Registries are populated during process initialization and frozen before
// concurrent use; after Freeze, lookups touch no lock.
package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Registry holds items keyed by name. Registration order is preserved so
// callers iterating over Names get deterministic output.
type Registry[T any] struct {
	mu     sync.RWMutex
	frozen atomic.Bool
	items  map[string]T
	names  []string
}

// New creates an empty Registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// Register adds an item under the given name. It fails on an empty name, a
// duplicate name, or a frozen registry.
func (r *Registry[T]) Register(name string, item T) error {
	if name == "" {
		return fmt.Errorf("registry: name cannot be empty")
	}
	if r.frozen.Load() {
		return fmt.Errorf("registry: cannot register %q after freeze", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return fmt.Errorf("registry: %q already registered", name)
	}

	r.items[name] = item
	r.names = append(r.names, name)
	return nil
}

// Freeze makes the registry read-only. Subsequent lookups are safe for
// concurrent use without locking.
func (r *Registry[T]) Freeze() {
	r.frozen.Store(true)
}

// Frozen reports whether the registry has been frozen.
func (r *Registry[T]) Frozen() bool {
	return r.frozen.Load()
}

// Get returns the item registered under name.
func (r *Registry[T]) Get(name string) (T, bool) {
	if r.frozen.Load() {
		item, exists := r.items[name]
		return item, exists
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[name]
	return item, exists
}

// Names returns the registered names in registration order.
func (r *Registry[T]) Names() []string {
	if r.frozen.Load() {
		return append([]string(nil), r.names...)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.names...)
}

// Len returns the number of registered items.
func (r *Registry[T]) Len() int {
	if r.frozen.Load() {
		return len(r.items)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}
