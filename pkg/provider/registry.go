// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider is a name-to-constructor registry for pluggable backends.
//
// Backend packages register themselves from init(), the same way database/sql
// drivers do; the server blank-imports them and picks one by the name found
// in its configuration.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a backend from string parameters taken from configuration.
// Unknown keys are ignored.
type Factory[T any] func(ctx context.Context, params map[string]string) (T, error)

// Registry maps backend names to factories for one interface T.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates an empty Registry. kind names the backend family in
// error messages, e.g. "file_store".
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a factory under name, lower-cased. Registering the same name
// twice panics so that conflicting init() functions fail at startup.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	name = strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("provider: %s backend %q already registered", r.kind, name))
	}
	r.factories[name] = f
}

// New builds the backend registered under name. Names are matched case-insensitively.
func (r *Registry[T]) New(ctx context.Context, name string, params map[string]string) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s provider: %q (available: %v)", r.kind, name, r.Available())
	}
	return f(ctx, params)
}

// Available returns the registered names, sorted.
func (r *Registry[T]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
