// Copyright 2026 The Codemem Authors
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


// Package registry tracks the named capabilities of a running store:
// which subsystems are enabled and whether each one is currently healthy.
package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Status values reported by Report.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

var (
	// ErrEmptyCapabilityName indicates a capability registered without a name.
	ErrEmptyCapabilityName = errors.New("capability name must not be empty")

	// ErrDuplicateCapability indicates a name registered twice.
	ErrDuplicateCapability = errors.New("capability already registered")

	// ErrUnknownCapability indicates a lookup for an unregistered name.
	ErrUnknownCapability = errors.New("unknown capability")
)

// CheckFunc probes one capability. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Capability is one named subsystem. A disabled capability is skipped by
// health checks and never degrades the overall status.
type Capability struct {
	Name    string
	Enabled bool
	Check   CheckFunc
}

// CapabilityHealth is one capability's entry in a Report.
type CapabilityHealth struct {
	Name    string
	Enabled bool
	Healthy bool
	Err     error
}

// Report is a point-in-time health snapshot across all capabilities.
type Report struct {
	Status       string
	Capabilities []CapabilityHealth
}

// Healthy reports whether every enabled capability passed its check.
func (r *Report) Healthy() bool { return r.Status == StatusHealthy }

// Registry is a thread-safe table of capabilities, registered once at store
// open and queried by the health surface.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{capabilities: make(map[string]Capability)}
}

// Register adds a capability. Registering the same name twice is an error;
// a subsystem that failed to initialize registers with Enabled false rather
// than being absent, so the health surface can report it.
func (r *Registry) Register(cap Capability) error {
	if cap.Name == "" {
		return ErrEmptyCapabilityName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.capabilities[cap.Name]; exists {
		return ErrDuplicateCapability
	}
	r.capabilities[cap.Name] = cap
	return nil
}

// Enabled reports whether a capability is registered and enabled.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.capabilities[name].Enabled
}

// Get returns a registered capability by name.
func (r *Registry) Get(name string) (Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cap, ok := r.capabilities[name]
	if !ok {
		return Capability{}, ErrUnknownCapability
	}
	return cap, nil
}

// Names returns all registered capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report runs every enabled capability's check and aggregates the results.
// The overall status is degraded if any enabled capability fails; disabled
// capabilities appear in the report but do not affect the status.
func (r *Registry) Report(ctx context.Context) *Report {
	r.mu.RLock()
	caps := make([]Capability, 0, len(r.capabilities))
	for _, cap := range r.capabilities {
		caps = append(caps, cap)
	}
	r.mu.RUnlock()

	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })

	report := &Report{Status: StatusHealthy}
	for _, cap := range caps {
		health := CapabilityHealth{Name: cap.Name, Enabled: cap.Enabled}

		if cap.Enabled {
			var err error
			if cap.Check != nil {
				err = cap.Check(ctx)
			}
			health.Healthy = err == nil
			health.Err = err
			if err != nil {
				report.Status = StatusDegraded
			}
		}

		report.Capabilities = append(report.Capabilities, health)
	}
	return report
}
