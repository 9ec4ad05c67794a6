package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

type memorySource struct {
	name string
	data []byte
}

func (m memorySource) Load() ([]byte, error) { return m.data, nil }
func (m memorySource) Path() string          { return m.name }

// Resolver merges one or more catalog sources into a stable lookup
// table. Reload picks up on-disk edits during development.
type Resolver struct {
	mu       sync.RWMutex
	sources  []source
	profiles map[string]WeaponProfile
}

// DefaultPaths returns the canonical catalog locations relative to the
// server module root.
func DefaultPaths() []string {
	return []string{
		filepath.Join("config", "weapons", "definitions.json"),
	}
}

// Load constructs a Resolver backed by the given catalog file paths.
func Load(paths ...string) (*Resolver, error) {
	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		sources = append(sources, fileSource{path: trimmed})
	}
	return newResolver(sources...)
}

// LoadBytes constructs a Resolver from an in-memory document. Tests use
// it to avoid touching disk.
func LoadBytes(name string, data []byte) (*Resolver, error) {
	return newResolver(memorySource{name: name, data: data})
}

func newResolver(sources ...source) (*Resolver, error) {
	r := &Resolver{
		sources:  append([]source(nil), sources...),
		profiles: make(map[string]WeaponProfile),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses all catalog sources. Later sources override earlier
// ones to support local overlays during development.
func (r *Resolver) Reload() error {
	if r == nil {
		return nil
	}
	profiles := make(map[string]WeaponProfile)
	for _, src := range r.sources {
		data, err := src.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("catalog: failed loading %s: %w", src.Path(), err)
		}
		entries, err := decodeProfiles(data)
		if err != nil {
			return fmt.Errorf("catalog: failed parsing %s: %w", src.Path(), err)
		}
		seen := make(map[string]struct{}, len(entries))
		for _, profile := range entries {
			id := strings.TrimSpace(profile.ID)
			if id == "" {
				return fmt.Errorf("catalog: entry missing id in %s", src.Path())
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("catalog: duplicate id %q in %s", id, src.Path())
			}
			seen[id] = struct{}{}
			if err := validateProfile(profile); err != nil {
				return fmt.Errorf("catalog: entry %q: %w", id, err)
			}
			profiles[id] = profile
		}
	}

	r.mu.Lock()
	r.profiles = profiles
	r.mu.Unlock()
	return nil
}

// Resolve returns the profile for a weapon id.
func (r *Resolver) Resolve(id string) (WeaponProfile, bool) {
	if r == nil {
		return WeaponProfile{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[id]
	return profile, ok
}

// Profiles returns a snapshot of all loaded profiles keyed by id.
func (r *Resolver) Profiles() map[string]WeaponProfile {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]WeaponProfile, len(r.profiles))
	for id, profile := range r.profiles {
		out[id] = profile
	}
	return out
}

func validateProfile(p WeaponProfile) error {
	if p.Speed < 0 {
		return fmt.Errorf("speed must not be negative")
	}
	if p.Bounciness < 0 || p.Bounciness > 1 {
		return fmt.Errorf("bounciness must be in [0,1]")
	}
	if p.DudChance < 0 || p.DudChance > 1 {
		return fmt.Errorf("dudChance must be in [0,1]")
	}
	if p.Rope && p.ExplosionRadius > 0 {
		return fmt.Errorf("rope weapons never detonate and must not carry an explosionRadius")
	}
	if p.UsesTimer && p.FixedTimer <= 0 && p.DefaultTimer <= 0 {
		return fmt.Errorf("timer weapons need fixedTimer or defaultTimer")
	}
	if p.TriggeredByProximity && p.TriggerDelay < 0 {
		return fmt.Errorf("triggerDelay must not be negative")
	}
	if p.ExplodesOnSettle && p.SettleVelocityThreshold <= 0 {
		return fmt.Errorf("settle weapons need a positive settleVelocityThreshold")
	}
	return nil
}

func decodeProfiles(data []byte) ([]WeaponProfile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var entries []WeaponProfile
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
