// Package registry resolves client configuration into object and list
// schemas.
//
// The registry is built once when a client is constructed and never
// changes afterwards, so it is safe for concurrent reads without locking.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/artpar/attio/core/attribute"
	"github.com/artpar/attio/core/schema"
)

var (
	// ErrUnknownObject is returned for objects that are neither standard nor configured.
	ErrUnknownObject = errors.New("unknown object")

	// ErrUnknownList is returned for lists that are not configured.
	ErrUnknownList = errors.New("unknown list")

	// ErrReservedField is returned when a configured field reuses the id field name.
	ErrReservedField = errors.New("reserved field name")
)

// ConfigError collects every problem found while resolving a Config.
type ConfigError struct {
	Problems []error
}

func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("invalid client configuration:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e *ConfigError) Unwrap() []error { return e.Problems }

// Registry holds the resolved schema pair for each object and list.
type Registry struct {
	objects map[string]schema.Pair
	lists   map[string]schema.Pair
}

// Resolve applies cfg to the standard catalog.
//
// Objects set to true must be standard. Field maps are merged over the
// standard fields with caller fields winning, or used as-is for custom
// objects. Standard objects absent from cfg follow DefaultDisabled.
func Resolve(cfg Config) (*Registry, error) {
	r := &Registry{
		objects: make(map[string]schema.Pair),
		lists:   make(map[string]schema.Pair),
	}
	var problems []error

	for _, name := range sortedKeys(cfg.Objects) {
		oc := cfg.Objects[name]
		standard, isStandard := Standard(name)

		switch oc.mode {
		case modeDisabled:
			continue
		case modeDefault:
			if !isStandard {
				problems = append(problems, fmt.Errorf("object %q: %w: no fields configured", name, ErrUnknownObject))
			} else if !DefaultDisabled[name] {
				r.objects[name] = schema.Create(standard, schema.RecordID)
			}
			continue
		case modeEnabled:
			if !isStandard {
				problems = append(problems, fmt.Errorf("object %q: %w: enabled without fields", name, ErrUnknownObject))
				continue
			}
			r.objects[name] = schema.Create(standard, schema.RecordID)
			continue
		}

		if _, ok := oc.fields[string(schema.RecordID)]; ok {
			problems = append(problems, fmt.Errorf("object %q: %w %q", name, ErrReservedField, schema.RecordID))
			continue
		}
		fields := standard
		if fields == nil {
			fields = make(map[string]attribute.Attribute, len(oc.fields))
		}
		for k, v := range oc.fields {
			fields[k] = v
		}
		r.objects[name] = schema.Create(fields, schema.RecordID)
	}

	for _, name := range StandardNames() {
		if _, mentioned := cfg.Objects[name]; mentioned || DefaultDisabled[name] {
			continue
		}
		fields, _ := Standard(name)
		r.objects[name] = schema.Create(fields, schema.RecordID)
	}

	for _, name := range sortedKeys(cfg.Lists) {
		fields := cfg.Lists[name]
		if _, ok := fields[string(schema.EntryID)]; ok {
			problems = append(problems, fmt.Errorf("list %q: %w %q", name, ErrReservedField, schema.EntryID))
			continue
		}
		r.lists[name] = schema.Create(fields, schema.EntryID)
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return r, nil
}

// Object returns the schema pair for an object.
func (r *Registry) Object(name string) (schema.Pair, error) {
	pair, ok := r.objects[name]
	if !ok {
		return schema.Pair{}, fmt.Errorf("%w %q", ErrUnknownObject, name)
	}
	return pair, nil
}

// List returns the schema pair for a list's entries.
func (r *Registry) List(name string) (schema.Pair, error) {
	pair, ok := r.lists[name]
	if !ok {
		return schema.Pair{}, fmt.Errorf("%w %q", ErrUnknownList, name)
	}
	return pair, nil
}

// Objects returns resolved object names, sorted.
func (r *Registry) Objects() []string { return sortedKeys(r.objects) }

// Lists returns resolved list names, sorted.
func (r *Registry) Lists() []string { return sortedKeys(r.lists) }

// Equal reports whether both registries resolved the same schemas.
func (r *Registry) Equal(other *Registry) bool {
	return pairsEqual(r.objects, other.objects) && pairsEqual(r.lists, other.lists)
}

func pairsEqual(a, b map[string]schema.Pair) bool {
	if len(a) != len(b) {
		return false
	}
	for name, pa := range a {
		pb, ok := b[name]
		if !ok || !pa.Equal(pb) {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
