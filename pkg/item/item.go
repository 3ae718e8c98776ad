// Package item interns item names to small integer identifiers.
//
// Every item that appears in a recipe file is registered once, at load time,
// and receives the next free [ID]. IDs are dense (0..Len()-1), which lets the
// expansion engine keep its per-run accumulators in plain slices indexed by
// ID. Names are normalized (trimmed and lower-cased) before interning, so
// "Iron Plate" and " iron plate" refer to the same item.
//
// A [Registry] is an explicit object; there is no process-wide table. Once a
// recipe database has been built from it the registry is frozen and rejects
// new names, which keeps the ID space stable for the engine.
//
//	reg := item.NewRegistry()
//	plate, _ := reg.Intern("Iron Plate")
//	id, ok := reg.Lookup("iron plate") // id == plate, ok == true
//	reg.Name(plate)                    // "iron plate"
package item

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
)

var (
	// ErrFrozen is returned by [Registry.Intern] for an unknown name after
	// [Registry.Freeze] was called.
	ErrFrozen = errors.New("item registry is frozen")

	// ErrInvalidName is returned by [Registry.Intern] when the normalized name
	// is empty or contains reserved characters.
	ErrInvalidName = errors.New("invalid item name")
)

// ID identifies an interned item. IDs are assigned in interning order.
type ID int

// Amount pairs a rate (or quantity) with an item.
type Amount struct {
	Amount float64
	Item   ID
}

// Normalize returns the canonical form of an item name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Registry is a bidirectional name <-> ID table.
//
// The zero value is not usable; create registries with [NewRegistry].
// Registry is not safe for concurrent mutation. After [Registry.Freeze] it is
// read-only and may be shared freely.
type Registry struct {
	names  []string
	byName map[string]ID
	frozen bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ID)}
}

// Intern returns the ID for name, registering it if it is new.
// The name is normalized first; an invalid name yields [ErrInvalidName].
func (r *Registry) Intern(name string) (ID, error) {
	norm := Normalize(name)
	if id, ok := r.byName[norm]; ok {
		return id, nil
	}
	if err := ferrors.ValidateItemName(norm); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidName, err)
	}
	if r.frozen {
		return 0, fmt.Errorf("%w: cannot add %q", ErrFrozen, norm)
	}
	id := ID(len(r.names))
	r.names = append(r.names, norm)
	r.byName[norm] = id
	return id, nil
}

// Lookup returns the ID registered for name, if any.
func (r *Registry) Lookup(name string) (ID, bool) {
	id, ok := r.byName[Normalize(name)]
	return id, ok
}

// Name returns the normalized name for id.
// Out-of-range IDs return a placeholder of the form "item#<id>".
func (r *Registry) Name(id ID) string {
	if !r.Valid(id) {
		return fmt.Sprintf("item#%d", int(id))
	}
	return r.names[id]
}

// Valid reports whether id was issued by this registry.
func (r *Registry) Valid(id ID) bool {
	return id >= 0 && int(id) < len(r.names)
}

// Len returns the number of registered items.
func (r *Registry) Len() int { return len(r.names) }

// Names returns all names in ID order.
func (r *Registry) Names() []string { return slices.Clone(r.names) }

// Sorted returns all IDs ordered by name.
func (r *Registry) Sorted() []ID {
	ids := make([]ID, len(r.names))
	for i := range ids {
		ids[i] = ID(i)
	}
	slices.SortFunc(ids, func(a, b ID) int { return strings.Compare(r.names[a], r.names[b]) })
	return ids
}

// Freeze makes the registry read-only. It is idempotent.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen }

// Format renders an amount as "<amount> <name>" using the registry.
func (r *Registry) Format(a Amount) string {
	return fmt.Sprintf("%g %s", a.Amount, r.Name(a.Item))
}
