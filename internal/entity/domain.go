package entity

import (
	"fmt"
	"strings"
)

// Domain describes a universe to components that refer to operations by
// short textual ids.
type Domain struct {
	Name string

	universe *Universe
	ids      map[*Operation]string
	byID     map[string]*Operation
}

// NewDomain assigns every operation of u a short id. Ids default to the
// lowercased operation key; overrides maps operation keys to custom ids.
func NewDomain(name string, u *Universe, overrides map[string]string) (*Domain, error) {
	if u == nil {
		return nil, fmt.Errorf("domain %s: universe is required", name)
	}
	d := &Domain{
		Name:     name,
		universe: u,
		ids:      make(map[*Operation]string),
		byID:     make(map[string]*Operation),
	}

	custom := make(map[*Operation]string, len(overrides))
	for key, id := range overrides {
		op, ok := u.Operation(key)
		if !ok {
			return nil, fmt.Errorf("domain %s: %w: %s", name, ErrUnknownOperation, key)
		}
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("domain %s: empty id for %s", name, key)
		}
		custom[op] = id
	}

	for _, op := range u.Operations() {
		id, ok := custom[op]
		if !ok {
			id = strings.ToLower(op.Key())
		}
		norm := strings.ToLower(id)
		if other, exists := d.byID[norm]; exists {
			return nil, fmt.Errorf("domain %s: id %q assigned to both %s and %s", name, id, other.Key(), op.Key())
		}
		d.ids[op] = id
		d.byID[norm] = op
	}
	return d, nil
}

// MustDomain is like NewDomain but panics on error.
func MustDomain(name string, u *Universe, overrides map[string]string) *Domain {
	d, err := NewDomain(name, u, overrides)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Domain) Universe() *Universe {
	return d.universe
}

// ShortID returns the short id of op, or its key if op is foreign.
func (d *Domain) ShortID(op *Operation) string {
	if id, ok := d.ids[op]; ok {
		return id
	}
	return op.Key()
}

// Resolve finds an operation by short id, falling back to the operation key.
func (d *Domain) Resolve(name string) (*Operation, bool) {
	if op, ok := d.byID[strings.ToLower(name)]; ok {
		return op, true
	}
	return d.universe.Operation(name)
}
