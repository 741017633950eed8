package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DomainDescriptor is the on-disk description of a domain: the short ids and
// extra hints of the operations its universe exposes.
type DomainDescriptor struct {
	Version    int             `yaml:"version" validate:"eq=1"`
	Name       string          `yaml:"name" validate:"required"`
	Operations []OperationSpec `yaml:"operations" validate:"dive"`

	opIndex map[string]*OperationSpec
	idIndex map[string]*OperationSpec
}

type OperationSpec struct {
	Type  string   `yaml:"type" validate:"required"`
	Name  string   `yaml:"name" validate:"required"`
	ID    string   `yaml:"id,omitempty"`
	Hints []string `yaml:"hints,omitempty"`
}

// Key is the operation key "<Type>.<name>".
func (o OperationSpec) Key() string {
	return o.Type + "." + o.Name
}

func LoadDomain(path string) (*DomainDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading domain: %w", err)
	}

	var d DomainDescriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("loading domain: %w", err)
	}

	if err := validateDomain(&d); err != nil {
		return nil, fmt.Errorf("loading domain: %w", err)
	}

	d.opIndex = make(map[string]*OperationSpec)
	d.idIndex = make(map[string]*OperationSpec)
	for i := range d.Operations {
		op := &d.Operations[i]
		d.opIndex[strings.ToLower(op.Key())] = op
		if op.ID != "" {
			d.idIndex[strings.ToLower(op.ID)] = op
		}
	}

	return &d, nil
}

func validateDomain(d *DomainDescriptor) error {
	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}

	keys := make(map[string]struct{})
	ids := make(map[string]struct{})
	for i, op := range d.Operations {
		if strings.TrimSpace(op.Type) == "" || strings.TrimSpace(op.Name) == "" {
			return fmt.Errorf("operation %d needs a type and a name", i)
		}
		key := strings.ToLower(op.Key())
		if _, exists := keys[key]; exists {
			return fmt.Errorf("duplicate operation: %s", op.Key())
		}
		keys[key] = struct{}{}

		if op.ID == "" {
			continue
		}
		if strings.TrimSpace(op.ID) != op.ID || strings.ContainsAny(op.ID, " \t(),") {
			return fmt.Errorf("operation %s has malformed id %q", op.Key(), op.ID)
		}
		id := strings.ToLower(op.ID)
		if _, exists := ids[id]; exists {
			return fmt.Errorf("duplicate operation id: %s", op.ID)
		}
		ids[id] = struct{}{}
	}

	return nil
}

// Operation finds the entry for an operation key, case-insensitively.
func (d *DomainDescriptor) Operation(key string) (*OperationSpec, bool) {
	if d == nil {
		return nil, false
	}
	op, ok := d.opIndex[strings.ToLower(key)]
	return op, ok
}

// ByID finds the spec carrying a short id, case-insensitively.
func (d *DomainDescriptor) ByID(id string) (*OperationSpec, bool) {
	if d == nil {
		return nil, false
	}
	op, ok := d.idIndex[strings.ToLower(id)]
	return op, ok
}

// IDs returns the custom short ids keyed by operation key, in the form
// entity.NewDomain takes as overrides.
func (d *DomainDescriptor) IDs() map[string]string {
	if d == nil {
		return nil
	}
	ids := make(map[string]string)
	for _, op := range d.Operations {
		if op.ID != "" {
			ids[op.Key()] = op.ID
		}
	}
	return ids
}
