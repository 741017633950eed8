package validate

import "worldgraph/internal/entity"

// Registry is the part of a universe a descriptor is checked against.
type Registry interface {
	TypeByName(name string) (*entity.Type, bool)
	Operation(key string) (*entity.Operation, bool)
	Operations() []*entity.Operation
	RootType() *entity.Type
}

var _ Registry = (*entity.Universe)(nil)
