package dao

import (
	"context"
)

// Service is a generic persistence contract keyed by K. Concrete stores
// (in-memory, afs-backed) implement it per entity type.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context) ([]*T, error)
}
