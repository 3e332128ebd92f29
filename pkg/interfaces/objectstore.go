package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is matched (via errors.Is) by every not-found error an
// ObjectStore returns.
var ErrObjectNotFound = errors.New("objectstore: object not found")

// ErrObjectExists is returned by Create when the container already holds the key.
var ErrObjectExists = errors.New("objectstore: object already exists")

// StoredObject is a JSON document addressed by container and key.
type StoredObject struct {
	ID             string         `json:"id"`
	Version        int            `json:"version"`
	Container      string         `json:"container"`
	Key            string         `json:"key"`
	Value          map[string]any `json:"value"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastModifiedAt time.Time      `json:"lastModifiedAt"`
}

// ObjectStore is the key-value contract every kvcms service is built on. It
// offers no transactions and no compare-and-swap; Update replaces the whole
// value and creates the object when it is missing.
//
// Filters passed to Query are opaque predicate strings such as
// `value(key = "home" AND businessUnitKey = "eu")`. Expand paths such as
// `value.components[*]` hydrate {id, typeId} references with an `obj` field.
type ObjectStore interface {
	Create(ctx context.Context, container, key string, value map[string]any) (*StoredObject, error)
	Get(ctx context.Context, container, key string, expand ...string) (*StoredObject, error)
	GetByID(ctx context.Context, id string) (*StoredObject, error)
	Update(ctx context.Context, container, key string, value map[string]any, expand ...string) (*StoredObject, error)
	Delete(ctx context.Context, container, key string) (*StoredObject, error)
	DeleteByID(ctx context.Context, container, id string) (*StoredObject, error)
	Query(ctx context.Context, container, filter string, expand ...string) ([]*StoredObject, error)
}
