package contenttypes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

var (
	ErrStoreRequired = errors.New("contenttypes: object store required")
	ErrValueRequired = errors.New("contenttypes: value is required")
	ErrUnknownType   = errors.New("contenttypes: content type not found")
)

// PropertySchema is one entry of a content type's metadata.propertySchema.
type PropertySchema struct {
	Name           string
	Type           string
	DatasourceType string
	Raw            map[string]any
}

// Service manages stored content types and resolves an item's type, with
// the sample registry as fallback.
type Service interface {
	List(ctx context.Context) ([]map[string]any, error)
	Get(ctx context.Context, key string) (map[string]any, error)
	Create(ctx context.Context, value map[string]any) (*interfaces.StoredObject, error)
	Update(ctx context.Context, key string, value map[string]any) (*interfaces.StoredObject, error)
	Delete(ctx context.Context, key string) error
	Lookup(ctx context.Context, typeKey string) (map[string]any, error)
}

type IDGenerator func() uuid.UUID

type ServiceOption func(*service)

func WithIDGenerator(gen IDGenerator) ServiceOption {
	return func(s *service) {
		if gen != nil {
			s.id = gen
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithoutSamples disables the built-in registry fallback.
func WithoutSamples() ServiceOption {
	return func(s *service) {
		s.samples = nil
	}
}

type service struct {
	container string
	store     interfaces.ObjectStore
	samples   map[string]map[string]any
	id        IDGenerator
	logger    interfaces.Logger
}

// NewService returns a content type service over container.
func NewService(container string, store interfaces.ObjectStore, opts ...ServiceOption) (Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	s := &service{
		container: container,
		store:     store,
		samples:   sampleRegistry(),
		id:        uuid.New,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *service) List(ctx context.Context) ([]map[string]any, error) {
	objects, err := s.store.Query(ctx, s.container, "")
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(objects))
	for _, obj := range objects {
		out = append(out, flatten(obj.ID, obj.Key, obj.Value))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, key string) (map[string]any, error) {
	obj, err := s.store.Get(ctx, s.container, key)
	if err != nil {
		return nil, err
	}
	return flatten(obj.Key, obj.Key, obj.Value), nil
}

// Create stores value under a generated type-<uuid> key.
func (s *service) Create(ctx context.Context, value map[string]any) (*interfaces.StoredObject, error) {
	if value == nil {
		return nil, ErrValueRequired
	}
	key := "type-" + s.id().String()
	record := objectstore.CloneMap(value)
	record["key"] = key
	obj, err := s.store.Create(ctx, s.container, key, record)
	if err != nil {
		return nil, err
	}
	s.logger.Info("contenttypes.created", "key", key)
	return obj, nil
}

func (s *service) Update(ctx context.Context, key string, value map[string]any) (*interfaces.StoredObject, error) {
	if value == nil {
		return nil, ErrValueRequired
	}
	return s.store.Update(ctx, s.container, key, value)
}

func (s *service) Delete(ctx context.Context, key string) error {
	_, err := s.store.Delete(ctx, s.container, key)
	return err
}

// Lookup returns the content type registered for typeKey: the stored object
// value when present, else the sample registry entry. Store failures fall
// through to the registry as well.
func (s *service) Lookup(ctx context.Context, typeKey string) (map[string]any, error) {
	typeKey = strings.TrimSpace(typeKey)
	if typeKey == "" {
		return nil, ErrUnknownType
	}
	obj, err := s.store.Get(ctx, s.container, typeKey)
	if err == nil {
		return map[string]any{"key": obj.Key, "value": objectstore.CloneMap(obj.Value)}, nil
	}
	if !objectstore.IsNotFound(err) {
		s.logger.Warn("contenttypes.lookup_failed", "type", typeKey, "error", err)
	}
	if sample, ok := s.samples[typeKey]; ok {
		return objectstore.CloneMap(sample), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeKey)
}

// Properties extracts value.metadata.propertySchema from a looked-up
// content type, sorted by property name.
func Properties(contentType map[string]any) []PropertySchema {
	value, _ := contentType["value"].(map[string]any)
	metadata, _ := value["metadata"].(map[string]any)
	schema, _ := metadata["propertySchema"].(map[string]any)
	if len(schema) == 0 {
		return nil
	}
	out := make([]PropertySchema, 0, len(schema))
	for name, raw := range schema {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		prop := PropertySchema{Name: name, Raw: entry}
		prop.Type, _ = entry["type"].(string)
		prop.DatasourceType, _ = entry["datasourceType"].(string)
		out = append(out, prop)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func flatten(id, key string, value map[string]any) map[string]any {
	out := map[string]any{"id": id, "key": key}
	for k, v := range objectstore.CloneMap(value) {
		out[k] = v
	}
	return out
}
