package objectstore

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

const (
	objectNamespace = "kv_object"

	// cacheNamespace matches the namespace go-repository-cache derives from objectRecord.
	cacheNamespace = "object_record"
)

// objectRecord is the single table backing every container.
type objectRecord struct {
	bun.BaseModel `bun:"table:kv_objects,alias:o"`

	ID        uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Ref       string         `bun:"ref,notnull,unique" json:"ref"`
	Container string         `bun:"container,notnull" json:"container"`
	Key       string         `bun:"key,notnull" json:"key"`
	Version   int            `bun:"version,notnull,default:1" json:"version"`
	Value     map[string]any `bun:"value,type:jsonb,notnull" json:"value"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// objectRef is the lookup identifier stored in the ref column.
func objectRef(container, key string) string {
	return container + "/" + key
}

func (r *objectRecord) toObject() *interfaces.StoredObject {
	if r == nil {
		return nil
	}
	return &interfaces.StoredObject{
		ID:             r.ID.String(),
		Version:        r.Version,
		Container:      r.Container,
		Key:            r.Key,
		Value:          CloneMap(r.Value),
		CreatedAt:      r.CreatedAt,
		LastModifiedAt: r.UpdatedAt,
	}
}

// NewObjectRepository builds the go-repository-bun repository for kv objects.
func NewObjectRepository(db *bun.DB) repository.Repository[*objectRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*objectRecord]{
		NewRecord: func() *objectRecord { return &objectRecord{} },
		GetID: func(r *objectRecord) uuid.UUID {
			return r.ID
		},
		SetID: func(r *objectRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "ref"
		},
		GetIdentifierValue: func(r *objectRecord) string {
			if r == nil {
				return ""
			}
			return r.Ref
		},
	})
}

// EnsureSchema creates the kv_objects table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("objectstore: bun db is required")
	}
	_, err := db.NewCreateTable().Model((*objectRecord)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("objectstore: create kv_objects: %w", err)
	}
	return nil
}

// BunStore persists objects in a SQL database through go-repository-bun.
// Lookups by ref and id can be served through go-repository-cache; container
// scans always hit the database. Every write drops the cached namespace.
type BunStore struct {
	repo         repository.Repository[*objectRecord]
	base         repository.Repository[*objectRecord]
	cacheService cache.CacheService
	cachePrefix  string
	options      options
}

var _ interfaces.ObjectStore = (*BunStore)(nil)

// NewBunStore creates a store without caching.
func NewBunStore(db *bun.DB, opts ...Option) *BunStore {
	return NewBunStoreWithCache(db, nil, nil, opts...)
}

// NewBunStoreWithCache creates a store whose reads go through the cache service.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer, opts ...Option) *BunStore {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	base := NewObjectRepository(db)
	repo := base
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		repo = repositorycache.NewWithIdentifierFields(base, cacheService, serializer, "Ref")
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = cacheNamespace + cache.KeySeparator
	}
	return &BunStore{
		repo:         repo,
		base:         base,
		cacheService: svc,
		cachePrefix:  prefix,
		options:      o,
	}
}

func (s *BunStore) Create(ctx context.Context, container, key string, value map[string]any) (*interfaces.StoredObject, error) {
	if _, err := s.find(ctx, container, key); err == nil {
		return nil, &ConflictError{Container: container, Key: key}
	} else if !IsNotFound(err) {
		return nil, err
	}
	record, err := s.insert(ctx, container, key, value)
	if err != nil {
		return nil, err
	}
	return record.toObject(), nil
}

func (s *BunStore) Get(ctx context.Context, container, key string, expand ...string) (*interfaces.StoredObject, error) {
	record, err := s.find(ctx, container, key)
	if err != nil {
		return nil, err
	}
	obj := record.toObject()
	if err := Expand(ctx, obj, s.GetByID, expand...); err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *BunStore) GetByID(ctx context.Context, id string) (*interfaces.StoredObject, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &NotFoundError{ID: id}
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, "", "", id)
	}
	return record.toObject(), nil
}

func (s *BunStore) Update(ctx context.Context, container, key string, value map[string]any, expand ...string) (*interfaces.StoredObject, error) {
	record, err := s.find(ctx, container, key)
	switch {
	case IsNotFound(err):
		record, err = s.insert(ctx, container, key, value)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		record.Value = CloneMap(value)
		if record.Value == nil {
			record.Value = map[string]any{}
		}
		record.Version++
		record.UpdatedAt = s.options.now()
		updated, err := s.repo.Update(ctx, record,
			repository.UpdateByID(record.ID.String()),
			repository.UpdateColumns("value", "version", "updated_at"),
		)
		if err != nil {
			return nil, mapRepositoryError(err, container, key, "")
		}
		if updated != nil {
			record = updated
		}
		s.invalidate(ctx)
	}

	obj := record.toObject()
	if err := Expand(ctx, obj, s.GetByID, expand...); err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *BunStore) Delete(ctx context.Context, container, key string) (*interfaces.StoredObject, error) {
	record, err := s.find(ctx, container, key)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, record); err != nil {
		return nil, mapRepositoryError(err, container, key, "")
	}
	s.invalidate(ctx)
	return record.toObject(), nil
}

func (s *BunStore) DeleteByID(ctx context.Context, container, id string) (*interfaces.StoredObject, error) {
	obj, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if obj.Container != container {
		return nil, &NotFoundError{Container: container, ID: id}
	}
	return s.Delete(ctx, container, obj.Key)
}

func (s *BunStore) Query(ctx context.Context, container, filter string, expand ...string) ([]*interfaces.StoredObject, error) {
	predicate, err := CompilePredicate(filter)
	if err != nil {
		return nil, err
	}
	records, _, err := s.base.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.container = ?", container).Order("created_at ASC", "key ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, container, "", "")
	}

	candidates := make([]*interfaces.StoredObject, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, record.toObject())
	}
	matched, err := predicate.Filter(candidates)
	if err != nil {
		return nil, err
	}
	for _, obj := range matched {
		if err := Expand(ctx, obj, s.GetByID, expand...); err != nil {
			return nil, err
		}
	}
	return matched, nil
}

func (s *BunStore) find(ctx context.Context, container, key string) (*objectRecord, error) {
	record, err := s.repo.GetByIdentifier(ctx, objectRef(container, key))
	if err != nil {
		return nil, mapRepositoryError(err, container, key, "")
	}
	if record == nil {
		return nil, &NotFoundError{Container: container, Key: key}
	}
	// cached records are shared; callers mutate the copy
	found := *record
	return &found, nil
}

func (s *BunStore) insert(ctx context.Context, container, key string, value map[string]any) (*objectRecord, error) {
	now := s.options.now()
	record := &objectRecord{
		ID:        s.options.idFor(container, key),
		Ref:       objectRef(container, key),
		Container: container,
		Key:       key,
		Version:   1,
		Value:     CloneMap(value),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if record.Value == nil {
		record.Value = map[string]any{}
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, mapRepositoryError(err, container, key, "")
	}
	s.invalidate(ctx)
	if created == nil {
		return record, nil
	}
	return created, nil
}

func (s *BunStore) invalidate(ctx context.Context) {
	if s.cacheService == nil || s.cachePrefix == "" {
		return
	}
	_ = s.cacheService.DeleteByPrefix(ctx, s.cachePrefix)
}

func mapRepositoryError(err error, container, key, id string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Container: container, Key: key, ID: id}
	}
	return fmt.Errorf("%s repository error: %w", objectNamespace, err)
}
