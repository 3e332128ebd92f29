package objectstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-kvcms/internal/identity"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// IDGenerator produces object identifiers.
type IDGenerator func() uuid.UUID

// Option configures store adapters.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID IDGenerator
	keyed func(container, key string) uuid.UUID
}

func (o options) idFor(container, key string) uuid.UUID {
	if o.keyed != nil {
		return o.keyed(container, key)
	}
	return o.newID()
}

func defaultOptions() options {
	return options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.New,
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.now = clock
		}
	}
}

// WithIDGenerator overrides the object id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// WithDeterministicIDs derives object ids from container and key instead
// of generating them. It takes precedence over WithIDGenerator.
func WithDeterministicIDs() Option {
	return func(o *options) {
		o.keyed = identity.ObjectUUID
	}
}

// MemoryStore keeps objects in process memory. Values are cloned on the way
// in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	byKey   map[string]map[string]*memoryEntry
	byID    map[string]*memoryEntry
	seq     uint64
	options options
}

type memoryEntry struct {
	obj *interfaces.StoredObject
	seq uint64
}

var _ interfaces.ObjectStore = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory object store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &MemoryStore{
		byKey:   make(map[string]map[string]*memoryEntry),
		byID:    make(map[string]*memoryEntry),
		options: o,
	}
}

func (s *MemoryStore) Create(_ context.Context, container, key string, value map[string]any) (*interfaces.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[container][key]; exists {
		return nil, &ConflictError{Container: container, Key: key}
	}
	entry := s.insertLocked(container, key, value)
	return CloneObject(entry.obj), nil
}

func (s *MemoryStore) Get(ctx context.Context, container, key string, expand ...string) (*interfaces.StoredObject, error) {
	s.mu.RLock()
	var obj *interfaces.StoredObject
	entry, ok := s.byKey[container][key]
	if ok {
		obj = CloneObject(entry.obj)
	}
	s.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Container: container, Key: key}
	}
	if err := Expand(ctx, obj, s.GetByID, expand...); err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*interfaces.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return CloneObject(entry.obj), nil
}

func (s *MemoryStore) Update(ctx context.Context, container, key string, value map[string]any, expand ...string) (*interfaces.StoredObject, error) {
	s.mu.Lock()
	entry, exists := s.byKey[container][key]
	if exists {
		entry.obj.Value = CloneMap(value)
		if entry.obj.Value == nil {
			entry.obj.Value = map[string]any{}
		}
		entry.obj.Version++
		entry.obj.LastModifiedAt = s.options.now()
	} else {
		entry = s.insertLocked(container, key, value)
	}
	result := CloneObject(entry.obj)
	s.mu.Unlock()

	if err := Expand(ctx, result, s.GetByID, expand...); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MemoryStore) Delete(_ context.Context, container, key string) (*interfaces.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byKey[container][key]
	if !ok {
		return nil, &NotFoundError{Container: container, Key: key}
	}
	delete(s.byKey[container], key)
	delete(s.byID, entry.obj.ID)
	return entry.obj, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, container, id string) (*interfaces.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byID[id]
	if !ok || entry.obj.Container != container {
		return nil, &NotFoundError{Container: container, ID: id}
	}
	delete(s.byKey[container], entry.obj.Key)
	delete(s.byID, id)
	return entry.obj, nil
}

func (s *MemoryStore) Query(ctx context.Context, container, filter string, expand ...string) ([]*interfaces.StoredObject, error) {
	predicate, err := CompilePredicate(filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries := make([]*memoryEntry, 0, len(s.byKey[container]))
	for _, entry := range s.byKey[container] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	candidates := make([]*interfaces.StoredObject, len(entries))
	for i, entry := range entries {
		candidates[i] = CloneObject(entry.obj)
	}
	s.mu.RUnlock()

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

func (s *MemoryStore) insertLocked(container, key string, value map[string]any) *memoryEntry {
	now := s.options.now()
	obj := &interfaces.StoredObject{
		ID:             s.options.idFor(container, key).String(),
		Version:        1,
		Container:      container,
		Key:            key,
		Value:          CloneMap(value),
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	if obj.Value == nil {
		obj.Value = map[string]any{}
	}
	s.seq++
	entry := &memoryEntry{obj: obj, seq: s.seq}
	if s.byKey[container] == nil {
		s.byKey[container] = make(map[string]*memoryEntry)
	}
	s.byKey[container][key] = entry
	s.byID[obj.ID] = entry
	return entry
}
