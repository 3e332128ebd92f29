package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/internal/state"
	"github.com/goliatone/go-kvcms/internal/steps"
	"github.com/goliatone/go-kvcms/internal/versions"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

var (
	ErrStoreRequired = errors.New("content: object store required")
	ErrValueRequired = errors.New("content: value is required")
	ErrQueryRequired = errors.New("content: query is required")
)

// Slot priorities for reads.
var (
	PreviewSlots   = []string{state.Draft, state.Published}
	PublishedSlots = []string{state.Published}
)

// Service exposes content item use-cases. Every write persists the primary
// object, then the draft slot, then a version entry.
type Service interface {
	Create(ctx context.Context, businessUnitKey string, value map[string]any) (*interfaces.StoredObject, error)
	Update(ctx context.Context, businessUnitKey, key string, value map[string]any) (*interfaces.StoredObject, error)
	Merge(ctx context.Context, businessUnitKey, key string, updates map[string]any) (*interfaces.StoredObject, error)
	Delete(ctx context.Context, businessUnitKey, key string) (*interfaces.StoredObject, error)

	Get(ctx context.Context, key string) (map[string]any, error)
	List(ctx context.Context, businessUnitKey, criteria string) ([]Listed, error)
	ListByType(ctx context.Context, businessUnitKey, contentType string) ([]Listed, error)
	Preview(ctx context.Context, businessUnitKey, key string) (map[string]any, error)
	Published(ctx context.Context, businessUnitKey, key string) (map[string]any, error)
	WithState(ctx context.Context, businessUnitKey, key string, slots []string) (map[string]any, error)
	Query(ctx context.Context, businessUnitKey, query string, slots []string) (map[string]any, error)

	States(ctx context.Context, businessUnitKey, key string) (state.Record, error)
	Publish(ctx context.Context, businessUnitKey, key string, value map[string]any, clearDraft bool) (state.Record, error)
	DiscardDraft(ctx context.Context, businessUnitKey, key string) (state.Record, error)
	Versions(ctx context.Context, businessUnitKey, key string) (versions.History, error)
	Version(ctx context.Context, businessUnitKey, key, versionID string) (map[string]any, error)
}

// Resolver enriches an item value with datasource data.
type Resolver interface {
	ResolveContent(ctx context.Context, item map[string]any) map[string]any
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

func WithResolver(resolver Resolver) ServiceOption {
	return func(s *service) {
		if resolver != nil {
			s.resolver = resolver
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

// WithStateController replaces the controller built from Config.
func WithStateController(ctrl state.Controller) ServiceOption {
	return func(s *service) {
		if ctrl != nil {
			s.states = ctrl
		}
	}
}

// WithLedger replaces the version ledger built from Config.
func WithLedger(ledger versions.Ledger) ServiceOption {
	return func(s *service) {
		if ledger != nil {
			s.versions = ledger
		}
	}
}

type service struct {
	cfg      Config
	store    interfaces.ObjectStore
	states   state.Controller
	versions versions.Ledger
	resolver Resolver
	id       IDGenerator
	logger   interfaces.Logger
}

// NewService wires a content service over store. The state controller and
// version ledger are derived from cfg unless supplied as options.
func NewService(cfg Config, store interfaces.ObjectStore, opts ...ServiceOption) (Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	s := &service{
		cfg:    cfg,
		store:  store,
		id:     uuid.New,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.states == nil {
		ctrl, err := state.NewController(state.Config{
			ContentContainer: cfg.ContentContainer,
			StateContainer:   cfg.StateContainer,
		}, store, state.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.states = ctrl
	}
	if s.versions == nil {
		ledger, err := versions.NewLedger(versions.Config{
			VersionContainer: cfg.VersionContainer,
			MaxVersions:      cfg.MaxVersions,
		}, store, versions.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.versions = ledger
	}
	return s, nil
}

// Create stores value under a generated key and records its first draft
// and version.
func (s *service) Create(ctx context.Context, businessUnitKey string, value map[string]any) (*interfaces.StoredObject, error) {
	if value == nil {
		return nil, valueRequired()
	}
	key := s.cfg.KeyPrefix + s.id().String()
	stored := objectstore.CloneMap(value)
	stored["businessUnitKey"] = businessUnitKey
	stored["key"] = key

	obj, err := s.store.Create(ctx, s.cfg.ContentContainer, key, stored)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, businessUnitKey, key, stored); err != nil {
		return nil, err
	}
	logging.WithEntityContext(s.logger, businessUnitKey, key, "create").
		WithContext(ctx).Debug("content.created", "container", s.cfg.ContentContainer)
	return obj, nil
}

// Update replaces the stored value of key, creating it when missing.
func (s *service) Update(ctx context.Context, businessUnitKey, key string, value map[string]any) (*interfaces.StoredObject, error) {
	if value == nil {
		return nil, valueRequired()
	}
	stored := objectstore.CloneMap(value)
	stored["businessUnitKey"] = businessUnitKey
	stored["key"] = key
	return s.write(ctx, businessUnitKey, key, stored)
}

// Merge overlays updates on the stored value. The key and business unit
// cannot be changed through updates.
func (s *service) Merge(ctx context.Context, businessUnitKey, key string, updates map[string]any) (*interfaces.StoredObject, error) {
	if updates == nil {
		return nil, valueRequired()
	}
	current, err := s.store.Get(ctx, s.cfg.ContentContainer, key)
	if err != nil {
		return nil, err
	}
	merged := objectstore.CloneMap(current.Value)
	if merged == nil {
		merged = map[string]any{}
	}
	for field, value := range updates {
		if field == "key" || field == "businessUnitKey" {
			continue
		}
		merged[field] = objectstore.CloneValue(value)
	}
	merged["businessUnitKey"] = businessUnitKey
	merged["key"] = key
	return s.write(ctx, businessUnitKey, key, merged)
}

func (s *service) write(ctx context.Context, businessUnitKey, key string, stored map[string]any) (*interfaces.StoredObject, error) {
	obj, err := s.store.Update(ctx, s.cfg.ContentContainer, key, stored)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, businessUnitKey, key, stored); err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *service) record(ctx context.Context, businessUnitKey, key string, value map[string]any) error {
	logger := logging.WithEntityContext(s.logger, businessUnitKey, key, "record")
	if _, err := s.states.CreateDraft(ctx, businessUnitKey, key, value); err != nil {
		logger.WithContext(ctx).Error("content.draft_failed", "error", err)
		return err
	}
	if _, err := s.versions.Append(ctx, businessUnitKey, key, value); err != nil {
		logger.WithContext(ctx).Error("content.version_failed", "error", err)
		return err
	}
	return nil
}

// Delete removes the object, then its lifecycle row, then its history.
// Missing lifecycle or history rows are not errors.
func (s *service) Delete(ctx context.Context, businessUnitKey, key string) (*interfaces.StoredObject, error) {
	var deleted *interfaces.StoredObject
	logger := logging.WithEntityContext(s.logger, businessUnitKey, key, "delete")
	seq := steps.New("content.delete", logger).
		Then("delete_object", func(ctx context.Context) error {
			obj, err := s.store.Delete(ctx, s.cfg.ContentContainer, key)
			if err != nil {
				return err
			}
			deleted = obj
			return nil
		}).
		Then("delete_states", func(ctx context.Context) error {
			return ignoreNotFound(s.states.DeleteStates(ctx, businessUnitKey, key))
		}).
		Then("delete_versions", func(ctx context.Context) error {
			return ignoreNotFound(s.versions.Delete(ctx, businessUnitKey, key))
		})

	if _, err := seq.Run(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func (s *service) Get(ctx context.Context, key string) (map[string]any, error) {
	obj, err := s.store.Get(ctx, s.cfg.ContentContainer, key)
	if err != nil {
		return nil, err
	}
	return obj.Value, nil
}

// List returns the business unit's items with their lifecycle slots
// attached. criteria is an optional additional filter.
func (s *service) List(ctx context.Context, businessUnitKey, criteria string) ([]Listed, error) {
	filter := fmt.Sprintf("value(businessUnitKey = %q)", businessUnitKey)
	if strings.TrimSpace(criteria) != "" {
		filter += " AND " + criteria
	}
	objects, err := s.store.Query(ctx, s.cfg.ContentContainer, filter)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return []Listed{}, nil
	}

	clauses := make([]string, 0, len(objects))
	for _, obj := range objects {
		clauses = append(clauses, "("+state.MatchFilter(businessUnitKey, obj.Key)+")")
	}
	records, err := s.states.StatesWhere(ctx, strings.Join(clauses, " OR "))
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]map[string]any, len(records))
	for _, record := range records {
		if _, seen := byKey[record.Key]; !seen {
			byKey[record.Key] = record.States
		}
	}

	out := make([]Listed, 0, len(objects))
	for _, obj := range objects {
		obj.Value["id"] = obj.ID
		states := byKey[obj.Key]
		if states == nil {
			states = map[string]any{}
		}
		out = append(out, Listed{StoredObject: obj, States: states})
	}
	return out, nil
}

func (s *service) ListByType(ctx context.Context, businessUnitKey, contentType string) ([]Listed, error) {
	return s.List(ctx, businessUnitKey, fmt.Sprintf("value(type = %q)", contentType))
}

// Preview returns the draft, else the published slot, else the stored
// value, resolved. A missing object is an error.
func (s *service) Preview(ctx context.Context, businessUnitKey, key string) (map[string]any, error) {
	obj, err := s.store.Get(ctx, s.cfg.ContentContainer, key)
	if err != nil {
		return nil, err
	}
	value, err := s.WithState(ctx, businessUnitKey, key, PreviewSlots)
	if err != nil {
		return nil, err
	}
	if value != nil {
		return value, nil
	}
	return s.resolve(ctx, obj.Value), nil
}

// Published returns the resolved published slot, or nil when the key has
// never been published.
func (s *service) Published(ctx context.Context, businessUnitKey, key string) (map[string]any, error) {
	return s.WithState(ctx, businessUnitKey, key, PublishedSlots)
}

func (s *service) WithState(ctx context.Context, businessUnitKey, key string, slots []string) (map[string]any, error) {
	value, err := s.states.FirstWithState(ctx, state.MatchFilter(businessUnitKey, key), slots)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return s.resolve(ctx, value), nil
}

// Query finds the first item matching query in the business unit and
// returns its first present slot, resolved. Nil means no match.
func (s *service) Query(ctx context.Context, businessUnitKey, query string, slots []string) (map[string]any, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerrors.Wrap(ErrQueryRequired, goerrors.CategoryBadInput, "Query is required in the request body")
	}
	filter := fmt.Sprintf("value(%s AND businessUnitKey = %q)", query, businessUnitKey)
	objects, err := s.store.Query(ctx, s.cfg.ContentContainer, filter)
	if err != nil {
		if errors.Is(err, objectstore.ErrFilterInvalid) {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid query")
		}
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}
	return s.WithState(ctx, businessUnitKey, objects[0].Key, slots)
}

// States returns the lifecycle row, or an empty one when none exists.
func (s *service) States(ctx context.Context, businessUnitKey, key string) (state.Record, error) {
	record, err := s.states.Get(ctx, businessUnitKey, key)
	if err != nil {
		if objectstore.IsNotFound(err) {
			return state.EmptyRecord(businessUnitKey, key), nil
		}
		return state.Record{}, goerrors.Wrap(err, goerrors.CategoryInternal, "Failed to get states")
	}
	return record, nil
}

func (s *service) Publish(ctx context.Context, businessUnitKey, key string, value map[string]any, clearDraft bool) (state.Record, error) {
	if value == nil {
		return state.Record{}, valueRequired()
	}
	record, err := s.states.CreatePublished(ctx, businessUnitKey, key, value, clearDraft)
	if err != nil {
		return state.Record{}, err
	}
	s.logger.WithContext(ctx).Info("content.published", "container", s.cfg.ContentContainer, "key", key, "clear_draft", clearDraft)
	return record, nil
}

func (s *service) DiscardDraft(ctx context.Context, businessUnitKey, key string) (state.Record, error) {
	return s.states.DeleteDraft(ctx, businessUnitKey, key)
}

func (s *service) Versions(ctx context.Context, businessUnitKey, key string) (versions.History, error) {
	return s.versions.List(ctx, businessUnitKey, key)
}

func (s *service) Version(ctx context.Context, businessUnitKey, key, versionID string) (map[string]any, error) {
	entry, err := s.versions.Get(ctx, businessUnitKey, key, versionID)
	if err != nil {
		if errors.Is(err, versions.ErrVersionNotFound) {
			return nil, goerrors.Wrap(err, goerrors.CategoryNotFound, "Version not found")
		}
		return nil, err
	}
	return entry, nil
}

func (s *service) resolve(ctx context.Context, value map[string]any) map[string]any {
	if s.resolver == nil {
		return value
	}
	return s.resolver.ResolveContent(ctx, value)
}

func valueRequired() error {
	return goerrors.Wrap(ErrValueRequired, goerrors.CategoryBadInput, "Value is required in the request body")
}

func ignoreNotFound(err error) error {
	if objectstore.IsNotFound(err) {
		return nil
	}
	return err
}
