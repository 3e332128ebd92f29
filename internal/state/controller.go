package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// Lifecycle slot names.
const (
	Draft     = "draft"
	Published = "published"
)

var (
	// ErrNoPublishedState is the source of the error returned when a draft is
	// discarded for a key that has never been published.
	ErrNoPublishedState = errors.New("state: no published state found")
	ErrStoreRequired    = errors.New("state: object store required")
	ErrContainerMissing = errors.New("state: content and state containers are required")
)

// TextCodeNoPublishedState tags ErrNoPublishedState for API clients.
const TextCodeNoPublishedState = "NO_PUBLISHED_STATE"

// Config names the containers a controller manages. The same controller
// type serves content items, pages, and page items.
type Config struct {
	ContentContainer string
	StateContainer   string
}

// Record is the lifecycle row stored under StateKey(businessUnitKey, key).
type Record struct {
	Key             string         `json:"key"`
	BusinessUnitKey string         `json:"businessUnitKey"`
	States          map[string]any `json:"states"`
}

// Value returns the named slot as an object, or nil when it is absent.
func (r Record) Value(slot string) map[string]any {
	if r.States == nil {
		return nil
	}
	value, _ := r.States[slot].(map[string]any)
	return value
}

// Controller maintains draft/published slots for content keys.
type Controller interface {
	StatesWhere(ctx context.Context, where string, expand ...string) ([]Record, error)
	FirstWithState(ctx context.Context, where string, slots []string, expand ...string) (map[string]any, error)
	Get(ctx context.Context, businessUnitKey, key string) (Record, error)
	CreateDraft(ctx context.Context, businessUnitKey, key string, value map[string]any) (Record, error)
	CreatePublished(ctx context.Context, businessUnitKey, key string, value map[string]any, clearDraft bool) (Record, error)
	DeleteDraft(ctx context.Context, businessUnitKey, key string) (Record, error)
	DeleteStates(ctx context.Context, businessUnitKey, key string) error
}

// Option configures a controller.
type Option func(*controller)

// WithLogger overrides the module logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type controller struct {
	cfg    Config
	store  interfaces.ObjectStore
	logger interfaces.Logger
}

// NewController validates cfg and returns a controller bound to store.
func NewController(cfg Config, store interfaces.ObjectStore, opts ...Option) (Controller, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if strings.TrimSpace(cfg.ContentContainer) == "" || strings.TrimSpace(cfg.StateContainer) == "" {
		return nil, ErrContainerMissing
	}
	c := &controller{cfg: cfg, store: store, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// StateKey joins a content key to its lifecycle row.
func StateKey(businessUnitKey, key string) string {
	return businessUnitKey + "_" + key
}

// MatchFilter is the where clause used to find the lifecycle row of a key.
func MatchFilter(businessUnitKey, key string) string {
	return fmt.Sprintf("key = %q AND businessUnitKey = %q", key, businessUnitKey)
}

func (c *controller) StatesWhere(ctx context.Context, where string, expand ...string) ([]Record, error) {
	filter := ""
	if strings.TrimSpace(where) != "" {
		filter = "value(" + where + ")"
	}
	objects, err := c.store.Query(ctx, c.cfg.StateContainer, filter, expand...)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(objects))
	for _, obj := range objects {
		records = append(records, recordFromValue(obj.Value))
	}
	return records, nil
}

// FirstWithState returns the first present slot, in priority order, of the
// first record matching where. A nil map means nothing matched.
func (c *controller) FirstWithState(ctx context.Context, where string, slots []string, expand ...string) (map[string]any, error) {
	records, err := c.StatesWhere(ctx, where, expand...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	for _, slot := range slots {
		if value := records[0].Value(slot); value != nil {
			return value, nil
		}
	}
	return nil, nil
}

func (c *controller) Get(ctx context.Context, businessUnitKey, key string) (Record, error) {
	obj, err := c.store.Get(ctx, c.cfg.StateContainer, StateKey(businessUnitKey, key))
	if err != nil {
		return Record{}, err
	}
	return recordFromValue(obj.Value), nil
}

func (c *controller) CreateDraft(ctx context.Context, businessUnitKey, key string, value map[string]any) (Record, error) {
	record, err := c.readOrInit(ctx, businessUnitKey, key, "create draft state")
	if err != nil {
		return Record{}, err
	}
	record.States[Draft] = objectstore.CloneMap(value)
	return c.write(ctx, businessUnitKey, key, record)
}

func (c *controller) CreatePublished(ctx context.Context, businessUnitKey, key string, value map[string]any, clearDraft bool) (Record, error) {
	record, err := c.readOrInit(ctx, businessUnitKey, key, "create published state")
	if err != nil {
		return Record{}, err
	}
	record.States[Published] = objectstore.CloneMap(value)
	if clearDraft {
		delete(record.States, Draft)
	}
	return c.write(ctx, businessUnitKey, key, record)
}

// DeleteDraft discards the draft and rewrites the primary object from the
// published snapshot. Nothing is written when no published slot exists.
func (c *controller) DeleteDraft(ctx context.Context, businessUnitKey, key string) (Record, error) {
	record, err := c.readOrInit(ctx, businessUnitKey, key, "delete draft state")
	if err != nil {
		return Record{}, err
	}
	published := record.Value(Published)
	if published == nil {
		return Record{}, goerrors.Wrap(ErrNoPublishedState, goerrors.CategoryNotFound, "No published state found").
			WithTextCode(TextCodeNoPublishedState)
	}
	delete(record.States, Draft)

	restored := objectstore.CloneMap(published)
	restored["businessUnitKey"] = businessUnitKey
	if _, err := c.store.Update(ctx, c.cfg.ContentContainer, key, restored); err != nil {
		return Record{}, err
	}
	return c.write(ctx, businessUnitKey, key, record)
}

func (c *controller) DeleteStates(ctx context.Context, businessUnitKey, key string) error {
	_, err := c.store.Delete(ctx, c.cfg.StateContainer, StateKey(businessUnitKey, key))
	return err
}

func (c *controller) readOrInit(ctx context.Context, businessUnitKey, key, action string) (Record, error) {
	record, err := c.Get(ctx, businessUnitKey, key)
	switch {
	case err == nil:
		if record.States == nil {
			record.States = map[string]any{}
		}
		return record, nil
	case objectstore.IsNotFound(err):
		return Record{Key: key, BusinessUnitKey: businessUnitKey, States: map[string]any{}}, nil
	default:
		c.logger.Error("state.read_failed", "container", c.cfg.StateContainer, "key", StateKey(businessUnitKey, key), "error", err)
		return Record{}, goerrors.Wrap(err, goerrors.CategoryInternal, "Failed to "+action)
	}
}

func (c *controller) write(ctx context.Context, businessUnitKey, key string, record Record) (Record, error) {
	obj, err := c.store.Update(ctx, c.cfg.StateContainer, StateKey(businessUnitKey, key), record.toValue())
	if err != nil {
		return Record{}, err
	}
	return recordFromValue(obj.Value), nil
}

func (r Record) toValue() map[string]any {
	states := objectstore.CloneMap(r.States)
	if states == nil {
		states = map[string]any{}
	}
	return map[string]any{
		"key":             r.Key,
		"businessUnitKey": r.BusinessUnitKey,
		"states":          states,
	}
}

func recordFromValue(value map[string]any) Record {
	record := Record{States: map[string]any{}}
	if value == nil {
		return record
	}
	record.Key, _ = value["key"].(string)
	record.BusinessUnitKey, _ = value["businessUnitKey"].(string)
	if states, ok := value["states"].(map[string]any); ok {
		record.States = states
	}
	return record
}

// EmptyRecord is returned by read endpoints when a key has no lifecycle row.
func EmptyRecord(businessUnitKey, key string) Record {
	return Record{Key: key, BusinessUnitKey: businessUnitKey, States: map[string]any{}}
}
