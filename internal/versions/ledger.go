package versions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/internal/state"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// DefaultMaxVersions caps a history when the config leaves it unset.
const DefaultMaxVersions = 5

var (
	ErrStoreRequired     = errors.New("versions: object store required")
	ErrContainerRequired = errors.New("versions: version container required")
	ErrVersionNotFound   = errors.New("versions: version not found")
)

// Config names the container and cap of a ledger.
type Config struct {
	VersionContainer string
	MaxVersions      int
}

// History is the bounded, newest-first log for one content key.
type History struct {
	Key             string           `json:"key"`
	BusinessUnitKey string           `json:"businessUnitKey"`
	Versions        []map[string]any `json:"versions"`
}

// Ledger records and reads version histories.
type Ledger interface {
	List(ctx context.Context, businessUnitKey, key string) (History, error)
	Get(ctx context.Context, businessUnitKey, key, versionID string) (map[string]any, error)
	Append(ctx context.Context, businessUnitKey, key string, value map[string]any) (History, error)
	Delete(ctx context.Context, businessUnitKey, key string) error
}

// IDGenerator produces version entry ids.
type IDGenerator func() uuid.UUID

type Option func(*ledger)

func WithClock(clock func() time.Time) Option {
	return func(l *ledger) {
		if clock != nil {
			l.now = clock
		}
	}
}

func WithIDGenerator(gen IDGenerator) Option {
	return func(l *ledger) {
		if gen != nil {
			l.id = gen
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(l *ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

type ledger struct {
	cfg    Config
	store  interfaces.ObjectStore
	now    func() time.Time
	id     IDGenerator
	logger interfaces.Logger
}

// NewLedger returns a ledger over store. A non-positive MaxVersions falls
// back to DefaultMaxVersions.
func NewLedger(cfg Config, store interfaces.ObjectStore, opts ...Option) (Ledger, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if strings.TrimSpace(cfg.VersionContainer) == "" {
		return nil, ErrContainerRequired
	}
	if cfg.MaxVersions <= 0 {
		cfg.MaxVersions = DefaultMaxVersions
	}
	l := &ledger{
		cfg:    cfg,
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		id:     uuid.New,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// List reads the history, treating a missing record as empty.
func (l *ledger) List(ctx context.Context, businessUnitKey, key string) (History, error) {
	obj, err := l.store.Get(ctx, l.cfg.VersionContainer, state.StateKey(businessUnitKey, key))
	if err != nil {
		if objectstore.IsNotFound(err) {
			return History{Key: key, BusinessUnitKey: businessUnitKey, Versions: []map[string]any{}}, nil
		}
		return History{}, err
	}
	return historyFromValue(obj.Value, businessUnitKey, key), nil
}

func (l *ledger) Get(ctx context.Context, businessUnitKey, key, versionID string) (map[string]any, error) {
	history, err := l.List(ctx, businessUnitKey, key)
	if err != nil {
		return nil, err
	}
	for _, entry := range history.Versions {
		if id, _ := entry["id"].(string); id == versionID {
			return entry, nil
		}
	}
	return nil, ErrVersionNotFound
}

// Append prepends value stamped with a timestamp and id, then evicts the
// oldest entries beyond the cap.
func (l *ledger) Append(ctx context.Context, businessUnitKey, key string, value map[string]any) (History, error) {
	history, err := l.List(ctx, businessUnitKey, key)
	if err != nil {
		return History{}, err
	}

	entry := objectstore.CloneMap(value)
	if entry == nil {
		entry = map[string]any{}
	}
	entry["timestamp"] = l.now().Format("2006-01-02T15:04:05.000Z07:00")
	entry["id"] = l.id().String()

	versions := make([]map[string]any, 0, len(history.Versions)+1)
	versions = append(versions, entry)
	versions = append(versions, history.Versions...)
	if len(versions) > l.cfg.MaxVersions {
		l.logger.Debug("versions.evicted", "key", key, "count", len(versions)-l.cfg.MaxVersions)
		versions = versions[:l.cfg.MaxVersions]
	}
	history.Versions = versions

	obj, err := l.store.Update(ctx, l.cfg.VersionContainer, state.StateKey(businessUnitKey, key), history.toValue())
	if err != nil {
		return History{}, err
	}
	return historyFromValue(obj.Value, businessUnitKey, key), nil
}

func (l *ledger) Delete(ctx context.Context, businessUnitKey, key string) error {
	_, err := l.store.Delete(ctx, l.cfg.VersionContainer, state.StateKey(businessUnitKey, key))
	return err
}

func (h History) toValue() map[string]any {
	versions := make([]any, len(h.Versions))
	for i, entry := range h.Versions {
		versions[i] = objectstore.CloneMap(entry)
	}
	return map[string]any{
		"key":             h.Key,
		"businessUnitKey": h.BusinessUnitKey,
		"versions":        versions,
	}
}

func historyFromValue(value map[string]any, businessUnitKey, key string) History {
	history := History{Key: key, BusinessUnitKey: businessUnitKey, Versions: []map[string]any{}}
	if value == nil {
		return history
	}
	if stored, ok := value["key"].(string); ok && stored != "" {
		history.Key = stored
	}
	if stored, ok := value["businessUnitKey"].(string); ok && stored != "" {
		history.BusinessUnitKey = stored
	}
	if entries, ok := value["versions"].([]any); ok {
		for _, entry := range entries {
			if m, ok := entry.(map[string]any); ok {
				history.Versions = append(history.Versions, m)
			}
		}
	}
	return history
}
