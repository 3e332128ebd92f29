package datasource

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/internal/validation"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

var (
	ErrDefinitionExists = errors.New("datasource: definition with key already exists")
	ErrValueRequired    = errors.New("datasource: value is required")
	ErrStoreRequired    = errors.New("datasource: object store required")
)

// Definitions manages the datasource definitions stored in the datasource
// container and runs test resolutions against them.
type Definitions interface {
	List(ctx context.Context) ([]*interfaces.StoredObject, error)
	Get(ctx context.Context, key string) (*interfaces.StoredObject, error)
	Create(ctx context.Context, key string, value map[string]any) (*interfaces.StoredObject, error)
	Update(ctx context.Context, key string, value map[string]any) (*interfaces.StoredObject, error)
	Delete(ctx context.Context, key string) error
	Test(ctx context.Context, key string, params map[string]any) (any, error)
	EnsureBuiltins(ctx context.Context) error
}

type DefinitionsOption func(*definitions)

func WithDefinitionsLogger(logger interfaces.Logger) DefinitionsOption {
	return func(d *definitions) {
		if logger != nil {
			d.logger = logger
		}
	}
}

type definitions struct {
	container string
	store     interfaces.ObjectStore
	registry  *Registry
	logger    interfaces.Logger
}

func NewDefinitions(container string, store interfaces.ObjectStore, registry *Registry, opts ...DefinitionsOption) (Definitions, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if registry == nil {
		registry = NewRegistry()
	}
	d := &definitions{
		container: container,
		store:     store,
		registry:  registry,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// BuiltinDefinitions returns the definitions of the product resolvers.
func BuiltinDefinitions() map[string]map[string]any {
	return map[string]map[string]any{
		ProductBySKU: {
			"name": "Get Product by SKU",
			"key":  ProductBySKU,
			"params": []any{
				map[string]any{"key": "sku", "type": "string", "required": true},
			},
		},
		ProductsBySKU: {
			"name": "Get Products by SKU",
			"key":  ProductsBySKU,
			"params": []any{
				map[string]any{"key": "skus", "type": "string", "required": true},
			},
		},
	}
}

func (d *definitions) List(ctx context.Context) ([]*interfaces.StoredObject, error) {
	return d.store.Query(ctx, d.container, "")
}

func (d *definitions) Get(ctx context.Context, key string) (*interfaces.StoredObject, error) {
	return d.store.Get(ctx, d.container, key)
}

// Create rejects keys that already have a definition.
func (d *definitions) Create(ctx context.Context, key string, value map[string]any) (*interfaces.StoredObject, error) {
	if value == nil {
		return nil, goerrors.Wrap(ErrValueRequired, goerrors.CategoryBadInput, "value is required")
	}
	if _, err := d.store.Get(ctx, d.container, key); err == nil {
		return nil, goerrors.Wrap(ErrDefinitionExists, goerrors.CategoryBadInput, "datasource object with key already exists")
	} else if !objectstore.IsNotFound(err) {
		return nil, err
	}
	return d.store.Create(ctx, d.container, key, value)
}

func (d *definitions) Update(ctx context.Context, key string, value map[string]any) (*interfaces.StoredObject, error) {
	if value == nil {
		return nil, goerrors.Wrap(ErrValueRequired, goerrors.CategoryBadInput, "value is required")
	}
	return d.store.Update(ctx, d.container, key, value)
}

func (d *definitions) Delete(ctx context.Context, key string) error {
	_, err := d.store.Delete(ctx, d.container, key)
	return err
}

// Test resolves params through the resolver registered under key after
// checking them against the definition's declared params.
func (d *definitions) Test(ctx context.Context, key string, params map[string]any) (any, error) {
	definition, err := d.store.Get(ctx, d.container, key)
	if err != nil {
		return nil, err
	}
	declared, _ := definition.Value["params"].([]any)
	if err := validation.ValidateParams(declared, params); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid datasource params")
	}
	result, err := d.registry.Resolve(ctx, key, params)
	if err != nil {
		if errors.Is(err, ErrUnknownDatasource) {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "no resolver registered for datasource")
		}
		d.logger.Error("datasource.test_failed", "key", key, "error", err)
		return nil, err
	}
	return result, nil
}

// EnsureBuiltins creates the built-in definitions that are missing.
func (d *definitions) EnsureBuiltins(ctx context.Context) error {
	for key, value := range BuiltinDefinitions() {
		if _, err := d.store.Get(ctx, d.container, key); err == nil {
			continue
		} else if !objectstore.IsNotFound(err) {
			return err
		}
		if _, err := d.store.Create(ctx, d.container, key, value); err != nil {
			return err
		}
		d.logger.Info("datasource.definition_seeded", "key", key)
	}
	return nil
}
