package datasource

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-kvcms/internal/contenttypes"
	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

const datasourcePropertyType = "datasource"

// ContentTypeLookup finds the content type registered for an item type.
type ContentTypeLookup interface {
	Lookup(ctx context.Context, typeKey string) (map[string]any, error)
}

// Resolver substitutes datasource-typed properties of content values with
// data fetched through the registry.
type Resolver struct {
	types       ContentTypeLookup
	registry    *Registry
	logger      interfaces.Logger
	concurrency int
}

type ResolverOption func(*Resolver)

func WithLogger(logger interfaces.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConcurrency bounds how many properties of one item resolve at once.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func NewResolver(types ContentTypeLookup, registry *Registry, opts ...ResolverOption) *Resolver {
	if registry == nil {
		registry = NewRegistry()
	}
	r := &Resolver{
		types:       types,
		registry:    registry,
		logger:      logging.NoOp(),
		concurrency: 4,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Registry exposes the resolver registry.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// ResolveContent returns a copy of item with every datasource property
// replaced by its resolved data. It never fails: an unknown content type
// yields an unchanged copy, and a failing property keeps its stored value.
func (r *Resolver) ResolveContent(ctx context.Context, item map[string]any) map[string]any {
	if item == nil {
		return nil
	}
	resolved := objectstore.CloneMap(item)
	if r == nil || r.types == nil {
		return resolved
	}

	typeKey, _ := item["type"].(string)
	logger := r.logger.WithContext(ctx)
	contentType, err := r.types.Lookup(ctx, typeKey)
	if err != nil {
		logger.Debug("datasource.content_type_missing", "type", typeKey, "error", err)
		return resolved
	}

	properties, _ := resolved["properties"].(map[string]any)
	if properties == nil {
		return resolved
	}

	type job struct {
		property   string
		datasource string
		params     map[string]any
		value      any
		err        error
	}
	var jobs []*job
	for _, schema := range contenttypes.Properties(contentType) {
		if schema.Type != datasourcePropertyType || schema.DatasourceType == "" {
			continue
		}
		current := properties[schema.Name]
		if isEmpty(current) {
			continue
		}
		jobs = append(jobs, &job{property: schema.Name, datasource: schema.DatasourceType, params: paramsOf(current)})
	}
	if len(jobs) == 0 {
		return resolved
	}

	// a plain Group never cancels siblings, so every job runs to completion
	var group errgroup.Group
	group.SetLimit(r.concurrency)
	for _, j := range jobs {
		group.Go(func() error {
			j.value, j.err = r.registry.Resolve(ctx, j.datasource, j.params)
			if j.err != nil {
				return fmt.Errorf("property %s: %w", j.property, j.err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.Warn("datasource.resolution_incomplete", "type", typeKey, "error", err)
	}

	for _, j := range jobs {
		if j.err != nil {
			logger.Error("datasource.property_failed",
				"type", typeKey,
				"property", j.property,
				"datasource", j.datasource,
				"error", j.err,
			)
			continue
		}
		if !isNil(j.value) {
			properties[j.property] = j.value
		}
	}
	return resolved
}

func paramsOf(value any) map[string]any {
	holder, ok := value.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	params, _ := holder["params"].(map[string]any)
	if params == nil {
		return map[string]any{}
	}
	return objectstore.CloneMap(params)
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case bool:
		return !typed
	case string:
		return typed == ""
	case int:
		return typed == 0
	case int64:
		return typed == 0
	case float64:
		return typed == 0
	default:
		return false
	}
}

func isNil(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case map[string]any:
		return typed == nil
	case []any:
		return typed == nil
	default:
		return false
	}
}
