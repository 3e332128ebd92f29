package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// Built-in resolver keys.
const (
	ProductBySKU  = "product-by-sku"
	ProductsBySKU = "products-by-sku"
)

var (
	ErrUnknownDatasource = errors.New("datasource: no resolver registered")
	ErrSKURequired       = errors.New("datasource: sku is required")
	ErrSKUsRequired      = errors.New("datasource: skus are required")
)

// ResolverFunc fetches display data for a property's params.
type ResolverFunc func(ctx context.Context, params map[string]any) (any, error)

// Registry maps resolver keys to resolver functions.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]ResolverFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: map[string]ResolverFunc{}}
}

// NewProductRegistry registers the product lookups backed by catalog.
func NewProductRegistry(catalog interfaces.ProductCatalog) *Registry {
	r := NewRegistry()
	r.Register(ProductBySKU, productBySKU(catalog))
	r.Register(ProductsBySKU, productsBySKU(catalog))
	return r
}

// Register adds or replaces the resolver for key.
func (r *Registry) Register(key string, fn ResolverFunc) {
	key = strings.TrimSpace(key)
	if key == "" || fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[key] = fn
}

// Keys lists the registered resolver keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.resolvers))
	for key := range r.resolvers {
		keys = append(keys, key)
	}
	return keys
}

// Resolve dispatches params to the resolver registered for key.
func (r *Registry) Resolve(ctx context.Context, key string, params map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.resolvers[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDatasource, key)
	}
	return fn(ctx, params)
}

func productBySKU(catalog interfaces.ProductCatalog) ResolverFunc {
	return func(ctx context.Context, params map[string]any) (any, error) {
		sku, _ := params["sku"].(string)
		if strings.TrimSpace(sku) == "" {
			return nil, goerrors.Wrap(ErrSKURequired, goerrors.CategoryBadInput, "Product SKU is required")
		}
		product, err := catalog.FindBySKU(ctx, sku)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, nil
		}
		return product, nil
	}
}

// productsBySKU looks up every SKU of a comma separated list in parallel.
// Results keep input order and a single failed lookup fails the batch.
func productsBySKU(catalog interfaces.ProductCatalog) ResolverFunc {
	return func(ctx context.Context, params map[string]any) (any, error) {
		skus := splitSKUs(params["skus"])
		if len(skus) == 0 {
			return nil, goerrors.Wrap(ErrSKUsRequired, goerrors.CategoryBadInput, "SKUs are required")
		}

		results := make([]any, len(skus))
		group, groupCtx := errgroup.WithContext(ctx)
		for i, sku := range skus {
			group.Go(func() error {
				if sku == "" {
					return goerrors.Wrap(ErrSKURequired, goerrors.CategoryBadInput, "Product SKU is required")
				}
				product, err := catalog.FindBySKU(groupCtx, sku)
				if err != nil {
					return err
				}
				if product != nil {
					results[i] = product
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "Failed to fetch products by SKUs")
		}
		return results, nil
	}
}

func splitSKUs(raw any) []string {
	var parts []string
	switch typed := raw.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil
		}
		parts = strings.Split(typed, ",")
	case []any:
		for _, entry := range typed {
			if s, ok := entry.(string); ok {
				parts = append(parts, s)
			}
		}
	case []string:
		parts = typed
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}
