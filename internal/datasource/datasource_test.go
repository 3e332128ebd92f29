package datasource_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-kvcms/internal/contenttypes"
	"github.com/goliatone/go-kvcms/internal/datasource"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/internal/validation"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

type fakeCatalog struct {
	products map[string]map[string]any
	failing  map[string]bool
}

func (c *fakeCatalog) FindBySKU(_ context.Context, sku string) (map[string]any, error) {
	if c.failing[sku] {
		return nil, errors.New("catalog unavailable")
	}
	return c.products[sku], nil
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[string]map[string]any{
			"SKU-A": {"key": "product-a"},
			"SKU-B": {"key": "product-b"},
		},
		failing: map[string]bool{},
	}
}

func newResolver(t *testing.T, catalog *fakeCatalog) (*datasource.Resolver, *objectstore.MemoryStore) {
	t.Helper()
	store := objectstore.NewMemoryStore()
	types, err := contenttypes.NewService("content-type", store)
	if err != nil {
		t.Fatalf("content types: %v", err)
	}
	return datasource.NewResolver(types, datasource.NewProductRegistry(catalog)), store
}

func sliderItem(skus string) map[string]any {
	return map[string]any{
		"key":             "item-1",
		"type":            contenttypes.SampleProductSlider,
		"businessUnitKey": "bu-1",
		"properties": map[string]any{
			"title": "Featured",
			"skus": map[string]any{
				"params": map[string]any{"skus": skus},
			},
		},
	}
}

func TestResolveContentUnknownTypeReturnsItemUnchanged(t *testing.T) {
	resolver, _ := newResolver(t, newCatalog())
	item := map[string]any{
		"key":        "item-1",
		"type":       "doesNotExist",
		"properties": map[string]any{"skus": map[string]any{"params": map[string]any{"skus": "SKU-A"}}},
	}

	got := resolver.ResolveContent(context.Background(), item)
	if !reflect.DeepEqual(got, item) {
		t.Fatalf("expected unchanged item, got %#v", got)
	}
}

func TestResolveContentProductsBySKUPreservesOrder(t *testing.T) {
	resolver, _ := newResolver(t, newCatalog())
	item := sliderItem("SKU-B, SKU-A")

	got := resolver.ResolveContent(context.Background(), item)

	props := got["properties"].(map[string]any)
	products, ok := props["skus"].([]any)
	if !ok || len(products) != 2 {
		t.Fatalf("expected two resolved products, got %#v", props["skus"])
	}
	if products[0].(map[string]any)["key"] != "product-b" || products[1].(map[string]any)["key"] != "product-a" {
		t.Fatalf("unexpected order %#v", products)
	}
	if props["title"] != "Featured" {
		t.Fatalf("non-datasource property changed: %#v", props["title"])
	}

	original := item["properties"].(map[string]any)["skus"].(map[string]any)
	if _, ok := original["params"]; !ok {
		t.Fatalf("caller item was mutated: %#v", item)
	}
}

func TestResolveContentBatchFailureKeepsStoredValue(t *testing.T) {
	catalog := newCatalog()
	catalog.failing["SKU-B"] = true
	resolver, _ := newResolver(t, catalog)
	item := sliderItem("SKU-A,SKU-B")

	got := resolver.ResolveContent(context.Background(), item)

	if !reflect.DeepEqual(got, item) {
		t.Fatalf("expected stored value after batch failure, got %#v", got)
	}
}

func TestResolveContentIsolatesFailingProperty(t *testing.T) {
	catalog := newCatalog()
	catalog.failing["SKU-B"] = true
	resolver, store := newResolver(t, catalog)
	ctx := context.Background()

	_, err := store.Create(ctx, "content-type", "productPair", map[string]any{
		"metadata": map[string]any{
			"propertySchema": map[string]any{
				"primary":   map[string]any{"type": "datasource", "datasourceType": datasource.ProductBySKU},
				"secondary": map[string]any{"type": "datasource", "datasourceType": datasource.ProductBySKU},
				"missing":   map[string]any{"type": "datasource", "datasourceType": datasource.ProductBySKU},
			},
		},
	})
	if err != nil {
		t.Fatalf("seed content type: %v", err)
	}

	item := map[string]any{
		"type": "productPair",
		"properties": map[string]any{
			"primary":   map[string]any{"params": map[string]any{"sku": "SKU-A"}},
			"secondary": map[string]any{"params": map[string]any{"sku": "SKU-B"}},
			"missing":   "",
		},
	}
	got := resolver.ResolveContent(ctx, item)
	props := got["properties"].(map[string]any)

	if primary, ok := props["primary"].(map[string]any); !ok || primary["key"] != "product-a" {
		t.Fatalf("expected primary resolved, got %#v", props["primary"])
	}
	secondary := props["secondary"].(map[string]any)
	if _, ok := secondary["params"]; !ok {
		t.Fatalf("expected secondary left unresolved, got %#v", secondary)
	}
	if props["missing"] != "" {
		t.Fatalf("empty property should be skipped, got %#v", props["missing"])
	}
}

type logLine struct {
	msg  string
	args []any
}

type lineLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *lineLogger) log(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{msg: msg, args: args})
}

func (l *lineLogger) Trace(msg string, args ...any) { l.log(msg, args...) }
func (l *lineLogger) Debug(msg string, args ...any) { l.log(msg, args...) }
func (l *lineLogger) Info(msg string, args ...any)  { l.log(msg, args...) }
func (l *lineLogger) Warn(msg string, args ...any)  { l.log(msg, args...) }
func (l *lineLogger) Error(msg string, args ...any) { l.log(msg, args...) }
func (l *lineLogger) Fatal(msg string, args ...any) { l.log(msg, args...) }

func (l *lineLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l *lineLogger) arg(msg, name string) (any, bool) {
	for _, line := range l.lines {
		if line.msg != msg {
			continue
		}
		for i := 0; i+1 < len(line.args); i += 2 {
			if line.args[i] == name {
				return line.args[i+1], true
			}
		}
	}
	return nil, false
}

func TestResolveContentReportsFailedProperty(t *testing.T) {
	catalog := newCatalog()
	catalog.failing["SKU-B"] = true
	logger := &lineLogger{}
	store := objectstore.NewMemoryStore()
	types, err := contenttypes.NewService("content-type", store)
	if err != nil {
		t.Fatalf("content types: %v", err)
	}
	resolver := datasource.NewResolver(types, datasource.NewProductRegistry(catalog), datasource.WithLogger(logger))

	item := sliderItem("SKU-A,SKU-B")
	got := resolver.ResolveContent(context.Background(), item)
	if !reflect.DeepEqual(got, item) {
		t.Fatalf("expected stored value after failure, got %#v", got)
	}

	if property, ok := logger.arg("datasource.property_failed", "property"); !ok || property != "skus" {
		t.Fatalf("expected failure logged for skus, got %#v", logger.lines)
	}
	if _, ok := logger.arg("datasource.resolution_incomplete", "error"); !ok {
		t.Fatalf("expected incomplete resolution to be reported, got %#v", logger.lines)
	}
}

func TestRegistryResolveUnknownKey(t *testing.T) {
	registry := datasource.NewRegistry()
	_, err := registry.Resolve(context.Background(), "nope", nil)
	if !errors.Is(err, datasource.ErrUnknownDatasource) {
		t.Fatalf("expected ErrUnknownDatasource, got %v", err)
	}
}

func TestProductBySKURequiresSKU(t *testing.T) {
	registry := datasource.NewProductRegistry(newCatalog())
	_, err := registry.Resolve(context.Background(), datasource.ProductBySKU, map[string]any{"sku": " "})
	if !errors.Is(err, datasource.ErrSKURequired) {
		t.Fatalf("expected ErrSKURequired, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input category, got %v", err)
	}
}

func newDefinitions(t *testing.T) datasource.Definitions {
	t.Helper()
	store := objectstore.NewMemoryStore()
	defs, err := datasource.NewDefinitions("datasource", store, datasource.NewProductRegistry(newCatalog()))
	if err != nil {
		t.Fatalf("new definitions: %v", err)
	}
	return defs
}

func TestDefinitionsCreateRejectsExistingKey(t *testing.T) {
	ctx := context.Background()
	defs := newDefinitions(t)

	if _, err := defs.Create(ctx, "custom", map[string]any{"name": "Custom"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := defs.Create(ctx, "custom", map[string]any{"name": "Again"})
	if !errors.Is(err, datasource.ErrDefinitionExists) {
		t.Fatalf("expected ErrDefinitionExists, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input category, got %v", err)
	}

	if _, err := defs.Update(ctx, "custom", map[string]any{"name": "Renamed"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := defs.Get(ctx, "custom")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Value["name"] != "Renamed" {
		t.Fatalf("unexpected value %#v", got.Value)
	}
	if err := defs.Delete(ctx, "custom"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := defs.Get(ctx, "custom"); !objectstore.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDefinitionsEnsureBuiltinsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	defs := newDefinitions(t)

	for i := 0; i < 2; i++ {
		if err := defs.EnsureBuiltins(ctx); err != nil {
			t.Fatalf("ensure builtins (pass %d): %v", i, err)
		}
	}
	list, err := defs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 built-in definitions, got %d", len(list))
	}
}

func TestDefinitionsTest(t *testing.T) {
	ctx := context.Background()
	defs := newDefinitions(t)
	if err := defs.EnsureBuiltins(ctx); err != nil {
		t.Fatalf("ensure builtins: %v", err)
	}

	result, err := defs.Test(ctx, datasource.ProductsBySKU, map[string]any{"skus": "SKU-A,SKU-B"})
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if products, ok := result.([]any); !ok || len(products) != 2 {
		t.Fatalf("unexpected result %#v", result)
	}

	_, err = defs.Test(ctx, datasource.ProductBySKU, map[string]any{})
	if !errors.Is(err, validation.ErrParamsValidation) {
		t.Fatalf("expected params validation error, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}

	if _, err := defs.Test(ctx, "missing", nil); !objectstore.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := defs.Create(ctx, "orphan", map[string]any{"name": "Orphan"}); err != nil {
		t.Fatalf("create orphan: %v", err)
	}
	if _, err := defs.Test(ctx, "orphan", nil); !errors.Is(err, datasource.ErrUnknownDatasource) {
		t.Fatalf("expected ErrUnknownDatasource, got %v", err)
	}
}
