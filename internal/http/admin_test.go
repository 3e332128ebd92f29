package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-kvcms/internal/commands"
	"github.com/goliatone/go-kvcms/internal/commands/contentcmd"
	"github.com/goliatone/go-kvcms/internal/commands/pagescmd"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/internal/contenttypes"
	"github.com/goliatone/go-kvcms/internal/datasource"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/internal/pages"
	"github.com/goliatone/go-kvcms/internal/products"
	"github.com/goliatone/go-kvcms/internal/state"
	"github.com/goliatone/go-kvcms/internal/steps"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

type adminFixture struct {
	store   *objectstore.MemoryStore
	catalog *products.StoreCatalog
}

func setupAdminAPI(t *testing.T) (*http.ServeMux, adminFixture) {
	t.Helper()
	store := objectstore.NewMemoryStore()

	types, err := contenttypes.NewService("content-type", store)
	if err != nil {
		t.Fatalf("content types: %v", err)
	}
	catalog, err := products.NewStoreCatalog("products", store)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	registry := datasource.NewProductRegistry(catalog)
	resolver := datasource.NewResolver(types, registry)

	items, err := content.NewService(content.ItemsConfig(), store, content.WithResolver(resolver))
	if err != nil {
		t.Fatalf("content items: %v", err)
	}
	pageItems, err := content.NewService(content.PageItemsConfig(), store, content.WithResolver(resolver))
	if err != nil {
		t.Fatalf("page items: %v", err)
	}
	pageSvc, err := pages.NewService(pages.DefaultConfig(), store, pageItems)
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	defs, err := datasource.NewDefinitions("datasource", store, registry)
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}
	if err := defs.EnsureBuiltins(context.Background()); err != nil {
		t.Fatalf("builtins: %v", err)
	}

	contentCommands, err := contentcmd.RegisterContentCommands(nil, commands.DispatchOptions{}, items, nil)
	if err != nil {
		t.Fatalf("content commands: %v", err)
	}
	pageCommands, err := pagescmd.RegisterPageCommands(nil, commands.DispatchOptions{}, pageSvc, pageItems, nil)
	if err != nil {
		t.Fatalf("page commands: %v", err)
	}

	api := NewAdminAPI(
		WithProjectKey("demo"),
		WithContentItems(items),
		WithPageItems(pageItems),
		WithPages(pageSvc),
		WithContentTypes(types),
		WithDatasources(defs),
		WithContentCommands(contentCommands),
		WithPageCommands(pageCommands),
	)
	mux := http.NewServeMux()
	api.Register(mux)
	return mux, adminFixture{store: store, catalog: catalog}
}

func TestAdminAPI_Health(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	rec := doJSONRequest(t, mux, http.MethodGet, "/health", nil, http.StatusOK)
	var body map[string]any
	decodeJSONBody(t, rec, &body)
	if body["status"] != "ok" || body["projectKey"] != "demo" {
		t.Fatalf("unexpected health body %#v", body)
	}
}

func TestAdminAPI_OpenAPIDocument(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	doc := decodeMap(t, doJSONRequest(t, mux, http.MethodGet, "/openapi.json", nil, http.StatusOK))
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		t.Fatalf("expected paths, got %#v", doc)
	}
	for _, path := range []string{"/health", "/{bu}/content-items/{key}", "/{bu}/pages/{key}/rows", "/datasource/{key}/test"} {
		if _, ok := paths[path]; !ok {
			t.Fatalf("expected %s to be described", path)
		}
	}
	if doc["x-project-key"] != "demo" {
		t.Fatalf("expected project key extension, got %v", doc["x-project-key"])
	}
}

func TestAdminAPI_ContentItemLifecycle(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	rec := doJSONRequest(t, mux, http.MethodPost, "/bu-1/content-items", map[string]any{
		"value": map[string]any{"type": "richText", "name": "Intro"},
	}, http.StatusCreated)
	var created interfaces.StoredObject
	decodeJSONBody(t, rec, &created)
	if created.Key == "" || created.Value["businessUnitKey"] != "bu-1" {
		t.Fatalf("unexpected created item %#v", created)
	}
	itemPath := "/bu-1/content-items/" + created.Key

	var listed []map[string]any
	decodeJSONBody(t, doJSONRequest(t, mux, http.MethodGet, "/bu-1/content-items", nil, http.StatusOK), &listed)
	if len(listed) != 1 {
		t.Fatalf("expected one listed item, got %d", len(listed))
	}
	decodeJSONBody(t, doJSONRequest(t, mux, http.MethodGet, "/bu-2/content-items", nil, http.StatusOK), &listed)
	if len(listed) != 0 {
		t.Fatalf("other business unit should be empty, got %d", len(listed))
	}
	decodeJSONBody(t, doJSONRequest(t, mux, http.MethodGet, "/bu-1/content-items/content-type/richText", nil, http.StatusOK), &listed)
	if len(listed) != 1 {
		t.Fatalf("expected one richText item, got %d", len(listed))
	}

	value := decodeMap(t, doJSONRequest(t, mux, http.MethodGet, itemPath, nil, http.StatusOK))
	if value["name"] != "Intro" {
		t.Fatalf("unexpected item %#v", value)
	}
	value = decodeMap(t, doJSONRequest(t, mux, http.MethodGet, "/bu-1/preview/content-items/"+created.Key, nil, http.StatusOK))
	if value["name"] != "Intro" {
		t.Fatalf("unexpected preview %#v", value)
	}
	doJSONRequest(t, mux, http.MethodGet, "/bu-1/published/content-items/"+created.Key, nil, http.StatusNotFound)

	rec = doJSONRequest(t, mux, http.MethodPut, itemPath+"/states/published?clearDraft=true", map[string]any{
		"value": map[string]any{"type": "richText", "name": "Live"},
	}, http.StatusOK)
	record := decodeRecord(t, rec)
	if record.Value(state.Published)["name"] != "Live" || record.Value(state.Draft) != nil {
		t.Fatalf("unexpected states after publish %#v", record.States)
	}

	value = decodeMap(t, doJSONRequest(t, mux, http.MethodGet, "/bu-1/published/content-items/"+created.Key, nil, http.StatusOK))
	if value["name"] != "Live" {
		t.Fatalf("unexpected published %#v", value)
	}
	value = decodeMap(t, doJSONRequest(t, mux, http.MethodPost, "/bu-1/published/content-items/query", map[string]any{
		"query": `name = "Intro"`,
	}, http.StatusOK))
	if value["name"] != "Live" {
		t.Fatalf("query should return the published slot, got %#v", value)
	}
	doJSONRequest(t, mux, http.MethodPost, "/bu-1/preview/content-items/query", map[string]any{"query": `name = "Missing"`}, http.StatusNotFound)
	doJSONRequest(t, mux, http.MethodPost, "/bu-1/preview/content-items/query", map[string]any{}, http.StatusBadRequest)

	doJSONRequest(t, mux, http.MethodPut, itemPath, map[string]any{
		"value": map[string]any{"type": "richText", "name": "Edited"},
	}, http.StatusOK)
	record = decodeRecord(t, doJSONRequest(t, mux, http.MethodGet, itemPath+"/states", nil, http.StatusOK))
	if record.Value(state.Draft)["name"] != "Edited" {
		t.Fatalf("update should write a draft, got %#v", record.States)
	}
	record = decodeRecord(t, doJSONRequest(t, mux, http.MethodDelete, itemPath+"/states/draft", nil, http.StatusOK))
	if record.Value(state.Draft) != nil || record.Value(state.Published) == nil {
		t.Fatalf("unexpected states after discard %#v", record.States)
	}

	history := decodeMap(t, doJSONRequest(t, mux, http.MethodGet, itemPath+"/versions", nil, http.StatusOK))
	if entries, _ := history["versions"].([]any); len(entries) != 2 {
		t.Fatalf("expected two versions, got %#v", history["versions"])
	}
	doJSONRequest(t, mux, http.MethodGet, itemPath+"/unknown", nil, http.StatusNotFound)

	doJSONRequest(t, mux, http.MethodDelete, itemPath, nil, http.StatusNoContent)
	doJSONRequest(t, mux, http.MethodGet, itemPath, nil, http.StatusNotFound)
	record = decodeRecord(t, doJSONRequest(t, mux, http.MethodGet, itemPath+"/states", nil, http.StatusOK))
	if len(record.States) != 0 {
		t.Fatalf("states should be gone after delete, got %#v", record.States)
	}
}

func TestAdminAPI_ContentItemValidation(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	rec := doJSONRequest(t, mux, http.MethodPost, "/bu-1/content-items", map[string]any{}, http.StatusBadRequest)
	var body errorResponse
	decodeJSONBody(t, rec, &body)
	if body.Error != "bad_request" {
		t.Fatalf("unexpected error body %#v", body)
	}

	rec = doJSONRequest(t, mux, http.MethodPut, "/bu-1/content-items/item-1/states/published", map[string]any{}, http.StatusBadRequest)
	decodeJSONBody(t, rec, &body)
	if body.Error != "validation_failed" {
		t.Fatalf("missing publish value should fail validation, got %#v", body)
	}

	doJSONRequest(t, mux, http.MethodDelete, "/bu-1/content-items/item-1/states/draft", nil, http.StatusNotFound)
}

func TestAdminAPI_PageGridLifecycle(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	rec := doJSONRequest(t, mux, http.MethodPost, "/bu-1/pages", map[string]any{
		"value": map[string]any{"name": "Home", "route": "/"},
	}, http.StatusCreated)
	page := decodeObject(t, rec)
	pagePath := "/bu-1/pages/" + page.Key

	page = decodeObject(t, doJSONRequest(t, mux, http.MethodPost, pagePath+"/rows", nil, http.StatusCreated))
	layout := pages.LayoutFromValue(page.Value["layout"])
	if len(layout.Rows) != 2 {
		t.Fatalf("expected two rows, got %d", len(layout.Rows))
	}
	first, second := layout.Rows[0], layout.Rows[1]

	page = decodeObject(t, doJSONRequest(t, mux, http.MethodPost, pagePath+"/components", map[string]any{
		"componentType": "richText",
		"rowId":         first.ID,
		"cellId":        first.Cells[0].ID,
	}, http.StatusCreated))
	itemKey := pages.LayoutFromValue(page.Value["layout"]).Rows[0].Cells[0].ContentItemKey
	if itemKey == "" {
		t.Fatalf("component was not bound")
	}

	doJSONRequest(t, mux, http.MethodPut, pagePath+"/components/"+itemKey, map[string]any{
		"updates": map[string]any{"properties": map[string]any{"content": "<p>hi</p>"}},
	}, http.StatusOK)

	preview := decodeMap(t, doJSONRequest(t, mux, http.MethodGet, "/bu-1/preview/pages/"+page.Key, nil, http.StatusOK))
	components, _ := preview["components"].([]any)
	if len(components) != 1 {
		t.Fatalf("expected one component in preview, got %#v", preview["components"])
	}
	props, _ := components[0].(map[string]any)["properties"].(map[string]any)
	if props["content"] != "<p>hi</p>" {
		t.Fatalf("preview does not reflect update: %#v", components[0])
	}
	doJSONRequest(t, mux, http.MethodGet, "/bu-1/published/pages/"+page.Key, nil, http.StatusNotFound)

	record := decodeRecord(t, doJSONRequest(t, mux, http.MethodPut, pagePath+"/states/published?clearDraft=true", nil, http.StatusOK))
	if record.Value(state.Published) == nil || record.Value(state.Draft) != nil {
		t.Fatalf("unexpected page states %#v", record.States)
	}

	published := decodeMap(t, doJSONRequest(t, mux, http.MethodGet, "/bu-1/published/pages/"+page.Key, nil, http.StatusOK))
	if components, _ := published["components"].([]any); len(components) != 0 {
		t.Fatalf("unpublished items must not appear, got %#v", published["components"])
	}

	doJSONRequest(t, mux, http.MethodPut, "/bu-1/page-items/"+itemKey+"/states/published?clearDraft=true", map[string]any{
		"value": map[string]any{"type": "richText", "title": "Live"},
	}, http.StatusOK)
	published = decodeMap(t, doJSONRequest(t, mux, http.MethodGet, "/bu-1/published/pages/"+page.Key, nil, http.StatusOK))
	components, _ = published["components"].([]any)
	if len(components) != 1 || components[0].(map[string]any)["title"] != "Live" {
		t.Fatalf("expected published item, got %#v", published["components"])
	}
	record = decodeRecord(t, doJSONRequest(t, mux, http.MethodGet, "/bu-1/page-items/"+itemKey+"/states", nil, http.StatusOK))
	if record.Value(state.Published) == nil {
		t.Fatalf("expected published page item state, got %#v", record.States)
	}

	page = decodeObject(t, doJSONRequest(t, mux, http.MethodPut, fmt.Sprintf("%s/rows/%s/cells/%s", pagePath, second.ID, second.Cells[0].ID), map[string]any{
		"updates": map[string]any{"colSpan": 6, "shouldRemoveEmptyCell": true},
	}, http.StatusOK))
	resized := pages.LayoutFromValue(page.Value["layout"]).Rows[1]
	if len(resized.Cells) != 7 || resized.Span() != 12 {
		t.Fatalf("expected 7 cells spanning 12, got %d spanning %d", len(resized.Cells), resized.Span())
	}
	doJSONRequest(t, mux, http.MethodPut, fmt.Sprintf("%s/rows/%s/cells/missing", pagePath, second.ID), map[string]any{
		"updates": map[string]any{"colSpan": 2},
	}, http.StatusBadRequest)

	page = decodeObject(t, doJSONRequest(t, mux, http.MethodDelete, pagePath+"/components/"+itemKey, nil, http.StatusOK))
	if pages.LayoutFromValue(page.Value["layout"]).Rows[0].Cells[0].ContentItemKey != "" {
		t.Fatalf("cell should be unbound after component removal")
	}
	page = decodeObject(t, doJSONRequest(t, mux, http.MethodDelete, pagePath+"/rows/"+second.ID, nil, http.StatusOK))
	if rows := pages.LayoutFromValue(page.Value["layout"]).Rows; len(rows) != 1 {
		t.Fatalf("expected one row after removal, got %d", len(rows))
	}

	var listed []map[string]any
	decodeJSONBody(t, doJSONRequest(t, mux, http.MethodGet, "/bu-1/pages", nil, http.StatusOK), &listed)
	if len(listed) != 1 {
		t.Fatalf("expected one page, got %d", len(listed))
	}
	history := decodeMap(t, doJSONRequest(t, mux, http.MethodGet, pagePath+"/versions", nil, http.StatusOK))
	if entries, _ := history["versions"].([]any); len(entries) == 0 {
		t.Fatalf("expected page versions")
	}

	doJSONRequest(t, mux, http.MethodDelete, pagePath, nil, http.StatusNoContent)
	doJSONRequest(t, mux, http.MethodGet, pagePath, nil, http.StatusNotFound)
	doJSONRequest(t, mux, http.MethodDelete, pagePath, nil, http.StatusNotFound)
}

func TestAdminAPI_PageQueryAndDiscard(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	page := decodeObject(t, doJSONRequest(t, mux, http.MethodPost, "/bu-1/pages", map[string]any{
		"value": map[string]any{"name": "About", "route": "/about"},
	}, http.StatusCreated))

	found := decodeMap(t, doJSONRequest(t, mux, http.MethodPost, "/bu-1/preview/pages/query", map[string]any{
		"query": `route = "/about"`,
	}, http.StatusOK))
	if found["name"] != "About" {
		t.Fatalf("unexpected query result %#v", found)
	}
	doJSONRequest(t, mux, http.MethodPost, "/bu-1/published/pages/query", map[string]any{"query": `route = "/about"`}, http.StatusNotFound)
	doJSONRequest(t, mux, http.MethodPost, "/bu-1/preview/pages/query", map[string]any{}, http.StatusBadRequest)

	pagePath := "/bu-1/pages/" + page.Key
	doJSONRequest(t, mux, http.MethodPut, pagePath+"/states/published", nil, http.StatusOK)
	record := decodeRecord(t, doJSONRequest(t, mux, http.MethodDelete, pagePath+"/states/draft", nil, http.StatusOK))
	if record.Value(state.Draft) != nil || record.Value(state.Published) == nil {
		t.Fatalf("unexpected states after discard %#v", record.States)
	}
}

func TestAdminAPI_ContentTypeLifecycle(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	rec := doJSONRequest(t, mux, http.MethodPost, "/content-type", map[string]any{
		"value": map[string]any{"name": "Banner", "type": "banner"},
	}, http.StatusCreated)
	var created interfaces.StoredObject
	decodeJSONBody(t, rec, &created)
	typePath := "/content-type/" + created.Key

	value := decodeMap(t, doJSONRequest(t, mux, http.MethodGet, typePath, nil, http.StatusOK))
	if value["name"] != "Banner" {
		t.Fatalf("unexpected content type %#v", value)
	}
	doJSONRequest(t, mux, http.MethodPut, typePath, map[string]any{
		"value": map[string]any{"name": "Hero Banner", "type": "banner"},
	}, http.StatusOK)

	var listed []map[string]any
	decodeJSONBody(t, doJSONRequest(t, mux, http.MethodGet, "/content-type", nil, http.StatusOK), &listed)
	if len(listed) != 1 || listed[0]["name"] != "Hero Banner" {
		t.Fatalf("unexpected content types %#v", listed)
	}

	doJSONRequest(t, mux, http.MethodPost, "/content-type", map[string]any{}, http.StatusBadRequest)
	doJSONRequest(t, mux, http.MethodDelete, typePath, nil, http.StatusNoContent)
	doJSONRequest(t, mux, http.MethodGet, typePath, nil, http.StatusNotFound)
}

func TestAdminAPI_DatasourceLifecycle(t *testing.T) {
	mux, fixture := setupAdminAPI(t)
	ctx := context.Background()

	var listed []map[string]any
	decodeJSONBody(t, doJSONRequest(t, mux, http.MethodGet, "/datasource", nil, http.StatusOK), &listed)
	if len(listed) != 2 {
		t.Fatalf("expected the two built-in datasources, got %d", len(listed))
	}

	doJSONRequest(t, mux, http.MethodPost, "/datasource/"+datasource.ProductBySKU, map[string]any{
		"value": map[string]any{"name": "dup"},
	}, http.StatusBadRequest)

	doJSONRequest(t, mux, http.MethodPost, "/datasource/custom", map[string]any{
		"value": map[string]any{"name": "Custom"},
	}, http.StatusCreated)
	doJSONRequest(t, mux, http.MethodPut, "/datasource/custom", map[string]any{
		"value": map[string]any{"name": "Custom v2"},
	}, http.StatusOK)
	var obj interfaces.StoredObject
	decodeJSONBody(t, doJSONRequest(t, mux, http.MethodGet, "/datasource/custom", nil, http.StatusOK), &obj)
	if obj.Value["name"] != "Custom v2" {
		t.Fatalf("unexpected datasource %#v", obj.Value)
	}
	doJSONRequest(t, mux, http.MethodPost, "/datasource/custom/test", map[string]any{"params": map[string]any{}}, http.StatusBadRequest)
	doJSONRequest(t, mux, http.MethodDelete, "/datasource/custom", nil, http.StatusNoContent)
	doJSONRequest(t, mux, http.MethodGet, "/datasource/custom", nil, http.StatusNotFound)

	if err := fixture.catalog.Put(ctx, "SKU-1", map[string]any{"key": "product-1", "name": "Lamp"}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	product := decodeMap(t, doJSONRequest(t, mux, http.MethodPost, "/datasource/"+datasource.ProductBySKU+"/test", map[string]any{
		"params": map[string]any{"sku": "SKU-1"},
	}, http.StatusOK))
	if product["key"] != "product-1" {
		t.Fatalf("unexpected product %#v", product)
	}

	rec := doJSONRequest(t, mux, http.MethodPost, "/datasource/"+datasource.ProductBySKU+"/test", map[string]any{
		"params": map[string]any{},
	}, http.StatusBadRequest)
	var body errorResponse
	decodeJSONBody(t, rec, &body)
	if body.Error != "validation_failed" {
		t.Fatalf("missing required param should fail validation, got %#v", body)
	}
}

func TestAdminAPI_ServiceUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	NewAdminAPI(WithBasePath("/api")).Register(mux)

	for _, path := range []string{"/api/bu-1/pages", "/api/bu-1/content-items", "/api/content-type", "/api/datasource"} {
		doJSONRequest(t, mux, http.MethodGet, path, nil, http.StatusServiceUnavailable)
	}
	doJSONRequest(t, mux, http.MethodGet, "/api/health", nil, http.StatusOK)
}

func TestMapError(t *testing.T) {
	notFound := &objectstore.NotFoundError{Container: "content-item", Key: "item-1"}
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantCode   string
	}{
		{name: "store not found", err: notFound, wantStatus: http.StatusNotFound, wantError: "not_found"},
		{name: "step wrapped not found", err: &steps.StepError{Sequence: "content.delete", Step: "delete_object", Err: notFound}, wantStatus: http.StatusNotFound, wantError: "not_found"},
		{name: "not found category", err: goerrors.Wrap(errors.New("gone"), goerrors.CategoryNotFound, "gone"), wantStatus: http.StatusNotFound, wantError: "not_found"},
		{name: "bad input with code", err: goerrors.Wrap(errors.New("cell"), goerrors.CategoryBadInput, "Cell not found").WithTextCode("CELL_NOT_FOUND"), wantStatus: http.StatusBadRequest, wantError: "bad_request", wantCode: "CELL_NOT_FOUND"},
		{name: "validation", err: goerrors.Wrap(errors.New("invalid"), goerrors.CategoryValidation, "invalid"), wantStatus: http.StatusBadRequest, wantError: "validation_failed"},
		{name: "content type value", err: contenttypes.ErrValueRequired, wantStatus: http.StatusBadRequest, wantError: "bad_request"},
		{name: "conflict", err: &objectstore.ConflictError{Container: "datasource", Key: "x"}, wantStatus: http.StatusConflict, wantError: "conflict"},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantError: "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := mapError(tc.err)
			if status != tc.wantStatus || body.Error != tc.wantError {
				t.Fatalf("expected %d/%s, got %d/%s", tc.wantStatus, tc.wantError, status, body.Error)
			}
			if tc.wantCode != "" && body.Code != tc.wantCode {
				t.Fatalf("expected code %s, got %q", tc.wantCode, body.Code)
			}
		})
	}
}

func TestJoinPath(t *testing.T) {
	cases := []struct{ base, suffix, want string }{
		{"", "", "/"},
		{"/", "pages", "/pages"},
		{"/admin/api/", "", "/admin/api"},
		{"admin", "/pages/", "/admin/pages"},
	}
	for _, tc := range cases {
		if got := joinPath(tc.base, tc.suffix); got != tc.want {
			t.Fatalf("joinPath(%q, %q) = %q, want %q", tc.base, tc.suffix, got, tc.want)
		}
	}
}

func doJSONRequest(t *testing.T, mux *http.ServeMux, method, path string, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("%s %s: expected status %d got %d (%s)", method, path, wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) state.Record {
	t.Helper()
	var record state.Record
	decodeJSONBody(t, rec, &record)
	return record
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	decodeJSONBody(t, rec, &out)
	return out
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) interfaces.StoredObject {
	t.Helper()
	var obj interfaces.StoredObject
	decodeJSONBody(t, rec, &obj)
	return obj
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
