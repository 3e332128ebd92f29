package openapi

import (
	"sort"
	"strings"
)

// Document represents a minimal OpenAPI document.
type Document struct {
	OpenAPI    string         `json:"openapi"`
	Info       Info           `json:"info"`
	Paths      map[string]any `json:"paths,omitempty"`
	Components Components     `json:"components,omitempty"`
	Extensions map[string]any `json:"-"`
}

// Info captures OpenAPI metadata.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// Components aggregates schema components.
type Components struct {
	Schemas map[string]any `json:"schemas,omitempty"`
}

// Route is one registered method and path, using ServeMux wildcard syntax.
type Route struct {
	Method string
	Path   string
}

// NewDocument constructs a minimal OpenAPI document.
func NewDocument(title, version string) *Document {
	return &Document{
		OpenAPI: "3.0.3",
		Info: Info{
			Title:   title,
			Version: version,
		},
		Paths:      map[string]any{},
		Components: Components{Schemas: map[string]any{}},
		Extensions: map[string]any{},
	}
}

// AddRoutes describes every route as an operation. Wildcards become path
// parameters; repeated routes collapse into one operation.
func (d *Document) AddRoutes(routes []Route) {
	if d == nil {
		return
	}
	if d.Paths == nil {
		d.Paths = map[string]any{}
	}
	for _, route := range routes {
		method := strings.ToLower(strings.TrimSpace(route.Method))
		if method == "" || route.Path == "" {
			continue
		}
		item, _ := d.Paths[route.Path].(map[string]any)
		if item == nil {
			item = map[string]any{}
			d.Paths[route.Path] = item
		}
		item[method] = operation(method, route.Path)
	}
}

func operation(method, path string) map[string]any {
	op := map[string]any{
		"operationId": operationID(method, path),
		"responses":   responses(method),
	}
	if params := pathParameters(path); len(params) > 0 {
		op["parameters"] = params
	}
	if method == "post" || method == "put" {
		op["requestBody"] = map[string]any{
			"content": map[string]any{
				"application/json": map[string]any{"schema": map[string]any{"type": "object"}},
			},
		}
	}
	return op
}

func responses(method string) map[string]any {
	errorRef := map[string]any{
		"description": "error",
		"content": map[string]any{
			"application/json": map[string]any{"schema": map[string]any{"$ref": "#/components/schemas/Error"}},
		},
	}
	out := map[string]any{"default": errorRef}
	switch method {
	case "delete":
		out["204"] = map[string]any{"description": "deleted"}
	case "post":
		out["201"] = map[string]any{"description": "created"}
		out["200"] = map[string]any{"description": "ok"}
	default:
		out["200"] = map[string]any{"description": "ok"}
	}
	return out
}

func pathParameters(path string) []map[string]any {
	var params []map[string]any
	for _, segment := range strings.Split(path, "/") {
		if !strings.HasPrefix(segment, "{") || !strings.HasSuffix(segment, "}") {
			continue
		}
		name := strings.TrimSuffix(strings.Trim(segment, "{}"), "...")
		params = append(params, map[string]any{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]any{"type": "string"},
		})
	}
	return params
}

func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(method)
	for _, segment := range strings.Split(path, "/") {
		segment = strings.Trim(segment, "{}")
		for _, part := range strings.FieldsFunc(segment, func(r rune) bool { return r == '-' || r == '.' || r == '_' }) {
			b.WriteString(strings.ToUpper(part[:1]))
			b.WriteString(part[1:])
		}
	}
	return b.String()
}

// AddSchema registers a component schema.
func (d *Document) AddSchema(name string, schema map[string]any) {
	if d == nil || name == "" || schema == nil {
		return
	}
	if d.Components.Schemas == nil {
		d.Components.Schemas = map[string]any{}
	}
	d.Components.Schemas[name] = schema
}

// SetExtension sets a vendor extension on the document.
func (d *Document) SetExtension(key string, value any) {
	if d == nil || key == "" {
		return
	}
	if d.Extensions == nil {
		d.Extensions = map[string]any{}
	}
	d.Extensions[key] = value
}

// PathKeys returns the described paths in sorted order.
func (d *Document) PathKeys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.Paths))
	for key := range d.Paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// AsMap returns the document as a map for registry consumers.
func (d *Document) AsMap() map[string]any {
	if d == nil {
		return nil
	}
	out := map[string]any{
		"openapi": d.OpenAPI,
		"info": map[string]any{
			"title":   d.Info.Title,
			"version": d.Info.Version,
		},
	}
	if len(d.Paths) > 0 {
		out["paths"] = d.Paths
	} else {
		out["paths"] = map[string]any{}
	}
	if len(d.Components.Schemas) > 0 {
		out["components"] = map[string]any{
			"schemas": d.Components.Schemas,
		}
	}
	for key, value := range d.Extensions {
		out[key] = value
	}
	return out
}
