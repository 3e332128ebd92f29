package openapi

// StoredObjectSchema describes the object store envelope returned by
// create and update endpoints.
func StoredObjectSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"id", "version", "container", "key", "value"},
		"properties": map[string]any{
			"id":             map[string]any{"type": "string", "format": "uuid"},
			"version":        map[string]any{"type": "integer"},
			"container":      map[string]any{"type": "string"},
			"key":            map[string]any{"type": "string"},
			"value":          map[string]any{"type": "object"},
			"createdAt":      map[string]any{"type": "string", "format": "date-time"},
			"lastModifiedAt": map[string]any{"type": "string", "format": "date-time"},
		},
	}
}

// ErrorSchema describes the body written for failed requests.
func ErrorSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"error"},
		"properties": map[string]any{
			"error":   map[string]any{"type": "string"},
			"message": map[string]any{"type": "string"},
			"code":    map[string]any{"type": "string"},
		},
	}
}
