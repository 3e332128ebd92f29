package objectstore

import (
	"encoding/json"
	"time"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// CloneValue returns a structural copy of a JSON-shaped value. Maps and
// slices are copied recursively; json.Number values are normalised to int64
// or float64 so stored documents compare predictably.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return CloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneMap(item)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i
		}
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	default:
		return typed
	}
}

// CloneMap deep-copies a JSON object. A nil input yields nil.
func CloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = CloneValue(value)
	}
	return out
}

// CloneObject deep-copies a stored object including its value.
func CloneObject(obj *interfaces.StoredObject) *interfaces.StoredObject {
	if obj == nil {
		return nil
	}
	cloned := *obj
	cloned.Value = CloneMap(obj.Value)
	return &cloned
}

// ObjectMap renders an object in the shape used by expanded references.
func ObjectMap(obj *interfaces.StoredObject) map[string]any {
	if obj == nil {
		return nil
	}
	return map[string]any{
		"id":             obj.ID,
		"version":        obj.Version,
		"container":      obj.Container,
		"key":            obj.Key,
		"value":          CloneMap(obj.Value),
		"createdAt":      obj.CreatedAt.Format(time.RFC3339Nano),
		"lastModifiedAt": obj.LastModifiedAt.Format(time.RFC3339Nano),
	}
}
