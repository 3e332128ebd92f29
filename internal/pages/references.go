package pages

import (
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

type reference struct {
	id     string
	typeID string
}

func references(raw any) []reference {
	items, _ := raw.([]any)
	out := make([]reference, 0, len(items))
	for _, item := range items {
		ref, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := ref["id"].(string)
		if id == "" {
			continue
		}
		typeID, _ := ref["typeId"].(string)
		out = append(out, reference{id: id, typeID: typeID})
	}
	return out
}

// stripReferences drops hydrated targets so only {id, typeId} is stored.
func stripReferences(raw any) any {
	refs := references(raw)
	out := make([]any, len(refs))
	for i, ref := range refs {
		out[i] = map[string]any{"id": ref.id, "typeId": ref.typeID}
	}
	return out
}

func filterReferences(raw any, drop map[string]bool) any {
	refs := references(raw)
	out := make([]any, 0, len(refs))
	for _, ref := range refs {
		if drop[ref.id] {
			continue
		}
		out = append(out, map[string]any{"id": ref.id, "typeId": ref.typeID})
	}
	return out
}

// referencedKey returns the key of a hydrated reference target.
func referencedKey(raw any) string {
	ref, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	target, ok := ref["obj"].(map[string]any)
	if !ok {
		return ""
	}
	key, _ := target["key"].(string)
	return key
}

func referencesKey(raw any, itemKey string) bool {
	items, _ := raw.([]any)
	for _, item := range items {
		if referencedKey(item) == itemKey {
			return true
		}
	}
	return false
}

// mapComponentValues replaces each hydrated reference with its target's
// value. Unresolved references become nil.
func mapComponentValues(page map[string]any) map[string]any {
	mapped := objectstore.CloneMap(page)
	if mapped == nil {
		return nil
	}
	items, _ := mapped["components"].([]any)
	out := make([]any, len(items))
	for i, item := range items {
		ref, _ := item.(map[string]any)
		target, _ := ref["obj"].(map[string]any)
		if target != nil {
			out[i] = target["value"]
		}
	}
	mapped["components"] = out
	return mapped
}

func mapComponents(obj *interfaces.StoredObject) *interfaces.StoredObject {
	mapped := objectstore.CloneObject(obj)
	mapped.Value = mapComponentValues(obj.Value)
	return mapped
}
