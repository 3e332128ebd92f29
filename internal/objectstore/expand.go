package objectstore

import (
	"context"
	"strings"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// ReferenceLookup fetches the target of a {id, typeId} reference.
type ReferenceLookup func(ctx context.Context, id string) (*interfaces.StoredObject, error)

// Expand hydrates references found under each path with an `obj` field holding
// the referenced object. Paths are dotted and rooted at the object, e.g.
// `value.components[*]` or `value.states.draft.components[*]`. Missing paths
// and unresolvable references are left untouched. obj is modified in place.
func Expand(ctx context.Context, obj *interfaces.StoredObject, lookup ReferenceLookup, paths ...string) error {
	if obj == nil || lookup == nil || len(paths) == 0 {
		return nil
	}
	root := map[string]any{"value": obj.Value}
	for _, path := range paths {
		segments := splitPath(path)
		if len(segments) == 0 {
			continue
		}
		if err := expandAt(ctx, root, segments, lookup); err != nil {
			return err
		}
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ".")
}

func expandAt(ctx context.Context, node any, segments []string, lookup ReferenceLookup) error {
	current, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	segment := segments[0]
	rest := segments[1:]

	field, iterate := strings.CutSuffix(segment, "[*]")
	child, exists := current[field]
	if !exists || child == nil {
		return nil
	}

	if iterate {
		items, ok := child.([]any)
		if !ok {
			return nil
		}
		for _, item := range items {
			if len(rest) == 0 {
				if err := hydrateReference(ctx, item, lookup); err != nil {
					return err
				}
				continue
			}
			if err := expandAt(ctx, item, rest, lookup); err != nil {
				return err
			}
		}
		return nil
	}

	if len(rest) == 0 {
		return hydrateReference(ctx, child, lookup)
	}
	return expandAt(ctx, child, rest, lookup)
}

func hydrateReference(ctx context.Context, node any, lookup ReferenceLookup) error {
	ref, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	id, _ := ref["id"].(string)
	if id == "" {
		return nil
	}
	if _, hasType := ref["typeId"]; !hasType {
		return nil
	}
	target, err := lookup(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	ref["obj"] = ObjectMap(target)
	return nil
}
