package logging

import (
	"context"
	"maps"
)

type contextKey struct{}

// ContextWithFields stores fields on ctx for the go-logger adapter, merged
// over any fields already present.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, contextKey{}, merged)
}

// ContextWithEntity tags ctx with the business unit and key addressed by a
// request.
func ContextWithEntity(ctx context.Context, businessUnitKey, key string) context.Context {
	return ContextWithFields(ctx, EntityFields(businessUnitKey, key, ""))
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(contextKey{}).(map[string]any)
	if len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}
