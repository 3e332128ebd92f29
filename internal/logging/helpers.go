package logging

import (
	"maps"
	"strings"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

const (
	fieldBusinessUnit = "business_unit"
	fieldKey          = "key"
	fieldOperation    = "operation"
)

// WithFields returns logger.WithFields(fields) when the logger implements
// interfaces.FieldsLogger, otherwise logger unchanged.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	fieldsLogger, ok := logger.(interfaces.FieldsLogger)
	if !ok {
		return logger
	}
	return fieldsLogger.WithFields(maps.Clone(fields))
}

// EntityFields names a stored entity by business unit and key. Blank values
// are left out.
func EntityFields(businessUnitKey, key, operation string) map[string]any {
	fields := make(map[string]any, 3)
	for name, value := range map[string]string{
		fieldBusinessUnit: businessUnitKey,
		fieldKey:          key,
		fieldOperation:    operation,
	} {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			fields[name] = trimmed
		}
	}
	return fields
}

// WithEntityContext scopes logger to one content item or page operation.
func WithEntityContext(logger interfaces.Logger, businessUnitKey, key, operation string) interfaces.Logger {
	return WithFields(logger, EntityFields(businessUnitKey, key, operation))
}
