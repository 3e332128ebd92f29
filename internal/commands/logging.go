package commands

import (
	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// CommandLogger returns the cms.commands.<module> logger tagged as a command
// component.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	logger := logging.CommandsLogger(provider, module)
	return logging.WithFields(logger, map[string]any{
		"component": "command",
	})
}

// EntityFields is the MessageFields shape shared by every state transition
// command.
func EntityFields(businessUnitKey, key string) map[string]any {
	return map[string]any{
		"business_unit": businessUnitKey,
		"key":           key,
	}
}
