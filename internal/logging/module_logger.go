package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

const (
	rootModule       = "cms"
	contentModule    = "cms.content"
	pagesModule      = "cms.pages"
	stateModule      = "cms.state"
	versionsModule   = "cms.versions"
	datasourceModule = "cms.datasource"
	storeModule      = "cms.store"
	httpModule       = "cms.http"
	commandsModule   = "cms.commands"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ContentLogger returns the logger namespace reserved for content item services.
func ContentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, contentModule)
}

// PagesLogger returns the logger namespace reserved for page services and the grid engine.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

func StateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, stateModule)
}

func VersionsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, versionsModule)
}

// DatasourceLogger returns the logger used by resolution. Per-property
// resolution failures are reported here and never surfaced to callers.
func DatasourceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, datasourceModule)
}

func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// CommandsLogger scopes command handler logs under cms.commands.<module>.
func CommandsLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = strings.TrimSpace(module)
	if module == "" {
		return ModuleLogger(provider, commandsModule)
	}
	return ModuleLogger(provider, commandsModule+"."+module)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
