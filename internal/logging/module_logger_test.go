package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	if fields == nil {
		fields = map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "cms.test")
	noop, ok := logger.(noopLogger)
	if !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	_ = noop.WithContext(context.Background())
	noop.WithFields(map[string]any{"foo": "bar"}).Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	logger := ModuleLogger(provider, pagesModule)

	if len(provider.requested) != 1 || provider.requested[0] != pagesModule {
		t.Fatalf("expected module %s, got %v", pagesModule, provider.requested)
	}
	if len(rec.fields) != 1 {
		t.Fatalf("expected module fields to be applied once, got %d", len(rec.fields))
	}
	if got, ok := rec.fields[0]["module"]; !ok || got != pagesModule {
		t.Fatalf("expected module field %s, got %v", pagesModule, rec.fields[0]["module"])
	}

	logger.Info("with provider")
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if len(provider.requested) != 1 || provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
	if rec.fields[0]["module"] != rootModule {
		t.Fatalf("expected module field %s, got %v", rootModule, rec.fields[0]["module"])
	}
}

func TestNamedLoggersRequestTheirModules(t *testing.T) {
	cases := []struct {
		name   string
		build  func(interfaces.LoggerProvider) interfaces.Logger
		module string
	}{
		{"content", ContentLogger, contentModule},
		{"pages", PagesLogger, pagesModule},
		{"state", StateLogger, stateModule},
		{"versions", VersionsLogger, versionsModule},
		{"datasource", DatasourceLogger, datasourceModule},
		{"store", StoreLogger, storeModule},
		{"http", HTTPLogger, httpModule},
		{"commands", func(p interfaces.LoggerProvider) interfaces.Logger { return CommandsLogger(p, "pages") }, "cms.commands.pages"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &stubProvider{logger: &recordingLogger{}}
			_ = tc.build(provider)
			if len(provider.requested) == 0 || provider.requested[0] != tc.module {
				t.Fatalf("expected %s module request, got %v", tc.module, provider.requested)
			}
		})
	}
}

func TestWithEntityContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	_ = WithEntityContext(rec, "bu-1", " ", "delete")

	if len(rec.fields) != 1 {
		t.Fatalf("expected one fields call, got %d", len(rec.fields))
	}
	fields := rec.fields[0]
	if fields[fieldBusinessUnit] != "bu-1" || fields[fieldOperation] != "delete" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields[fieldKey]; ok {
		t.Fatalf("blank key should be skipped, got %v", fields)
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "r-1"})
	ctx = ContextWithFields(ctx, map[string]any{fieldBusinessUnit: "bu-1"})

	fields := ContextFields(ctx)
	if fields["request_id"] != "r-1" || fields[fieldBusinessUnit] != "bu-1" {
		t.Fatalf("expected merged context fields, got %v", fields)
	}
	fields["request_id"] = "mutated"
	if ContextFields(ctx)["request_id"] != "r-1" {
		t.Fatalf("context fields should be copied on read")
	}
}

func TestContextWithEntity(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "r-1"})
	ctx = ContextWithEntity(ctx, "bu-1", "page-1")

	fields := ContextFields(ctx)
	if fields["request_id"] != "r-1" || fields[fieldBusinessUnit] != "bu-1" || fields[fieldKey] != "page-1" {
		t.Fatalf("unexpected context fields %v", fields)
	}
	if _, ok := fields[fieldOperation]; ok {
		t.Fatalf("request context should not carry an operation, got %v", fields)
	}
	if ContextWithEntity(context.Background(), " ", "") != context.Background() {
		t.Fatal("blank entity should leave the context untouched")
	}
}
