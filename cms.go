package cms

import (
	"context"
	"net/http"

	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/internal/contenttypes"
	"github.com/goliatone/go-kvcms/internal/datasource"
	"github.com/goliatone/go-kvcms/internal/di"
	"github.com/goliatone/go-kvcms/internal/pages"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// ContentService exports the content item service contract for consumers of the cms package.
type ContentService = content.Service

// PageService exports the pages service contract.
type PageService = pages.Service

// ContentTypeService exports the content type registry contract.
type ContentTypeService = contenttypes.Service

// DatasourceDefinitions exports the datasource definition contract.
type DatasourceDefinitions = datasource.Definitions

// ObjectStore exports the key-value store contract every service is built on.
type ObjectStore = interfaces.ObjectStore

// StoredObject exports the store envelope.
type StoredObject = interfaces.StoredObject

// Option customises the module container.
type Option = di.Option

var (
	WithLoggerProvider  = di.WithLoggerProvider
	WithBunDB           = di.WithBunDB
	WithStore           = di.WithStore
	WithCache           = di.WithCache
	WithProductCatalog  = di.WithProductCatalog
	WithCommandRegistry = di.WithCommandRegistry
	WithHTTPClient      = di.WithHTTPClient
)

// Module represents the top level CMS runtime façade.
type Module struct {
	container *di.Container
}

// New creates a CMS module from cfg.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(context.Background(), cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container.
func (m *Module) Container() *di.Container {
	return m.container
}

// ContentItems returns the content item service.
func (m *Module) ContentItems() ContentService {
	return m.container.ContentItems()
}

// PageItems returns the service for items bound into page grid cells.
func (m *Module) PageItems() ContentService {
	return m.container.PageItems()
}

// Pages returns the page service.
func (m *Module) Pages() PageService {
	return m.container.Pages()
}

// ContentTypes returns the content type registry.
func (m *Module) ContentTypes() ContentTypeService {
	return m.container.ContentTypes()
}

// Datasources returns the datasource definitions service.
func (m *Module) Datasources() DatasourceDefinitions {
	return m.container.Datasources()
}

// Store returns the shared object store.
func (m *Module) Store() ObjectStore {
	return m.container.Store()
}

// Handler returns the admin API mounted at the configured base path.
func (m *Module) Handler() http.Handler {
	return m.container.Handler()
}

// Close releases command subscriptions and owned database handles.
func (m *Module) Close() error {
	return m.container.Close()
}
