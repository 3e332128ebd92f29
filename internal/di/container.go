package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-kvcms/internal/commands"
	"github.com/goliatone/go-kvcms/internal/commands/contentcmd"
	"github.com/goliatone/go-kvcms/internal/commands/pagescmd"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/internal/contenttypes"
	"github.com/goliatone/go-kvcms/internal/datasource"
	cmshttp "github.com/goliatone/go-kvcms/internal/http"
	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/logging/gologger"
	"github.com/goliatone/go-kvcms/internal/objectstore"
	"github.com/goliatone/go-kvcms/internal/pages"
	"github.com/goliatone/go-kvcms/internal/products"
	"github.com/goliatone/go-kvcms/internal/runtimeconfig"
	"github.com/goliatone/go-kvcms/internal/state"
	"github.com/goliatone/go-kvcms/internal/versions"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// Container wires the object store, the services built on top of it and
// the admin API from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB         *bun.DB
	ownsDB        bool
	store         interfaces.ObjectStore
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	catalog     interfaces.ProductCatalog
	httpClient  *http.Client
	registry    commands.CommandRegistry
	types       contenttypes.Service
	datasources *datasource.Registry
	resolver    *datasource.Resolver
	definitions datasource.Definitions

	itemSvc     content.Service
	pageItemSvc content.Service
	pageSvc     pages.Service

	contentCommands *contentcmd.HandlerSet
	pageCommands    *pagescmd.HandlerSet

	adminAPI *cmshttp.AdminAPI
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithBunDB supplies an open database for the sql storage providers. The
// container does not close databases it did not open.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		if db != nil {
			c.bunDB = db
		}
	}
}

// WithStore bypasses storage configuration entirely.
func WithStore(store interfaces.ObjectStore) Option {
	return func(c *Container) {
		if store != nil {
			c.store = store
		}
	}
}

// WithCache overrides the cache service and key serializer used by the
// bun store.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithProductCatalog overrides the catalog backing the product datasources.
func WithProductCatalog(catalog interfaces.ProductCatalog) Option {
	return func(c *Container) {
		if catalog != nil {
			c.catalog = catalog
		}
	}
}

// WithCommandRegistry registers the command handlers with a host registry.
func WithCommandRegistry(registry commands.CommandRegistry) Option {
	return func(c *Container) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithHTTPClient sets the client used by the commerce catalog.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewContainer validates cfg and builds every service in dependency order.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid cms configuration").
			WithTextCode("CONFIG_INVALID")
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func(context.Context) error{
		c.configureLogger,
		c.configureStore,
		c.configureCatalog,
		c.configureDatasources,
		c.configureServices,
		c.configureCommands,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	c.configureAdminAPI()

	c.logger.Info("cms.container.ready",
		"storage", cfg.StorageProvider(),
		"cache", c.cacheService != nil,
		"commerce", cfg.Commerce.BaseURL != "",
	)
	return c, nil
}

func (c *Container) configureLogger(context.Context) error {
	if c.loggerProvider == nil && c.Config.Logging.Provider != "noop" {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "configure logger").
				WithTextCode("LOGGER_INIT_FAILED")
		}
		c.loggerProvider = provider
	}
	// a nil provider yields no-op module loggers
	c.logger = logging.ModuleLogger(c.loggerProvider, "cms")
	return nil
}

func (c *Container) configureStore(ctx context.Context) error {
	if c.store != nil {
		return nil
	}

	var storeOpts []objectstore.Option
	if c.Config.Storage.DeterministicIDs {
		storeOpts = append(storeOpts, objectstore.WithDeterministicIDs())
	}

	provider := c.Config.StorageProvider()
	if provider == "memory" {
		c.store = objectstore.NewMemoryStore(storeOpts...)
		return nil
	}

	if c.bunDB == nil {
		db, err := openDB(provider, c.Config.Storage.DSN)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	storeLogger := logging.StoreLogger(c.loggerProvider)
	if err := objectstore.EnsureSchema(ctx, c.bunDB); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "ensure object store schema").
			WithTextCode("STORE_SCHEMA_FAILED")
	}

	c.configureCacheDefaults()
	if c.cacheService != nil {
		c.store = objectstore.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer, storeOpts...)
	} else {
		c.store = objectstore.NewBunStore(c.bunDB, storeOpts...)
	}
	storeLogger.Debug("store.ready", "provider", provider, "cached", c.cacheService != nil)
	return nil
}

func openDB(provider, dsn string) (*bun.DB, error) {
	var (
		driver string
		build  func(*sql.DB) *bun.DB
	)
	switch provider {
	case "sqlite":
		driver = "sqlite3"
		build = func(db *sql.DB) *bun.DB {
			bunDB := bun.NewDB(db, sqlitedialect.New())
			bunDB.SetMaxOpenConns(1)
			return bunDB
		}
	case "postgres":
		driver = "postgres"
		build = func(db *sql.DB) *bun.DB { return bun.NewDB(db, pgdialect.New()) }
	default:
		return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrStorageProviderUnknown, provider)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "open storage database").
			WithTextCode("STORE_OPEN_FAILED")
	}
	return build(sqlDB), nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.DefaultTTL > 0 {
			cfg.TTL = c.Config.Cache.DefaultTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("cms.cache.disabled", "error", err)
			return
		}
		c.cacheService = service
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureCatalog(context.Context) error {
	if c.catalog != nil {
		return nil
	}
	commerce := c.Config.Commerce
	if commerce.BaseURL != "" {
		opts := []products.HTTPOption{products.WithHTTPLogger(logging.DatasourceLogger(c.loggerProvider))}
		if c.httpClient != nil {
			opts = append(opts, products.WithHTTPClient(c.httpClient))
		}
		catalog, err := products.NewHTTPCatalog(products.HTTPConfig{
			BaseURL:    commerce.BaseURL,
			ProjectKey: commerce.ProjectKey,
			Token:      commerce.Token,
			Timeout:    commerce.Timeout,
		}, opts...)
		if err != nil {
			return err
		}
		c.catalog = catalog
		return nil
	}

	catalog, err := products.NewStoreCatalog(c.Config.Containers.Products, c.store)
	if err != nil {
		return err
	}
	c.catalog = catalog
	return nil
}

func (c *Container) configureDatasources(ctx context.Context) error {
	logger := logging.DatasourceLogger(c.loggerProvider)

	types, err := contenttypes.NewService(c.Config.Containers.ContentTypes, c.store,
		contenttypes.WithLogger(logging.ModuleLogger(c.loggerProvider, "cms.contenttypes")))
	if err != nil {
		return err
	}
	c.types = types

	c.datasources = datasource.NewProductRegistry(c.catalog)
	c.resolver = datasource.NewResolver(types, c.datasources,
		datasource.WithLogger(logger),
		datasource.WithConcurrency(c.Config.Resolver.Concurrency),
	)

	definitions, err := datasource.NewDefinitions(c.Config.Containers.Datasources, c.store, c.datasources,
		datasource.WithDefinitionsLogger(logger))
	if err != nil {
		return err
	}
	if err := definitions.EnsureBuiltins(ctx); err != nil {
		return err
	}
	c.definitions = definitions
	return nil
}

func (c *Container) configureServices(context.Context) error {
	containers := c.Config.Containers

	items, err := c.contentService(content.Config{
		ContentContainer: containers.ContentItems,
		StateContainer:   containers.ContentItemStates,
		VersionContainer: containers.ContentItemVersions,
		KeyPrefix:        content.ItemKeyPrefix,
		MaxVersions:      c.Config.MaxVersions,
	})
	if err != nil {
		return err
	}
	c.itemSvc = items

	pageItems, err := c.contentService(content.Config{
		ContentContainer: containers.PageItems,
		StateContainer:   containers.PageItemStates,
		VersionContainer: containers.PageItemVersions,
		KeyPrefix:        content.PageItemKeyPrefix,
		MaxVersions:      c.Config.MaxVersions,
	})
	if err != nil {
		return err
	}
	c.pageItemSvc = pageItems

	pageSvc, err := pages.NewService(pages.Config{
		PageContainer:     containers.Pages,
		StateContainer:    containers.PageStates,
		VersionContainer:  containers.PageVersions,
		PageItemContainer: containers.PageItems,
		MaxVersions:       c.Config.MaxVersions,
		Columns:           c.Config.NumberOfColumns,
	}, c.store, pageItems,
		pages.WithLogger(logging.PagesLogger(c.loggerProvider)),
		pages.WithConcurrency(c.Config.Resolver.Concurrency),
	)
	if err != nil {
		return err
	}
	c.pageSvc = pageSvc
	return nil
}

func (c *Container) contentService(cfg content.Config) (content.Service, error) {
	ctrl, err := state.NewController(state.Config{
		ContentContainer: cfg.ContentContainer,
		StateContainer:   cfg.StateContainer,
	}, c.store, state.WithLogger(logging.StateLogger(c.loggerProvider)))
	if err != nil {
		return nil, err
	}
	ledger, err := versions.NewLedger(versions.Config{
		VersionContainer: cfg.VersionContainer,
		MaxVersions:      cfg.MaxVersions,
	}, c.store, versions.WithLogger(logging.VersionsLogger(c.loggerProvider)))
	if err != nil {
		return nil, err
	}
	return content.NewService(cfg, c.store,
		content.WithStateController(ctrl),
		content.WithLedger(ledger),
		content.WithResolver(c.resolver),
		content.WithLogger(logging.ContentLogger(c.loggerProvider)),
	)
}

func (c *Container) configureCommands(context.Context) error {
	dispatch := commands.DispatchOptions{
		Subscribe:  c.Config.Commands.Subscribe,
		MaxRetries: c.Config.Commands.MaxRetries,
	}

	contentSet, err := contentcmd.RegisterContentCommands(c.registry, dispatch, c.itemSvc, c.loggerProvider)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "register content commands").
			WithTextCode("COMMAND_REGISTRATION_FAILED")
	}
	c.contentCommands = contentSet

	pageSet, err := pagescmd.RegisterPageCommands(c.registry, dispatch, c.pageSvc, c.pageItemSvc, c.loggerProvider)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "register page commands").
			WithTextCode("COMMAND_REGISTRATION_FAILED")
	}
	c.pageCommands = pageSet
	return nil
}

func (c *Container) configureAdminAPI() {
	c.adminAPI = cmshttp.NewAdminAPI(
		cmshttp.WithBasePath(c.Config.HTTP.BasePath),
		cmshttp.WithProjectKey(c.Config.ProjectKey),
		cmshttp.WithContentItems(c.itemSvc),
		cmshttp.WithPageItems(c.pageItemSvc),
		cmshttp.WithPages(c.pageSvc),
		cmshttp.WithContentTypes(c.types),
		cmshttp.WithDatasources(c.definitions),
		cmshttp.WithContentCommands(c.contentCommands),
		cmshttp.WithPageCommands(c.pageCommands),
		cmshttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	)
}

// Handler returns a mux with the admin API registered.
func (c *Container) Handler() http.Handler {
	mux := http.NewServeMux()
	c.adminAPI.Register(mux)
	return mux
}

// Close releases dispatcher subscriptions and any database the container
// opened itself.
func (c *Container) Close() error {
	if c.contentCommands != nil {
		c.contentCommands.Registration.Close()
	}
	if c.pageCommands != nil {
		c.pageCommands.Registration.Close()
	}
	var errs []error
	if c.ownsDB && c.bunDB != nil {
		if err := c.bunDB.Close(); err != nil {
			errs = append(errs, err)
		}
		c.bunDB = nil
	}
	return errors.Join(errs...)
}

func (c *Container) Logger() interfaces.Logger { return c.logger }

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// Store returns the object store every service shares.
func (c *Container) Store() interfaces.ObjectStore { return c.store }

// BunDB is nil for the memory provider.
func (c *Container) BunDB() *bun.DB { return c.bunDB }

// CacheService is nil unless caching is enabled on sql storage.
func (c *Container) CacheService() repocache.CacheService { return c.cacheService }

func (c *Container) ProductCatalog() interfaces.ProductCatalog { return c.catalog }

func (c *Container) ContentTypes() contenttypes.Service { return c.types }

func (c *Container) DatasourceRegistry() *datasource.Registry { return c.datasources }

func (c *Container) Datasources() datasource.Definitions { return c.definitions }

func (c *Container) Resolver() *datasource.Resolver { return c.resolver }

func (c *Container) ContentItems() content.Service { return c.itemSvc }

func (c *Container) PageItems() content.Service { return c.pageItemSvc }

func (c *Container) Pages() pages.Service { return c.pageSvc }

func (c *Container) ContentCommands() *contentcmd.HandlerSet { return c.contentCommands }

func (c *Container) PageCommands() *pagescmd.HandlerSet { return c.pageCommands }

func (c *Container) AdminAPI() *cmshttp.AdminAPI { return c.adminAPI }
