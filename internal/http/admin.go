package http

import (
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-kvcms/internal/commands/contentcmd"
	"github.com/goliatone/go-kvcms/internal/commands/pagescmd"
	"github.com/goliatone/go-kvcms/internal/content"
	"github.com/goliatone/go-kvcms/internal/contenttypes"
	"github.com/goliatone/go-kvcms/internal/datasource"
	"github.com/goliatone/go-kvcms/internal/logging"
	"github.com/goliatone/go-kvcms/internal/openapi"
	"github.com/goliatone/go-kvcms/internal/pages"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

const defaultBasePath = "/"

// AdminAPI registers the CMS routes on a ServeMux.
type AdminAPI struct {
	basePath        string
	projectKey      string
	items           content.Service
	pageItems       content.Service
	pages           pages.Service
	types           contenttypes.Service
	datasources     datasource.Definitions
	contentCommands *contentcmd.HandlerSet
	pageCommands    *pagescmd.HandlerSet
	logger          interfaces.Logger

	routesMu sync.Mutex
	routes   []openapi.Route
}

// AdminOption configures the API.
type AdminOption func(*AdminAPI)

// NewAdminAPI builds an API with the provided options.
func NewAdminAPI(opts ...AdminOption) *AdminAPI {
	api := &AdminAPI{
		basePath: defaultBasePath,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the prefix every route is mounted under.
func WithBasePath(path string) AdminOption {
	return func(api *AdminAPI) {
		if strings.TrimSpace(path) != "" {
			api.basePath = path
		}
	}
}

// WithProjectKey sets the key reported by the health endpoint.
func WithProjectKey(key string) AdminOption {
	return func(api *AdminAPI) {
		api.projectKey = key
	}
}

func WithContentItems(svc content.Service) AdminOption {
	return func(api *AdminAPI) {
		api.items = svc
	}
}

func WithPageItems(svc content.Service) AdminOption {
	return func(api *AdminAPI) {
		api.pageItems = svc
	}
}

func WithPages(svc pages.Service) AdminOption {
	return func(api *AdminAPI) {
		api.pages = svc
	}
}

func WithContentTypes(svc contenttypes.Service) AdminOption {
	return func(api *AdminAPI) {
		api.types = svc
	}
}

func WithDatasources(defs datasource.Definitions) AdminOption {
	return func(api *AdminAPI) {
		api.datasources = defs
	}
}

// WithContentCommands routes content item publish and discard requests
// through the command handlers.
func WithContentCommands(set *contentcmd.HandlerSet) AdminOption {
	return func(api *AdminAPI) {
		api.contentCommands = set
	}
}

// WithPageCommands routes page and page item publish and discard requests
// through the command handlers.
func WithPageCommands(set *pagescmd.HandlerSet) AdminOption {
	return func(api *AdminAPI) {
		api.pageCommands = set
	}
}

func WithLogger(logger interfaces.Logger) AdminOption {
	return func(api *AdminAPI) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// Register attaches the routes to mux. Global resources get their own
// prefixes; everything else under the base path is business-unit scoped.
func (api *AdminAPI) Register(mux *http.ServeMux) {
	if api == nil || mux == nil {
		return
	}
	prefix := strings.TrimSuffix(joinPath(api.basePath, ""), "/")

	global := http.NewServeMux()
	api.registerHealthRoutes(global, prefix)
	api.registerContentTypeRoutes(global, prefix)
	api.registerDatasourceRoutes(global, prefix)
	api.registerOpenAPIRoute(global, prefix)
	for _, path := range []string{"/health", "/openapi.json", "/content-type", "/content-type/", "/datasource", "/datasource/"} {
		mux.Handle(prefix+path, global)
	}

	scoped := http.NewServeMux()
	api.registerContentItemRoutes(scoped, prefix)
	api.registerPageRoutes(scoped, prefix)
	api.registerPageItemRoutes(scoped, prefix)
	mux.Handle(prefix+"/", scoped)
}

func (api *AdminAPI) registerHealthRoutes(mux *http.ServeMux, prefix string) {
	api.route(mux, "GET "+prefix+"/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"projectKey": api.projectKey,
		})
	})
}

// route registers fn on mux and records it for the API description.
func (api *AdminAPI) route(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, fn)
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		return
	}
	api.routesMu.Lock()
	api.routes = append(api.routes, openapi.Route{Method: method, Path: path})
	api.routesMu.Unlock()
}

func (api *AdminAPI) registerOpenAPIRoute(mux *http.ServeMux, prefix string) {
	api.route(mux, "GET "+prefix+"/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		api.routesMu.Lock()
		routes := append([]openapi.Route(nil), api.routes...)
		api.routesMu.Unlock()

		doc := openapi.NewDocument("kvcms admin API", "1.0.0")
		doc.AddRoutes(routes)
		doc.AddSchema("StoredObject", openapi.StoredObjectSchema())
		doc.AddSchema("Error", openapi.ErrorSchema())
		if api.projectKey != "" {
			doc.SetExtension("x-project-key", api.projectKey)
		}
		writeJSON(w, http.StatusOK, doc.AsMap())
	})
}

func (api *AdminAPI) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, api.logger, r, err)
}
