// Package http exposes the CMS over net/http.
//
// Business-unit scoped routes mount under {base}/{businessUnitKey}:
//   - Content items: /content-items, /content-items/{key},
//     /content-items/content-type/{contentType},
//     /preview/content-items/{key}, /published/content-items/{key},
//     /preview/content-items/query, /published/content-items/query
//   - Item lifecycle: /content-items/{key}/states[/published|/draft],
//     /content-items/{key}/versions
//   - Pages: /pages, /pages/{key}, /preview/pages/{key}, /published/pages/{key},
//     /preview/pages/query, /published/pages/query,
//     /pages/{key}/states[/published|/draft], /pages/{key}/versions
//   - Grid: /pages/{key}/rows, /pages/{key}/rows/{rowId},
//     /pages/{key}/rows/{rowId}/cells/{cellId},
//     /pages/{key}/components, /pages/{key}/components/{contentItemKey}
//   - Page items: /page-items/{key}/states[/published|/draft]
//
// Global routes: /content-type[/{key}], /datasource[/{key}],
// /datasource/{key}/test, /health and /openapi.json, which describes every
// registered route.
package http
