package interfaces

import "context"

// ProductCatalog looks up commerce products for datasource resolution.
// Implementations return the product projection document for a SKU.
type ProductCatalog interface {
	FindBySKU(ctx context.Context, sku string) (map[string]any, error)
}
