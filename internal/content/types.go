package content

import (
	"github.com/goliatone/go-kvcms/internal/versions"
	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// Key prefixes for generated keys.
const (
	ItemKeyPrefix     = "item-"
	PageItemKeyPrefix = "page-item-"
)

// Config names the containers one service instance manages. Content items
// and page items are two instances of the same service.
type Config struct {
	ContentContainer string
	StateContainer   string
	VersionContainer string
	KeyPrefix        string
	MaxVersions      int
}

// ItemsConfig returns the default configuration for standalone content items.
func ItemsConfig() Config {
	return Config{
		ContentContainer: "content-item",
		StateContainer:   "content-item-state",
		VersionContainer: "content-item-version",
		KeyPrefix:        ItemKeyPrefix,
		MaxVersions:      versions.DefaultMaxVersions,
	}
}

// PageItemsConfig returns the default configuration for items bound into
// page grid cells.
func PageItemsConfig() Config {
	return Config{
		ContentContainer: "page-content-items",
		StateContainer:   "page-content-item-state",
		VersionContainer: "page-content-item-version",
		KeyPrefix:        PageItemKeyPrefix,
		MaxVersions:      versions.DefaultMaxVersions,
	}
}

// Listed is a stored item together with its lifecycle slots. The item's
// value also carries the object id.
type Listed struct {
	*interfaces.StoredObject
	States map[string]any `json:"states"`
}
