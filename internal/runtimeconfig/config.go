package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMaxVersionsInvalid = errors.New("cms config: max versions must be positive")
var ErrColumnsInvalid = errors.New("cms config: number of columns must be positive")
var ErrContainerRequired = errors.New("cms config: container name is required")
var ErrStorageProviderUnknown = errors.New("cms config: storage provider is invalid")
var ErrStorageDSNRequired = errors.New("cms config: storage dsn is required for sql providers")
var ErrCacheRequiresSQLStorage = errors.New("cms config: cache requires a sql storage provider")
var ErrLoggingProviderUnknown = errors.New("cms config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("cms config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("cms config: logging format is invalid")
var ErrCommandRetriesInvalid = errors.New("cms config: command max retries must be zero or positive")
var ErrResolverConcurrencyInvalid = errors.New("cms config: resolver concurrency must be zero or positive")

// Config aggregates container names, storage bindings and adapter options
// for the CMS module.
type Config struct {
	ProjectKey      string           `mapstructure:"project_key"`
	Containers      ContainersConfig `mapstructure:"containers"`
	MaxVersions     int              `mapstructure:"max_versions"`
	NumberOfColumns int              `mapstructure:"number_of_columns"`
	Storage         StorageConfig    `mapstructure:"storage"`
	Cache           CacheConfig      `mapstructure:"cache"`
	Logging         LoggingConfig    `mapstructure:"logging"`
	Commerce        CommerceConfig   `mapstructure:"commerce"`
	Commands        CommandsConfig   `mapstructure:"commands"`
	Resolver        ResolverConfig   `mapstructure:"resolver"`
	HTTP            HTTPConfig       `mapstructure:"http"`
}

// ContainersConfig names the object store containers.
type ContainersConfig struct {
	ContentItems        string `mapstructure:"content_items"`
	ContentItemStates   string `mapstructure:"content_item_states"`
	ContentItemVersions string `mapstructure:"content_item_versions"`
	ContentTypes        string `mapstructure:"content_types"`
	Datasources         string `mapstructure:"datasources"`
	Pages               string `mapstructure:"pages"`
	PageStates          string `mapstructure:"page_states"`
	PageVersions        string `mapstructure:"page_versions"`
	PageItems           string `mapstructure:"page_items"`
	PageItemStates      string `mapstructure:"page_item_states"`
	PageItemVersions    string `mapstructure:"page_item_versions"`
	Products            string `mapstructure:"products"`
}

// StorageConfig selects the object store adapter.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`

	// DeterministicIDs derives object ids from container and key.
	DeterministicIDs bool `mapstructure:"deterministic_ids"`
}

// CacheConfig captures read-through cache behaviour for SQL storage.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// CommerceConfig points product lookups at the commerce API. An empty
// BaseURL keeps lookups on the products container.
type CommerceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	ProjectKey string        `mapstructure:"project_key"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Subscribe  bool `mapstructure:"subscribe"`
	MaxRetries int  `mapstructure:"max_retries"`
}

// ResolverConfig bounds datasource resolution fan-out. Zero means no limit.
type ResolverConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// HTTPConfig configures the admin API listener.
type HTTPConfig struct {
	Addr     string `mapstructure:"addr"`
	BasePath string `mapstructure:"base_path"`
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ProjectKey: "kvcms",
		Containers: ContainersConfig{
			ContentItems:        "content-item",
			ContentItemStates:   "content-item-state",
			ContentItemVersions: "content-item-version",
			ContentTypes:        "content-type",
			Datasources:         "datasource",
			Pages:               "content-page",
			PageStates:          "page-state",
			PageVersions:        "page-version",
			PageItems:           "page-content-items",
			PageItemStates:      "page-content-item-state",
			PageItemVersions:    "page-content-item-version",
			Products:            "products",
		},
		MaxVersions:     5,
		NumberOfColumns: 12,
		Storage: StorageConfig{
			Provider: "memory",
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
		Commerce: CommerceConfig{
			Timeout: 10 * time.Second,
		},
		Commands: CommandsConfig{
			Subscribe:  true,
			MaxRetries: 0,
		},
		HTTP: HTTPConfig{
			Addr:     ":8080",
			BasePath: "/",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.MaxVersions <= 0 {
		return ErrMaxVersionsInvalid
	}
	if cfg.NumberOfColumns <= 0 {
		return ErrColumnsInvalid
	}
	if name := cfg.Containers.missing(); name != "" {
		return fmt.Errorf("%w: %s", ErrContainerRequired, name)
	}

	provider := normalizeProvider(cfg.Storage.Provider)
	switch provider {
	case "memory":
		if cfg.Cache.Enabled {
			return ErrCacheRequiresSQLStorage
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, provider)
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}

	logging := normalizeProvider(cfg.Logging.Provider)
	if !isSupportedLoggingProvider(logging) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Logging.Provider)
	}
	if logging == "gologger" {
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}

	if cfg.Commands.MaxRetries < 0 {
		return ErrCommandRetriesInvalid
	}
	if cfg.Resolver.Concurrency < 0 {
		return ErrResolverConcurrencyInvalid
	}
	return nil
}

// StorageProvider returns the normalised storage provider name.
func (cfg Config) StorageProvider() string {
	return normalizeProvider(cfg.Storage.Provider)
}

func (c ContainersConfig) missing() string {
	named := []struct {
		field string
		value string
	}{
		{"content_items", c.ContentItems},
		{"content_item_states", c.ContentItemStates},
		{"content_item_versions", c.ContentItemVersions},
		{"content_types", c.ContentTypes},
		{"datasources", c.Datasources},
		{"pages", c.Pages},
		{"page_states", c.PageStates},
		{"page_versions", c.PageVersions},
		{"page_items", c.PageItems},
		{"page_item_states", c.PageItemStates},
		{"page_item_versions", c.PageItemVersions},
		{"products", c.Products},
	}
	for _, entry := range named {
		if strings.TrimSpace(entry.value) == "" {
			return entry.field
		}
	}
	return ""
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedLoggingProvider(provider string) bool {
	switch provider {
	case "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
