package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix scopes environment overrides, e.g. KVCMS_STORAGE_PROVIDER or
// KVCMS_CONTAINERS_CONTENT_ITEMS.
const EnvPrefix = "kvcms"

// Load reads configuration from path (a directory holding config.yaml or
// a file) and the environment, on top of DefaultConfig. A missing config
// file is not an error. The result is validated.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if path != "" {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			v.AddConfigPath(path)
		} else {
			v.SetConfigFile(path)
		}
	} else {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("cms config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("cms config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("project_key", cfg.ProjectKey)

	v.SetDefault("containers.content_items", cfg.Containers.ContentItems)
	v.SetDefault("containers.content_item_states", cfg.Containers.ContentItemStates)
	v.SetDefault("containers.content_item_versions", cfg.Containers.ContentItemVersions)
	v.SetDefault("containers.content_types", cfg.Containers.ContentTypes)
	v.SetDefault("containers.datasources", cfg.Containers.Datasources)
	v.SetDefault("containers.pages", cfg.Containers.Pages)
	v.SetDefault("containers.page_states", cfg.Containers.PageStates)
	v.SetDefault("containers.page_versions", cfg.Containers.PageVersions)
	v.SetDefault("containers.page_items", cfg.Containers.PageItems)
	v.SetDefault("containers.page_item_states", cfg.Containers.PageItemStates)
	v.SetDefault("containers.page_item_versions", cfg.Containers.PageItemVersions)
	v.SetDefault("containers.products", cfg.Containers.Products)

	v.SetDefault("max_versions", cfg.MaxVersions)
	v.SetDefault("number_of_columns", cfg.NumberOfColumns)

	v.SetDefault("storage.provider", cfg.Storage.Provider)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.deterministic_ids", cfg.Storage.DeterministicIDs)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.default_ttl", cfg.Cache.DefaultTTL)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)

	v.SetDefault("commerce.base_url", cfg.Commerce.BaseURL)
	v.SetDefault("commerce.project_key", cfg.Commerce.ProjectKey)
	v.SetDefault("commerce.token", cfg.Commerce.Token)
	v.SetDefault("commerce.timeout", cfg.Commerce.Timeout)

	v.SetDefault("commands.subscribe", cfg.Commands.Subscribe)
	v.SetDefault("commands.max_retries", cfg.Commands.MaxRetries)

	v.SetDefault("resolver.concurrency", cfg.Resolver.Concurrency)

	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.base_path", cfg.HTTP.BasePath)
}
