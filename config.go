package cms

import "github.com/goliatone/go-kvcms/internal/runtimeconfig"

var (
	ErrMaxVersionsInvalid         = runtimeconfig.ErrMaxVersionsInvalid
	ErrColumnsInvalid             = runtimeconfig.ErrColumnsInvalid
	ErrContainerRequired          = runtimeconfig.ErrContainerRequired
	ErrStorageProviderUnknown     = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDSNRequired         = runtimeconfig.ErrStorageDSNRequired
	ErrCacheRequiresSQLStorage    = runtimeconfig.ErrCacheRequiresSQLStorage
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
	ErrCommandRetriesInvalid      = runtimeconfig.ErrCommandRetriesInvalid
	ErrResolverConcurrencyInvalid = runtimeconfig.ErrResolverConcurrencyInvalid
)

type (
	Config           = runtimeconfig.Config
	ContainersConfig = runtimeconfig.ContainersConfig
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
	CommerceConfig   = runtimeconfig.CommerceConfig
	CommandsConfig   = runtimeconfig.CommandsConfig
	ResolverConfig   = runtimeconfig.ResolverConfig
	HTTPConfig       = runtimeconfig.HTTPConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML config file (or directory holding config.yaml)
// and KVCMS_* environment overrides on top of the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
