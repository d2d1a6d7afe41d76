package knowledge

import "github.com/goliatone/go-knowledge/internal/runtimeconfig"

var (
	ErrMarkdownFeatureRequired        = runtimeconfig.ErrMarkdownFeatureRequired
	ErrMarkdownContentDirRequired     = runtimeconfig.ErrMarkdownContentDirRequired
	ErrExportFeatureRequired          = runtimeconfig.ErrExportFeatureRequired
	ErrExportOutputDirRequired        = runtimeconfig.ErrExportOutputDirRequired
	ErrRedisCacheRequiresEnabledCache = runtimeconfig.ErrRedisCacheRequiresEnabledCache
	ErrRetentionRequiresScheduleSpec  = runtimeconfig.ErrRetentionRequiresScheduleSpec
	ErrRetentionLimitInvalid          = runtimeconfig.ErrRetentionLimitInvalid
	ErrSchedulerBatchSizeInvalid      = runtimeconfig.ErrSchedulerBatchSizeInvalid
	ErrLoggingProviderRequired        = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown         = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid            = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid           = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	CacheConfig          = runtimeconfig.CacheConfig
	RedisConfig          = runtimeconfig.RedisConfig
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	ExportConfig         = runtimeconfig.ExportConfig
	URLKitResolverConfig = runtimeconfig.URLKitResolverConfig
	SchedulerConfig      = runtimeconfig.SchedulerConfig
	RetentionConfig      = runtimeconfig.RetentionConfig
	Features             = runtimeconfig.Features
	CommandsConfig       = runtimeconfig.CommandsConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
