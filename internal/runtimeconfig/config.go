package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

// ErrMarkdownFeatureRequired indicates inconsistent markdown configuration.
var ErrMarkdownFeatureRequired = errors.New("knowledge config: markdown feature must be enabled to configure markdown ingestion")

// ErrMarkdownContentDirRequired indicates markdown ingestion has no source tree.
var ErrMarkdownContentDirRequired = errors.New("knowledge config: markdown content directory is required when markdown is enabled")

// ErrExportFeatureRequired indicates inconsistent export configuration.
var ErrExportFeatureRequired = errors.New("knowledge config: export feature must be enabled to configure the site exporter")

// ErrExportOutputDirRequired indicates the exporter has nowhere to write.
var ErrExportOutputDirRequired = errors.New("knowledge config: export output directory is required when export is enabled")

// ErrRedisCacheRequiresEnabledCache ensures redis wiring only builds when the cache is on.
var ErrRedisCacheRequiresEnabledCache = errors.New("knowledge config: redis cache address requires cache to be enabled")

// ErrRetentionRequiresScheduleSpec keeps the sweeper from starting without a cron spec.
var ErrRetentionRequiresScheduleSpec = errors.New("knowledge config: retention schedule is required when retention is enabled")

var ErrRetentionLimitInvalid = errors.New("knowledge config: retention limit must be zero or positive")
var ErrSchedulerBatchSizeInvalid = errors.New("knowledge config: scheduler batch size must be zero or positive")
var ErrLoggingProviderRequired = errors.New("knowledge config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("knowledge config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("knowledge config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("knowledge config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the knowledge module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled   bool
	Cache     CacheConfig
	Markdown  MarkdownConfig
	Export    ExportConfig
	Scheduler SchedulerConfig
	Retention RetentionConfig
	Features  Features
	Commands  CommandsConfig
	Logging   LoggingConfig
}

// CacheConfig captures published-version cache behaviour.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
	Redis      RedisConfig
}

// RedisConfig points the published cache at a shared redis instance. An
// empty Addr keeps the cache in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Codec selects the payload compression: "brotli", "gzip" or "nop".
	Codec string
}

// MarkdownConfig captures filesystem behaviour for markdown ingestion.
type MarkdownConfig struct {
	Enabled    bool
	ContentDir string
	Pattern    string
	Recursive  bool
}

// ExportConfig captures behaviour for the static site exporter.
type ExportConfig struct {
	Enabled   bool
	OutputDir string
	SiteTitle string
	// Style selects the chroma stylesheet used for fenced code blocks.
	Style     string
	BatchSize int
	// BaseURL roots public document links when RouteConfig is absent.
	BaseURL string
	// RouteConfig plugs an existing go-urlkit route table into page links.
	RouteConfig *urlkit.Config
	URLKit      URLKitResolverConfig
}

// URLKitResolverConfig configures the go-urlkit based public URL resolver.
type URLKitResolverConfig struct {
	Group     string
	Route     string
	SlugParam string
}

// SchedulerConfig tunes the scheduled-transition worker.
type SchedulerConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// RetentionConfig bounds how many superseded versions each resource keeps.
// MaxSuperseded zero keeps full history; the sweeper never runs.
type RetentionConfig struct {
	MaxSuperseded int
	Schedule      string
}

// Features toggles module functionality.
type Features struct {
	Scheduling bool
	Markdown   bool
	Export     bool
	Retention  bool
	Activity   bool
	Logger     bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool
	AutoRegisterDispatcher bool
}

// DefaultConfig returns opinionated defaults for an in-process deployment.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
			Redis: RedisConfig{
				Codec: "brotli",
			},
		},
		Markdown: MarkdownConfig{
			ContentDir: "content",
			Pattern:    "*.md",
			Recursive:  true,
		},
		Export: ExportConfig{
			OutputDir: "dist",
			SiteTitle: "Knowledge Base",
			Style:     "github",
			URLKit: URLKitResolverConfig{
				Group:     "kb",
				Route:     "document",
				SlugParam: "slug",
			},
		},
		Scheduler: SchedulerConfig{
			BatchSize:    50,
			PollInterval: time.Minute,
		},
		Retention: RetentionConfig{
			MaxSuperseded: 0,
			Schedule:      "@hourly",
		},
		Features: Features{},
		Commands: CommandsConfig{},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.Markdown.Enabled {
		if !cfg.Features.Markdown {
			return ErrMarkdownFeatureRequired
		}
		if strings.TrimSpace(cfg.Markdown.ContentDir) == "" {
			return ErrMarkdownContentDirRequired
		}
	}
	if cfg.Export.Enabled {
		if !cfg.Features.Export {
			return ErrExportFeatureRequired
		}
		if strings.TrimSpace(cfg.Export.OutputDir) == "" {
			return ErrExportOutputDirRequired
		}
	}
	if strings.TrimSpace(cfg.Cache.Redis.Addr) != "" && !cfg.Cache.Enabled {
		return ErrRedisCacheRequiresEnabledCache
	}
	if cfg.Retention.MaxSuperseded < 0 {
		return fmt.Errorf("%w: max superseded", ErrRetentionLimitInvalid)
	}
	if cfg.Features.Retention && cfg.Retention.MaxSuperseded > 0 {
		if strings.TrimSpace(cfg.Retention.Schedule) == "" {
			return ErrRetentionRequiresScheduleSpec
		}
	}
	if cfg.Scheduler.BatchSize < 0 {
		return ErrSchedulerBatchSizeInvalid
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
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
