package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	knowledge "github.com/goliatone/go-knowledge"
	"github.com/goliatone/go-knowledge/internal/di"
	"github.com/goliatone/go-knowledge/internal/logging"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
)

// Options captures configuration for docs CLI bootstraps. Flags win over the
// config file; the config file wins over defaults.
type Options struct {
	ConfigFile     string
	ContentDir     string
	Pattern        string
	Recursive      bool
	OutputDir      string
	SiteTitle      string
	Style          string
	EnableMarkdown bool
	EnableExport   bool
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the knowledge module and the collaborators the CLIs use.
type Module struct {
	Module   *knowledge.Module
	Importer interfaces.DocumentImporter
	Engine   interfaces.MarkdownEngine
	Exporter knowledge.ExportService
	Logger   interfaces.Logger
}

// FileConfig is the YAML shape accepted by --config. Durations are strings
// understood by time.ParseDuration.
type FileConfig struct {
	ContentDir string `yaml:"content_dir"`
	Pattern    string `yaml:"pattern"`
	Recursive  *bool  `yaml:"recursive"`
	Cache      struct {
		Enabled *bool  `yaml:"enabled"`
		TTL     string `yaml:"ttl"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Codec    string `yaml:"codec"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Export struct {
		OutputDir string `yaml:"output_dir"`
		SiteTitle string `yaml:"site_title"`
		Style     string `yaml:"style"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"export"`
	Retention struct {
		MaxSuperseded int    `yaml:"max_superseded"`
		Schedule      string `yaml:"schedule"`
	} `yaml:"retention"`
	Logging struct {
		Provider string `yaml:"provider"`
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
	} `yaml:"logging"`
}

// LoadFileConfig reads and strictly parses a YAML config file. An empty path
// yields a nil config without error.
func LoadFileConfig(path string) (*FileConfig, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := &FileConfig{}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// BuildModule constructs a knowledge module configured for CLI operations.
func BuildModule(opts Options) (*Module, error) {
	cfg := knowledge.DefaultConfig()

	fileCfg, err := LoadFileConfig(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if fileCfg != nil {
		if err := applyFileConfig(&cfg, fileCfg); err != nil {
			return nil, err
		}
	}

	if opts.EnableMarkdown {
		cfg.Features.Markdown = true
		cfg.Markdown.Enabled = true
	}
	if trimmed := strings.TrimSpace(opts.ContentDir); trimmed != "" {
		cfg.Markdown.ContentDir = trimmed
	}
	if trimmed := strings.TrimSpace(opts.Pattern); trimmed != "" {
		cfg.Markdown.Pattern = trimmed
	}
	if opts.Recursive {
		cfg.Markdown.Recursive = true
	}

	if opts.EnableExport {
		cfg.Features.Export = true
		cfg.Export.Enabled = true
	}
	if trimmed := strings.TrimSpace(opts.OutputDir); trimmed != "" {
		cfg.Export.OutputDir = trimmed
	}
	if trimmed := strings.TrimSpace(opts.SiteTitle); trimmed != "" {
		cfg.Export.SiteTitle = trimmed
	}
	if trimmed := strings.TrimSpace(opts.Style); trimmed != "" {
		cfg.Export.Style = trimmed
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := knowledge.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise knowledge module: %w", err)
	}

	built := &Module{
		Module: module,
		Engine: module.Markdown(),
		Logger: logging.MarkdownLogger(module.Container().LoggerProvider()),
	}
	if opts.EnableMarkdown {
		built.Importer = module.Importer()
		if built.Importer == nil {
			return nil, fmt.Errorf("markdown importer not configured; ensure the markdown feature is enabled")
		}
	}
	if opts.EnableExport {
		built.Exporter = module.Exporter()
		if built.Exporter == nil {
			return nil, fmt.Errorf("export service not configured; ensure the export feature is enabled")
		}
	}
	return built, nil
}

func applyFileConfig(cfg *knowledge.Config, file *FileConfig) error {
	if trimmed := strings.TrimSpace(file.ContentDir); trimmed != "" {
		cfg.Markdown.ContentDir = trimmed
	}
	if trimmed := strings.TrimSpace(file.Pattern); trimmed != "" {
		cfg.Markdown.Pattern = trimmed
	}
	if file.Recursive != nil {
		cfg.Markdown.Recursive = *file.Recursive
	}

	if file.Cache.Enabled != nil {
		cfg.Cache.Enabled = *file.Cache.Enabled
	}
	if trimmed := strings.TrimSpace(file.Cache.TTL); trimmed != "" {
		ttl, err := time.ParseDuration(trimmed)
		if err != nil {
			return fmt.Errorf("parse cache ttl: %w", err)
		}
		cfg.Cache.DefaultTTL = ttl
	}
	if trimmed := strings.TrimSpace(file.Cache.Redis.Addr); trimmed != "" {
		cfg.Cache.Redis.Addr = trimmed
		cfg.Cache.Redis.Password = file.Cache.Redis.Password
		cfg.Cache.Redis.DB = file.Cache.Redis.DB
	}
	if trimmed := strings.TrimSpace(file.Cache.Redis.Codec); trimmed != "" {
		cfg.Cache.Redis.Codec = trimmed
	}

	if trimmed := strings.TrimSpace(file.Export.OutputDir); trimmed != "" {
		cfg.Export.OutputDir = trimmed
	}
	if trimmed := strings.TrimSpace(file.Export.SiteTitle); trimmed != "" {
		cfg.Export.SiteTitle = trimmed
	}
	if trimmed := strings.TrimSpace(file.Export.Style); trimmed != "" {
		cfg.Export.Style = trimmed
	}
	if trimmed := strings.TrimSpace(file.Export.BaseURL); trimmed != "" {
		cfg.Export.BaseURL = trimmed
	}

	if file.Retention.MaxSuperseded > 0 {
		cfg.Features.Retention = true
		cfg.Retention.MaxSuperseded = file.Retention.MaxSuperseded
	}
	if trimmed := strings.TrimSpace(file.Retention.Schedule); trimmed != "" {
		cfg.Retention.Schedule = trimmed
	}

	if trimmed := strings.TrimSpace(file.Logging.Provider); trimmed != "" {
		cfg.Logging.Provider = trimmed
	}
	if trimmed := strings.TrimSpace(file.Logging.Level); trimmed != "" {
		cfg.Logging.Level = trimmed
	}
	if trimmed := strings.TrimSpace(file.Logging.Format); trimmed != "" {
		cfg.Logging.Format = trimmed
	}
	return nil
}

// SplitList parses a comma separated value list into a trimmed slice.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseUUID converts the supplied string into a UUID, returning uuid.Nil when
// the input is empty.
func ParseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(trimmed)
}
