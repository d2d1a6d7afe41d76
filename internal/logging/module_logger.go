package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

const (
	rootModule      = "knowledge"
	documentModule  = "knowledge.document"
	markdownModule  = "knowledge.markdown"
	schedulerModule = "knowledge.scheduler"
	exportModule    = "knowledge.export"
	retentionModule = "knowledge.retention"
)

const (
	fieldMarkdownPath   = "markdown_path"
	fieldMarkdownSlug   = "slug"
	fieldMarkdownAction = "sync_action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// DocumentLogger returns the logger namespace reserved for the document
// version lifecycle services.
func DocumentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, documentModule)
}

// MarkdownLogger returns the logger namespace reserved for markdown import
// and transform workflows.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// SchedulerLogger returns the logger namespace reserved for scheduler workers.
func SchedulerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schedulerModule)
}

// ExportLogger returns the logger namespace reserved for publication export.
func ExportLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, exportModule)
}

// RetentionLogger returns the logger namespace reserved for retention sweeps.
func RetentionLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, retentionModule)
}

// WithMarkdownContext enriches the provided logger with common markdown fields
// such as file path, resource slug, and sync action. Empty values are ignored.
func WithMarkdownContext(logger interfaces.Logger, path, slug, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldMarkdownPath] = trimmed
	}
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		fields[fieldMarkdownSlug] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldMarkdownAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
