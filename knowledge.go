package knowledge

import (
	"context"

	"github.com/goliatone/go-knowledge/document"
	auditcmd "github.com/goliatone/go-knowledge/internal/commands/audit"
	documentcmd "github.com/goliatone/go-knowledge/internal/commands/document"
	"github.com/goliatone/go-knowledge/internal/di"
	"github.com/goliatone/go-knowledge/internal/export"
	"github.com/goliatone/go-knowledge/internal/jobs"
	"github.com/goliatone/go-knowledge/internal/retention"
	"github.com/goliatone/go-knowledge/pkg/activity"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// DocumentService exports the document lifecycle contract for consumers of the knowledge package.
type DocumentService = document.Service

// ExportService exports the site export service contract.
type ExportService = export.Service

// TransitionWorker exports the scheduled transition worker.
type TransitionWorker = *jobs.Worker

// RetentionSweeper exports the superseded version retention sweeper.
type RetentionSweeper = *retention.Sweeper

// ActivityEmitter exports the activity emitter used for lifecycle notifications.
type ActivityEmitter = *activity.Emitter

// DocumentCommandSet exports the lifecycle command handlers for dispatcher hosts.
type DocumentCommandSet = documentcmd.HandlerSet

// AuditCommandSet exports the audit trail command handlers.
type AuditCommandSet = auditcmd.HandlerSet

// Module represents the top level knowledge base runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a knowledge module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Documents returns the configured document lifecycle service.
func (m *Module) Documents() DocumentService {
	return m.container.DocumentService()
}

// Markdown returns the markdown transform engine used for rendering and outlines.
func (m *Module) Markdown() interfaces.MarkdownEngine {
	return m.container.Engine()
}

// Importer returns the markdown importer when the markdown feature is enabled.
func (m *Module) Importer() interfaces.DocumentImporter {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Importer()
}

// Exporter returns the configured site export service.
func (m *Module) Exporter() ExportService {
	return m.container.ExportService()
}

// Scheduler returns the scheduler used for publish automation.
func (m *Module) Scheduler() interfaces.Scheduler {
	return m.container.Scheduler()
}

// Worker returns the scheduled transition worker when scheduling is enabled.
func (m *Module) Worker() TransitionWorker {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Worker()
}

// Retention returns the retention sweeper when retention is configured.
func (m *Module) Retention() RetentionSweeper {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.RetentionSweeper()
}

// DocumentCommands returns the lifecycle command handlers (create, save,
// publish, revision, unpublish, delete, schedule) bound to the configured
// document service.
func (m *Module) DocumentCommands() *DocumentCommandSet {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.DocumentCommands()
}

// AuditCommands returns the scheduled-transition audit trail handlers. The
// replay handler is nil when scheduling is disabled.
func (m *Module) AuditCommands() *AuditCommandSet {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.AuditCommands()
}

// Activity returns the activity emitter used for lifecycle notifications.
func (m *Module) Activity() ActivityEmitter {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.ActivityEmitter()
}

// Logger returns the logger provider configured for the module.
func (m *Module) Logger() interfaces.LoggerProvider {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.LoggerProvider()
}

// Start launches background processing: the scheduled transition worker and
// the retention sweeper. It is a no-op when neither is configured.
func (m *Module) Start(ctx context.Context) error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Start(ctx)
}

// Stop halts background processing started by Start.
func (m *Module) Stop() {
	if m == nil || m.container == nil {
		return
	}
	m.container.Stop()
}
