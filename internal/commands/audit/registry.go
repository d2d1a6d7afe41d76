package auditcmd

import (
	"errors"

	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the audit command handlers produced by RegisterAuditCommands.
// Replay is nil when no worker was supplied (scheduling disabled).
type HandlerSet struct {
	Export  *ExportAuditHandler
	Cleanup *CleanupAuditHandler
	Replay  *ReplayAuditHandler
}

// RegisterAuditCommands builds the audit trail handlers over the recorder the
// scheduler worker writes to. The worker is optional; without one the replay
// handler is omitted.
func RegisterAuditCommands(reg CommandRegistry, cleaner AuditCleaner, worker Worker, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if cleaner == nil {
		return nil, errors.New("audit command registration: audit log is nil")
	}

	logger := commands.CommandLogger(provider, "audit")

	set := &HandlerSet{
		Export:  NewExportAuditHandler(cleaner, logger),
		Cleanup: NewCleanupAuditHandler(cleaner, logger),
	}
	if worker != nil {
		set.Replay = NewReplayAuditHandler(worker, logger)
	}

	if reg != nil {
		handlers := []any{set.Export, set.Cleanup}
		if set.Replay != nil {
			handlers = append(handlers, set.Replay)
		}
		for _, handler := range handlers {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}

	return set, nil
}
