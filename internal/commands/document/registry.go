package documentcmd

import (
	"errors"

	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the lifecycle command handlers produced by RegisterDocumentCommands.
type HandlerSet struct {
	Create         *CreateDocumentHandler
	Save           *SaveDocumentDraftHandler
	Publish        *PublishDocumentHandler
	StartRevision  *StartDocumentRevisionHandler
	CancelRevision *CancelDocumentRevisionHandler
	Unpublish      *UnpublishDocumentHandler
	Delete         *DeleteDocumentVersionHandler
	Schedule       *ScheduleDocumentHandler
}

// RegisterDocumentCommands builds the full lifecycle handler set over the
// provided document service and registers each handler with the registry.
// The returned HandlerSet lets callers wire additional integrations
// (dispatcher, CLI) on top of the same instances.
func RegisterDocumentCommands(reg CommandRegistry, service document.Service, provider interfaces.LoggerProvider, gates FeatureGates) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("document command registration: service is nil")
	}

	logger := commands.CommandLogger(provider, "document")

	set := &HandlerSet{
		Create:         NewCreateDocumentHandler(service, logger),
		Save:           NewSaveDocumentDraftHandler(service, logger),
		Publish:        NewPublishDocumentHandler(service, logger),
		StartRevision:  NewStartDocumentRevisionHandler(service, logger),
		CancelRevision: NewCancelDocumentRevisionHandler(service, logger),
		Unpublish:      NewUnpublishDocumentHandler(service, logger),
		Delete:         NewDeleteDocumentVersionHandler(service, logger),
		Schedule:       NewScheduleDocumentHandler(service, logger, gates),
	}

	if reg != nil {
		for _, handler := range []any{
			set.Create, set.Save, set.Publish,
			set.StartRevision, set.CancelRevision,
			set.Unpublish, set.Delete, set.Schedule,
		} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}

	return set, nil
}
