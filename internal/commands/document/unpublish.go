package documentcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/google/uuid"
)

const unpublishDocumentMessageType = "knowledge.document.unpublish"

// UnpublishDocumentCommand retracts the published current version back to a draft.
type UnpublishDocumentCommand struct {
	VersionID     uuid.UUID `json:"version_id"`
	UnpublishedBy uuid.UUID `json:"unpublished_by,omitempty"`
}

// Type implements command.Message.
func (UnpublishDocumentCommand) Type() string { return unpublishDocumentMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m UnpublishDocumentCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("knowledge.document.unpublish.version_id_required", "version_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UnpublishDocumentHandler retracts published versions via the document service.
type UnpublishDocumentHandler struct {
	inner *commands.Handler[UnpublishDocumentCommand]
}

// NewUnpublishDocumentHandler constructs a handler wired to the provided document service.
func NewUnpublishDocumentHandler(service document.Service, logger interfaces.Logger, opts ...commands.HandlerOption[UnpublishDocumentCommand]) *UnpublishDocumentHandler {
	exec := func(ctx context.Context, msg UnpublishDocumentCommand) error {
		_, err := service.Unpublish(ctx, document.UnpublishRequest{
			VersionID:     msg.VersionID,
			UnpublishedBy: msg.UnpublishedBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[UnpublishDocumentCommand]{
		commands.WithLogger[UnpublishDocumentCommand](logger),
		commands.WithOperation[UnpublishDocumentCommand]("document.unpublish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &UnpublishDocumentHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[UnpublishDocumentCommand].
func (h *UnpublishDocumentHandler) Execute(ctx context.Context, msg UnpublishDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}
