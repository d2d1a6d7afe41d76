package documentcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/google/uuid"
)

const publishDocumentMessageType = "knowledge.document.publish"

// PublishDocumentCommand requests publication of a specific draft version.
type PublishDocumentCommand struct {
	VersionID   uuid.UUID `json:"version_id"`
	PublishedBy uuid.UUID `json:"published_by,omitempty"`
}

// Type implements command.Message.
func (PublishDocumentCommand) Type() string { return publishDocumentMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m PublishDocumentCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("knowledge.document.publish.version_id_required", "version_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishDocumentHandler publishes drafts via the document service using the shared
// command handler foundation.
type PublishDocumentHandler struct {
	inner *commands.Handler[PublishDocumentCommand]
}

// NewPublishDocumentHandler constructs a handler wired to the provided document service.
func NewPublishDocumentHandler(service document.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishDocumentCommand]) *PublishDocumentHandler {
	exec := func(ctx context.Context, msg PublishDocumentCommand) error {
		_, err := service.Publish(ctx, document.PublishRequest{
			VersionID:   msg.VersionID,
			PublishedBy: msg.PublishedBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishDocumentCommand]{
		commands.WithLogger[PublishDocumentCommand](logger),
		commands.WithOperation[PublishDocumentCommand]("document.publish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishDocumentHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishDocumentCommand].
func (h *PublishDocumentHandler) Execute(ctx context.Context, msg PublishDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}
