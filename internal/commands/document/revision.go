package documentcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	startDocumentRevisionMessageType  = "knowledge.document.revision.start"
	cancelDocumentRevisionMessageType = "knowledge.document.revision.cancel"
)

// StartDocumentRevisionCommand opens a revision draft for a published current version.
type StartDocumentRevisionCommand struct {
	VersionID uuid.UUID `json:"version_id"`
	StartedBy uuid.UUID `json:"started_by,omitempty"`
}

// Type implements command.Message.
func (StartDocumentRevisionCommand) Type() string { return startDocumentRevisionMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m StartDocumentRevisionCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("knowledge.document.revision.start.version_id_required", "version_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// StartDocumentRevisionHandler opens revision drafts via the document service.
type StartDocumentRevisionHandler struct {
	inner *commands.Handler[StartDocumentRevisionCommand]
}

// NewStartDocumentRevisionHandler constructs a handler wired to the provided document service.
func NewStartDocumentRevisionHandler(service document.Service, logger interfaces.Logger, opts ...commands.HandlerOption[StartDocumentRevisionCommand]) *StartDocumentRevisionHandler {
	exec := func(ctx context.Context, msg StartDocumentRevisionCommand) error {
		_, err := service.StartRevision(ctx, document.StartRevisionRequest{
			VersionID: msg.VersionID,
			StartedBy: msg.StartedBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[StartDocumentRevisionCommand]{
		commands.WithLogger[StartDocumentRevisionCommand](logger),
		commands.WithOperation[StartDocumentRevisionCommand]("document.revision.start"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &StartDocumentRevisionHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[StartDocumentRevisionCommand].
func (h *StartDocumentRevisionHandler) Execute(ctx context.Context, msg StartDocumentRevisionCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CancelDocumentRevisionCommand abandons the open revision of a published current
// version and discards its draft.
type CancelDocumentRevisionCommand struct {
	VersionID   uuid.UUID `json:"version_id"`
	CancelledBy uuid.UUID `json:"cancelled_by,omitempty"`
}

// Type implements command.Message.
func (CancelDocumentRevisionCommand) Type() string { return cancelDocumentRevisionMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m CancelDocumentRevisionCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("knowledge.document.revision.cancel.version_id_required", "version_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CancelDocumentRevisionHandler abandons revision drafts via the document service.
type CancelDocumentRevisionHandler struct {
	inner *commands.Handler[CancelDocumentRevisionCommand]
}

// NewCancelDocumentRevisionHandler constructs a handler wired to the provided document service.
func NewCancelDocumentRevisionHandler(service document.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CancelDocumentRevisionCommand]) *CancelDocumentRevisionHandler {
	exec := func(ctx context.Context, msg CancelDocumentRevisionCommand) error {
		_, err := service.CancelRevision(ctx, document.CancelRevisionRequest{
			VersionID:   msg.VersionID,
			CancelledBy: msg.CancelledBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[CancelDocumentRevisionCommand]{
		commands.WithLogger[CancelDocumentRevisionCommand](logger),
		commands.WithOperation[CancelDocumentRevisionCommand]("document.revision.cancel"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CancelDocumentRevisionHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CancelDocumentRevisionCommand].
func (h *CancelDocumentRevisionHandler) Execute(ctx context.Context, msg CancelDocumentRevisionCommand) error {
	return h.inner.Execute(ctx, msg)
}
