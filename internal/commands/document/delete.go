package documentcmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/logging"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/google/uuid"
)

const deleteDocumentVersionMessageType = "knowledge.document.version.delete"

// DeleteDocumentVersionCommand removes a version. Deleting the published current
// version requires either a replacement or an explicit withdrawal.
type DeleteDocumentVersionCommand struct {
	VersionID     uuid.UUID  `json:"version_id"`
	ReplacementID *uuid.UUID `json:"replacement_id,omitempty"`
	Withdraw      bool       `json:"withdraw,omitempty"`
	DeletedBy     uuid.UUID  `json:"deleted_by,omitempty"`
}

// Type implements command.Message.
func (DeleteDocumentVersionCommand) Type() string { return deleteDocumentVersionMessageType }

// Validate ensures the command carries consistent identifiers.
func (m DeleteDocumentVersionCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("knowledge.document.version.delete.version_id_required", "version_id is required")
	}
	if m.ReplacementID != nil && *m.ReplacementID == uuid.Nil {
		errs["replacement_id"] = validation.NewError("knowledge.document.version.delete.replacement_id_invalid", "replacement_id must be a valid identifier when provided")
	}
	if m.ReplacementID != nil && m.Withdraw {
		errs["withdraw"] = validation.NewError("knowledge.document.version.delete.withdraw_conflicts", "replacement_id and withdraw are mutually exclusive")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DeleteDocumentVersionHandler removes versions via the document service.
type DeleteDocumentVersionHandler struct {
	service document.Service
	logger  interfaces.Logger
	timeout time.Duration
}

// DeleteDocumentOption customises the delete handler.
type DeleteDocumentOption func(*DeleteDocumentVersionHandler)

// DeleteDocumentWithTimeout overrides the default execution timeout.
func DeleteDocumentWithTimeout(timeout time.Duration) DeleteDocumentOption {
	return func(h *DeleteDocumentVersionHandler) {
		h.timeout = timeout
	}
}

// NewDeleteDocumentVersionHandler constructs a handler wired to the provided document service.
func NewDeleteDocumentVersionHandler(service document.Service, logger interfaces.Logger, opts ...DeleteDocumentOption) *DeleteDocumentVersionHandler {
	handler := &DeleteDocumentVersionHandler{
		service: service,
		logger:  commands.EnsureLogger(logger),
		timeout: commands.DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler
}

// Execute satisfies command.Commander[DeleteDocumentVersionCommand].
func (h *DeleteDocumentVersionHandler) Execute(ctx context.Context, msg DeleteDocumentVersionCommand) error {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)
	ctx, cancel := commands.WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return commands.WrapContextError(err)
	}

	req := document.DeleteVersionRequest{
		VersionID:     msg.VersionID,
		ReplacementID: msg.ReplacementID,
		Withdraw:      msg.Withdraw,
		DeletedBy:     msg.DeletedBy,
	}
	if err := h.service.Delete(ctx, req); err != nil {
		return commands.WrapExecuteError(err)
	}

	fields := map[string]any{
		"operation":  "document.version.delete",
		"version_id": msg.VersionID,
		"withdraw":   msg.Withdraw,
	}
	if msg.ReplacementID != nil {
		fields["replacement_id"] = *msg.ReplacementID
	}
	logging.WithFields(h.logger, fields).Info("document.command.delete.completed")
	return nil
}
