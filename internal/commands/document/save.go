package documentcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/google/uuid"
)

const saveDocumentDraftMessageType = "knowledge.document.save"

// SaveDocumentDraftCommand replaces the editable fields of an existing draft.
// The kind is fixed at creation and cannot be changed by a save.
type SaveDocumentDraftCommand struct {
	VersionID uuid.UUID                `json:"version_id"`
	Title     string                   `json:"title"`
	Summary   string                   `json:"summary,omitempty"`
	Slug      string                   `json:"slug,omitempty"`
	Tags      []string                 `json:"tags,omitempty"`
	Content   string                   `json:"content,omitempty"`
	Sections  domain.EmergencySections `json:"sections,omitempty"`
	UpdatedBy uuid.UUID                `json:"updated_by,omitempty"`
}

// Type implements command.Message.
func (SaveDocumentDraftCommand) Type() string { return saveDocumentDraftMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m SaveDocumentDraftCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("knowledge.document.save.version_id_required", "version_id is required")
	}
	if m.Title == "" {
		errs["title"] = validation.NewError("knowledge.document.save.title_required", "title is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SaveDocumentDraftHandler persists draft edits via the document service.
type SaveDocumentDraftHandler struct {
	inner *commands.Handler[SaveDocumentDraftCommand]
}

// NewSaveDocumentDraftHandler constructs a handler wired to the provided document service.
func NewSaveDocumentDraftHandler(service document.Service, logger interfaces.Logger, opts ...commands.HandlerOption[SaveDocumentDraftCommand]) *SaveDocumentDraftHandler {
	exec := func(ctx context.Context, msg SaveDocumentDraftCommand) error {
		_, err := service.Save(ctx, document.SaveDraftRequest{
			VersionID: msg.VersionID,
			Title:     msg.Title,
			Summary:   msg.Summary,
			Slug:      msg.Slug,
			Tags:      msg.Tags,
			Content:   msg.Content,
			Sections:  msg.Sections,
			UpdatedBy: msg.UpdatedBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[SaveDocumentDraftCommand]{
		commands.WithLogger[SaveDocumentDraftCommand](logger),
		commands.WithOperation[SaveDocumentDraftCommand]("document.save"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SaveDocumentDraftHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SaveDocumentDraftCommand].
func (h *SaveDocumentDraftHandler) Execute(ctx context.Context, msg SaveDocumentDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}
