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

const createDocumentMessageType = "knowledge.document.create"

// CreateDocumentCommand requests a new document resource starting at version one.
// ResourceID is optional; importers supply deterministic identifiers while
// interactive callers leave it empty.
type CreateDocumentCommand struct {
	ResourceID uuid.UUID                `json:"resource_id,omitempty"`
	Kind       domain.Kind              `json:"kind,omitempty"`
	Title      string                   `json:"title"`
	Summary    string                   `json:"summary,omitempty"`
	Slug       string                   `json:"slug,omitempty"`
	Tags       []string                 `json:"tags,omitempty"`
	Content    string                   `json:"content,omitempty"`
	Sections   domain.EmergencySections `json:"sections,omitempty"`
	CreatedBy  uuid.UUID                `json:"created_by,omitempty"`
}

// Type implements command.Message.
func (CreateDocumentCommand) Type() string { return createDocumentMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m CreateDocumentCommand) Validate() error {
	errs := validation.Errors{}
	if m.Title == "" {
		errs["title"] = validation.NewError("knowledge.document.create.title_required", "title is required")
	}
	if m.Kind != "" && !domain.ValidKind(m.Kind) {
		errs["kind"] = validation.NewError("knowledge.document.create.kind_invalid", "kind must be standard or emergency")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CreateDocumentHandler creates draft versions via the document service using the
// shared command handler foundation.
type CreateDocumentHandler struct {
	inner *commands.Handler[CreateDocumentCommand]
}

// NewCreateDocumentHandler constructs a handler wired to the provided document service.
func NewCreateDocumentHandler(service document.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CreateDocumentCommand]) *CreateDocumentHandler {
	exec := func(ctx context.Context, msg CreateDocumentCommand) error {
		_, err := service.Create(ctx, document.CreateDocumentRequest{
			ResourceID: msg.ResourceID,
			Kind:       msg.Kind,
			Title:      msg.Title,
			Summary:    msg.Summary,
			Slug:       msg.Slug,
			Tags:       msg.Tags,
			Content:    msg.Content,
			Sections:   msg.Sections,
			CreatedBy:  msg.CreatedBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[CreateDocumentCommand]{
		commands.WithLogger[CreateDocumentCommand](logger),
		commands.WithOperation[CreateDocumentCommand]("document.create"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CreateDocumentHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CreateDocumentCommand].
func (h *CreateDocumentHandler) Execute(ctx context.Context, msg CreateDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}
