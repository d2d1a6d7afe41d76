package documentcmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/google/uuid"
)

const scheduleDocumentMessageType = "knowledge.document.schedule"

// ScheduleDocumentCommand registers publish/unpublish windows for a version.
type ScheduleDocumentCommand struct {
	VersionID   uuid.UUID  `json:"version_id"`
	PublishAt   *time.Time `json:"publish_at,omitempty"`
	UnpublishAt *time.Time `json:"unpublish_at,omitempty"`
	ScheduledBy uuid.UUID  `json:"scheduled_by,omitempty"`
}

// Type implements command.Message.
func (ScheduleDocumentCommand) Type() string { return scheduleDocumentMessageType }

// Validate ensures required fields and basic payload consistency.
func (m ScheduleDocumentCommand) Validate() error {
	errs := validation.Errors{}
	if m.VersionID == uuid.Nil {
		errs["version_id"] = validation.NewError("knowledge.document.schedule.version_id_required", "version_id is required")
	}
	if m.PublishAt != nil && m.PublishAt.IsZero() {
		errs["publish_at"] = validation.NewError("knowledge.document.schedule.publish_at_invalid", "publish_at must be a valid timestamp when provided")
	}
	if m.UnpublishAt != nil && m.UnpublishAt.IsZero() {
		errs["unpublish_at"] = validation.NewError("knowledge.document.schedule.unpublish_at_invalid", "unpublish_at must be a valid timestamp when provided")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ScheduleDocumentHandler coordinates scheduling changes via the document service.
type ScheduleDocumentHandler struct {
	inner *commands.Handler[ScheduleDocumentCommand]
}

// NewScheduleDocumentHandler constructs a handler wired to the provided document service.
func NewScheduleDocumentHandler(service document.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ScheduleDocumentCommand]) *ScheduleDocumentHandler {
	exec := func(ctx context.Context, msg ScheduleDocumentCommand) error {
		if !gates.schedulingEnabled() {
			return document.ErrSchedulingDisabled
		}
		_, err := service.Schedule(ctx, document.ScheduleRequest{
			VersionID:   msg.VersionID,
			PublishAt:   msg.PublishAt,
			UnpublishAt: msg.UnpublishAt,
			ScheduledBy: msg.ScheduledBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[ScheduleDocumentCommand]{
		commands.WithLogger[ScheduleDocumentCommand](logger),
		commands.WithOperation[ScheduleDocumentCommand]("document.schedule"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ScheduleDocumentHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ScheduleDocumentCommand].
func (h *ScheduleDocumentHandler) Execute(ctx context.Context, msg ScheduleDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}
