package document

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-knowledge/domain"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// Service exposes the authoring lifecycle of knowledge documents. Every
// operation validates locally, delegates the transition to the store, and
// returns the stored outcome. Nothing is mutated on failure.
type Service interface {
	Create(ctx context.Context, req CreateDocumentRequest) (*Version, error)
	Save(ctx context.Context, req SaveDraftRequest) (*Version, error)
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
	StartRevision(ctx context.Context, req StartRevisionRequest) (*RevisionResult, error)
	CancelRevision(ctx context.Context, req CancelRevisionRequest) (*Version, error)
	Unpublish(ctx context.Context, req UnpublishRequest) (*Version, error)
	Delete(ctx context.Context, req DeleteVersionRequest) error
	Get(ctx context.Context, versionID uuid.UUID) (*Version, error)
	GetCurrent(ctx context.Context, resourceID uuid.UUID) (*Version, error)
	ListVersions(ctx context.Context, resourceID uuid.UUID) ([]*Version, error)
	ListPublished(ctx context.Context, opts ListPublishedOptions) ([]*Version, error)
	Preview(ctx context.Context, req PreviewRequest) (*Preview, error)
	Schedule(ctx context.Context, req ScheduleRequest) (*Version, error)
}

// CreateDocumentRequest captures the information required to start a new
// document resource at version one. ResourceID is optional; importers supply
// deterministic identifiers, interactive callers leave it empty.
type CreateDocumentRequest struct {
	ResourceID uuid.UUID
	Kind       domain.Kind
	Title      string
	Summary    string
	Slug       string
	Tags       []string
	Content    string
	Sections   domain.EmergencySections
	// SourceChecksum records the digest of the imported source file, empty
	// for interactively authored drafts.
	SourceChecksum []byte
	CreatedBy      uuid.UUID
}

// SaveDraftRequest carries replacement values for an existing draft. The kind
// is fixed at creation and cannot be changed by a save.
type SaveDraftRequest struct {
	VersionID uuid.UUID
	Title     string
	Summary   string
	Slug      string
	Tags      []string
	Content   string
	Sections  domain.EmergencySections
	// SourceChecksum replaces the stored source digest; saves without one
	// clear it, marking the draft as diverged from its imported file.
	SourceChecksum []byte
	UpdatedBy      uuid.UUID
}

// PublishRequest promotes a draft to the published current version.
type PublishRequest struct {
	VersionID   uuid.UUID
	PublishedBy uuid.UUID
}

// StartRevisionRequest opens a revision draft for a published current
// version.
type StartRevisionRequest struct {
	VersionID uuid.UUID
	StartedBy uuid.UUID
}

// CancelRevisionRequest abandons the open revision of a published current
// version and discards its draft.
type CancelRevisionRequest struct {
	VersionID   uuid.UUID
	CancelledBy uuid.UUID
}

// UnpublishRequest retracts the published current version back to a draft.
type UnpublishRequest struct {
	VersionID     uuid.UUID
	UnpublishedBy uuid.UUID
}

// DeleteVersionRequest removes a version. Deleting the published current
// version requires either a replacement or an explicit withdrawal.
type DeleteVersionRequest struct {
	VersionID     uuid.UUID
	ReplacementID *uuid.UUID
	Withdraw      bool
	DeletedBy     uuid.UUID
}

// PreviewRequest renders a version for display without touching its state.
type PreviewRequest struct {
	VersionID uuid.UUID
}

// Preview bundles the rendered markup and outline of a version.
type Preview struct {
	Version *Version
	Markup  string
	Outline []interfaces.Heading
}

// ScheduleRequest registers publish and unpublish windows for a version.
type ScheduleRequest struct {
	VersionID   uuid.UUID
	PublishAt   *time.Time
	UnpublishAt *time.Time
	ScheduledBy uuid.UUID
}
