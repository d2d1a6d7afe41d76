package document

import (
	"time"

	"github.com/goliatone/go-knowledge/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Version is the canonical record for a single authored revision of a
// knowledge document. All versions of one logical document share a
// ResourceID; the row identity is ID.
type Version struct {
	bun.BaseModel `bun:"table:document_versions,alias:dv"`

	ID             uuid.UUID         `bun:",pk,type:uuid"                      json:"id"`
	ResourceID     uuid.UUID         `bun:"resource_id,notnull,type:uuid"      json:"resource_id"`
	VersionNumber  int               `bun:"version_number,notnull,default:0"   json:"version_number"`
	Status         domain.Status     `bun:"status,notnull,default:'draft'"     json:"status"`
	IsCurrent      bool              `bun:"is_current,notnull,default:false"   json:"is_current"`
	EditStatus     domain.EditStatus `bun:"edit_status,notnull,default:'none'" json:"edit_status"`
	PendingDraftID *uuid.UUID        `bun:"pending_draft_id,type:uuid"         json:"pending_draft_id,omitempty"`
	Kind           domain.Kind       `bun:"kind,notnull,default:'standard'"    json:"kind"`

	Title   string   `bun:"title,notnull"    json:"title"`
	Summary string   `bun:"summary,nullzero" json:"summary,omitempty"`
	Slug    string   `bun:"slug,nullzero"    json:"slug,omitempty"`
	Tags    []string `bun:"tags,type:jsonb"  json:"tags,omitempty"`

	// Content carries the markdown body for standard documents. Emergency
	// documents leave it empty and populate the embedded sections instead.
	Content string `bun:"content,nullzero" json:"content,omitempty"`

	domain.EmergencySections

	// SourceChecksum carries the SHA-256 digest of the markdown file a
	// version was imported from. Hand-authored versions leave it empty.
	SourceChecksum []byte `bun:"source_checksum,nullzero" json:"source_checksum,omitempty"`

	PublishAt    *time.Time `bun:"publish_at,nullzero"    json:"publish_at,omitempty"`
	UnpublishAt  *time.Time `bun:"unpublish_at,nullzero"  json:"unpublish_at,omitempty"`
	PublishedAt  *time.Time `bun:"published_at,nullzero"  json:"published_at,omitempty"`
	SupersededAt *time.Time `bun:"superseded_at,nullzero" json:"superseded_at,omitempty"`

	CreatedBy uuid.UUID `bun:"created_by,type:uuid" json:"created_by,omitempty"`
	UpdatedBy uuid.UUID `bun:"updated_by,type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// State derives the lifecycle state from the persisted tuple.
func (v *Version) State() domain.State {
	if v == nil {
		return domain.StateDraft
	}
	return domain.StateOf(v.Status, v.IsCurrent, v.EditStatus)
}

// Sections returns the structured runbook fields.
func (v *Version) Sections() domain.EmergencySections {
	if v == nil {
		return domain.EmergencySections{}
	}
	return v.EmergencySections
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	clone := *v
	if v.PendingDraftID != nil {
		id := *v.PendingDraftID
		clone.PendingDraftID = &id
	}
	clone.Tags = append([]string(nil), v.Tags...)
	clone.SourceChecksum = append([]byte(nil), v.SourceChecksum...)
	clone.PublishAt = cloneTime(v.PublishAt)
	clone.UnpublishAt = cloneTime(v.UnpublishAt)
	clone.PublishedAt = cloneTime(v.PublishedAt)
	clone.SupersededAt = cloneTime(v.SupersededAt)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}

// PublishResult reports the version set produced by a publish transition.
// Superseded is nil when the resource had no previous current version.
type PublishResult struct {
	Published  *Version
	Superseded *Version
}

// RevisionResult reports the version pair produced by opening a revision.
type RevisionResult struct {
	// Current is the published version now carrying the revising marker.
	Current *Version
	// Draft is the freshly created work-in-progress version.
	Draft *Version
}

// DeleteOptions qualifies a version delete. Exactly one of ReplacementID or
// Withdraw is required when the target is the sole published current version.
type DeleteOptions struct {
	// ReplacementID nominates a superseded published version of the same
	// resource to become current again.
	ReplacementID *uuid.UUID
	// Withdraw acknowledges that the resource will be left without a current
	// version (terminal withdrawn state).
	Withdraw bool
}

// ListPublishedOptions filters audience-facing listings. Drafts are never
// returned regardless of the options supplied.
type ListPublishedOptions struct {
	Kind   *domain.Kind
	Tag    string
	Limit  int
	Offset int
}
