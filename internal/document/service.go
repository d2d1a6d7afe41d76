package document

import (
	"context"
	"errors"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/internal/markdown"
	kscheduler "github.com/goliatone/go-knowledge/internal/scheduler"
	"github.com/goliatone/go-knowledge/pkg/activity"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// Repository abstracts storage operations for document versions. The store is
// authoritative: implementations enforce every transition rule and answer
// with the package error taxonomy, so a service backed by a remote store
// behaves exactly like one backed by local storage. Nothing is mutated when
// a call fails.
//
// Create assigns the version number and stamps zero timestamps. Update applies
// the editable fields only; the version's UpdatedAt acts as an optimistic
// token and a mismatch with the stored row reports ErrStaleVersion through a
// ConflictError. The store stamps the new UpdatedAt on every write.
type Repository interface {
	Create(ctx context.Context, version *Version) (*Version, error)
	Update(ctx context.Context, version *Version) (*Version, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Version, error)
	GetCurrent(ctx context.Context, resourceID uuid.UUID) (*Version, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*Version, error)
	ListPublished(ctx context.Context, opts ListPublishedOptions) ([]*Version, error)
	Publish(ctx context.Context, id uuid.UUID, at time.Time) (*PublishResult, error)
	Unpublish(ctx context.Context, id uuid.UUID, at time.Time) (*Version, error)
	Delete(ctx context.Context, id uuid.UUID, opts DeleteOptions) error
}

// PublishedCache keeps the published current version of a resource close to
// readers. The cache is best effort; a failing cache never fails a lifecycle
// operation.
type PublishedCache interface {
	GetCurrent(ctx context.Context, resourceID uuid.UUID) (*Version, error)
	SetCurrent(ctx context.Context, version *Version) error
	Invalidate(ctx context.Context, resourceID uuid.UUID) error
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// IDGenerator produces identifiers for new versions and resources.
type IDGenerator func() uuid.UUID

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithEngine overrides the markdown engine used by previews.
func WithEngine(engine interfaces.MarkdownEngine) ServiceOption {
	return func(s *service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithScheduler overrides the scheduler used to register publish and
// unpublish jobs.
func WithScheduler(scheduler interfaces.Scheduler) ServiceOption {
	return func(s *service) {
		if scheduler != nil {
			s.scheduler = scheduler
		}
	}
}

// WithSchedulingEnabled toggles scheduling workflows.
func WithSchedulingEnabled(enabled bool) ServiceOption {
	return func(s *service) {
		s.schedulingEnabled = enabled
	}
}

// WithActivityEmitter attaches an activity emitter for lifecycle events.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		if emitter != nil {
			s.activity = emitter
		}
	}
}

// WithPublishedCache attaches a read cache for published current versions.
func WithPublishedCache(cache PublishedCache) ServiceOption {
	return func(s *service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// service implements the document lifecycle on top of a Repository.
type service struct {
	versions          Repository
	engine            interfaces.MarkdownEngine
	now               func() time.Time
	id                IDGenerator
	scheduler         interfaces.Scheduler
	schedulingEnabled bool
	activity          *activity.Emitter
	cache             PublishedCache
}

// NewService constructs a document service backed by the supplied store.
func NewService(versions Repository, opts ...ServiceOption) Service {
	s := &service{
		versions:  versions,
		engine:    markdown.NewEngine(),
		now:       time.Now,
		id:        uuid.New,
		scheduler: kscheduler.NewNoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var _ Service = (*service)(nil)

// Create starts a new document resource with a version one draft. The store
// assigns the version number.
func (s *service) Create(ctx context.Context, req CreateDocumentRequest) (*Version, error) {
	kind := req.Kind
	if kind == "" {
		kind = domain.KindStandard
	}
	if !domain.ValidKind(kind) {
		return nil, NewValidationError(ErrKindInvalid)
	}
	if err := validateFields(kind, req.Title, req.Content, req.Sections); err != nil {
		return nil, err
	}
	slugValue, err := normalizeSlug(req.Slug, req.Title)
	if err != nil {
		return nil, err
	}

	resourceID := req.ResourceID
	if resourceID == uuid.Nil {
		resourceID = s.id()
	}

	now := s.now()
	version := &Version{
		ID:         s.id(),
		ResourceID: resourceID,
		Status:     domain.StatusDraft,
		EditStatus: domain.EditStatusNone,
		Kind:       kind,
		Title:      strings.TrimSpace(req.Title),
		Summary:    strings.TrimSpace(req.Summary),
		Slug:       slugValue,
		Tags:       normalizeTags(req.Tags),
		CreatedBy:  req.CreatedBy,
		UpdatedBy:  req.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if kind == domain.KindEmergency {
		version.EmergencySections = req.Sections
	} else {
		version.Content = req.Content
	}
	if len(req.SourceChecksum) > 0 {
		version.SourceChecksum = append([]byte(nil), req.SourceChecksum...)
	}

	created, err := s.versions.Create(ctx, version)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, "create", req.CreatedBy, created, nil)
	return created, nil
}

// Save replaces the editable fields of a draft. Saving identical values is a
// no-op at the store and safe to repeat.
func (s *service) Save(ctx context.Context, req SaveDraftRequest) (*Version, error) {
	if req.VersionID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}

	record, err := s.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	if record.State() != domain.StateDraft {
		return nil, NewConflictError(record.ID, ErrNotDraft)
	}
	if err := validateFields(record.Kind, req.Title, req.Content, req.Sections); err != nil {
		return nil, err
	}
	slugValue, err := normalizeSlug(req.Slug, req.Title)
	if err != nil {
		return nil, err
	}

	record.Title = strings.TrimSpace(req.Title)
	record.Summary = strings.TrimSpace(req.Summary)
	record.Slug = slugValue
	record.Tags = normalizeTags(req.Tags)
	if record.Kind == domain.KindEmergency {
		record.EmergencySections = req.Sections
		record.Content = ""
	} else {
		record.Content = req.Content
		record.EmergencySections = domain.EmergencySections{}
	}
	record.SourceChecksum = append([]byte(nil), req.SourceChecksum...)
	if req.UpdatedBy != uuid.Nil {
		record.UpdatedBy = req.UpdatedBy
	}

	return s.versions.Update(ctx, record)
}

// Publish promotes a draft to published current, superseding the previous
// current version of the resource when one exists.
func (s *service) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if req.VersionID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}

	record, err := s.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	if !record.State().CanPublish() {
		return nil, NewConflictError(record.ID, ErrNotDraft)
	}
	// Publish re-runs the field rules so a draft saved before a rule change
	// cannot slip through.
	if err := validateFields(record.Kind, record.Title, record.Content, record.Sections()); err != nil {
		return nil, err
	}

	result, err := s.versions.Publish(ctx, record.ID, s.now())
	if err != nil {
		return nil, err
	}

	s.cacheCurrent(ctx, result.Published)
	meta := map[string]any{}
	if result.Superseded != nil {
		meta["superseded_id"] = result.Superseded.ID.String()
		meta["superseded_version"] = result.Superseded.VersionNumber
	}
	s.emit(ctx, "publish", req.PublishedBy, result.Published, meta)
	return result, nil
}

// StartRevision opens a work-in-progress draft for a published current
// version. The current version keeps serving readers while the draft is
// edited.
func (s *service) StartRevision(ctx context.Context, req StartRevisionRequest) (*RevisionResult, error) {
	if req.VersionID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}

	record, err := s.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	switch record.State() {
	case domain.StatePublishedCurrentRevising:
		return nil, NewConflictError(record.ID, ErrRevisionOpen)
	case domain.StatePublishedCurrent:
	default:
		return nil, NewConflictError(record.ID, ErrNotPublishedCurrent)
	}

	now := s.now()
	draft := record.Clone()
	draft.ID = s.id()
	draft.VersionNumber = 0
	draft.Status = domain.StatusDraft
	draft.IsCurrent = false
	draft.EditStatus = domain.EditStatusNone
	draft.PendingDraftID = nil
	draft.PublishAt = nil
	draft.UnpublishAt = nil
	draft.PublishedAt = nil
	draft.SupersededAt = nil
	draft.CreatedAt = now
	draft.UpdatedAt = now
	if req.StartedBy != uuid.Nil {
		draft.CreatedBy = req.StartedBy
		draft.UpdatedBy = req.StartedBy
	}

	createdDraft, err := s.versions.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	record.EditStatus = domain.EditStatusRevising
	record.PendingDraftID = &createdDraft.ID
	if req.StartedBy != uuid.Nil {
		record.UpdatedBy = req.StartedBy
	}

	updated, err := s.versions.Update(ctx, record)
	if err != nil {
		// The draft is unreachable without its marker; drop it again.
		_ = s.versions.Delete(ctx, createdDraft.ID, DeleteOptions{})
		return nil, err
	}

	s.emit(ctx, "revise", req.StartedBy, updated, map[string]any{
		"draft_id": createdDraft.ID.String(),
	})
	return &RevisionResult{Current: updated, Draft: createdDraft}, nil
}

// CancelRevision clears the revising marker and discards the pending draft.
func (s *service) CancelRevision(ctx context.Context, req CancelRevisionRequest) (*Version, error) {
	if req.VersionID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}

	record, err := s.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	if record.State() != domain.StatePublishedCurrentRevising || record.PendingDraftID == nil {
		return nil, NewConflictError(record.ID, ErrNoRevisionOpen)
	}

	draftID := *record.PendingDraftID
	record.EditStatus = domain.EditStatusNone
	record.PendingDraftID = nil
	if req.CancelledBy != uuid.Nil {
		record.UpdatedBy = req.CancelledBy
	}

	updated, err := s.versions.Update(ctx, record)
	if err != nil {
		return nil, err
	}

	// Marker first, then the draft: a failed delete leaves an orphan draft
	// for the retention sweeper, never a dangling marker.
	meta := map[string]any{"draft_id": draftID.String()}
	if err := s.versions.Delete(ctx, draftID, DeleteOptions{}); err != nil && !IsNotFound(err) {
		meta["orphaned"] = true
	}

	s.emit(ctx, "revise_cancel", req.CancelledBy, updated, meta)
	return updated, nil
}

// Unpublish retracts the published current version back to a draft. The
// resource is left without a current version.
func (s *service) Unpublish(ctx context.Context, req UnpublishRequest) (*Version, error) {
	if req.VersionID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}

	record, err := s.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	switch record.State() {
	case domain.StatePublishedCurrentRevising:
		// The open revision must be cancelled first so its draft never
		// outlives the version it revises.
		return nil, NewConflictError(record.ID, ErrRevisionOpen)
	case domain.StatePublishedCurrent:
	default:
		return nil, NewConflictError(record.ID, ErrNotPublishedCurrent)
	}

	updated, err := s.versions.Unpublish(ctx, record.ID, s.now())
	if err != nil {
		return nil, err
	}

	s.dropCached(ctx, updated.ResourceID)
	s.emit(ctx, "unpublish", req.UnpublishedBy, updated, nil)
	return updated, nil
}

// Delete removes a version. The published current version refuses deletion
// unless a replacement is nominated or the caller withdraws the resource.
func (s *service) Delete(ctx context.Context, req DeleteVersionRequest) error {
	if req.VersionID == uuid.Nil {
		return NewValidationError(ErrVersionIDRequired)
	}

	record, err := s.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return err
	}
	if record.IsCurrent && req.ReplacementID == nil && !req.Withdraw {
		return NewConflictError(record.ID, ErrCurrentVersionProtected)
	}

	opts := DeleteOptions{ReplacementID: req.ReplacementID, Withdraw: req.Withdraw}
	if err := s.versions.Delete(ctx, record.ID, opts); err != nil {
		return err
	}

	s.dropCached(ctx, record.ResourceID)
	meta := map[string]any{"withdraw": req.Withdraw}
	if req.ReplacementID != nil {
		meta["replacement_id"] = req.ReplacementID.String()
	}
	s.emit(ctx, "delete", req.DeletedBy, record, meta)
	return nil
}

// Get fetches a version by identifier.
func (s *service) Get(ctx context.Context, versionID uuid.UUID) (*Version, error) {
	if versionID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}
	return s.versions.GetByID(ctx, versionID)
}

// GetCurrent fetches the published current version of a resource.
func (s *service) GetCurrent(ctx context.Context, resourceID uuid.UUID) (*Version, error) {
	if resourceID == uuid.Nil {
		return nil, NewValidationError(ErrResourceIDRequired)
	}
	if s.cache != nil {
		if cached, err := s.cache.GetCurrent(ctx, resourceID); err == nil && cached != nil {
			return cached, nil
		}
	}

	record, err := s.versions.GetCurrent(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	s.cacheCurrent(ctx, record)
	return record, nil
}

// ListVersions returns every version of a resource, newest number first.
func (s *service) ListVersions(ctx context.Context, resourceID uuid.UUID) ([]*Version, error) {
	if resourceID == uuid.Nil {
		return nil, NewValidationError(ErrResourceIDRequired)
	}
	return s.versions.ListByResource(ctx, resourceID)
}

// ListPublished returns audience-facing versions. Drafts never appear.
func (s *service) ListPublished(ctx context.Context, opts ListPublishedOptions) ([]*Version, error) {
	return s.versions.ListPublished(ctx, opts)
}

// Preview renders a version for display without touching its state.
func (s *service) Preview(ctx context.Context, req PreviewRequest) (*Preview, error) {
	if req.VersionID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}

	record, err := s.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}

	preview := &Preview{Version: record}
	switch record.Kind {
	case domain.KindEmergency:
		preview.Markup = s.engine.Render(markdown.ComposeEmergency(record.Sections()))
		preview.Outline = s.engine.EmergencyOutline(record.Sections())
	default:
		preview.Markup = s.engine.Render(record.Content)
		preview.Outline = s.engine.Outline(record.Content)
	}
	return preview, nil
}

// Schedule registers publish and unpublish windows for a version and keeps
// the scheduler jobs in step with the stored stamps.
func (s *service) Schedule(ctx context.Context, req ScheduleRequest) (*Version, error) {
	if !s.schedulingEnabled {
		return nil, ErrSchedulingDisabled
	}
	if req.VersionID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}
	if req.PublishAt != nil && req.PublishAt.IsZero() {
		return nil, NewValidationError(ErrScheduleTimestampInvalid)
	}
	if req.UnpublishAt != nil && req.UnpublishAt.IsZero() {
		return nil, NewValidationError(ErrScheduleTimestampInvalid)
	}
	if req.PublishAt != nil && req.UnpublishAt != nil && req.UnpublishAt.Before(*req.PublishAt) {
		return nil, NewValidationError(ErrScheduleWindowInvalid)
	}

	record, err := s.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	if req.PublishAt != nil && record.State() != domain.StateDraft {
		return nil, NewConflictError(record.ID, ErrNotDraft)
	}

	record.PublishAt = cloneTimePtr(req.PublishAt)
	record.UnpublishAt = cloneTimePtr(req.UnpublishAt)
	if req.ScheduledBy != uuid.Nil {
		record.UpdatedBy = req.ScheduledBy
	}

	if s.scheduler != nil {
		if record.PublishAt != nil {
			payload := map[string]any{"version_id": record.ID.String()}
			if req.ScheduledBy != uuid.Nil {
				payload["scheduled_by"] = req.ScheduledBy.String()
			}
			if _, err := s.scheduler.Enqueue(ctx, interfaces.JobSpec{
				Key:     kscheduler.DocumentPublishJobKey(record.ID),
				Type:    kscheduler.JobTypeDocumentPublish,
				RunAt:   *record.PublishAt,
				Payload: payload,
			}); err != nil {
				return nil, err
			}
		} else if cancelErr := s.scheduler.CancelByKey(ctx, kscheduler.DocumentPublishJobKey(record.ID)); cancelErr != nil && !errors.Is(cancelErr, interfaces.ErrJobNotFound) {
			return nil, cancelErr
		}

		if record.UnpublishAt != nil {
			payload := map[string]any{"version_id": record.ID.String()}
			if req.ScheduledBy != uuid.Nil {
				payload["scheduled_by"] = req.ScheduledBy.String()
			}
			if _, err := s.scheduler.Enqueue(ctx, interfaces.JobSpec{
				Key:     kscheduler.DocumentUnpublishJobKey(record.ID),
				Type:    kscheduler.JobTypeDocumentUnpublish,
				RunAt:   *record.UnpublishAt,
				Payload: payload,
			}); err != nil {
				return nil, err
			}
		} else if cancelErr := s.scheduler.CancelByKey(ctx, kscheduler.DocumentUnpublishJobKey(record.ID)); cancelErr != nil && !errors.Is(cancelErr, interfaces.ErrJobNotFound) {
			return nil, cancelErr
		}
	}

	return s.versions.Update(ctx, record)
}

// emit publishes a lifecycle event. Verbs form a single vocabulary: create,
// publish, unpublish, revise, revise_cancel, delete, with definition codes
// prefixed "document:".
func (s *service) emit(ctx context.Context, verb string, actor uuid.UUID, version *Version, extra map[string]any) {
	if s.activity == nil || !s.activity.Enabled() || version == nil {
		return
	}
	meta := map[string]any{
		"resource_id":    version.ResourceID.String(),
		"version_number": version.VersionNumber,
		"kind":           string(version.Kind),
	}
	for key, value := range extra {
		meta[key] = value
	}
	_ = s.activity.Emit(ctx, activity.Event{
		Verb:           verb,
		ActorID:        actor.String(),
		ObjectType:     "document",
		ObjectID:       version.ID.String(),
		DefinitionCode: "document:" + verb,
		Metadata:       meta,
		OccurredAt:     s.now(),
	})
}

func (s *service) cacheCurrent(ctx context.Context, version *Version) {
	if s.cache == nil || version == nil {
		return
	}
	_ = s.cache.SetCurrent(ctx, version)
}

func (s *service) dropCached(ctx context.Context, resourceID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, resourceID)
}

// validateFields applies the kind-dependent field rules shared by create,
// save, and publish.
func validateFields(kind domain.Kind, title, content string, sections domain.EmergencySections) error {
	var reasons []error
	if strings.TrimSpace(title) == "" {
		reasons = append(reasons, ErrTitleRequired)
	}
	switch kind {
	case domain.KindEmergency:
		if sections.Empty() {
			reasons = append(reasons, ErrSectionsRequired)
		}
	default:
		if strings.TrimSpace(content) == "" {
			reasons = append(reasons, ErrContentRequired)
		}
	}
	if len(reasons) > 0 {
		return NewValidationError(reasons...)
	}
	return nil
}

// normalizeSlug derives a storable slug from the explicit value, falling back
// to the title when none is supplied.
func normalizeSlug(raw, title string) (string, error) {
	source := strings.TrimSpace(raw)
	if source == "" {
		source = strings.TrimSpace(title)
	}
	normalized, err := NormalizeSlug(source)
	if err != nil || normalized == "" {
		return "", NewValidationError(ErrSlugInvalid)
	}
	return normalized, nil
}

// normalizeTags trims, drops empties, and removes duplicates while keeping
// first-seen order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen.Contains(tag) {
			continue
		}
		seen.Add(tag)
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
