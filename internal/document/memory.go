package document

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-knowledge/internal/domain"
)

// MemoryRepository is an in-memory version store for scaffolding and tests.
// It enforces the same transition rules a production store would, so services
// wired against it observe authoritative behavior.
type MemoryRepository struct {
	mu       sync.RWMutex
	now      func() time.Time
	versions map[uuid.UUID]*Version
}

// MemoryOption customizes the in-memory store.
type MemoryOption func(*MemoryRepository)

// WithMemoryClock overrides the clock used to stamp writes, used mainly for tests.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(m *MemoryRepository) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewMemoryRepository creates an empty in-memory version store.
func NewMemoryRepository(opts ...MemoryOption) *MemoryRepository {
	mem := &MemoryRepository{
		now:      time.Now,
		versions: make(map[uuid.UUID]*Version),
	}
	for _, opt := range opts {
		opt(mem)
	}
	return mem
}

var _ Repository = (*MemoryRepository)(nil)

// Create inserts a draft and assigns its version number.
func (m *MemoryRepository) Create(_ context.Context, version *Version) (*Version, error) {
	if version == nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := version.Clone()
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	if _, exists := m.versions[copied.ID]; exists {
		return nil, NewConflictError(copied.ID, errors.New("document: version id already exists"))
	}
	if copied.ResourceID == uuid.Nil {
		return nil, NewValidationError(ErrResourceIDRequired)
	}

	if copied.Status == "" {
		copied.Status = domain.StatusDraft
	}
	if copied.EditStatus == "" {
		copied.EditStatus = domain.EditStatusNone
	}
	if copied.Kind == "" {
		copied.Kind = domain.KindStandard
	}
	if copied.Status != domain.StatusDraft {
		return nil, NewConflictError(copied.ID, ErrNotDraft)
	}
	if copied.VersionNumber == 0 {
		copied.VersionNumber = m.nextNumber(copied.ResourceID)
	}

	now := m.now()
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = now
	}
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = now
	}

	m.versions[copied.ID] = copied
	return copied.Clone(), nil
}

// Update applies the editable fields of a version. Lifecycle columns only
// change through Publish, Unpublish, and Delete.
func (m *MemoryRepository) Update(_ context.Context, version *Version) (*Version, error) {
	if version == nil || version.ID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.versions[version.ID]
	if !ok {
		return nil, &NotFoundError{VersionID: version.ID}
	}
	if !version.UpdatedAt.Equal(stored.UpdatedAt) {
		return nil, NewConflictError(version.ID, ErrStaleVersion)
	}
	if stored.PendingDraftID != nil && version.PendingDraftID != nil && *stored.PendingDraftID != *version.PendingDraftID {
		return nil, NewConflictError(version.ID, ErrRevisionOpen)
	}

	stored.Title = version.Title
	stored.Summary = version.Summary
	stored.Slug = version.Slug
	stored.Tags = append([]string(nil), version.Tags...)
	stored.Content = version.Content
	stored.EmergencySections = version.EmergencySections
	stored.SourceChecksum = append([]byte(nil), version.SourceChecksum...)
	stored.EditStatus = version.EditStatus
	if version.PendingDraftID != nil {
		id := *version.PendingDraftID
		stored.PendingDraftID = &id
	} else {
		stored.PendingDraftID = nil
	}
	stored.PublishAt = cloneTimePtr(version.PublishAt)
	stored.UnpublishAt = cloneTimePtr(version.UnpublishAt)
	if version.UpdatedBy != uuid.Nil {
		stored.UpdatedBy = version.UpdatedBy
	}
	stored.UpdatedAt = m.now()

	return stored.Clone(), nil
}

// GetByID retrieves a version by identifier.
func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.versions[id]
	if !ok {
		return nil, &NotFoundError{VersionID: id}
	}
	return rec.Clone(), nil
}

// GetCurrent retrieves the published current version of a resource.
func (m *MemoryRepository) GetCurrent(_ context.Context, resourceID uuid.UUID) (*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec := m.currentOf(resourceID)
	if rec == nil {
		return nil, &NotFoundError{ResourceID: resourceID}
	}
	return rec.Clone(), nil
}

// ListByResource returns every version of a resource, highest number first.
func (m *MemoryRepository) ListByResource(_ context.Context, resourceID uuid.UUID) ([]*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Version, 0, 4)
	for _, rec := range m.versions {
		if rec.ResourceID == resourceID {
			out = append(out, rec.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VersionNumber > out[j].VersionNumber
	})
	return out, nil
}

// ListPublished returns current published versions, newest publish first.
func (m *MemoryRepository) ListPublished(_ context.Context, opts ListPublishedOptions) ([]*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Version, 0, len(m.versions))
	for _, rec := range m.versions {
		if !rec.IsCurrent || rec.Status != domain.StatusPublished {
			continue
		}
		if opts.Kind != nil && rec.Kind != *opts.Kind {
			continue
		}
		if opts.Tag != "" && !hasTag(rec.Tags, opts.Tag) {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		left, right := out[i], out[j]
		switch {
		case left.PublishedAt == nil:
			return false
		case right.PublishedAt == nil:
			return true
		case !left.PublishedAt.Equal(*right.PublishedAt):
			return left.PublishedAt.After(*right.PublishedAt)
		}
		return left.ID.String() < right.ID.String()
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []*Version{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Publish promotes a draft to published current, superseding the previous
// current version of the same resource. The scheduled publish stamp is
// consumed; a pending unpublish window stays armed.
func (m *MemoryRepository) Publish(_ context.Context, id uuid.UUID, at time.Time) (*PublishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.versions[id]
	if !ok {
		return nil, &NotFoundError{VersionID: id}
	}
	if record.Status != domain.StatusDraft {
		return nil, NewConflictError(id, ErrNotDraft)
	}

	prev := m.currentOf(record.ResourceID)
	if prev != nil && record.VersionNumber <= prev.VersionNumber {
		record.VersionNumber = m.nextNumber(record.ResourceID)
	}
	if prev != nil {
		prev.IsCurrent = false
		prev.EditStatus = domain.EditStatusNone
		prev.PendingDraftID = nil
		prev.SupersededAt = cloneTimePtr(&at)
		prev.UpdatedAt = at
	}

	record.Status = domain.StatusPublished
	record.IsCurrent = true
	record.EditStatus = domain.EditStatusNone
	record.PendingDraftID = nil
	record.PublishedAt = cloneTimePtr(&at)
	record.PublishAt = nil
	record.UpdatedAt = at

	result := &PublishResult{Published: record.Clone()}
	if prev != nil {
		result.Superseded = prev.Clone()
	}
	return result, nil
}

// Unpublish retracts the published current version back to draft. The
// resource is left without a current version and both schedule stamps are
// cleared.
func (m *MemoryRepository) Unpublish(_ context.Context, id uuid.UUID, at time.Time) (*Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.versions[id]
	if !ok {
		return nil, &NotFoundError{VersionID: id}
	}
	if record.EditStatus == domain.EditStatusRevising {
		return nil, NewConflictError(id, ErrRevisionOpen)
	}
	if record.Status != domain.StatusPublished || !record.IsCurrent {
		return nil, NewConflictError(id, ErrNotPublishedCurrent)
	}

	record.Status = domain.StatusDraft
	record.IsCurrent = false
	record.PublishedAt = nil
	record.SupersededAt = nil
	record.PublishAt = nil
	record.UnpublishAt = nil
	record.UpdatedAt = at

	return record.Clone(), nil
}

// Delete removes a version row. The published current version is protected
// unless a replacement is nominated or the caller withdraws the resource.
func (m *MemoryRepository) Delete(_ context.Context, id uuid.UUID, opts DeleteOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.versions[id]
	if !ok {
		return &NotFoundError{VersionID: id}
	}
	for _, rec := range m.versions {
		if rec.PendingDraftID != nil && *rec.PendingDraftID == id {
			return NewConflictError(id, ErrRevisionDraftReferenced)
		}
	}
	if record.EditStatus == domain.EditStatusRevising {
		return NewConflictError(id, ErrRevisionOpen)
	}

	if record.IsCurrent {
		switch {
		case opts.ReplacementID != nil:
			replacement, ok := m.versions[*opts.ReplacementID]
			if !ok || replacement.ID == id || replacement.ResourceID != record.ResourceID ||
				replacement.Status != domain.StatusPublished || replacement.IsCurrent {
				return NewConflictError(id, ErrReplacementInvalid)
			}
			replacement.IsCurrent = true
			replacement.SupersededAt = nil
			replacement.UpdatedAt = m.now()
		case opts.Withdraw:
		default:
			return NewConflictError(id, ErrCurrentVersionProtected)
		}
	}

	delete(m.versions, id)
	return nil
}

// currentOf returns the stored published current row of a resource. Callers
// hold the lock.
func (m *MemoryRepository) currentOf(resourceID uuid.UUID) *Version {
	for _, rec := range m.versions {
		if rec.ResourceID == resourceID && rec.IsCurrent && rec.Status == domain.StatusPublished {
			return rec
		}
	}
	return nil
}

// nextNumber returns one past the highest version number seen for a resource.
// Callers hold the lock.
func (m *MemoryRepository) nextNumber(resourceID uuid.UUID) int {
	next := 1
	for _, rec := range m.versions {
		if rec.ResourceID == resourceID && rec.VersionNumber >= next {
			next = rec.VersionNumber + 1
		}
	}
	return next
}

func hasTag(tags []string, tag string) bool {
	for _, candidate := range tags {
		if candidate == tag {
			return true
		}
	}
	return false
}
