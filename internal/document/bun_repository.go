package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-knowledge/internal/domain"
)

const versionNamespace = "version"

// editableColumns is the set Update is allowed to touch. Lifecycle columns
// only change through Publish, Unpublish, and Delete.
var editableColumns = []string{
	"title", "summary", "slug", "tags", "content",
	"fault_scenario", "trigger_process", "solution", "verification", "recovery",
	"source_checksum",
	"edit_status", "pending_draft_id", "publish_at", "unpublish_at",
	"updated_by", "updated_at",
}

// BunRepository persists document versions through bun. Reads go through the
// generic repository so they can be cache-wrapped; transitions run in
// transactions and invalidate the cache afterwards.
type BunRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Version]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
}

// NewBunRepository creates a version store without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a version store with read-through caching.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewVersionRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = versionNamespace + cache.KeySeparator
	}
	return &BunRepository{
		db:           db,
		repo:         base,
		cacheService: svc,
		cachePrefix:  prefix,
		now:          time.Now,
	}
}

var _ Repository = (*BunRepository)(nil)

// Create inserts a draft and assigns its version number.
func (r *BunRepository) Create(ctx context.Context, version *Version) (*Version, error) {
	if version == nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}
	if version.ResourceID == uuid.Nil {
		return nil, NewValidationError(ErrResourceIDRequired)
	}

	copied := version.Clone()
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
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

	now := r.now()
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = now
	}
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = now
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if copied.VersionNumber == 0 {
			next, err := nextVersionNumber(ctx, tx, copied.ResourceID)
			if err != nil {
				return err
			}
			copied.VersionNumber = next
		}
		if _, err := tx.NewInsert().Model(copied).Exec(ctx); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx)
	return copied, nil
}

// Update applies the editable fields of a version. The incoming UpdatedAt is
// the optimistic token; a mismatch with the stored row is a stale conflict.
func (r *BunRepository) Update(ctx context.Context, version *Version) (*Version, error) {
	if version == nil || version.ID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}

	var updated *Version
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stored, err := loadVersion(ctx, tx, version.ID)
		if err != nil {
			return err
		}
		if !version.UpdatedAt.Equal(stored.UpdatedAt) {
			return NewConflictError(version.ID, ErrStaleVersion)
		}
		if stored.PendingDraftID != nil && version.PendingDraftID != nil && *stored.PendingDraftID != *version.PendingDraftID {
			return NewConflictError(version.ID, ErrRevisionOpen)
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
		stored.UpdatedAt = r.now()

		if _, err := tx.NewUpdate().Model(stored).
			Column(editableColumns...).
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
		updated = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx)
	return updated, nil
}

// GetByID retrieves a version by identifier.
func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Version, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, ref{versionID: id})
	}
	return record, nil
}

// GetCurrent retrieves the published current version of a resource.
func (r *BunRepository) GetCurrent(ctx context.Context, resourceID uuid.UUID) (*Version, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.resource_id = ?", resourceID).
				Where("?TableAlias.is_current = ?", true).
				Where("?TableAlias.status = ?", domain.StatusPublished)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, ref{resourceID: resourceID})
	}
	if len(records) == 0 {
		return nil, &NotFoundError{ResourceID: resourceID}
	}
	return records[0], nil
}

// ListByResource returns every version of a resource, highest number first.
func (r *BunRepository) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*Version, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.resource_id = ?", resourceID).
				OrderExpr("?TableAlias.version_number DESC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, ref{resourceID: resourceID})
	}
	return records, nil
}

// ListPublished returns current published versions, newest publish first. The
// tag filter is applied after the scan; tags live in a JSON column.
func (r *BunRepository) ListPublished(ctx context.Context, opts ListPublishedOptions) ([]*Version, error) {
	tagFilter := opts.Tag != ""
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.is_current = ?", true).
				Where("?TableAlias.status = ?", domain.StatusPublished).
				OrderExpr("?TableAlias.published_at DESC")
			if opts.Kind != nil {
				q = q.Where("?TableAlias.kind = ?", *opts.Kind)
			}
			if !tagFilter {
				if opts.Limit > 0 {
					q = q.Limit(opts.Limit)
				}
				if opts.Offset > 0 {
					q = q.Offset(opts.Offset)
				}
			}
			return q
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, ref{})
	}
	if !tagFilter {
		return records, nil
	}

	filtered := make([]*Version, 0, len(records))
	for _, record := range records {
		if hasTag(record.Tags, opts.Tag) {
			filtered = append(filtered, record)
		}
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(filtered) {
			return []*Version{}, nil
		}
		filtered = filtered[opts.Offset:]
	}
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

// Publish promotes a draft to published current, superseding the previous
// current version of the same resource in one transaction.
func (r *BunRepository) Publish(ctx context.Context, id uuid.UUID, at time.Time) (*PublishResult, error) {
	var result *PublishResult
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := loadVersion(ctx, tx, id)
		if err != nil {
			return err
		}
		if record.Status != domain.StatusDraft {
			return NewConflictError(id, ErrNotDraft)
		}

		prev, err := loadCurrent(ctx, tx, record.ResourceID)
		if err != nil {
			return err
		}
		if prev != nil && record.VersionNumber <= prev.VersionNumber {
			next, err := nextVersionNumber(ctx, tx, record.ResourceID)
			if err != nil {
				return err
			}
			record.VersionNumber = next
		}
		if prev != nil {
			prev.IsCurrent = false
			prev.EditStatus = domain.EditStatusNone
			prev.PendingDraftID = nil
			prev.SupersededAt = cloneTimePtr(&at)
			prev.UpdatedAt = at
			if _, err := tx.NewUpdate().Model(prev).
				Column("is_current", "edit_status", "pending_draft_id", "superseded_at", "updated_at").
				WherePK().
				Exec(ctx); err != nil {
				return fmt.Errorf("supersede version: %w", err)
			}
		}

		record.Status = domain.StatusPublished
		record.IsCurrent = true
		record.EditStatus = domain.EditStatusNone
		record.PendingDraftID = nil
		record.PublishedAt = cloneTimePtr(&at)
		record.PublishAt = nil
		record.UpdatedAt = at
		if _, err := tx.NewUpdate().Model(record).
			Column("status", "is_current", "edit_status", "pending_draft_id", "version_number", "published_at", "publish_at", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("publish version: %w", err)
		}

		result = &PublishResult{Published: record, Superseded: prev}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx)
	return result, nil
}

// Unpublish retracts the published current version back to draft.
func (r *BunRepository) Unpublish(ctx context.Context, id uuid.UUID, at time.Time) (*Version, error) {
	var updated *Version
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := loadVersion(ctx, tx, id)
		if err != nil {
			return err
		}
		if record.EditStatus == domain.EditStatusRevising {
			return NewConflictError(id, ErrRevisionOpen)
		}
		if record.Status != domain.StatusPublished || !record.IsCurrent {
			return NewConflictError(id, ErrNotPublishedCurrent)
		}

		record.Status = domain.StatusDraft
		record.IsCurrent = false
		record.PublishedAt = nil
		record.SupersededAt = nil
		record.PublishAt = nil
		record.UnpublishAt = nil
		record.UpdatedAt = at
		if _, err := tx.NewUpdate().Model(record).
			Column("status", "is_current", "published_at", "superseded_at", "publish_at", "unpublish_at", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("unpublish version: %w", err)
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx)
	return updated, nil
}

// Delete removes a version row, promoting a nominated replacement when the
// target is the published current version.
func (r *BunRepository) Delete(ctx context.Context, id uuid.UUID, opts DeleteOptions) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := loadVersion(ctx, tx, id)
		if err != nil {
			return err
		}

		referenced, err := tx.NewSelect().
			Model((*Version)(nil)).
			Where("?TableAlias.pending_draft_id = ?", id).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check revision references: %w", err)
		}
		if referenced {
			return NewConflictError(id, ErrRevisionDraftReferenced)
		}
		if record.EditStatus == domain.EditStatusRevising {
			return NewConflictError(id, ErrRevisionOpen)
		}

		if record.IsCurrent {
			switch {
			case opts.ReplacementID != nil:
				replacement, err := loadVersion(ctx, tx, *opts.ReplacementID)
				if err != nil {
					if IsNotFound(err) {
						return NewConflictError(id, ErrReplacementInvalid)
					}
					return err
				}
				if replacement.ID == id || replacement.ResourceID != record.ResourceID ||
					replacement.Status != domain.StatusPublished || replacement.IsCurrent {
					return NewConflictError(id, ErrReplacementInvalid)
				}
				replacement.IsCurrent = true
				replacement.SupersededAt = nil
				replacement.UpdatedAt = r.now()
				if _, err := tx.NewUpdate().Model(replacement).
					Column("is_current", "superseded_at", "updated_at").
					WherePK().
					Exec(ctx); err != nil {
					return fmt.Errorf("promote replacement: %w", err)
				}
			case opts.Withdraw:
			default:
				return NewConflictError(id, ErrCurrentVersionProtected)
			}
		}

		if _, err := tx.NewDelete().
			Model((*Version)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete version: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx)
	return nil
}

// InvalidateCache drops every cached read for version rows.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func (r *BunRepository) invalidate(ctx context.Context) {
	_ = r.InvalidateCache(ctx)
}

func loadVersion(ctx context.Context, tx bun.Tx, id uuid.UUID) (*Version, error) {
	record := new(Version)
	if err := tx.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{VersionID: id}
		}
		return nil, fmt.Errorf("load version: %w", err)
	}
	return record, nil
}

// loadCurrent returns the published current row of a resource, or nil when
// the resource has none.
func loadCurrent(ctx context.Context, tx bun.Tx, resourceID uuid.UUID) (*Version, error) {
	record := new(Version)
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.resource_id = ?", resourceID).
		Where("?TableAlias.is_current = ?", true).
		Where("?TableAlias.status = ?", domain.StatusPublished).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load current version: %w", err)
	}
	return record, nil
}

func nextVersionNumber(ctx context.Context, tx bun.Tx, resourceID uuid.UUID) (int, error) {
	var next int
	err := tx.NewSelect().
		Model((*Version)(nil)).
		ColumnExpr("COALESCE(MAX(?TableAlias.version_number), 0) + 1").
		Where("?TableAlias.resource_id = ?", resourceID).
		Scan(ctx, &next)
	if err != nil {
		return 0, fmt.Errorf("next version number: %w", err)
	}
	return next, nil
}

func mapRepositoryError(err error, about ref) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{VersionID: about.versionID, ResourceID: about.resourceID}
	}
	return fmt.Errorf("version repository error: %w", err)
}
