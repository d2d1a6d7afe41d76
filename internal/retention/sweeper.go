package retention

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	cron "github.com/robfig/cron"

	"github.com/goliatone/go-knowledge/document"
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/internal/logging"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// ErrDocumentsRequired indicates the sweeper has no document source.
var ErrDocumentsRequired = errors.New("retention: document service is required")

// ErrScheduleRequired indicates Start was called without a cron spec.
var ErrScheduleRequired = errors.New("retention: schedule spec is required")

const defaultBatch = 200

// Config bounds how much published history each resource keeps.
type Config struct {
	// MaxSuperseded is the number of superseded versions a resource may
	// retain. Zero keeps full history and disables the sweeper.
	MaxSuperseded int
	// Schedule is a robfig/cron spec controlling automatic sweeps.
	Schedule string
}

// DocumentSource is the slice of the lifecycle service the sweeper works
// through. Pruning runs through the service so deletions obey exactly the
// guards manual ones do: drafts, the current version, and revision-referenced
// versions are never deletable here.
type DocumentSource interface {
	ListPublished(ctx context.Context, opts document.ListPublishedOptions) ([]*document.Version, error)
	ListVersions(ctx context.Context, resourceID uuid.UUID) ([]*document.Version, error)
	Delete(ctx context.Context, req document.DeleteVersionRequest) error
}

// Result reports one sweep run.
type Result struct {
	ResourcesSwept int
	Deleted        int
	Errors         []error
}

// Option customizes a Sweeper.
type Option func(*Sweeper)

// WithLogger attaches a logger for sweep reporting.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActor records deletions under the given actor identity.
func WithActor(actor uuid.UUID) Option {
	return func(s *Sweeper) {
		s.actor = actor
	}
}

// WithBatchSize bounds each published listing page.
func WithBatchSize(size int) Option {
	return func(s *Sweeper) {
		if size > 0 {
			s.batch = size
		}
	}
}

// Sweeper prunes superseded versions beyond the retention limit. Resources
// are discovered through the published listing; a withdrawn resource keeps
// its full history.
type Sweeper struct {
	documents DocumentSource
	cfg       Config
	logger    interfaces.Logger
	actor     uuid.UUID
	batch     int
	cron      *cron.Cron
}

// NewSweeper builds a sweeper over the supplied document source.
func NewSweeper(cfg Config, documents DocumentSource, opts ...Option) *Sweeper {
	s := &Sweeper{
		documents: documents,
		cfg:       cfg,
		logger:    logging.NoOp(),
		batch:     defaultBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether the configured limit prunes anything at all.
func (s *Sweeper) Enabled() bool {
	return s.cfg.MaxSuperseded > 0
}

// Start schedules automatic sweeps. A disabled sweeper starts nothing and
// returns nil so callers can wire it unconditionally.
func (s *Sweeper) Start() error {
	if !s.Enabled() {
		return nil
	}
	if s.documents == nil {
		return ErrDocumentsRequired
	}
	if strings.TrimSpace(s.cfg.Schedule) == "" {
		return ErrScheduleRequired
	}
	if s.cron != nil {
		return nil
	}

	runner := cron.New()
	err := runner.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("retention sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("retention: schedule %q: %w", s.cfg.Schedule, err)
	}
	runner.Start()
	s.cron = runner
	s.logger.Info("retention sweeper started", "schedule", s.cfg.Schedule, "max_superseded", s.cfg.MaxSuperseded)
	return nil
}

// Stop halts scheduled sweeps. In-flight sweeps finish on their own.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

// Sweep prunes every resource with a published current version once. Errors
// on one resource are recorded and the sweep continues.
func (s *Sweeper) Sweep(ctx context.Context) (*Result, error) {
	result := &Result{}
	if !s.Enabled() {
		return result, nil
	}
	if s.documents == nil {
		return nil, ErrDocumentsRequired
	}

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		page, err := s.documents.ListPublished(ctx, document.ListPublishedOptions{
			Limit:  s.batch,
			Offset: offset,
		})
		if err != nil {
			return result, fmt.Errorf("retention: list published: %w", err)
		}
		for _, current := range page {
			deleted, err := s.sweepResource(ctx, current.ResourceID)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("retention: resource %s: %w", current.ResourceID, err))
				continue
			}
			result.ResourcesSwept++
			result.Deleted += deleted
		}
		if len(page) < s.batch {
			break
		}
		offset += s.batch
	}

	if result.Deleted > 0 {
		s.logger.Info("retention sweep pruned versions", "resources", result.ResourcesSwept, "deleted", result.Deleted)
	}
	return result, nil
}

func (s *Sweeper) sweepResource(ctx context.Context, resourceID uuid.UUID) (int, error) {
	versions, err := s.documents.ListVersions(ctx, resourceID)
	if err != nil {
		return 0, err
	}

	prunable := prunableVersions(versions, s.cfg.MaxSuperseded)
	deleted := 0
	for _, version := range prunable {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if err := s.documents.Delete(ctx, document.DeleteVersionRequest{
			VersionID: version.ID,
			DeletedBy: s.actor,
		}); err != nil {
			return deleted, err
		}
		deleted++
		s.logger.Debug("pruned superseded version",
			"resource_id", resourceID,
			"version_id", version.ID,
			"version", version.VersionNumber,
		)
	}
	return deleted, nil
}

// prunableVersions picks superseded versions beyond the newest max. Drafts,
// the current version, and anything referenced as a pending revision draft
// never qualify.
func prunableVersions(versions []*document.Version, max int) []*document.Version {
	referenced := map[uuid.UUID]bool{}
	for _, version := range versions {
		if version != nil && version.PendingDraftID != nil {
			referenced[*version.PendingDraftID] = true
		}
	}

	superseded := make([]*document.Version, 0, len(versions))
	for _, version := range versions {
		if version == nil {
			continue
		}
		if version.Status != domain.StatusPublished || version.IsCurrent {
			continue
		}
		if referenced[version.ID] {
			continue
		}
		superseded = append(superseded, version)
	}
	if len(superseded) <= max {
		return nil
	}

	sort.SliceStable(superseded, func(i, j int) bool {
		return superseded[i].VersionNumber > superseded[j].VersionNumber
	})
	return superseded[max:]
}
