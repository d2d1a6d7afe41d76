package retention_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-knowledge/document"
	idocument "github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/internal/retention"
)

// seedHistory publishes `editions` successive versions of one resource and
// returns its id. The newest edition stays current, the rest are superseded.
func seedHistory(t *testing.T, svc document.Service, editions int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	author := uuid.New()

	draft, err := svc.Create(ctx, document.CreateDocumentRequest{
		Title:     "Release notes",
		Content:   "Edition 1",
		CreatedBy: author,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	published, err := svc.Publish(ctx, document.PublishRequest{VersionID: draft.ID, PublishedBy: author})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	current := published.Published

	for i := 2; i <= editions; i++ {
		revision, err := svc.StartRevision(ctx, document.StartRevisionRequest{VersionID: current.ID, StartedBy: author})
		if err != nil {
			t.Fatalf("StartRevision %d: %v", i, err)
		}
		result, err := svc.Publish(ctx, document.PublishRequest{VersionID: revision.Draft.ID, PublishedBy: author})
		if err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
		current = result.Published
	}
	return current.ResourceID
}

func TestSweepPrunesOldSuperseded(t *testing.T) {
	svc := idocument.NewService(idocument.NewMemoryRepository())
	resourceID := seedHistory(t, svc, 4)

	sweeper := retention.NewSweeper(retention.Config{MaxSuperseded: 1}, svc)
	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Deleted != 2 {
		t.Fatalf("expected 2 pruned versions, got %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected sweep errors: %v", result.Errors)
	}

	versions, err := svc.ListVersions(context.Background(), resourceID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected current plus newest superseded, got %d versions", len(versions))
	}
	if versions[0].VersionNumber != 4 || !versions[0].IsCurrent {
		t.Fatalf("current missing after sweep: %+v", versions[0])
	}
	if versions[1].VersionNumber != 3 || versions[1].IsCurrent {
		t.Fatalf("expected version 3 retained as superseded: %+v", versions[1])
	}
}

func TestSweepDisabledKeepsHistory(t *testing.T) {
	svc := idocument.NewService(idocument.NewMemoryRepository())
	resourceID := seedHistory(t, svc, 3)

	sweeper := retention.NewSweeper(retention.Config{MaxSuperseded: 0}, svc)
	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Deleted != 0 {
		t.Fatalf("disabled sweeper must not delete, got %+v", result)
	}

	versions, err := svc.ListVersions(context.Background(), resourceID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected full history, got %d versions", len(versions))
	}
}

func TestSweepNeverTouchesDraftsOrCurrent(t *testing.T) {
	svc := idocument.NewService(idocument.NewMemoryRepository())
	resourceID := seedHistory(t, svc, 3)
	ctx := context.Background()

	current, err := svc.GetCurrent(ctx, resourceID)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	revision, err := svc.StartRevision(ctx, document.StartRevisionRequest{VersionID: current.ID, StartedBy: uuid.New()})
	if err != nil {
		t.Fatalf("StartRevision: %v", err)
	}

	sweeper := retention.NewSweeper(retention.Config{MaxSuperseded: 1}, svc)
	result, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Deleted != 1 {
		t.Fatalf("expected one pruned version, got %+v", result)
	}

	versions, err := svc.ListVersions(ctx, resourceID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}

	var sawDraft, sawCurrent bool
	for _, version := range versions {
		if version.ID == revision.Draft.ID {
			sawDraft = true
		}
		if version.ID == current.ID {
			sawCurrent = true
			if !version.IsCurrent || version.EditStatus != domain.EditStatusRevising {
				t.Fatalf("current lost its revising state: %+v", version)
			}
		}
	}
	if !sawDraft || !sawCurrent {
		t.Fatalf("sweep removed protected versions: draft=%v current=%v", sawDraft, sawCurrent)
	}
}

func TestStartRequiresSchedule(t *testing.T) {
	svc := idocument.NewService(idocument.NewMemoryRepository())

	sweeper := retention.NewSweeper(retention.Config{MaxSuperseded: 2}, svc)
	if err := sweeper.Start(); err != retention.ErrScheduleRequired {
		t.Fatalf("expected ErrScheduleRequired, got %v", err)
	}

	disabled := retention.NewSweeper(retention.Config{}, svc)
	if err := disabled.Start(); err != nil {
		t.Fatalf("disabled sweeper Start should be a no-op, got %v", err)
	}
}

func TestStartAndStopScheduledSweeps(t *testing.T) {
	svc := idocument.NewService(idocument.NewMemoryRepository())

	sweeper := retention.NewSweeper(retention.Config{MaxSuperseded: 1, Schedule: "@hourly"}, svc)
	if err := sweeper.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Second start is idempotent.
	if err := sweeper.Start(); err != nil {
		t.Fatalf("re-Start: %v", err)
	}
	sweeper.Stop()
}
