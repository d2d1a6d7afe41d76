package jobs_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/jobs"
	kscheduler "github.com/goliatone/go-knowledge/internal/scheduler"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

func newScheduledService(t *testing.T, now time.Time, sched interfaces.Scheduler) document.Service {
	t.Helper()
	return document.NewService(document.NewMemoryRepository(),
		document.WithClock(func() time.Time { return now }),
		document.WithScheduler(sched),
		document.WithSchedulingEnabled(true),
	)
}

func newDraft(t *testing.T, svc document.Service) *document.Version {
	t.Helper()
	record, err := svc.Create(context.Background(), document.CreateDocumentRequest{
		Title:     "Scheduled release",
		Content:   "body",
		CreatedBy: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	return record
}

func TestWorkerProcessDocumentPublish(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	sched := kscheduler.NewInMemory()
	svc := newScheduledService(t, now, sched)
	audit := jobs.NewInMemoryAuditRecorder()
	worker := jobs.NewWorker(sched, svc, jobs.WithAuditRecorder(audit), jobs.WithClock(func() time.Time { return now }))

	record := newDraft(t, svc)
	userID := uuid.New()
	publishAt := now.Add(-time.Minute)
	if _, err := svc.Schedule(ctx, document.ScheduleRequest{
		VersionID:   record.ID,
		PublishAt:   &publishAt,
		ScheduledBy: userID,
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	published, err := svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !published.IsCurrent || published.PublishedAt == nil {
		t.Fatalf("expected published current got %+v", published)
	}
	if published.PublishAt != nil {
		t.Fatal("expected publish stamp consumed")
	}

	job, err := sched.GetByKey(ctx, kscheduler.DocumentPublishJobKey(record.ID))
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected job completed got %s", job.Status)
	}

	events := audit.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event got %d", len(events))
	}
	if events[0].Action != "publish" || events[0].EntityID != record.ID.String() {
		t.Fatalf("unexpected audit event %+v", events[0])
	}
	if events[0].Metadata["version_number"] != 1 {
		t.Fatalf("expected version number metadata got %v", events[0].Metadata["version_number"])
	}
	if events[0].Metadata["scheduled_by"] != userID.String() {
		t.Fatalf("expected scheduled_by metadata got %v", events[0].Metadata["scheduled_by"])
	}
}

func TestWorkerProcessDocumentUnpublish(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	sched := kscheduler.NewInMemory()
	svc := newScheduledService(t, now, sched)
	audit := jobs.NewInMemoryAuditRecorder()
	worker := jobs.NewWorker(sched, svc, jobs.WithAuditRecorder(audit), jobs.WithClock(func() time.Time { return now }))

	record := newDraft(t, svc)
	if _, err := svc.Publish(ctx, document.PublishRequest{VersionID: record.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	unpublishAt := now.Add(-time.Minute)
	if _, err := svc.Schedule(ctx, document.ScheduleRequest{
		VersionID:   record.ID,
		UnpublishAt: &unpublishAt,
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	retracted, err := svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if retracted.IsCurrent || retracted.PublishedAt != nil {
		t.Fatalf("expected retracted draft got %+v", retracted)
	}
	if _, err := svc.GetCurrent(ctx, record.ResourceID); !document.IsNotFound(err) {
		t.Fatalf("expected no current version got %v", err)
	}

	job, err := sched.GetByKey(ctx, kscheduler.DocumentUnpublishJobKey(record.ID))
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected job completed got %s", job.Status)
	}

	events := audit.Events()
	if len(events) != 1 || events[0].Action != "unpublish" {
		t.Fatalf("expected unpublish audit got %+v", events)
	}
}

func TestWorkerSkipsMootPublish(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC)
	sched := kscheduler.NewInMemory()
	svc := newScheduledService(t, now, sched)
	audit := jobs.NewInMemoryAuditRecorder()
	worker := jobs.NewWorker(sched, svc, jobs.WithAuditRecorder(audit), jobs.WithClock(func() time.Time { return now }))

	record := newDraft(t, svc)
	publishAt := now.Add(-time.Minute)
	if _, err := svc.Schedule(ctx, document.ScheduleRequest{
		VersionID: record.ID,
		PublishAt: &publishAt,
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// The author publishes by hand before the job fires.
	if _, err := svc.Publish(ctx, document.PublishRequest{VersionID: record.ID}); err != nil {
		t.Fatalf("manual publish: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	job, err := sched.GetByKey(ctx, kscheduler.DocumentPublishJobKey(record.ID))
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != interfaces.JobStatusCompleted {
		t.Fatalf("moot job must complete, got %s", job.Status)
	}

	events := audit.Events()
	if len(events) != 1 || events[0].Action != "publish_skipped" {
		t.Fatalf("expected skip audit got %+v", events)
	}
	if events[0].Metadata["reason"] == "" {
		t.Fatal("expected skip reason recorded")
	}
}

func TestWorkerRetriesBlockedUnpublish(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	sched := kscheduler.NewInMemory()
	svc := newScheduledService(t, now, sched)
	audit := jobs.NewInMemoryAuditRecorder()
	worker := jobs.NewWorker(sched, svc, jobs.WithAuditRecorder(audit), jobs.WithClock(func() time.Time { return now }))

	record := newDraft(t, svc)
	if _, err := svc.Publish(ctx, document.PublishRequest{VersionID: record.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	unpublishAt := now.Add(-time.Minute)
	if _, err := svc.Schedule(ctx, document.ScheduleRequest{
		VersionID:   record.ID,
		UnpublishAt: &unpublishAt,
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := svc.StartRevision(ctx, document.StartRevisionRequest{VersionID: record.ID}); err != nil {
		t.Fatalf("start revision: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	// The open revision blocks the retraction; the job stays queued for a
	// retry after the revision resolves.
	job, err := sched.GetByKey(ctx, kscheduler.DocumentUnpublishJobKey(record.ID))
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != interfaces.JobStatusPending || job.Attempt != 1 {
		t.Fatalf("expected pending retry got %s attempt %d", job.Status, job.Attempt)
	}
	if job.LastError == "" {
		t.Fatal("expected failure recorded on the job")
	}

	if len(audit.Events()) != 0 {
		t.Fatalf("expected no audit events got %d", len(audit.Events()))
	}

	still, err := svc.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !still.IsCurrent {
		t.Fatal("blocked unpublish must leave the version current")
	}
}

func TestWorkerAuditFailureDoesNotFailJob(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)
	sched := kscheduler.NewInMemory()
	svc := newScheduledService(t, now, sched)
	audit := jobs.NewInMemoryAuditRecorder()
	audit.Fail(errors.New("audit sink down"))
	worker := jobs.NewWorker(sched, svc, jobs.WithAuditRecorder(audit), jobs.WithClock(func() time.Time { return now }))

	record := newDraft(t, svc)
	publishAt := now.Add(-time.Minute)
	if _, err := svc.Schedule(ctx, document.ScheduleRequest{
		VersionID: record.ID,
		PublishAt: &publishAt,
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	job, err := sched.GetByKey(ctx, kscheduler.DocumentPublishJobKey(record.ID))
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != interfaces.JobStatusCompleted {
		t.Fatalf("audit failure must not fail the job, got %s", job.Status)
	}
}

func TestWorkerFailsMalformedPayload(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 6, 10, 0, 0, 0, time.UTC)
	sched := kscheduler.NewInMemory()
	svc := newScheduledService(t, now, sched)
	worker := jobs.NewWorker(sched, svc, jobs.WithClock(func() time.Time { return now }))

	enqueued, err := sched.Enqueue(ctx, interfaces.JobSpec{
		Key:     "document:broken:publish",
		Type:    kscheduler.JobTypeDocumentPublish,
		RunAt:   now.Add(-time.Minute),
		Payload: map[string]any{"scheduled_by": uuid.New().String()},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	job, err := sched.Get(ctx, enqueued.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != interfaces.JobStatusPending || job.Attempt != 1 {
		t.Fatalf("expected failed attempt got %s attempt %d", job.Status, job.Attempt)
	}
	if !strings.Contains(job.LastError, "payload missing version_id") {
		t.Fatalf("expected payload error got %q", job.LastError)
	}
}
