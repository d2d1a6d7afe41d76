package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-knowledge/internal/document"
	kscheduler "github.com/goliatone/go-knowledge/internal/scheduler"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// DocumentService is the slice of the lifecycle service the worker drives.
// Scheduled transitions run through the service so they obey exactly the
// rules manual ones do.
type DocumentService interface {
	Publish(ctx context.Context, req document.PublishRequest) (*document.PublishResult, error)
	Unpublish(ctx context.Context, req document.UnpublishRequest) (*document.Version, error)
}

// Worker drains due scheduler jobs and applies document transitions.
type Worker struct {
	scheduler interfaces.Scheduler
	documents DocumentService
	audit     AuditRecorder
	now       func() time.Time
	batchSize int
}

type Option func(*Worker)

func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(w *Worker) {
		w.audit = recorder
	}
}

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func NewWorker(scheduler interfaces.Scheduler, documents DocumentService, opts ...Option) *Worker {
	w := &Worker{
		scheduler: scheduler,
		documents: documents,
		now:       time.Now,
		batchSize: 50,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Process drains one batch of due jobs. Failed jobs are handed back to the
// scheduler for retry accounting; everything else is marked done.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}
	deadline := w.now()
	jobs, err := w.scheduler.ListDue(ctx, deadline, w.batchSize)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := w.handleJob(ctx, job, deadline); err != nil {
			_ = w.scheduler.MarkFailed(ctx, job.ID, err)
			continue
		}
		_ = w.scheduler.MarkDone(ctx, job.ID)
	}
	return nil
}

func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job, now time.Time) error {
	switch job.Type {
	case kscheduler.JobTypeDocumentPublish:
		return w.processPublish(ctx, job, now)
	case kscheduler.JobTypeDocumentUnpublish:
		return w.processUnpublish(ctx, job, now)
	default:
		return nil
	}
}

func (w *Worker) processPublish(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.documents == nil {
		return errors.New("jobs: document service is nil")
	}
	id, triggeredBy, err := parseJobIdentifiers(job.Payload, "version_id")
	if err != nil {
		return err
	}

	req := document.PublishRequest{VersionID: id}
	if triggeredBy != nil {
		req.PublishedBy = *triggeredBy
	}

	result, err := w.documents.Publish(ctx, req)
	switch {
	case err == nil:
		meta := buildAuditMetadata(job, triggeredBy)
		meta["version_number"] = result.Published.VersionNumber
		if result.Superseded != nil {
			meta["superseded_id"] = result.Superseded.ID.String()
		}
		w.recordAudit(ctx, AuditEvent{
			EntityType: "document",
			EntityID:   id.String(),
			Action:     "publish",
			OccurredAt: now,
			Metadata:   meta,
		})
		return nil
	case publishMoot(err):
		// The version moved on since the job was scheduled: published by
		// hand, superseded, or deleted. There is nothing left to apply.
		w.recordSkip(ctx, job, id, "publish_skipped", triggeredBy, err)
		return nil
	default:
		return err
	}
}

func (w *Worker) processUnpublish(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.documents == nil {
		return errors.New("jobs: document service is nil")
	}
	id, triggeredBy, err := parseJobIdentifiers(job.Payload, "version_id")
	if err != nil {
		return err
	}

	req := document.UnpublishRequest{VersionID: id}
	if triggeredBy != nil {
		req.UnpublishedBy = *triggeredBy
	}

	record, err := w.documents.Unpublish(ctx, req)
	switch {
	case err == nil:
		meta := buildAuditMetadata(job, triggeredBy)
		meta["version_number"] = record.VersionNumber
		w.recordAudit(ctx, AuditEvent{
			EntityType: "document",
			EntityID:   id.String(),
			Action:     "unpublish",
			OccurredAt: now,
			Metadata:   meta,
		})
		return nil
	case unpublishMoot(err):
		w.recordSkip(ctx, job, id, "unpublish_skipped", triggeredBy, err)
		return nil
	default:
		// An open revision keeps the failure visible so the scheduler
		// retries after the revision resolves.
		return err
	}
}

// publishMoot reports conflicts that mean the scheduled publish has nothing
// left to do.
func publishMoot(err error) bool {
	return errors.Is(err, document.ErrNotDraft) || document.IsNotFound(err)
}

// unpublishMoot reports conflicts that mean the scheduled unpublish has
// nothing left to do.
func unpublishMoot(err error) bool {
	return errors.Is(err, document.ErrNotPublishedCurrent) || document.IsNotFound(err)
}

func (w *Worker) recordSkip(ctx context.Context, job *interfaces.Job, id uuid.UUID, action string, triggeredBy *uuid.UUID, cause error) {
	meta := buildAuditMetadata(job, triggeredBy)
	meta["reason"] = cause.Error()
	w.recordAudit(ctx, AuditEvent{
		EntityType: "document",
		EntityID:   id.String(),
		Action:     action,
		OccurredAt: w.now(),
		Metadata:   meta,
	})
}

func (w *Worker) recordAudit(ctx context.Context, event AuditEvent) {
	if w.audit == nil {
		return
	}
	_ = w.audit.Record(ctx, event)
}

func parseJobIdentifiers(payload map[string]any, key string) (uuid.UUID, *uuid.UUID, error) {
	if payload == nil {
		return uuid.Nil, nil, fmt.Errorf("jobs: missing payload")
	}
	rawID, ok := payload[key]
	if !ok {
		return uuid.Nil, nil, fmt.Errorf("jobs: payload missing %s", key)
	}
	idStr, ok := rawID.(string)
	if !ok {
		return uuid.Nil, nil, fmt.Errorf("jobs: invalid %s payload", key)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, nil, err
	}
	var triggeredBy *uuid.UUID
	if rawScheduledBy, ok := payload["scheduled_by"]; ok {
		if str, ok := rawScheduledBy.(string); ok {
			if parsed, err := uuid.Parse(str); err == nil {
				triggeredBy = &parsed
			}
		}
	}
	return id, triggeredBy, nil
}

func buildAuditMetadata(job *interfaces.Job, triggeredBy *uuid.UUID) map[string]any {
	meta := map[string]any{
		"job_id":   job.ID,
		"job_type": job.Type,
		"run_at":   job.RunAt,
		"attempt":  job.Attempt,
	}
	if triggeredBy != nil {
		meta["scheduled_by"] = triggeredBy.String()
	}
	return meta
}
