package knowledge_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-knowledge"
	"github.com/goliatone/go-knowledge/document"
	"github.com/goliatone/go-knowledge/domain"
	"github.com/goliatone/go-knowledge/internal/di"
	"github.com/goliatone/go-knowledge/internal/export"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/goliatone/go-knowledge/pkg/testsupport"
)

func TestModule_LifecycleWithBunAndCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)
	if _, err := bunDB.NewCreateTable().Model((*document.Version)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("create table: %v", err)
	}

	cfg := knowledge.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.DefaultTTL = 50 * time.Millisecond
	cfg.Features.Scheduling = true
	cfg.Features.Markdown = true
	cfg.Markdown.Enabled = true
	cfg.Features.Export = true
	cfg.Export.Enabled = true
	cfg.Export.BaseURL = "https://kb.example.com"

	contentFS := fstest.MapFS{
		"guides/incident-response.md": &fstest.MapFile{
			Data: []byte("---\ntitle: Incident Response\nslug: incident-response\n---\n\n# Incident Response\n\nPage the on-call engineer first.\n"),
		},
	}
	writer := export.NewMemoryWriter()

	module, err := knowledge.New(cfg,
		di.WithBunDB(bunDB),
		di.WithMarkdownFS(contentFS),
		di.WithExportWriter(writer),
	)
	if err != nil {
		t.Fatalf("new knowledge module: %v", err)
	}

	docs := module.Documents()
	authorID := uuid.New()

	created, err := docs.Create(ctx, document.CreateDocumentRequest{
		Kind:      domain.KindStandard,
		Title:     "Deploy Checklist",
		Slug:      "deploy-checklist",
		Content:   "# Deploy Checklist\n\nRun the smoke tests.",
		CreatedBy: authorID,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if created.VersionNumber != 1 {
		t.Fatalf("expected version number 1, got %d", created.VersionNumber)
	}
	if got := created.State(); got != domain.StateDraft {
		t.Fatalf("expected draft state, got %s", got)
	}

	saved, err := docs.Save(ctx, document.SaveDraftRequest{
		VersionID: created.ID,
		Title:     "Deploy Checklist",
		Summary:   "Pre-flight steps for production deploys.",
		Slug:      "deploy-checklist",
		Content:   "# Deploy Checklist\n\nRun the smoke tests, then watch the dashboards.",
		UpdatedBy: authorID,
	})
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}

	published, err := docs.Publish(ctx, document.PublishRequest{
		VersionID:   saved.ID,
		PublishedBy: authorID,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Published == nil || published.Published.Status != domain.StatusPublished {
		t.Fatalf("expected published current version, got %+v", published.Published)
	}
	if published.Superseded != nil {
		t.Fatalf("first publish should not supersede anything")
	}

	revision, err := docs.StartRevision(ctx, document.StartRevisionRequest{
		VersionID: published.Published.ID,
		StartedBy: authorID,
	})
	if err != nil {
		t.Fatalf("start revision: %v", err)
	}
	if got := revision.Current.State(); got != domain.StatePublishedCurrentRevising {
		t.Fatalf("expected revising state on current, got %s", got)
	}
	if revision.Draft.VersionNumber != 2 {
		t.Fatalf("expected revision draft number 2, got %d", revision.Draft.VersionNumber)
	}

	if _, err := docs.Save(ctx, document.SaveDraftRequest{
		VersionID: revision.Draft.ID,
		Title:     "Deploy Checklist",
		Summary:   "Pre-flight steps for production deploys.",
		Slug:      "deploy-checklist",
		Content:   "# Deploy Checklist\n\nRun the smoke tests, watch the dashboards, announce in the deploy channel.",
		UpdatedBy: authorID,
	}); err != nil {
		t.Fatalf("save revision draft: %v", err)
	}

	replaced, err := docs.Publish(ctx, document.PublishRequest{
		VersionID:   revision.Draft.ID,
		PublishedBy: authorID,
	})
	if err != nil {
		t.Fatalf("publish revision: %v", err)
	}
	if replaced.Superseded == nil || replaced.Superseded.ID != published.Published.ID {
		t.Fatalf("expected version 1 to be superseded")
	}

	current, err := docs.GetCurrent(ctx, created.ResourceID)
	if err != nil {
		t.Fatalf("get current: %v", err)
	}
	if current.VersionNumber != 2 {
		t.Fatalf("expected current version number 2, got %d", current.VersionNumber)
	}

	preview, err := docs.Preview(ctx, document.PreviewRequest{VersionID: current.ID})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(preview.Markup, "<h1") {
		t.Fatalf("expected rendered heading in preview markup, got %q", preview.Markup)
	}
	if len(preview.Outline) == 0 || preview.Outline[0].Text != "Deploy Checklist" {
		t.Fatalf("unexpected preview outline: %+v", preview.Outline)
	}

	importer := module.Importer()
	if importer == nil {
		t.Fatalf("expected markdown importer to be configured")
	}
	report, err := importer.ImportDirectory(ctx, ".", interfaces.ImportOptions{
		AuthorID: authorID,
		Publish:  true,
	})
	if err != nil {
		t.Fatalf("import directory: %v", err)
	}
	if len(report.CreatedResourceIDs) != 1 {
		t.Fatalf("expected one imported document, got %+v", report)
	}

	result, err := module.Exporter().Export(ctx, export.Options{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Exported != 2 {
		t.Fatalf("expected two exported pages, got %d", result.Exported)
	}
	if _, ok := writer.File("index.html"); !ok {
		t.Fatalf("expected index.html artifact, wrote %v", writer.Paths())
	}
	for _, page := range result.Pages {
		if !strings.HasPrefix(page.URL, "https://kb.example.com/kb/") {
			t.Fatalf("unexpected page URL %q", page.URL)
		}
	}

	if module.Scheduler() == nil {
		t.Fatalf("expected scheduler when scheduling feature is enabled")
	}
	if module.Worker() == nil {
		t.Fatalf("expected transition worker when scheduling feature is enabled")
	}

	unpublished, err := docs.Unpublish(ctx, document.UnpublishRequest{
		VersionID:     current.ID,
		UnpublishedBy: authorID,
	})
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if got := unpublished.State(); got != domain.StateDraft {
		t.Fatalf("expected draft after unpublish, got %s", got)
	}
}

func TestModule_EmergencyRunbookFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	module, err := knowledge.New(knowledge.DefaultConfig())
	if err != nil {
		t.Fatalf("new knowledge module: %v", err)
	}

	docs := module.Documents()
	authorID := uuid.New()

	created, err := docs.Create(ctx, document.CreateDocumentRequest{
		Kind:  domain.KindEmergency,
		Title: "Redis Outage",
		Sections: domain.EmergencySections{
			FaultScenario:  "Primary redis node unreachable.",
			TriggerProcess: "Alert KB-104 fires twice within five minutes.",
			Solution:       "Fail over to the replica and restart the proxy.",
			Verification:   "Read and write a canary key.",
			Recovery:       "Re-seed the failed node and rejoin the cluster.",
		},
		CreatedBy: authorID,
	})
	if err != nil {
		t.Fatalf("create runbook: %v", err)
	}

	outline := module.Markdown().EmergencyOutline(created.Sections())
	if len(outline) != 5 {
		t.Fatalf("expected five runbook sections, got %d", len(outline))
	}
	if outline[0].Text != "故障场景" {
		t.Fatalf("unexpected first section title %q", outline[0].Text)
	}

	if _, err := docs.Publish(ctx, document.PublishRequest{
		VersionID:   created.ID,
		PublishedBy: authorID,
	}); err != nil {
		t.Fatalf("publish runbook: %v", err)
	}

	listed, err := docs.ListPublished(ctx, document.ListPublishedOptions{})
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Redis Outage" {
		t.Fatalf("unexpected published listing: %+v", listed)
	}
}
