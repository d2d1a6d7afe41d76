package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	knowledge "github.com/goliatone/go-knowledge"
	"github.com/goliatone/go-knowledge/document"
	"github.com/goliatone/go-knowledge/domain"
	auditcmd "github.com/goliatone/go-knowledge/internal/commands/audit"
	"github.com/goliatone/go-knowledge/internal/di"
	"github.com/goliatone/go-knowledge/internal/export"
	"github.com/google/uuid"
)

// Walks the whole document lifecycle against the in-memory store: draft,
// publish, revise without disruption, supersede, and export the published
// site. Run it with `go run ./cmd/example`.
func main() {
	ctx := context.Background()

	cfg := knowledge.DefaultConfig()
	cfg.Features.Export = true
	cfg.Features.Scheduling = true
	cfg.Export.Enabled = true
	cfg.Export.OutputDir = outputDir()
	cfg.Export.SiteTitle = "Handbook"

	now := time.Now()
	module, err := knowledge.New(cfg, di.WithClock(func() time.Time { return now }))
	if err != nil {
		log.Fatalf("initialise module: %v", err)
	}

	docs := module.Documents()
	author := uuid.New()

	section("Create a draft")
	draft, err := docs.Create(ctx, document.CreateDocumentRequest{
		Kind:      domain.KindStandard,
		Title:     "Deploying the search cluster",
		Summary:   "Rolling deploy procedure for the search tier",
		Tags:      []string{"search", "deploy"},
		Content:   "# Overview\nDeploys roll one node at a time.\n\n## Preflight\nCheck replica health with `curl -s :9200/_cat/health`.",
		CreatedBy: author,
	})
	if err != nil {
		log.Fatalf("create draft: %v", err)
	}
	describe(draft)

	section("Publish it")
	published, err := docs.Publish(ctx, document.PublishRequest{VersionID: draft.ID, PublishedBy: author})
	if err != nil {
		log.Fatalf("publish draft: %v", err)
	}
	describe(published.Published)

	section("Preview the published version")
	preview, err := docs.Preview(ctx, document.PreviewRequest{VersionID: published.Published.ID})
	if err != nil {
		log.Fatalf("preview version: %v", err)
	}
	for _, heading := range preview.Outline {
		fmt.Printf("%s- %s\n", strings.Repeat("  ", heading.Level-1), heading.Text)
	}

	section("Revise without taking the document offline")
	revision, err := docs.StartRevision(ctx, document.StartRevisionRequest{
		VersionID: published.Published.ID,
		StartedBy: author,
	})
	if err != nil {
		log.Fatalf("start revision: %v", err)
	}
	fmt.Printf("current version state: %s\n", revision.Current.State())
	fmt.Printf("revision draft: v%d %s\n", revision.Draft.VersionNumber, revision.Draft.State())

	if _, err := docs.Save(ctx, document.SaveDraftRequest{
		VersionID: revision.Draft.ID,
		Title:     revision.Draft.Title,
		Summary:   revision.Draft.Summary,
		Tags:      revision.Draft.Tags,
		Content:   revision.Draft.Content + "\n\n## Rollback\nRe-enable the previous image tag and drain the new nodes.",
		UpdatedBy: author,
	}); err != nil {
		log.Fatalf("save revision draft: %v", err)
	}

	section("Publish the revision")
	replaced, err := docs.Publish(ctx, document.PublishRequest{VersionID: revision.Draft.ID, PublishedBy: author})
	if err != nil {
		log.Fatalf("publish revision: %v", err)
	}
	describe(replaced.Published)
	describe(replaced.Superseded)

	section("Author an emergency runbook")
	runbook, err := docs.Create(ctx, document.CreateDocumentRequest{
		Kind:    domain.KindEmergency,
		Title:   "Search cluster red status",
		Summary: "Shard allocation failure on the search tier",
		Tags:    []string{"search", "oncall"},
		Sections: domain.EmergencySections{
			FaultScenario: "Cluster health is red and queries time out.",
			Solution:      "Restart allocation with `cluster.routing.allocation.enable=all`.",
			Recovery:      "Replay the failed writes from the ingest queue.",
		},
		CreatedBy: author,
	})
	if err != nil {
		log.Fatalf("create runbook: %v", err)
	}
	if _, err := docs.Publish(ctx, document.PublishRequest{VersionID: runbook.ID, PublishedBy: author}); err != nil {
		log.Fatalf("publish runbook: %v", err)
	}
	for _, heading := range module.Markdown().EmergencyOutline(runbook.Sections()) {
		fmt.Printf("- %s\n", heading.Text)
	}

	section("Version history")
	versions, err := docs.ListVersions(ctx, replaced.Published.ResourceID)
	if err != nil {
		log.Fatalf("list versions: %v", err)
	}
	for _, version := range versions {
		describe(version)
	}

	section("Schedule a timed publication and replay the worker")
	timed, err := docs.Create(ctx, document.CreateDocumentRequest{
		Kind:      domain.KindStandard,
		Title:     "Quarterly failover drill",
		Summary:   "Walkthrough for the scheduled failover exercise",
		Tags:      []string{"oncall", "drill"},
		Content:   "# Drill\nFail the primary over to the standby region.",
		CreatedBy: author,
	})
	if err != nil {
		log.Fatalf("create scheduled draft: %v", err)
	}
	publishAt := now.Add(time.Hour)
	if _, err := docs.Schedule(ctx, document.ScheduleRequest{
		VersionID:   timed.ID,
		PublishAt:   &publishAt,
		ScheduledBy: author,
	}); err != nil {
		log.Fatalf("schedule publication: %v", err)
	}

	now = now.Add(2 * time.Hour)
	auditCmds := module.AuditCommands()
	if err := auditCmds.Replay.Execute(ctx, auditcmd.ReplayAuditCommand{}); err != nil {
		log.Fatalf("replay due transitions: %v", err)
	}
	timedCurrent, err := docs.GetCurrent(ctx, timed.ResourceID)
	if err != nil {
		log.Fatalf("get scheduled current: %v", err)
	}
	describe(timedCurrent)
	if err := auditCmds.Export.Execute(ctx, auditcmd.ExportAuditCommand{}); err != nil {
		log.Fatalf("export audit trail: %v", err)
	}

	section("Export the published site")
	result, err := module.Exporter().Export(ctx, export.Options{})
	if err != nil {
		log.Fatalf("export site: %v", err)
	}
	fmt.Printf("exported %d page(s) to %s in %s\n", result.Exported, cfg.Export.OutputDir, result.Duration)
	for _, page := range result.Pages {
		fmt.Printf("- %s\n", page.Path)
	}
}

func section(title string) {
	fmt.Printf("\n=== %s ===\n", title)
}

func describe(version *document.Version) {
	if version == nil {
		return
	}
	fmt.Printf("v%-2d %-28s current=%-5t %s\n",
		version.VersionNumber, version.State(), version.IsCurrent, version.Title)
}

func outputDir() string {
	dir, err := os.MkdirTemp("", "knowledge-example-")
	if err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	return dir
}
