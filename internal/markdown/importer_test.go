package markdown_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"

	kdocument "github.com/goliatone/go-knowledge/document"
	idocument "github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/identity"
	"github.com/goliatone/go-knowledge/internal/markdown"
	"github.com/goliatone/go-knowledge/internal/validation"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

const aboutSource = `---
title: About the platform
slug: about
summary: Platform overview
kind: standard
tags:
  - intro
---

# About

The platform stores every revision.
`

const runbookSource = `---
title: Cache failover
kind: emergency
tags:
  - oncall
sections:
  fault_scenario: Primary cache unreachable
  trigger_process: Alert fires on miss rate
  solution: Promote the replica
---
`

func newTestImporter(t *testing.T, files map[string]string) (*markdown.Importer, kdocument.Service) {
	t.Helper()

	tree := fstest.MapFS{}
	for path, body := range files {
		tree[path] = &fstest.MapFile{
			Data:    []byte(body),
			ModTime: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		}
	}

	service := idocument.NewService(idocument.NewMemoryRepository())
	importer := markdown.NewImporter(markdown.ImporterConfig{
		Documents: service,
		Loader:    markdown.NewLoader(tree, markdown.LoaderConfig{Recursive: true}),
	})
	return importer, service
}

func TestImportDirectoryCreatesDrafts(t *testing.T) {
	importer, service := newTestImporter(t, map[string]string{
		"guides/about.md":      aboutSource,
		"runbooks/failover.md": runbookSource,
		"notes.txt":            "not markdown",
	})

	result, err := importer.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{AuthorID: uuid.New()})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}
	if len(result.CreatedResourceIDs) != 2 {
		t.Fatalf("expected 2 created resources, got %#v", result)
	}

	aboutID := identity.DocumentUUID("guides/about.md")
	versions, err := service.ListVersions(context.Background(), aboutID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("expected one version, got %d", len(versions))
	}
	draft := versions[0]
	if draft.Title != "About the platform" || draft.Slug != "about" {
		t.Fatalf("unexpected draft fields: %+v", draft)
	}
	if !strings.Contains(draft.Content, "stores every revision") {
		t.Fatalf("body not imported: %q", draft.Content)
	}

	// Still a draft: no published current version yet.
	if _, err := service.GetCurrent(context.Background(), aboutID); !kdocument.IsNotFound(err) {
		t.Fatalf("expected no current version, got %v", err)
	}

	runbookID := identity.DocumentUUID("runbooks/failover.md")
	runbook, err := service.ListVersions(context.Background(), runbookID)
	if err != nil || len(runbook) != 1 {
		t.Fatalf("expected runbook version, got %v %v", runbook, err)
	}
	if runbook[0].EmergencySections.Solution != "Promote the replica" {
		t.Fatalf("sections not imported: %+v", runbook[0].EmergencySections)
	}
}

func TestImportDirectoryPublishOption(t *testing.T) {
	importer, service := newTestImporter(t, map[string]string{
		"guides/about.md": aboutSource,
	})

	_, err := importer.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{
		AuthorID: uuid.New(),
		Publish:  true,
	})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}

	current, err := service.GetCurrent(context.Background(), identity.DocumentUUID("guides/about.md"))
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.VersionNumber != 1 || !current.IsCurrent {
		t.Fatalf("unexpected current version: %+v", current)
	}
}

func TestImportHonorsFrontMatterStatus(t *testing.T) {
	published := strings.Replace(aboutSource, "kind: standard", "kind: standard\nstatus: published", 1)
	importer, service := newTestImporter(t, map[string]string{
		"guides/about.md": published,
	})

	if _, err := importer.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{AuthorID: uuid.New()}); err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}

	if _, err := service.GetCurrent(context.Background(), identity.DocumentUUID("guides/about.md")); err != nil {
		t.Fatalf("expected published current version, got %v", err)
	}
}

func TestImportUnchangedFileSkips(t *testing.T) {
	importer, _ := newTestImporter(t, map[string]string{
		"guides/about.md": aboutSource,
	})
	ctx := context.Background()
	opts := interfaces.ImportOptions{AuthorID: uuid.New()}

	if _, err := importer.ImportDirectory(ctx, ".", opts); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second, err := importer.ImportDirectory(ctx, ".", opts)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(second.SkippedResourceIDs) != 1 || len(second.CreatedResourceIDs) != 0 || len(second.UpdatedResourceIDs) != 0 {
		t.Fatalf("expected skip only, got %#v", second)
	}
}

func TestImportRecordsSourceChecksum(t *testing.T) {
	importer, service := newTestImporter(t, map[string]string{
		"guides/about.md": aboutSource,
	})
	ctx := context.Background()
	author := uuid.New()

	first, err := importer.ImportDirectory(ctx, ".", interfaces.ImportOptions{AuthorID: author})
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if len(first.CreatedResourceIDs) != 1 {
		t.Fatalf("expected one created resource, got %#v", first)
	}

	versions, err := service.ListVersions(ctx, first.CreatedResourceIDs[0])
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	want := sha256.Sum256([]byte(aboutSource))
	if !bytes.Equal(versions[0].SourceChecksum, want[:]) {
		t.Fatalf("expected imported draft to carry the file digest, got %x", versions[0].SourceChecksum)
	}
}

func TestImportChecksumMatchSkipsDivergedFields(t *testing.T) {
	repo := idocument.NewMemoryRepository()
	service := idocument.NewService(repo)
	tree := fstest.MapFS{
		"guides/about.md": &fstest.MapFile{Data: []byte(aboutSource), ModTime: time.Now()},
	}
	importer := markdown.NewImporter(markdown.ImporterConfig{
		Documents: service,
		Loader:    markdown.NewLoader(tree, markdown.LoaderConfig{Recursive: true}),
	})
	ctx := context.Background()
	author := uuid.New()

	first, err := importer.ImportDirectory(ctx, ".", interfaces.ImportOptions{AuthorID: author})
	if err != nil {
		t.Fatalf("seed import: %v", err)
	}

	// Edit the stored summary behind the importer's back while keeping the
	// recorded digest; the digest settles the comparison.
	versions, err := service.ListVersions(ctx, first.CreatedResourceIDs[0])
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	edited := versions[0].Clone()
	edited.Summary = "Summary adjusted in the store"
	if _, err := repo.Update(ctx, edited); err != nil {
		t.Fatalf("store update: %v", err)
	}

	second, err := importer.ImportDirectory(ctx, ".", interfaces.ImportOptions{AuthorID: author})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(second.SkippedResourceIDs) != 1 || len(second.UpdatedResourceIDs) != 0 {
		t.Fatalf("expected digest match to skip, got %#v", second)
	}

	// A save without a digest marks the draft diverged; the next import
	// falls back to field comparison and reconciles it.
	if _, err := service.Save(ctx, kdocument.SaveDraftRequest{
		VersionID: edited.ID,
		Title:     edited.Title,
		Summary:   edited.Summary,
		Slug:      edited.Slug,
		Tags:      edited.Tags,
		Content:   "Rewritten by hand.",
		UpdatedBy: author,
	}); err != nil {
		t.Fatalf("hand save: %v", err)
	}

	third, err := importer.ImportDirectory(ctx, ".", interfaces.ImportOptions{AuthorID: author})
	if err != nil {
		t.Fatalf("third import: %v", err)
	}
	if len(third.UpdatedResourceIDs) != 1 {
		t.Fatalf("expected diverged draft to be updated, got %#v", third)
	}
	reloaded, err := service.Get(ctx, edited.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := sha256.Sum256([]byte(aboutSource))
	if !bytes.Equal(reloaded.SourceChecksum, want[:]) {
		t.Fatalf("expected re-import to restore the file digest, got %x", reloaded.SourceChecksum)
	}
}

func TestImportChangedFileRevisesPublishedCurrent(t *testing.T) {
	importer, service := newTestImporter(t, map[string]string{
		"guides/about.md": aboutSource,
	})
	ctx := context.Background()
	author := uuid.New()

	if _, err := importer.ImportDirectory(ctx, ".", interfaces.ImportOptions{AuthorID: author, Publish: true}); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	changed := strings.Replace(aboutSource, "stores every revision", "stores every revision forever", 1)
	doc, err := markdown.NewLoader(fstest.MapFS{
		"guides/about.md": &fstest.MapFile{Data: []byte(changed), ModTime: time.Now()},
	}, markdown.LoaderConfig{Recursive: true}).LoadFile(ctx, "guides/about.md", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	result, err := importer.Import(ctx, doc, interfaces.ImportOptions{AuthorID: author})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(result.UpdatedResourceIDs) != 1 {
		t.Fatalf("expected update, got %#v", result)
	}

	resourceID := identity.DocumentUUID("guides/about.md")
	versions, err := service.ListVersions(ctx, resourceID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected revision draft next to current, got %d versions", len(versions))
	}

	current, err := service.GetCurrent(ctx, resourceID)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.VersionNumber != 1 {
		t.Fatalf("current should stay at version 1 until the revision publishes, got %d", current.VersionNumber)
	}

	// Importing the same change again updates the open revision draft in place.
	again, err := importer.Import(ctx, doc, interfaces.ImportOptions{AuthorID: author})
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if len(again.SkippedResourceIDs) != 1 {
		t.Fatalf("expected unchanged revision draft to skip, got %#v", again)
	}
}

func TestImportMergesTags(t *testing.T) {
	importer, service := newTestImporter(t, map[string]string{
		"guides/about.md": aboutSource,
	})
	ctx := context.Background()
	author := uuid.New()

	if _, err := importer.ImportDirectory(ctx, ".", interfaces.ImportOptions{AuthorID: author}); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	retagged := strings.Replace(aboutSource, "  - intro", "  - onboarding", 1)
	doc, err := markdown.NewLoader(fstest.MapFS{
		"guides/about.md": &fstest.MapFile{Data: []byte(retagged), ModTime: time.Now()},
	}, markdown.LoaderConfig{Recursive: true}).LoadFile(ctx, "guides/about.md", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if _, err := importer.Import(ctx, doc, interfaces.ImportOptions{AuthorID: author}); err != nil {
		t.Fatalf("Import: %v", err)
	}

	versions, err := service.ListVersions(ctx, identity.DocumentUUID("guides/about.md"))
	if err != nil || len(versions) != 1 {
		t.Fatalf("ListVersions: %v %v", versions, err)
	}
	got := strings.Join(versions[0].Tags, ",")
	if got != "intro,onboarding" {
		t.Fatalf("expected merged tags, got %q", got)
	}
}

func TestImportDryRunPersistsNothing(t *testing.T) {
	importer, service := newTestImporter(t, map[string]string{
		"guides/about.md": aboutSource,
	})

	result, err := importer.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{
		AuthorID: uuid.New(),
		DryRun:   true,
	})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}
	if len(result.SkippedResourceIDs) != 1 {
		t.Fatalf("expected dry-run skip, got %#v", result)
	}

	versions, err := service.ListVersions(context.Background(), identity.DocumentUUID("guides/about.md"))
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("dry run must not persist, got %d versions", len(versions))
	}
}

func TestImportRejectsInvalidFrontMatter(t *testing.T) {
	importer, _ := newTestImporter(t, map[string]string{
		"guides/untitled.md": "---\nkind: standard\n---\n\nBody.\n",
		"guides/about.md":    aboutSource,
	})

	result, err := importer.ImportDirectory(context.Background(), ".", interfaces.ImportOptions{AuthorID: uuid.New()})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected schema validation failure, got %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one recorded error, got %#v", result.Errors)
	}
	// The valid sibling file still imports.
	if len(result.CreatedResourceIDs) != 1 {
		t.Fatalf("expected valid sibling to import, got %#v", result)
	}
}

func TestImporterImplementsDocumentImporter(t *testing.T) {
	var _ interfaces.DocumentImporter = (*markdown.Importer)(nil)
}
