package document_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/domain"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func writeRemoteError(t *testing.T, w http.ResponseWriter, status int, payload map[string]any) {
	t.Helper()
	writeJSON(t, w, status, map[string]any{"error": payload})
}

func TestRemoteRepositoryCreate(t *testing.T) {
	resource := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/documents" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("expected json content type got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer s3cret" {
			t.Fatalf("expected bearer token got %q", got)
		}

		var incoming document.Version
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if incoming.Title != "Remote draft" {
			t.Fatalf("expected submitted title got %q", incoming.Title)
		}

		incoming.ID = uuid.New()
		incoming.VersionNumber = 1
		incoming.Status = domain.StatusDraft
		writeJSON(t, w, http.StatusCreated, incoming)
	}))
	defer server.Close()

	store := document.NewRemoteRepository(server.URL, document.WithAuthToken("s3cret"))
	created, err := store.Create(context.Background(), &document.Version{
		ResourceID: resource,
		Title:      "Remote draft",
		Content:    "body",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == uuid.Nil || created.VersionNumber != 1 {
		t.Fatalf("expected stored row back got %+v", created)
	}
	if created.ResourceID != resource {
		t.Fatalf("expected resource id round trip got %s", created.ResourceID)
	}
}

func TestRemoteRepositoryPublish(t *testing.T) {
	id := uuid.New()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := "/documents/" + id.String() + "/publish"
		if r.Method != http.MethodPost || r.URL.Path != expected {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			At time.Time `json:"at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode transition body: %v", err)
		}
		if !body.At.Equal(at) {
			t.Fatalf("expected at %v got %v", at, body.At)
		}

		publishedAt := body.At
		writeJSON(t, w, http.StatusOK, document.PublishResult{
			Published: &document.Version{
				ID:            id,
				VersionNumber: 2,
				Status:        domain.StatusPublished,
				IsCurrent:     true,
				PublishedAt:   &publishedAt,
			},
			Superseded: &document.Version{
				ID:            uuid.New(),
				VersionNumber: 1,
				Status:        domain.StatusPublished,
			},
		})
	}))
	defer server.Close()

	store := document.NewRemoteRepository(server.URL)
	result, err := store.Publish(context.Background(), id, at)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.Published == nil || result.Published.ID != id {
		t.Fatalf("expected published version got %+v", result.Published)
	}
	if result.Published.PublishedAt == nil || !result.Published.PublishedAt.Equal(at) {
		t.Fatal("expected published_at round trip")
	}
	if result.Superseded == nil || result.Superseded.VersionNumber != 1 {
		t.Fatal("expected superseded version")
	}
}

func TestRemoteRepositoryListPublishedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("status") != "published" {
			t.Fatalf("expected published filter got %v", query)
		}
		if query.Get("kind") != "emergency" || query.Get("tag") != "ops" {
			t.Fatalf("unexpected filters %v", query)
		}
		if query.Get("limit") != "5" || query.Get("offset") != "10" {
			t.Fatalf("unexpected pagination %v", query)
		}
		writeJSON(t, w, http.StatusOK, []*document.Version{{ID: uuid.New()}})
	}))
	defer server.Close()

	emergency := domain.KindEmergency
	store := document.NewRemoteRepository(server.URL)
	out, err := store.ListPublished(context.Background(), document.ListPublishedOptions{
		Kind:   &emergency,
		Tag:    "ops",
		Limit:  5,
		Offset: 10,
	})
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one row got %d", len(out))
	}
}

func TestRemoteRepositoryDeleteQuery(t *testing.T) {
	id := uuid.New()
	replacement := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/documents/"+id.String() {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("replacement_id"); got != replacement.String() {
			t.Fatalf("expected replacement id got %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := document.NewRemoteRepository(server.URL)
	if err := store.Delete(context.Background(), id, document.DeleteOptions{ReplacementID: &replacement}); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestRemoteRepositoryRoutes(t *testing.T) {
	id := uuid.New()
	resource := uuid.New()

	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/versions") || r.URL.Path == "/documents" && r.Method == http.MethodGet:
			writeJSON(t, w, http.StatusOK, []*document.Version{})
		case strings.HasSuffix(r.URL.Path, "/publish"):
			writeJSON(t, w, http.StatusOK, document.PublishResult{Published: &document.Version{ID: id}})
		default:
			writeJSON(t, w, http.StatusOK, document.Version{ID: id})
		}
	}))
	defer server.Close()

	store := document.NewRemoteRepository(server.URL)
	ctx := context.Background()

	calls := []struct {
		name   string
		invoke func() error
		method string
		path   string
	}{
		{"create", func() error {
			_, err := store.Create(ctx, &document.Version{ResourceID: resource, Title: "t"})
			return err
		}, http.MethodPost, "/documents"},
		{"update", func() error {
			_, err := store.Update(ctx, &document.Version{ID: id, Title: "t"})
			return err
		}, http.MethodPatch, "/documents/" + id.String()},
		{"get", func() error {
			_, err := store.GetByID(ctx, id)
			return err
		}, http.MethodGet, "/documents/" + id.String()},
		{"get_current", func() error {
			_, err := store.GetCurrent(ctx, resource)
			return err
		}, http.MethodGet, "/resources/" + resource.String() + "/current"},
		{"list_versions", func() error {
			_, err := store.ListByResource(ctx, resource)
			return err
		}, http.MethodGet, "/resources/" + resource.String() + "/versions"},
		{"list_published", func() error {
			_, err := store.ListPublished(ctx, document.ListPublishedOptions{})
			return err
		}, http.MethodGet, "/documents"},
		{"publish", func() error {
			_, err := store.Publish(ctx, id, time.Now())
			return err
		}, http.MethodPost, "/documents/" + id.String() + "/publish"},
		{"unpublish", func() error {
			_, err := store.Unpublish(ctx, id, time.Now())
			return err
		}, http.MethodPost, "/documents/" + id.String() + "/unpublish"},
		{"delete", func() error {
			return store.Delete(ctx, id, document.DeleteOptions{Withdraw: true})
		}, http.MethodDelete, "/documents/" + id.String()},
	}

	for _, call := range calls {
		if err := call.invoke(); err != nil {
			t.Fatalf("%s: %v", call.name, err)
		}
		if gotMethod != call.method || gotPath != call.path {
			t.Fatalf("%s: expected %s %s got %s %s", call.name, call.method, call.path, gotMethod, gotPath)
		}
	}
}

func TestRemoteRepositoryValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRemoteError(t, w, http.StatusUnprocessableEntity, map[string]any{
			"code":    "validation_failed",
			"fields":  []string{"title", "content"},
			"reasons": []string{"title_required", "content_required"},
		})
	}))
	defer server.Close()

	store := document.NewRemoteRepository(server.URL)
	_, err := store.Create(context.Background(), &document.Version{ResourceID: uuid.New()})
	if !document.IsValidation(err) {
		t.Fatalf("expected validation error got %v", err)
	}
	if !errors.Is(err, document.ErrTitleRequired) || !errors.Is(err, document.ErrContentRequired) {
		t.Fatalf("expected mapped reasons got %v", err)
	}

	var verr *document.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError got %T", err)
	}
	if len(verr.Fields) != 2 || verr.Fields[0] != "title" {
		t.Fatalf("expected reported fields got %v", verr.Fields)
	}
}

func TestRemoteRepositoryNotFound(t *testing.T) {
	id := uuid.New()
	resource := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRemoteError(t, w, http.StatusNotFound, map[string]any{"code": "not_found"})
	}))
	defer server.Close()

	store := document.NewRemoteRepository(server.URL)

	_, err := store.GetByID(context.Background(), id)
	if !document.IsNotFound(err) {
		t.Fatalf("expected not found got %v", err)
	}
	var nf *document.NotFoundError
	if !errors.As(err, &nf) || nf.VersionID != id {
		t.Fatalf("expected version reference got %+v", nf)
	}

	_, err = store.GetCurrent(context.Background(), resource)
	if !errors.As(err, &nf) || nf.ResourceID != resource {
		t.Fatalf("expected resource reference got %+v", nf)
	}
}

func TestRemoteRepositoryConflict(t *testing.T) {
	id := uuid.New()
	reason := "stale_version"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRemoteError(t, w, http.StatusConflict, map[string]any{
			"code":   "conflict",
			"reason": reason,
		})
	}))
	defer server.Close()

	store := document.NewRemoteRepository(server.URL)

	record := &document.Version{ID: id, Title: "x"}
	_, err := store.Update(context.Background(), record)
	if !document.IsConflict(err) || !errors.Is(err, document.ErrStaleVersion) {
		t.Fatalf("expected stale version conflict got %v", err)
	}
	var cerr *document.ConflictError
	if !errors.As(err, &cerr) || cerr.VersionID != id {
		t.Fatalf("expected conflicting version id got %+v", cerr)
	}

	reason = "revision_open"
	_, err = store.Update(context.Background(), record)
	if !errors.Is(err, document.ErrRevisionOpen) {
		t.Fatalf("expected revision-open conflict got %v", err)
	}
}

func TestRemoteRepositoryConflictUnknownReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRemoteError(t, w, http.StatusConflict, map[string]any{
			"code":    "conflict",
			"reason":  "quota_exceeded",
			"message": "resource version quota exceeded",
		})
	}))
	defer server.Close()

	store := document.NewRemoteRepository(server.URL)
	_, err := store.Update(context.Background(), &document.Version{ID: uuid.New()})
	if !document.IsConflict(err) {
		t.Fatalf("expected conflict got %v", err)
	}
	var cerr *document.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConflictError got %T", err)
	}
	if cerr.Reason == nil || cerr.Reason.Error() != "resource version quota exceeded" {
		t.Fatalf("expected message carried as reason got %v", cerr.Reason)
	}
}

func TestRemoteRepositoryTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/versions") {
			w.Header().Set("Content-Type", "application/json")
			if _, err := w.Write([]byte("{not json")); err != nil {
				t.Fatalf("write body: %v", err)
			}
			return
		}
		writeRemoteError(t, w, http.StatusInternalServerError, map[string]any{
			"code":    "internal",
			"message": "database unavailable",
		})
	}))

	store := document.NewRemoteRepository(server.URL)

	_, err := store.GetByID(context.Background(), uuid.New())
	if !document.IsTransport(err) {
		t.Fatalf("expected transport error for 500 got %v", err)
	}

	// A malformed success body is a transport failure, not data.
	if _, err := store.ListByResource(context.Background(), uuid.New()); !document.IsTransport(err) {
		t.Fatalf("expected transport error for bad body got %v", err)
	}

	server.Close()
	if _, err := store.GetByID(context.Background(), uuid.New()); !document.IsTransport(err) {
		t.Fatalf("expected transport error for closed server got %v", err)
	}
}
