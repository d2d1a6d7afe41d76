package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-knowledge/internal/validation"
)

func TestValidateFrontMatter_AcceptsCompleteEnvelope(t *testing.T) {
	raw := map[string]any{
		"title":   "Cache failover runbook",
		"slug":    "cache-failover",
		"summary": "What to do when the cache tier drops",
		"kind":    "emergency",
		"status":  "draft",
		"tags":    []any{"cache", "oncall"},
		"sections": map[string]any{
			"fault_scenario": "Primary cache unreachable",
			"solution":       "Promote the replica",
		},
	}

	if err := validation.ValidateFrontMatter(raw); err != nil {
		t.Fatalf("ValidateFrontMatter() returned unexpected error: %v", err)
	}
}

func TestValidateFrontMatter_RequiresTitle(t *testing.T) {
	err := validation.ValidateFrontMatter(map[string]any{"kind": "standard"})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}

	var payloadErr *validation.PayloadValidationError
	if !errors.As(err, &payloadErr) {
		t.Fatalf("expected PayloadValidationError, got %T", err)
	}
	if len(payloadErr.Issues) == 0 {
		t.Fatalf("expected at least one issue")
	}
}

func TestValidateFrontMatter_RejectsUnknownKind(t *testing.T) {
	err := validation.ValidateFrontMatter(map[string]any{
		"title": "Doc",
		"kind":  "wiki",
	})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "/kind") {
		t.Fatalf("expected issue path to mention /kind, got %q", err.Error())
	}
}

func TestValidateFrontMatter_RejectsUnknownSectionKey(t *testing.T) {
	err := validation.ValidateFrontMatter(map[string]any{
		"title": "Doc",
		"kind":  "emergency",
		"sections": map[string]any{
			"mitigation": "not a runbook section",
		},
	})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
}

func TestValidateFrontMatter_RejectsNonStringTags(t *testing.T) {
	err := validation.ValidateFrontMatter(map[string]any{
		"title": "Doc",
		"tags":  []any{"ok", 7},
	})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
}

func TestValidateFrontMatter_ToleratesCustomTopLevelKeys(t *testing.T) {
	raw := map[string]any{
		"title":    "Doc",
		"owner":    "platform-team",
		"revision": 4,
	}

	if err := validation.ValidateFrontMatter(raw); err != nil {
		t.Fatalf("ValidateFrontMatter() returned unexpected error: %v", err)
	}
}

func TestIssues_PassesThroughPlainErrors(t *testing.T) {
	issues := validation.Issues(errors.New("boom"))
	if len(issues) != 1 || issues[0].Message != "boom" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}
