package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// frontMatterSchema is the envelope every markdown document must satisfy
// before it can enter the lifecycle. Unknown top-level keys stay legal so
// teams can carry custom metadata; the sections object is closed over the
// five runbook keys.
const frontMatterSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"title":   {"type": "string", "minLength": 1},
		"slug":    {"type": "string"},
		"summary": {"type": "string"},
		"kind":    {"type": "string", "enum": ["standard", "emergency"]},
		"status":  {"type": "string", "enum": ["draft", "published"]},
		"tags": {
			"type": "array",
			"items": {"type": "string"}
		},
		"sections": {
			"type": "object",
			"properties": {
				"fault_scenario":  {"type": "string"},
				"trigger_process": {"type": "string"},
				"solution":        {"type": "string"},
				"verification":    {"type": "string"},
				"recovery":        {"type": "string"}
			},
			"additionalProperties": false
		}
	},
	"required": ["title"]
}`

var (
	envelopeOnce sync.Once
	envelope     *jsonschema.Schema
	envelopeErr  error
)

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// PayloadValidationError surfaces validation issues with schema-aware context.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

// ValidateFrontMatter checks a raw frontmatter document against the envelope
// schema. Values must be plain JSON types, which is what the YAML parser
// yields for map[string]any targets.
func ValidateFrontMatter(raw map[string]any) error {
	compiled, err := envelopeSchema()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := compiled.Validate(normalizeYAML(raw)); err != nil {
		return &PayloadValidationError{
			Issues: Issues(err),
			Cause:  err,
		}
	}
	return nil
}

func envelopeSchema() (*jsonschema.Schema, error) {
	envelopeOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("frontmatter.json", strings.NewReader(frontMatterSchema)); err != nil {
			envelopeErr = err
			return
		}
		envelope, envelopeErr = compiler.Compile("frontmatter.json")
	})
	return envelope, envelopeErr
}

// normalizeYAML rewrites YAML decoder output into the JSON shapes the schema
// library validates: map keys become strings, nested values recurse.
func normalizeYAML(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			out[key] = normalizeYAML(inner)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			out[fmt.Sprintf("%v", key)] = normalizeYAML(inner)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = normalizeYAML(inner)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = inner
		}
		return out
	default:
		return typed
	}
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
