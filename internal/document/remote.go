package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const defaultRemoteTimeout = 30 * time.Second

// RemoteRepository talks to the document store service over HTTP. The remote
// side owns every transition rule; this client translates its answers into
// the package error taxonomy so callers cannot tell it apart from a local
// store.
type RemoteRepository struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// RemoteOption customizes the HTTP store client.
type RemoteOption func(*RemoteRepository)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *RemoteRepository) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// WithAuthToken sets the bearer token attached to every request.
func WithAuthToken(token string) RemoteOption {
	return func(r *RemoteRepository) {
		r.authToken = token
	}
}

// NewRemoteRepository creates a store client against the given base URL. The
// URL carries protocol and host without a trailing slash.
func NewRemoteRepository(baseURL string, opts ...RemoteOption) *RemoteRepository {
	remote := &RemoteRepository{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultRemoteTimeout,
		},
	}
	for _, opt := range opts {
		opt(remote)
	}
	return remote
}

var _ Repository = (*RemoteRepository)(nil)

// Create inserts a draft and returns the stored row with its assigned number.
func (r *RemoteRepository) Create(ctx context.Context, version *Version) (*Version, error) {
	return r.sendVersion(ctx, "create", http.MethodPost, "/documents", version, versionRef(version))
}

// Update applies the editable fields of a version.
func (r *RemoteRepository) Update(ctx context.Context, version *Version) (*Version, error) {
	if version == nil || version.ID == uuid.Nil {
		return nil, NewValidationError(ErrVersionIDRequired)
	}
	path := fmt.Sprintf("/documents/%s", version.ID)
	return r.sendVersion(ctx, "update", http.MethodPatch, path, version, ref{versionID: version.ID})
}

// GetByID retrieves a version by identifier.
func (r *RemoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*Version, error) {
	path := fmt.Sprintf("/documents/%s", id)
	return r.sendVersion(ctx, "get", http.MethodGet, path, nil, ref{versionID: id})
}

// GetCurrent retrieves the published current version of a resource.
func (r *RemoteRepository) GetCurrent(ctx context.Context, resourceID uuid.UUID) (*Version, error) {
	path := fmt.Sprintf("/resources/%s/current", resourceID)
	return r.sendVersion(ctx, "get_current", http.MethodGet, path, nil, ref{resourceID: resourceID})
}

// ListByResource returns every version of a resource.
func (r *RemoteRepository) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*Version, error) {
	path := fmt.Sprintf("/resources/%s/versions", resourceID)
	resp, err := r.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, NewTransportError("list_versions", err)
	}
	var out []*Version
	if err := r.decode("list_versions", resp, &out, ref{resourceID: resourceID}); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPublished returns current published versions matching the options.
func (r *RemoteRepository) ListPublished(ctx context.Context, opts ListPublishedOptions) ([]*Version, error) {
	query := url.Values{}
	query.Set("status", "published")
	if opts.Kind != nil {
		query.Set("kind", string(*opts.Kind))
	}
	if opts.Tag != "" {
		query.Set("tag", opts.Tag)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/documents?" + query.Encode()

	resp, err := r.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, NewTransportError("list_published", err)
	}
	var out []*Version
	if err := r.decode("list_published", resp, &out, ref{}); err != nil {
		return nil, err
	}
	return out, nil
}

// Publish promotes a draft to published current.
func (r *RemoteRepository) Publish(ctx context.Context, id uuid.UUID, at time.Time) (*PublishResult, error) {
	path := fmt.Sprintf("/documents/%s/publish", id)
	resp, err := r.do(ctx, http.MethodPost, path, transitionBody{At: at})
	if err != nil {
		return nil, NewTransportError("publish", err)
	}
	var result PublishResult
	if err := r.decode("publish", resp, &result, ref{versionID: id}); err != nil {
		return nil, err
	}
	return &result, nil
}

// Unpublish retracts the published current version back to draft.
func (r *RemoteRepository) Unpublish(ctx context.Context, id uuid.UUID, at time.Time) (*Version, error) {
	path := fmt.Sprintf("/documents/%s/unpublish", id)
	return r.sendVersion(ctx, "unpublish", http.MethodPost, path, transitionBody{At: at}, ref{versionID: id})
}

// Delete removes a version row.
func (r *RemoteRepository) Delete(ctx context.Context, id uuid.UUID, opts DeleteOptions) error {
	query := url.Values{}
	if opts.ReplacementID != nil {
		query.Set("replacement_id", opts.ReplacementID.String())
	}
	if opts.Withdraw {
		query.Set("withdraw", "true")
	}
	path := fmt.Sprintf("/documents/%s", id)
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := r.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return NewTransportError("delete", err)
	}
	return r.decode("delete", resp, nil, ref{versionID: id})
}

// transitionBody carries the effective timestamp of a publish or unpublish.
type transitionBody struct {
	At time.Time `json:"at"`
}

// ref identifies what a request was about so 404 answers name the right record.
type ref struct {
	versionID  uuid.UUID
	resourceID uuid.UUID
}

func versionRef(version *Version) ref {
	if version == nil {
		return ref{}
	}
	return ref{versionID: version.ID, resourceID: version.ResourceID}
}

func (r *RemoteRepository) sendVersion(ctx context.Context, op, method, path string, body any, target ref) (*Version, error) {
	resp, err := r.do(ctx, method, path, body)
	if err != nil {
		return nil, NewTransportError(op, err)
	}
	var out Version
	if err := r.decode(op, resp, &out, target); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RemoteRepository) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}

	return r.httpClient.Do(req)
}

// decode reads a response, translating error statuses into the package
// taxonomy. A nil target discards the success body.
func (r *RemoteRepository) decode(op string, resp *http.Response, target any, about ref) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return mapRemoteError(op, resp, about)
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return NewTransportError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// remoteErrorEnvelope is the error shape the store service answers with.
type remoteErrorEnvelope struct {
	Error struct {
		Code    string   `json:"code"`
		Reason  string   `json:"reason,omitempty"`
		Message string   `json:"message,omitempty"`
		Fields  []string `json:"fields,omitempty"`
		Reasons []string `json:"reasons,omitempty"`
	} `json:"error"`
}

// validationReasonCodes maps wire reason codes to validation sentinels.
var validationReasonCodes = map[string]error{
	"title_required":             ErrTitleRequired,
	"content_required":           ErrContentRequired,
	"sections_required":          ErrSectionsRequired,
	"kind_invalid":               ErrKindInvalid,
	"version_id_required":        ErrVersionIDRequired,
	"resource_id_required":       ErrResourceIDRequired,
	"slug_invalid":               ErrSlugInvalid,
	"schedule_window_invalid":    ErrScheduleWindowInvalid,
	"schedule_timestamp_invalid": ErrScheduleTimestampInvalid,
}

// conflictReasonCodes maps wire reason codes to conflict sentinels.
var conflictReasonCodes = map[string]error{
	"not_draft":                 ErrNotDraft,
	"not_published_current":     ErrNotPublishedCurrent,
	"revision_open":             ErrRevisionOpen,
	"no_revision_open":          ErrNoRevisionOpen,
	"revision_draft_referenced": ErrRevisionDraftReferenced,
	"current_version_protected": ErrCurrentVersionProtected,
	"replacement_invalid":       ErrReplacementInvalid,
	"stale_version":             ErrStaleVersion,
}

func mapRemoteError(op string, resp *http.Response, about ref) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var envelope remoteErrorEnvelope
	_ = json.Unmarshal(raw, &envelope)

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		verr := &ValidationError{Fields: envelope.Error.Fields}
		for _, code := range envelope.Error.Reasons {
			if reason, ok := validationReasonCodes[code]; ok {
				verr.Reasons = append(verr.Reasons, reason)
			}
		}
		return verr
	case http.StatusNotFound:
		return &NotFoundError{VersionID: about.versionID, ResourceID: about.resourceID}
	case http.StatusConflict:
		reason, ok := conflictReasonCodes[envelope.Error.Reason]
		if !ok && envelope.Error.Message != "" {
			reason = errors.New(envelope.Error.Message)
		}
		return &ConflictError{VersionID: about.versionID, Reason: reason}
	default:
		detail := envelope.Error.Message
		if detail == "" {
			detail = string(bytes.TrimSpace(raw))
		}
		return NewTransportError(op, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail))
	}
}
