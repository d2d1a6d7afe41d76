package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Anchor errors classify every failure the package can return. Callers match
// the category with errors.Is and inspect the concrete type for detail.
var (
	ErrValidation = errors.New("document: validation failed")
	ErrConflict   = errors.New("document: conflict")
	ErrTransport  = errors.New("document: transport failure")
	ErrNotFound   = errors.New("document: not found")
)

// Validation reasons name the exact field rule that failed.
var (
	ErrTitleRequired            = errors.New("document: title is required")
	ErrContentRequired          = errors.New("document: content is required")
	ErrSectionsRequired         = errors.New("document: at least one emergency section is required")
	ErrKindInvalid              = errors.New("document: kind is invalid")
	ErrVersionIDRequired        = errors.New("document: version id required")
	ErrResourceIDRequired       = errors.New("document: resource id required")
	ErrSlugInvalid              = errors.New("document: slug contains invalid characters")
	ErrScheduleWindowInvalid    = errors.New("document: publish_at must be before unpublish_at")
	ErrScheduleTimestampInvalid = errors.New("document: schedule timestamp is invalid")
)

// Conflict reasons name the state rule that refused a transition. They are
// reported, never resolved automatically.
var (
	ErrNotDraft                = errors.New("document: version is not a draft")
	ErrNotPublishedCurrent     = errors.New("document: version is not the published current")
	ErrRevisionOpen            = errors.New("document: a revision is already open")
	ErrNoRevisionOpen          = errors.New("document: no revision is open")
	ErrRevisionDraftReferenced = errors.New("document: draft is referenced by an open revision")
	ErrCurrentVersionProtected = errors.New("document: current version requires a replacement or explicit withdrawal")
	ErrReplacementInvalid      = errors.New("document: replacement version is not eligible")
	ErrStaleVersion            = errors.New("document: version was modified concurrently")
)

// ErrSchedulingDisabled reports that scheduling workflows are switched off.
var ErrSchedulingDisabled = errors.New("document: scheduling feature disabled")

// validationFields maps every validation reason to the fields it concerns.
var validationFields = map[error][]string{
	ErrTitleRequired:            {"title"},
	ErrContentRequired:          {"content"},
	ErrSectionsRequired:         {"sections"},
	ErrKindInvalid:              {"kind"},
	ErrVersionIDRequired:        {"version_id"},
	ErrResourceIDRequired:       {"resource_id"},
	ErrSlugInvalid:              {"slug"},
	ErrScheduleWindowInvalid:    {"publish_at", "unpublish_at"},
	ErrScheduleTimestampInvalid: {"publish_at"},
}

// ValidationError reports one or more field rule failures detected before any
// storage call is made. It matches ErrValidation and each carried reason.
type ValidationError struct {
	Fields  []string
	Reasons []error
}

// NewValidationError builds a ValidationError from the named reasons.
func NewValidationError(reasons ...error) *ValidationError {
	e := &ValidationError{Reasons: reasons}
	for _, reason := range reasons {
		e.Fields = append(e.Fields, validationFields[reason]...)
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() []error {
	return append([]error{ErrValidation}, e.Reasons...)
}

// ConflictError reports a transition refused because the stored state does
// not allow it. It matches ErrConflict and the precise reason.
type ConflictError struct {
	VersionID uuid.UUID
	Reason    error
}

// NewConflictError wraps reason as a conflict on the given version.
func NewConflictError(versionID uuid.UUID, reason error) *ConflictError {
	return &ConflictError{VersionID: versionID, Reason: reason}
}

func (e *ConflictError) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("document: conflict on version %s", e.VersionID)
	}
	return fmt.Sprintf("document: conflict on version %s: %v", e.VersionID, e.Reason)
}

func (e *ConflictError) Unwrap() []error {
	if e.Reason == nil {
		return []error{ErrConflict}
	}
	return []error{ErrConflict, e.Reason}
}

// TransportError reports a storage round trip that failed before a definitive
// answer arrived. The operation may or may not have been applied remotely.
type TransportError struct {
	Op  string
	Err error
}

// NewTransportError wraps err as a transport failure during op.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("document: transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// NotFoundError reports a missing version or resource lookup.
type NotFoundError struct {
	VersionID  uuid.UUID
	ResourceID uuid.UUID
}

func (e *NotFoundError) Error() string {
	switch {
	case e.VersionID != uuid.Nil:
		return fmt.Sprintf("document: version %s not found", e.VersionID)
	case e.ResourceID != uuid.Nil:
		return fmt.Sprintf("document: resource %s not found", e.ResourceID)
	default:
		return ErrNotFound.Error()
	}
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsValidation reports whether err is a field rule failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict reports whether err is a refused state transition.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsTransport reports whether err is a failed storage round trip.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsNotFound reports whether err is a missing record lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
