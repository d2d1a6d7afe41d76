package document

import kdocument "github.com/goliatone/go-knowledge/document"

// The public document package owns the contract; this package implements it.
// Aliases keep the implementation readable without qualifying every name.

type (
	Version              = kdocument.Version
	PublishResult        = kdocument.PublishResult
	RevisionResult       = kdocument.RevisionResult
	DeleteOptions        = kdocument.DeleteOptions
	ListPublishedOptions = kdocument.ListPublishedOptions

	Service               = kdocument.Service
	CreateDocumentRequest = kdocument.CreateDocumentRequest
	SaveDraftRequest      = kdocument.SaveDraftRequest
	PublishRequest        = kdocument.PublishRequest
	StartRevisionRequest  = kdocument.StartRevisionRequest
	CancelRevisionRequest = kdocument.CancelRevisionRequest
	UnpublishRequest      = kdocument.UnpublishRequest
	DeleteVersionRequest  = kdocument.DeleteVersionRequest
	PreviewRequest        = kdocument.PreviewRequest
	Preview               = kdocument.Preview
	ScheduleRequest       = kdocument.ScheduleRequest

	ValidationError = kdocument.ValidationError
	ConflictError   = kdocument.ConflictError
	TransportError  = kdocument.TransportError
	NotFoundError   = kdocument.NotFoundError
)

var (
	ErrValidation = kdocument.ErrValidation
	ErrConflict   = kdocument.ErrConflict
	ErrTransport  = kdocument.ErrTransport
	ErrNotFound   = kdocument.ErrNotFound

	ErrTitleRequired            = kdocument.ErrTitleRequired
	ErrContentRequired          = kdocument.ErrContentRequired
	ErrSectionsRequired         = kdocument.ErrSectionsRequired
	ErrKindInvalid              = kdocument.ErrKindInvalid
	ErrVersionIDRequired        = kdocument.ErrVersionIDRequired
	ErrResourceIDRequired       = kdocument.ErrResourceIDRequired
	ErrSlugInvalid              = kdocument.ErrSlugInvalid
	ErrScheduleWindowInvalid    = kdocument.ErrScheduleWindowInvalid
	ErrScheduleTimestampInvalid = kdocument.ErrScheduleTimestampInvalid

	ErrNotDraft                = kdocument.ErrNotDraft
	ErrNotPublishedCurrent     = kdocument.ErrNotPublishedCurrent
	ErrRevisionOpen            = kdocument.ErrRevisionOpen
	ErrNoRevisionOpen          = kdocument.ErrNoRevisionOpen
	ErrRevisionDraftReferenced = kdocument.ErrRevisionDraftReferenced
	ErrCurrentVersionProtected = kdocument.ErrCurrentVersionProtected
	ErrReplacementInvalid      = kdocument.ErrReplacementInvalid
	ErrStaleVersion            = kdocument.ErrStaleVersion

	ErrSchedulingDisabled = kdocument.ErrSchedulingDisabled

	NewValidationError = kdocument.NewValidationError
	NewConflictError   = kdocument.NewConflictError
	NewTransportError  = kdocument.NewTransportError

	IsValidation = kdocument.IsValidation
	IsConflict   = kdocument.IsConflict
	IsTransport  = kdocument.IsTransport
	IsNotFound   = kdocument.IsNotFound

	NormalizeSlug = kdocument.NormalizeSlug
	IsValidSlug   = kdocument.IsValidSlug
)
