package domain

import internaldomain "github.com/goliatone/go-knowledge/internal/domain"

// Status represents persisted lifecycle states for document versions.
type Status = internaldomain.Status

const (
	// StatusDraft indicates a version still under preparation.
	StatusDraft = internaldomain.StatusDraft
	// StatusPublished identifies a version available to the audience.
	StatusPublished = internaldomain.StatusPublished
)

// EditStatus marks in-place revision bookkeeping on a published version.
type EditStatus = internaldomain.EditStatus

const (
	EditStatusNone     = internaldomain.EditStatusNone
	EditStatusRevising = internaldomain.EditStatusRevising
)

// Kind distinguishes freeform articles from structured emergency runbooks.
type Kind = internaldomain.Kind

const (
	KindStandard  = internaldomain.KindStandard
	KindEmergency = internaldomain.KindEmergency
)

// ValidKind reports whether the supplied kind is known.
func ValidKind(kind Kind) bool {
	return internaldomain.ValidKind(kind)
}

// EmergencySections groups the five structured runbook fields.
type EmergencySections = internaldomain.EmergencySections

// Section pairs a runbook field with its storage key and display title.
type Section = internaldomain.Section

// SectionTitles maps section keys to their fixed display titles.
var SectionTitles = internaldomain.SectionTitles

// State is the derived lifecycle state of a document version.
type State = internaldomain.State

const (
	StateDraft                    = internaldomain.StateDraft
	StatePublishedCurrent         = internaldomain.StatePublishedCurrent
	StatePublishedSuperseded      = internaldomain.StatePublishedSuperseded
	StatePublishedCurrentRevising = internaldomain.StatePublishedCurrentRevising
)

// StateOf derives the lifecycle state from the persisted tuple.
func StateOf(status Status, isCurrent bool, editStatus EditStatus) State {
	return internaldomain.StateOf(status, isCurrent, editStatus)
}
