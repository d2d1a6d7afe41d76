package domain

import "strings"

// State is the derived lifecycle state of a document version. It is never
// persisted; it is computed from the (Status, IsCurrent, EditStatus) tuple.
type State string

const (
	StateDraft                    State = "draft"
	StatePublishedCurrent         State = "published_current"
	StatePublishedSuperseded      State = "published_superseded"
	StatePublishedCurrentRevising State = "published_current_revising"
)

// StateOf derives the lifecycle state from the persisted tuple.
func StateOf(status Status, isCurrent bool, editStatus EditStatus) State {
	if status != StatusPublished {
		return StateDraft
	}
	if !isCurrent {
		return StatePublishedSuperseded
	}
	if editStatus == EditStatusRevising {
		return StatePublishedCurrentRevising
	}
	return StatePublishedCurrent
}

// CanPublish reports whether a version in the given state may be published.
// Only drafts transition to published current.
func (s State) CanPublish() bool {
	return s == StateDraft
}

// CanStartRevision reports whether an in-place revision may be opened.
func (s State) CanStartRevision() bool {
	return s == StatePublishedCurrent
}

// CanUnpublish reports whether the version may return to draft. A current
// version with an open revision must cancel the revision first.
func (s State) CanUnpublish() bool {
	return s == StatePublishedCurrent
}

// NormalizeStatus coerces arbitrary status strings into a persisted Status.
func NormalizeStatus(input string) Status {
	value := strings.ToLower(strings.TrimSpace(input))
	switch Status(value) {
	case StatusPublished:
		return StatusPublished
	default:
		return StatusDraft
	}
}

// NormalizeEditStatus coerces arbitrary edit status strings, defaulting to none.
func NormalizeEditStatus(input string) EditStatus {
	value := strings.ToLower(strings.TrimSpace(input))
	switch EditStatus(value) {
	case EditStatusRevising:
		return EditStatusRevising
	default:
		return EditStatusNone
	}
}

// NormalizeKind coerces arbitrary kind strings, defaulting to standard.
func NormalizeKind(input string) Kind {
	value := strings.ToLower(strings.TrimSpace(input))
	switch Kind(value) {
	case KindEmergency:
		return KindEmergency
	default:
		return KindStandard
	}
}
