package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DefaultChannel tags events emitted by this module.
const DefaultChannel = "knowledge"

// Event describes one lifecycle action taken on a document. Identifier
// fields are strings so emitters never fail on malformed input; sinks decide
// how strict to be.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Notifier receives emitted events. Implementations must tolerate concurrent
// calls.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Emitter fans events out to the configured notifiers. A nil or disabled
// emitter drops everything, so callers never need to guard emission sites.
type Emitter struct {
	notifiers []Notifier
	enabled   bool
	now       func() time.Time
}

// EmitterOption configures the emitter at construction time.
type EmitterOption func(*Emitter)

// WithNotifier registers a notifier. Nil notifiers are ignored.
func WithNotifier(notifier Notifier) EmitterOption {
	return func(e *Emitter) {
		if notifier != nil {
			e.notifiers = append(e.notifiers, notifier)
		}
	}
}

// WithClock overrides the clock used to stamp events without a timestamp.
func WithClock(clock func() time.Time) EmitterOption {
	return func(e *Emitter) {
		if clock != nil {
			e.now = clock
		}
	}
}

// NewEmitter builds an emitter. Disabled emitters keep their notifiers but
// drop every event.
func NewEmitter(enabled bool, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		enabled: enabled,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enabled reports whether Emit will deliver events anywhere.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && len(e.notifiers) > 0
}

// Emit delivers the event to every notifier. Events without a verb are
// dropped. Notifier failures are collected, never short-circuited, so one
// failing sink cannot starve the others.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Verb) == "" {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = DefaultChannel
	}

	var errs []error
	for _, notifier := range e.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
