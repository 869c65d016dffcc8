package wizard

import (
	"context"
	"io"
	"time"
)

// Kind identifies a wizard configuration.
type Kind string

// StepID is a unique identifier for a step within a wizard.
type StepID string

// StepDefinition is one entry of a wizard's ordered step table. Its index is
// the step pointer.
type StepDefinition struct {
	ID          StepID
	Title       string
	Description string
	// Fields lists every field rendered on the step.
	Fields []string
	// RequiredFields must validate before Next leaves the step.
	RequiredFields []string
	// FileFields accept uploads; a pending upload on one of them holds the step.
	FileFields []string
}

// Form is the closed, per-wizard field record. F is the concrete pointer type,
// so Clone hands the gateway a private copy.
type Form[F any] interface {
	// Fields returns every field name in display order.
	Fields() []string
	// Set assigns one field; unknown names return ErrUnknownField.
	Set(field string, value any) error
	// Values returns the non-secret field values.
	Values() map[string]any
	Clone() F
}

// Wizard describes a concrete wizard: its step table, validation and the one
// external call it submits.
type Wizard[F Form[F]] interface {
	Kind() Kind
	Steps() []StepDefinition
	NewForm() F
	// Validate must be pure: the same field, form and time give the same result.
	Validate(field string, form F, now time.Time) error
	Submit(ctx context.Context, form F) error
}

// Resender is implemented by wizards that offer a repeatable follow-up call
// after a successful submit, such as resending a verification email.
type Resender[F Form[F]] interface {
	Resend(ctx context.Context, form F) error
}

// Resetter is implemented by wizards that return to their first step after a
// successful submit has been shown for ResetDelay.
type Resetter interface {
	ResetDelay() time.Duration
}

// Uploader stores a file with an asset host and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Translator resolves message keys for a locale.
type Translator interface {
	T(locale, key string, params map[string]any, fallback string) string
}

// Observer is notified after every state change of a session. Ticked
// reports a cooldown tick, which changes only the view.
type Observer interface {
	Changed(s Session)
	Ticked(s Session)
}

// Broadcaster pushes views to live subscribers of a session.
type Broadcaster interface {
	Publish(sessionID string, v View)
	Closed(sessionID string)
}

// Storage persists session snapshots.
type Storage interface {
	Save(ctx context.Context, s Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// Session is the kind-independent face of a Controller.
type Session interface {
	ID() string
	Kind() Kind
	SetField(name string, value any) error
	Blur(name string) error
	Next() error
	Back() error
	Submit(ctx context.Context) error
	Resend(ctx context.Context) error
	Upload(ctx context.Context, field, filename string, r io.Reader) error
	Errors() map[string]string
	// Explain renders an error returned by another method for the session's locale.
	Explain(err error) string
	View() View
	Snapshot() Snapshot
	Restore(s Snapshot) error
	Close()
}
