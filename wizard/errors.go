package wizard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownField       = errors.New("unknown field")
	ErrUnknownKind        = errors.New("unknown wizard")
	ErrSessionNotFound    = errors.New("session not found")
	ErrClosed             = errors.New("session closed")
	ErrBusy               = errors.New("submission in progress")
	ErrCompleted          = errors.New("wizard already submitted")
	ErrLastStep           = errors.New("already on the last step")
	ErrNotFinalStep       = errors.New("submit is only available on the last step")
	ErrUploadPending      = errors.New("upload in progress")
	ErrUploadUnsupported  = errors.New("field does not accept uploads")
	ErrUploadSuperseded   = errors.New("field changed during upload")
	ErrCooldown           = errors.New("resend is cooling down")
	ErrNotSubmitted       = errors.New("nothing to resend before a successful submit")
	ErrResendUnsupported  = errors.New("wizard has no resend action")
	ErrInvalidValue       = errors.New("invalid value")
	errSnapshotKindDiffer = errors.New("snapshot belongs to another wizard")
)

// StepGateError is returned when required fields block a transition.
type StepGateError struct {
	Step   StepID
	Fields []string
}

func (e *StepGateError) Error() string {
	return fmt.Sprintf("step %s has invalid fields: %s", e.Step, strings.Join(e.Fields, ", "))
}

// FieldError is returned by a gateway when the backend rejected the value of
// one field, for example an email that is already registered.
type FieldError struct {
	Field   string
	Key     string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SubmitError carries a user facing message for a rejected submission.
type SubmitError struct {
	Key     string
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// InvalidValue reports a value of the wrong type for a form field.
func InvalidValue(field string, value any) error {
	return fmt.Errorf("%w %T for %s", ErrInvalidValue, value, field)
}

// UnknownField reports a field the form does not declare.
func UnknownField(field string) error {
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}
