package wizard

import "time"

// Lifecycle is the submission state of a session, orthogonal to its step.
type Lifecycle string

const (
	LifecycleIdle       Lifecycle = "idle"
	LifecycleSubmitting Lifecycle = "submitting"
	LifecycleSuccess    Lifecycle = "success"
	LifecycleError      Lifecycle = "error"
)

// GeneralKey is the ErrorMap entry for errors that belong to no field.
const GeneralKey = "general"

// StepView describes one step for rendering.
type StepView struct {
	ID          StepID   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
	Required    []string `json:"required"`
	FileFields  []string `json:"file_fields,omitempty"`
	Completed   bool     `json:"completed"`
	Current     bool     `json:"current"`
}

// View is a read-only picture of a session, derived on every call.
type View struct {
	ID              string            `json:"id"`
	Kind            Kind              `json:"kind"`
	Locale          string            `json:"locale"`
	Step            int               `json:"step"`
	StepID          StepID            `json:"step_id"`
	Steps           []StepView        `json:"steps"`
	Values          map[string]any    `json:"values"`
	Errors          map[string]string `json:"errors"`
	Touched         []string          `json:"touched"`
	Uploading       []string          `json:"uploading,omitempty"`
	Lifecycle       Lifecycle         `json:"lifecycle"`
	CooldownSeconds int               `json:"cooldown_seconds"`
	CanNext         bool              `json:"can_next"`
	CanBack         bool              `json:"can_back"`
	CanSubmit       bool              `json:"can_submit"`
	CanResend       bool              `json:"can_resend"`
}

// Snapshot is the persisted form of a session. Secret fields are never part
// of Values.
type Snapshot struct {
	ID        string         `json:"id" bson:"id"`
	Kind      Kind           `json:"kind" bson:"kind"`
	Subject   string         `json:"subject" bson:"subject"`
	Locale    string         `json:"locale" bson:"locale"`
	Step      int            `json:"step" bson:"step"`
	Completed []bool         `json:"completed" bson:"completed"`
	Touched   []string       `json:"touched" bson:"touched"`
	Values    map[string]any `json:"values" bson:"values"`
	General   string         `json:"general" bson:"general"`
	Lifecycle Lifecycle      `json:"lifecycle" bson:"lifecycle"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}
