package tenderedit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"tenderdesk/entity"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/service/backend"
	"tenderdesk/wizard"
	"tenderdesk/wizard/contactinfo"
	"tenderdesk/wizard/rules"
)

const Kind wizard.Kind = "tender-edit"

// Step IDs
const (
	StepDetails     wizard.StepID = "details"
	StepBudget      wizard.StepID = "budget"
	StepSchedule    wizard.StepID = "schedule"
	StepAttachments wizard.StepID = "attachments"
	StepReview      wizard.StepID = "review"
)

const (
	deadlineLayout    = "2006-01-02T15:04"
	DefaultResetDelay = 2 * time.Second
	DefaultMaxBudget  = 100_000_000
)

var ErrNoTender = errors.New("tender id is required")

// TenderService defines the tender calls the wizard needs.
type TenderService interface {
	GetTender(ctx context.Context, id string) (*entity.Tender, error)
	UpdateTender(ctx context.Context, id string, upd entity.TenderUpdate) (*entity.Tender, error)
}

type Settings struct {
	MaxBudget     float64
	DeadlineYears int
	ResetDelay    time.Duration
	// Location reads and renders zone-less deadlines. Defaults to UTC.
	Location      *time.Location
}

func (s Settings) withDefaults() Settings {
	if s.MaxBudget <= 0 {
		s.MaxBudget = DefaultMaxBudget
	}
	if s.DeadlineYears <= 0 {
		s.DeadlineYears = rules.DeadlineYears
	}
	if s.ResetDelay <= 0 {
		s.ResetDelay = DefaultResetDelay
	}
	if s.Location == nil {
		s.Location = time.UTC
	}
	return s
}

// Wizard edits and reopens one tender. After a successful update the form is
// seeded from the updated record.
type Wizard struct {
	mu       sync.Mutex
	tender   entity.Tender
	service  TenderService
	settings Settings
	scanner  *contactinfo.Scanner
	log      *slog.Logger
}

func New(tender entity.Tender, service TenderService, settings Settings, log *slog.Logger) *Wizard {
	return &Wizard{
		tender:   tender,
		service:  service,
		settings: settings.withDefaults(),
		scanner:  contactinfo.New(),
		log:      log.With(sl.Module("tender-edit"), slog.String("tender", tender.ID)),
	}
}

// NewFactory loads the tender named by the session subject.
func NewFactory(service TenderService, settings Settings, log *slog.Logger) wizard.Factory {
	return func(ctx context.Context, p wizard.StartParams, opts wizard.Options) (wizard.Session, error) {
		if strings.TrimSpace(p.Subject) == "" {
			return nil, ErrNoTender
		}
		tender, err := service.GetTender(ctx, p.Subject)
		if err != nil {
			return nil, fmt.Errorf("loading tender: %w", err)
		}
		if tender.ID == "" {
			tender.ID = p.Subject
		}
		return wizard.NewController[*Form](New(*tender, service, settings, log), opts), nil
	}
}

func (w *Wizard) Kind() wizard.Kind {
	return Kind
}

func (w *Wizard) Steps() []wizard.StepDefinition {
	return []wizard.StepDefinition{
		{
			ID:             StepDetails,
			Title:          "Tender details",
			Description:    "What do you need?",
			Fields:         []string{FieldTitle, FieldDescription, FieldCategory},
			RequiredFields: []string{FieldTitle, FieldDescription, FieldCategory},
		},
		{
			ID:             StepBudget,
			Title:          "Budget and location",
			Description:    "How much and where",
			Fields:         []string{FieldBudget, FieldLocation},
			RequiredFields: []string{FieldBudget, FieldLocation},
		},
		{
			ID:             StepSchedule,
			Title:          "Schedule",
			Description:    "When should bids close?",
			Fields:         []string{FieldDeadline},
			RequiredFields: []string{FieldDeadline},
		},
		{
			ID:          StepAttachments,
			Title:       "Attachments",
			Description: "Add an image that describes the work",
			Fields:      []string{FieldImage},
			FileFields:  []string{FieldImage},
		},
		{
			ID:          StepReview,
			Title:       "Review",
			Description: "Check everything before reopening the tender",
		},
	}
}

func (w *Wizard) NewForm() *Form {
	w.mu.Lock()
	t := w.tender
	w.mu.Unlock()

	f := &Form{
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Location:    t.Location,
		Image:       t.Image,
	}
	if t.Budget > 0 {
		f.Budget = formatAmount(t.Budget)
	}
	if !t.Deadline.IsZero() {
		f.Deadline = t.Deadline.In(w.settings.Location).Format(deadlineLayout)
	}
	return f
}

func (w *Wizard) Validate(field string, f *Form, now time.Time) error {
	switch field {
	case FieldTitle:
		return rules.FreeText(f.Title, 10, 100, w.scanner)
	case FieldDescription:
		return rules.FreeText(f.Description, 20, 5000, w.scanner)
	case FieldCategory:
		return rules.Choice(f.Category, entity.TenderCategories)
	case FieldBudget:
		return rules.Budget(f.Budget, w.settings.MaxBudget)
	case FieldLocation:
		return rules.Text(f.Location, 2, 100)
	case FieldDeadline:
		return rules.Deadline(f.Deadline, now.In(w.settings.Location), w.settings.DeadlineYears)
	}
	return nil
}

// Update builds the update payload, reopening the tender. Zone-less
// deadlines are read in loc.
func Update(f *Form, loc *time.Location) (entity.TenderUpdate, error) {
	budget, ok := rules.ParseAmount(f.Budget)
	if !ok {
		return entity.TenderUpdate{}, wizard.InvalidValue(FieldBudget, f.Budget)
	}
	deadline, ok := rules.ParseDate(f.Deadline, loc)
	if !ok {
		return entity.TenderUpdate{}, wizard.InvalidValue(FieldDeadline, f.Deadline)
	}
	return entity.TenderUpdate{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Category:    f.Category,
		Budget:      budget,
		Location:    strings.TrimSpace(f.Location),
		Deadline:    deadline,
		Image:       f.Image,
		Status:      entity.TenderOpen,
	}, nil
}

func (w *Wizard) Submit(ctx context.Context, f *Form) error {
	upd, err := Update(f, w.settings.Location)
	if err != nil {
		return err
	}

	w.mu.Lock()
	id := w.tender.ID
	w.mu.Unlock()

	tender, err := w.service.UpdateTender(ctx, id, upd)
	if err != nil {
		if msg := backend.MessageOf(err); msg != "" {
			return &wizard.SubmitError{Message: msg, Err: err}
		}
		return err
	}

	w.mu.Lock()
	w.tender = updated(w.tender, upd, tender)
	w.mu.Unlock()

	w.log.Info("tender reopened", slog.Time("deadline", upd.Deadline))
	return nil
}

// updated applies upd to the local record, then lets every field the backend
// returned replace it.
func updated(local entity.Tender, upd entity.TenderUpdate, reply *entity.Tender) entity.Tender {
	local.Title = upd.Title
	local.Description = upd.Description
	local.Category = upd.Category
	local.Budget = upd.Budget
	local.Location = upd.Location
	local.Deadline = upd.Deadline
	local.Image = upd.Image
	local.Status = upd.Status
	if reply == nil {
		return local
	}
	if reply.Title != "" {
		local.Title = reply.Title
	}
	if reply.Description != "" {
		local.Description = reply.Description
	}
	if reply.Category != "" {
		local.Category = reply.Category
	}
	if reply.Budget > 0 {
		local.Budget = reply.Budget
	}
	if reply.Location != "" {
		local.Location = reply.Location
	}
	if !reply.Deadline.IsZero() {
		local.Deadline = reply.Deadline
	}
	if reply.Image != "" {
		local.Image = reply.Image
	}
	if reply.Status != "" {
		local.Status = reply.Status
	}
	return local
}

func (w *Wizard) ResetDelay() time.Duration {
	return w.settings.ResetDelay
}

func (w *Wizard) Tender() entity.Tender {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tender
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
