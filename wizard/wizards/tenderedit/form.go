package tenderedit

import (
	"tenderdesk/wizard"
)

// Field keys
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldBudget      = "budget"
	FieldLocation    = "location"
	FieldDeadline    = "deadline"
	FieldImage       = "image"
)

var fields = []string{
	FieldTitle,
	FieldDescription,
	FieldCategory,
	FieldBudget,
	FieldLocation,
	FieldDeadline,
	FieldImage,
}

// Form holds the editable tender fields as entered. Budget and deadline stay
// text until submit so a half typed value can be shown back.
type Form struct {
	Title       string
	Description string
	Category    string
	Budget      string
	Location    string
	Deadline    string
	Image       string
}

func (f *Form) Fields() []string {
	return fields
}

func (f *Form) Set(field string, value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case float64:
		if field != FieldBudget {
			return wizard.InvalidValue(field, value)
		}
		s = formatAmount(v)
	default:
		return wizard.InvalidValue(field, value)
	}

	switch field {
	case FieldTitle:
		f.Title = s
	case FieldDescription:
		f.Description = s
	case FieldCategory:
		f.Category = s
	case FieldBudget:
		f.Budget = s
	case FieldLocation:
		f.Location = s
	case FieldDeadline:
		f.Deadline = s
	case FieldImage:
		f.Image = s
	default:
		return wizard.UnknownField(field)
	}
	return nil
}

func (f *Form) Values() map[string]any {
	return map[string]any{
		FieldTitle:       f.Title,
		FieldDescription: f.Description,
		FieldCategory:    f.Category,
		FieldBudget:      f.Budget,
		FieldLocation:    f.Location,
		FieldDeadline:    f.Deadline,
		FieldImage:       f.Image,
	}
}

func (f *Form) Clone() *Form {
	c := *f
	return &c
}
