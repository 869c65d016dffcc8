package signup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"tenderdesk/entity"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/service/backend"
	"tenderdesk/wizard"
	"tenderdesk/wizard/rules"
)

const Kind wizard.Kind = "signup"

// Step IDs
const (
	StepDetails  wizard.StepID = "details"
	StepSecurity wizard.StepID = "security"
)

const DefaultCountryCode = "+974"

var accountTypes = []string{string(entity.UserIndividual), string(entity.UserBusiness)}

var emailTakenRe = regexp.MustCompile(`(?i)(already (registered|exists|in use|taken))|(email.*(exists|taken))`)

// AuthService defines the account calls the wizard submits.
type AuthService interface {
	Register(ctx context.Context, reg entity.Registration) (*entity.AuthResult, error)
	ResendVerificationEmail(ctx context.Context, email string) (*entity.AuthResult, error)
}

// Wizard registers an individual or business account and can resend the
// verification email afterwards.
type Wizard struct {
	auth        AuthService
	countryCode string
	log         *slog.Logger
}

func New(auth AuthService, countryCode string, log *slog.Logger) *Wizard {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &Wizard{
		auth:        auth,
		countryCode: countryCode,
		log:         log.With(sl.Module("signup")),
	}
}

func (w *Wizard) Kind() wizard.Kind {
	return Kind
}

func (w *Wizard) Steps() []wizard.StepDefinition {
	details := []string{FieldAccountType, FieldFullName, FieldCompanyName, FieldEmail, FieldCountryCode, FieldPhone}
	security := []string{FieldPassword, FieldDateOfBirth, FieldAgreeToTerms}
	return []wizard.StepDefinition{
		{
			ID:             StepDetails,
			Title:          "Your details",
			Description:    "Tell us who you are and how to reach you",
			Fields:         details,
			RequiredFields: details,
		},
		{
			ID:             StepSecurity,
			Title:          "Secure your account",
			Description:    "Choose a password and confirm your eligibility",
			Fields:         security,
			RequiredFields: security,
		},
	}
}

func (w *Wizard) NewForm() *Form {
	return &Form{
		AccountType: entity.UserIndividual,
		CountryCode: w.countryCode,
	}
}

// Validate checks one field. The name fields depend on the account type.
func (w *Wizard) Validate(field string, f *Form, now time.Time) error {
	switch field {
	case FieldAccountType:
		return rules.Choice(string(f.AccountType), accountTypes)
	case FieldFullName:
		if f.isBusiness() {
			return nil
		}
		return rules.Text(f.FullName, 2, 100)
	case FieldCompanyName:
		if !f.isBusiness() {
			return nil
		}
		return rules.Text(f.CompanyName, 2, 100)
	case FieldEmail:
		return rules.Email(f.Email)
	case FieldCountryCode:
		return rules.CountryCode(f.CountryCode)
	case FieldPhone:
		return rules.Phone(f.Phone)
	case FieldPassword:
		return rules.Password(f.Password)
	case FieldDateOfBirth:
		return rules.DateOfBirth(f.DateOfBirth, now)
	case FieldAgreeToTerms:
		return rules.Consent(f.AgreeToTerms)
	}
	return nil
}

// Registration builds the register payload. The phone is sent with its
// country code.
func Registration(f *Form) entity.Registration {
	reg := entity.Registration{
		Email:        strings.TrimSpace(f.Email),
		Password:     f.Password,
		UserType:     f.AccountType,
		Phone:        strings.TrimSpace(f.CountryCode) + rules.Digits(f.Phone),
		DateOfBirth:  strings.TrimSpace(f.DateOfBirth),
		AgreeToTerms: f.AgreeToTerms,
	}
	if f.isBusiness() {
		reg.CompanyName = strings.TrimSpace(f.CompanyName)
	} else {
		reg.FullName = strings.TrimSpace(f.FullName)
	}
	return reg
}

func (w *Wizard) Submit(ctx context.Context, f *Form) error {
	reg := Registration(f)
	if _, err := w.auth.Register(ctx, reg); err != nil {
		w.log.With(
			slog.Any("registration", reg),
			sl.Err(err),
		).Debug("register rejected")
		return submitError(err)
	}
	return nil
}

func (w *Wizard) Resend(ctx context.Context, f *Form) error {
	if _, err := w.auth.ResendVerificationEmail(ctx, strings.TrimSpace(f.Email)); err != nil {
		return submitError(err)
	}
	return nil
}

// submitError sorts a backend failure into the field it concerns or a
// general message.
func submitError(err error) error {
	msg := backend.MessageOf(err)
	if backend.StatusOf(err) == http.StatusConflict || emailTakenRe.MatchString(msg) {
		if msg == "" {
			msg = "An account with this email already exists"
		}
		return &wizard.FieldError{Field: FieldEmail, Key: "wizard.email_taken", Message: msg}
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && msg != "" {
		return &wizard.SubmitError{Message: msg, Err: err}
	}
	return err
}
