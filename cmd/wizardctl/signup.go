package main

import (
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tenderdesk/entity"
	"tenderdesk/internal/lib/i18n"
	"tenderdesk/internal/service/backend"
	"tenderdesk/wizard"
	"tenderdesk/wizard/wizards/signup"
)

var countryCode string

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account interactively",
	Long: `Walks through the sign up steps, validating every answer as it is
entered, and registers the account with the backend.`,
	RunE: runSignup,
}

func init() {
	signupCmd.Flags().StringVar(&countryCode, "country-code", signup.DefaultCountryCode, "default phone country code")
}

func signupPrompts() map[string]fieldPrompt {
	business := func(values map[string]any) bool {
		return values[signup.FieldAccountType] == string(entity.UserBusiness)
	}
	individual := func(values map[string]any) bool {
		return !business(values)
	}
	return map[string]fieldPrompt{
		signup.FieldAccountType: {
			Label:   "Account type",
			Kind:    promptSelect,
			Options: []string{string(entity.UserIndividual), string(entity.UserBusiness)},
		},
		signup.FieldFullName:     {Label: "Full name", When: individual},
		signup.FieldCompanyName:  {Label: "Company name", When: business},
		signup.FieldEmail:        {Label: "Email"},
		signup.FieldCountryCode:  {Label: "Country code"},
		signup.FieldPhone:        {Label: "Phone"},
		signup.FieldPassword:     {Label: "Password", Kind: promptPassword},
		signup.FieldDateOfBirth:  {Label: "Date of birth (YYYY-MM-DD)"},
		signup.FieldAgreeToTerms: {Label: "Do you agree to the terms of service?", Kind: promptConfirm},
	}
}

func runSignup(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log := newLogger()
	client := backend.New(backendURL, timeout, log)

	opts := wizard.Options{
		ID:     uuid.NewString(),
		Locale: locale,
		Log:    log,
	}
	if catalog, err := i18n.Load(); err == nil {
		opts.Translator = catalog
	}

	s := wizard.NewController[*signup.Form](signup.New(client, countryCode, log), opts)
	defer s.Close()

	return newSignupRunner(s, &surveyPrompter{out: cmd.OutOrStdout()}).run(ctx)
}

func newSignupRunner(s wizard.Session, p Prompter) *runner {
	return &runner{
		s:       s,
		p:       p,
		prompts: signupPrompts(),
		done:    "Account created. Check your inbox to verify your email.",
		resend:  "Resend the verification email?",
	}
}

