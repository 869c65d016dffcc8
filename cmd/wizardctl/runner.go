package main

import (
	"context"
	"errors"
	"fmt"

	"tenderdesk/wizard"
)

type promptKind int

const (
	promptInput promptKind = iota
	promptPassword
	promptConfirm
	promptSelect
)

// fieldPrompt describes how one form field is asked. When, if set, decides
// from the current values whether the field applies.
type fieldPrompt struct {
	Label   string
	Kind    promptKind
	Options []string
	When    func(values map[string]any) bool
}

// runner walks a session step by step, asking each field until it
// validates, and submits on the last step.
type runner struct {
	s       wizard.Session
	p       Prompter
	prompts map[string]fieldPrompt
	// done is shown after a successful submit.
	done string
	// resend, when set, is offered after a successful submit.
	resend string
}

func (r *runner) run(ctx context.Context) error {
	for {
		v := r.s.View()
		if v.Lifecycle == wizard.LifecycleSuccess {
			return r.afterSubmit(ctx)
		}

		step := v.Steps[v.Step]
		if err := r.p.Info(ctx, fmt.Sprintf("Step %d of %d: %s", v.Step+1, len(v.Steps), step.Title)); err != nil {
			return err
		}
		if err := r.ask(ctx, step.Fields); err != nil {
			return err
		}

		for {
			var err error
			if v.Step < len(v.Steps)-1 {
				err = r.s.Next()
			} else {
				err = r.s.Submit(ctx)
			}
			if err == nil {
				break
			}
			fields, err := r.recover(ctx, err)
			if err != nil {
				return err
			}
			if err = r.ask(ctx, fields); err != nil {
				return err
			}
		}
	}
}

// recover explains a rejected transition and returns the fields to ask again.
func (r *runner) recover(ctx context.Context, err error) ([]string, error) {
	var gate *wizard.StepGateError
	var fe *wizard.FieldError
	switch {
	case errors.As(err, &gate):
		if err := r.p.Info(ctx, r.s.Explain(err)); err != nil {
			return nil, err
		}
		return gate.Fields, nil
	case errors.As(err, &fe):
		if err := r.p.Info(ctx, r.s.Errors()[fe.Field]); err != nil {
			return nil, err
		}
		return []string{fe.Field}, nil
	}

	msg := r.s.Errors()[wizard.GeneralKey]
	if msg == "" {
		msg = r.s.Explain(err)
	}
	if err := r.p.Info(ctx, msg); err != nil {
		return nil, err
	}
	again, perr := r.p.Confirm(ctx, "Try again?", true)
	if perr != nil {
		return nil, perr
	}
	if !again {
		return nil, errAborted
	}
	return nil, nil
}

func (r *runner) ask(ctx context.Context, fields []string) error {
	for _, field := range fields {
		fp, ok := r.prompts[field]
		if !ok {
			continue
		}
		if fp.When != nil && !fp.When(r.s.View().Values) {
			continue
		}
		for {
			value, err := r.prompt(ctx, field, fp)
			if err != nil {
				return err
			}
			if err = r.s.SetField(field, value); err != nil {
				if err := r.p.Info(ctx, r.s.Explain(err)); err != nil {
					return err
				}
				continue
			}
			msg := r.s.Errors()[field]
			if msg == "" {
				break
			}
			if err = r.p.Info(ctx, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *runner) prompt(ctx context.Context, field string, fp fieldPrompt) (any, error) {
	current, _ := r.s.View().Values[field].(string)
	switch fp.Kind {
	case promptPassword:
		return r.p.Password(ctx, fp.Label)
	case promptConfirm:
		return r.p.Confirm(ctx, fp.Label, false)
	case promptSelect:
		return r.p.Select(ctx, fp.Label, fp.Options, current)
	default:
		return r.p.Input(ctx, fp.Label, current)
	}
}

func (r *runner) afterSubmit(ctx context.Context) error {
	if err := r.p.Info(ctx, r.done); err != nil {
		return err
	}
	if r.resend == "" {
		return nil
	}
	for {
		again, err := r.p.Confirm(ctx, r.resend, false)
		if err != nil || !again {
			return err
		}
		if err = r.s.Resend(ctx); err != nil {
			if err := r.p.Info(ctx, r.s.Explain(err)); err != nil {
				return err
			}
			continue
		}
		if err = r.p.Info(ctx, "Sent."); err != nil {
			return err
		}
	}
}
