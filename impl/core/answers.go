package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tenderdesk/entity"
	"tenderdesk/internal/lib/api/cont"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/wizard/contactinfo"
)

var (
	ErrAnswerBlocked      = errors.New("answer contains contact details")
	ErrAnswerEmpty        = errors.New("answer is empty")
	ErrServiceUnavailable = errors.New("service not available")
)

// CheckAnswer scans an answer for contact details. Only high severity
// detections make it not allowed; the rest are reported as warnings.
func (c *Core) CheckAnswer(ctx context.Context, text string) entity.ContactCheck {
	detections := c.scanner.Scan(text)
	check := entity.ContactCheck{
		Allowed:    true,
		Detections: make([]entity.Detection, 0, len(detections)),
	}
	for _, d := range detections {
		check.Detections = append(check.Detections, entity.Detection{
			Type:     string(d.Type),
			Severity: string(d.Severity),
			Match:    d.Match,
		})
	}
	if d, ok := contactinfo.FirstBlocking(detections); ok {
		check.Allowed = false
		check.Message = c.t(cont.GetLocale(ctx), "wizard.answer_blocked",
			map[string]any{"type": string(d.Type)}, "Answers cannot contain contact details")
	}
	return check
}

// PostAnswer forwards a checked answer, stripped of markup, to the backend.
func (c *Core) PostAnswer(ctx context.Context, questionID string, answer entity.Answer) (entity.ContactCheck, error) {
	check := c.CheckAnswer(ctx, answer.Body)
	if !check.Allowed {
		return check, ErrAnswerBlocked
	}

	answer.Body = strings.TrimSpace(c.scanner.Sanitize(answer.Body))
	if answer.Body == "" {
		return check, ErrAnswerEmpty
	}
	if c.answers == nil {
		return check, ErrServiceUnavailable
	}

	if err := c.answers.PostAnswer(ctx, questionID, answer); err != nil {
		c.log.With(
			slog.String("question", questionID),
			sl.Err(err),
		).Warn("post answer")
		return check, fmt.Errorf("posting answer: %w", err)
	}
	return check, nil
}
