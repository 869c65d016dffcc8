package answer

import (
	"context"

	"tenderdesk/entity"
)

type Core interface {
	CheckAnswer(ctx context.Context, text string) entity.ContactCheck
	PostAnswer(ctx context.Context, questionID string, answer entity.Answer) (entity.ContactCheck, error)
}
