package backend

import (
	"context"
	"net/url"

	"tenderdesk/entity"
)

func (c *Client) PostAnswer(ctx context.Context, questionID string, answer entity.Answer) error {
	return c.Post(ctx, "/questions/"+url.PathEscape(questionID)+"/answers", answer, nil)
}
