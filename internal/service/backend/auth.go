package backend

import (
	"context"
	"log/slog"

	"tenderdesk/entity"
)

// Register creates an account. A reply with success=false is returned as an
// APIError carrying the backend's reason.
func (c *Client) Register(ctx context.Context, reg entity.Registration) (*entity.AuthResult, error) {
	var res entity.AuthResult
	if err := c.Post(ctx, "/auth/register", reg, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return &res, &APIError{Status: 200, Message: res.Reason()}
	}
	c.log.Info("account registered", slog.Any("registration", reg))
	return &res, nil
}

func (c *Client) ResendVerificationEmail(ctx context.Context, email string) (*entity.AuthResult, error) {
	var res entity.AuthResult
	if err := c.Post(ctx, "/auth/resend-verification", entity.ResendVerification{Email: email}, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return &res, &APIError{Status: 200, Message: res.Reason()}
	}
	return &res, nil
}
