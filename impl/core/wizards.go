package core

import (
	"context"
	"errors"
	"net/http"

	"tenderdesk/internal/lib/api/cont"
	"tenderdesk/internal/ws"
	"tenderdesk/wizard"
)

var ErrStreamUnavailable = errors.New("view stream not available")

func (c *Core) StartWizard(ctx context.Context, kind wizard.Kind, p wizard.StartParams) (wizard.Session, error) {
	if p.Locale == "" {
		p.Locale = cont.GetLocale(ctx)
	}
	return c.manager.Start(ctx, kind, p)
}

// Session returns a live or restored session of kind. A session of another
// kind reads as not found.
func (c *Core) Session(ctx context.Context, kind wizard.Kind, id string) (wizard.Session, error) {
	s, err := c.manager.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Kind() != kind {
		return nil, wizard.ErrSessionNotFound
	}
	return s, nil
}

func (c *Core) CloseWizard(ctx context.Context, kind wizard.Kind, id string) error {
	if _, err := c.Session(ctx, kind, id); err != nil {
		return err
	}
	return c.manager.Close(ctx, id)
}

// ServeViews upgrades the request and streams the session's views.
func (c *Core) ServeViews(w http.ResponseWriter, r *http.Request, s wizard.Session) error {
	if c.hub == nil {
		return ErrStreamUnavailable
	}
	ws.ServeWs(c.hub, c.log, w, r, s.View())
	return nil
}

// HandleSetField applies a field event received over a view stream.
func (c *Core) HandleSetField(ctx context.Context, sessionID, field string, value any) error {
	s, err := c.manager.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err = s.SetField(field, value); err != nil {
		return errors.New(s.Explain(err))
	}
	return nil
}

func (c *Core) HandleBlur(ctx context.Context, sessionID, field string) error {
	s, err := c.manager.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err = s.Blur(field); err != nil {
		return errors.New(s.Explain(err))
	}
	return nil
}
