package wizards

import (
	"context"
	"net/http"

	"tenderdesk/wizard"
)

type Core interface {
	StartWizard(ctx context.Context, kind wizard.Kind, p wizard.StartParams) (wizard.Session, error)
	Session(ctx context.Context, kind wizard.Kind, id string) (wizard.Session, error)
	CloseWizard(ctx context.Context, kind wizard.Kind, id string) error
	ServeViews(w http.ResponseWriter, r *http.Request, s wizard.Session) error
}
