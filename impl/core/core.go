package core

import (
	"context"
	"log/slog"
	"slices"
	"time"
	// zone data for hosts without a system database
	_ "time/tzdata"

	"tenderdesk/entity"
	"tenderdesk/internal/config"
	"tenderdesk/internal/lib/i18n"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/ws"
	"tenderdesk/wizard"
	"tenderdesk/wizard/contactinfo"
	"tenderdesk/wizard/wizards/signup"
	"tenderdesk/wizard/wizards/tenderedit"
)

const minSweepInterval = time.Minute

type PrefsRepository interface {
	GetPref(ctx context.Context, owner, key string) (bool, error)
	SetPref(ctx context.Context, owner, key string, value bool) error
}

type AnswerService interface {
	PostAnswer(ctx context.Context, questionID string, answer entity.Answer) error
}

type Core struct {
	conf       *config.Config
	manager    *wizard.Manager
	hub        *ws.Hub
	repo       PrefsRepository
	prefs      *memoryPrefs
	auth       signup.AuthService
	tenders    tenderedit.TenderService
	answers    AnswerService
	translator wizard.Translator
	scanner    *contactinfo.Scanner
	log        *slog.Logger
}

func New(conf *config.Config, manager *wizard.Manager, log *slog.Logger) *Core {
	return &Core{
		conf:    conf,
		manager: manager,
		prefs:   newMemoryPrefs(),
		scanner: contactinfo.New(),
		log:     log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo PrefsRepository) {
	c.repo = repo
}

func (c *Core) SetHub(hub *ws.Hub) {
	c.hub = hub
}

func (c *Core) SetAuthService(auth signup.AuthService) {
	c.auth = auth
}

func (c *Core) SetTenderService(tenders tenderedit.TenderService) {
	c.tenders = tenders
}

func (c *Core) SetAnswerService(answers AnswerService) {
	c.answers = answers
}

func (c *Core) SetTranslator(t wizard.Translator) {
	c.translator = t
}

// Init registers the wizards whose services are set and evicts idle sessions
// until ctx is done.
func (c *Core) Init(ctx context.Context) {
	if c.auth != nil {
		c.manager.Register(signup.Kind, wizard.Static[*signup.Form](signup.New(c.auth, c.conf.Wizard.DefaultCountry, c.log)))
	} else {
		c.log.Warn("signup wizard disabled: auth service not set")
	}

	if c.tenders != nil {
		settings := tenderedit.Settings{
			MaxBudget:     c.conf.Wizard.MaxBudget,
			DeadlineYears: c.conf.Wizard.DeadlineYears,
			ResetDelay:    c.conf.Wizard.ResetDelay,
			Location:      c.location(),
		}
		c.manager.Register(tenderedit.Kind, tenderedit.NewFactory(c.tenders, settings, c.log))
	} else {
		c.log.Warn("tender edit wizard disabled: tender service not set")
	}

	idle := c.conf.Wizard.IdleTimeout
	if idle <= 0 {
		return
	}
	interval := max(idle/2, minSweepInterval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.manager.Sweep(idle); n > 0 {
					c.log.With(slog.Int("evicted", n)).Debug("idle sessions swept")
				}
			}
		}
	}()
}

// Config returns the settings the web client needs before rendering a form.
func (c *Core) Config() entity.PublicConfig {
	kinds := c.manager.Kinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	slices.Sort(names)
	return entity.PublicConfig{
		RecaptchaSiteKey:   c.conf.Recaptcha.SiteKey,
		CooldownSeconds:    c.conf.Wizard.CooldownSeconds,
		DefaultCountryCode: c.conf.Wizard.DefaultCountry,
		Wizards:            names,
	}
}

func (c *Core) t(locale, key string, params map[string]any, fallback string) string {
	if c.translator == nil {
		return i18n.Format(fallback, params)
	}
	return c.translator.T(locale, key, params, fallback)
}

// location resolves the configured zone for zone-less dates, falling back
// to UTC.
func (c *Core) location() *time.Location {
	name := c.conf.Wizard.TimeZone
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		c.log.Warn("unknown time zone, using UTC", slog.String("time_zone", name), sl.Err(err))
		return time.UTC
	}
	return loc
}
