package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenderdesk/entity"
	"tenderdesk/internal/config"
	"tenderdesk/internal/lib/api/cont"
	"tenderdesk/wizard"
	"tenderdesk/wizard/wizards/signup"
	"tenderdesk/wizard/wizards/tenderedit"
)

type okAuth struct{}

func (okAuth) Register(context.Context, entity.Registration) (*entity.AuthResult, error) {
	return &entity.AuthResult{Success: true}, nil
}

func (okAuth) ResendVerificationEmail(context.Context, string) (*entity.AuthResult, error) {
	return &entity.AuthResult{Success: true}, nil
}

type recordingAnswers struct {
	mu     sync.Mutex
	posted []entity.Answer
	err    error
}

func (r *recordingAnswers) PostAnswer(_ context.Context, _ string, a entity.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posted = append(r.posted, a)
	return r.err
}

type failingPrefs struct{}

func (failingPrefs) GetPref(context.Context, string, string) (bool, error) {
	return false, errors.New("mongodb connect error")
}

func (failingPrefs) SetPref(context.Context, string, string, bool) error {
	return errors.New("mongodb connect error")
}

func newCore(t *testing.T) (*Core, *wizard.Manager) {
	t.Helper()
	conf, err := config.Default()
	require.NoError(t, err)

	log := slog.New(slog.DiscardHandler)
	m := wizard.NewManager(nil, log)
	t.Cleanup(m.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c := New(conf, m, log)
	c.SetAuthService(okAuth{})
	c.Init(ctx)
	return c, m
}

func TestInitRegistersConfiguredWizards(t *testing.T) {
	c, m := newCore(t)
	assert.Equal(t, []wizard.Kind{signup.Kind}, m.Kinds())
	assert.Equal(t, []string{"signup"}, c.Config().Wizards)
	assert.Equal(t, 30, c.Config().CooldownSeconds)
	assert.Equal(t, "+974", c.Config().DefaultCountryCode)
}

func TestStartUsesRequestLocale(t *testing.T) {
	c, _ := newCore(t)

	ctx := cont.PutLocale(context.Background(), "ar")
	s, err := c.StartWizard(ctx, signup.Kind, wizard.StartParams{})
	require.NoError(t, err)
	assert.Equal(t, "ar", s.View().Locale)

	s, err = c.StartWizard(ctx, signup.Kind, wizard.StartParams{Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "en", s.View().Locale)
}

func TestSessionChecksKind(t *testing.T) {
	c, _ := newCore(t)
	ctx := context.Background()

	s, err := c.StartWizard(ctx, signup.Kind, wizard.StartParams{})
	require.NoError(t, err)

	got, err := c.Session(ctx, signup.Kind, s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = c.Session(ctx, tenderedit.Kind, s.ID())
	assert.ErrorIs(t, err, wizard.ErrSessionNotFound)

	assert.ErrorIs(t, c.CloseWizard(ctx, tenderedit.Kind, s.ID()), wizard.ErrSessionNotFound)
	require.NoError(t, c.CloseWizard(ctx, signup.Kind, s.ID()))
	_, err = c.Session(ctx, signup.Kind, s.ID())
	assert.ErrorIs(t, err, wizard.ErrSessionNotFound)
}

func TestStreamEventsReachSession(t *testing.T) {
	c, _ := newCore(t)
	ctx := context.Background()

	s, err := c.StartWizard(ctx, signup.Kind, wizard.StartParams{})
	require.NoError(t, err)

	require.NoError(t, c.HandleSetField(ctx, s.ID(), signup.FieldEmail, "bad"))
	require.NoError(t, c.HandleBlur(ctx, s.ID(), signup.FieldPhone))
	errs := s.Errors()
	assert.Equal(t, "Enter a valid email address", errs[signup.FieldEmail])
	assert.Equal(t, "This field is required", errs[signup.FieldPhone])

	err = c.HandleSetField(ctx, s.ID(), signup.FieldAgreeToTerms, "yes")
	require.Error(t, err)

	assert.ErrorIs(t, c.HandleBlur(ctx, "missing", signup.FieldPhone), wizard.ErrSessionNotFound)
	assert.ErrorIs(t, c.ServeViews(nil, nil, s), ErrStreamUnavailable)
}

func TestCheckAnswer(t *testing.T) {
	c, _ := newCore(t)
	ctx := context.Background()

	check := c.CheckAnswer(ctx, "Delivery within 10 days, see our profile")
	assert.True(t, check.Allowed)
	assert.Empty(t, check.Message)

	check = c.CheckAnswer(ctx, "Email me: sales@dohabuild.qa")
	assert.False(t, check.Allowed)
	assert.Equal(t, "Answers cannot contain contact details", check.Message)
	require.NotEmpty(t, check.Detections)
	assert.Equal(t, "email", check.Detections[0].Type)
	assert.Equal(t, "high", check.Detections[0].Severity)
}

func TestPostAnswer(t *testing.T) {
	c, _ := newCore(t)
	ctx := context.Background()

	_, err := c.PostAnswer(ctx, "q-1", entity.Answer{Body: "fine"})
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	answers := &recordingAnswers{}
	c.SetAnswerService(answers)

	_, err = c.PostAnswer(ctx, "q-1", entity.Answer{Body: "<b>Visit https://dohabuild.qa</b>"})
	assert.ErrorIs(t, err, ErrAnswerBlocked)

	_, err = c.PostAnswer(ctx, "q-1", entity.Answer{Body: "<script>alert(1)</script>"})
	assert.ErrorIs(t, err, ErrAnswerEmpty)

	check, err := c.PostAnswer(ctx, "q-1", entity.Answer{Body: "<p>We can deliver <b>next week</b></p>"})
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	require.Len(t, answers.posted, 1)
	assert.Equal(t, "We can deliver next week", answers.posted[0].Body)

	answers.err = errors.New("backend down")
	_, err = c.PostAnswer(ctx, "q-1", entity.Answer{Body: "Second answer"})
	assert.ErrorContains(t, err, "backend down")
}

func TestPrefsArePerCaller(t *testing.T) {
	c, _ := newCore(t)
	alice := cont.PutToken(context.Background(), "alice-token")
	bob := cont.PutToken(context.Background(), "bob-token")

	v, err := c.GetPref(alice, "hide_draft_prompt")
	require.NoError(t, err)
	assert.False(t, v)

	require.NoError(t, c.SetPref(alice, "hide_draft_prompt", true))
	v, err = c.GetPref(alice, "hide_draft_prompt")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = c.GetPref(bob, "hide_draft_prompt")
	require.NoError(t, err)
	assert.False(t, v, "another caller keeps its own flag")

	_, err = c.GetPref(context.Background(), "hide_draft_prompt")
	assert.ErrorIs(t, err, ErrNoOwner)
	assert.ErrorIs(t, c.SetPref(context.Background(), "hide_draft_prompt", true), ErrNoOwner)

	c.SetRepository(failingPrefs{})
	_, err = c.GetPref(alice, "hide_draft_prompt")
	assert.Error(t, err)
}

func TestPrefOwnerHidesToken(t *testing.T) {
	owner, err := prefOwner(cont.PutToken(context.Background(), "secret-token"))
	require.NoError(t, err)
	assert.Len(t, owner, 64)
	assert.NotContains(t, owner, "secret")

	again, err := prefOwner(cont.PutToken(context.Background(), "secret-token"))
	require.NoError(t, err)
	assert.Equal(t, owner, again)
}

func TestLocation(t *testing.T) {
	c, _ := newCore(t)
	assert.Equal(t, "Asia/Qatar", c.location().String())

	c.conf.Wizard.TimeZone = "Mars/Olympus"
	assert.Equal(t, time.UTC, c.location())

	c.conf.Wizard.TimeZone = ""
	assert.Equal(t, time.UTC, c.location())
}
