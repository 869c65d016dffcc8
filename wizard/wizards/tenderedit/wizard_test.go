package tenderedit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tenderdesk/entity"
	"tenderdesk/internal/service/backend"
	"tenderdesk/wizard"
)

var now = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

type fakeTenders struct {
	mu      sync.Mutex
	tender  entity.Tender
	updates []entity.TenderUpdate
	err     error
	// reply, when set, is what the backend returns for an update
	reply *entity.Tender
}

func (s *fakeTenders) GetTender(_ context.Context, id string) (*entity.Tender, error) {
	if id != s.tender.ID {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "Tender not found"}
	}
	t := s.tender
	return &t, nil
}

func (s *fakeTenders) UpdateTender(_ context.Context, id string, upd entity.TenderUpdate) (*entity.Tender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, upd)
	if s.err != nil {
		return nil, s.err
	}
	if s.reply != nil {
		r := *s.reply
		return &r, nil
	}
	return &entity.Tender{ID: id, Status: upd.Status}, nil
}

func (s *fakeTenders) Updates() []entity.TenderUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

func closedTender() entity.Tender {
	return entity.Tender{
		ID:          "t-42",
		Title:       "Office fit-out in West Bay",
		Description: "Full interior fit-out of a 400 sqm office floor including partitions.",
		Category:    "construction",
		Budget:      250000,
		Location:    "Doha",
		Deadline:    now.AddDate(0, -1, 0),
		Status:      entity.TenderClosed,
	}
}

func start(t *testing.T, svc *fakeTenders, settings Settings) wizard.Session {
	t.Helper()
	factory := NewFactory(svc, settings, slog.New(slog.DiscardHandler))
	s, err := factory(context.Background(), wizard.StartParams{Subject: svc.tender.ID}, wizard.Options{
		ID:  "edit-1",
		Now: func() time.Time { return now },
	})
	require.NoError(t, err)
	return s
}

func TestPastDeadlineHoldsScheduleStep(t *testing.T) {
	svc := &fakeTenders{tender: closedTender()}
	s := start(t, svc, Settings{})
	defer s.Close()

	v := s.View()
	assert.Equal(t, "250000", v.Values[FieldBudget])
	assert.Equal(t, now.AddDate(0, -1, 0).Format(deadlineLayout), v.Values[FieldDeadline])

	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	assert.Equal(t, StepSchedule, s.View().StepID)

	var gate *wizard.StepGateError
	require.ErrorAs(t, s.Next(), &gate)
	assert.Equal(t, []string{FieldDeadline}, gate.Fields)
	assert.Equal(t, "Deadline must be in the future", s.Errors()[FieldDeadline])
	assert.Equal(t, StepSchedule, s.View().StepID)

	require.NoError(t, s.SetField(FieldDeadline, now.AddDate(3, 0, 0).Format(deadlineLayout)))
	assert.Equal(t, "Deadline cannot be more than 2 years ahead", s.Errors()[FieldDeadline])

	require.NoError(t, s.SetField(FieldDeadline, now.AddDate(0, 1, 0).Format(deadlineLayout)))
	assert.NotContains(t, s.Errors(), FieldDeadline)
	require.NoError(t, s.Next())
	assert.Equal(t, StepAttachments, s.View().StepID)
}

func TestContactInfoInDescription(t *testing.T) {
	svc := &fakeTenders{tender: closedTender()}
	s := start(t, svc, Settings{})
	defer s.Close()

	require.NoError(t, s.SetField(FieldDescription, "Full interior fit-out, call me at 555-123-4567 for details"))
	assert.Equal(t, "Sharing contact details (phone) is not allowed", s.Errors()[FieldDescription])

	var gate *wizard.StepGateError
	require.ErrorAs(t, s.Next(), &gate)
	assert.Equal(t, []string{FieldDescription}, gate.Fields)
}

func TestSubmitReopensAndResets(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := &fakeTenders{tender: closedTender()}
	s := start(t, svc, Settings{ResetDelay: 20 * time.Millisecond})

	require.NoError(t, s.Next())
	require.NoError(t, s.SetField(FieldBudget, "300,000"))
	require.NoError(t, s.Next())
	deadline := now.AddDate(0, 2, 0)
	require.NoError(t, s.SetField(FieldDeadline, deadline.Format(deadlineLayout)))
	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	assert.True(t, s.View().CanSubmit)

	require.NoError(t, s.Submit(context.Background()))

	updates := svc.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, 300000.0, updates[0].Budget)
	assert.True(t, updates[0].Deadline.Equal(deadline))
	assert.Equal(t, entity.TenderOpen, updates[0].Status)
	assert.Equal(t, "Office fit-out in West Bay", updates[0].Title)

	assert.Equal(t, wizard.LifecycleSuccess, s.View().Lifecycle)
	assert.ErrorIs(t, s.Resend(context.Background()), wizard.ErrResendUnsupported)

	require.Eventually(t, func() bool {
		v := s.View()
		return v.Lifecycle == wizard.LifecycleIdle && v.Step == 0
	}, time.Second, 2*time.Millisecond)

	v := s.View()
	assert.Equal(t, "300000", v.Values[FieldBudget], "the reset form is seeded from the updated tender")
	assert.Equal(t, deadline.Format(deadlineLayout), v.Values[FieldDeadline])

	s.Close()
}

func TestSubmitRejected(t *testing.T) {
	svc := &fakeTenders{
		tender: closedTender(),
		err:    &backend.APIError{Status: http.StatusForbidden, Message: "Only the owner can reopen this tender"},
	}
	svc.tender.Deadline = now.AddDate(0, 1, 0)
	s := start(t, svc, Settings{})
	defer s.Close()

	for range 4 {
		require.NoError(t, s.Next())
	}
	err := s.Submit(context.Background())
	var se *wizard.SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Only the owner can reopen this tender", s.Errors()[wizard.GeneralKey])
	assert.Equal(t, wizard.LifecycleError, s.View().Lifecycle)
}

func TestFactoryErrors(t *testing.T) {
	svc := &fakeTenders{tender: closedTender()}
	factory := NewFactory(svc, Settings{}, slog.New(slog.DiscardHandler))

	_, err := factory(context.Background(), wizard.StartParams{}, wizard.Options{})
	assert.ErrorIs(t, err, ErrNoTender)

	_, err = factory(context.Background(), wizard.StartParams{Subject: "missing"}, wizard.Options{})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, backend.StatusOf(err))
}

func TestFormSet(t *testing.T) {
	f := &Form{}
	require.NoError(t, f.Set(FieldBudget, 1500.5))
	assert.Equal(t, "1500.5", f.Budget)
	assert.ErrorIs(t, f.Set(FieldTitle, 12.0), wizard.ErrInvalidValue)
	assert.ErrorIs(t, f.Set("owner", "x"), wizard.ErrUnknownField)

	_, err := Update(&Form{Budget: "abc", Deadline: "2027-01-01"}, time.UTC)
	assert.True(t, errors.Is(err, wizard.ErrInvalidValue))
	assert.True(t, strings.Contains(err.Error(), FieldBudget))
}

func TestBackendReplyReplacesRecord(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := &fakeTenders{tender: closedTender()}
	svc.tender.Deadline = now.AddDate(0, 1, 0)
	svc.reply = &entity.Tender{
		ID:     "t-42",
		Title:  "Office fit-out, West Bay tower",
		Budget: 275000,
		Status: entity.TenderOpen,
	}
	s := start(t, svc, Settings{ResetDelay: 10 * time.Millisecond})

	for range 4 {
		require.NoError(t, s.Next())
	}
	require.NoError(t, s.Submit(context.Background()))

	require.Eventually(t, func() bool {
		return s.View().Lifecycle == wizard.LifecycleIdle
	}, time.Second, 2*time.Millisecond)

	v := s.View()
	assert.Equal(t, "Office fit-out, West Bay tower", v.Values[FieldTitle])
	assert.Equal(t, "275000", v.Values[FieldBudget])
	assert.Equal(t, "Doha", v.Values[FieldLocation], "fields missing from the reply keep the submitted value")

	s.Close()
}

func TestDeadlineReadInConfiguredZone(t *testing.T) {
	defer goleak.VerifyNone(t)

	doha := time.FixedZone("AST", 3*60*60)
	svc := &fakeTenders{tender: closedTender()}
	s := start(t, svc, Settings{Location: doha, ResetDelay: 10 * time.Millisecond})

	v := s.View()
	assert.Equal(t, now.AddDate(0, -1, 0).In(doha).Format(deadlineLayout), v.Values[FieldDeadline])

	// 12:00 UTC is 15:00 in Doha, so 14:00 local has already passed
	require.NoError(t, s.SetField(FieldDeadline, "2026-10-15T14:00"))
	assert.Equal(t, "Deadline must be in the future", s.Errors()[FieldDeadline])

	require.NoError(t, s.SetField(FieldDeadline, "2026-11-15T23:00"))
	assert.NotContains(t, s.Errors(), FieldDeadline)

	for range 4 {
		require.NoError(t, s.Next())
	}
	require.NoError(t, s.Submit(context.Background()))

	updates := svc.Updates()
	require.Len(t, updates, 1)
	want := time.Date(2026, time.November, 15, 20, 0, 0, 0, time.UTC)
	assert.True(t, updates[0].Deadline.Equal(want), updates[0].Deadline.String())

	require.Eventually(t, func() bool {
		return s.View().Lifecycle == wizard.LifecycleIdle
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, "2026-11-15T23:00", s.View().Values[FieldDeadline])

	s.Close()
}
