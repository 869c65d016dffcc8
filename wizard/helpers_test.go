package wizard

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"tenderdesk/wizard/rules"
)

type testForm struct {
	Name  string
	Email string
	Doc   string
	Agree bool
}

func (f *testForm) Fields() []string {
	return []string{"name", "email", "doc", "agree"}
}

func (f *testForm) Set(field string, value any) error {
	switch field {
	case "name", "email", "doc":
		s, ok := value.(string)
		if !ok {
			return InvalidValue(field, value)
		}
		switch field {
		case "name":
			f.Name = s
		case "email":
			f.Email = s
		default:
			f.Doc = s
		}
	case "agree":
		b, ok := value.(bool)
		if !ok {
			return InvalidValue(field, value)
		}
		f.Agree = b
	default:
		return UnknownField(field)
	}
	return nil
}

func (f *testForm) Values() map[string]any {
	return map[string]any{"name": f.Name, "email": f.Email, "doc": f.Doc, "agree": f.Agree}
}

func (f *testForm) Clone() *testForm {
	c := *f
	return &c
}

// testWizard submits into a counter. When block is set, Submit waits on it.
type testWizard struct {
	mu          sync.Mutex
	calls       int
	resendCalls int
	err         error
	resendErr   error
	block       chan struct{}
	submitted   []*testForm
}

func (w *testWizard) Kind() Kind { return "test" }

func (w *testWizard) Steps() []StepDefinition {
	return []StepDefinition{
		{ID: "one", Title: "One", Fields: []string{"name", "email"}, RequiredFields: []string{"name", "email"}},
		{ID: "two", Title: "Two", Fields: []string{"doc", "agree"}, RequiredFields: []string{"agree"}, FileFields: []string{"doc"}},
	}
}

func (w *testWizard) NewForm() *testForm { return &testForm{} }

func (w *testWizard) Validate(field string, f *testForm, _ time.Time) error {
	switch field {
	case "name":
		return rules.Text(f.Name, 2, 50)
	case "email":
		return rules.Email(f.Email)
	case "agree":
		return rules.Consent(f.Agree)
	}
	return nil
}

func (w *testWizard) Submit(ctx context.Context, f *testForm) error {
	w.mu.Lock()
	w.calls++
	w.submitted = append(w.submitted, f)
	block, err := w.block, w.err
	w.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (w *testWizard) Resend(_ context.Context, _ *testForm) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resendCalls++
	return w.resendErr
}

func (w *testWizard) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func (w *testWizard) ResendCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resendCalls
}

// resettingWizard has no resend action and resets after delay.
type resettingWizard struct {
	base  *testWizard
	delay time.Duration
}

func (w *resettingWizard) Kind() Kind                { return "resetting" }
func (w *resettingWizard) Steps() []StepDefinition   { return w.base.Steps() }
func (w *resettingWizard) NewForm() *testForm        { return w.base.NewForm() }
func (w *resettingWizard) ResetDelay() time.Duration { return w.delay }

func (w *resettingWizard) Validate(field string, f *testForm, now time.Time) error {
	return w.base.Validate(field, f, now)
}

func (w *resettingWizard) Submit(ctx context.Context, f *testForm) error {
	return w.base.Submit(ctx, f)
}

type fakeTicker struct {
	c chan time.Time
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()                  {}

// tickers hands out fake tickers and remembers the last one.
type tickers struct {
	mu  sync.Mutex
	all []*fakeTicker
}

func (ts *tickers) New(time.Duration) Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	ts.all = append(ts.all, t)
	return t
}

func (ts *tickers) Last() *fakeTicker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.all) == 0 {
		return nil
	}
	return ts.all[len(ts.all)-1]
}

func (ts *tickers) Count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.all)
}

type fakeUploader struct {
	block chan struct{}
	url   string
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, _ string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	if u.block != nil {
		select {
		case <-u.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return u.url, u.err
}

// switchUploader delegates to whichever uploader was set last.
type switchUploader struct {
	mu   sync.Mutex
	next Uploader
}

func (u *switchUploader) set(next Uploader) {
	u.mu.Lock()
	u.next = next
	u.mu.Unlock()
}

func (u *switchUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	u.mu.Lock()
	next := u.next
	u.mu.Unlock()
	return next.Upload(ctx, filename, r)
}

var errBoom = errors.New("boom")

func fillFirstStep(c *Controller[*testForm]) {
	_ = c.SetField("name", "Alice")
	_ = c.SetField("email", "alice@example.com")
}
