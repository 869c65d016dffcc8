package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"tenderdesk/internal/lib/sl"
	"tenderdesk/wizard/rules"
)

const DefaultCooldownSeconds = 30

// Options configures a Controller.
type Options struct {
	ID      string
	Subject string
	Locale  string

	Now             func() time.Time
	Uploader        Uploader
	Translator      Translator
	Observer        Observer
	CooldownSeconds int
	NewTicker       func(time.Duration) Ticker
	Log             *slog.Logger
}

// Controller runs one wizard session: step pointer, form, touched fields,
// submission lifecycle and the resend cooldown. All methods are safe for
// concurrent use; external calls run without the lock held.
type Controller[F Form[F]] struct {
	mu sync.Mutex

	id      string
	subject string
	locale  string

	wizard   Wizard[F]
	steps    []StepDefinition
	fields   []string
	fieldSet map[string]struct{}
	files    map[string]struct{}

	form      F
	step      int
	completed []bool
	touched   map[string]struct{}
	lifecycle Lifecycle
	general   string
	resending bool
	closed    bool

	serverErrors map[string]string
	uploadErrors map[string]string
	pending      map[string]int
	// writes counts assignments per field; an upload only lands if none
	// happened since it started.
	writes map[string]uint64

	cooldown        *Cooldown
	cooldownSeconds int
	resetTimer      *time.Timer

	now        func() time.Time
	uploader   Uploader
	translator Translator
	observer   Observer
	log        *slog.Logger
}

// NewController creates a session at step 0 with a fresh form.
func NewController[F Form[F]](w Wizard[F], opts Options) *Controller[F] {
	c := &Controller[F]{
		id:              opts.ID,
		subject:         opts.Subject,
		locale:          opts.Locale,
		wizard:          w,
		steps:           w.Steps(),
		fieldSet:        make(map[string]struct{}),
		files:           make(map[string]struct{}),
		writes:          make(map[string]uint64),
		cooldownSeconds: opts.CooldownSeconds,
		now:             opts.Now,
		uploader:        opts.Uploader,
		translator:      opts.Translator,
		observer:        opts.Observer,
		log:             opts.Log,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.cooldownSeconds <= 0 {
		c.cooldownSeconds = DefaultCooldownSeconds
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	c.log = c.log.With(sl.Module("wizard"), slog.String("session", c.id), slog.String("kind", string(w.Kind())))

	c.resetLocked()
	for _, f := range c.form.Fields() {
		c.fields = append(c.fields, f)
		c.fieldSet[f] = struct{}{}
	}
	for _, s := range c.steps {
		for _, f := range s.FileFields {
			c.files[f] = struct{}{}
		}
	}
	c.cooldown = NewCooldown(opts.NewTicker, func(int) { c.ticked() })
	return c
}

func (c *Controller[F]) ID() string {
	return c.id
}

func (c *Controller[F]) Kind() Kind {
	return c.wizard.Kind()
}

// resetLocked returns the session to its initial state.
func (c *Controller[F]) resetLocked() {
	c.form = c.wizard.NewForm()
	c.step = 0
	c.completed = make([]bool, len(c.steps))
	c.touched = make(map[string]struct{})
	c.serverErrors = make(map[string]string)
	c.uploadErrors = make(map[string]string)
	c.pending = make(map[string]int)
	c.lifecycle = LifecycleIdle
	c.general = ""
}

func (c *Controller[F]) changed() {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed || c.observer == nil {
		return
	}
	c.observer.Changed(c)
}

func (c *Controller[F]) ticked() {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed || c.observer == nil {
		return
	}
	c.observer.Ticked(c)
}

func (c *Controller[F]) editableLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.lifecycle == LifecycleSuccess {
		return ErrCompleted
	}
	return nil
}

func (c *Controller[F]) navigableLocked() error {
	if err := c.editableLocked(); err != nil {
		return err
	}
	if c.lifecycle == LifecycleSubmitting {
		return ErrBusy
	}
	return nil
}

// SetField assigns a value and marks the field touched.
func (c *Controller[F]) SetField(name string, value any) error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if _, ok := c.fieldSet[name]; !ok {
		c.mu.Unlock()
		return UnknownField(name)
	}
	if err := c.form.Set(name, value); err != nil {
		c.mu.Unlock()
		return err
	}
	c.writes[name]++
	c.touched[name] = struct{}{}
	delete(c.serverErrors, name)
	delete(c.uploadErrors, name)
	c.mu.Unlock()

	c.changed()
	return nil
}

// Blur marks a field touched without changing its value.
func (c *Controller[F]) Blur(name string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if _, ok := c.fieldSet[name]; !ok {
		c.mu.Unlock()
		return UnknownField(name)
	}
	_, seen := c.touched[name]
	c.touched[name] = struct{}{}
	c.mu.Unlock()

	if !seen {
		c.changed()
	}
	return nil
}

func (c *Controller[F]) invalidLocked(step int, now time.Time) []string {
	var invalid []string
	for _, f := range c.steps[step].RequiredFields {
		if c.wizard.Validate(f, c.form, now) != nil {
			invalid = append(invalid, f)
		}
	}
	return invalid
}

func (c *Controller[F]) uploadingLocked(step int) bool {
	for _, f := range c.steps[step].FileFields {
		if c.pending[f] > 0 {
			return true
		}
	}
	return false
}

func (c *Controller[F]) anyUploadLocked() bool {
	for _, n := range c.pending {
		if n > 0 {
			return true
		}
	}
	return false
}

func (c *Controller[F]) touchLocked(fields []string) {
	for _, f := range fields {
		c.touched[f] = struct{}{}
	}
}

// Next advances one step when every required field of the current step is
// valid and no upload on it is in flight. On a gate failure the offending
// fields are marked touched so their errors show.
func (c *Controller[F]) Next() error {
	c.mu.Lock()
	if err := c.navigableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.step >= len(c.steps)-1 {
		c.mu.Unlock()
		return ErrLastStep
	}
	if invalid := c.invalidLocked(c.step, c.now()); len(invalid) > 0 {
		c.touchLocked(invalid)
		gate := &StepGateError{Step: c.steps[c.step].ID, Fields: invalid}
		c.mu.Unlock()
		c.changed()
		return gate
	}
	if c.uploadingLocked(c.step) {
		c.mu.Unlock()
		return ErrUploadPending
	}
	c.completed[c.step] = true
	c.step++
	c.log.Debug("step advanced", slog.String("step_id", string(c.steps[c.step].ID)))
	c.mu.Unlock()

	c.changed()
	return nil
}

// Back moves one step back without validating. It keeps data entered on
// later steps.
func (c *Controller[F]) Back() error {
	c.mu.Lock()
	if err := c.navigableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.step == 0 {
		c.mu.Unlock()
		return nil
	}
	c.step--
	c.mu.Unlock()

	c.changed()
	return nil
}

// Submit validates every step once more and performs the wizard's external
// call. While it is in flight further Submit, Next and Back calls return
// ErrBusy, so a double click results in a single call.
func (c *Controller[F]) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.navigableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.step != len(c.steps)-1 {
		c.mu.Unlock()
		return ErrNotFinalStep
	}
	if c.anyUploadLocked() {
		c.mu.Unlock()
		return ErrUploadPending
	}
	now := c.now()
	for i := range c.steps {
		if invalid := c.invalidLocked(i, now); len(invalid) > 0 {
			c.touchLocked(invalid)
			gate := &StepGateError{Step: c.steps[i].ID, Fields: invalid}
			c.mu.Unlock()
			c.changed()
			return gate
		}
	}
	c.lifecycle = LifecycleSubmitting
	c.general = ""
	clear(c.serverErrors)
	form := c.form.Clone()
	c.mu.Unlock()
	c.changed()

	c.log.Info("submitting")
	err := c.wizard.Submit(ctx, form)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log.Debug("submit finished after close", sl.Err(err))
		return ErrClosed
	}
	if err != nil {
		c.lifecycle = LifecycleError
		c.recordFailureLocked(err)
		c.mu.Unlock()
		c.log.Warn("submit failed", sl.Err(err))
		c.changed()
		return err
	}
	c.lifecycle = LifecycleSuccess
	c.completed[c.step] = true
	if _, ok := any(c.wizard).(Resender[F]); ok {
		c.cooldown.Arm(c.cooldownSeconds)
	}
	if r, ok := any(c.wizard).(Resetter); ok {
		c.resetTimer = time.AfterFunc(r.ResetDelay(), c.autoReset)
	}
	c.mu.Unlock()

	c.log.Info("submitted")
	c.changed()
	return nil
}

func (c *Controller[F]) recordFailureLocked(err error) {
	var fe *FieldError
	if errors.As(err, &fe) {
		if _, ok := c.fieldSet[fe.Field]; ok {
			c.serverErrors[fe.Field] = c.t(fe.Key, nil, fe.Message)
			c.touched[fe.Field] = struct{}{}
			return
		}
		c.general = c.t(fe.Key, nil, fe.Message)
		return
	}
	var se *SubmitError
	if errors.As(err, &se) {
		c.general = c.t(se.Key, nil, se.Message)
		return
	}
	c.general = c.t("wizard.submit_failed", nil, "Something went wrong, please try again")
}

func (c *Controller[F]) autoReset() {
	c.mu.Lock()
	if c.closed || c.lifecycle != LifecycleSuccess {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.resetTimer = nil
	c.mu.Unlock()

	c.log.Debug("session reset")
	c.changed()
}

// Resend repeats the follow-up call of a submitted wizard. It is refused
// while the cooldown runs and re-arms it on success.
func (c *Controller[F]) Resend(ctx context.Context) error {
	r, ok := any(c.wizard).(Resender[F])
	if !ok {
		return ErrResendUnsupported
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.lifecycle != LifecycleSuccess {
		c.mu.Unlock()
		return ErrNotSubmitted
	}
	if c.resending {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.cooldown.Remaining() > 0 {
		c.mu.Unlock()
		return ErrCooldown
	}
	c.resending = true
	c.general = ""
	form := c.form.Clone()
	c.mu.Unlock()
	c.changed()

	err := r.Resend(ctx, form)

	c.mu.Lock()
	c.resending = false
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.recordFailureLocked(err)
		c.mu.Unlock()
		c.log.Warn("resend failed", sl.Err(err))
		c.changed()
		return err
	}
	c.cooldown.Arm(c.cooldownSeconds)
	c.mu.Unlock()

	c.log.Info("resent")
	c.changed()
	return nil
}

// Upload sends a file for a file field and stores the resulting URL. Other
// fields stay editable meanwhile; a failure leaves the previous value. When
// the field was set or another upload started before this one finished, the
// result is dropped and ErrUploadSuperseded returned.
func (c *Controller[F]) Upload(ctx context.Context, field, filename string, r io.Reader) error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if _, ok := c.fieldSet[field]; !ok {
		c.mu.Unlock()
		return UnknownField(field)
	}
	if _, ok := c.files[field]; !ok || c.uploader == nil {
		c.mu.Unlock()
		return ErrUploadUnsupported
	}
	c.pending[field]++
	c.writes[field]++
	seq := c.writes[field]
	c.touched[field] = struct{}{}
	delete(c.uploadErrors, field)
	c.mu.Unlock()
	c.changed()

	url, err := c.uploader.Upload(ctx, filename, r)

	c.mu.Lock()
	if c.pending[field]--; c.pending[field] <= 0 {
		delete(c.pending, field)
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.writes[field] != seq {
		c.mu.Unlock()
		c.log.Debug("upload superseded", slog.String("field", field), sl.Err(err))
		c.changed()
		return ErrUploadSuperseded
	}
	if err == nil {
		err = c.form.Set(field, url)
	}
	if err != nil {
		c.uploadErrors[field] = c.t("wizard.upload_failed", nil, "Upload failed, please try again")
		c.mu.Unlock()
		c.log.Warn("upload failed", slog.String("field", field), sl.Err(err))
		c.changed()
		return err
	}
	c.mu.Unlock()

	c.changed()
	return nil
}

// Errors returns the visible error map: validation errors of touched fields,
// then upload and backend errors, plus the general entry.
func (c *Controller[F]) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorsLocked(c.now())
}

func (c *Controller[F]) errorsLocked(now time.Time) map[string]string {
	errs := make(map[string]string)
	for _, f := range c.fields {
		if msg, ok := c.uploadErrors[f]; ok {
			errs[f] = msg
			continue
		}
		if _, ok := c.touched[f]; !ok {
			continue
		}
		if err := c.wizard.Validate(f, c.form, now); err != nil {
			errs[f] = c.message(err)
			continue
		}
		if msg, ok := c.serverErrors[f]; ok {
			errs[f] = msg
		}
	}
	if c.general != "" {
		errs[GeneralKey] = c.general
	}
	return errs
}

// View derives the render state.
func (c *Controller[F]) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	last := len(c.steps) - 1
	busy := c.lifecycle == LifecycleSubmitting || c.lifecycle == LifecycleSuccess || c.closed

	v := View{
		ID:              c.id,
		Kind:            c.wizard.Kind(),
		Locale:          c.locale,
		Step:            c.step,
		StepID:          c.steps[c.step].ID,
		Values:          c.form.Values(),
		Errors:          c.errorsLocked(now),
		Touched:         sortedKeys(c.touched),
		Lifecycle:       c.lifecycle,
		CooldownSeconds: c.cooldown.Remaining(),
	}
	for f, n := range c.pending {
		if n > 0 {
			v.Uploading = append(v.Uploading, f)
		}
	}
	sort.Strings(v.Uploading)

	allValid := true
	for i, s := range c.steps {
		prefix := string(c.wizard.Kind()) + "." + string(s.ID)
		v.Steps = append(v.Steps, StepView{
			ID:          s.ID,
			Title:       c.t(prefix+".title", nil, s.Title),
			Description: c.t(prefix+".description", nil, s.Description),
			Fields:      slices.Clone(s.Fields),
			Required:    slices.Clone(s.RequiredFields),
			FileFields:  slices.Clone(s.FileFields),
			Completed:   c.completed[i],
			Current:     i == c.step,
		})
		if len(c.invalidLocked(i, now)) > 0 {
			allValid = false
		}
	}

	v.CanNext = !busy && c.step < last && len(c.invalidLocked(c.step, now)) == 0 && !c.uploadingLocked(c.step)
	v.CanBack = !busy && c.step > 0
	v.CanSubmit = !busy && c.step == last && allValid && !c.anyUploadLocked()
	if _, ok := any(c.wizard).(Resender[F]); ok {
		v.CanResend = !c.closed && c.lifecycle == LifecycleSuccess && !c.resending && v.CooldownSeconds == 0
	}
	return v
}

// Snapshot captures the persistent part of the session.
func (c *Controller[F]) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ID:        c.id,
		Kind:      c.wizard.Kind(),
		Subject:   c.subject,
		Locale:    c.locale,
		Step:      c.step,
		Completed: slices.Clone(c.completed),
		Touched:   sortedKeys(c.touched),
		Values:    c.form.Values(),
		General:   c.general,
		Lifecycle: c.lifecycle,
		UpdatedAt: c.now(),
	}
}

// Restore loads a snapshot into a fresh controller. An interrupted submission
// comes back as idle, and a finished resetting wizard comes back reset.
func (c *Controller[F]) Restore(s Snapshot) error {
	if s.Kind != c.wizard.Kind() {
		return errSnapshotKindDiffer
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range c.fields {
		v, ok := s.Values[f]
		if !ok || v == nil {
			continue
		}
		if err := c.form.Set(f, v); err != nil {
			return fmt.Errorf("restoring %s: %w", f, err)
		}
	}
	if s.Step >= 0 && s.Step < len(c.steps) {
		c.step = s.Step
	}
	copy(c.completed, s.Completed)
	for _, f := range s.Touched {
		if _, ok := c.fieldSet[f]; ok {
			c.touched[f] = struct{}{}
		}
	}
	c.general = s.General
	switch s.Lifecycle {
	case LifecycleError, LifecycleSuccess:
		c.lifecycle = s.Lifecycle
	default:
		c.lifecycle = LifecycleIdle
	}
	if _, ok := any(c.wizard).(Resetter); ok && c.lifecycle == LifecycleSuccess {
		c.resetLocked()
	}
	return nil
}

// Close releases the session's timers. Results of calls still in flight are
// discarded when they return.
func (c *Controller[F]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
	c.mu.Unlock()

	c.cooldown.Stop()
}

// Explain renders err for the session's locale.
func (c *Controller[F]) Explain(err error) string {
	if err == nil {
		return ""
	}
	var gate *StepGateError
	var fe *FieldError
	var se *SubmitError
	switch {
	case errors.As(err, &gate):
		return c.t("wizard.check_required", nil, "Check required fields")
	case errors.As(err, &fe):
		return c.t(fe.Key, nil, fe.Message)
	case errors.As(err, &se):
		return c.t(se.Key, nil, se.Message)
	case errors.Is(err, ErrUploadSuperseded):
		return c.t("wizard.upload_superseded", nil, "The field changed while the file was uploading")
	case errors.Is(err, ErrUploadPending):
		return c.t("wizard.upload_pending", nil, "Wait for the upload to finish")
	case errors.Is(err, ErrBusy):
		return c.t("wizard.busy", nil, "Submission in progress")
	case errors.Is(err, ErrClosed):
		return c.t("wizard.closed", nil, "This form was closed, please start again")
	case errors.Is(err, ErrCompleted):
		return c.t("wizard.completed", nil, "This form was already submitted")
	case errors.Is(err, ErrCooldown):
		return c.t("wizard.cooldown", map[string]any{"seconds": c.cooldown.Remaining()},
			"You can resend in {seconds} seconds")
	}
	var re *rules.Error
	if errors.As(err, &re) {
		return c.message(re)
	}
	return err.Error()
}

func (c *Controller[F]) message(err error) string {
	var re *rules.Error
	if errors.As(err, &re) {
		return c.t(re.Key, re.Params, re.Fallback)
	}
	return err.Error()
}

func (c *Controller[F]) t(key string, params map[string]any, fallback string) string {
	if c.translator == nil || key == "" {
		if len(params) == 0 {
			return fallback
		}
		return (&rules.Error{Params: params, Fallback: fallback}).Error()
	}
	return c.translator.T(c.locale, key, params, fallback)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
