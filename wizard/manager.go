package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tenderdesk/internal/lib/sl"
)

const persistTimeout = 5 * time.Second

// StartParams are the caller supplied values of a new session.
type StartParams struct {
	// Subject is the record the wizard works on, e.g. a tender id. Empty for
	// wizards that create a record.
	Subject string
	Locale  string
}

// Factory builds a session of one kind. It is used both for new sessions and
// for sessions restored from storage.
type Factory func(ctx context.Context, p StartParams, opts Options) (Session, error)

// Static returns a Factory for a wizard that needs no per-session setup.
func Static[F Form[F]](w Wizard[F]) Factory {
	return func(_ context.Context, _ StartParams, opts Options) (Session, error) {
		return NewController(w, opts), nil
	}
}

// Manager keeps the live sessions, persists their snapshots and pushes their
// views to subscribers.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]Session
	lastSeen  map[string]time.Time
	factories map[Kind]Factory

	// persist orders one session's snapshot writes with its delete.
	persist map[string]*sync.Mutex

	storage         Storage
	broadcaster     Broadcaster
	translator      Translator
	uploader        Uploader
	now             func() time.Time
	newTicker       func(time.Duration) Ticker
	cooldownSeconds int
	log             *slog.Logger
}

func NewManager(storage Storage, log *slog.Logger) *Manager {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		sessions:  make(map[string]Session),
		lastSeen:  make(map[string]time.Time),
		factories: make(map[Kind]Factory),
		persist:   make(map[string]*sync.Mutex),
		storage:   storage,
		now:       time.Now,
		log:       log.With(sl.Module("wizard-manager")),
	}
}

func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

func (m *Manager) SetTranslator(t Translator) {
	m.translator = t
}

func (m *Manager) SetUploader(u Uploader) {
	m.uploader = u
}

func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Manager) SetTicker(newTicker func(time.Duration) Ticker) {
	m.newTicker = newTicker
}

func (m *Manager) SetCooldown(seconds int) {
	m.cooldownSeconds = seconds
}

// Register adds a wizard kind.
func (m *Manager) Register(kind Kind, f Factory) {
	m.mu.Lock()
	m.factories[kind] = f
	m.mu.Unlock()
	m.log.Info("registered wizard", slog.String("kind", string(kind)))
}

func (m *Manager) Kinds() []Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]Kind, 0, len(m.factories))
	for k := range m.factories {
		kinds = append(kinds, k)
	}
	return kinds
}

// Stats counts the live sessions per kind.
func (m *Manager) Stats() map[Kind]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := make(map[Kind]int)
	for _, s := range m.sessions {
		stats[s.Kind()]++
	}
	return stats
}

func (m *Manager) options(id string, p StartParams) Options {
	return Options{
		ID:              id,
		Subject:         p.Subject,
		Locale:          p.Locale,
		Now:             m.now,
		Uploader:        m.uploader,
		Translator:      m.translator,
		Observer:        m,
		CooldownSeconds: m.cooldownSeconds,
		NewTicker:       m.newTicker,
		Log:             m.log,
	}
}

// persistLock returns the write lock of a session. Callers hold m.mu.
func (m *Manager) persistLock(id string) *sync.Mutex {
	l, ok := m.persist[id]
	if !ok {
		l = &sync.Mutex{}
		m.persist[id] = l
	}
	return l
}

func (m *Manager) factory(kind Kind) (Factory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return f, nil
}

// Start creates a session of kind and persists its initial snapshot.
func (m *Manager) Start(ctx context.Context, kind Kind, p StartParams) (Session, error) {
	f, err := m.factory(kind)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s, err := f(ctx, p, m.options(id, p))
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", kind, err)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.lastSeen[id] = m.now()
	lock := m.persistLock(id)
	m.mu.Unlock()

	lock.Lock()
	err = m.storage.Save(ctx, s.Snapshot())
	lock.Unlock()
	if err != nil {
		m.log.Error("saving initial snapshot", slog.String("session", id), sl.Err(err))
	}

	m.log.Info("session started",
		slog.String("session", id),
		slog.String("kind", string(kind)),
		slog.String("subject", p.Subject),
	)
	return s, nil
}

// Get returns a live session, restoring it from storage when it was evicted
// or the process restarted.
func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		m.lastSeen[id] = m.now()
	}
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	snap, err := m.storage.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}

	f, err := m.factory(snap.Kind)
	if err != nil {
		return nil, err
	}
	p := StartParams{Subject: snap.Subject, Locale: snap.Locale}
	s, err = f(ctx, p, m.options(id, p))
	if err != nil {
		return nil, fmt.Errorf("restoring %s: %w", snap.Kind, err)
	}
	if err = s.Restore(*snap); err != nil {
		s.Close()
		return nil, fmt.Errorf("restoring %s: %w", snap.Kind, err)
	}

	m.mu.Lock()
	if live, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		s.Close()
		return live, nil
	}
	m.sessions[id] = s
	m.lastSeen[id] = m.now()
	m.persistLock(id)
	m.mu.Unlock()

	m.log.Debug("session restored", slog.String("session", id), slog.String("kind", string(snap.Kind)))
	return s, nil
}

// Close ends a session and forgets its snapshot.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	delete(m.lastSeen, id)
	lock := m.persistLock(id)
	delete(m.persist, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}

	lock.Lock()
	err := m.storage.Delete(ctx, id)
	lock.Unlock()

	if m.broadcaster != nil {
		m.broadcaster.Closed(id)
	}
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	m.log.Info("session closed", slog.String("session", id))
	return nil
}

// Sweep evicts sessions idle for longer than maxIdle from memory. Their
// snapshots stay in storage, so a later Get restores them.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var idle []Session
	for id, seen := range m.lastSeen {
		if seen.Before(cutoff) {
			idle = append(idle, m.sessions[id])
			delete(m.sessions, id)
			delete(m.lastSeen, id)
			delete(m.persist, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		m.log.Debug("evicted idle sessions", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Shutdown stops every live session, keeping the snapshots.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	live := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	clear(m.sessions)
	clear(m.lastSeen)
	clear(m.persist)
	m.mu.Unlock()

	for _, s := range live {
		s.Close()
	}
}

// Changed persists and broadcasts the session. It implements Observer.
// Writes of one session are serialised; other sessions are not held up.
func (m *Manager) Changed(s Session) {
	id := s.ID()

	m.mu.Lock()
	lock, tracked := m.persist[id]
	m.mu.Unlock()
	if !tracked {
		return
	}
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	live, ok := m.sessions[id]
	if ok {
		m.lastSeen[id] = m.now()
	}
	m.mu.Unlock()
	if !ok || live != s {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.storage.Save(ctx, s.Snapshot()); err != nil {
		m.log.Error("saving snapshot", slog.String("session", id), sl.Err(err))
	}

	if m.broadcaster != nil {
		m.broadcaster.Publish(id, s.View())
	}
}

// Ticked broadcasts the view of a session whose cooldown advanced. The
// cooldown is not part of the snapshot, so nothing is saved.
func (m *Manager) Ticked(s Session) {
	m.mu.Lock()
	live, ok := m.sessions[s.ID()]
	m.mu.Unlock()
	if !ok || live != s || m.broadcaster == nil {
		return
	}
	m.broadcaster.Publish(s.ID(), s.View())
}
