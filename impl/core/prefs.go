package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"tenderdesk/internal/lib/api/cont"
)

// ErrNoOwner is returned for preference calls without a bearer token.
var ErrNoOwner = errors.New("preferences need an authenticated caller")

type prefKey struct {
	owner string
	key   string
}

type memoryPrefs struct {
	mu     sync.RWMutex
	values map[prefKey]bool
}

func newMemoryPrefs() *memoryPrefs {
	return &memoryPrefs{values: make(map[prefKey]bool)}
}

func (m *memoryPrefs) GetPref(_ context.Context, owner, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[prefKey{owner, key}], nil
}

func (m *memoryPrefs) SetPref(_ context.Context, owner, key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[prefKey{owner, key}] = value
	return nil
}

func (c *Core) prefsRepo() PrefsRepository {
	if c.repo != nil {
		return c.repo
	}
	return c.prefs
}

// prefOwner identifies the caller by a digest of the forwarded token, so
// the token itself is never stored.
func prefOwner(ctx context.Context) (string, error) {
	token := cont.GetToken(ctx)
	if token == "" {
		return "", ErrNoOwner
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:]), nil
}

// GetPref reads a dashboard flag of the calling user. Without a database the
// flags live in memory until restart.
func (c *Core) GetPref(ctx context.Context, key string) (bool, error) {
	owner, err := prefOwner(ctx)
	if err != nil {
		return false, err
	}
	return c.prefsRepo().GetPref(ctx, owner, key)
}

func (c *Core) SetPref(ctx context.Context, key string, value bool) error {
	owner, err := prefOwner(ctx)
	if err != nil {
		return err
	}
	return c.prefsRepo().SetPref(ctx, owner, key, value)
}
