package prefs

import "context"

type Core interface {
	GetPref(ctx context.Context, key string) (bool, error)
	SetPref(ctx context.Context, key string, value bool) error
}
