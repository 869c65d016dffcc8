package cont

import (
	"context"
)

type ctxKey string

const (
	tokenKey  ctxKey = "token"
	localeKey ctxKey = "locale"
)

func PutToken(c context.Context, token string) context.Context {
	return context.WithValue(c, tokenKey, token)
}

func GetToken(c context.Context) string {
	if token, ok := c.Value(tokenKey).(string); ok {
		return token
	}
	return ""
}

func PutLocale(c context.Context, locale string) context.Context {
	return context.WithValue(c, localeKey, locale)
}

func GetLocale(c context.Context) string {
	if locale, ok := c.Value(localeKey).(string); ok && locale != "" {
		return locale
	}
	return "en"
}
