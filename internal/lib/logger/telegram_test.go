package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []string
}

func (s *recordingSender) SendMessage(msg string) {
	s.messages = append(s.messages, msg)
}

func TestTelegramHandlerForwardsErrorsOnly(t *testing.T) {
	var buf bytes.Buffer
	sender := &recordingSender{}
	lg := SetupTelegramHandler(newLogger(envLocal, &buf), sender, slog.LevelError)

	lg.With(slog.String("module", "api")).Info("started")
	lg.With(slog.String("module", "api")).Error("submit failed", slog.String("session", "s1"))

	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "ERROR: submit failed")
	assert.Contains(t, sender.messages[0], "module: api")
	assert.Contains(t, sender.messages[0], "session: s1")
	assert.Contains(t, buf.String(), "started")
	assert.Contains(t, buf.String(), "submit failed")
}

func TestSetupTelegramHandlerWithoutSender(t *testing.T) {
	lg := newLogger(envProd, &bytes.Buffer{})
	assert.Same(t, lg, SetupTelegramHandler(lg, nil, slog.LevelError))
}
