package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"

	logFileName = "tenderdesk.log"
)

// SetupLogger builds the process logger. Local runs log text to stdout, dev and
// prod log JSON to a file under logPath and fall back to stdout when the file
// cannot be opened.
func SetupLogger(env, logPath string) *slog.Logger {
	var out io.Writer = os.Stdout
	if env != envLocal && logPath != "" {
		f, err := os.OpenFile(filepath.Join(logPath, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file: %v, logging to stdout\n", err)
		} else {
			out = f
		}
	}
	return newLogger(env, out)
}

func newLogger(env string, out io.Writer) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
