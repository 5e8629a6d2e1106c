package utils

import (
	"bytes"
	"log/slog"
)

const slogTimeLayout = "2006-01-02 15:04:05"

// ErrAttr returns the attribute used for errors in every log line.
func ErrAttr(err error) slog.Attr {
	return slog.Any("error", err)
}

// SlogReplacer renders times and durations as plain strings.
func SlogReplacer(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindTime:
		return slog.String(a.Key, a.Value.Time().Format(slogTimeLayout))
	case slog.KindDuration:
		return slog.String(a.Key, a.Value.Duration().String())
	default:
		return a
	}
}

// LogOnError runs fn and logs msg if it fails. Meant for deferred Close calls.
func LogOnError(l *slog.Logger, fn func() error, msg string) {
	if err := fn(); err != nil {
		l.Error(msg, ErrAttr(err))
	}
}

// LogWriter adapts a slog.Logger to an io.Writer, one log record per line.
type LogWriter struct {
	logger *slog.Logger
}

// NewSlogWriter creates a writer that forwards every written line to l.
func NewSlogWriter(l *slog.Logger) *LogWriter {
	return &LogWriter{logger: l}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	for line := range bytes.SplitSeq(p, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		w.logger.Info(string(line))
	}

	return len(p), nil
}
