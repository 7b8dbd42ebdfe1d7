package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the default slog logger. With a file path, logs go to a
// rolling file since the terminal belongs to the game screen; otherwise they
// go to stderr. The returned closer flushes and closes the file.
func Setup(path string, level int) io.Closer {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if path != "" {
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		w, closer = lj, lj
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.Level(level)})
	slog.SetDefault(slog.New(h))
	slog.Debug("Debug level logs are active")
	return closer
}
