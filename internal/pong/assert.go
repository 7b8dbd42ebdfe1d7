//go:build !pongdebug

package pong

import "log/slog"

func invariant(msg string, args ...any) {
	slog.Error("invariant violated: "+msg, args...)
}
