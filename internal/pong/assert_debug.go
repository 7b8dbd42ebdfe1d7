//go:build pongdebug

package pong

import "fmt"

func invariant(msg string, args ...any) {
	panic(fmt.Sprintf("invariant violated: %s %v", msg, args))
}
