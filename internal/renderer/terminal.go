package renderer

import (
	"os"

	"netpong/internal/game"
)

// Attach takes over the terminal for a game: raw keyboard input on stdin and
// frames on stdout. The returned func gives the terminal back.
func Attach(role game.Role) (*Keyboard, *Screen, func(), error) {
	restore, err := Open(os.Stdout)
	if err != nil {
		return nil, nil, restore, err
	}
	kb := NewKeyboard(role)
	go kb.Listen(os.Stdin)
	return kb, NewScreen(os.Stdout), restore, nil
}
