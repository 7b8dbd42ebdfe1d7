package renderer

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"netpong/internal/game"
)

type UiAction rune

const (
	Unknown    UiAction = iota
	CtrlC      UiAction = 3
	Launch     UiAction = 32 // ' '
	Quit       UiAction = 81 // 'Q'
	Up         UiAction = 87
	Down       UiAction = 83
	UpArrow    UiAction = 8593
	DownArrow  UiAction = 8595
	LeftArrow  UiAction = 8592
	RightArrow UiAction = 8594
)

func ProcessInput(rawInput rune) (action UiAction) {
	inputVal := int(rawInput)
	// Convert to UpperCase
	if inputVal >= 97 && inputVal <= 122 {
		inputVal = inputVal - 32
	}
	return UiAction(inputVal)
}

// ParseKeys turns one read from a raw terminal into actions. Arrow keys arrive
// as ESC [ A..D.
func ParseKeys(b []byte) []UiAction {
	var actions []UiAction
	for i := 0; i < len(b); i++ {
		if b[i] == 27 && i+2 < len(b) && b[i+1] == '[' {
			switch b[i+2] {
			case 'A':
				actions = append(actions, UpArrow)
			case 'B':
				actions = append(actions, DownArrow)
			case 'C':
				actions = append(actions, RightArrow)
			case 'D':
				actions = append(actions, LeftArrow)
			}
			i += 2
			continue
		}
		a := ProcessInput(rune(b[i]))
		if a == CtrlC {
			a = Quit
		}
		actions = append(actions, a)
	}
	return actions
}

// DefaultHold is how long a key counts as held after its last press. Raw
// terminals only report presses, and key repeat fills the gaps.
const DefaultHold = 120 * time.Millisecond

// Keyboard turns key presses into per frame Controls. In local play the left
// paddle is on W/S and the right on the arrows. Otherwise both sets move the
// paddle this process controls.
type Keyboard struct {
	role game.Role
	hold time.Duration
	now  func() time.Time

	mu     sync.Mutex
	last   map[UiAction]time.Time
	launch bool
	quit   bool
}

func NewKeyboard(role game.Role) *Keyboard {
	return &Keyboard{
		role: role,
		hold: DefaultHold,
		now:  time.Now,
		last: make(map[UiAction]time.Time),
	}
}

func (k *Keyboard) Press(a UiAction) {
	k.mu.Lock()
	defer k.mu.Unlock()
	switch a {
	case Quit:
		k.quit = true
	case Launch:
		k.launch = true
	case Up, Down, UpArrow, DownArrow:
		k.last[a] = k.now()
	}
}

func (k *Keyboard) held(a UiAction, now time.Time) bool {
	t, ok := k.last[a]
	return ok && now.Sub(t) < k.hold
}

// Poll reports the keys held right now. Launch is reported once per press;
// Quit stays set.
func (k *Keyboard) Poll() game.Controls {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()

	wasd := game.PaddleInput{Up: k.held(Up, now), Down: k.held(Down, now)}
	arrows := game.PaddleInput{Up: k.held(UpArrow, now), Down: k.held(DownArrow, now)}
	c := game.Controls{Launch: k.launch, Quit: k.quit}
	k.launch = false

	switch k.role {
	case game.RoleHost:
		c.Left = merge(wasd, arrows)
	case game.RoleJoin:
		c.Right = merge(wasd, arrows)
	default:
		c.Left = wasd
		c.Right = arrows
	}
	return c
}

func merge(a, b game.PaddleInput) game.PaddleInput {
	return game.PaddleInput{Up: a.Up || b.Up, Down: a.Down || b.Down}
}

// Listen reads key presses from r until it fails. End of input counts as a
// request to quit.
func (k *Keyboard) Listen(r io.Reader) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, a := range ParseKeys(buf[:n]) {
			k.Press(a)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("error reading from stdin", slog.Any("error", err))
			}
			k.Press(Quit)
			return
		}
	}
}
