package renderer

import (
	"slices"
	"strings"
	"testing"
	"time"

	"netpong/internal/game"
)

func TestParseKeys(t *testing.T) {
	cases := []struct {
		in   string
		want []UiAction
	}{
		{"w", []UiAction{Up}},
		{"S", []UiAction{Down}},
		{"\x1b[A\x1b[B", []UiAction{UpArrow, DownArrow}},
		{"\x1b[C\x1b[D", []UiAction{RightArrow, LeftArrow}},
		{" q", []UiAction{Launch, Quit}},
		{"\x03", []UiAction{Quit}},
	}
	for _, c := range cases {
		if got := ParseKeys([]byte(c.in)); !slices.Equal(got, c.want) {
			t.Errorf("ParseKeys(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestKeyboard(role game.Role) (*Keyboard, *clock) {
	k := NewKeyboard(role)
	c := &clock{t: time.Unix(100, 0)}
	k.now = c.now
	return k, c
}

func TestKeyboardLocalLayout(t *testing.T) {
	k, _ := newTestKeyboard(game.RoleLocal)
	k.Press(Up)
	k.Press(DownArrow)

	c := k.Poll()
	if c.Left.Dir() != -1 || c.Right.Dir() != 1 {
		t.Fatalf("local layout = %+v", c)
	}
}

func TestKeyboardNetworkLayouts(t *testing.T) {
	host, _ := newTestKeyboard(game.RoleHost)
	host.Press(UpArrow)
	if c := host.Poll(); c.Left.Dir() != -1 || c.Right.Dir() != 0 {
		t.Errorf("host should move the left paddle with arrows: %+v", c)
	}

	join, _ := newTestKeyboard(game.RoleJoin)
	join.Press(Down)
	if c := join.Poll(); c.Right.Dir() != 1 || c.Left.Dir() != 0 {
		t.Errorf("join should move the right paddle with w/s: %+v", c)
	}
}

func TestKeyboardHoldExpires(t *testing.T) {
	k, clk := newTestKeyboard(game.RoleLocal)
	k.Press(Up)

	clk.t = clk.t.Add(DefaultHold / 2)
	if !k.Poll().Left.Up {
		t.Fatal("key should still be held")
	}
	clk.t = clk.t.Add(DefaultHold)
	if k.Poll().Left.Up {
		t.Fatal("key should have been released")
	}
}

func TestKeyboardLaunchOnce(t *testing.T) {
	k, _ := newTestKeyboard(game.RoleLocal)
	k.Press(Launch)
	if !k.Poll().Launch {
		t.Fatal("launch not reported")
	}
	if k.Poll().Launch {
		t.Fatal("launch reported twice")
	}
}

func TestKeyboardListenQuitsAtEOF(t *testing.T) {
	k, _ := newTestKeyboard(game.RoleLocal)
	k.Listen(strings.NewReader("w "))

	c := k.Poll()
	if !c.Quit || !c.Launch || !c.Left.Up {
		t.Fatalf("controls after listen = %+v", c)
	}
}
