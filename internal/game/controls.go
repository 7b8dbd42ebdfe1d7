package game

import "netpong/internal/pong"

type PaddleInput struct {
	Up   bool
	Down bool
}

// Dir is -1 for up, 1 for down and 0 when neither or both are held.
func (p PaddleInput) Dir() int {
	switch {
	case p.Up && !p.Down:
		return -1
	case p.Down && !p.Up:
		return 1
	}
	return 0
}

// Controls is the input state polled once per frame.
type Controls struct {
	Left   PaddleInput
	Right  PaddleInput
	Launch bool
	Quit   bool
}

func (c Controls) For(side pong.Side) PaddleInput {
	if side == pong.Left {
		return c.Left
	}
	return c.Right
}

type Role int

const (
	RoleLocal Role = iota
	RoleHost
	RoleJoin
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleJoin:
		return "join"
	default:
		return "local"
	}
}

// Controls reports whether this process moves the paddle on side.
func (r Role) Controls(side pong.Side) bool {
	switch r {
	case RoleHost:
		return side == pong.Left
	case RoleJoin:
		return side == pong.Right
	default:
		return true
	}
}

// Remote returns the paddle driven by the peer, if there is one.
func (r Role) Remote() (pong.Side, bool) {
	switch r {
	case RoleHost:
		return pong.Right, true
	case RoleJoin:
		return pong.Left, true
	default:
		return pong.Left, false
	}
}
