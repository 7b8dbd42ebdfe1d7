package pong

import "math"

// Contact names the surface a ball bounced off during a collision check.
type Contact int

const (
	ContactNone Contact = iota
	ContactTop
	ContactBottom
	ContactLeftPaddle
	ContactRightPaddle
)

func (c Contact) String() string {
	switch c {
	case ContactTop:
		return "top"
	case ContactBottom:
		return "bottom"
	case ContactLeftPaddle:
		return "left_paddle"
	case ContactRightPaddle:
		return "right_paddle"
	default:
		return "none"
	}
}

// Advance moves the ball by one tick of its movement vector. Displacement is
// per tick, so ball speed scales with the tick rate.
func Advance(b *Ball) {
	b.Center = b.Center.Add(b.Movement)
}

// Collide checks the ball against the walls and both paddles, in that order,
// and inverts one movement component for the first surface hit. A surface only
// counts while the ball is travelling toward it, so a ball still inside a
// contact band after bouncing is not flipped back.
func Collide(b *Ball, a Arena, left, right Paddle) Contact {
	r := a.BallRadius

	switch {
	case b.Movement.Y < 0 && b.Center.Y-r <= a.TopBand():
		b.Movement.Y = -b.Movement.Y
		return ContactTop

	case b.Movement.Y > 0 && b.Center.Y+r >= a.BottomBand():
		b.Movement.Y = -b.Movement.Y
		return ContactBottom

	case b.Movement.X < 0 && inLeftBand(b, a, left):
		// A band hit outside the paddle's extent is a miss and the ball
		// carries on toward the goal.
		if withinExtent(b, a, left) {
			b.Movement.X = -b.Movement.X
			return ContactLeftPaddle
		}

	case b.Movement.X > 0 && inRightBand(b, a, right):
		if withinExtent(b, a, right) {
			b.Movement.X = -b.Movement.X
			return ContactRightPaddle
		}
	}

	return ContactNone
}

func inLeftBand(b *Ball, a Arena, p Paddle) bool {
	edge := b.Center.X - a.BallRadius
	face := p.Rect(a).Right()
	return edge <= face && edge >= face-a.ContactTolerance
}

func inRightBand(b *Ball, a Arena, p Paddle) bool {
	edge := b.Center.X + a.BallRadius
	face := p.Rect(a).Left()
	return edge >= face && edge <= face+a.ContactTolerance
}

func withinExtent(b *Ball, a Arena, p Paddle) bool {
	rect := p.Rect(a)
	return b.Center.Y >= rect.Top() && b.Center.Y <= rect.Bottom()
}

// OutOfBounds reports which side earns a point when the ball center has left
// the field horizontally.
func OutOfBounds(b Ball, a Arena) (Side, bool) {
	switch {
	case b.Center.X <= 0:
		return Right, true
	case b.Center.X >= a.Width:
		return Left, true
	}
	return Left, false
}

func checkBall(b Ball) {
	if !b.Center.finite() || !b.Movement.finite() {
		invariant("ball state is not finite", "center", b.Center, "movement", b.Movement)
		return
	}
	if drift := math.Abs(b.Movement.Len() - b.Speed); drift > 1e-9*math.Max(1, b.Speed) {
		invariant("ball movement no longer matches its speed", "speed", b.Speed, "movement", b.Movement)
	}
}
