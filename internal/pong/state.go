package pong

import (
	"math"

	"github.com/google/uuid"
)

type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

func (s Side) Opponent() Side {
	if s == Left {
		return Right
	}
	return Left
}

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vector) finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Rect is an axis aligned rectangle anchored at its top left corner.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.H }

type Paddle struct {
	Center Vector
}

func NewPaddle(a Arena, side Side) Paddle {
	return Paddle{Center: Vector{X: a.PaddleX(side), Y: a.Height / 2}}
}

// Rect derives the paddle's bounding box from its center.
func (p Paddle) Rect(a Arena) Rect {
	return Rect{
		X: p.Center.X - a.PaddleWidth/2,
		Y: p.Center.Y - a.PaddleHeight/2,
		W: a.PaddleWidth,
		H: a.PaddleHeight,
	}
}

// SetY moves the paddle to y, clamped so it never overlaps a wall band.
func (p *Paddle) SetY(a Arena, y float64) {
	p.Center.Y = math.Min(math.Max(y, a.PaddleMinY()), a.PaddleMaxY())
}

type Ball struct {
	Center   Vector
	Movement Vector
	Speed    float64
}

// NewBall places a ball at the center of the arena with the serve speed and
// angle. dir is -1 to serve toward the left paddle and 1 toward the right.
func NewBall(a Arena, dir float64) Ball {
	rad := a.ServeAngle * math.Pi / 180
	return Ball{
		Center: a.Center(),
		Speed:  a.ServeSpeed,
		Movement: Vector{
			X: dir * a.ServeSpeed * math.Cos(rad),
			Y: -a.ServeSpeed * math.Sin(rad),
		},
	}
}

type Score struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

func (s Score) Of(side Side) int {
	if side == Left {
		return s.Left
	}
	return s.Right
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseServing
)

func (p Phase) String() string {
	if p == PhaseServing {
		return "serving"
	}
	return "idle"
}

// GameState is everything the frame loop owns for one run of the game.
type GameState struct {
	Arena   Arena
	MatchID uuid.UUID
	Left    Paddle
	Right   Paddle
	Ball    Ball
	Score   Score
	Phase   Phase
	Tick    uint64

	serveDir func() float64
}

// Snapshot is a read-only copy of the state handed to renderers and viewers.
type Snapshot struct {
	Arena Arena   `json:"-"`
	Match string  `json:"match"`
	Tick  uint64  `json:"tick"`
	Phase string  `json:"phase"`
	Score Score   `json:"score"`
	Ball  Vector  `json:"ball"`
	Left  Vector  `json:"left"`
	Right Vector  `json:"right"`
	Speed float64 `json:"speed"`
}
