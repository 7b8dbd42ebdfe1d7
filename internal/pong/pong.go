package pong

import (
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

type Option func(*GameState)

// WithServeDirection overrides how the horizontal direction of each new serve
// is chosen. The function must return -1 or 1.
func WithServeDirection(dir func() float64) Option {
	return func(g *GameState) {
		g.serveDir = dir
	}
}

// RandomServe picks a serve direction at random from r, or from the package
// source when r is nil.
func RandomServe(r *rand.Rand) func() float64 {
	return func() float64 {
		if r == nil {
			return float64(rand.Intn(2)*2 - 1)
		}
		return float64(r.Intn(2)*2 - 1)
	}
}

func WithMatchID(id uuid.UUID) Option {
	return func(g *GameState) {
		g.MatchID = id
	}
}

// Event describes what happened during one Step.
type Event struct {
	Contact Contact
	Scored  bool
	Scorer  Side
}

func NewGameState(a Arena, opts ...Option) *GameState {
	g := &GameState{
		Arena:    a,
		MatchID:  uuid.New(),
		Left:     NewPaddle(a, Left),
		Right:    NewPaddle(a, Right),
		Phase:    PhaseIdle,
		serveDir: func() float64 { return -1 },
	}
	for _, opt := range opts {
		opt(g)
	}
	g.Ball = NewBall(a, g.serveDir())
	return g
}

func (g *GameState) Paddle(side Side) *Paddle {
	if side == Left {
		return &g.Left
	}
	return &g.Right
}

// MovePaddle steps a paddle up (dir < 0) or down (dir > 0) by the arena's
// paddle step. Paddles move in every phase.
func (g *GameState) MovePaddle(side Side, dir int) {
	if dir == 0 {
		return
	}
	p := g.Paddle(side)
	step := g.Arena.PaddleStep
	if dir < 0 {
		step = -step
	}
	p.SetY(g.Arena, p.Center.Y+step)
}

// SetPaddleY places a paddle directly, as when following a remote peer.
func (g *GameState) SetPaddleY(side Side, y float64) {
	g.Paddle(side).SetY(g.Arena, y)
}

// Launch starts a serve. It reports false when a serve is already running.
func (g *GameState) Launch() bool {
	if g.Phase == PhaseServing {
		return false
	}
	g.Phase = PhaseServing
	slog.Debug("serve launched", slog.Any("match", g.MatchID), slog.Any("tick", g.Tick))
	return true
}

// Step runs one tick of the simulation. While idle the ball does not move.
// While serving the ball is checked for collisions, advanced, and then tested
// for a point, which resets the ball and returns the game to idle.
func (g *GameState) Step() Event {
	g.Tick++
	if g.Phase != PhaseServing {
		return Event{}
	}

	ev := Event{Contact: Collide(&g.Ball, g.Arena, g.Left, g.Right)}
	Advance(&g.Ball)
	checkBall(g.Ball)

	if side, ok := OutOfBounds(g.Ball, g.Arena); ok {
		g.award(side)
		ev.Scored = true
		ev.Scorer = side
	}
	return ev
}

func (g *GameState) award(side Side) {
	if side == Left {
		g.Score.Left++
	} else {
		g.Score.Right++
	}
	g.Ball = NewBall(g.Arena, g.serveDir())
	g.Phase = PhaseIdle
	slog.Info("point scored",
		slog.Any("match", g.MatchID),
		slog.String("side", side.String()),
		slog.Int("left", g.Score.Left),
		slog.Int("right", g.Score.Right))
}

func (g *GameState) Snapshot() Snapshot {
	return Snapshot{
		Arena: g.Arena,
		Match: g.MatchID.String(),
		Tick:  g.Tick,
		Phase: g.Phase.String(),
		Score: g.Score,
		Ball:  g.Ball.Center,
		Left:  g.Left.Center,
		Right: g.Right.Center,
		Speed: g.Ball.Speed,
	}
}
