package game

import (
	"context"
	"log/slog"
	"time"

	"netpong/internal/journal"
	"netpong/internal/netwrk"
	"netpong/internal/pong"
)

type Input interface {
	Poll() Controls
}

type Renderer interface {
	Render(pong.Snapshot) error
}

// Sync is the frame loop's view of the paddle sync channel.
type Sync interface {
	Send(netwrk.Frame) error
	Latest() (netwrk.Received, bool)
	Done() <-chan struct{}
}

type Publisher interface {
	Publish(pong.Snapshot)
}

type Recorder interface {
	Record(journal.Entry) error
}

// Loop drives one game at a fixed tick rate. Everything it touches is owned by
// the goroutine calling Run; the only values shared with other goroutines are
// read through Sync.
type Loop struct {
	State    *pong.GameState
	Role     Role
	Interval time.Duration

	Input  Input
	Screen Renderer

	// Sync is nil for local play.
	Sync        Sync
	ApplyRemote bool

	Viewers Publisher
	Journal Recorder

	log        *slog.Logger
	metrics    Metrics
	lastSeq    uint64
	peerGone   bool
	journalErr bool
}

func (l *Loop) Metrics() *Metrics {
	return &l.metrics
}

// Run ticks until the player quits or ctx is cancelled. Both are a normal end
// of the game and return nil.
func (l *Loop) Run(ctx context.Context) error {
	if l.log == nil {
		l.log = slog.Default().With(slog.String("match", l.State.MatchID.String()), slog.String("role", l.Role.String()))
	}

	l.record(journal.KindStart, pong.Left)
	defer l.record(journal.KindEnd, pong.Left)

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("frame loop cancelled")
			return nil
		case <-ticker.C:
			if !l.frame() {
				l.log.Info("player quit")
				return nil
			}
		}
	}
}

// frame runs input, physics and scoring, the send, and rendering in that
// order. It returns false when the player asked to quit.
func (l *Loop) frame() bool {
	if l.log == nil {
		l.log = slog.Default()
	}
	start := time.Now()

	c := l.Input.Poll()
	if c.Quit {
		return false
	}
	for _, side := range []pong.Side{pong.Left, pong.Right} {
		if l.Role.Controls(side) {
			l.State.MovePaddle(side, c.For(side).Dir())
		}
	}
	if c.Launch {
		l.State.Launch()
	}
	l.applyRemote()

	ev := l.State.Step()
	if ev.Scored {
		l.metrics.Points.Add(1)
		l.record(journal.KindPoint, ev.Scorer)
	}
	if ev.Contact != pong.ContactNone {
		l.log.Debug("bounce", slog.String("contact", ev.Contact.String()), slog.Any("tick", l.State.Tick))
	}

	l.send()

	snap := l.State.Snapshot()
	if l.Viewers != nil {
		l.Viewers.Publish(snap)
	}
	if l.Screen != nil {
		if err := l.Screen.Render(snap); err != nil {
			l.log.Debug("render failed", slog.Any("error", err))
		}
	}

	l.metrics.AddTick(time.Since(start))
	return true
}

func (l *Loop) applyRemote() {
	if l.Sync == nil {
		return
	}
	if !l.peerGone {
		select {
		case <-l.Sync.Done():
			l.peerGone = true
			l.log.Info("peer link is down, continuing with the last known remote paddle")
		default:
		}
	}

	r, ok := l.Sync.Latest()
	if !ok || r.Seq == l.lastSeq {
		return
	}
	l.lastSeq = r.Seq

	side, remote := l.Role.Remote()
	if !l.ApplyRemote || !remote {
		l.log.Debug("received paddles", slog.Any("paddle1", r.Frame.Paddle1), slog.Any("paddle2", r.Frame.Paddle2))
		return
	}
	y := r.Frame.Paddle1
	if side == pong.Right {
		y = r.Frame.Paddle2
	}
	l.State.SetPaddleY(side, float64(y))
}

func (l *Loop) send() {
	if l.Sync == nil {
		return
	}
	f := netwrk.Frame{
		Paddle1: float32(l.State.Left.Center.Y),
		Paddle2: float32(l.State.Right.Center.Y),
	}
	// The channel logs its own failures and keeps the game running.
	_ = l.Sync.Send(f)
}

func (l *Loop) record(kind journal.Kind, scorer pong.Side) {
	if l.Journal == nil {
		return
	}
	err := l.Journal.Record(journal.Entry{
		Match:  l.State.MatchID,
		Kind:   kind,
		Tick:   l.State.Tick,
		Score:  l.State.Score,
		Scorer: scorer,
		At:     time.Now(),
	})
	if err != nil && !l.journalErr {
		l.journalErr = true
		l.log.Warn("failed to write match journal", slog.Any("error", err))
	}
}
