package renderer

import (
	"fmt"
	"io"
	"math"

	"netpong/internal/ansii"
	"netpong/internal/pong"
)

const (
	fallbackCols = 80
	fallbackRows = 24
)

// Screen draws snapshots to a terminal, scaling the arena to whatever size the
// terminal currently has.
type Screen struct {
	out  io.Writer
	size func() (int, int, error)
}

func NewScreen(out io.Writer) *Screen {
	return &Screen{out: out, size: ansii.GetTermSize}
}

// Fixed renders at a fixed size instead of asking the terminal.
func (s *Screen) Fixed(cols, rows int) *Screen {
	s.size = func() (int, int, error) { return cols, rows, nil }
	return s
}

func (s *Screen) Render(snap pong.Snapshot) error {
	cols, rows, err := s.size()
	if err != nil || cols <= 0 || rows <= 1 {
		cols, rows = fallbackCols, fallbackRows
	}
	_, err = Compose(snap, cols, rows).WriteTo(s.out)
	return err
}

type scale struct {
	a          pong.Arena
	cols, rows int
}

func (sc scale) x(v float64) int {
	return clampCell(int(math.Floor(v/sc.a.Width*float64(sc.cols))), sc.cols)
}

func (sc scale) y(v float64) int {
	return clampCell(int(math.Floor(v/sc.a.Height*float64(sc.rows))), sc.rows)
}

func clampCell(v, n int) int {
	return max(0, min(v, n-1))
}

// Compose lays out one frame. The arena takes every row but the last, which
// holds the status line.
func Compose(snap pong.Snapshot, cols, rows int) *ansii.Canvas {
	c := ansii.NewCanvas(cols, rows)
	a := snap.Arena
	if cols <= 0 || rows <= 1 || a.Width <= 0 || a.Height <= 0 {
		return c
	}
	sc := scale{a: a, cols: cols, rows: rows - 1}

	c.FillRect(0, 0, cols-1, sc.y(a.TopBand()-1), ansii.Blocks.Block, ansii.Colors.White)
	c.FillRect(0, sc.y(a.BottomBand()), cols-1, sc.rows-1, ansii.Blocks.Block, ansii.Colors.White)

	for _, d := range a.CenterLine() {
		if d.Y < a.TopBand() || d.Y >= a.BottomBand() {
			continue
		}
		c.Set(sc.x(d.X), sc.y(d.Y), ansii.Blocks.Dash, ansii.Styles.Plain)
	}

	for _, side := range []pong.Side{pong.Left, pong.Right} {
		anchor := a.ScoreAnchor(side)
		text := fmt.Sprint(snap.Score.Of(side))
		c.Text(sc.x(anchor.X)-len(text)/2, sc.y(anchor.Y), text, ansii.Styles.Bold)
	}

	paddle(c, sc, snap.Left, ansii.Colors.Cyan)
	paddle(c, sc, snap.Right, ansii.Colors.Green)

	c.Set(sc.x(snap.Ball.X), sc.y(snap.Ball.Y), ansii.Blocks.Ball, ansii.Colors.Yellow)

	c.Text(0, rows-1, status(snap), ansii.Styles.Plain)
	return c
}

func paddle(c *ansii.Canvas, sc scale, center pong.Vector, style ansii.ANSI) {
	a := sc.a
	x0 := sc.x(center.X - a.PaddleWidth/2)
	x1 := sc.x(center.X + a.PaddleWidth/2)
	y0 := sc.y(center.Y - a.PaddleHeight/2)
	y1 := sc.y(center.Y + a.PaddleHeight/2)
	c.FillRect(x0, y0, x1, y1, ansii.Blocks.Block, style)
}

func status(snap pong.Snapshot) string {
	hint := "w/s or arrows to move, q to quit"
	if snap.Phase == pong.PhaseIdle.String() {
		hint = "space to serve, " + hint
	}
	return fmt.Sprintf("%d : %d  tick %d  %s", snap.Score.Left, snap.Score.Right, snap.Tick, hint)
}

// Open puts the terminal in raw mode and hides the cursor. The returned func
// undoes both and must be called before the process exits.
func Open(out io.Writer) (func(), error) {
	prev, err := ansii.MakeTermRaw()
	if err != nil {
		return func() {}, fmt.Errorf("failed to make terminal raw: %w", err)
	}
	io.WriteString(out, string(ansii.Screen.ClearScreen)+string(ansii.Screen.HideCursor))
	return func() {
		io.WriteString(out, string(ansii.Styles.Reset)+string(ansii.Screen.ShowCursor)+string(ansii.Screen.ClearScreen)+string(ansii.Screen.Home))
		ansii.RestoreTerm(prev)
	}, nil
}
