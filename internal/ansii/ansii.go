package ansii

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type ANSI string

const (
	reset       ANSI = "\033[0m"
	plain       ANSI = ""
	bold        ANSI = "\033[1m"
	red         ANSI = "\033[31m"
	green       ANSI = "\033[32m"
	yellow      ANSI = "\033[33m"
	cyan        ANSI = "\033[36m"
	white       ANSI = "\033[37m"
	clearScreen ANSI = "\033[2J"
	home        ANSI = "\033[H"
	hideCursor  ANSI = "\033[?25l"
	showCursor  ANSI = "\033[?25h"
)

type style struct {
	Reset ANSI
	Plain ANSI
	Bold  ANSI
}

type color struct {
	Red    ANSI
	Green  ANSI
	Yellow ANSI
	Cyan   ANSI
	White  ANSI
}

type screen struct {
	ClearScreen ANSI
	Home        ANSI
	HideCursor  ANSI
	ShowCursor  ANSI
}

type ascii struct {
	Block rune
	Ball  rune
	Dash  rune
}

var (
	Styles = style{Bold: bold, Reset: reset, Plain: plain}
	Colors = color{Red: red, Green: green, Yellow: yellow, Cyan: cyan, White: white}
	Screen = screen{ClearScreen: clearScreen, Home: home, HideCursor: hideCursor, ShowCursor: showCursor}
	Blocks = ascii{Block: '█', Ball: '●', Dash: '┆'}
)

// PlaceCursor moves the cursor to column x, row y. Both are zero based.
func (s screen) PlaceCursor(x, y int) ANSI {
	return ANSI(fmt.Sprintf("\033[%d;%dH", y+1, x+1))
}

func GetTermSize() (width int, height int, err error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// MakeTermRaw puts stdin in raw mode so single key presses can be read.
func MakeTermRaw() (*term.State, error) {
	return term.MakeRaw(int(os.Stdin.Fd()))
}

func RestoreTerm(prev *term.State) error {
	return term.Restore(int(os.Stdin.Fd()), prev)
}

type cell struct {
	r     rune
	style ANSI
}

// Canvas is a grid of styled cells composed off screen and written in one go.
type Canvas struct {
	W, H  int
	cells []cell
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{W: max(w, 0), H: max(h, 0)}
	c.cells = make([]cell, c.W*c.H)
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
	return c
}

// Set draws one cell. Cells that would land off the canvas are clipped.
func (c *Canvas) Set(x, y int, r rune, style ANSI) {
	if x < 0 || y < 0 || x >= c.W || y >= c.H {
		return
	}
	c.cells[y*c.W+x] = cell{r: r, style: style}
}

func (c *Canvas) At(x, y int) rune {
	if x < 0 || y < 0 || x >= c.W || y >= c.H {
		return 0
	}
	return c.cells[y*c.W+x].r
}

// FillRect fills the inclusive cell range [x0, x1] x [y0, y1].
func (c *Canvas) FillRect(x0, y0, x1, y1 int, r rune, style ANSI) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			c.Set(x, y, r, style)
		}
	}
}

func (c *Canvas) Text(x, y int, s string, style ANSI) {
	for i, r := range []rune(s) {
		c.Set(x+i, y, r, style)
	}
}

// Row returns the runes of row y without styling.
func (c *Canvas) Row(y int) string {
	if y < 0 || y >= c.H {
		return ""
	}
	var b strings.Builder
	for x := 0; x < c.W; x++ {
		b.WriteRune(c.cells[y*c.W+x].r)
	}
	return b.String()
}

// WriteTo writes the whole canvas starting at the top left of the screen,
// switching styles only when they change.
func (c *Canvas) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString(string(Screen.Home))
	for y := 0; y < c.H; y++ {
		b.WriteString(string(Screen.PlaceCursor(0, y)))
		cur := Styles.Plain
		for x := 0; x < c.W; x++ {
			cl := c.cells[y*c.W+x]
			if cl.style != cur {
				b.WriteString(string(Styles.Reset))
				b.WriteString(string(cl.style))
				cur = cl.style
			}
			b.WriteRune(cl.r)
		}
		if cur != Styles.Plain {
			b.WriteString(string(Styles.Reset))
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
