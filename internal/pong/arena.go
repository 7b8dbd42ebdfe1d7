package pong

// Arena is the fixed playing field geometry. All values are world pixels,
// except ServeAngle which is in degrees and PaddleStep which is pixels per tick.
type Arena struct {
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	Wall             float64 `json:"wall"`
	PaddleWidth      float64 `json:"paddleWidth"`
	PaddleHeight     float64 `json:"paddleHeight"`
	PaddleInset      float64 `json:"paddleInset"`
	PaddleStep       float64 `json:"paddleStep"`
	BallRadius       float64 `json:"ballRadius"`
	ContactTolerance float64 `json:"contactTolerance"`
	ServeSpeed       float64 `json:"serveSpeed"`
	ServeAngle       float64 `json:"serveAngle"`
}

func DefaultArena() Arena {
	return Arena{
		Width:            1200,
		Height:           600,
		Wall:             20,
		PaddleWidth:      15,
		PaddleHeight:     100,
		PaddleInset:      20,
		PaddleStep:       7,
		BallRadius:       10,
		ContactTolerance: 10,
		ServeSpeed:       10,
		ServeAngle:       15,
	}
}

func (a Arena) Center() Vector {
	return Vector{X: a.Width / 2, Y: a.Height / 2}
}

// TopBand is the y coordinate of the lower face of the top wall.
func (a Arena) TopBand() float64 {
	return a.Wall
}

// BottomBand is the y coordinate of the upper face of the bottom wall.
func (a Arena) BottomBand() float64 {
	return a.Height - a.Wall
}

// PaddleMinY and PaddleMaxY bound a paddle center so its rectangle stays
// between the wall bands.
func (a Arena) PaddleMinY() float64 {
	return a.Wall + a.PaddleHeight/2
}

func (a Arena) PaddleMaxY() float64 {
	return a.Height - a.Wall - a.PaddleHeight/2
}

func (a Arena) PaddleX(side Side) float64 {
	if side == Left {
		return a.PaddleInset + a.PaddleWidth/2
	}
	return a.Width - a.PaddleInset - a.PaddleWidth/2
}

// ScoreAnchor is where a side's score is drawn.
func (a Arena) ScoreAnchor(side Side) Vector {
	if side == Left {
		return Vector{X: a.Width/2 - 50, Y: 80}
	}
	return Vector{X: a.Width/2 + 50, Y: 80}
}

// CenterLine returns the centres of the dashes drawn down the middle of the field.
func (a Arena) CenterLine() []Vector {
	const dashes = 15
	line := make([]Vector, 0, dashes)
	for i := range dashes {
		line = append(line, Vector{X: a.Width / 2, Y: 40 + a.Height*float64(i)/dashes})
	}
	return line
}
