package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"netpong/internal/pong"
)

var ErrInvalid = errors.New("invalid configuration")

// MaxTickRate keeps the tick interval well above zero.
const MaxTickRate = 1000

type Configuration struct {
	LogLevel int    `json:"logLevel"`
	LogFile  string `json:"logFile"`

	// Listen is the host address; Peer is what a joining client dials.
	Listen string `json:"listen"`
	Peer   string `json:"peer"`

	TickRate    int  `json:"tickRate"`
	ApplyRemote bool `json:"applyRemote"`
	RandomServe bool `json:"randomServe"`

	// Spectate is the address of the optional spectator HTTP server.
	Spectate string `json:"spectate"`
	// Journal is the path of the optional match journal.
	Journal string `json:"journal"`

	ReadPollMs     int `json:"readPollMs"`
	WriteTimeoutMs int `json:"writeTimeoutMs"`
	ShutdownWaitMs int `json:"shutdownWaitMs"`

	Arena pong.Arena `json:"arena"`
}

func Default() Configuration {
	return Configuration{
		LogLevel:       int(slog.LevelInfo),
		LogFile:        "netpong.log",
		Listen:         "0.0.0.0:12345",
		Peer:           "127.0.0.1:12345",
		TickRate:       60,
		ApplyRemote:    true,
		ReadPollMs:     250,
		WriteTimeoutMs: 50,
		ShutdownWaitMs: 1000,
		Arena:          pong.DefaultArena(),
	}
}

// LoadConfig reads the JSON file at path, or config.json when path is empty.
// Fields missing from the file keep their defaults, and a file that cannot be
// read or parsed leaves the whole default configuration in place.
func LoadConfig(path string) Configuration {
	c := Default()

	if path == "" {
		path = "config.json"
	}
	cf, err := os.ReadFile(path)
	if err != nil {
		slog.Info("failed to open config at path provided, using default config instead", slog.String("path", path))
		return c
	}

	loaded := Default()
	if err := json.Unmarshal(cf, &loaded); err != nil {
		slog.Info("failed to read configuration, using default config instead...", slog.Any("error", err))
		return c
	}
	return loaded
}

func (c Configuration) Validate() error {
	a := c.Arena
	switch {
	case c.TickRate <= 0 || c.TickRate > MaxTickRate:
		return fmt.Errorf("%w: tickRate must be in 1..%d, got %d", ErrInvalid, MaxTickRate, c.TickRate)
	case a.Width <= 0 || a.Height <= 0:
		return fmt.Errorf("%w: arena must have a positive size", ErrInvalid)
	case a.PaddleWidth <= 0 || a.PaddleHeight <= 0 || a.BallRadius <= 0:
		return fmt.Errorf("%w: paddle and ball dimensions must be positive", ErrInvalid)
	case a.PaddleMinY() > a.PaddleMaxY():
		return fmt.Errorf("%w: paddle height %v does not fit between the walls", ErrInvalid, a.PaddleHeight)
	case a.ServeSpeed <= 0:
		return fmt.Errorf("%w: serveSpeed must be positive", ErrInvalid)
	case a.ContactTolerance < 0 || a.PaddleStep < 0:
		return fmt.Errorf("%w: contactTolerance and paddleStep cannot be negative", ErrInvalid)
	case a.ServeSpeed*math.Abs(math.Cos(a.ServeAngle*math.Pi/180)) > a.ContactTolerance:
		// Contact is checked once per tick, so a ball moving further than the
		// band in one tick can skip it entirely.
		return fmt.Errorf("%w: horizontal ball speed exceeds contactTolerance %v", ErrInvalid, a.ContactTolerance)
	case c.ShutdownWaitMs < 0 || c.ReadPollMs < 0 || c.WriteTimeoutMs < 0:
		return fmt.Errorf("%w: durations cannot be negative", ErrInvalid)
	}
	return nil
}

func (c Configuration) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

func (c Configuration) ReadPoll() time.Duration {
	return time.Duration(c.ReadPollMs) * time.Millisecond
}

func (c Configuration) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}

func (c Configuration) ShutdownWait() time.Duration {
	return time.Duration(c.ShutdownWaitMs) * time.Millisecond
}
