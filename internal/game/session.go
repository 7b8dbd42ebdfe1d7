package game

import (
	"context"
	"log/slog"
	"net"

	"golang.org/x/sync/errgroup"

	"netpong/internal/config"
	"netpong/internal/journal"
	"netpong/internal/netwrk"
	"netpong/internal/pong"
	"netpong/internal/spectate"
)

// Session wires one game together: the simulation, the optional sync channel
// to a peer, the optional spectator feed and the optional match journal.
type Session struct {
	Config config.Configuration
	Role   Role
	// Conn is the established peer connection, nil for local play.
	Conn   net.Conn
	Input  Input
	Screen Renderer
}

func (s *Session) Run(ctx context.Context) error {
	cfg := s.Config

	var opts []pong.Option
	if cfg.RandomServe {
		opts = append(opts, pong.WithServeDirection(pong.RandomServe(nil)))
	}
	state := pong.NewGameState(cfg.Arena, opts...)
	log := slog.Default().With(slog.String("match", state.MatchID.String()), slog.String("role", s.Role.String()))

	loop := &Loop{
		State:       state,
		Role:        s.Role,
		Interval:    cfg.TickInterval(),
		Input:       s.Input,
		Screen:      s.Screen,
		ApplyRemote: cfg.ApplyRemote,
		log:         log,
	}

	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		loop.Journal = j
	}

	var ch *netwrk.Channel
	if s.Conn != nil {
		ch = netwrk.NewChannel(s.Conn, netwrk.Options{
			ReadPoll:     cfg.ReadPoll(),
			WriteTimeout: cfg.WriteTimeout(),
			Logger:       log,
		})
		ch.Start()
		loop.Sync = ch
		defer func() {
			if err := ch.Close(cfg.ShutdownWait()); err != nil {
				log.Warn("sync channel did not shut down cleanly", slog.Any("error", err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Spectate != "" {
		hub := spectate.NewHub()
		hub.AddMetrics("loop", loop.Metrics().Snapshot)
		if ch != nil {
			hub.AddMetrics("sync", ch.Metrics().Snapshot)
		}
		loop.Viewers = hub
		g.Go(func() error {
			return spectate.Serve(gctx, cfg.Spectate, hub)
		})
	}

	g.Go(func() error {
		// The spectator server lives only as long as the game.
		defer cancel()
		return loop.Run(gctx)
	})

	err := g.Wait()
	log.Info("game over",
		slog.Int("left", state.Score.Left),
		slog.Int("right", state.Score.Right),
		slog.Any("ticks", state.Tick))
	return err
}
