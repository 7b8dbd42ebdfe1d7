package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"netpong/internal/config"
	"netpong/internal/game"
	"netpong/internal/logging"
	"netpong/internal/netwrk"
	"netpong/internal/renderer"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "path to a JSON config file (default config.json)")
		peer       = flag.String("peer", "", "host address to join")
		spectate   = flag.String("spectate", "", "address for the spectator feed, empty to disable")
	)
	flag.Parse()

	cfg := config.LoadConfig(*configPath)
	if *peer != "" {
		cfg.Peer = *peer
	}
	if *spectate != "" {
		cfg.Spectate = *spectate
	}

	logs := logging.Setup(cfg.LogFile, cfg.LogLevel)
	defer logs.Close()

	if err := cfg.Validate(); err != nil {
		slog.Error("bad configuration", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := netwrk.Dial(ctx, cfg.Peer)
	if err != nil {
		slog.Error("Sorry, failed to connect to host...", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := play(ctx, cfg, conn); err != nil {
		slog.Error("game ended with error", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func play(ctx context.Context, cfg config.Configuration, conn net.Conn) error {
	kb, screen, restore, err := renderer.Attach(game.RoleJoin)
	defer restore()
	if err != nil {
		conn.Close()
		return err
	}

	s := &game.Session{
		Config: cfg,
		Role:   game.RoleJoin,
		Conn:   conn,
		Input:  kb,
		Screen: screen,
	}
	return s.Run(ctx)
}
