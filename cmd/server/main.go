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
		listen     = flag.String("listen", "", "address to accept the peer on")
		local      = flag.Bool("local", false, "play both paddles on this terminal without a peer")
		spectate   = flag.String("spectate", "", "address for the spectator feed, empty to disable")
		journal    = flag.String("journal", "", "path of the match journal, empty to disable")
	)
	flag.Parse()

	cfg := config.LoadConfig(*configPath)
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *spectate != "" {
		cfg.Spectate = *spectate
	}
	if *journal != "" {
		cfg.Journal = *journal
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

	role := game.RoleLocal
	var conn net.Conn
	if !*local {
		role = game.RoleHost
		fmt.Printf("Waiting for a peer on %s...\n", cfg.Listen)
		c, err := netwrk.Listen(ctx, cfg.Listen)
		if err != nil {
			slog.Error("failed to accept peer. Exiting...", slog.Any("error", err))
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		conn = c
	}

	if err := play(ctx, cfg, role, conn); err != nil {
		slog.Error("game ended with error", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func play(ctx context.Context, cfg config.Configuration, role game.Role, conn net.Conn) error {
	kb, screen, restore, err := renderer.Attach(role)
	defer restore()
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return err
	}

	s := &game.Session{
		Config: cfg,
		Role:   role,
		Conn:   conn,
		Input:  kb,
		Screen: screen,
	}
	return s.Run(ctx)
}
