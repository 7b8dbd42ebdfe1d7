package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"netpong/internal/logging"
	"netpong/internal/netwrk"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", fmt.Sprintf("127.0.0.1:%d", netwrk.DefaultPort), "host to probe")
	timeout := flag.Duration("timeout", 2*time.Second, "how long to wait for a reply")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logs := logging.Setup("", int(level))
	defer logs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := netwrk.Probe(ctx, *addr, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "probe failed:", err)
		return 1
	}
	fmt.Printf("%s replied with %d bytes: %q\n", *addr, len(reply), reply)
	return 0
}
