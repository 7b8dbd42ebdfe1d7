package netwrk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

var (
	// ErrConnection covers bind, accept and dial failures. It is fatal at startup.
	ErrConnection = errors.New("connection failed")
	// ErrStreamClosed means the peer closed the stream on a frame boundary.
	ErrStreamClosed = errors.New("stream closed by peer")
	// ErrMalformedMessage is a partial frame at stream end or a frame that does
	// not decode to two finite floats.
	ErrMalformedMessage = errors.New("malformed message")
	ErrSendFailure      = errors.New("send failed")
	ErrJoinTimeout      = errors.New("receive loop did not stop in time")
)

const (
	DefaultPort = 12345
	// Greeting is what the probe utility sends to check a host is alive.
	Greeting = "Hello, server!"
)

// Bind opens the host side listener with address reuse enabled.
func Bind(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen on %s: %w", ErrConnection, addr, err)
	}
	slog.Info("listening for peer", slog.String("addr", ln.Addr().String()))
	return ln, nil
}

// AcceptOne waits for a single peer and then closes the listener, so only one
// peer is ever served. Cancelling ctx abandons the wait.
func AcceptOne(ctx context.Context, ln net.Listener) (net.Conn, error) {
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("%w: accept: %w", ErrConnection, err)
	}
	slog.Info("peer connected", slog.String("addr", conn.RemoteAddr().String()))
	return conn, nil
}

// Listen binds addr and blocks until one peer connects.
func Listen(ctx context.Context, addr string) (net.Conn, error) {
	ln, err := Bind(ctx, addr)
	if err != nil {
		return nil, err
	}
	return AcceptOne(ctx, ln)
}

func Dial(ctx context.Context, addr string) (net.Conn, error) {
	slog.Debug("connecting to host...", slog.String("addr", addr))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnection, addr, err)
	}
	slog.Info("connected to host", slog.String("addr", conn.RemoteAddr().String()))
	return conn, nil
}

// Probe dials addr, sends the greeting once and returns the first bytes the
// peer sends back.
func Probe(ctx context.Context, addr string, timeout time.Duration) ([]byte, error) {
	conn, err := Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	if _, err := conn.Write([]byte(Greeting)); err != nil {
		return nil, fmt.Errorf("%w: greeting: %w", ErrSendFailure, err)
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if n == 0 && err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return buf[:n], nil
}
