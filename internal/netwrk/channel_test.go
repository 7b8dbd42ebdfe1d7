package netwrk

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

func testOptions() Options {
	return Options{ReadPoll: 20 * time.Millisecond, WriteTimeout: 200 * time.Millisecond}
}

func waitDone(t *testing.T, ch *Channel) {
	t.Helper()
	select {
	case <-ch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("receive loop did not finish")
	}
}

func TestChannelReceivesFrames(t *testing.T) {
	local, peer := net.Pipe()
	defer peer.Close()

	ch := NewChannel(local, testOptions())
	ch.Start()
	defer ch.Close(time.Second)

	if _, ok := ch.Latest(); ok {
		t.Fatal("latest should be empty before any frame")
	}

	for _, f := range []Frame{{Paddle1: 100, Paddle2: 200}, {Paddle1: 110, Paddle2: 190}} {
		b := f.Encode()
		if _, err := peer.Write(b[:]); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		r, ok := ch.Latest()
		if ok && r.Seq == 2 {
			if r.Frame != (Frame{Paddle1: 110, Paddle2: 190}) {
				t.Fatalf("latest = %+v", r.Frame)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("frames not received, latest = %+v %v", r, ok)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := ch.Metrics().FramesReceived.Load(); got != 2 {
		t.Fatalf("frames received = %d, want 2", got)
	}
}

func TestChannelPeerClose(t *testing.T) {
	local, peer := net.Pipe()
	ch := NewChannel(local, testOptions())
	ch.Start()

	peer.Close()
	waitDone(t, ch)
	if !errors.Is(ch.Err(), ErrStreamClosed) {
		t.Fatalf("err = %v, want ErrStreamClosed", ch.Err())
	}
	if err := ch.Close(time.Second); err != nil {
		t.Fatalf("close after peer left: %v", err)
	}
}

func TestChannelMalformedTail(t *testing.T) {
	local, peer := net.Pipe()
	ch := NewChannel(local, testOptions())
	ch.Start()

	if _, err := peer.Write([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	peer.Close()

	waitDone(t, ch)
	if !errors.Is(ch.Err(), ErrMalformedMessage) {
		t.Fatalf("err = %v, want ErrMalformedMessage", ch.Err())
	}
	if got := ch.Metrics().Malformed.Load(); got != 1 {
		t.Fatalf("malformed = %d", got)
	}
}

func TestChannelCloseSilentPeer(t *testing.T) {
	local, peer := net.Pipe()
	defer peer.Close()

	ch := NewChannel(local, testOptions())
	ch.Start()
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	if err := ch.Close(time.Second); err != nil {
		t.Fatalf("close: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("close took %v", elapsed)
	}
	waitDone(t, ch)
	if ch.Err() != nil {
		t.Fatalf("requested stop should not report an error, got %v", ch.Err())
	}
}

// stubbornConn ignores Close so only the read deadline can free the reader.
type stubbornConn struct {
	net.Conn
}

func (stubbornConn) Close() error { return nil }

// readSignalConn closes reading the first time a read starts.
type readSignalConn struct {
	stubbornConn
	once    sync.Once
	reading chan struct{}
}

func (c *readSignalConn) Read(b []byte) (int, error) {
	c.once.Do(func() { close(c.reading) })
	return c.stubbornConn.Read(b)
}

func TestChannelStopObservedBetweenReads(t *testing.T) {
	local, peer := net.Pipe()
	defer peer.Close()
	defer local.Close()

	ch := NewChannel(stubbornConn{local}, testOptions())
	ch.Start()

	start := time.Now()
	if err := ch.Close(time.Second); err != nil {
		t.Fatalf("close: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("close took %v", elapsed)
	}
}

func TestChannelCloseTimesOutWithoutBlocking(t *testing.T) {
	local, peer := net.Pipe()
	defer peer.Close()
	defer local.Close()

	// No read deadline and a Close that does nothing: the reader can only
	// leave when the peer writes, so Close has to give up.
	conn := &readSignalConn{stubbornConn: stubbornConn{local}, reading: make(chan struct{})}
	ch := NewChannel(conn, Options{})
	ch.Start()

	select {
	case <-conn.reading:
	case <-time.After(time.Second):
		t.Fatal("reader never started reading")
	}

	start := time.Now()
	if err := ch.Close(100 * time.Millisecond); !errors.Is(err, ErrJoinTimeout) {
		t.Fatalf("err = %v, want ErrJoinTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("close blocked for %v", elapsed)
	}
}

func TestChannelSend(t *testing.T) {
	local, peer := net.Pipe()
	ch := NewChannel(local, testOptions())

	errc := make(chan error, 1)
	go func() { errc <- ch.Send(Frame{Paddle1: 12.5, Paddle2: 340}) }()

	got, err := ReadFrame(peer)
	if err != nil {
		t.Fatal(err)
	}
	if got != (Frame{Paddle1: 12.5, Paddle2: 340}) {
		t.Fatalf("peer read %+v", got)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}

	peer.Close()
	for i := 0; i < 3; i++ {
		if err := ch.Send(Frame{}); !errors.Is(err, ErrSendFailure) {
			t.Fatalf("send %d after peer closed: err = %v", i, err)
		}
	}
	m := ch.Metrics()
	if m.FramesSent.Load() != 1 || m.SendFailures.Load() != 3 {
		t.Fatalf("metrics = %v", m.Snapshot())
	}
	if err := ch.Close(time.Second); err != nil {
		t.Fatal(err)
	}
}

func TestListenAcceptsOnePeer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ln, err := Bind(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()

	type result struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan result, 1)
	go func() {
		c, err := AcceptOne(ctx, ln)
		accepted <- result{c, err}
	}()

	dialed, err := Dial(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	defer dialed.Close()

	res := <-accepted
	if res.err != nil {
		t.Fatal(res.err)
	}
	defer res.conn.Close()

	host := NewChannel(res.conn, testOptions())
	host.Start()
	defer host.Close(time.Second)

	enc := Frame{Paddle1: 42, Paddle2: 420}.Encode()
	if _, err := dialed.Write(enc[:]); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if r, ok := host.Latest(); ok {
			if r.Frame != (Frame{Paddle1: 42, Paddle2: 420}) {
				t.Fatalf("host got %+v", r.Frame)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("host never received the frame")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if c, err := Dial(ctx, addr); err == nil {
		c.Close()
		t.Fatal("listener should stop accepting after the first peer")
	} else if !errors.Is(err, ErrConnection) {
		t.Fatalf("err = %v, want ErrConnection", err)
	}
}

func TestAcceptOneCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ln, err := Bind(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	if _, err := AcceptOne(ctx, ln); !errors.Is(err, ErrConnection) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestProbe(t *testing.T) {
	ctx := context.Background()
	ln, err := Bind(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	got := make(chan string, 1)
	go func() {
		conn, err := AcceptOne(ctx, ln)
		if err != nil {
			got <- err.Error()
			return
		}
		defer conn.Close()
		buf := make([]byte, len(Greeting))
		n, _ := conn.Read(buf)
		got <- string(buf[:n])
		conn.Write([]byte("hi"))
	}()

	reply, err := Probe(ctx, ln.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if string(reply) != "hi" {
		t.Fatalf("reply = %q", reply)
	}
	if g := <-got; g != Greeting {
		t.Fatalf("host read %q", g)
	}
}
