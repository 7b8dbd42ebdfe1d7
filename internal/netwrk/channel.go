package netwrk

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type Options struct {
	// ReadPoll bounds each blocking read so the receive loop can notice a
	// stop request even when the peer is silent.
	ReadPoll time.Duration
	// WriteTimeout bounds each send so a stalled peer cannot hold up a frame.
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		ReadPoll:     250 * time.Millisecond,
		WriteTimeout: 50 * time.Millisecond,
	}
}

// Received is the last frame the peer sent. Values are never mutated after
// being published.
type Received struct {
	Frame Frame
	Seq   uint64
	At    time.Time
}

// Channel is the paddle sync link to a single peer. Send is called from the
// frame loop; a background goroutine started by Start reads peer frames and
// publishes the latest one for Latest.
type Channel struct {
	ID uuid.UUID

	conn    net.Conn
	opts    Options
	log     *slog.Logger
	metrics Metrics

	latest     atomic.Pointer[Received]
	sendFailed atomic.Bool
	started    atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	err      error
}

func NewChannel(conn net.Conn, opts Options) *Channel {
	id := uuid.New()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		ID:   id,
		conn: conn,
		opts: opts,
		log:  logger.With(slog.String("session", id.String())),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the receive goroutine. Calling it more than once is a no-op.
func (c *Channel) Start() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	c.log.Info("sync channel started", slog.String("peer", c.conn.RemoteAddr().String()))
	go c.receive()
}

func (c *Channel) receive() {
	defer close(c.done)
	defer c.conn.Close()

	fr := frameReader{r: c.conn}
	var seq uint64
	for {
		select {
		case <-c.stop:
			c.log.Debug("receive loop stopped")
			return
		default:
		}

		if c.opts.ReadPoll > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.ReadPoll))
		}
		f, err := fr.next()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			c.finish(err)
			return
		}

		seq++
		c.metrics.FramesReceived.Add(1)
		c.latest.Store(&Received{Frame: f, Seq: seq, At: time.Now()})
		c.log.Debug("frame received",
			slog.Any("paddle1", f.Paddle1),
			slog.Any("paddle2", f.Paddle2),
			slog.Any("seq", seq))
	}
}

func (c *Channel) finish(err error) {
	select {
	case <-c.stop:
		// Close tore the connection down under the reader.
		c.log.Debug("receive loop stopped", slog.Any("error", err))
		return
	default:
	}

	switch {
	case errors.Is(err, ErrStreamClosed):
		c.log.Info("peer closed the connection")
		c.err = err
	case errors.Is(err, ErrMalformedMessage):
		c.metrics.Malformed.Add(1)
		c.log.Warn("dropping connection after malformed message", slog.Any("error", err))
		c.err = err
	default:
		c.log.Warn("error reading from peer", slog.Any("error", err))
		c.err = fmt.Errorf("read frame: %w", err)
	}
}

// Send writes one frame. Failures are logged and returned but never retried:
// after the first failure the channel stops writing and every later Send
// fails fast, so the game keeps running locally.
func (c *Channel) Send(f Frame) error {
	if c.sendFailed.Load() {
		c.metrics.SendFailures.Add(1)
		c.log.Debug("skipping send, channel is down")
		return fmt.Errorf("%w: channel is down", ErrSendFailure)
	}

	if c.opts.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	}
	b := f.Encode()
	if _, err := c.conn.Write(b[:]); err != nil {
		c.metrics.SendFailures.Add(1)
		err = fmt.Errorf("%w: %w", ErrSendFailure, err)
		if c.sendFailed.CompareAndSwap(false, true) {
			c.log.Error("failed to send paddle positions, continuing without peer updates", slog.Any("error", err))
		} else {
			c.log.Debug("send failed", slog.Any("error", err))
		}
		return err
	}
	c.metrics.FramesSent.Add(1)
	return nil
}

// Latest returns the most recent frame from the peer, if any arrived.
func (c *Channel) Latest() (Received, bool) {
	r := c.latest.Load()
	if r == nil {
		return Received{}, false
	}
	return *r, true
}

// Done is closed when the receive goroutine has exited.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Err reports why the receive goroutine ended. It is nil for a requested stop
// and only meaningful once Done is closed.
func (c *Channel) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Channel) Metrics() *Metrics {
	return &c.metrics
}

// Close signals the receive goroutine to stop, closes the connection and waits
// at most wait for the goroutine to exit. ErrJoinTimeout is returned if it did
// not, but the channel is considered closed either way.
func (c *Channel) Close(wait time.Duration) error {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.log.Debug("closing connection", slog.Any("error", err))
	}
	if !c.started.Load() {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-c.done:
		return nil
	case <-timer.C:
		c.log.Warn("receive loop did not exit", slog.Duration("waited", wait))
		return ErrJoinTimeout
	}
}
