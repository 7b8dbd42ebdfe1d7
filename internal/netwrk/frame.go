package netwrk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// FrameSize is the size of every message on the wire: two big endian float32
// values with no header.
const FrameSize = 8

// Frame carries the vertical positions of both paddles.
type Frame struct {
	Paddle1 float32
	Paddle2 float32
}

func (f Frame) Encode() [FrameSize]byte {
	var b [FrameSize]byte
	binary.BigEndian.PutUint32(b[0:4], math.Float32bits(f.Paddle1))
	binary.BigEndian.PutUint32(b[4:8], math.Float32bits(f.Paddle2))
	return b
}

func (f Frame) MarshalBinary() ([]byte, error) {
	b := f.Encode()
	return b[:], nil
}

func DecodeFrame(b []byte) (Frame, error) {
	if len(b) != FrameSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedMessage, len(b), FrameSize)
	}
	f := Frame{
		Paddle1: math.Float32frombits(binary.BigEndian.Uint32(b[0:4])),
		Paddle2: math.Float32frombits(binary.BigEndian.Uint32(b[4:8])),
	}
	if !finite(f.Paddle1) || !finite(f.Paddle2) {
		return Frame{}, fmt.Errorf("%w: non finite position (%v, %v)", ErrMalformedMessage, f.Paddle1, f.Paddle2)
	}
	return f, nil
}

func (f *Frame) UnmarshalBinary(b []byte) error {
	d, err := DecodeFrame(b)
	if err != nil {
		return err
	}
	*f = d
	return nil
}

// ReadFrame reads exactly one frame from r. A stream that ends cleanly before
// the frame starts returns ErrStreamClosed.
func ReadFrame(r io.Reader) (Frame, error) {
	fr := frameReader{r: r}
	return fr.next()
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// frameReader accumulates bytes across reads so a read deadline firing in the
// middle of a frame does not lose the bytes already received.
type frameReader struct {
	r   io.Reader
	buf [FrameSize]byte
	n   int
}

func (fr *frameReader) next() (Frame, error) {
	for fr.n < FrameSize {
		n, err := fr.r.Read(fr.buf[fr.n:])
		fr.n += n
		if fr.n == FrameSize {
			break
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if fr.n == 0 {
				return Frame{}, ErrStreamClosed
			}
			got := fr.n
			fr.n = 0
			return Frame{}, fmt.Errorf("%w: stream ended after %d of %d bytes", ErrMalformedMessage, got, FrameSize)
		}
		return Frame{}, err
	}
	fr.n = 0
	return DecodeFrame(fr.buf[:])
}
