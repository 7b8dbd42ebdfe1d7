// Package journal keeps an append-only log of match events. Each record is a
// length delimited protobuf message written with protowire, so the file can
// be read back by any protobuf tooling given the field numbers below.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"netpong/internal/pong"
)

var ErrCorrupt = errors.New("corrupt journal record")

type Kind int

const (
	KindStart Kind = iota + 1
	KindPoint
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindPoint:
		return "point"
	case KindEnd:
		return "end"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field numbers of an entry record.
const (
	fieldMatch  protowire.Number = 1
	fieldKind   protowire.Number = 2
	fieldTick   protowire.Number = 3
	fieldLeft   protowire.Number = 4
	fieldRight  protowire.Number = 5
	fieldScorer protowire.Number = 6
	fieldAt     protowire.Number = 7
)

type Entry struct {
	Match  uuid.UUID
	Kind   Kind
	Tick   uint64
	Score  pong.Score
	Scorer pong.Side
	At     time.Time
}

func Marshal(e Entry) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldMatch, protowire.BytesType)
	b = protowire.AppendBytes(b, e.Match[:])
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Kind))
	b = protowire.AppendTag(b, fieldTick, protowire.VarintType)
	b = protowire.AppendVarint(b, e.Tick)
	b = protowire.AppendTag(b, fieldLeft, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Score.Left))
	b = protowire.AppendTag(b, fieldRight, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Score.Right))
	if e.Kind == KindPoint {
		b = protowire.AppendTag(b, fieldScorer, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Scorer))
	}
	b = protowire.AppendTag(b, fieldAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.At.UnixNano()))
	return b
}

func Unmarshal(b []byte) (Entry, error) {
	var e Entry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, fmt.Errorf("%w: %w", ErrCorrupt, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldMatch && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return e, fmt.Errorf("%w: %w", ErrCorrupt, protowire.ParseError(n))
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return e, fmt.Errorf("%w: match id: %w", ErrCorrupt, err)
			}
			e.Match = id
			b = b[n:]
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return e, fmt.Errorf("%w: %w", ErrCorrupt, protowire.ParseError(n))
			}
			e.setVarint(num, v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return e, fmt.Errorf("%w: %w", ErrCorrupt, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return e, nil
}

func (e *Entry) setVarint(num protowire.Number, v uint64) {
	switch num {
	case fieldKind:
		e.Kind = Kind(v)
	case fieldTick:
		e.Tick = v
	case fieldLeft:
		e.Score.Left = int(v)
	case fieldRight:
		e.Score.Right = int(v)
	case fieldScorer:
		e.Scorer = pong.Side(v)
	case fieldAt:
		e.At = time.Unix(0, int64(v))
	}
}

// Journal appends entries to a file. It is used from the frame loop only and
// is not safe for concurrent use.
type Journal struct {
	f *os.File
	w *bufio.Writer
}

func Open(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{f: f, w: bufio.NewWriter(f)}, nil
}

// Record writes one entry and flushes it so a crash loses at most the entry
// being written.
func (j *Journal) Record(e Entry) error {
	rec := protowire.AppendBytes(nil, Marshal(e))
	if _, err := j.w.Write(rec); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return j.w.Flush()
}

func (j *Journal) Close() error {
	if err := j.w.Flush(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}

// ReadAll decodes every record in r.
func ReadAll(r io.Reader) ([]Entry, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for len(b) > 0 {
		rec, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return entries, fmt.Errorf("%w: record %d: %w", ErrCorrupt, len(entries), protowire.ParseError(n))
		}
		e, err := Unmarshal(rec)
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
		b = b[n:]
	}
	return entries, nil
}
