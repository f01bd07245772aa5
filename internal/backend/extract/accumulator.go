package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

type state int

const (
	stateAccumulating state = iota
	stateDecoded
	stateFailed
)

type eventKind int

const (
	eventChunk eventKind = iota
	eventEnd
	eventFailure
)

// Event is one observation of the body stream fed into Advance.
type Event struct {
	kind  eventKind
	chunk []byte
	err   error
}

// Chunk reports a piece of body data. The accumulator copies it; the caller may reuse b.
func Chunk(b []byte) Event {
	return Event{kind: eventChunk, chunk: b}
}

// EndOfStream reports that the body is complete.
func EndOfStream() Event {
	return Event{kind: eventEnd}
}

// TransportFailure reports that reading the body failed.
func TransportFailure(err error) Event {
	return Event{kind: eventFailure, err: err}
}

// Step is the outcome of one Advance call.
type Step int

const (
	// Suspended means the accumulator wants the next event.
	Suspended Step = iota
	// Done means the accumulator reached a terminal state; see Result.
	Done
)

// DecodeFunc turns the complete body into a message. It owns buf.
type DecodeFunc[T any] func(buf []byte) (T, error)

// Option configures an Accumulator.
type Option func(*options)

type options struct {
	maxBytes int64
}

// WithMaxBytes caps the accumulated body size. Zero or less means no cap.
func WithMaxBytes(n int64) Option {
	return func(o *options) {
		o.maxBytes = n
	}
}

// Accumulator buffers a chunked body and decodes it exactly once, after the stream ends.
// It is a plain state machine: Advance never blocks, Drain drives it from a ChunkSource.
// An Accumulator serves a single request and is not safe for concurrent use.
type Accumulator[T any] struct {
	state    state
	buf      []byte
	maxBytes int64
	decode   DecodeFunc[T]
	decodes  int
	result   T
	err      *Error
}

// NewAccumulator creates an accumulator in the accumulating state.
func NewAccumulator[T any](decode DecodeFunc[T], opts ...Option) *Accumulator[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Accumulator[T]{
		state:    stateAccumulating,
		maxBytes: o.maxBytes,
		decode:   decode,
	}
}

// Failed creates an accumulator that is already terminal with a precondition error.
// It never reads or decodes anything.
func Failed[T any](err error) *Accumulator[T] {
	return &Accumulator[T]{
		state: stateFailed,
		err:   newError(KindPrecondition, err),
	}
}

// Advance feeds one event into the state machine. Events after a terminal state are ignored.
func (a *Accumulator[T]) Advance(ev Event) Step {
	if a.state != stateAccumulating {
		return Done
	}

	switch ev.kind {
	case eventChunk:
		if a.maxBytes > 0 && int64(len(a.buf))+int64(len(ev.chunk)) > a.maxBytes {
			a.fail(newError(KindTooLarge, fmt.Errorf("body exceeds %d bytes", a.maxBytes)))
			return Done
		}
		a.buf = append(a.buf, ev.chunk...)
		return Suspended
	case eventFailure:
		a.fail(newError(KindTransport, ev.err))
		return Done
	case eventEnd:
		buf := a.buf
		a.buf = nil
		a.decodes++
		v, err := a.decode(buf)
		if err != nil {
			a.fail(newError(KindDecode, err))
			return Done
		}
		a.result = v
		a.state = stateDecoded
		return Done
	}
	return Suspended
}

func (a *Accumulator[T]) fail(err *Error) {
	a.buf = nil
	a.err = err
	a.state = stateFailed
}

// Done reports whether the accumulator reached a terminal state.
func (a *Accumulator[T]) Done() bool {
	return a.state != stateAccumulating
}

// Buffered returns the number of bytes collected so far.
func (a *Accumulator[T]) Buffered() int {
	return len(a.buf)
}

// Decodes returns how many times the decode function ran. It is never more than one.
func (a *Accumulator[T]) Decodes() int {
	return a.decodes
}

// Result returns the decoded message or the terminal error.
// Before a terminal state it returns an error.
func (a *Accumulator[T]) Result() (T, error) {
	switch a.state {
	case stateDecoded:
		return a.result, nil
	case stateFailed:
		var zero T
		return zero, a.err
	}
	var zero T
	return zero, errors.New("accumulator has not finished")
}

// Drain pulls chunks from src until the accumulator is done and returns its result.
// The calling goroutine parks inside src.Next while the body is in flight.
// A cancelled ctx ends the accumulation with a transport error.
func (a *Accumulator[T]) Drain(ctx context.Context, src ChunkSource) (T, error) {
	for !a.Done() {
		if err := ctx.Err(); err != nil {
			a.Advance(TransportFailure(err))
			break
		}
		chunk, err := src.Next(ctx)
		switch {
		case err == nil:
			a.Advance(Chunk(chunk))
		case errors.Is(err, io.EOF):
			slog.Debug("Accumulator: body complete, decoding", "buffered_bytes", len(a.buf))
			a.Advance(EndOfStream())
		default:
			a.Advance(TransportFailure(err))
		}
	}
	return a.Result()
}
