package extract

import (
	"context"
	"io"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 32 * 1024

// ChunkSource yields body chunks in order. Next returns io.EOF once the body is complete.
// The returned chunk is only valid until the following call.
type ChunkSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// ReaderSource reads chunks from an io.Reader such as an HTTP request body.
type ReaderSource struct {
	r       io.Reader
	scratch []byte
	eof     bool
}

// NewReaderSource wraps r. chunkSize <= 0 selects DefaultChunkSize.
func NewReaderSource(r io.Reader, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ReaderSource{
		r:       r,
		scratch: make([]byte, chunkSize),
	}
}

func (s *ReaderSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if s.eof {
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.r.Read(s.scratch)
		if err == io.EOF {
			s.eof = true
		} else if err != nil {
			return nil, err
		}
		if n > 0 {
			return s.scratch[:n], nil
		}
	}
}

// SliceSource serves a fixed sequence of chunks, then Err or io.EOF.
type SliceSource struct {
	Chunks [][]byte
	Err    error

	pulled int
}

func (s *SliceSource) Next(ctx context.Context) ([]byte, error) {
	if s.pulled < len(s.Chunks) {
		c := s.Chunks[s.pulled]
		s.pulled++
		return c, nil
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return nil, io.EOF
}

// Pulled reports how many chunks have been handed out.
func (s *SliceSource) Pulled() int {
	return s.pulled
}
