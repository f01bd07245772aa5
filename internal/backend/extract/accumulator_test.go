package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/jo-hoe/imageproc/internal/backend/imagecommand"
	"github.com/stretchr/testify/require"
)

func splitEvery(data []byte, n int) [][]byte {
	var chunks [][]byte
	for len(data) > n {
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	if len(data) > 0 {
		chunks = append(chunks, data)
	}
	return chunks
}

func splitInto(data []byte, parts int) [][]byte {
	size := (len(data) + parts - 1) / parts
	if size == 0 {
		size = 1
	}
	return splitEvery(data, size)
}

func decodeCommand(buf []byte) (*imagecommand.ImageCommand, error) {
	cmd := &imagecommand.ImageCommand{}
	if err := cmd.Unmarshal(buf); err != nil {
		return nil, err
	}
	return cmd, nil
}

func commandBytes(t *testing.T) []byte {
	t.Helper()
	data, err := (&imagecommand.ImageCommand{
		ImageURL: "http://x/img.png",
		Ops: []*imagecommand.OpSlot{
			imagecommand.Slot(&imagecommand.Resize{W: 100, H: 50}),
			imagecommand.Slot(nil),
			imagecommand.Slot(&imagecommand.Rotate{Angle: 90}),
		},
	}).Marshal()
	require.NoError(t, err)
	return data
}

func TestAccumulator_ChunkBoundariesDoNotMatter(t *testing.T) {
	data := commandBytes(t)

	splittings := map[string][][]byte{
		"single chunk": {data},
		"three chunks": splitInto(data, 3),
		"seven chunks": splitInto(data, 7),
		"byte at time": splitEvery(data, 1),
		"with empties": append([][]byte{{}}, append(splitEvery(data, 4), []byte{})...),
	}

	var want *imagecommand.ImageCommand
	for name, chunks := range splittings {
		t.Run(name, func(t *testing.T) {
			acc := NewAccumulator(decodeCommand)
			got, err := acc.Drain(context.Background(), &SliceSource{Chunks: chunks})
			require.NoError(t, err)
			require.Equal(t, 1, acc.Decodes())
			if want == nil {
				want = got
			}
			require.Equal(t, want, got)
			require.Equal(t, "http://x/img.png", got.ImageURL)
			require.Len(t, got.Ops, 3)
		})
	}
}

func TestAccumulator_MalformedIsDecodeErrorForEverySplitting(t *testing.T) {
	data := commandBytes(t)
	truncated := data[:len(data)-2]

	for _, chunks := range [][][]byte{{truncated}, splitInto(truncated, 3), splitEvery(truncated, 1)} {
		acc := NewAccumulator(decodeCommand)
		_, err := acc.Drain(context.Background(), &SliceSource{Chunks: chunks})
		require.Error(t, err)
		require.ErrorIs(t, err, ErrDecode)
		require.ErrorIs(t, err, imagecommand.ErrMalformed)

		var extractErr *Error
		require.True(t, errors.As(err, &extractErr))
		require.Equal(t, KindDecode, extractErr.Kind)
	}
}

func TestAccumulator_DecodeOnlyAfterEndOfStream(t *testing.T) {
	data := commandBytes(t)
	chunks := splitEvery(data, 2)

	calls := 0
	acc := NewAccumulator(func(buf []byte) ([]byte, error) {
		calls++
		return buf, nil
	})

	for _, c := range chunks {
		require.Equal(t, Suspended, acc.Advance(Chunk(c)))
		require.Zero(t, calls, "decode ran while chunks were pending")
		require.False(t, acc.Done())
	}
	require.Equal(t, len(data), acc.Buffered())

	require.Equal(t, Done, acc.Advance(EndOfStream()))
	require.Equal(t, 1, calls)

	// terminal state ignores further events
	require.Equal(t, Done, acc.Advance(EndOfStream()))
	require.Equal(t, Done, acc.Advance(Chunk([]byte{1})))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, acc.Decodes())

	got, err := acc.Result()
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestAccumulator_ChunkIsCopied(t *testing.T) {
	acc := NewAccumulator(func(buf []byte) ([]byte, error) { return buf, nil })
	chunk := []byte("abc")
	acc.Advance(Chunk(chunk))
	chunk[0] = 'z'
	acc.Advance(EndOfStream())

	got, err := acc.Result()
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}

func TestAccumulator_TransportFailureSkipsDecode(t *testing.T) {
	readErr := errors.New("connection reset")
	calls := 0
	acc := NewAccumulator(func(buf []byte) (int, error) {
		calls++
		return len(buf), nil
	})

	_, err := acc.Drain(context.Background(), &SliceSource{
		Chunks: [][]byte{[]byte("partial")},
		Err:    readErr,
	})
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, readErr)
	require.Zero(t, calls)
	require.Zero(t, acc.Buffered())
}

func TestAccumulator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &SliceSource{Chunks: [][]byte{[]byte("a")}}
	acc := NewAccumulator(decodeCommand)
	_, err := acc.Drain(ctx, src)
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, src.Pulled())
	require.Zero(t, acc.Decodes())
}

func TestAccumulator_MaxBytes(t *testing.T) {
	acc := NewAccumulator(decodeCommand, WithMaxBytes(4))
	_, err := acc.Drain(context.Background(), &SliceSource{Chunks: [][]byte{[]byte("abc"), []byte("de")}})
	require.ErrorIs(t, err, ErrTooLarge)
	require.Zero(t, acc.Decodes())
	require.Zero(t, acc.Buffered())
}

func TestAccumulator_MaxBytesExactFits(t *testing.T) {
	acc := NewAccumulator(func(buf []byte) (string, error) { return string(buf), nil }, WithMaxBytes(5))
	got, err := acc.Drain(context.Background(), &SliceSource{Chunks: [][]byte{[]byte("abc"), []byte("de")}})
	require.NoError(t, err)
	require.Equal(t, "abcde", got)
}

func TestFailed_IsTerminalWithoutReading(t *testing.T) {
	src := &SliceSource{Chunks: [][]byte{[]byte("a")}}
	acc := Failed[*imagecommand.ImageCommand](errors.New("content type mismatched"))
	require.True(t, acc.Done())

	_, err := acc.Drain(context.Background(), src)
	require.ErrorIs(t, err, ErrPrecondition)
	require.Zero(t, src.Pulled())
	require.Zero(t, acc.Decodes())
}

func TestAccumulator_ResultBeforeDone(t *testing.T) {
	acc := NewAccumulator(decodeCommand)
	_, err := acc.Result()
	require.Error(t, err)
}
