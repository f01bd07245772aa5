package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Message is a binary request payload that can decode itself from a complete body.
type Message interface {
	Unmarshal(b []byte) error
}

// ProtoBinder binds application/octet-stream bodies into Message targets and hands
// every other target to Fallback.
type ProtoBinder struct {
	Fallback  echo.Binder
	ChunkSize int
	MaxBytes  int64
}

// NewProtoBinder creates a binder that falls back to echo's DefaultBinder.
func NewProtoBinder(chunkSize int, maxBytes int64) *ProtoBinder {
	return &ProtoBinder{
		Fallback:  &echo.DefaultBinder{},
		ChunkSize: chunkSize,
		MaxBytes:  maxBytes,
	}
}

// Bind implements echo.Binder. Extraction failures are returned as *echo.HTTPError
// carrying the *Error as its internal error.
func (b *ProtoBinder) Bind(i interface{}, c echo.Context) error {
	msg, ok := i.(Message)
	if !ok {
		return b.Fallback.Bind(i, c)
	}

	if _, err := b.Accumulator(c.Request(), msg).Drain(c.Request().Context(), NewReaderSource(c.Request().Body, b.ChunkSize)); err != nil {
		var extractErr *Error
		if !errors.As(err, &extractErr) {
			extractErr = newError(KindTransport, err)
		}
		slog.Warn("ProtoBinder: failed to extract request message",
			"kind", extractErr.Kind.String(),
			"error", extractErr.Err,
			"path", c.Path())
		return echo.NewHTTPError(StatusCode(extractErr.Kind), extractErr.Error()).SetInternal(extractErr)
	}
	return nil
}

// Accumulator prepares the extraction of msg from req. A request without an
// application/octet-stream content type yields an accumulator that is already failed,
// so the body is never touched.
func (b *ProtoBinder) Accumulator(req *http.Request, msg Message) *Accumulator[Message] {
	if err := checkContentType(req); err != nil {
		return Failed[Message](err)
	}
	return NewAccumulator(func(buf []byte) (Message, error) {
		if err := msg.Unmarshal(buf); err != nil {
			return nil, err
		}
		return msg, nil
	}, WithMaxBytes(b.MaxBytes))
}

func checkContentType(req *http.Request) error {
	contentType := req.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		return fmt.Errorf("missing content type, expected %s", echo.MIMEOctetStream)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("invalid content type %q: %w", contentType, err)
	}
	if mediaType != echo.MIMEOctetStream {
		return fmt.Errorf("content type mismatched: got %s, expected %s", mediaType, echo.MIMEOctetStream)
	}
	return nil
}

// StatusCode maps an extraction failure kind to its HTTP status.
func StatusCode(kind Kind) int {
	switch kind {
	case KindPrecondition:
		return http.StatusUnsupportedMediaType
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindTransport, KindDecode:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
