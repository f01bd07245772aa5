package source

import "errors"

var (
	// ErrInvalidURL means the source locator is not a fetchable http(s) URL.
	ErrInvalidURL = errors.New("invalid source url")
	// ErrFetch means the upstream transfer failed.
	ErrFetch = errors.New("source fetch failed")
	// ErrUnsupportedImage means the fetched bytes are not a decodable image.
	ErrUnsupportedImage = errors.New("unsupported source image")
)
