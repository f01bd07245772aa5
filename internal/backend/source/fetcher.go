package source

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// FetcherConfig configures upstream image retrieval.
type FetcherConfig struct {
	Timeout  time.Duration
	MaxBytes int64
	CacheTTL time.Duration
}

// Fetcher retrieves source images over HTTP, optionally through a Cache.
// Cached values are zstd compressed.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	cache    Cache
	cacheTTL time.Duration
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// NewFetcher creates a fetcher. cache may be nil.
func NewFetcher(config FetcherConfig, cache Cache) (*Fetcher, error) {
	f := &Fetcher{
		client:   &http.Client{Timeout: config.Timeout},
		maxBytes: config.MaxBytes,
		cache:    cache,
		cacheTTL: config.CacheTTL,
	}
	if cache == nil {
		return f, nil
	}

	var err error
	if f.encoder, err = zstd.NewWriter(nil); err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if f.decoder, err = zstd.NewReader(nil); err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return f, nil
}

// Fetch returns the body of a GET request to rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	key := cacheKey(rawURL)
	if data, ok := f.fromCache(ctx, key); ok {
		slog.Debug("Fetcher: cache hit", "url", rawURL, "size_bytes", len(data))
		return data, nil
	}

	start := time.Now()
	data, err := f.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	slog.Info("Fetcher: downloaded source image",
		"url", rawURL,
		"size_bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds())

	f.toCache(ctx, key, data)
	return data, nil
}

// Close releases the cache and codec resources.
func (f *Fetcher) Close() error {
	if f.cache == nil {
		return nil
	}
	f.encoder.Close()
	f.decoder.Close()
	return f.cache.Close()
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: upstream responded with status %d", ErrFetch, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: source image exceeds %d bytes", ErrFetch, f.maxBytes)
	}
	return data, nil
}

func (f *Fetcher) fromCache(ctx context.Context, key string) ([]byte, bool) {
	if f.cache == nil {
		return nil, false
	}
	compressed, ok, err := f.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Fetcher: cache read failed, bypassing cache", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	data, err := f.decoder.DecodeAll(compressed, nil)
	if err != nil {
		slog.Warn("Fetcher: cached value is corrupt, bypassing cache", "error", err)
		return nil, false
	}
	return data, true
}

func (f *Fetcher) toCache(ctx context.Context, key string, data []byte) {
	if f.cache == nil {
		return
	}
	compressed := f.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
	if err := f.cache.Set(ctx, key, compressed, f.cacheTTL); err != nil {
		slog.Warn("Fetcher: cache write failed", "error", err)
	}
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

func cacheKey(rawURL string) string {
	sum := blake3.Sum256([]byte(rawURL))
	return "imageproc:source:" + hex.EncodeToString(sum[:])
}
