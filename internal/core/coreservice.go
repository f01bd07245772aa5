package core

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/jo-hoe/imageproc/internal/backend/database"
	"github.com/jo-hoe/imageproc/internal/backend/imagecommand"
	"github.com/jo-hoe/imageproc/internal/backend/operations"
	"github.com/jo-hoe/imageproc/internal/backend/source"
	"github.com/jo-hoe/imageproc/internal/common"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"
)

// ErrTransport means the source image could not be retrieved.
var ErrTransport = errors.New("transport error")

// Result is a successfully processed request.
type Result struct {
	JPEG           []byte
	Width          int
	Height         int
	OperationCount int
}

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	fetcher         *source.Fetcher
	decoder         *source.Decoder
	background      color.Color
	trailing        []operations.OperationConfig
	slots           *semaphore.Weighted
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	background, err := common.ParseColor(config.RotateBackground)
	if err != nil {
		return nil, fmt.Errorf("invalid rotate background: %w", err)
	}

	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}

	fetcher, err := getFetcher(config)
	if err != nil {
		_ = databaseService.Close()
		return nil, err
	}

	service := &CoreService{
		config:          config,
		databaseService: databaseService,
		fetcher:         fetcher,
		decoder:         source.NewDecoder(config.SVGFallbackWidth, config.SVGFallbackHeight),
		background:      background,
		trailing:        config.OperationConfigs(),
	}
	if config.MaxConcurrent > 0 {
		service.slots = semaphore.NewWeighted(int64(config.MaxConcurrent))
	}
	return service, nil
}

// Process fetches the command's source image, runs the requested operations followed by
// the configured trailing commands and encodes the result as JPEG. Every call is journaled.
func (service *CoreService) Process(ctx context.Context, cmd *imagecommand.ImageCommand) (*Result, error) {
	if cmd == nil {
		return nil, fmt.Errorf("command must not be nil")
	}
	start := time.Now()
	result, opCount, err := service.process(ctx, cmd)
	service.journal(ctx, cmd.ImageURL, opCount, start, result, err)
	return result, err
}

func (service *CoreService) process(ctx context.Context, cmd *imagecommand.ImageCommand) (*Result, int, error) {
	if service.slots != nil {
		if err := service.slots.Acquire(ctx, 1); err != nil {
			return nil, 0, err
		}
		defer service.slots.Release(1)
	}

	ops, err := service.buildOperations(cmd)
	if err != nil {
		return nil, 0, err
	}

	data, err := service.fetcher.Fetch(ctx, cmd.ImageURL)
	if err != nil {
		return nil, len(ops), fmt.Errorf("%w: %w", ErrTransport, err)
	}

	img, err := service.decoder.Decode(data)
	if err != nil {
		return nil, len(ops), fmt.Errorf("%w: %w", operations.ErrProcessing, err)
	}

	processed, err := operations.NewInvoker(ops).Execute(ctx, img)
	if err != nil {
		return nil, len(ops), err
	}

	encoded, err := source.EncodeJPEG(processed, service.config.JPEGQuality)
	if err != nil {
		return nil, len(ops), fmt.Errorf("%w: %w", operations.ErrProcessing, err)
	}

	return &Result{
		JPEG:           encoded,
		Width:          processed.Bounds().Dx(),
		Height:         processed.Bounds().Dy(),
		OperationCount: len(ops),
	}, len(ops), nil
}

// buildOperations translates the request's variants and appends the trailing commands.
func (service *CoreService) buildOperations(cmd *imagecommand.ImageCommand) ([]operations.Operation, error) {
	ops := operations.NewTranslator(service.background).Build(cmd)
	if len(service.trailing) == 0 {
		return ops, nil
	}

	trailing, err := operations.DefaultRegistry.CreateAll(service.trailing)
	if err != nil {
		return nil, fmt.Errorf("failed to create configured commands: %w", err)
	}
	return append(ops, trailing...), nil
}

func (service *CoreService) journal(ctx context.Context, sourceURL string, opCount int, start time.Time, result *Result, err error) {
	entry := &database.Entry{
		SourceURL:  sourceURL,
		OpCount:    opCount,
		Status:     Status(err),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if result != nil {
		entry.OutputBytes = len(result.JPEG)
	}

	// the journal outlives a cancelled request
	if _, jErr := service.databaseService.AddEntry(context.WithoutCancel(ctx), entry); jErr != nil {
		slog.Warn("failed to write journal entry", "error", jErr, "source_url", sourceURL)
	}
}

// GetRecentEntries returns the newest journal entries.
func (service *CoreService) GetRecentEntries(ctx context.Context, limit int) ([]*database.Entry, error) {
	return service.databaseService.GetRecentEntries(ctx, limit)
}

// Close releases the journal, the fetcher and its cache.
func (service *CoreService) Close() error {
	return errors.Join(service.fetcher.Close(), service.databaseService.Close())
}

// Status classifies a Process error for the journal.
func Status(err error) string {
	switch {
	case err == nil:
		return database.StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return database.StatusCancelled
	case errors.Is(err, ErrTransport):
		return database.StatusTransport
	case errors.Is(err, operations.ErrProcessing):
		return database.StatusProcessing
	}
	return database.StatusInternal
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

func getFetcher(config *ServiceConfig) (*source.Fetcher, error) {
	var redisOptions *redis.Options
	if config.Cache.Type == "redis" {
		redisOptions = &redis.Options{
			Addr:     config.Cache.Redis.Addr,
			Password: config.Cache.Redis.Password,
			DB:       config.Cache.Redis.DB,
		}
	}
	cache, err := source.NewCache(config.Cache.Type, config.Cache.MaxEntries, redisOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize source cache: %w", err)
	}

	fetcher, err := source.NewFetcher(source.FetcherConfig{
		Timeout:  config.FetchTimeout,
		MaxBytes: config.MaxSourceBytes,
		CacheTTL: config.Cache.TTL,
	}, cache)
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, err
	}
	slog.Info("source fetcher initialized", "cache", config.Cache.Type)
	return fetcher, nil
}
