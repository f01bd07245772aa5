package backend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/imageproc/internal/backend/database"
	"github.com/jo-hoe/imageproc/internal/backend/extract"
	"github.com/jo-hoe/imageproc/internal/backend/imagecommand"
	"github.com/jo-hoe/imageproc/internal/backend/operations"
	"github.com/jo-hoe/imageproc/internal/backend/source"
	"github.com/jo-hoe/imageproc/internal/common"
	"github.com/jo-hoe/imageproc/internal/core"

	"github.com/labstack/echo/v4"
)

const (
	MIMEImageJPEG       = "image/jpeg"
	defaultHistoryLimit = 50
)

type APIService struct {
	coreService *core.CoreService
	binder      *extract.ProtoBinder
}

type historyQuery struct {
	Limit int `query:"limit" validate:"min=1,max=500"`
}

type historyResponse struct {
	Entries []*database.Entry `json:"entries"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
		binder:      extract.NewProtoBinder(config.ChunkSize, config.MaxBodyBytes),
	}
}

// SetRoutes installs the request binder and registers all API routes on e.
func (s *APIService) SetRoutes(e *echo.Echo) {
	e.Binder = s.binder
	if e.Validator == nil {
		e.Validator = &common.GenericEchoValidator{}
	}

	// Set probe route
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	e.POST("/image_proc", s.processImageHandler)
	e.GET("/history", s.historyHandler)
}

func (s *APIService) processImageHandler(c echo.Context) error {
	var cmd imagecommand.ImageCommand
	if err := c.Bind(&cmd); err != nil {
		return err
	}

	result, err := s.coreService.Process(c.Request().Context(), &cmd)
	if err != nil {
		return processingHTTPError(err)
	}

	slog.Info("image processed",
		"source_url", cmd.ImageURL,
		"operation_count", result.OperationCount,
		"width", result.Width,
		"height", result.Height,
		"size_bytes", len(result.JPEG))
	return c.Blob(http.StatusOK, MIMEImageJPEG, result.JPEG)
}

func (s *APIService) historyHandler(c echo.Context) error {
	query := historyQuery{Limit: defaultHistoryLimit}
	if err := c.Bind(&query); err != nil {
		return err
	}
	if err := c.Validate(&query); err != nil {
		return err
	}

	entries, err := s.coreService.GetRecentEntries(c.Request().Context(), query.Limit)
	if err != nil {
		slog.Error("failed to read journal", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read history").SetInternal(err)
	}
	return c.JSON(http.StatusOK, historyResponse{Entries: entries})
}

// processingHTTPError maps a core.CoreService failure to its HTTP status.
func processingHTTPError(err error) *echo.HTTPError {
	code := statusCode(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = http.StatusText(code)
	}
	return echo.NewHTTPError(code, message).SetInternal(err)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, source.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, operations.ErrProcessing):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
