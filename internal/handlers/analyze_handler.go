package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/rallycoach/internal/services"
)

// AnalyzeHandler serves the backend side of the upload contract: one
// multipart video in, one AnalysisResult (or {"detail": ...}) out.
type AnalyzeHandler struct {
	uploader *VideoUploader
	acquirer services.ReportAcquirer
	timeout  time.Duration
}

func NewAnalyzeHandler(
	uploader *VideoUploader,
	acquirer services.ReportAcquirer,
	timeout time.Duration,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		uploader: uploader,
		acquirer: acquirer,
		timeout:  timeout,
	}
}

// HandleAnalyze handles POST /analyze
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	video, ferr := h.uploader.Stage(c)
	if ferr != nil {
		return detail(c, ferr.Code, ferr.Message)
	}
	if video.Cleanup != nil {
		defer video.Cleanup()
	}

	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.acquirer.Acquire(ctx, video)
	if err != nil {
		return detail(c, analyzeStatus(err), services.ErrorMessage(err))
	}

	return c.JSON(result)
}

func analyzeStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, services.ErrInvalidPayload),
		errors.Is(err, services.ErrEmptyResponse),
		errors.Is(err, services.ErrTransport):
		return fiber.StatusBadGateway
	}

	var statusErr *services.BackendStatusError
	if errors.As(err, &statusErr) {
		return fiber.StatusBadGateway
	}

	return fiber.StatusInternalServerError
}
