package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/rallycoach/internal/models"
	"alfredoptarigan/rallycoach/internal/services"
)

const (
	defaultWaitTimeout = 30 * time.Second
	maxWaitTimeout     = 2 * time.Minute
)

type SessionHandler struct {
	uploader *VideoUploader
	session  services.Session
}

func NewSessionHandler(uploader *VideoUploader, session services.Session) *SessionHandler {
	return &SessionHandler{
		uploader: uploader,
		session:  session,
	}
}

// HandleUpload handles POST /session/upload
func (h *SessionHandler) HandleUpload(c *fiber.Ctx) error {
	// Refuse before staging so a busy session does not cost a disk write.
	if st := h.session.Snapshot(); st.Status != models.StatusIdle {
		return detail(c, fiber.StatusConflict, busyMessage(st.Status))
	}

	video, ferr := h.uploader.Stage(c)
	if ferr != nil {
		return detail(c, ferr.Code, ferr.Message)
	}

	if err := h.session.Start(video); err != nil {
		if video.Cleanup != nil {
			video.Cleanup()
		}
		if errors.Is(err, services.ErrRunInProgress) {
			return detail(c, fiber.StatusConflict, err.Error())
		}
		return detail(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.Status(fiber.StatusAccepted).JSON(h.session.Snapshot().Response())
}

// HandleGet handles GET /session
func (h *SessionHandler) HandleGet(c *fiber.Ctx) error {
	return c.JSON(h.session.Snapshot().Response())
}

// HandleWait handles GET /session/wait?timeout=30s
func (h *SessionHandler) HandleWait(c *fiber.Ctx) error {
	timeout := defaultWaitTimeout
	if raw := c.Query("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return detail(c, fiber.StatusBadRequest, "Invalid timeout, expected a duration such as 30s")
		}
		timeout = d
	}
	if timeout > maxWaitTimeout {
		timeout = maxWaitTimeout
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
	defer cancel()

	// A wait that times out still answers with the current state.
	st, _ := h.session.Wait(ctx)
	return c.JSON(st.Response())
}

// HandleReset handles POST /session/reset
func (h *SessionHandler) HandleReset(c *fiber.Ctx) error {
	h.session.Reset()
	return c.JSON(h.session.Snapshot().Response())
}

func busyMessage(status models.ProcessingStatus) string {
	if status.IsTerminal() {
		return "The previous run has finished. Reset the session before uploading again."
	}
	return services.ErrRunInProgress.Error()
}
