package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/rallycoach/internal/models"
	"alfredoptarigan/rallycoach/internal/repositories"
)

const maxRunListLimit = 100

type RunHandler struct {
	runRepo repositories.RunRepository
}

func NewRunHandler(runRepo repositories.RunRepository) *RunHandler {
	return &RunHandler{
		runRepo: runRepo,
	}
}

// HandleGetRun handles GET /runs/:id
func (h *RunHandler) HandleGetRun(c *fiber.Ctx) error {
	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid run ID format",
		})
	}

	run, err := h.runRepo.FindByID(runID)
	if err != nil {
		if errors.Is(err, repositories.ErrRunNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Run not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load run",
		})
	}

	return c.JSON(run)
}

// HandleListRuns handles GET /runs?limit=20
func (h *RunHandler) HandleListRuns(c *fiber.Ctx) error {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = v
	}
	if limit > maxRunListLimit {
		limit = maxRunListLimit
	}

	runs, err := h.runRepo.ListRecent(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list runs",
		})
	}

	if runs == nil {
		runs = []models.Run{}
	}
	return c.JSON(models.RunListResponse{Runs: runs})
}
