package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/rallycoach/internal/models"
)

var ErrRunNotFound = errors.New("run not found")

type RunRepository interface {
	Create(run *models.Run) error
	FindByID(id uuid.UUID) (*models.Run, error)
	UpdateStatus(id uuid.UUID, status models.ProcessingStatus) error
	UpdateResult(id uuid.UUID, result *models.AnalysisResult) error
	UpdateError(id uuid.UUID, errorMsg string) error
	ListRecent(limit int) ([]models.Run, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(run *models.Run) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (r *runRepository) FindByID(id uuid.UUID) (*models.Run, error) {
	var run models.Run
	if err := r.db.Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to find run: %w", err)
	}
	return &run, nil
}

func (r *runRepository) UpdateStatus(id uuid.UUID, status models.ProcessingStatus) error {
	return r.update(id, map[string]interface{}{
		"status": status,
	})
}

func (r *runRepository) UpdateResult(id uuid.UUID, result *models.AnalysisResult) error {
	// Updates with a map skips field serializers, so the result goes through the model.
	res := r.db.Model(&models.Run{ID: id}).
		Select("status", "result", "updated_at").
		Updates(&models.Run{
			Status:    models.StatusCompleted,
			Result:    result,
			UpdatedAt: time.Now(),
		})

	if res.Error != nil {
		return fmt.Errorf("failed to update result: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (r *runRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusError,
		"error_message": errorMsg,
	})
}

func (r *runRepository) ListRecent(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []models.Run
	err := r.db.
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

func (r *runRepository) update(id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.Model(&models.Run{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update run: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrRunNotFound
	}

	return nil
}
