package services

import (
	"context"

	"alfredoptarigan/rallycoach/internal/models"
)

// VideoInput is one uploaded match as seen by the acquisition strategies.
type VideoInput struct {
	Metadata models.VideoMetadata
	// Path is the staged copy of the upload on local disk.
	Path     string
	MIMEType string
	Frames   []Attachment
	// Cleanup releases the staged upload. It may be nil.
	Cleanup func()
}

// ReportAcquirer turns an uploaded video into a coaching report. It returns
// either a fully validated result or an error, never a partial result.
type ReportAcquirer interface {
	Acquire(ctx context.Context, video VideoInput) (*models.AnalysisResult, error)
	Name() string
}
