package models

type ProcessingStatus string

const (
	StatusIdle      ProcessingStatus = "IDLE"
	StatusUploading ProcessingStatus = "UPLOADING"
	StatusInference ProcessingStatus = "INFERENCE"
	StatusAnalyzing ProcessingStatus = "ANALYZING"
	StatusCompleted ProcessingStatus = "COMPLETED"
	StatusError     ProcessingStatus = "ERROR"
)

// IsActive reports whether a run is in flight.
func (s ProcessingStatus) IsActive() bool {
	switch s {
	case StatusUploading, StatusInference, StatusAnalyzing:
		return true
	}
	return false
}

func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}
