package models

type VideoMetadata struct {
	Name       string   `json:"name"`
	Size       int64    `json:"size"`
	Duration   *float64 `json:"duration,omitempty"`
	PreviewURL string   `json:"previewUrl,omitempty"`
}
