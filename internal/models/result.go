package models

// SessionResponse is the render state of the upload session.
type SessionResponse struct {
	RunID    string           `json:"runId,omitempty"`
	Status   ProcessingStatus `json:"status"`
	Progress int              `json:"progress"`
	Logs     []string         `json:"logs"`
	Result   *AnalysisResult  `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Metadata *VideoMetadata   `json:"metadata,omitempty"`
}

// ErrorDetail is the failure body of the analyze and session routes.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

type RunListResponse struct {
	Runs []Run `json:"runs"`
}
