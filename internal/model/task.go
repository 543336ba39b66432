package model

import "time"

// TaskStatus is the lifecycle state of a background verification task
type TaskStatus string

const (
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskError      TaskStatus = "error"
)

// TaskResult is the full payload recorded when a background task completes
type TaskResult struct {
	Report        *VerificationReport `json:"report"`
	Transcription string              `json:"transcription,omitempty"`
	SearchResults []SearchResult      `json:"search_results,omitempty"`
	SourceChecks  []SourceStatus      `json:"source_checks,omitempty"`
	ModelsUsed    ModelsUsed          `json:"models_used"`
}

// Task is the poll-able record of a background verification job.
// Status transitions are processing -> completed or processing -> error,
// written exactly once.
type Task struct {
	ID        string      `json:"task_id"`
	Status    TaskStatus  `json:"status"`
	Result    *TaskResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// SourceStatus is the accessibility check result for one cited source URL
type SourceStatus struct {
	URL          string `json:"url"`
	IsAccessible bool   `json:"is_accessible"`
	StatusCode   int    `json:"status_code,omitempty"`
	Error        string `json:"error,omitempty"`
}
