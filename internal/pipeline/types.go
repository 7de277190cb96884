package pipeline

import (
	"time"
)

// PipelineStatus represents the current state of a recompute run
type PipelineStatus string

const (
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"
)

// Trigger names who asked for a run. Informational only.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerCLI       Trigger = "cli"
)

// Run tracks a single Recompute invocation. It is a display record for
// staleness and progress; it never gates concurrent runs.
type Run struct {
	ID             int64          `json:"id" db:"id"`
	Trigger        Trigger        `json:"trigger" db:"trigger"`
	Status         PipelineStatus `json:"status" db:"status"`
	TotalItems     int            `json:"total_items" db:"total_items"`
	ProcessedItems int            `json:"processed_items" db:"processed_items"`
	FailedItems    int            `json:"failed_items" db:"failed_items"`
	StartedAt      time.Time      `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at" db:"completed_at"`
	ErrorMessage   string         `json:"error_message" db:"error_message"`
}

// PoolConfig holds configuration for a bounded worker pool
type PoolConfig struct {
	Name        string
	WorkerCount int // Number of concurrent workers
}

// DefaultPoolConfig returns sensible defaults
func DefaultPoolConfig(name string) PoolConfig {
	return PoolConfig{
		Name:        name,
		WorkerCount: 4,
	}
}
