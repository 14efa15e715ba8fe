package history

import (
	"time"

	"github.com/google/uuid"
)

const SchemaVersion = 1

// Build is one row of the builds table: the outcome of one compile.
type Build struct {
	RunID      string        `json:"run_id"`
	ProjectKey string        `json:"project_key"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Modules    int           `json:"modules"`
	Errors     int           `json:"errors"`
	Warnings   int           `json:"warnings"`
	// Aborted is set when a cyclic require graph stopped the pass.
	Aborted    bool   `json:"aborted"`
	OutputHash string `json:"output_hash"`
}

// NewRunID returns a fresh build run id.
func NewRunID() string {
	return uuid.NewString()
}

// Succeeded reports whether the build produced a program without errors.
func (b Build) Succeeded() bool {
	return !b.Aborted && b.Errors == 0
}
