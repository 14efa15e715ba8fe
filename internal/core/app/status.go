package app

import (
	"context"
	"path/filepath"

	"cjsflat/internal/shared/observability"
)

// ProjectKey names the project in the history store.
func (c *Compiler) ProjectKey() string {
	root, err := filepath.Abs(c.Paths.ProjectRoot)
	if err != nil {
		root = c.Paths.ProjectRoot
	}
	return filepath.Base(root)
}

// Status backs the /health endpoint: "starting" before the first build,
// "failed" while the last build has errors or was aborted.
func (c *Compiler) Status(ctx context.Context) observability.Status {
	last := c.Last()
	if last == nil {
		return observability.Status{Status: "starting"}
	}
	status := observability.Status{
		Status:    "up",
		LastBuild: last.StartedAt,
		Errors:    last.Summary().Counts().Errors,
	}
	switch {
	case last.Aborted:
		status.Status = "failed"
		status.Message = "require cycle"
	case status.Errors > 0:
		status.Status = "failed"
	}
	return status
}
