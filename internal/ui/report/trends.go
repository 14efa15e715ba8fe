package report

import (
	"fmt"
	"strings"
	"time"

	"cjsflat/internal/data/history"
)

// RenderBuildsTSV lists recorded builds, oldest first.
func RenderBuildsTSV(builds []history.Build) []byte {
	var buf strings.Builder
	buf.WriteString("RunID\tStarted\tDurationMs\tModules\tErrors\tWarnings\tAborted\tOutputHash\n")
	for _, b := range builds {
		fmt.Fprintf(&buf, "%s\t%s\t%d\t%d\t%d\t%d\t%t\t%s\n",
			b.RunID,
			b.StartedAt.Format(time.RFC3339),
			b.Duration.Milliseconds(),
			b.Modules,
			b.Errors,
			b.Warnings,
			b.Aborted,
			shortHash(b.OutputHash),
		)
	}
	return []byte(buf.String())
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
