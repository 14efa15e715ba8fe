package main

import (
	"encoding/json"
	"fmt"
	"time"

	"cjsflat/internal/core/config"
	"cjsflat/internal/core/errors"
	"cjsflat/internal/ui/report"

	"github.com/spf13/cobra"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		limit  int
		since  time.Duration
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds of this project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx, flags, func(cfg *config.Config) {
				cfg.History.Enabled = true
			})
			if err != nil {
				return err
			}
			defer p.Close(ctx)

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			builds, err := p.compiler.History().LoadBuilds(p.compiler.ProjectKey(), from, limit)
			if err != nil {
				return errors.Wrap(err, errors.CodeInternal, "load history")
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(builds)
			}
			_, err = fmt.Fprint(out, string(report.RenderBuildsTSV(builds)))
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most this many builds (0 for all)")
	cmd.Flags().DurationVar(&since, "since", 0, "only builds started within this window (e.g. 24h)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print builds as JSON")
	return cmd
}
