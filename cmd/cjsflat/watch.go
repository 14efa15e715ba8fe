package main

import (
	"context"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"cjsflat/internal/core/app"
	"cjsflat/internal/core/config"
	"cjsflat/internal/shared/observability"
	"cjsflat/internal/ui/report"

	"github.com/spf13/cobra"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var metrics string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever an input changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := openProject(ctx, flags, func(cfg *config.Config) {
				if cmd.Flags().Changed("metrics") {
					cfg.Observability.MetricsAddress = metrics
				}
			})
			if err != nil {
				return err
			}
			defer p.Close(context.Background())

			stderr := cmd.ErrOrStderr()
			p.compiler.SetUpdateHandler(func(build *app.Build) {
				printWatchReport(stderr, p.compiler.Config, build)
			})

			if addr := p.compiler.Config.Observability.MetricsAddress; addr != "" {
				server := observability.NewServer(addr, p.compiler.Status)
				if err := server.Start(ctx); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := server.Stop(shutdownCtx); err != nil {
						slog.Warn("observability server shutdown failed", "error", err)
					}
				}()
			}
			return p.compiler.Watch(ctx, p.configPath)
		},
	}
	cmd.Flags().StringVar(&metrics, "metrics", "", "serve /metrics and /health on this address (e.g. :9464)")
	return cmd
}

// printWatchReport always reports to stderr; in watch mode the program is
// only ever written to the output file.
func printWatchReport(w io.Writer, cfg *config.Config, build *app.Build) {
	if err := report.Write(w, cfg.Report.Format, build.Summary(), cfg.Report.ColorEnabled()); err != nil {
		slog.Warn("report failed", "error", err)
	}
}
