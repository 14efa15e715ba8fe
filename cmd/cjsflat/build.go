package main

import (
	"io"
	"strings"

	"cjsflat/internal/core/app"
	"cjsflat/internal/core/config"
	"cjsflat/internal/ui/report"

	"github.com/spf13/cobra"
)

func newBuildCmd(flags *globalFlags) *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Flatten the project's modules once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx, flags, func(cfg *config.Config) {
				if cmd.Flags().Changed("out") {
					cfg.Output = out
				}
				if cmd.Flags().Changed("format") {
					cfg.Report.Format = strings.ToLower(format)
				}
			})
			if err != nil {
				return err
			}
			defer p.Close(ctx)

			build, err := p.compiler.Build(ctx)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), p.compiler.Config, build)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file; "-" writes the program to stdout`)
	cmd.Flags().StringVar(&format, "format", "", "report format (text|json|yaml)")
	return cmd
}

// emit writes the program to stdout when no output file is configured, and
// the report to stderr, or to stdout for machine formats when the program
// went to a file.
func emit(stdout, stderr io.Writer, cfg *config.Config, build *app.Build) error {
	reportTo := stderr
	if cfg.WritesStdout() {
		if program := build.Program(); program != "" {
			if _, err := io.WriteString(stdout, program+"\n"); err != nil {
				return err
			}
		}
	} else if cfg.Report.Format != report.FormatText {
		reportTo = stdout
	}
	if err := report.Write(reportTo, cfg.Report.Format, build.Summary(), cfg.Report.ColorEnabled()); err != nil {
		return err
	}
	if build.Failed() {
		return errBuildFailed
	}
	return nil
}
