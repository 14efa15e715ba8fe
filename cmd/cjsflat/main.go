package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cjsflat/internal/core/errors"

	"github.com/spf13/cobra"
)

const VERSION = "0.1.0"

// errBuildFailed makes the process exit non-zero after the report has been
// printed; it is never printed itself.
var errBuildFailed = stderrors.New("build failed")

type globalFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "cjsflat",
		Short:         "Flatten CommonJS modules into one program",
		Long:          `cjsflat rewrites a set of CommonJS modules into a single program of uniquely named globals, re-resolving JSDoc type names across modules.`,
		Version:       VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(stderr, flags.verbose)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to cjsflat.toml (default: searched upwards from the working directory)")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(newBuildCmd(flags))
	root.AddCommand(newWatchCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	return root
}

func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// exitCode is 1 for failed builds and runtime errors and 2 for unusable
// configuration.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if stderrors.Is(err, errBuildFailed) {
		return 1
	}
	switch errors.CodeOf(err) {
	case errors.CodeValidationError, errors.CodeNotSupported, errors.CodeNotFound:
		return 2
	}
	return 1
}

func main() {
	err := newRootCmd(os.Stdout, os.Stderr).Execute()
	if err != nil && !stderrors.Is(err, errBuildFailed) {
		fmt.Fprintln(os.Stderr, err.Error())
	}
	os.Exit(exitCode(err))
}
