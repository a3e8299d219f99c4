// Package cli wires configuration, the tracker and the renderers into the
// peptrack command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"peptrack/internal/catalog"
	"peptrack/internal/config"
	"peptrack/internal/logger"
	"peptrack/internal/report"
	"peptrack/internal/snapshot"
)

// Exit codes.
const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitUnrecognizedStatus = 2
	ExitCorruptState       = 3
	ExitFetch              = 4
	ExitConfig             = 5
)

var errConfig = errors.New("configuration")

// flagKeys maps command-line flags to configuration keys. Only flags the
// user set are layered over file and environment values.
var flagKeys = map[string]string{
	"url":          "source.url",
	"timeout":      "source.timeout",
	"state":        "state.path",
	"rewrite":      "state.rewrite",
	"history":      "history.path",
	"metrics-file": "metrics.file",
	"format":       "output.format",
	"label":        "output.label",
	"log-file":     "log.file",
	"debug":        "log.debug",
}

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	cfg     config.Config
	cleanup func() error
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	a.cfg.Output.Color = true

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a.cleanup != nil {
		_ = a.cleanup()
	}
	if err == nil {
		return ExitOK
	}

	r := report.NewRenderer(stderr, report.Options{NoColor: !a.cfg.Output.Color})
	fmt.Fprintln(stderr, r.Error(errorMessage(err)))
	return exitCode(err)
}

func newRootCmd(a *app) *cobra.Command {
	var configFile string
	var noColor bool

	cmd := &cobra.Command{
		Use:           "peptrack",
		Short:         "Report status changes in the PEP index since the last run",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.prepare(cmd, configFile, noColor)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd.Context())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file (default $XDG_CONFIG_HOME/peptrack/config.yaml if present)")
	pf.String("url", catalog.DefaultURL, "Catalog API URL")
	pf.Duration("timeout", catalog.DefaultConfig().Timeout, "Fetch timeout")
	pf.String("state", snapshot.DefaultPath, "State file holding the latest snapshot")
	pf.Bool("rewrite", false, "Persist the fetched snapshot even when nothing changed")
	pf.String("history", "", "SQLite journal of reported transitions (disabled when empty)")
	pf.String("metrics-file", "", "Write Prometheus textfile metrics to this path")
	pf.String("format", string(report.FormatPretty), "Output format: pretty|ci|json|yaml")
	pf.String("label", report.DefaultLabel, "Prefix for document ids in human output")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
	pf.String("log-file", "", "Append JSON logs to this file")
	pf.Bool("debug", false, "Enable debug logging on stderr")

	cmd.AddCommand(checkCmd(a), showCmd(a), historyCmd(a), migrateCmd(a), versionCmd(a))
	return cmd
}

// prepare resolves configuration and installs the logger.
func (a *app) prepare(cmd *cobra.Command, configFile string, noColor bool) error {
	if configFile == "" {
		configFile = config.DefaultFile()
	}

	overrides := make(map[string]any)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	if noColor {
		overrides["output.color"] = false
	}

	cfg, err := config.NewLoader(config.WithConfigFile(configFile)).Load(overrides)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	a.cfg = cfg

	cleanup, err := logger.Setup(logger.Config{File: cfg.Log.File, Debug: cfg.Log.Debug, Stderr: a.stderr})
	if err != nil {
		return fmt.Errorf("%w: log file: %w", errConfig, err)
	}
	a.cleanup = cleanup
	logger.L().Debug("config.loaded",
		"file", configFile,
		"log_file", logger.Path(),
		"state", cfg.State.Path,
		"url", cfg.Source.URL,
	)
	return nil
}

func (a *app) renderer() *report.Renderer {
	format, _ := report.ParseFormat(a.cfg.Output.Format)
	return report.NewRenderer(a.stdout, report.Options{
		Format:  format,
		NoColor: !a.cfg.Output.Color,
		Label:   a.cfg.Output.Label,
		Stderr:  a.stderr,
	})
}

func exitCode(err error) int {
	var se *catalog.StatusError
	switch {
	case errors.Is(err, errConfig), errors.Is(err, config.ErrInvalid):
		return ExitConfig
	case errors.Is(err, snapshot.ErrUnrecognizedStatus):
		return ExitUnrecognizedStatus
	case errors.Is(err, snapshot.ErrMalformedTimestamp), errors.Is(err, snapshot.ErrCorruptState):
		return ExitCorruptState
	case errors.Is(err, catalog.ErrTimeout), errors.Is(err, catalog.ErrUnavailable), errors.As(err, &se):
		return ExitFetch
	default:
		return ExitFailure
	}
}

func errorMessage(err error) string {
	var se *catalog.StatusError
	switch {
	case errors.Is(err, catalog.ErrTimeout):
		return "Connection timed out."
	case errors.As(err, &se):
		return se.Error()
	default:
		return "Error: " + err.Error()
	}
}
