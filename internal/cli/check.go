package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"peptrack/internal/catalog"
	"peptrack/internal/history"
	"peptrack/internal/logger"
	"peptrack/internal/metrics"
	"peptrack/internal/snapshot"
	"peptrack/internal/tracker"
)

func checkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fetch the index and report status changes (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd.Context())
		},
	}
}

func (a *app) runCheck(ctx context.Context) error {
	cfg := a.cfg

	cc := catalog.DefaultConfig()
	cc.Timeout = cfg.Source.Timeout
	client := catalog.NewClient(cfg.Source.URL, cc)

	opts := tracker.Options{
		RewriteUnchanged: cfg.State.Rewrite,
		Logger:           logger.L(),
	}
	if cfg.History.Path != "" {
		j, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer j.Close()
		opts.Journal = j
	}

	res, err := tracker.New(snapshot.NewStore(cfg.State.Path), client, opts).Check(ctx)
	if err != nil {
		return err
	}

	if err := a.renderer().Check(res, cfg.State.Path); err != nil {
		return err
	}

	if cfg.Metrics.File != "" {
		if err := writeMetrics(cfg.Metrics.File, res); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func writeMetrics(path string, res tracker.Result) error {
	baseline := res.Current.CapturedAt()
	if res.Previous != nil && !res.Saved {
		baseline = res.Previous.CapturedAt()
	}
	m := metrics.NewRun()
	m.Observe(res.Current.Counts(), len(res.Changes), time.Now(), baseline)
	return m.WriteFile(path)
}
