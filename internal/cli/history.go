package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"peptrack/internal/buildinfo"
	"peptrack/internal/config"
	"peptrack/internal/history"
)

func historyCmd(a *app) *cobra.Command {
	var q history.Query

	c := &cobra.Command{
		Use:   "history",
		Short: "List journaled status transitions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.History.Path == "" {
				return fmt.Errorf("%w: history.path is not set (use --history)", config.ErrInvalid)
			}
			if q.Limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			j, err := history.Open(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			ts, err := j.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.renderer().History(ts)
		},
	}
	c.Flags().IntVarP(&q.Limit, "limit", "n", 20, "Maximum transitions to show (0 for all)")
	c.Flags().StringVar(&q.Document, "id", "", "Only this document")
	return c
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(a.stdout, buildinfo.String())
			return err
		},
	}
}
