package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"peptrack/internal/logger"
	"peptrack/internal/migration"
	"peptrack/internal/snapshot"
)

func showCmd(a *app) *cobra.Command {
	var all bool

	c := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted snapshot",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := a.loadState()
			if err != nil {
				return err
			}
			return a.renderer().Snapshot(s, all)
		},
	}
	c.Flags().BoolVarP(&all, "all", "a", false, "List every document (json/yaml: dump the stored blob)")
	return c
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite the state file in the current schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := snapshot.NewStore(a.cfg.State.Path)
			s, err := a.loadState()
			if err != nil {
				return err
			}
			if err := store.Save(s); err != nil {
				return err
			}
			logger.L().Info("state.migrated", "path", store.Path, "schema", s.SchemaVersion())
			fmt.Fprintf(cmd.OutOrStdout(), "%s migrated to schema %s (%d documents)\n", store.Path, migration.CurrentSchemaVersion, s.Len())
			return nil
		},
	}
}

func (a *app) loadState() (*snapshot.Snapshot, error) {
	s, err := snapshot.NewStore(a.cfg.State.Path).Load()
	if errors.Is(err, snapshot.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("%s: %w", a.cfg.State.Path, err)
	}
	return s, err
}
