package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded execution runs",
		Long: `List runs recorded in the run-history store, most recent first. With a
run ID argument, show that run's per-recipe event trail instead.

Requires a store path in the configuration file.`,
		Example: `  # List the last 20 runs
  fieldforge history --config fieldforge.yaml

  # Show the events of one run
  fieldforge history --config fieldforge.yaml 4f7c2d9a-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if a.cfg.Store.Path == "" {
				return fmt.Errorf("no run-history store configured (set store.path)")
			}

			store := a.openStore(cmd.Context())
			if store == nil {
				return fmt.Errorf("failed to open run-history store at %s", a.cfg.Store.Path)
			}
			defer store.Close()

			if len(args) == 1 {
				events, err := store.ListEvents(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, ev := range events {
					fmt.Printf("%s  %-8s %-28s %-24s %s\n",
						ev.At.Format("2006-01-02 15:04:05"), ev.Level, ev.Recipe, ev.Variable, ev.Message)
				}
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				status := string(run.Status)
				if run.Error != nil {
					status = fmt.Sprintf("%s (%s)", status, *run.Error)
				}
				fmt.Printf("%s  %s  %-2s  %-10s  %s\n",
					run.StartedAt.Format("2006-01-02 15:04:05"), run.ID, run.Mode, status, run.Requested)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")

	return cmd
}
