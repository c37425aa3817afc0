package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldforge/fieldforge/pkg/config"
	"github.com/fieldforge/fieldforge/pkg/engine"
)

func newWatchCommand() *cobra.Command {
	var (
		requested []string
		available []string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-resolve a request whenever the config changes",
		Long: `Watch the configuration file and re-resolve the requested variables each
time it changes, printing the new execution plan. Useful while iterating
on cookbook overrides: edit the file, see the plan the resolver now picks.

A reload that fails validation keeps the previous configuration. Stop
with Ctrl-C.`,
		Example: `  fieldforge watch --config fieldforge.yaml \
    --request air_temperature --available theta,exner`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("watch requires --config")
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			resolveAndPrint := func(cfg *config.Config) error {
				resolver := engine.NewResolver(engine.ResolverConfig{
					Registry:     a.registry,
					Cookbook:     cfg.EffectiveCookbook(),
					RecipeParams: cfg.RecipeParams(),
					Logger:       a.log,
				})
				plan, err := resolver.Resolve(cmd.Context(), requested, available)
				if err != nil {
					a.log.WithError(err).Error("Resolution failed")
					return nil
				}
				fmt.Print(plan.String())
				return nil
			}

			if err := resolveAndPrint(a.cfg); err != nil {
				return err
			}

			watcher := config.NewWatcher(a.loader, a.log)
			return watcher.Watch(cmd.Context(), configPath, resolveAndPrint)
		},
	}

	cmd.Flags().StringSliceVarP(&requested, "request", "r", nil, "variables to derive")
	cmd.Flags().StringSliceVarP(&available, "available", "a", nil, "variables already available")
	cmd.MarkFlagRequired("request")

	return cmd
}
