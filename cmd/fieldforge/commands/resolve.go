package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldforge/fieldforge/pkg/field"
)

func newResolveCommand() *cobra.Command {
	var (
		requested  []string
		available  []string
		fieldsFile string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve requested variables into an execution plan",
		Long: `Resolve requested variables against the cookbook and print the resulting
execution plan.

The resolver searches the cookbook depth-first: for each requested variable
it tries the candidate recipes in cookbook order, recursing into missing
ingredients, and keeps the first candidate whose full dependency chain
closes over the available variables.`,
		Example: `  # Resolve air temperature from model fields
  fieldforge resolve --request air_temperature --available theta,exner

  # Derive the available variables from a field file
  fieldforge resolve --request virtual_temperature --fields fields.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			var fs *field.Set
			if fieldsFile != "" {
				fs, err = a.loadFields(fieldsFile)
				if err != nil {
					return err
				}
			}

			plan, err := a.resolver.Resolve(cmd.Context(), requested, availableNames(fs, available))
			if err != nil {
				return err
			}

			fmt.Print(plan.String())
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&requested, "request", "r", nil, "variables to derive")
	cmd.Flags().StringSliceVarP(&available, "available", "a", nil, "variables already available")
	cmd.Flags().StringVarP(&fieldsFile, "fields", "f", "", "YAML field file supplying available variables")
	cmd.MarkFlagRequired("request")

	return cmd
}
