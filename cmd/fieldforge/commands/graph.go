package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldforge/fieldforge/pkg/field"
)

func newGraphCommand() *cobra.Command {
	var (
		requested  []string
		available  []string
		fieldsFile string
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render an execution plan as a DOT graph",
		Long: `Resolve requested variables and emit the execution plan as a Graphviz DOT
graph. Available variables appear as dashed ellipses, recipes are grouped
by execution level.`,
		Example: `  # Print the graph to stdout
  fieldforge graph --request virtual_temperature --available theta,exner,m_v,m_ci,m_cl,m_r

  # Write the graph to a file and render it
  fieldforge graph --request air_temperature --fields fields.yaml --out plan.dot
  dot -Tsvg plan.dot -o plan.svg`,
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

			dot := plan.ToDOT()
			if outFile == "" {
				fmt.Print(dot)
				return nil
			}
			if err := os.WriteFile(outFile, []byte(dot), 0o644); err != nil {
				return fmt.Errorf("failed to write graph: %w", err)
			}
			a.log.WithPlanID(plan.ID).Infof("Wrote execution graph to %s", outFile)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&requested, "request", "r", nil, "variables to derive")
	cmd.Flags().StringSliceVarP(&available, "available", "a", nil, "variables already available")
	cmd.Flags().StringVarP(&fieldsFile, "fields", "f", "", "YAML field file supplying available variables")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output DOT file (default stdout)")
	cmd.MarkFlagRequired("request")

	return cmd
}
