package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fieldforge/fieldforge/pkg/engine"
	"github.com/fieldforge/fieldforge/pkg/field"
	"github.com/fieldforge/fieldforge/pkg/recipe"
	"github.com/fieldforge/fieldforge/pkg/stores"
)

func newRunCommand() *cobra.Command {
	var (
		requested  []string
		fieldsFile string
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Derive variables from a field file",
		Long: `Resolve requested variables against the fields in a YAML field file,
execute the plan in nonlinear mode and print the derived fields.

When the configuration names a run-history store, the run is recorded
there together with a per-recipe event trail.`,
		Example: `  # Derive air temperature and print the result
  fieldforge run --request air_temperature --fields fields.yaml

  # Write derived fields to a file
  fieldforge run --request virtual_temperature --fields fields.yaml --out derived.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			fs, err := a.loadFields(fieldsFile)
			if err != nil {
				return err
			}

			plan, err := a.resolver.Resolve(cmd.Context(), requested, fs.Names())
			if err != nil {
				return err
			}
			a.log.WithPlanID(plan.ID).Infof("Resolved plan with %d recipes", plan.Len())

			execErr := a.executeWithHistory(cmd.Context(), plan, fs)
			if execErr != nil {
				return execErr
			}

			return writeDerived(fs, plan.Products(), outFile)
		},
	}

	cmd.Flags().StringSliceVarP(&requested, "request", "r", nil, "variables to derive")
	cmd.Flags().StringVarP(&fieldsFile, "fields", "f", "", "YAML field file with the input fields")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output YAML file (default stdout)")
	cmd.MarkFlagRequired("request")
	cmd.MarkFlagRequired("fields")

	return cmd
}

// executeWithHistory runs the plan in nonlinear mode, recording the run in
// the history store when one is configured. Store failures are logged but
// never fail the run.
func (a *app) executeWithHistory(ctx context.Context, plan *engine.Plan, fs *field.Set) error {
	store := a.openStore(ctx)

	var runID string
	if store != nil {
		defer store.Close()
		runID = uuid.New().String()
		run := &stores.Run{
			ID:        runID,
			PlanID:    plan.ID,
			Mode:      string(engine.ModeNL),
			Requested: strings.Join(plan.Requested, ","),
			Status:    stores.RunStatusRunning,
			StartedAt: time.Now().UTC(),
		}
		if err := store.CreateRun(ctx, run); err != nil {
			a.log.WithError(err).Warn("Failed to record run start")
			store = nil
		}
	}

	execErr := a.executor.ExecuteNL(ctx, plan, fs)

	if store != nil {
		a.appendRunEvents(ctx, store, runID, plan, execErr)
		status := stores.RunStatusCompleted
		if execErr != nil {
			status = stores.RunStatusFailed
		}
		if err := store.CompleteRun(ctx, runID, status, execErr); err != nil {
			a.log.WithError(err).Warn("Failed to record run completion")
		}
	}

	return execErr
}

// appendRunEvents records one event per recipe that ran. On a failed
// execution, recipes after the failing one never ran and get no event;
// the failing recipe's event carries the error.
func (a *app) appendRunEvents(ctx context.Context, store stores.Store, runID string, plan *engine.Plan, execErr error) {
	failed := ""
	if execErr != nil {
		var rerr *recipe.Error
		if !errors.As(execErr, &rerr) {
			return
		}
		failed = rerr.Recipe
	}
	for _, rec := range plan.Recipes() {
		event := &stores.Event{
			RunID:    runID,
			Recipe:   rec.Name(),
			Variable: rec.Product(),
			Message:  "executed",
			Level:    "info",
			At:       time.Now().UTC(),
		}
		if execErr != nil && rec.Name() == failed {
			event.Message = execErr.Error()
			event.Level = "error"
		}
		if err := store.AppendEvent(ctx, event); err != nil {
			a.log.WithError(err).Warn("Failed to record run event")
			return
		}
		if execErr != nil && rec.Name() == failed {
			return
		}
	}
}

// openStore opens the configured run-history store, or returns nil when
// history is disabled or the store cannot be opened.
func (a *app) openStore(ctx context.Context) stores.Store {
	if a.cfg.Store.Path == "" {
		return nil
	}
	store, err := stores.NewSQLiteStore(a.cfg.Store.Path)
	if err != nil {
		a.log.WithError(err).Warn("Failed to open run-history store")
		return nil
	}
	if err := store.Init(ctx); err != nil {
		a.log.WithError(err).Warn("Failed to initialize run-history store")
		store.Close()
		return nil
	}
	if err := store.Migrate(ctx); err != nil {
		a.log.WithError(err).Warn("Failed to migrate run-history store")
		store.Close()
		return nil
	}
	return store
}

// derivedOutput is the YAML document written by the run command.
type derivedOutput struct {
	Points int            `yaml:"points"`
	Fields []derivedField `yaml:"fields"`
}

type derivedField struct {
	Name   string      `yaml:"name"`
	Levels int         `yaml:"levels"`
	Values [][]float64 `yaml:"values"`
}

func writeDerived(fs *field.Set, products []string, outFile string) error {
	out := derivedOutput{Points: fs.Space().Points}
	for _, name := range products {
		f, err := fs.Get(name)
		if err != nil {
			return err
		}
		df := derivedField{Name: name, Levels: f.Levels()}
		for jn := 0; jn < f.Space().Points; jn++ {
			row := make([]float64, f.Levels())
			for jl := 0; jl < f.Levels(); jl++ {
				row[jl] = f.At(jn, jl)
			}
			df.Values = append(df.Values, row)
		}
		out.Fields = append(out.Fields, df)
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal derived fields: %w", err)
	}
	if outFile == "" {
		fmt.Print(string(data))
		return nil
	}
	return os.WriteFile(outFile, data, 0o644)
}
