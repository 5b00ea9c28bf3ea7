/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli provides a cobra command tree applications can mount to
// inspect and seed the models they registered.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tomoncle/repokit"
	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/repository"
	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun"
)

const defaultConfigPath = "configs/database.yaml"

type rootOptions struct {
	configPath string
	outputJSON bool
	registry   *repository.ModelRegistry
	cfg        *database.Config
	db         *bun.DB
}

// NewCommand returns the root command named name with the models, count,
// seed and health subcommands.
func NewCommand(name string) *cobra.Command {
	return newCommand(name, repository.DefaultRegistry())
}

func newCommand(name string, registry *repository.ModelRegistry) *cobra.Command {
	opts := &rootOptions{registry: registry}
	cmd := &cobra.Command{
		Use:           name,
		Short:         "Inspect and seed repository models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "database configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.outputJSON, "json", "j", false, "print JSON output")

	cmd.AddCommand(
		newModelsCommand(opts),
		newCountCommand(opts),
		newSeedCommand(opts),
		newHealthCommand(opts),
	)
	return cmd
}

// connect opens the global database from the configuration flag once.
func (o *rootOptions) connect() (*bun.DB, error) {
	if o.db != nil {
		return o.db, nil
	}
	cfg, err := database.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	o.cfg, o.db = cfg, db
	return db, nil
}

// closing wraps a RunE so the database it opened is closed even when it
// fails; cobra skips post-run hooks after an error.
func (o *rootOptions) closing(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if o.db == nil {
				return
			}
			o.db = nil
			if closeErr := database.CloseDB(); err == nil {
				err = closeErr
			}
		}()
		return run(cmd, args)
	}
}

func newModelsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models := opts.registry.Models()
			out := cmd.OutOrStdout()
			if opts.outputJSON {
				rows := make([]map[string]interface{}, 0, len(models))
				for _, m := range models {
					rows = append(rows, map[string]interface{}{"name": m.Name(), "table": m.Table(), "priority": m.Priority()})
				}
				return printJSON(out, rows)
			}
			if len(models) == 0 {
				info(out, "no models registered")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTABLE\tPRIORITY")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%s\t%d\n", m.Name(), m.Table(), m.Priority())
			}
			return w.Flush()
		},
	}
}

func newCountCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count <model> [column=value | column:op=value ...]",
		Short: "Count the rows of a model matching conditions",
		Args:  cobra.MinimumNArgs(1),
		RunE: opts.closing(func(cmd *cobra.Command, args []string) error {
			handle, err := opts.registry.Lookup(args[0])
			if err != nil {
				return err
			}
			conditions, err := ParseConditions(args[1:])
			if err != nil {
				return err
			}
			db, err := opts.connect()
			if err != nil {
				return err
			}
			total, err := handle.Count(cmd.Context(), db, conditions)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"model": handle.Name(), "count": total})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", handle.Name(), total)
			return nil
		}),
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var environment string
	cmd := &cobra.Command{
		Use:   "seed [dir]",
		Short: "Load YAML fixtures into registered models",
		Args:  cobra.MaximumNArgs(1),
		RunE: opts.closing(func(cmd *cobra.Command, args []string) error {
			db, err := opts.connect()
			if err != nil {
				return err
			}
			dir := opts.cfg.Seed.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			results, err := repokit.NewSeeder(db, environment).
				SetRegistry(opts.registry).
				SetRootPath(dir).
				Execute(cmd.Context())
			out := cmd.OutOrStdout()
			for _, r := range results {
				success(out, "seeded %s: %d rows from %s", r.Model, r.Rows, r.File)
			}
			return err
		}),
	}
	cmd.Flags().StringVarP(&environment, "env", "e", "", "environment whose fixtures load after the common ones")
	return cmd
}

func newHealthCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity",
		Args:  cobra.NoArgs,
		RunE: opts.closing(func(cmd *cobra.Command, args []string) error {
			if _, err := opts.connect(); err != nil {
				return err
			}
			status := database.GetHealthStatus(cmd.Context())
			out := cmd.OutOrStdout()
			if opts.outputJSON {
				return printJSON(out, status)
			}
			if !status.Healthy {
				failure(out, "unhealthy: %s", status.LastError)
				return fmt.Errorf("database unhealthy: %s", status.LastError)
			}
			success(out, "healthy (%s, %d open connections)", status.ResponseTime, status.ActiveConns+status.IdleConns)
			return nil
		}),
	}
}

// ParseConditions turns "column=value" and "column:op=value" arguments into
// conditions. Values of in and not_in are comma separated.
func ParseConditions(args []string) (types.Conditions, error) {
	conditions := make(types.Conditions, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid condition %q, want column=value", arg)
		}
		column, opText, hasOp := strings.Cut(key, ":")
		op := types.OpEqual
		if hasOp {
			op = types.ParseOperator(opText)
		}
		var v interface{} = value
		if op.Multi() {
			v = strings.Split(value, ",")
		}
		c := types.Condition{Column: column, Operator: op, Value: v}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		conditions = append(conditions, c)
	}
	return conditions, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func success(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(w, "✔ "+format+"\n", args...)
}

func failure(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(w, "✘ "+format+"\n", args...)
}

func info(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(w, format+"\n", args...)
}

// Execute runs cmd with ctx, the usual entry point of a main package.
func Execute(ctx context.Context, cmd *cobra.Command) error {
	return cmd.ExecuteContext(ctx)
}
