package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/locvowork/hrms/internal/bootstrap"
	"github.com/locvowork/hrms/internal/config"
	"github.com/locvowork/hrms/internal/database"
	"github.com/locvowork/hrms/internal/repository"
	"github.com/locvowork/hrms/internal/seed"
	"github.com/locvowork/hrms/internal/timesheet"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seeder",
		Short:         "Load demo data and maintain the HRMS timesheet store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSeedCmd(),
		newClearCmd(),
		newWeeksCmd(),
		newReindexCmd(),
		newAuditMirrorCmd(),
	)
	return root
}

// withApp initializes the application, runs fn and closes the backends.
func withApp(ctx context.Context, fn func(app *bootstrap.App) error) error {
	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer app.Shutdown(context.Background())
	return fn(app)
}

func newSeedCmd() *cobra.Command {
	var (
		file    string
		month   string
		seedVal int64
		workers int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert employees, projects and a month of timesheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, m, err := parseMonth(month)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withApp(ctx, func(app *bootstrap.App) error {
				if file == "" {
					file = config.DefaultEnvConfig.SEED_FILE
				}
				f, err := seed.LoadFixture(file)
				if err != nil {
					return err
				}

				opts := []seed.Option{
					seed.WithProjectBatcher(repository.NewProjectRepository(app.DB)),
					seed.WithWorkers(workers),
				}
				if seedVal != 0 {
					opts = append(opts, seed.WithRandSeed(seedVal))
				}
				stats, err := seed.NewSeeder(app.Store, app.Timesheets, opts...).Seed(ctx, f, year, m)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Employees:  %d\n", stats.Employees)
				fmt.Fprintf(out, "Projects:   %d\n", stats.Projects)
				fmt.Fprintf(out, "Timesheets: %d (submitted %d, approved %d, rejected %d)\n",
					stats.Timesheets, stats.Submitted, stats.Approved, stats.Rejected)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture (defaults to SEED_FILE)")
	cmd.Flags().StringVarP(&month, "month", "m", "", "month to fill, as YYYY-MM (defaults to the current month)")
	cmd.Flags().Int64Var(&seedVal, "rand-seed", 0, "seed for generated hours; 0 picks one")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent timesheet writers")
	return cmd
}

func newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every employee, project, timesheet and audit entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				if err := database.Reset(cmd.Context(), app.DB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared SQL data")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newWeeksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weeks YYYY-MM",
		Short: "Print the month-bounded weeks of a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, m, err := parseMonth(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, w := range timesheet.PartitionMonth(year, m) {
				fmt.Fprintf(out, "%d  %s - %s  (%d days)\n", i+1,
					w.Start.Format("Mon 2006-01-02"), w.End.Format("Mon 2006-01-02"), w.Days())
			}
			return nil
		},
	}
}

func newReindexCmd() *cobra.Command {
	var (
		batch, workers int
		prune          bool
	)
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the timesheet search index from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				if app.Search == nil {
					return fmt.Errorf("search is not configured, set ES_URL")
				}
				n, err := app.Timesheets.Reindex(cmd.Context(), app.Search, batch, workers)
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d timesheets\n", n)
				if err != nil || !prune {
					return err
				}
				removed, err := app.Timesheets.PruneIndex(cmd.Context(), app.Search)
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale documents\n", removed)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 200, "timesheets per bulk request")
	cmd.Flags().IntVarP(&workers, "workers", "w", 2, "concurrent bulk requests")
	cmd.Flags().BoolVar(&prune, "prune", false, "also delete documents of removed timesheets")
	return cmd
}

func newAuditMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit-mirror",
		Short: "Inspect or repair the Datastore copy of the audit trail",
	}

	requireMirror := func(app *bootstrap.App) error {
		if app.AuditMirror == nil {
			return fmt.Errorf("audit mirror is not configured, set DATASTORE_PROJECT_ID")
		}
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "sync TIMESHEET_ID",
			Short: "Copy a timesheet's history from the database to the mirror",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), func(app *bootstrap.App) error {
					if err := requireMirror(app); err != nil {
						return err
					}
					n, err := app.Timesheets.ResyncAuditMirror(cmd.Context(), app.AuditMirror, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d entries\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show TIMESHEET_ID",
			Short: "Print the mirrored history of a timesheet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), func(app *bootstrap.App) error {
					if err := requireMirror(app); err != nil {
						return err
					}
					entries, err := app.AuditMirror.ListByEntity(cmd.Context(), "timesheet", args[0])
					if err != nil {
						return err
					}
					for _, e := range entries {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s  %s  %v\n",
							e.Timestamp.Format(time.RFC3339), e.Action, e.ActorID, e.Metadata["status"])
					}
					return nil
				})
			},
		},
	)
	return cmd
}

// parseMonth reads YYYY-MM; an empty value means the current month.
func parseMonth(s string) (int, time.Month, error) {
	if s == "" {
		now := time.Now()
		return now.Year(), now.Month(), nil
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("month %q: expected YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("month %q: bad year", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("month %q: bad month", s)
	}
	return year, time.Month(m), nil
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "This will delete all data. Continue? (yes/no): ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}
