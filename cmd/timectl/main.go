/*
main.go - timectl, the fieldworker's terminal front-end

PURPOSE:
  Drives the clock state machine and week exports from the command line,
  against the same SQLite store the server uses. Useful on machines where
  the web UI is unavailable (site laptops, scripted exports).

COMMANDS:
  timectl in                          Clock in
  timectl out [--job <id>]            Clock out
  timectl log --job <id>              Log a job, keep working
  timectl status                      Show the open entry
  timectl weeks                       List weekly totals
  timectl export <week-id> [--xlsx]   Write a week's payroll export to disk

GLOBAL FLAGS:
  --db     SQLite database path (default: timesheet.db)
  --user   Acting user id (or TIMECTL_USER)
*/
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldwork/timesheet-engine/export"
	"github.com/fieldwork/timesheet-engine/store/sqlite"
	"github.com/fieldwork/timesheet-engine/timesheet"
)

var (
	dbPath string
	userID string
	jobID  string
	asXLSX bool
)

var rootCmd = &cobra.Command{
	Use:   "timectl",
	Short: "Clock in/out and export timesheets from the terminal",
	Long: `timectl drives the timesheet engine's clock state machine and week
exports against a local SQLite database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if userID == "" {
			userID = os.Getenv("TIMECTL_USER")
		}
		if userID == "" {
			return fmt.Errorf("no acting user: pass --user or set TIMECTL_USER")
		}
		return nil
	},
}

var inCmd = &cobra.Command{
	Use:   "in",
	Short: "Clock in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *sqlite.Store) error {
			clock := timesheet.NewClockService(store)
			entry, err := clock.ClockIn(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Printf("Clocked in at %s\n", entry.ClockIn.Format("15:04:05"))
			return nil
		})
	},
}

var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Clock out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *sqlite.Store) error {
			clock := timesheet.NewClockService(store)
			entry, err := clock.ClockOut(ctx, userID, jobID)
			if err != nil {
				return err
			}
			fmt.Printf("Clocked out at %s (%s worked)\n",
				entry.ClockOut.Format("15:04:05"), entry.Duration().Round(time.Minute))
			return nil
		})
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log the current session against a job and keep working",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jobID == "" {
			return fmt.Errorf("--job is required")
		}
		return withStore(func(ctx context.Context, store *sqlite.Store) error {
			clock := timesheet.NewClockService(store)
			closed, _, err := clock.LogJobAndContinue(ctx, userID, jobID)
			if err != nil {
				return err
			}
			if err := store.UpdateJobStatus(ctx, jobID, timesheet.JobCompleted); err != nil {
				return err
			}
			fmt.Printf("Logged %s against job %s, still clocked in\n",
				closed.Duration().Round(time.Minute), jobID)
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the open entry, if any",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *sqlite.Store) error {
			clock := timesheet.NewClockService(store)
			open, err := clock.Status(ctx, userID)
			if err != nil {
				return err
			}
			if open == nil {
				fmt.Println("Not clocked in.")
				return nil
			}
			fmt.Printf("Clocked in since %s (%s elapsed)\n",
				open.ClockIn.Format("15:04"), time.Since(open.ClockIn).Round(time.Minute))
			return nil
		})
	},
}

var weeksCmd = &cobra.Command{
	Use:   "weeks",
	Short: "List weekly totals, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *sqlite.Store) error {
			user, err := store.User(ctx, userID)
			if err != nil {
				return err
			}
			entries, err := store.ListEntries(ctx, userID, nil)
			if err != nil {
				return err
			}
			buckets := timesheet.Aggregate(entries)
			active, archived := timesheet.SplitActive(buckets, user.SubmittedWeeks)

			for _, b := range active {
				fmt.Printf("%s  %6.2fh\n", b.WeekID, b.TotalHours)
			}
			for _, b := range archived {
				fmt.Printf("%s  %6.2fh  (archived)\n", b.WeekID, b.TotalHours)
			}
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <week-id>",
	Short: "Write a week's payroll export to the current directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		weekID := args[0]
		return withStore(func(ctx context.Context, store *sqlite.Store) error {
			user, err := store.User(ctx, userID)
			if err != nil {
				return err
			}
			entries, err := store.ListEntries(ctx, userID, nil)
			if err != nil {
				return err
			}
			bucket, ok := timesheet.GroupByWeek(entries)[weekID]
			if !ok {
				return fmt.Errorf("no entries in week %s", weekID)
			}

			jobs, err := store.ListJobs(ctx)
			if err != nil {
				return err
			}
			sites, err := store.ListSites(ctx)
			if err != nil {
				return err
			}
			cat := timesheet.NewCatalog(jobs, sites)

			x := export.NewExporter(store)
			var data []byte
			var name string
			if asXLSX {
				data, name, err = x.ExportWeekXLSX(user, *bucket, cat)
				if err != nil {
					return err
				}
			} else {
				data, name = x.ExportWeekCSV(user, *bucket, cat)
			}

			if err := os.WriteFile(name, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", name)
			return nil
		})
	},
}

// withStore opens the store, runs fn, and closes it.
func withStore(fn func(context.Context, *sqlite.Store) error) error {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(context.Background(), store)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "timesheet.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "Acting user id")
	outCmd.Flags().StringVar(&jobID, "job", "", "Job to attribute the session to")
	logCmd.Flags().StringVar(&jobID, "job", "", "Job to log the session against")
	exportCmd.Flags().BoolVar(&asXLSX, "xlsx", false, "Write an XLSX workbook instead of CSV")

	rootCmd.AddCommand(inCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(weeksCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
