package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/djbiega/MFP-Dash-App/internal/app"
	"github.com/djbiega/MFP-Dash-App/internal/config"
	"github.com/djbiega/MFP-Dash-App/internal/domain"
	"github.com/djbiega/MFP-Dash-App/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "mfpdash",
	Short:         "mfpdash scrapes public MyFitnessPal food diaries into Postgres.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var syncCmd = &cobra.Command{
	Use:   "sync <username> [username...]",
	Short: "Incrementally sync one or more users' diary history into storage.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		defer application.Close()

		var failed int
		for _, username := range args {
			if err := application.SyncUser(cmd.Context(), username); err != nil {
				fmt.Fprintf(os.Stderr, "sync %s: %v\n", username, err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d users failed to sync", failed, len(args))
		}
		return nil
	},
}

var (
	queryFrom string
	queryTo   string
)

func init() {
	queryCmd.Flags().StringVar(&queryFrom, "from", "", "start date (YYYY-MM-DD), defaults to 6 days ago")
	queryCmd.Flags().StringVar(&queryTo, "to", "", "end date (YYYY-MM-DD), defaults to today")
}

var queryCmd = &cobra.Command{
	Use:   "query <username>",
	Short: "Print stored nutrition rows for a user and date range.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		end := domain.Day(time.Now())
		start := end.AddDate(0, 0, -6)
		var err error
		if queryFrom != "" {
			if start, err = time.Parse(domain.DateLayout, queryFrom); err != nil {
				return fmt.Errorf("invalid --from date: %w", err)
			}
		}
		if queryTo != "" {
			if end, err = time.Parse(domain.DateLayout, queryTo); err != nil {
				return fmt.Errorf("invalid --to date: %w", err)
			}
		}

		application, err := buildApp()
		if err != nil {
			return err
		}
		defer application.Close()

		rows, err := application.Query(cmd.Context(), args[0], start, end)
		if err != nil {
			return err
		}
		renderRows(rows)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <username>",
	Short: "Check whether a username's diary is public and scrape-eligible.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		defer application.Close()

		public, err := application.CheckPublic(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if public {
			fmt.Printf("%s: public\n", args[0])
		} else {
			fmt.Printf("%s: private or not found\n", args[0])
		}
		return nil
	},
}

func buildApp() (*app.Application, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}

// displayColumns is the subset of the catalog shown in the table output.
var displayColumns = []domain.Nutrient{
	domain.Protein, domain.Carbohydrates, domain.Fat,
	domain.Fiber, domain.Sugar, domain.Calories,
}

func renderRows(rows []domain.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	header := table.Row{"Date", "Item"}
	for _, n := range displayColumns {
		header = append(header, string(n))
	}
	t.AppendHeader(header)

	for _, row := range rows {
		out := table.Row{row.Date.Format(domain.DateLayout), row.Item}
		for _, n := range displayColumns {
			if v, ok := row.Values[n]; ok {
				out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				out = append(out, "")
			}
		}
		t.AppendRow(out)
	}
	t.Render()
}

func main() {
	rootCmd.AddCommand(syncCmd, queryCmd, checkCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
