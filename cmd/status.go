package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mangroves/internal/model"
	"github.com/sells-group/mangroves/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "List recorded runs, or show one run in full",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("status"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if len(args) == 1 {
			return showRun(ctx, os.Stdout, st, args[0])
		}

		status, _ := cmd.Flags().GetString("status")
		tileID, _ := cmd.Flags().GetString("tile-id")
		year, _ := cmd.Flags().GetString("year")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			TileID: tileID,
			Year:   year,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "status list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func init() {
	statusCmd.Flags().String("status", "", "filter by run status (running, complete, empty, skipped, failed)")
	statusCmd.Flags().String("tile-id", "", "filter by tile id (x,y)")
	statusCmd.Flags().String("year", "", "filter by year")
	statusCmd.Flags().Int("limit", 50, "max number of runs to display")
	rootCmd.AddCommand(statusCmd)
}

func showRun(ctx context.Context, out io.Writer, st store.Store, id string) error {
	run, err := st.GetRun(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(run), "encode run")
}

func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTILE\tYEAR\tVERSION\tSTATUS\tMANGROVE\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t-------\t------\t--------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()
		mangrove := "-"
		if r.Summary != nil {
			mangrove = fmt.Sprintf("%.2f%%", 100*r.Summary.MangroveFraction)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Task.TileID,
			r.Task.Year,
			r.Task.Version,
			r.Status,
			mangrove,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
