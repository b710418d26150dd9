package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"jobtrack/internal/domain"
	"jobtrack/internal/store"
)

func newSetStoreCommand(a *app) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "set-store [id]",
		Short: "Point the config at an existing tracker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if list || len(args) == 0 {
				infos, err := db.Trackers(ctx)
				if err != nil {
					return err
				}
				renderTrackers(cmd.OutOrStdout(), infos, a.cfg.Store.ID)
				return nil
			}

			tr, err := db.Tracker(ctx, args[0])
			if err != nil {
				return err
			}
			a.cfg.Store.ID = tr.ID()
			if err := a.saveConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active tracker is now %q (%s)\n", tr.Info().Name, tr.ID())
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list trackers instead of switching")
	return cmd
}

func newUpdateStatusCommand(a *app) *cobra.Command {
	var notes, applied, followUp string

	cmd := &cobra.Command{
		Use:   "update-status <row> <status>",
		Short: "Change the status of a tracked posting",
		Long: `Change the status of the posting at <row> (as shown by "jobtrack list").
Status is one of Saved, Applied, FollowUpPending ("Follow-up Pending") or Closed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			row, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "row %q", args[0])
			}
			status, err := domain.ParseStatus(args[1])
			if err != nil {
				return err
			}

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			tr, err := a.tracker(ctx, db)
			if err != nil {
				return err
			}
			if err := tr.UpdateStatus(ctx, row, status, notes); err != nil {
				return err
			}
			if applied != "" || followUp != "" {
				if err := tr.SetDates(ctx, row, applied, followUp); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Row %d is now %s\n", row, status.Display())
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "replace the notes for this row")
	cmd.Flags().StringVar(&applied, "applied", "", "application date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&followUp, "follow-up", "", "follow-up date (YYYY-MM-DD)")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the postings in the active tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			tr, err := a.tracker(ctx, db)
			if err != nil {
				return err
			}
			if asCSV {
				return tr.ExportCSV(ctx, cmd.OutOrStdout())
			}

			rows, err := tr.QueryAll(ctx)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No postings yet.")
				return nil
			}
			renderRows(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write every column as CSV")
	return cmd
}

func renderRows(w io.Writer, rows []domain.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Company", "Location", "Status", "Applied", "Follow-up", "Extracted"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 24},
		{Number: 4, WidthMax: 24},
		{Number: 1, Align: text.AlignRight},
	})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Number,
			r.Title,
			r.Company,
			r.Location,
			r.Status.Display(),
			r.ApplicationDate,
			r.FollowUpDate,
			r.ExtractedDate(),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d postings", len(rows))})
	t.Render()
}

func renderTrackers(w io.Writer, infos []store.TrackerInfo, active string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "ID", "Name", "Postings", "Created"})
	for _, in := range infos {
		mark := ""
		if in.ID == active {
			mark = "*"
		}
		t.AppendRow(table.Row{mark, in.ID, in.Name, in.Postings, in.CreatedAt.Local().Format("2006-01-02")})
	}
	t.Render()
}
