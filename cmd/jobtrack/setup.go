package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetupCommand(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create a new tracker and make it the active store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := db.CreateTracker(ctx, name)
			if err != nil {
				return err
			}
			a.cfg.Store.ID = id
			if err := a.saveConfig(); err != nil {
				return err
			}

			in, err := a.openInbox()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created tracker %q\n", name)
			fmt.Fprintf(out, "  store id: %s\n", id)
			fmt.Fprintf(out, "  database: %s\n", a.cfg.StorePath())
			fmt.Fprintf(out, "  inbox:    %s\n", in.Path())
			fmt.Fprintf(out, "  config:   %s\n", a.cfgPath)
			fmt.Fprintln(out, "Add posting URLs to the inbox, then run `jobtrack process`.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Job Tracker", "tracker name")
	return cmd
}
