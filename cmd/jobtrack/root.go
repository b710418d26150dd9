package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jobtrack/internal/pipeline"
)

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "jobtrack",
		Short: "Track job postings saved for later",
		Long: `jobtrack reads job posting URLs from an inbox file, extracts each posting,
stores it in a local tracker and emails notifications, digests and reminders.

Running jobtrack without a command processes the inbox.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProcess(cmd, a)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default <data-dir>/config.yml)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default $JOBTRACK_DATA_DIR or the user config dir)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newSetupCommand(a),
		newProcessCommand(a),
		newDigestCommand(a),
		newRemindCommand(a),
		newSetStoreCommand(a),
		newUpdateStatusCommand(a),
		newListCommand(a),
		newHarvestCommand(a),
		newSecretsCommand(a),
	)
	return root
}

func newProcessCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Fetch every pending URL and save the postings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProcess(cmd, a)
		},
	}
}

func runProcess(cmd *cobra.Command, a *app) error {
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
	in, err := a.openInbox()
	if err != nil {
		return err
	}
	o, err := a.orchestrator(tr, in)
	if err != nil {
		return err
	}

	rep, err := o.Run(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), rep.String())
	if errors.Is(err, pipeline.ErrNothingExtracted) {
		return err
	}
	if err != nil {
		return errors.Wrap(err, "process")
	}
	return nil
}
