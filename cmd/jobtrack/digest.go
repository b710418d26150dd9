package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jobtrack/internal/domain"
)

func newDigestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Email today's new postings and pending follow-ups",
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
			in, err := a.openInbox()
			if err != nil {
				return err
			}
			o, err := a.orchestrator(tr, in)
			if err != nil {
				return err
			}

			rep, err := o.Digest(ctx, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "digest: new=%d follow_ups=%d sent=%t\n", rep.New, rep.FollowUps, rep.Sent)
			if !rep.Sent {
				return errors.New("digest was not sent; see the log for the delivery error")
			}
			return nil
		},
	}
}

func newRemindCommand(a *app) *cobra.Command {
	var kindNames []string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Email follow-up and deadline reminders that are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var kinds []domain.ReminderKind
			for _, name := range kindNames {
				k := domain.ParseReminderKind(name)
				if k == domain.ReminderGeneric && !strings.EqualFold(strings.TrimSpace(name), string(domain.ReminderGeneric)) {
					return errors.WithHint(errors.Newf("unknown reminder kind %q", name),
						"use follow-up, deadline or generic")
				}
				kinds = append(kinds, k)
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
			in, err := a.openInbox()
			if err != nil {
				return err
			}
			o, err := a.orchestrator(tr, in)
			if err != nil {
				return err
			}

			rep, err := o.Reminders(ctx, time.Now(), kinds...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reminders: considered=%d sent=%d failed=%d\n",
				rep.Considered, rep.Sent, rep.Failed)
			if rep.Failed > 0 {
				return errors.Newf("%d reminders could not be sent", rep.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&kindNames, "kind", nil, "only send these kinds (follow-up, deadline, generic)")
	return cmd
}
