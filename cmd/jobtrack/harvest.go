package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jobtrack/internal/inbox/mailbox"
	"jobtrack/internal/secrets"
)

func newHarvestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Add job links from unseen alert emails to the inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := a.cfg.Inbox.Mail
			if !m.Enabled {
				return errors.WithHint(errors.New("mailbox harvesting is disabled"),
					"set inbox.mail.enabled: true and inbox.mail.username in the config")
			}

			pw, err := secrets.Password(secrets.IMAP, secrets.Account(secrets.IMAP, m.Username, m.IMAPHost))
			if err != nil {
				return err
			}

			in, err := a.openInbox()
			if err != nil {
				return err
			}
			unlock, err := in.Lock()
			if err != nil {
				return err
			}
			defer unlock()

			addr := net.JoinHostPort(m.IMAPHost, strconv.Itoa(m.IMAPPort))
			dial := func(ctx context.Context) (mailbox.Source, error) {
				return mailbox.DialIMAP(ctx, addr, m.Username, pw, m.Mailbox, a.log)
			}
			h := mailbox.NewHarvester(mailbox.Config{
				SubjectAny: m.SubjectAny,
				MaxEmails:  m.MaxEmails,
			}, dial, in, a.log)

			res, err := h.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "harvest: messages=%d matched=%d links=%d added=%d\n",
				res.Messages, res.Matched, res.Found, res.Added)
			return nil
		},
	}
}
