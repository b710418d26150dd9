package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jobtrack/internal/secrets"
)

func newSecretsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage SMTP and IMAP passwords in the OS keychain",
	}

	account := func(kind string) (string, error) {
		switch secrets.Kind(kind) {
		case secrets.SMTP:
			s := a.cfg.Notify.SMTP
			return secrets.Account(secrets.SMTP, s.Username, s.Host), nil
		case secrets.IMAP:
			m := a.cfg.Inbox.Mail
			return secrets.Account(secrets.IMAP, m.Username, m.IMAPHost), nil
		}
		return "", errors.Newf("unknown secret %q (want smtp or imap)", kind)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <smtp|imap>",
		Short: "Read a password from stdin and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := account(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", acct)
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.Wrap(err, "read password")
			}
			if err := secrets.SetPassword(acct, strings.TrimSpace(line)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stored.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <smtp|imap>",
		Short: "Remove a stored password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := account(args[0])
			if err != nil {
				return err
			}
			if err := secrets.DeletePassword(acct); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	})

	return cmd
}
