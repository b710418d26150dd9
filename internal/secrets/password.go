package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app's secrets in the OS keychain.
	KeyringService = "jobtrack"

	EnvSMTPPassword = "JOBTRACK_SMTP_PASSWORD"
	EnvIMAPPassword = "JOBTRACK_IMAP_PASSWORD"
)

var ErrNotFound = errors.New("password not found")

// Kind selects which credential is meant.
type Kind string

const (
	SMTP Kind = "smtp"
	IMAP Kind = "imap"
)

func (k Kind) envVar() string {
	if k == IMAP {
		return EnvIMAPPassword
	}
	return EnvSMTPPassword
}

// Account is the keychain account name for a login on host.
func Account(k Kind, username, host string) string {
	return fmt.Sprintf("jobtrack:%s:%s@%s", k, strings.TrimSpace(username), strings.TrimSpace(host))
}

// Password looks in the environment first, then the keychain.
func Password(k Kind, account string) (string, error) {
	if pw := strings.TrimSpace(os.Getenv(k.envVar())); pw != "" {
		return pw, nil
	}

	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}

	return "", errors.WithHintf(errors.Wrapf(ErrNotFound, "%s password", k),
		"set %s or run `jobtrack secrets set %s`", k.envVar(), k)
}

func SetPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return errors.Wrap(keyring.Set(KeyringService, account, password), "keyring set")
}

func DeletePassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return errors.Wrap(err, "keyring delete")
}
