package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the validation errors into one error, nil when OK.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.Newf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of cfg plus what is wrong
// with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Inbox.Mail.SubjectAny = trimList(out.Inbox.Mail.SubjectAny)
	out.Store.ID = strings.TrimSpace(out.Store.ID)
	out.Notify.To = strings.TrimSpace(out.Notify.To)

	// ---- fetch ----

	if out.Fetch.Delay < 0 {
		res.addErr("fetch.delay must be >= 0")
	} else if out.Fetch.Delay < time.Second {
		res.addWarn("fetch.delay is very low (%s) and may get requests blocked.", out.Fetch.Delay)
	}
	if out.Fetch.Timeout <= 0 {
		out.Fetch.Timeout = 10 * time.Second
	}
	if out.Fetch.Workers <= 0 {
		out.Fetch.Workers = 1
	} else if out.Fetch.Workers > 8 {
		res.addWarn("fetch.workers is %d; requests to one host are still spaced by fetch.delay.", out.Fetch.Workers)
	}
	if out.Fetch.Retries < 0 {
		res.addErr("fetch.retries must be >= 0")
	}

	// ---- store ----

	if out.Store.ID == "" {
		res.addWarn("store.id is empty; run `jobtrack setup` to create a tracker.")
	}

	// ---- notify ----

	if out.Notify.FollowUpDays <= 0 {
		out.Notify.FollowUpDays = 7
	}
	if out.Notify.DeadlineDays <= 0 {
		out.Notify.DeadlineDays = 2
	}
	if out.Notify.SMTP.Port == 0 {
		out.Notify.SMTP.Port = 587
	}
	if out.Notify.Enabled {
		if out.Notify.To == "" {
			res.addErr("notify.to is required when notify.enabled=true")
		}
		if strings.TrimSpace(out.Notify.SMTP.Host) == "" {
			res.addErr("notify.smtp.host is required when notify.enabled=true")
		}
		if strings.TrimSpace(out.Notify.SMTP.Username) == "" {
			res.addErr("notify.smtp.username is required when notify.enabled=true")
		}
	}

	// ---- inbox mail (password not required here; it's in keychain or env) ----

	if out.Inbox.Mail.Enabled {
		if strings.TrimSpace(out.Inbox.Mail.IMAPHost) == "" {
			res.addErr("inbox.mail.imap_host is required when inbox.mail.enabled=true")
		}
		if out.Inbox.Mail.IMAPPort == 0 {
			res.addErr("inbox.mail.imap_port is required when inbox.mail.enabled=true")
		}
		if strings.TrimSpace(out.Inbox.Mail.Username) == "" {
			res.addErr("inbox.mail.username is required when inbox.mail.enabled=true")
		}
		if strings.TrimSpace(out.Inbox.Mail.Mailbox) == "" {
			out.Inbox.Mail.Mailbox = "INBOX"
		}
		if len(out.Inbox.Mail.SubjectAny) == 0 {
			res.addWarn("inbox.mail.search_subject_any is empty; every unseen email will be scanned.")
		}
	}

	return out, res
}
