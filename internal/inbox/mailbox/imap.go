package mailbox

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"
)

// Message is an unseen alert email. Raw holds the full RFC822 bytes fetched
// with BODY.PEEK[] so reading it does not set \Seen.
type Message struct {
	UID     imap.UID
	From    string
	Subject string
	Date    time.Time
	Raw     []byte
}

// Source is the mailbox side of a harvest.
type Source interface {
	Unseen(ctx context.Context, since time.Time, max int) ([]Message, error)
	MarkSeen(ctx context.Context, uids []imap.UID) error
	Close() error
}

type imapSource struct {
	c   *imapclient.Client
	log *zap.Logger
}

// DialIMAP connects over TLS, logs in and selects mailbox.
func DialIMAP(ctx context.Context, addr, username, password, mailbox string, log *zap.Logger) (Source, error) {
	if addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if username == "" || password == "" {
		return nil, errors.WithHint(errors.New("imap username/password is required"),
			"set JOBTRACK_IMAP_PASSWORD or store it with `jobtrack secrets set imap`")
	}
	host := addr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		host = addr[:i]
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, errors.Wrap(err, "imap dial tls")
	}

	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, errors.WithHint(errors.Wrap(err, "imap login"),
			"providers such as Gmail require an app password")
	}

	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "imap select %q", mailbox)
	}

	return &imapSource{c: c, log: log}, nil
}

// Unseen pulls up to max unseen messages newer than since, newest first.
func (s *imapSource) Unseen(ctx context.Context, since time.Time, max int) ([]Message, error) {
	if max <= 0 {
		max = 50
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   since,
	}
	searchData, err := s.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, errors.Wrap(err, "imap uid search unseen")
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := s.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, errors.Wrap(err, "imap fetch collect")
		}

		m := Message{UID: buf.UID}
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
			m.Date = buf.Envelope.Date
			if len(buf.Envelope.From) > 0 {
				m.From = buf.Envelope.From[0].Addr()
			}
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.Raw = append([]byte(nil), b...)
		}
		out = append(out, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, errors.Wrap(err, "imap fetch close")
	}
	return out, nil
}

// MarkSeen sets \Seen on uids. Store returns a FetchCommand; Close waits for
// the final status.
func (s *imapSource) MarkSeen(_ context.Context, uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	cmd := s.c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return errors.Wrap(err, "imap store add seen")
	}
	return nil
}

func (s *imapSource) Close() error {
	if err := s.c.Logout().Wait(); err != nil {
		s.log.Debug("imap logout", zap.Error(err))
	}
	return s.c.Close()
}
