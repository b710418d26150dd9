package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"jobtrack/internal/logging"
)

// Message is one rendered notification.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Transport interface {
	Send(ctx context.Context, m Message) error
}

var ErrAuth = errors.New("smtp authentication failed")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTP delivers over STARTTLS (or implicit TLS on port 465) with PLAIN auth.
type SMTP struct {
	cfg SMTPConfig
	now func() time.Time
}

func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTP{cfg: cfg, now: time.Now}
}

func (s *SMTP) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(s.cfg.Host) == "" {
		return errors.New("smtp host is not configured")
	}

	body, err := compose(s.cfg.From, s.cfg.FromName, m, s.now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, ServerName: s.cfg.Host}

	var c *smtp.Client
	if s.cfg.Port == 465 {
		c, err = smtp.DialTLS(addr, tlsCfg)
	} else {
		c, err = smtp.Dial(addr)
		if err == nil {
			if err = c.StartTLS(tlsCfg); err != nil {
				_ = c.Close()
			}
		}
	}
	if err != nil {
		return errors.Wrapf(err, "smtp connect %s", addr)
	}
	defer c.Close()

	if s.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)); err != nil {
			return errors.WithHint(errors.Mark(errors.Wrap(err, "smtp auth"), ErrAuth),
				"check notify.smtp.username and the stored SMTP password (Gmail needs an app password)")
		}
	}

	if err := c.SendMail(s.cfg.From, []string{m.To}, bytes.NewReader(body)); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return c.Quit()
}

// compose builds an RFC 5322 HTML message.
func compose(from, fromName string, m Message, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{{Name: fromName, Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: m.To}})
	h.SetSubject(m.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, errors.Wrap(err, "message id")
	}
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, errors.Wrap(err, "create message")
	}
	if _, err := io.WriteString(w, m.HTML); err != nil {
		return nil, errors.Wrap(err, "write message")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close message")
	}
	return buf.Bytes(), nil
}

// Discard logs messages instead of sending them.
type Discard struct {
	log *zap.Logger
}

func NewDiscard(log *zap.Logger) *Discard {
	return &Discard{log: logging.Component(log, "notify")}
}

func (d *Discard) Send(_ context.Context, m Message) error {
	d.log.Info("notification not sent (disabled)",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.Int("bytes", len(m.HTML)),
	)
	return nil
}
