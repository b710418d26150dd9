// Package mailbox harvests job posting links from unseen alert emails and
// appends them to the pending inbox.
package mailbox

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/emersion/go-imap/v2"
	"go.uber.org/zap"

	"jobtrack/internal/logging"
)

type Config struct {
	SubjectAny []string      // empty matches every subject
	MaxEmails  int           // per harvest
	MaxAge     time.Duration // older mail is not considered
}

// Appender receives the harvested URLs; *inbox.File satisfies it.
type Appender interface {
	Append(ctx context.Context, urls []string) (int, error)
}

type DialFunc func(ctx context.Context) (Source, error)

type Result struct {
	Messages int // unseen messages scanned
	Matched  int // messages whose subject matched
	Found    int // distinct job links
	Added    int // links new to the inbox
}

type Harvester struct {
	cfg  Config
	dial DialFunc
	out  Appender
	log  *zap.Logger
	now  func() time.Time
}

func NewHarvester(cfg Config, dial DialFunc, out Appender, log *zap.Logger) *Harvester {
	if cfg.MaxEmails <= 0 {
		cfg.MaxEmails = 200
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 90 * 24 * time.Hour
	}
	return &Harvester{cfg: cfg, dial: dial, out: out, log: logging.Component(log, "mailbox"), now: time.Now}
}

// Run scans unseen mail once. Matching messages are marked \Seen only after
// their links were written to the inbox.
func (h *Harvester) Run(ctx context.Context) (Result, error) {
	var res Result

	src, err := h.dial(ctx)
	if err != nil {
		return res, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			h.log.Debug("mailbox close", zap.Error(err))
		}
	}()

	msgs, err := src.Unseen(ctx, h.now().Add(-h.cfg.MaxAge), h.cfg.MaxEmails)
	if err != nil {
		return res, err
	}
	res.Messages = len(msgs)

	var links []string
	var done []imap.UID
	seen := map[string]bool{}
	for _, m := range msgs {
		if !h.subjectMatches(m.Subject) {
			continue
		}
		res.Matched++

		found, err := JobLinks(m.Raw)
		if err != nil {
			h.log.Warn("skip unparsable message",
				zap.Uint32("uid", uint32(m.UID)),
				zap.String("subject", m.Subject),
				zap.Error(err),
			)
			continue
		}
		for _, u := range found {
			if !seen[u] {
				seen[u] = true
				links = append(links, u)
			}
		}
		done = append(done, m.UID)
	}
	res.Found = len(links)

	if len(links) > 0 {
		n, err := h.out.Append(ctx, links)
		if err != nil {
			return res, errors.Wrap(err, "append harvested links")
		}
		res.Added = n
	}

	if err := src.MarkSeen(ctx, done); err != nil {
		return res, err
	}

	h.log.Info("harvest done",
		zap.Int("messages", res.Messages),
		zap.Int("matched", res.Matched),
		zap.Int("found", res.Found),
		zap.Int("added", res.Added),
	)
	return res, nil
}

func (h *Harvester) subjectMatches(subject string) bool {
	if len(h.cfg.SubjectAny) == 0 {
		return true
	}
	s := strings.ToLower(subject)
	for _, want := range h.cfg.SubjectAny {
		if want = strings.ToLower(strings.TrimSpace(want)); want != "" && strings.Contains(s, want) {
			return true
		}
	}
	return false
}
