// Package pipeline drives one ingestion run: load pending URLs, fetch and
// extract each independently, persist the successes as one batch, announce
// what was new and finally clear the inbox. It also builds the digest and
// reminder runs over the stored records.
package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobtrack/internal/domain"
	"jobtrack/internal/extract"
	"jobtrack/internal/fetch"
	"jobtrack/internal/logging"
)

var ErrNothingExtracted = errors.New("no posting could be fetched")

type Inbox interface {
	Load(ctx context.Context) ([]string, error)
	Clear(ctx context.Context, at time.Time) error
}

// Locker is implemented by inboxes that serialize runs.
type Locker interface {
	Lock() (unlock func(), err error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Document, error)
}

type Extractor interface {
	ExtractAll(doc *fetch.Document) (domain.Posting, extract.Outcomes)
}

type Store interface {
	Append(ctx context.Context, ps []domain.Posting) ([]domain.Posting, error)
	QueryAll(ctx context.Context) ([]domain.Row, error)
	LastExtractedAt(ctx context.Context) (time.Time, error)
}

type Notifier interface {
	NotifyNew(ctx context.Context, p domain.Posting) bool
	SendDigest(ctx context.Context, newPostings []domain.Posting, followUps []domain.FollowUp) bool
	SendReminder(ctx context.Context, kind domain.ReminderKind, p domain.Posting) bool
}

type Options struct {
	Notify       bool
	Workers      int
	Retries      int
	RetryBackoff time.Duration
	FollowUpDays int
	DeadlineDays int
}

type Orchestrator struct {
	inbox    Inbox
	fetcher  Fetcher
	extract  Extractor
	store    Store
	notifier Notifier
	opts     Options
	log      *zap.Logger
	now      func() time.Time
}

func New(in Inbox, f Fetcher, x Extractor, s Store, n Notifier, opts Options, log *zap.Logger) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.FollowUpDays <= 0 {
		opts.FollowUpDays = 7
	}
	if opts.DeadlineDays <= 0 {
		opts.DeadlineDays = 2
	}
	return &Orchestrator{
		inbox:    in,
		fetcher:  f,
		extract:  x,
		store:    s,
		notifier: n,
		opts:     opts,
		log:      logging.Component(log, "pipeline"),
		now:      time.Now,
	}
}

type result struct {
	url     string
	posting domain.Posting
	err     error
}

// Run processes the inbox once. Item failures are reported, not returned;
// the returned error is set only when the run itself failed, in which case
// the inbox is left as it was.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	rep := Report{StartedAt: o.now()}
	finish := func() { rep.FinishedAt = o.now() }

	if l, ok := o.inbox.(Locker); ok {
		unlock, err := l.Lock()
		if err != nil {
			finish()
			return rep, err
		}
		defer unlock()
	}

	urls, err := o.inbox.Load(ctx)
	if err != nil {
		finish()
		return rep, errors.Wrap(err, "load inbox")
	}
	if len(urls) == 0 {
		rep.NothingToDo = true
		finish()
		o.log.Info("no pending urls")
		return rep, nil
	}
	rep.Attempted = len(urls)
	o.log.Info("run started", zap.Int("urls", len(urls)), zap.Int("workers", o.opts.Workers))

	results := o.fetchAll(ctx, urls)
	if err := ctx.Err(); err != nil {
		finish()
		return rep, errors.Wrap(err, "run interrupted")
	}

	var ok []domain.Posting
	for _, r := range results {
		if r.err != nil {
			rep.FailedItems = append(rep.FailedItems, FailedItem{URL: r.url, Reason: r.err.Error()})
			continue
		}
		ok = append(ok, r.posting)
	}
	rep.Succeeded = len(ok)
	rep.Failed = len(rep.FailedItems)

	if len(ok) == 0 {
		finish()
		return rep, errors.WithHint(ErrNothingExtracted,
			"every URL failed to fetch; the inbox was kept so the next run retries them")
	}

	// stamps never go backwards in insertion order, across runs too
	last, err := o.store.LastExtractedAt(ctx)
	if err != nil {
		finish()
		return rep, errors.Wrap(err, "read last posting")
	}
	for i := range ok {
		if ok[i].ExtractedAt.Before(last) {
			ok[i].ExtractedAt = last
		}
		last = ok[i].ExtractedAt
	}

	inserted, err := o.store.Append(ctx, ok)
	if err != nil {
		finish()
		return rep, errors.Wrap(err, "persist postings")
	}
	rep.Inserted = len(inserted)
	rep.Duplicates = len(ok) - len(inserted)

	if o.opts.Notify {
		for _, p := range inserted {
			if o.notifier.NotifyNew(ctx, p) {
				rep.Notified++
			} else {
				rep.NotifyFailed++
			}
		}
	}

	if err := o.inbox.Clear(ctx, o.now()); err != nil {
		finish()
		return rep, errors.Wrap(err, "clear inbox (postings were saved)")
	}
	rep.Cleared = true
	finish()

	o.log.Info("run finished",
		zap.Int("attempted", rep.Attempted),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed),
		zap.Int("inserted", rep.Inserted),
		zap.Int("duplicates", rep.Duplicates),
		zap.Int("notified", rep.Notified),
	)
	return rep, nil
}

// fetchAll returns one result per url in input order.
func (o *Orchestrator) fetchAll(ctx context.Context, urls []string) []result {
	results := make([]result, len(urls))

	if o.opts.Workers == 1 {
		for i, u := range urls {
			if ctx.Err() != nil {
				results[i] = result{url: u, err: ctx.Err()}
				continue
			}
			results[i] = o.one(ctx, u)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = o.one(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) one(ctx context.Context, url string) result {
	doc, err := o.fetchWithRetry(ctx, url)
	if err != nil {
		o.log.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		return result{url: url, err: err}
	}
	p, out := o.extract.ExtractAll(doc)
	if p.URL == "" {
		p.URL = url
	}
	o.log.Debug("extracted",
		zap.String("url", url),
		zap.String("title", p.Title),
		zap.Strings("missed", out.Misses()),
	)
	return result{url: url, posting: p}
}

func (o *Orchestrator) fetchWithRetry(ctx context.Context, url string) (*fetch.Document, error) {
	var lastErr error
	for attempt := 0; attempt <= o.opts.Retries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(o.opts.RetryBackoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
			o.log.Debug("retrying fetch", zap.String("url", url), zap.Int("attempt", attempt))
		}

		doc, err := o.fetcher.Fetch(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// retryable reports whether another attempt could succeed. Client errors
// other than 408 and 429 are final.
func retryable(err error) bool {
	var fe *fetch.Error
	if !errors.As(err, &fe) || fe.StatusCode == 0 {
		return true
	}
	switch fe.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return fe.StatusCode >= 500
}
