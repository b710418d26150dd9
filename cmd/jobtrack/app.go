package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"jobtrack/internal/config"
	"jobtrack/internal/extract"
	"jobtrack/internal/fetch"
	"jobtrack/internal/inbox"
	"jobtrack/internal/logging"
	"jobtrack/internal/notify"
	"jobtrack/internal/pipeline"
	"jobtrack/internal/secrets"
	"jobtrack/internal/store"
)

// app carries what every command needs. It is filled by the root command's
// PersistentPreRunE.
type app struct {
	cfgPath string
	dataDir string
	debug   bool

	cfg config.Config
	log *zap.Logger
}

func (a *app) init() error {
	if a.dataDir == "" {
		if a.cfgPath != "" {
			a.dataDir = filepath.Dir(a.cfgPath)
		} else if d := os.Getenv("JOBTRACK_DATA_DIR"); d != "" {
			a.dataDir = d
		} else {
			a.dataDir = config.DefaultDataDir()
		}
	}
	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}

	if err := config.LoadDotEnv(a.dataDir); err != nil {
		return err
	}

	if a.cfgPath == "" {
		p, _, err := config.EnsureUserConfig(a.dataDir)
		if err != nil {
			return errors.Wrap(err, "config bootstrap")
		}
		a.cfgPath = p
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.App.DataDir = a.dataDir
	}
	config.OverlayEnv(&cfg)
	cfg, v := config.NormalizeAndValidate(cfg)

	logCfg := cfg.Logging
	if a.debug {
		logCfg.Level = "debug"
		logCfg.Format = "console"
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	a.log = log
	a.cfg = cfg

	for _, w := range v.Warnings {
		log.Debug("config warning", zap.String("warning", w))
	}
	return errors.WithHintf(v.Err(), "edit %s", a.cfgPath)
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) saveConfig() error {
	return config.SaveAtomic(a.cfgPath, a.cfg)
}

func (a *app) openStore() (*store.DB, error) {
	return store.Open(a.cfg.StorePath(), a.log)
}

func (a *app) tracker(ctx context.Context, db *store.DB) (*store.Tracker, error) {
	return db.Tracker(ctx, a.cfg.Store.ID)
}

func (a *app) openInbox() (*inbox.File, error) {
	return inbox.Open(a.cfg.InboxPath(), a.log)
}

// transport returns SMTP when notifications are enabled and a logging
// no-op otherwise.
func (a *app) transport() (notify.Transport, error) {
	n := a.cfg.Notify
	if !n.Enabled {
		return notify.NewDiscard(a.log), nil
	}
	pw, err := secrets.Password(secrets.SMTP, secrets.Account(secrets.SMTP, n.SMTP.Username, n.SMTP.Host))
	if err != nil {
		return nil, err
	}
	return notify.NewSMTP(notify.SMTPConfig{
		Host:     n.SMTP.Host,
		Port:     n.SMTP.Port,
		Username: n.SMTP.Username,
		Password: pw,
		From:     n.SMTP.From,
		FromName: n.SMTP.FromName,
	}), nil
}

func (a *app) dispatcher() (*notify.Dispatcher, error) {
	t, err := a.transport()
	if err != nil {
		return nil, err
	}
	return notify.NewDispatcher(t, notify.Config{
		To:           a.cfg.Notify.To,
		TrackerURL:   a.cfg.Notify.TrackerURL,
		FollowUpDays: a.cfg.Notify.FollowUpDays,
	}, a.log), nil
}

// orchestrator wires the full pipeline against tr.
func (a *app) orchestrator(tr *store.Tracker, in pipeline.Inbox) (*pipeline.Orchestrator, error) {
	d, err := a.dispatcher()
	if err != nil {
		return nil, err
	}
	fc := fetch.New(fetch.Config{Delay: a.cfg.Fetch.Delay, Timeout: a.cfg.Fetch.Timeout}, nil, a.log)
	x := extract.New(extract.DefaultRules())

	return pipeline.New(in, fc, x, tr, d, pipeline.Options{
		Notify:       a.cfg.Notify.Enabled,
		Workers:      a.cfg.Fetch.Workers,
		Retries:      a.cfg.Fetch.Retries,
		FollowUpDays: a.cfg.Notify.FollowUpDays,
		DeadlineDays: a.cfg.Notify.DeadlineDays,
	}, a.log), nil
}
