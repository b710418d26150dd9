package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"jobtrack/internal/logging"
)

const FileName = "config.yml"

type MailConfig struct {
	Enabled    bool     `yaml:"enabled"`
	IMAPHost   string   `yaml:"imap_host"`
	IMAPPort   int      `yaml:"imap_port"`
	Username   string   `yaml:"username"`
	Mailbox    string   `yaml:"mailbox"`
	SubjectAny []string `yaml:"search_subject_any"`
	MaxEmails  int      `yaml:"max_emails"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Inbox struct {
		Path string     `yaml:"path"`
		Mail MailConfig `yaml:"mail"`
	} `yaml:"inbox"`

	Fetch struct {
		Delay   time.Duration `yaml:"delay"`
		Timeout time.Duration `yaml:"timeout"`
		Workers int           `yaml:"workers"`
		Retries int           `yaml:"retries"`
	} `yaml:"fetch"`

	Store struct {
		Path string `yaml:"path"`
		ID   string `yaml:"id"`
	} `yaml:"store"`

	Notify struct {
		Enabled      bool       `yaml:"enabled"`
		To           string     `yaml:"to"`
		TrackerURL   string     `yaml:"tracker_url"`
		FollowUpDays int        `yaml:"follow_up_days"`
		DeadlineDays int        `yaml:"deadline_days"`
		SMTP         SMTPConfig `yaml:"smtp"`
	} `yaml:"notify"`

	Logging logging.Config `yaml:"logging"`
}

// Default is the configuration written on first run.
func Default(dataDir string) Config {
	var cfg Config
	cfg.App.DataDir = dataDir
	cfg.Inbox.Mail.IMAPHost = "imap.gmail.com"
	cfg.Inbox.Mail.IMAPPort = 993
	cfg.Inbox.Mail.Mailbox = "INBOX"
	cfg.Inbox.Mail.SubjectAny = []string{"job alert", "jobs for you", "new jobs"}
	cfg.Inbox.Mail.MaxEmails = 200
	cfg.Fetch.Delay = 2 * time.Second
	cfg.Fetch.Timeout = 10 * time.Second
	cfg.Fetch.Workers = 1
	cfg.Notify.FollowUpDays = 7
	cfg.Notify.DeadlineDays = 2
	cfg.Notify.SMTP.Host = "smtp.gmail.com"
	cfg.Notify.SMTP.Port = 587
	cfg.Notify.SMTP.FromName = "Job Tracker"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.WithHintf(errors.Wrap(err, "parse config"), "fix the YAML in %s", path)
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = filepath.Dir(path)
	}
	return cfg, nil
}

func (c Config) InboxPath() string {
	if c.Inbox.Path != "" {
		return c.resolve(c.Inbox.Path)
	}
	return filepath.Join(c.App.DataDir, "saved_jobs.txt")
}

func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.resolve(c.Store.Path)
	}
	return filepath.Join(c.App.DataDir, "jobtrack.db")
}

// resolve makes relative paths relative to the data dir.
func (c Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}
