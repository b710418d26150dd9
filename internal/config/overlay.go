package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// LoadDotEnv reads .env from the working directory and then from dataDir.
// Variables already set in the process win; missing files are fine.
func LoadDotEnv(dataDir string) error {
	for _, p := range []string{".env", filepath.Join(dataDir, ".env")} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "load %s", p)
		}
	}
	return nil
}

// OverlayEnv applies JOBTRACK_* environment overrides on top of the file.
func OverlayEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
			*dst = v
		}
	}

	str("JOBTRACK_INBOX", &cfg.Inbox.Path)
	str("JOBTRACK_STORE_ID", &cfg.Store.ID)
	str("JOBTRACK_NOTIFY_TO", &cfg.Notify.To)
	str("JOBTRACK_SMTP_HOST", &cfg.Notify.SMTP.Host)
	num("JOBTRACK_SMTP_PORT", &cfg.Notify.SMTP.Port)
	str("JOBTRACK_SMTP_USERNAME", &cfg.Notify.SMTP.Username)
	str("JOBTRACK_IMAP_USERNAME", &cfg.Inbox.Mail.Username)
	str("JOBTRACK_LOG_LEVEL", &cfg.Logging.Level)
}
