package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserConfigWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	path, created, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Fetch.Delay)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 7, cfg.Notify.FollowUpDays)
	assert.Equal(t, filepath.Join(dir, "saved_jobs.txt"), cfg.InboxPath())
	assert.Equal(t, filepath.Join(dir, "jobtrack.db"), cfg.StorePath())

	_, created, err = EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoadParsesDurationsAndPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
fetch:
  delay: 500ms
  workers: 3
inbox:
  path: urls.txt
store:
  path: /tmp/elsewhere.db
  id: abc
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Fetch.Delay)
	assert.Equal(t, 3, cfg.Fetch.Workers)
	assert.Equal(t, filepath.Join(dir, "urls.txt"), cfg.InboxPath())
	assert.Equal(t, "/tmp/elsewhere.db", cfg.StorePath())
	assert.Equal(t, "abc", cfg.Store.ID)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("fetch: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Fetch.Workers = 0
	cfg.Fetch.Retries = -1
	cfg.Notify.Enabled = true
	cfg.Notify.SMTP.Username = ""
	cfg.Inbox.Mail.SubjectAny = []string{" Job Alert ", "job alert", ""}

	out, v := NormalizeAndValidate(cfg)
	assert.False(t, v.OK())
	assert.Error(t, v.Err())
	assert.Contains(t, v.Errors, "fetch.retries must be >= 0")
	assert.Contains(t, v.Errors, "notify.to is required when notify.enabled=true")
	assert.Contains(t, v.Errors, "notify.smtp.username is required when notify.enabled=true")
	assert.Equal(t, 1, out.Fetch.Workers)
	assert.Equal(t, []string{"Job Alert"}, out.Inbox.Mail.SubjectAny)
	assert.NotEmpty(t, v.Warnings)
}

func TestSaveAtomicKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg := Default(dir)
	require.NoError(t, SaveAtomic(path, cfg))
	cfg.Store.ID = "tracker-1"
	require.NoError(t, SaveAtomic(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tracker-1", got.Store.ID)
	assert.FileExists(t, path+".bak")

	cfg.Fetch.Retries = -5
	assert.Error(t, SaveAtomic(path, cfg))
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("JOBTRACK_STORE_ID", "from-env")
	t.Setenv("JOBTRACK_SMTP_PORT", "2525")
	t.Setenv("JOBTRACK_NOTIFY_TO", "")

	cfg := Default(t.TempDir())
	cfg.Notify.To = "keep@example.com"
	OverlayEnv(&cfg)
	assert.Equal(t, "from-env", cfg.Store.ID)
	assert.Equal(t, 2525, cfg.Notify.SMTP.Port)
	assert.Equal(t, "keep@example.com", cfg.Notify.To)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JOBTRACK_TEST_DOTENV=hello\n"), 0o600))
	t.Setenv("JOBTRACK_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("JOBTRACK_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "hello", os.Getenv("JOBTRACK_TEST_DOTENV"))
}
