package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSetupProcessList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/view/1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><h1 class="top-card-layout__title">PM Role</h1>
<a class="topcard__org-name-link">Acme</a></body></html>`))
	}))
	defer srv.Close()

	dir := t.TempDir()

	out, err := run(t, dir, "setup", "--name", "Search 2026")
	require.NoError(t, err)
	assert.Contains(t, out, "store id:")

	inboxPath := filepath.Join(dir, "saved_jobs.txt")
	require.NoError(t, os.WriteFile(inboxPath,
		[]byte(srv.URL+"/jobs/view/1\n# comment\n\n"+srv.URL+"/jobs/view/2\n"), 0o644))

	out, err = run(t, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "attempted=2 succeeded=1 failed=1")

	out, err = run(t, dir, "list", "--csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "PM Role")
	assert.Contains(t, lines[1], "Acme")

	out, err = run(t, dir, "update-status", "1", "applied", "--notes", "sent resume")
	require.NoError(t, err)
	assert.Contains(t, out, "Row 1 is now Applied")

	out, err = run(t, dir, "process")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending URLs")
}

func TestProcessWithoutTrackerHints(t *testing.T) {
	_, err := run(t, t.TempDir(), "process")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracker not found")
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "setup")
	require.NoError(t, err)

	_, err = run(t, dir, "update-status", "1", "interviewing")
	require.Error(t, err)
}

func TestRemindKindFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "setup")
	require.NoError(t, err)

	out, err := run(t, dir, "remind", "--kind", "deadline,follow-up")
	require.NoError(t, err)
	assert.Contains(t, out, "reminders: considered=0 sent=0 failed=0")

	_, err = run(t, dir, "remind", "--kind", "interview")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown reminder kind "interview"`)
}
