package inbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestInbox(t *testing.T, content string) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	f, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	return f
}

func TestLoadSkipsBlanksAndComments(t *testing.T) {
	f := openTestInbox(t, "https://x/1\n# comment\n\nhttps://x/2\n")

	urls, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/1", "https://x/2"}, urls)
}

func TestLoadCollapsesDuplicates(t *testing.T) {
	f := openTestInbox(t, "https://x/2\n  https://x/1  \nhttps://x/2\n\t# indented comment\n")

	urls, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/2", "https://x/1"}, urls)
}

func TestLoadReadsPastVeryLongLines(t *testing.T) {
	long := "# " + strings.Repeat("a", 2<<20)
	f := openTestInbox(t, "https://x/1\n"+long+"\nhttps://x/2\n"+strings.Repeat("b", 2<<20)+"\nhttps://x/3")

	urls, err := f.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, urls, 4)
	assert.Equal(t, "https://x/1", urls[0])
	assert.Equal(t, "https://x/2", urls[1])
	assert.Equal(t, "https://x/3", urls[3])
}

func TestOpenCreatesHeaderOnlyFile(t *testing.T) {
	f := openTestInbox(t, "")

	b, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "#"))

	urls, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestClearLeavesOnlyComments(t *testing.T) {
	f := openTestInbox(t, "https://x/1\nhttps://x/2\n")
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)

	require.NoError(t, f.Clear(context.Background(), at))

	urls, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, urls)

	b, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Contains(t, string(b), "# Last processed: 2026-06-01 12:00:00")

	require.NoError(t, f.Clear(context.Background(), at))
}

func TestAppendSkipsPendingURLs(t *testing.T) {
	f := openTestInbox(t, "https://x/1")
	ctx := context.Background()

	n, err := f.Append(ctx, []string{"https://x/1", "https://x/2", "https://x/2", " "})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	urls, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/1", "https://x/2"}, urls)
}

func TestLockIsExclusive(t *testing.T) {
	f := openTestInbox(t, "")
	other, err := Open(f.Path(), zap.NewNop())
	require.NoError(t, err)

	unlock, err := f.Lock()
	require.NoError(t, err)

	_, err = other.Lock()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInboxLocked))

	unlock()
	unlock2, err := other.Lock()
	require.NoError(t, err)
	unlock2()
}
