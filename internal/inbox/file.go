// Package inbox manages the pending URL list: a plain text file with one
// posting URL per line that the user (or the mailbox harvester) fills and a
// successful run empties.
package inbox

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"jobtrack/internal/logging"
)

const (
	DefaultFileName = "saved_jobs.txt"
	headerLine      = "# Add job posting URLs here (one per line)"
	processedPrefix = "# Last processed: "
)

var ErrInboxLocked = errors.New("inbox is locked by another run")

type File struct {
	path string
	lock *flock.Flock
	log  *zap.Logger
}

// Open returns the inbox at path, creating it with a comment header if it
// does not exist yet.
func Open(path string, log *zap.Logger) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("inbox path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create inbox dir")
	}

	f := &File{
		path: path,
		lock: flock.New(path + ".lock"),
		log:  logging.Component(log, "inbox"),
	}

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeAtomic(path, []byte(headerLine+"\n")); err != nil {
			return nil, err
		}
		f.log.Info("inbox created", zap.String("path", path))
		return f, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "stat inbox")
	}
	return f, nil
}

func (f *File) Path() string { return f.path }

// Lock takes the exclusive run lock without blocking. The returned func
// releases it.
func (f *File) Lock() (func(), error) {
	ok, err := f.lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "lock inbox")
	}
	if !ok {
		return nil, errors.WithHint(ErrInboxLocked, "another jobtrack process is running; retry when it finishes")
	}
	return func() {
		if err := f.lock.Unlock(); err != nil {
			f.log.Warn("unlock inbox", zap.Error(err))
		}
	}, nil
}

// Load returns the pending URLs in file order. Blank lines and # comments are
// skipped and repeated lines keep their first position.
func (f *File) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read inbox")
	}
	urls, err := ParseLines(b)
	if err != nil {
		return nil, errors.Wrap(err, "parse inbox")
	}
	return urls, nil
}

// ParseLines applies the inbox line rules to raw file content. Lines may be
// any length.
func ParseLines(b []byte) ([]string, error) {
	var out []string
	seen := map[string]bool{}

	r := bufio.NewReader(bytes.NewReader(b))
	for {
		raw, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		line := strings.TrimSpace(raw)
		if line != "" && !strings.HasPrefix(line, "#") && !seen[line] {
			seen[line] = true
			out = append(out, line)
		}
		if err != nil {
			return out, nil
		}
	}
}

// Clear rewrites the inbox to its header plus a processed timestamp.
func (f *File) Clear(ctx context.Context, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body := fmt.Sprintf("%s\n%s%s\n", headerLine, processedPrefix, at.Format("2006-01-02 15:04:05"))
	if err := writeAtomic(f.path, []byte(body)); err != nil {
		return err
	}
	f.log.Info("inbox cleared", zap.String("path", f.path))
	return nil
}

// Append adds urls that are not already pending and reports how many were
// written.
func (f *File) Append(ctx context.Context, urls []string) (int, error) {
	existing, err := f.Load(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, u := range existing {
		seen[u] = true
	}

	var add []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || strings.HasPrefix(u, "#") || seen[u] {
			continue
		}
		seen[u] = true
		add = append(add, u)
	}
	if len(add) == 0 {
		return 0, nil
	}

	cur, err := os.ReadFile(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, errors.Wrap(err, "read inbox")
	}
	if len(cur) > 0 && !bytes.HasSuffix(cur, []byte("\n")) {
		cur = append(cur, '\n')
	}
	cur = append(cur, []byte(strings.Join(add, "\n")+"\n")...)

	if err := writeAtomic(f.path, cur); err != nil {
		return 0, err
	}
	f.log.Info("inbox appended", zap.Int("added", len(add)))
	return len(add), nil
}

func writeAtomic(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "write inbox")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "replace inbox")
	}
	return nil
}
