package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Columns is the fixed header written to every tracker at creation.
var Columns = []string{
	"Title", "Company", "Location", "Job Type", "Experience Level", "Posted Date",
	"URL", "Description", "Status", "Application Date", "Follow-up Date", "Notes",
	"Extracted Date",
}

type TrackerInfo struct {
	ID        string
	Name      string
	Header    []string
	CreatedAt time.Time
	Postings  int
}

// Tracker is a handle on one tracker's postings.
type Tracker struct {
	db   *DB
	info TrackerInfo
}

func (t *Tracker) ID() string { return t.info.ID }
func (t *Tracker) Info() TrackerInfo { return t.info }
func (t *Tracker) Header() []string { return append([]string(nil), t.info.Header...) }

// CreateTracker writes a new tracker with its header row and returns its id.
func (d *DB) CreateTracker(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Job Tracker"
	}
	id := uuid.NewString()

	hdr, err := json.Marshal(Columns)
	if err != nil {
		return "", errors.Wrap(err, "encode header")
	}

	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO trackers(id, name, header, created_at)
VALUES(?,?,?,?);`, id, name, string(hdr), d.now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", unavailable(err, "create tracker")
	}

	d.log.Info("tracker created", zap.String("id", id), zap.String("name", name))
	return id, nil
}

// Tracker resolves a store id; unknown ids return ErrTrackerNotFound.
func (d *DB) Tracker(ctx context.Context, id string) (*Tracker, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.WithHint(ErrTrackerNotFound, "run `jobtrack setup` or `jobtrack set-store <id>` first")
	}

	var info TrackerInfo
	var hdr, created string
	err := d.Pool.QueryRowContext(ctx, `
SELECT t.id, t.name, t.header, t.created_at,
       (SELECT COUNT(*) FROM postings p WHERE p.tracker_id = t.id)
FROM trackers t
WHERE t.id = ?;`, id).Scan(&info.ID, &info.Name, &hdr, &created, &info.Postings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithHintf(errors.Wrapf(ErrTrackerNotFound, "id %q", id),
			"list trackers with `jobtrack set-store --list`")
	}
	if err != nil {
		return nil, unavailable(err, "load tracker")
	}

	_ = json.Unmarshal([]byte(hdr), &info.Header)
	info.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &Tracker{db: d, info: info}, nil
}

func (d *DB) Trackers(ctx context.Context) ([]TrackerInfo, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT t.id, t.name, t.created_at,
       (SELECT COUNT(*) FROM postings p WHERE p.tracker_id = t.id)
FROM trackers t
ORDER BY t.created_at, t.id;`)
	if err != nil {
		return nil, unavailable(err, "list trackers")
	}
	defer rows.Close()

	var out []TrackerInfo
	for rows.Next() {
		var info TrackerInfo
		var created string
		if err := rows.Scan(&info.ID, &info.Name, &created, &info.Postings); err != nil {
			return nil, unavailable(err, "scan tracker")
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "list trackers")
	}
	return out, nil
}
