package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"jobtrack/internal/domain"
)

const postingCols = `title, company, location, job_type, experience_level, posted_date,
url, description, status, application_date, follow_up_date, notes, extracted_date`

// Append inserts postings in order inside one transaction. Postings whose URL
// is already in the tracker (or earlier in the same batch) are skipped; the
// returned slice holds exactly the inserted ones.
func (t *Tracker) Append(ctx context.Context, ps []domain.Posting) ([]domain.Posting, error) {
	if len(ps) == 0 {
		return nil, nil
	}

	tx, err := t.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable(err, "begin append")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO postings (tracker_id, `+postingCols+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return nil, unavailable(err, "prepare append")
	}
	defer stmt.Close()

	inserted := make([]domain.Posting, 0, len(ps))
	for _, p := range ps {
		p.URL = strings.TrimSpace(p.URL)
		if p.URL == "" {
			continue
		}
		if !p.Status.Valid() {
			p.Status = domain.StatusSaved
		}

		res, err := stmt.ExecContext(ctx, t.info.ID,
			p.Title, p.Company, p.Location, p.JobType, p.ExperienceLevel, p.PostedDate,
			p.URL, p.Description, string(p.Status), p.ApplicationDate, p.FollowUpDate, p.Notes,
			p.ExtractedDate(),
		)
		if err != nil {
			return nil, unavailable(err, "insert posting")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, p)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable(err, "commit append")
	}

	t.db.log.Debug("appended",
		zap.String("tracker", t.info.ID),
		zap.Int("offered", len(ps)),
		zap.Int("inserted", len(inserted)),
	)
	return inserted, nil
}

// QueryAll returns every posting in insertion order, numbered from 1.
func (t *Tracker) QueryAll(ctx context.Context) ([]domain.Row, error) {
	rows, err := t.db.Pool.QueryContext(ctx, `
SELECT ROW_NUMBER() OVER (ORDER BY id), `+postingCols+`
FROM postings
WHERE tracker_id = ?
ORDER BY id;`, t.info.ID)
	if err != nil {
		return nil, unavailable(err, "query postings")
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		var r domain.Row
		var status, extracted string
		if err := rows.Scan(
			&r.Number,
			&r.Title,
			&r.Company,
			&r.Location,
			&r.JobType,
			&r.ExperienceLevel,
			&r.PostedDate,
			&r.URL,
			&r.Description,
			&status,
			&r.ApplicationDate,
			&r.FollowUpDate,
			&r.Notes,
			&extracted,
		); err != nil {
			return nil, unavailable(err, "scan posting")
		}
		r.Status = domain.Status(status)
		r.ExtractedAt, _ = time.ParseInLocation(domain.ExtractedLayout, extracted, time.Local)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "query postings")
	}
	return out, nil
}

// LastExtractedAt returns the stamp of the most recently inserted posting,
// or the zero time for an empty tracker.
func (t *Tracker) LastExtractedAt(ctx context.Context) (time.Time, error) {
	var extracted string
	err := t.db.Pool.QueryRowContext(ctx, `
SELECT extracted_date FROM postings
WHERE tracker_id = ?
ORDER BY id DESC
LIMIT 1;`, t.info.ID).Scan(&extracted)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, unavailable(err, "query last posting")
	}
	at, _ := time.ParseInLocation(domain.ExtractedLayout, extracted, time.Local)
	return at, nil
}

// UpdateStatus sets the status of the posting at logical row number row.
// notes replaces the stored notes only when non-empty.
func (t *Tracker) UpdateStatus(ctx context.Context, row int64, status domain.Status, notes string) error {
	if !status.Valid() {
		return errors.Newf("invalid status %q", status)
	}
	if row < 1 {
		return errors.Wrapf(ErrRowNotFound, "row %d", row)
	}

	var id int64
	err := t.db.Pool.QueryRowContext(ctx, `
SELECT id FROM postings
WHERE tracker_id = ?
ORDER BY id
LIMIT 1 OFFSET ?;`, t.info.ID, row-1).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.WithHint(errors.Wrapf(ErrRowNotFound, "row %d", row),
			"row numbers are shown by `jobtrack list`")
	}
	if err != nil {
		return unavailable(err, "find row")
	}

	if notes = strings.TrimSpace(notes); notes != "" {
		_, err = t.db.Pool.ExecContext(ctx,
			`UPDATE postings SET status = ?, notes = ? WHERE id = ?;`, string(status), notes, id)
	} else {
		_, err = t.db.Pool.ExecContext(ctx,
			`UPDATE postings SET status = ? WHERE id = ?;`, string(status), id)
	}
	if err != nil {
		return unavailable(err, "update status")
	}

	t.db.log.Info("status updated",
		zap.String("tracker", t.info.ID),
		zap.Int64("row", row),
		zap.String("status", string(status)),
	)
	return nil
}

// SetDates records the human-entered application and follow-up dates for a
// row. Empty arguments leave the stored value unchanged.
func (t *Tracker) SetDates(ctx context.Context, row int64, applied, followUp string) error {
	all, err := t.QueryAll(ctx)
	if err != nil {
		return err
	}
	if row < 1 || int(row) > len(all) {
		return errors.Wrapf(ErrRowNotFound, "row %d", row)
	}
	r := all[row-1]
	if applied = strings.TrimSpace(applied); applied != "" {
		r.ApplicationDate = applied
	}
	if followUp = strings.TrimSpace(followUp); followUp != "" {
		r.FollowUpDate = followUp
	}

	_, err = t.db.Pool.ExecContext(ctx, `
UPDATE postings SET application_date = ?, follow_up_date = ?
WHERE tracker_id = ? AND url = ?;`, r.ApplicationDate, r.FollowUpDate, t.info.ID, r.URL)
	if err != nil {
		return unavailable(err, "update dates")
	}
	return nil
}
