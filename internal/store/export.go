package store

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/cockroachdb/errors"
)

// ExportCSV writes the tracker header followed by every row.
func (t *Tracker) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := t.QueryAll(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	hdr := t.info.Header
	if len(hdr) == 0 {
		hdr = Columns
	}
	if err := cw.Write(hdr); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range rows {
		rec := []string{
			r.Title, r.Company, r.Location, r.JobType, r.ExperienceLevel, r.PostedDate,
			r.URL, r.Description, r.Status.Display(), r.ApplicationDate, r.FollowUpDate, r.Notes,
			r.ExtractedDate(),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
