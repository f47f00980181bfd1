package pgjourney

import (
	"context"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// ListJourneyEvents returns the timeline of a journey newest first, paged.
func (s *Storage) ListJourneyEvents(ctx context.Context, journeyID string, limit, offset int) ([]models.TimelineEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT id, journey_id, milestone, event_time, location, notes, created_by
FROM journey_events
WHERE journey_id = $1
ORDER BY event_time DESC, id
LIMIT $2 OFFSET $3
`, journeyID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	out := make([]models.TimelineEvent, 0)
	for rows.Next() {
		var e models.TimelineEvent
		if err := rows.Scan(&e.ID, &e.JourneyID, &e.Milestone, &e.Timestamp, &e.Location, &e.Notes, &e.CreatedBy); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		e.Documents = []string{}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	rows.Close()
	// пустой таймлайн и неизвестная журни различаются
	if len(out) == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM journeys WHERE id = $1)`, journeyID).Scan(&exists); err != nil {
			return nil, errors.Wrap(err, "check journey")
		}
		if !exists {
			return nil, errors.Wrapf(models.ErrNotFound, "journey %s", journeyID)
		}
	}
	return out, nil
}

// insertEvents дописывает события таймлайна; уже записанные пропускаются.
func insertEvents(ctx context.Context, tx pgx.Tx, j models.Journey) error {
	for _, e := range j.Timeline {
		_, err := tx.Exec(ctx, `
INSERT INTO journey_events (
  id, journey_id, milestone, event_time, location, notes, created_by, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7, now())
ON CONFLICT (journey_id, id) DO NOTHING
`, e.ID, j.ID, e.Milestone, e.Timestamp.UTC(), e.Location, e.Notes, e.CreatedBy)
		if err != nil {
			return errors.Wrap(err, "insert journey event")
		}
	}
	return nil
}
