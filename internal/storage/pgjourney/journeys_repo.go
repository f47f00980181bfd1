package pgjourney

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const selectJourney = `SELECT doc FROM journeys`

// CreateJourney inserts a new journey. Повторный id даёт ErrConflict.
func (s *Storage) CreateJourney(ctx context.Context, j models.Journey) error {
	doc, err := json.Marshal(j)
	if err != nil {
		return errors.Wrap(err, "marshal journey")
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
INSERT INTO journeys (
  id, trip_id, type, status, source_branch, destination_branch, is_delayed,
  doc, next_check_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9,$10)
ON CONFLICT (id) DO NOTHING
`, j.ID, j.TripID, string(j.Type), string(j.Status), j.SourceBranch, j.DestinationBranch, j.IsDelayed,
		doc, j.CreatedAt.UTC(), j.UpdatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "insert journey")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(models.ErrConflict, "journey %s already exists", j.ID)
	}

	if err := insertEvents(ctx, tx, j); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func (s *Storage) GetJourney(ctx context.Context, id string) (models.Journey, error) {
	row := s.db.QueryRow(ctx, selectJourney+` WHERE id = $1`, id)
	j, err := scanJourney(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Journey{}, errors.Wrapf(models.ErrNotFound, "journey %s", id)
	}
	if err != nil {
		return models.Journey{}, errors.Wrap(err, "select journey")
	}
	return j, nil
}

// ListJourneys returns the whole collection, newest first.
func (s *Storage) ListJourneys(ctx context.Context) ([]models.Journey, error) {
	rows, err := s.db.Query(ctx, selectJourney+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "select journeys")
	}
	defer rows.Close()

	out := make([]models.Journey, 0)
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan journey")
		}
		out = append(out, j)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// SaveJourney пишет журни, только если в базе всё ещё лежит версия с prevUpdatedAt.
// Иначе ErrConflict (или ErrNotFound, если журни нет вовсе).
func (s *Storage) SaveJourney(ctx context.Context, j models.Journey, prevUpdatedAt time.Time) error {
	doc, err := json.Marshal(j)
	if err != nil {
		return errors.Wrap(err, "marshal journey")
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE journeys
SET
  trip_id = $3,
  type = $4,
  status = $5,
  source_branch = $6,
  destination_branch = $7,
  is_delayed = $8,
  doc = $9,
  updated_at = $10
WHERE id = $1 AND updated_at = $2
`, j.ID, pgTime(prevUpdatedAt), j.TripID, string(j.Type), string(j.Status), j.SourceBranch, j.DestinationBranch,
		j.IsDelayed, doc, j.UpdatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "update journey")
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM journeys WHERE id = $1)`, j.ID).Scan(&exists); err != nil {
			return errors.Wrap(err, "check journey")
		}
		if !exists {
			return errors.Wrapf(models.ErrNotFound, "journey %s", j.ID)
		}
		return errors.Wrapf(models.ErrConflict, "journey %s", j.ID)
	}

	if err := insertEvents(ctx, tx, j); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

// UpsertJourney is used by ingestion: last writer by updatedAt wins, older payloads are ignored.
func (s *Storage) UpsertJourney(ctx context.Context, j models.Journey) error {
	doc, err := json.Marshal(j)
	if err != nil {
		return errors.Wrap(err, "marshal journey")
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
INSERT INTO journeys (
  id, trip_id, type, status, source_branch, destination_branch, is_delayed,
  doc, next_check_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),$9,$10)
ON CONFLICT (id) DO UPDATE SET
  trip_id = EXCLUDED.trip_id,
  type = EXCLUDED.type,
  status = EXCLUDED.status,
  source_branch = EXCLUDED.source_branch,
  destination_branch = EXCLUDED.destination_branch,
  is_delayed = EXCLUDED.is_delayed,
  doc = EXCLUDED.doc,
  updated_at = EXCLUDED.updated_at
WHERE journeys.updated_at < EXCLUDED.updated_at
`, j.ID, j.TripID, string(j.Type), string(j.Status), j.SourceBranch, j.DestinationBranch, j.IsDelayed,
		doc, j.CreatedAt.UTC(), j.UpdatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "upsert journey")
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	if err := insertEvents(ctx, tx, j); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

// ClaimDueJourneys выбирает пачку активных журни, которые пора проверить на задержку,
// и сдвигает им next_check_at на lease, чтобы параллельный воркер их не взял.
// SELECT ... FOR UPDATE SKIP LOCKED.
func (s *Storage) ClaimDueJourneys(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]models.Journey, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, selectJourney+`
WHERE next_check_at <= $1
  AND status <> $2
ORDER BY next_check_at ASC
LIMIT $3
FOR UPDATE SKIP LOCKED
`, now.UTC(), string(models.StatusDelivered), limit)
	if err != nil {
		return nil, errors.Wrap(err, "select due journeys")
	}

	var picked []models.Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan due journey")
		}
		picked = append(picked, j)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	leaseUntil := now.UTC().Add(lease)
	for _, j := range picked {
		if _, err := tx.Exec(ctx, `UPDATE journeys SET next_check_at = $2 WHERE id = $1`, j.ID, leaseUntil); err != nil {
			return nil, errors.Wrap(err, "lease journey")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return picked, nil
}

func scanJourney(row pgx.Row) (models.Journey, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		return models.Journey{}, err
	}
	var j models.Journey
	if err := json.Unmarshal(doc, &j); err != nil {
		return models.Journey{}, errors.Wrap(err, "unmarshal journey")
	}
	j.Normalize()
	return j, nil
}

// pgTime приводит время к точности timestamptz (микросекунды).
func pgTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
