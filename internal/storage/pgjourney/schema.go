package pgjourney

import (
	"context"

	"github.com/pkg/errors"
)

// Журни хранится целиком в doc (JSONB); колонки рядом нужны только для
// фильтров, CAS и выборки воркером.
func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS journeys (
  id TEXT PRIMARY KEY,
  trip_id TEXT NOT NULL,
  type TEXT NOT NULL,
  status TEXT NOT NULL,
  source_branch TEXT NOT NULL DEFAULT '',
  destination_branch TEXT NOT NULL DEFAULT '',
  is_delayed BOOLEAN NOT NULL DEFAULT FALSE,
  doc JSONB NOT NULL,
  next_check_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_journeys_created_at ON journeys(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_journeys_next_check_at ON journeys(next_check_at) WHERE status <> 'DELIVERED'`,
		`CREATE INDEX IF NOT EXISTS idx_journeys_trip_id ON journeys(trip_id)`,
		`
CREATE TABLE IF NOT EXISTS journey_events (
  id TEXT NOT NULL,
  journey_id TEXT NOT NULL REFERENCES journeys(id) ON DELETE CASCADE,
  milestone TEXT NOT NULL,
  event_time TIMESTAMPTZ NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  created_by TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (journey_id, id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_journey_events_journey_id_event_time ON journey_events(journey_id, event_time DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
