package messages

import (
	"encoding/json"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/pkg/errors"
)

// DecodeJourneyIngest разбирает сообщение из journey.ingest: это JSON журни
// в том же виде, что отдаёт API.
func DecodeJourneyIngest(value []byte) (models.Journey, error) {
	var j models.Journey
	if err := json.Unmarshal(value, &j); err != nil {
		return models.Journey{}, errors.Wrap(err, "decode journey")
	}
	if j.ID == "" {
		return models.Journey{}, errors.Wrap(models.ErrValidation, "journey id is required")
	}
	j.Normalize()
	return j, nil
}
