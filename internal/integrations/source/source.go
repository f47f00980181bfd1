package source

import (
	"context"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
)

// Source отдаёт готовые журни (импорт, демо-данные). Формат — models.Journey.
type Source interface {
	Journeys(ctx context.Context) ([]models.Journey, error)
}
