package lifecycle

import "github.com/chetanft/Summary-Dashboard-sub000/internal/models"

// transitions — разрешённые переходы статусов. DELIVERED терминальный.
var transitions = map[models.JourneyStatus][]models.JourneyStatus{
	models.StatusPlanned:          {models.StatusEnRouteToLoading},
	models.StatusEnRouteToLoading: {models.StatusAtLoading},
	models.StatusAtLoading:        {models.StatusInTransit},
	models.StatusInTransit:        {models.StatusAtUnloading},
	models.StatusAtUnloading:      {models.StatusInTransit, models.StatusInReturn, models.StatusDelivered},
	models.StatusInReturn:         {models.StatusDelivered},
	models.StatusDelivered:        nil,
}

// CanTransition reports whether from -> to is allowed. Unknown statuses on either side never are.
func CanTransition(from, to models.JourneyStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s models.JourneyStatus) []models.JourneyStatus {
	return append([]models.JourneyStatus(nil), transitions[s]...)
}
