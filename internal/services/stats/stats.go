package stats

import (
	"strings"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
)

type Statistics struct {
	TotalJourneys     int     `json:"totalJourneys"`
	CompletedJourneys int     `json:"completedJourneys"`
	InTransitJourneys int     `json:"inTransitJourneys"`
	DelayedJourneys   int     `json:"delayedJourneys"`
	OnTimePercentage  float64 `json:"onTimePercentage"`
	AverageDuration   float64 `json:"averageDuration"`

	JourneysByType   map[string]int `json:"journeysByType"`
	JourneysByStatus map[string]int `json:"journeysByStatus"`
	AlertsByType     map[string]int `json:"alertsByType"`

	ActiveAlerts     int            `json:"activeAlerts"`
	PODPending       int            `json:"podPending"`
	JourneysByBranch map[string]int `json:"journeysByBranch"`
}

// Compute aggregates a (usually pre-filtered) collection. Pure, safe for concurrent use.
//
// journeysByType всегда содержит ftl и ptl; журни с неизвестным типом попадают
// в отдельный ключ (тип в нижнем регистре), чтобы сумма сходилась с totalJourneys.
func Compute(collection []models.Journey) Statistics {
	st := Statistics{
		TotalJourneys: len(collection),
		JourneysByType: map[string]int{
			typeKey(models.JourneyTypeFTL): 0,
			typeKey(models.JourneyTypePTL): 0,
		},
		JourneysByStatus: map[string]int{},
		AlertsByType:     map[string]int{},
		JourneysByBranch: map[string]int{},
	}

	var (
		durationSum float64
		durationN   int
	)
	for i := range collection {
		j := &collection[i]

		switch j.Status {
		case models.StatusDelivered:
			st.CompletedJourneys++
		case models.StatusInTransit:
			st.InTransitJourneys++
		}
		if j.IsDelayed {
			st.DelayedJourneys++
		}
		if j.PODStatus == models.PODSubmitted {
			st.PODPending++
		}
		if j.HasPlannedWindow() {
			durationSum += j.Duration()
			durationN++
		}

		st.JourneysByType[typeKey(j.Type)]++
		st.JourneysByStatus[string(j.Status)]++
		if j.SourceBranch != "" {
			st.JourneysByBranch[j.SourceBranch]++
		}

		for _, a := range j.Alerts {
			st.AlertsByType[string(a.Type)]++
			if !a.IsResolved {
				st.ActiveAlerts++
			}
		}
	}

	if st.TotalJourneys > 0 {
		st.OnTimePercentage = float64(st.TotalJourneys-st.DelayedJourneys) / float64(st.TotalJourneys) * 100
	}
	if durationN > 0 {
		st.AverageDuration = durationSum / float64(durationN)
	}
	return st
}

func typeKey(t models.JourneyType) string {
	return strings.ToLower(string(t))
}
