package models

import (
	"fmt"
	"time"
)

func (j *Journey) CurrentMilestone() JourneyStatus { return j.Status }

func (j *Journey) IsOnTime() bool { return !j.IsDelayed }

// Duration — плановая длительность в часах (дробная). 0, если нет одного из концов.
func (j *Journey) Duration() float64 {
	if !j.HasPlannedWindow() {
		return 0
	}
	return j.ExpectedArrival.Sub(*j.ExpectedDeparture).Hours()
}

func (j *Journey) HasPlannedWindow() bool {
	return j.ExpectedDeparture != nil && j.ExpectedArrival != nil
}

// ProgressPercentage maps the status onto [0,100]; unknown statuses give 0.
func (j *Journey) ProgressPercentage() float64 {
	idx := j.Status.Index()
	if idx < 0 {
		return 0
	}
	return float64(idx) / float64(len(StatusFlow)-1) * 100
}

// NextMilestone returns the status following the current one or MilestoneNone.
func (j *Journey) NextMilestone() string {
	idx := j.Status.Index()
	if idx < 0 || idx == len(StatusFlow)-1 {
		return MilestoneNone
	}
	return string(StatusFlow[idx+1])
}

func (j *Journey) HasAlerts() bool { return len(j.Alerts) > 0 }

func (j *Journey) CriticalAlerts() []Alert {
	out := make([]Alert, 0)
	for _, a := range j.Alerts {
		if a.Severity == SeverityCritical {
			out = append(out, a)
		}
	}
	return out
}

// ActiveAlerts — неразрешённые алерты.
func (j *Journey) ActiveAlerts() []Alert {
	out := make([]Alert, 0)
	for _, a := range j.Alerts {
		if !a.IsResolved {
			out = append(out, a)
		}
	}
	return out
}

// FormatDelay renders a delay as "1d 3h", "2h 15m" or "45m".
func FormatDelay(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	mins := int64(d.Minutes())
	days := mins / (24 * 60)
	hours := (mins % (24 * 60)) / 60
	rest := mins % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, rest)
	default:
		return fmt.Sprintf("%dm", rest)
	}
}
