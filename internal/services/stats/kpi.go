package stats

import (
	"time"

	"github.com/pkg/errors"
)

type Polarity string

const (
	HigherIsBetter Polarity = "higher_is_better"
	LowerIsBetter  Polarity = "lower_is_better"
)

const (
	MetricTotalJourneys   = "totalJourneys"
	MetricOnTimeDelivery  = "onTimeDelivery"
	MetricAverageDuration = "averageDuration"
	MetricActiveAlerts    = "activeAlerts"
)

// Definitions maps a metric to its business polarity. Comes from config.
type Definitions map[string]Polarity

func DefaultDefinitions() Definitions {
	return Definitions{
		MetricTotalJourneys:   HigherIsBetter,
		MetricOnTimeDelivery:  HigherIsBetter,
		MetricAverageDuration: LowerIsBetter,
		MetricActiveAlerts:    LowerIsBetter,
	}
}

// ParseDefinitions merges overrides (metric -> "higher_is_better"/"lower_is_better")
// on top of the defaults.
func ParseDefinitions(overrides map[string]string) (Definitions, error) {
	defs := DefaultDefinitions()
	for metric, p := range overrides {
		switch Polarity(p) {
		case HigherIsBetter, LowerIsBetter:
			defs[metric] = Polarity(p)
		default:
			return nil, errors.Errorf("metric %s: unknown polarity %q", metric, p)
		}
	}
	return defs, nil
}

func (d Definitions) polarity(metric string) Polarity {
	if p, ok := d[metric]; ok {
		return p
	}
	return HigherIsBetter
}

type KPI struct {
	Value    float64  `json:"value"`
	Trend    float64  `json:"trend"`
	Polarity Polarity `json:"polarity"`
}

// Improved says whether the trend moves in the good direction for this metric.
func (k KPI) Improved() bool {
	if k.Polarity == LowerIsBetter {
		return k.Trend < 0
	}
	return k.Trend > 0
}

type KPIs struct {
	TotalJourneys   KPI `json:"totalJourneys"`
	OnTimeDelivery  KPI `json:"onTimeDelivery"`
	AverageDuration KPI `json:"averageDuration"`
	ActiveAlerts    KPI `json:"activeAlerts"`
}

// Snapshot — значения KPI на момент TakenAt; хранится как база для трендов.
type Snapshot struct {
	TotalJourneys   float64   `json:"totalJourneys"`
	OnTimeDelivery  float64   `json:"onTimeDelivery"`
	AverageDuration float64   `json:"averageDuration"`
	ActiveAlerts    float64   `json:"activeAlerts"`
	TakenAt         time.Time `json:"takenAt"`
}

func SnapshotOf(st Statistics, at time.Time) Snapshot {
	return Snapshot{
		TotalJourneys:   float64(st.TotalJourneys),
		OnTimeDelivery:  st.OnTimePercentage,
		AverageDuration: st.AverageDuration,
		ActiveAlerts:    float64(st.ActiveAlerts),
		TakenAt:         at,
	}
}

// ComputeKPIs wraps statistics into value/trend pairs. Trend is the fractional change
// against baseline; without a baseline every trend is 0.
func ComputeKPIs(st Statistics, baseline *Snapshot, defs Definitions) KPIs {
	if defs == nil {
		defs = DefaultDefinitions()
	}
	cur := SnapshotOf(st, time.Time{})
	var prev Snapshot
	if baseline != nil {
		prev = *baseline
	}
	return KPIs{
		TotalJourneys:   KPI{Value: cur.TotalJourneys, Trend: Trend(cur.TotalJourneys, prev.TotalJourneys), Polarity: defs.polarity(MetricTotalJourneys)},
		OnTimeDelivery:  KPI{Value: cur.OnTimeDelivery, Trend: Trend(cur.OnTimeDelivery, prev.OnTimeDelivery), Polarity: defs.polarity(MetricOnTimeDelivery)},
		AverageDuration: KPI{Value: cur.AverageDuration, Trend: Trend(cur.AverageDuration, prev.AverageDuration), Polarity: defs.polarity(MetricAverageDuration)},
		ActiveAlerts:    KPI{Value: cur.ActiveAlerts, Trend: Trend(cur.ActiveAlerts, prev.ActiveAlerts), Polarity: defs.polarity(MetricActiveAlerts)},
	}
}

// Trend is (cur-prev)/prev, 0 when prev is 0.
func Trend(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev
}
