package monitor

import (
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
)

type PolicyConfig struct {
	// Grace — опоздание меньше grace не считается задержкой. default: 0
	Grace time.Duration

	MediumAfter   time.Duration // default: 1 hour
	HighAfter     time.Duration // default: 4 hours
	CriticalAfter time.Duration // default: 12 hours
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MediumAfter:   1 * time.Hour,
		HighAfter:     4 * time.Hour,
		CriticalAfter: 12 * time.Hour,
	}
}

// Policy решает, опаздывает ли журни и насколько серьёзен алерт.
type Policy struct {
	cfg PolicyConfig
}

func NewPolicy(cfg PolicyConfig) *Policy {
	def := DefaultPolicyConfig()
	if cfg.Grace < 0 {
		cfg.Grace = 0
	}
	if cfg.MediumAfter <= 0 {
		cfg.MediumAfter = def.MediumAfter
	}
	if cfg.HighAfter <= 0 {
		cfg.HighAfter = def.HighAfter
	}
	if cfg.HighAfter < cfg.MediumAfter {
		cfg.HighAfter = cfg.MediumAfter
	}
	if cfg.CriticalAfter <= 0 {
		cfg.CriticalAfter = def.CriticalAfter
	}
	if cfg.CriticalAfter < cfg.HighAfter {
		cfg.CriticalAfter = cfg.HighAfter
	}
	return &Policy{cfg: cfg}
}

// Deadline is the eta when known, otherwise the planned arrival.
func (p *Policy) Deadline(j *models.Journey) *time.Time {
	if j.ETA != nil {
		return j.ETA
	}
	return j.ExpectedArrival
}

// Delay returns how late the journey is at now. ok is false when there is nothing to
// compare against: no deadline, or the journey is already delivered.
func (p *Policy) Delay(j *models.Journey, now time.Time) (d time.Duration, ok bool) {
	if j.Status == models.StatusDelivered {
		return 0, false
	}
	deadline := p.Deadline(j)
	if deadline == nil {
		return 0, false
	}
	d = now.Sub(*deadline)
	if d <= p.cfg.Grace {
		return 0, true
	}
	return d, true
}

func (p *Policy) Severity(d time.Duration) models.AlertSeverity {
	switch {
	case d < p.cfg.MediumAfter:
		return models.SeverityLow
	case d < p.cfg.HighAfter:
		return models.SeverityMedium
	case d < p.cfg.CriticalAfter:
		return models.SeverityHigh
	default:
		return models.SeverityCritical
	}
}
