package messages

import (
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
)

const (
	KindCreated  = "created"
	KindUpdated  = "updated"
	KindIngested = "ingested"
)

// JourneyUpdated уходит в топик journey.updated после каждой успешной записи.
// Ключ сообщения — journey_id.
type JourneyUpdated struct {
	Kind      string    `json:"kind"`
	JourneyID string    `json:"journey_id"`
	Status    string    `json:"status"`
	PODStatus string    `json:"pod_status"`
	IsDelayed bool      `json:"is_delayed"`
	Milestone string    `json:"milestone,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	Journey models.Journey `json:"journey"`
}

func NewJourneyUpdated(kind string, j models.Journey) JourneyUpdated {
	msg := JourneyUpdated{
		Kind:      kind,
		JourneyID: j.ID,
		Status:    string(j.Status),
		PODStatus: string(j.PODStatus),
		IsDelayed: j.IsDelayed,
		UpdatedAt: j.UpdatedAt,
		Journey:   j,
	}
	if n := len(j.Timeline); n > 0 {
		msg.Milestone = j.Timeline[n-1].Milestone
	}
	return msg
}
