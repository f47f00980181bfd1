package lifecycle

import (
	"strings"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	MilestonePODSubmitted  = "pod-submitted"
	MilestonePODApproved   = "pod-approved"
	MilestonePODRejected   = "pod-rejected"
	MilestoneAlertResolved = "alert-resolved"
	MilestoneAlertRaised   = "alert-raised"
	milestoneStopPrefix    = "stop-"
)

// Engine применяет операции жизненного цикла. Каждая операция возвращает новую
// копию журни и добавляет ровно одно событие в таймлайн; вход не меняется.
type Engine struct {
	now   func() time.Time
	newID func() string
}

func New() *Engine {
	return &Engine{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// NewWithClock is for tests and replays.
func NewWithClock(now func() time.Time, newID func() string) *Engine {
	e := New()
	if now != nil {
		e.now = now
	}
	if newID != nil {
		e.newID = newID
	}
	return e
}

// StatusExtra — необязательные поля, которые приходят вместе со сменой статуса.
type StatusExtra struct {
	CurrentLocation *models.GeoPoint `json:"currentLocation,omitempty"`
	ETA             *time.Time       `json:"eta,omitempty"`
	ActualDeparture *time.Time       `json:"actualDeparture,omitempty"`
	ActualArrival   *time.Time       `json:"actualArrival,omitempty"`
	Location        string           `json:"location"`
	Notes           string           `json:"notes"`
	Actor           string           `json:"actor"`
}

func (e *Engine) UpdateStatus(j models.Journey, to models.JourneyStatus, extra StatusExtra) (models.Journey, error) {
	to = models.ParseJourneyStatus(string(to))
	if !CanTransition(j.Status, to) {
		return j, errors.Wrapf(models.ErrInvalidTransition, "%s -> %s", j.Status, to)
	}

	now := e.now()
	out := j.Clone()
	out.Status = to
	out.StatusText = to.Label()

	if extra.CurrentLocation != nil {
		out.CurrentLocation = *extra.CurrentLocation
	}
	if extra.ETA != nil {
		out.ETA = models.TimePtr(*extra.ETA)
	}
	if extra.ActualDeparture != nil {
		out.ActualDeparture = models.TimePtr(*extra.ActualDeparture)
	}
	if extra.ActualArrival != nil {
		out.ActualArrival = models.TimePtr(*extra.ActualArrival)
	}
	switch to {
	case models.StatusInTransit:
		if out.ActualDeparture == nil {
			out.ActualDeparture = models.TimePtr(now)
		}
	case models.StatusDelivered:
		if out.ActualArrival == nil {
			out.ActualArrival = models.TimePtr(now)
		}
		out.IsDelayed = false
		out.DelayTime = ""
	}

	e.appendEvent(&out, string(to), now, extra.Location, extra.Notes, nil, extra.Actor)
	return out, nil
}

// SubmitPOD is allowed in any POD state; a rejected POD can be resubmitted.
func (e *Engine) SubmitPOD(j models.Journey, docs []models.Document, notes, actor string) (models.Journey, error) {
	now := e.now()
	out := j.Clone()
	out.PODStatus = models.PODSubmitted
	out.PODSubmittedAt = models.TimePtr(now)
	out.PODRejectionReason = ""

	docIDs := make([]string, 0, len(docs))
	for _, src := range docs {
		d := src.Clone()
		if d.ID == "" {
			d.ID = e.newID()
		}
		d.JourneyID = out.ID
		if d.Type == "" {
			d.Type = "pod"
		}
		if d.UploadedAt.IsZero() {
			d.UploadedAt = now
		}
		if d.UploadedBy == "" {
			d.UploadedBy = actor
		}
		if d.Metadata == nil {
			d.Metadata = map[string]string{}
		}
		out.Documents = append(out.Documents, d)
		docIDs = append(docIDs, d.ID)
	}

	e.appendEvent(&out, MilestonePODSubmitted, now, "", notes, docIDs, actor)
	return out, nil
}

func (e *Engine) ApprovePOD(j models.Journey, notes, actor string) (models.Journey, error) {
	if j.PODStatus != models.PODSubmitted {
		return j, errors.Wrapf(models.ErrInvalidState, "approve pod: pod status is %s", j.PODStatus)
	}
	now := e.now()
	out := j.Clone()
	out.PODStatus = models.PODApproved
	out.PODApprovedAt = models.TimePtr(now)

	e.appendEvent(&out, MilestonePODApproved, now, "", notes, nil, actor)
	return out, nil
}

func (e *Engine) RejectPOD(j models.Journey, reason, actor string) (models.Journey, error) {
	if j.PODStatus != models.PODSubmitted {
		return j, errors.Wrapf(models.ErrInvalidState, "reject pod: pod status is %s", j.PODStatus)
	}
	now := e.now()
	out := j.Clone()
	out.PODStatus = models.PODRejected
	out.PODRejectedAt = models.TimePtr(now)
	out.PODRejectionReason = reason

	e.appendEvent(&out, MilestonePODRejected, now, "", reason, nil, actor)
	return out, nil
}

// ResolveAlert marks the alert resolved. Повторное разрешение перезаписывает resolvedAt и заметки.
func (e *Engine) ResolveAlert(j models.Journey, alertID, notes, actor string) (models.Journey, error) {
	idx := -1
	for i := range j.Alerts {
		if j.Alerts[i].ID == alertID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return j, errors.Wrapf(models.ErrNotFound, "alert %s", alertID)
	}

	now := e.now()
	out := j.Clone()
	a := &out.Alerts[idx]
	resolvedAt := now
	if a.Timestamp.After(resolvedAt) {
		resolvedAt = a.Timestamp
	}
	a.IsResolved = true
	a.ResolvedAt = models.TimePtr(resolvedAt)
	a.ResolutionNotes = notes

	e.appendEvent(&out, MilestoneAlertResolved, now, a.Location, notes, nil, actor)
	return out, nil
}

// RaiseAlert appends a new alert. Missing id, timestamp and severity are filled in.
func (e *Engine) RaiseAlert(j models.Journey, a models.Alert, actor string) (models.Journey, error) {
	a.Type = models.ParseAlertType(string(a.Type))
	if !a.Type.Known() {
		return j, errors.Wrapf(models.ErrValidation, "alert type %q", a.Type)
	}
	now := e.now()
	out := j.Clone()
	if a.ID == "" {
		a.ID = e.newID()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = now
	}
	a.JourneyID = out.ID
	a.Severity = models.ParseAlertSeverity(string(a.Severity))
	a.IsResolved = false
	a.ResolvedAt = nil
	out.Alerts = append(out.Alerts, a)

	e.appendEvent(&out, MilestoneAlertRaised, now, a.Location, a.Message, nil, actor)
	return out, nil
}

// CompleteStop closes a PTL stop as completed or skipped.
func (e *Engine) CompleteStop(j models.Journey, stopID string, status models.StopStatus, notes, actor string) (models.Journey, error) {
	if status != models.StopCompleted && status != models.StopSkipped {
		return j, errors.Wrapf(models.ErrValidation, "stop status %q", status)
	}
	idx := -1
	for i := range j.Stops {
		if j.Stops[i].ID == stopID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return j, errors.Wrapf(models.ErrNotFound, "stop %s", stopID)
	}

	now := e.now()
	out := j.Clone()
	s := &out.Stops[idx]
	s.Status = status
	if notes != "" {
		s.Notes = notes
	}
	if status == models.StopCompleted {
		if s.ActualArrival == nil {
			s.ActualArrival = models.TimePtr(now)
		}
		s.ActualDeparture = models.TimePtr(now)
	}

	milestone := milestoneStopPrefix + strings.ToLower(string(status))
	e.appendEvent(&out, milestone, now, s.Location, notes, nil, actor)
	return out, nil
}

func (e *Engine) appendEvent(j *models.Journey, milestone string, at time.Time, location, notes string, docs []string, actor string) {
	if docs == nil {
		docs = []string{}
	}
	j.Timeline = append(j.Timeline, models.TimelineEvent{
		ID:        e.newID(),
		JourneyID: j.ID,
		Milestone: milestone,
		Timestamp: at,
		Location:  location,
		Notes:     notes,
		Documents: docs,
		CreatedBy: actor,
	})
	j.UpdatedAt = at
}
