package models

import "time"

// Normalize заполняет всё, что не пришло во входных данных, значениями по умолчанию.
// После него ни одна коллекция не nil, а перечисления не пустые.
func (j *Journey) Normalize() {
	j.Type = ParseJourneyType(string(j.Type))
	j.CreationMethod = ParseCreationMethod(string(j.CreationMethod))
	j.Status = ParseJourneyStatus(string(j.Status))
	j.TrackingType = ParseTrackingType(string(j.TrackingType))
	j.ConsentStatus = ParseConsentStatus(string(j.ConsentStatus))
	j.PODStatus = ParsePODStatus(string(j.PODStatus))
	if j.StatusText == "" {
		j.StatusText = j.Status.Label()
	}

	if j.Documents == nil {
		j.Documents = []Document{}
	}
	if j.Timeline == nil {
		j.Timeline = []TimelineEvent{}
	}
	if j.Alerts == nil {
		j.Alerts = []Alert{}
	}
	if j.Stops == nil {
		j.Stops = []Stop{}
	}
	if j.IntermediateBranches == nil {
		j.IntermediateBranches = []string{}
	}

	for i := range j.Documents {
		normalizeDocument(&j.Documents[i], j.ID)
	}
	for i := range j.Timeline {
		e := &j.Timeline[i]
		if e.JourneyID == "" {
			e.JourneyID = j.ID
		}
		if e.Documents == nil {
			e.Documents = []string{}
		}
	}
	for i := range j.Alerts {
		a := &j.Alerts[i]
		if a.JourneyID == "" {
			a.JourneyID = j.ID
		}
		a.Type = ParseAlertType(string(a.Type))
		a.Severity = ParseAlertSeverity(string(a.Severity))
	}
	for i := range j.Stops {
		s := &j.Stops[i]
		if s.JourneyID == "" {
			s.JourneyID = j.ID
		}
		s.Type = ParseStopType(string(s.Type))
		s.Status = ParseStopStatus(string(s.Status))
		if s.Documents == nil {
			s.Documents = []string{}
		}
	}
}

func normalizeDocument(d *Document, journeyID string) {
	if d.JourneyID == "" {
		d.JourneyID = journeyID
	}
	if d.Metadata == nil {
		d.Metadata = map[string]string{}
	}
}

// NewJourney builds a normalized journey from create input.
func NewJourney(id string, in JourneyCreateInput, now time.Time) Journey {
	j := Journey{
		ID:                   id,
		TripID:               in.TripID,
		Type:                 JourneyType(in.Type),
		CreationMethod:       CreationMethod(in.CreationMethod),
		Status:               StatusPlanned,
		From:                 in.From,
		To:                   in.To,
		VehicleInfo:          in.VehicleInfo,
		VehicleNumber:        in.VehicleNumber,
		DriverName:           in.DriverName,
		DriverPhone:          in.DriverPhone,
		TrackingType:         TrackingType(in.TrackingType),
		ExpectedDeparture:    cloneTime(in.ExpectedDeparture),
		ExpectedArrival:      cloneTime(in.ExpectedArrival),
		ETA:                  cloneTime(in.ExpectedArrival),
		Distance:             in.Distance,
		LoadDetails:          in.LoadDetails,
		InvoiceDetails:       cloneInvoice(in.InvoiceDetails),
		SourceBranch:         in.SourceBranch,
		DestinationBranch:    in.DestinationBranch,
		IntermediateBranches: append([]string(nil), in.IntermediateBranches...),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for _, s := range in.Stops {
		j.Stops = append(j.Stops, cloneStop(s))
	}
	j.Normalize()
	return j
}

// Clone returns a deep copy; nothing in the result aliases j.
func (j *Journey) Clone() Journey {
	out := *j
	out.ExpectedDeparture = cloneTime(j.ExpectedDeparture)
	out.ActualDeparture = cloneTime(j.ActualDeparture)
	out.ExpectedArrival = cloneTime(j.ExpectedArrival)
	out.ActualArrival = cloneTime(j.ActualArrival)
	out.ETA = cloneTime(j.ETA)
	out.PODSubmittedAt = cloneTime(j.PODSubmittedAt)
	out.PODApprovedAt = cloneTime(j.PODApprovedAt)
	out.PODRejectedAt = cloneTime(j.PODRejectedAt)
	out.InvoiceDetails = cloneInvoice(j.InvoiceDetails)

	if j.Documents != nil {
		out.Documents = make([]Document, len(j.Documents))
		for i, d := range j.Documents {
			out.Documents[i] = cloneDocument(d)
		}
	}
	if j.Timeline != nil {
		out.Timeline = make([]TimelineEvent, len(j.Timeline))
		for i, e := range j.Timeline {
			e.Documents = cloneStrings(e.Documents)
			out.Timeline[i] = e
		}
	}
	if j.Alerts != nil {
		out.Alerts = make([]Alert, len(j.Alerts))
		for i, a := range j.Alerts {
			a.ResolvedAt = cloneTime(a.ResolvedAt)
			if a.TicketID != nil {
				t := *a.TicketID
				a.TicketID = &t
			}
			out.Alerts[i] = a
		}
	}
	if j.Stops != nil {
		out.Stops = make([]Stop, len(j.Stops))
		for i, s := range j.Stops {
			out.Stops[i] = cloneStop(s)
		}
	}
	out.IntermediateBranches = cloneStrings(j.IntermediateBranches)
	return out
}

// Clone returns a copy that shares no maps with d.
func (d Document) Clone() Document { return cloneDocument(d) }

func cloneDocument(d Document) Document {
	if d.Metadata != nil {
		m := make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			m[k] = v
		}
		d.Metadata = m
	}
	return d
}

func cloneStop(s Stop) Stop {
	s.ExpectedArrival = cloneTime(s.ExpectedArrival)
	s.ActualArrival = cloneTime(s.ActualArrival)
	s.ExpectedDeparture = cloneTime(s.ExpectedDeparture)
	s.ActualDeparture = cloneTime(s.ActualDeparture)
	s.Documents = cloneStrings(s.Documents)
	return s
}

func cloneInvoice(inv InvoiceDetails) InvoiceDetails {
	inv.Date = cloneTime(inv.Date)
	return inv
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// TimePtr is a small helper for optional timestamps.
func TimePtr(t time.Time) *time.Time { return &t }
