package models

import "strings"

// Все перечисления — строковые типы. Пустое значение превращается в значение по умолчанию,
// неизвестное сохраняется как есть и отвечает Known() == false.

type JourneyStatus string

const (
	StatusPlanned          JourneyStatus = "PLANNED"
	StatusEnRouteToLoading JourneyStatus = "EN_ROUTE_TO_LOADING"
	StatusAtLoading        JourneyStatus = "AT_LOADING"
	StatusInTransit        JourneyStatus = "IN_TRANSIT"
	StatusAtUnloading      JourneyStatus = "AT_UNLOADING"
	StatusInReturn         JourneyStatus = "IN_RETURN"
	StatusDelivered        JourneyStatus = "DELIVERED"
)

// MilestoneNone is returned by NextMilestone for terminal or unrecognized statuses.
const MilestoneNone = "none"

// StatusFlow is the canonical order of journey statuses.
var StatusFlow = []JourneyStatus{
	StatusPlanned,
	StatusEnRouteToLoading,
	StatusAtLoading,
	StatusInTransit,
	StatusAtUnloading,
	StatusInReturn,
	StatusDelivered,
}

var statusLabels = map[JourneyStatus]string{
	StatusPlanned:          "Planned",
	StatusEnRouteToLoading: "En route to loading",
	StatusAtLoading:        "At loading",
	StatusInTransit:        "In transit",
	StatusAtUnloading:      "At unloading",
	StatusInReturn:         "In return",
	StatusDelivered:        "Delivered",
}

func ParseJourneyStatus(s string) JourneyStatus {
	return parseEnum(s, StatusPlanned, StatusFlow)
}

func (s JourneyStatus) Known() bool { return s.Index() >= 0 }

// Index returns the position of s in StatusFlow or -1.
func (s JourneyStatus) Index() int {
	for i, v := range StatusFlow {
		if v == s {
			return i
		}
	}
	return -1
}

// Label is the human readable status text. Unknown statuses render as-is.
func (s JourneyStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type JourneyType string

const (
	JourneyTypeFTL JourneyType = "FTL"
	JourneyTypePTL JourneyType = "PTL"
)

var JourneyTypes = []JourneyType{JourneyTypeFTL, JourneyTypePTL}

func ParseJourneyType(s string) JourneyType { return parseEnum(s, JourneyTypeFTL, JourneyTypes) }
func (t JourneyType) Known() bool { return isKnown(t, JourneyTypes) }

type CreationMethod string

const (
	CreationMethodUI     CreationMethod = "UI"
	CreationMethodExcel  CreationMethod = "EXCEL"
	CreationMethodSAP    CreationMethod = "SAP"
	CreationMethodIndent CreationMethod = "INDENT"
)

var CreationMethods = []CreationMethod{CreationMethodUI, CreationMethodExcel, CreationMethodSAP, CreationMethodIndent}

func ParseCreationMethod(s string) CreationMethod {
	return parseEnum(s, CreationMethodUI, CreationMethods)
}
func (m CreationMethod) Known() bool { return isKnown(m, CreationMethods) }

type TrackingType string

const (
	TrackingTypeSIM    TrackingType = "SIM"
	TrackingTypeGPS    TrackingType = "GPS"
	TrackingTypeManual TrackingType = "MANUAL"
)

var TrackingTypes = []TrackingType{TrackingTypeSIM, TrackingTypeGPS, TrackingTypeManual}

func ParseTrackingType(s string) TrackingType { return parseEnum(s, TrackingTypeSIM, TrackingTypes) }
func (t TrackingType) Known() bool { return isKnown(t, TrackingTypes) }

type ConsentStatus string

const (
	ConsentPending  ConsentStatus = "PENDING"
	ConsentApproved ConsentStatus = "APPROVED"
	ConsentRejected ConsentStatus = "REJECTED"
)

var ConsentStatuses = []ConsentStatus{ConsentPending, ConsentApproved, ConsentRejected}

func ParseConsentStatus(s string) ConsentStatus {
	return parseEnum(s, ConsentPending, ConsentStatuses)
}
func (c ConsentStatus) Known() bool { return isKnown(c, ConsentStatuses) }

type PODStatus string

const (
	PODPending   PODStatus = "PENDING"
	PODSubmitted PODStatus = "SUBMITTED"
	PODApproved  PODStatus = "APPROVED"
	PODRejected  PODStatus = "REJECTED"
)

var PODStatuses = []PODStatus{PODPending, PODSubmitted, PODApproved, PODRejected}

func ParsePODStatus(s string) PODStatus { return parseEnum(s, PODPending, PODStatuses) }
func (p PODStatus) Known() bool { return isKnown(p, PODStatuses) }

type AlertType string

const (
	AlertDelay          AlertType = "DELAY"
	AlertDiversion      AlertType = "DIVERSION"
	AlertLongStoppage   AlertType = "LONG_STOPPAGE"
	AlertSOS            AlertType = "SOS"
	AlertGeofenceBreach AlertType = "GEOFENCE_BREACH"
)

var AlertTypes = []AlertType{AlertDelay, AlertDiversion, AlertLongStoppage, AlertSOS, AlertGeofenceBreach}

func ParseAlertType(s string) AlertType { return parseEnum(s, AlertDelay, AlertTypes) }
func (a AlertType) Known() bool { return isKnown(a, AlertTypes) }

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "LOW"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

var AlertSeverities = []AlertSeverity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func ParseAlertSeverity(s string) AlertSeverity {
	return parseEnum(s, SeverityLow, AlertSeverities)
}
func (s AlertSeverity) Known() bool { return isKnown(s, AlertSeverities) }

type StopType string

const (
	StopPickup   StopType = "pickup"
	StopDelivery StopType = "delivery"
)

var StopTypes = []StopType{StopPickup, StopDelivery}

func ParseStopType(s string) StopType { return parseEnum(s, StopPickup, StopTypes) }
func (t StopType) Known() bool { return isKnown(t, StopTypes) }

type StopStatus string

const (
	StopPending   StopStatus = "pending"
	StopCompleted StopStatus = "completed"
	StopSkipped   StopStatus = "skipped"
)

var StopStatuses = []StopStatus{StopPending, StopCompleted, StopSkipped}

func ParseStopStatus(s string) StopStatus { return parseEnum(s, StopPending, StopStatuses) }
func (s StopStatus) Known() bool { return isKnown(s, StopStatuses) }

func parseEnum[T ~string](raw string, def T, known []T) T {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	for _, v := range known {
		if strings.EqualFold(string(v), raw) {
			return v
		}
	}
	return T(raw)
}

func isKnown[T ~string](v T, known []T) bool {
	for _, k := range known {
		if k == v {
			return true
		}
	}
	return false
}
