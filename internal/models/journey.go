package models

import "time"

type Location struct {
	Location      string `json:"location"`
	Company       string `json:"company"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	ContactPerson string `json:"contactPerson"`
	ContactNumber string `json:"contactNumber"`
	BranchID      string `json:"branchId"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type LoadDetails struct {
	Weight       float64 `json:"weight"`
	Volume       float64 `json:"volume"`
	PackageCount int     `json:"packageCount"`
	Material     string  `json:"material"`
	Value        float64 `json:"value"`
}

type InvoiceDetails struct {
	Number string     `json:"number"`
	Date   *time.Time `json:"date,omitempty"`
	Amount float64    `json:"amount"`
	Tax    float64    `json:"tax"`
	Total  float64    `json:"total"`
}

// Journey — одна перевозка от точки погрузки до точки выгрузки.
// Документы, таймлайн, алерты и остановки принадлежат журни и живут вместе с ним.
type Journey struct {
	ID             string         `json:"id"`
	TripID         string         `json:"tripId"`
	Type           JourneyType    `json:"type"`
	CreationMethod CreationMethod `json:"creationMethod"`
	Status         JourneyStatus  `json:"status"`

	From Location `json:"from"`
	To   Location `json:"to"`

	VehicleInfo   string        `json:"vehicleInfo"`
	VehicleNumber string        `json:"vehicleNumber"`
	DriverName    string        `json:"driverName"`
	DriverPhone   string        `json:"driverPhone"`
	TrackingType  TrackingType  `json:"trackingType"`
	ConsentStatus ConsentStatus `json:"consentStatus"`

	ExpectedDeparture *time.Time `json:"expectedDeparture,omitempty"`
	ActualDeparture   *time.Time `json:"actualDeparture,omitempty"`
	ExpectedArrival   *time.Time `json:"expectedArrival,omitempty"`
	ActualArrival     *time.Time `json:"actualArrival,omitempty"`
	ETA               *time.Time `json:"eta,omitempty"`
	Distance          float64    `json:"distance"`
	CurrentLocation   GeoPoint   `json:"currentLocation"`

	IsDelayed  bool   `json:"isDelayed"`
	DelayTime  string `json:"delayTime"`
	StatusText string `json:"statusText"`

	LoadDetails    LoadDetails    `json:"loadDetails"`
	InvoiceDetails InvoiceDetails `json:"invoiceDetails"`

	PODStatus          PODStatus  `json:"podStatus"`
	PODSubmittedAt     *time.Time `json:"podSubmittedAt,omitempty"`
	PODApprovedAt      *time.Time `json:"podApprovedAt,omitempty"`
	PODRejectedAt      *time.Time `json:"podRejectedAt,omitempty"`
	PODRejectionReason string     `json:"podRejectionReason"`

	Documents []Document      `json:"documents"`
	Timeline  []TimelineEvent `json:"timeline"`
	Alerts    []Alert         `json:"alerts"`
	Stops     []Stop          `json:"stops"`

	SourceBranch         string   `json:"sourceBranch"`
	DestinationBranch    string   `json:"destinationBranch"`
	IntermediateBranches []string `json:"intermediateBranches"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Alert struct {
	ID              string        `json:"id"`
	JourneyID       string        `json:"journeyId"`
	Type            AlertType     `json:"type"`
	Severity        AlertSeverity `json:"severity"`
	Message         string        `json:"message"`
	Timestamp       time.Time     `json:"timestamp"`
	Location        string        `json:"location"`
	IsResolved      bool          `json:"isResolved"`
	ResolvedAt      *time.Time    `json:"resolvedAt,omitempty"`
	ResolutionNotes string        `json:"resolutionNotes"`
	TicketID        *string       `json:"ticketId,omitempty"`
}

// TimelineEvent никогда не редактируется и не удаляется.
type TimelineEvent struct {
	ID        string    `json:"id"`
	JourneyID string    `json:"journeyId"`
	Milestone string    `json:"milestone"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
	Documents []string  `json:"documents"`
	CreatedBy string    `json:"createdBy"`
}

type Stop struct {
	ID                string     `json:"id"`
	JourneyID         string     `json:"journeyId"`
	Type              StopType   `json:"type"`
	Location          string     `json:"location"`
	Address           string     `json:"address"`
	City              string     `json:"city"`
	State             string     `json:"state"`
	Pincode           string     `json:"pincode"`
	ExpectedArrival   *time.Time `json:"expectedArrival,omitempty"`
	ActualArrival     *time.Time `json:"actualArrival,omitempty"`
	ExpectedDeparture *time.Time `json:"expectedDeparture,omitempty"`
	ActualDeparture   *time.Time `json:"actualDeparture,omitempty"`
	Status            StopStatus `json:"status"`
	Notes             string     `json:"notes"`
	Documents         []string   `json:"documents"`
}

type Document struct {
	ID         string            `json:"id"`
	JourneyID  string            `json:"journeyId"`
	Type       string            `json:"type"`
	Name       string            `json:"name"`
	URL        string            `json:"url"`
	MimeType   string            `json:"mimeType"`
	Size       int64             `json:"size"`
	UploadedAt time.Time         `json:"uploadedAt"`
	UploadedBy string            `json:"uploadedBy"`
	Metadata   map[string]string `json:"metadata"`
}

// JourneyCreateInput — всё, что нужно для "create journey". Остальное заполняется по умолчанию.
type JourneyCreateInput struct {
	TripID               string         `json:"tripId" validate:"required,max=64"`
	Type                 string         `json:"type" validate:"omitempty,oneof=FTL PTL ftl ptl"`
	CreationMethod       string         `json:"creationMethod" validate:"omitempty,oneof=UI EXCEL SAP INDENT"`
	From                 Location       `json:"from"`
	To                   Location       `json:"to"`
	VehicleInfo          string         `json:"vehicleInfo"`
	VehicleNumber        string         `json:"vehicleNumber" validate:"max=32"`
	DriverName           string         `json:"driverName"`
	DriverPhone          string         `json:"driverPhone"`
	TrackingType         string         `json:"trackingType" validate:"omitempty,oneof=SIM GPS MANUAL"`
	ExpectedDeparture    *time.Time     `json:"expectedDeparture"`
	ExpectedArrival      *time.Time     `json:"expectedArrival"`
	Distance             float64        `json:"distance" validate:"gte=0"`
	LoadDetails          LoadDetails    `json:"loadDetails"`
	InvoiceDetails       InvoiceDetails `json:"invoiceDetails"`
	Stops                []Stop         `json:"stops"`
	SourceBranch         string         `json:"sourceBranch"`
	DestinationBranch    string         `json:"destinationBranch"`
	IntermediateBranches []string       `json:"intermediateBranches"`
	CreatedBy            string         `json:"createdBy"`
}
