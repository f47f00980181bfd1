package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
)

var places = []models.Location{
	{Location: "Mumbai, Maharashtra", City: "Mumbai", State: "Maharashtra", Pincode: "400001", BranchID: "BR-MUM", Company: "Westline Logistics"},
	{Location: "Pune, Maharashtra", City: "Pune", State: "Maharashtra", Pincode: "411001", BranchID: "BR-PUN", Company: "Deccan Freight"},
	{Location: "Delhi, Delhi", City: "Delhi", State: "Delhi", Pincode: "110001", BranchID: "BR-DEL", Company: "Capital Movers"},
	{Location: "Chennai, Tamil Nadu", City: "Chennai", State: "Tamil Nadu", Pincode: "600001", BranchID: "BR-CHE", Company: "Coromandel Cargo"},
	{Location: "Bengaluru, Karnataka", City: "Bengaluru", State: "Karnataka", Pincode: "560001", BranchID: "BR-BLR", Company: "Garden City Haulers"},
	{Location: "Kolkata, West Bengal", City: "Kolkata", State: "West Bengal", Pincode: "700001", BranchID: "BR-KOL", Company: "Hooghly Transport"},
}

var drivers = []string{"Ramesh Kumar", "Suresh Patil", "Anil Singh", "Vijay Rao", "Manoj Das", "Imran Shaikh"}

// Client — детерминированный генератор журни для демо и тестов.
// Одинаковые (seed, i) всегда дают одинаковую запись.
type Client struct {
	seed string
	base time.Time
	n    int
}

func New(seed string, base time.Time, n int) *Client {
	return &Client{seed: seed, base: base.UTC(), n: n}
}

func (c *Client) Journeys(ctx context.Context) ([]models.Journey, error) {
	out := make([]models.Journey, 0, c.n)
	for i := 0; i < c.n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, c.Journey(i))
	}
	return out, nil
}

func (c *Client) Journey(i int) models.Journey {
	v := c.hash(i)
	id := fmt.Sprintf("JRN-%s-%04d", c.seed, i)

	from := places[v%uint32(len(places))]
	to := places[(v/7+1)%uint32(len(places))]
	if to.City == from.City {
		to = places[(v/7+2)%uint32(len(places))]
	}

	createdAt := c.base.Add(-time.Duration(i) * time.Hour)
	dep := createdAt.Add(time.Duration(2+v%6) * time.Hour)
	arr := dep.Add(time.Duration(8+v%40) * time.Hour)

	status := models.StatusFlow[(v/3)%uint32(len(models.StatusFlow))]
	jType := models.JourneyTypeFTL
	if v%3 == 0 {
		jType = models.JourneyTypePTL
	}

	j := models.Journey{
		ID:                id,
		TripID:            fmt.Sprintf("TRIP-%06d", v%1_000_000),
		Type:              jType,
		CreationMethod:    models.CreationMethods[(v/11)%uint32(len(models.CreationMethods))],
		Status:            status,
		From:              from,
		To:                to,
		VehicleInfo:       "32 ft MXL",
		VehicleNumber:     fmt.Sprintf("MH%02dAB%04d", v%50, v%10_000),
		DriverName:        drivers[(v/13)%uint32(len(drivers))],
		DriverPhone:       fmt.Sprintf("98%08d", v%100_000_000),
		TrackingType:      models.TrackingTypes[(v/17)%uint32(len(models.TrackingTypes))],
		ConsentStatus:     models.ConsentApproved,
		ExpectedDeparture: &dep,
		ExpectedArrival:   &arr,
		ETA:               &arr,
		Distance:          float64(100 + v%1500),
		LoadDetails: models.LoadDetails{
			Weight:       float64(1000 + v%20000),
			PackageCount: int(1 + v%200),
			Material:     "FMCG",
			Value:        float64(50_000 + v%500_000),
		},
		SourceBranch:      from.BranchID,
		DestinationBranch: to.BranchID,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}

	// 25% журни опаздывают
	if v%4 == 0 && status != models.StatusDelivered {
		late := time.Duration(30+v%600) * time.Minute
		eta := arr.Add(late)
		j.ETA = &eta
		j.IsDelayed = true
		j.DelayTime = models.FormatDelay(late)
		j.Alerts = append(j.Alerts, models.Alert{
			ID:        id + "-A1",
			JourneyID: id,
			Type:      models.AlertDelay,
			Severity:  models.AlertSeverities[(v/5)%uint32(len(models.AlertSeverities))],
			Message:   "running behind schedule",
			Timestamp: dep,
			Location:  from.Location,
		})
	}
	if v%9 == 0 {
		j.Alerts = append(j.Alerts, models.Alert{
			ID:        id + "-A2",
			JourneyID: id,
			Type:      models.AlertTypes[(v/19)%uint32(len(models.AlertTypes))],
			Severity:  models.SeverityCritical,
			Message:   "vehicle stopped outside geofence",
			Timestamp: dep,
		})
	}
	if status == models.StatusDelivered {
		j.ActualDeparture = &dep
		j.ActualArrival = &arr
		j.PODStatus = models.PODSubmitted
	}
	if jType == models.JourneyTypePTL {
		j.Stops = []models.Stop{
			{ID: id + "-S1", JourneyID: id, Type: models.StopPickup, Location: from.Location, City: from.City},
			{ID: id + "-S2", JourneyID: id, Type: models.StopDelivery, Location: to.Location, City: to.City},
		}
	}
	j.Normalize()
	return j
}

func (c *Client) hash(i int) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(c.seed))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(fmt.Sprintf("%d", i)))
	return h.Sum32()
}
