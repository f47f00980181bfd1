package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
)

type comparator func(a, b *models.Journey) int

// Поля сортировки — json-имена Journey. Пустые значения (nil-время, "") идут первыми при asc.
// Статус сортируется по порядку в StatusFlow, неизвестный статус меньше любого известного.
var sortFields = map[string]comparator{
	"id":                func(a, b *models.Journey) int { return strings.Compare(a.ID, b.ID) },
	"tripId":            func(a, b *models.Journey) int { return strings.Compare(a.TripID, b.TripID) },
	"type":              func(a, b *models.Journey) int { return strings.Compare(string(a.Type), string(b.Type)) },
	"creationMethod":    func(a, b *models.Journey) int { return strings.Compare(string(a.CreationMethod), string(b.CreationMethod)) },
	"status":            func(a, b *models.Journey) int { return cmp.Compare(a.Status.Index(), b.Status.Index()) },
	"statusText":        func(a, b *models.Journey) int { return strings.Compare(a.StatusText, b.StatusText) },
	"vehicleInfo":       func(a, b *models.Journey) int { return strings.Compare(a.VehicleInfo, b.VehicleInfo) },
	"vehicleNumber":     func(a, b *models.Journey) int { return strings.Compare(a.VehicleNumber, b.VehicleNumber) },
	"driverName":        func(a, b *models.Journey) int { return strings.Compare(a.DriverName, b.DriverName) },
	"trackingType":      func(a, b *models.Journey) int { return strings.Compare(string(a.TrackingType), string(b.TrackingType)) },
	"consentStatus":     func(a, b *models.Journey) int { return strings.Compare(string(a.ConsentStatus), string(b.ConsentStatus)) },
	"podStatus":         func(a, b *models.Journey) int { return strings.Compare(string(a.PODStatus), string(b.PODStatus)) },
	"sourceBranch":      func(a, b *models.Journey) int { return strings.Compare(a.SourceBranch, b.SourceBranch) },
	"destinationBranch": func(a, b *models.Journey) int { return strings.Compare(a.DestinationBranch, b.DestinationBranch) },
	"from.location":     func(a, b *models.Journey) int { return strings.Compare(a.From.Location, b.From.Location) },
	"to.location":       func(a, b *models.Journey) int { return strings.Compare(a.To.Location, b.To.Location) },
	"from.city":         func(a, b *models.Journey) int { return strings.Compare(a.From.City, b.From.City) },
	"to.city":           func(a, b *models.Journey) int { return strings.Compare(a.To.City, b.To.City) },
	"distance":          func(a, b *models.Journey) int { return cmp.Compare(a.Distance, b.Distance) },
	"progress":          func(a, b *models.Journey) int { return cmp.Compare(a.ProgressPercentage(), b.ProgressPercentage()) },
	"duration":          func(a, b *models.Journey) int { return cmp.Compare(a.Duration(), b.Duration()) },
	"isDelayed":         func(a, b *models.Journey) int { return compareBool(a.IsDelayed, b.IsDelayed) },
	"expectedDeparture": func(a, b *models.Journey) int { return compareTime(a.ExpectedDeparture, b.ExpectedDeparture) },
	"actualDeparture":   func(a, b *models.Journey) int { return compareTime(a.ActualDeparture, b.ActualDeparture) },
	"expectedArrival":   func(a, b *models.Journey) int { return compareTime(a.ExpectedArrival, b.ExpectedArrival) },
	"actualArrival":     func(a, b *models.Journey) int { return compareTime(a.ActualArrival, b.ActualArrival) },
	"eta":               func(a, b *models.Journey) int { return compareTime(a.ETA, b.ETA) },
	"createdAt":         func(a, b *models.Journey) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt":         func(a, b *models.Journey) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

// SortFieldKnown reports whether Sort understands the field name.
func SortFieldKnown(field string) bool {
	_, ok := sortFields[field]
	return ok
}

// SortFields lists the accepted sortBy values in stable order.
func SortFields() []string {
	out := make([]string, 0, len(sortFields))
	for k := range sortFields {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Sort orders items in place. Empty sortBy means createdAt desc; an unknown field
// leaves the order untouched. Ties keep their input order.
func Sort(items []models.Journey, sortBy, order string) {
	if sortBy == "" {
		sortBy = DefaultSortBy
		if order == "" {
			order = SortDesc
		}
	}
	compare, ok := sortFields[sortBy]
	if !ok {
		return
	}
	desc := strings.EqualFold(order, SortDesc)
	slices.SortStableFunc(items, func(a, b models.Journey) int {
		c := compare(&a, &b)
		if desc {
			return -c
		}
		return c
	})
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
