package query

import (
	"math"
	"strings"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultSortBy = "createdAt"
)

// Spec — декларативное описание выборки. Все поля необязательные.
type Spec struct {
	Type              string     `json:"type,omitempty"`
	Status            string     `json:"status,omitempty"`
	SourceBranch      string     `json:"sourceBranch,omitempty"`
	DestinationBranch string     `json:"destinationBranch,omitempty"`
	FromDate          *time.Time `json:"fromDate,omitempty"`
	ToDate            *time.Time `json:"toDate,omitempty"`
	Search            string     `json:"search,omitempty" validate:"max=128"`
	SortBy            string     `json:"sortBy,omitempty"`
	SortOrder         string     `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
	Page              int        `json:"page,omitempty" validate:"gte=0,lte=1000000"`
	Limit             int        `json:"limit,omitempty" validate:"gte=0,lte=1000"`
}

// Paginated reports whether both page and limit are set.
func (s Spec) Paginated() bool { return s.Page > 0 && s.Limit > 0 }

// WithoutPagination is the same spec with page/limit dropped.
func (s Spec) WithoutPagination() Spec {
	s.Page, s.Limit = 0, 0
	return s
}

type Result struct {
	Items      []models.Journey `json:"items"`
	TotalCount int              `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
}

// Query runs filter -> sort -> paginate over collection. It never fails and never
// returns items that alias the input.
func Query(collection []models.Journey, spec Spec) Result {
	filtered := Filter(collection, spec)
	Sort(filtered, spec.SortBy, spec.SortOrder)

	total := len(filtered)
	res := Result{TotalCount: total, TotalPages: totalPages(total, spec)}

	page := filtered
	if spec.Paginated() {
		// сравниваем до умножения: огромный page не должен переполнить start
		start, end := total, total
		if spec.Page-1 < (total+spec.Limit-1)/spec.Limit {
			start = (spec.Page - 1) * spec.Limit
			end = min(start+spec.Limit, total)
		}
		page = filtered[start:end]
	}

	res.Items = make([]models.Journey, 0, len(page))
	for i := range page {
		res.Items = append(res.Items, page[i].Clone())
	}
	return res
}

func totalPages(total int, spec Spec) int {
	if total == 0 {
		return 0
	}
	if !spec.Paginated() {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(spec.Limit)))
}

// Filter applies equality, date range and free-text filters. Result is a new slice.
func Filter(collection []models.Journey, spec Spec) []models.Journey {
	var (
		wantType   models.JourneyType
		wantStatus models.JourneyStatus
	)
	if spec.Type != "" {
		wantType = models.ParseJourneyType(spec.Type)
	}
	if spec.Status != "" {
		wantStatus = models.ParseJourneyStatus(spec.Status)
	}
	search := strings.ToLower(strings.TrimSpace(spec.Search))

	out := make([]models.Journey, 0, len(collection))
	for i := range collection {
		j := &collection[i]
		if wantType != "" && j.Type != wantType {
			continue
		}
		if wantStatus != "" && j.Status != wantStatus {
			continue
		}
		if spec.SourceBranch != "" && j.SourceBranch != spec.SourceBranch {
			continue
		}
		if spec.DestinationBranch != "" && j.DestinationBranch != spec.DestinationBranch {
			continue
		}
		if spec.FromDate != nil && j.CreatedAt.Before(*spec.FromDate) {
			continue
		}
		if spec.ToDate != nil && j.CreatedAt.After(*spec.ToDate) {
			continue
		}
		if search != "" && !matchesSearch(j, search) {
			continue
		}
		out = append(out, *j)
	}
	return out
}

func matchesSearch(j *models.Journey, needle string) bool {
	for _, hay := range []string{j.ID, j.TripID, j.VehicleNumber, j.DriverName, j.From.Location, j.To.Location} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}
