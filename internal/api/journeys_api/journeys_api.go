package journeys_api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/journeys"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/lifecycle"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/query"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// Limiter — счётчик запросов в окне; реализован rediscache.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type JourneysAPI struct {
	svc *journeys.Service

	limiter   Limiter
	rateLimit int64
	window    time.Duration
}

func New(svc *journeys.Service) *JourneysAPI {
	return &JourneysAPI{svc: svc}
}

// WithRateLimit включает лимит на клиента (по IP). limit <= 0 — без лимита.
func (a *JourneysAPI) WithRateLimit(l Limiter, limit int64, window time.Duration) *JourneysAPI {
	if window <= 0 {
		window = time.Minute
	}
	a.limiter = l
	a.rateLimit = limit
	a.window = window
	return a
}

// Routes монтирует /api/v1/journeys.
func (a *JourneysAPI) Routes(r chi.Router) {
	r.Route("/api/v1/journeys", func(r chi.Router) {
		r.Use(a.rateLimitMiddleware)

		r.Get("/", a.listJourneys)
		r.Post("/", a.createJourney)
		r.Get("/statistics", a.statistics)
		r.Get("/kpis", a.kpis)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.getJourney)
			r.Get("/events", a.listEvents)
			r.Post("/status", a.updateStatus)
			r.Post("/pod", a.submitPOD)
			r.Post("/pod/approve", a.approvePOD)
			r.Post("/pod/reject", a.rejectPOD)
			r.Post("/alerts", a.raiseAlert)
			r.Post("/alerts/{alertId}/resolve", a.resolveAlert)
			r.Post("/stops/{stopId}/complete", a.completeStop)
		})
	})
}

func (a *JourneysAPI) listJourneys(w http.ResponseWriter, r *http.Request) {
	spec, err := parseSpec(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := a.svc.Query(r.Context(), spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *JourneysAPI) createJourney(w http.ResponseWriter, r *http.Request) {
	var in models.JourneyCreateInput
	if !decodeBody(w, r, &in) {
		return
	}
	j, err := a.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, withDerived(j))
}

func (a *JourneysAPI) getJourney(w http.ResponseWriter, r *http.Request) {
	j, err := a.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withDerived(j))
}

func (a *JourneysAPI) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := intParam(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}
	evs, err := a.svc.ListEvents(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evs})
}

func (a *JourneysAPI) statistics(w http.ResponseWriter, r *http.Request) {
	spec, err := parseSpec(r)
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := a.svc.Statistics(r.Context(), spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *JourneysAPI) kpis(w http.ResponseWriter, r *http.Request) {
	k, err := a.svc.KPIs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	lifecycle.StatusExtra
}

func (a *JourneysAPI) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, errors.Wrap(models.ErrValidation, "status is required"))
		return
	}
	j, err := a.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), models.JourneyStatus(req.Status), req.StatusExtra)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withDerived(j))
}

type submitPODRequest struct {
	Documents []models.Document `json:"documents"`
	Notes     string            `json:"notes"`
	Actor     string            `json:"actor"`
}

func (a *JourneysAPI) submitPOD(w http.ResponseWriter, r *http.Request) {
	var req submitPODRequest
	if !decodeBody(w, r, &req) {
		return
	}
	j, err := a.svc.SubmitPOD(r.Context(), chi.URLParam(r, "id"), req.Documents, req.Notes, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withDerived(j))
}

type notesRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

func (a *JourneysAPI) approvePOD(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	j, err := a.svc.ApprovePOD(r.Context(), chi.URLParam(r, "id"), req.Notes, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withDerived(j))
}

func (a *JourneysAPI) rejectPOD(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = req.Notes
	}
	j, err := a.svc.RejectPOD(r.Context(), chi.URLParam(r, "id"), reason, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withDerived(j))
}

type raiseAlertRequest struct {
	models.Alert
	Actor string `json:"actor"`
}

func (a *JourneysAPI) raiseAlert(w http.ResponseWriter, r *http.Request) {
	var req raiseAlertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	j, err := a.svc.RaiseAlert(r.Context(), chi.URLParam(r, "id"), req.Alert, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, withDerived(j))
}

func (a *JourneysAPI) resolveAlert(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	j, err := a.svc.ResolveAlert(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "alertId"), req.Notes, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withDerived(j))
}

type completeStopRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
	Actor  string `json:"actor"`
}

func (a *JourneysAPI) completeStop(w http.ResponseWriter, r *http.Request) {
	var req completeStopRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status := models.StopCompleted
	if req.Status != "" {
		status = models.ParseStopStatus(req.Status)
	}
	j, err := a.svc.CompleteStop(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "stopId"), status, req.Notes, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withDerived(j))
}

func (a *JourneysAPI) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.limiter == nil || a.rateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := "ratelimit:api:" + clientIP(r)
		ok, n, err := a.limiter.Allow(r.Context(), key, a.rateLimit, a.window)
		if err != nil {
			// redis недоступен — пропускаем запрос
			slog.Warn("rate limiter", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(a.rateLimit, 10))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(a.window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded", Code: "rate_limited"})
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(a.rateLimit-n, 10))
		next.ServeHTTP(w, r)
	})
}

// journeyView — журни плюс производные поля для карточки.
type journeyView struct {
	models.Journey
	ProgressPercentage float64 `json:"progressPercentage"`
	NextMilestone      string  `json:"nextMilestone"`
	DurationHours      float64 `json:"durationHours"`
	IsOnTime           bool    `json:"isOnTime"`
}

func withDerived(j models.Journey) journeyView {
	return journeyView{
		Journey:            j,
		ProgressPercentage: j.ProgressPercentage(),
		NextMilestone:      j.NextMilestone(),
		DurationHours:      j.Duration(),
		IsOnTime:           j.IsOnTime(),
	}
}

func parseSpec(r *http.Request) (query.Spec, error) {
	q := r.URL.Query()
	spec := query.Spec{
		Type:              q.Get("type"),
		Status:            q.Get("status"),
		SourceBranch:      q.Get("sourceBranch"),
		DestinationBranch: q.Get("destinationBranch"),
		Search:            q.Get("search"),
		SortBy:            q.Get("sortBy"),
		SortOrder:         q.Get("sortOrder"),
	}
	var err error
	if spec.Page, err = intParam(r, "page"); err != nil {
		return query.Spec{}, err
	}
	if spec.Limit, err = intParam(r, "limit"); err != nil {
		return query.Spec{}, err
	}
	if spec.FromDate, err = timeParam(r, "fromDate"); err != nil {
		return query.Spec{}, err
	}
	if spec.ToDate, err = timeParam(r, "toDate"); err != nil {
		return query.Spec{}, err
	}
	return spec, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(models.ErrInvalidSpec, "%s: %q is not a number", name, raw)
	}
	return n, nil
}

// timeParam принимает RFC3339 или просто дату (YYYY-MM-DD, UTC).
func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.Wrapf(models.ErrInvalidSpec, "%s: bad time %q", name, raw)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, errors.Wrap(models.ErrValidation, "bad json body"))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("journeys api", "err", err)
		writeJSON(w, status, errorResponse{Error: "internal error", Code: code})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, models.ErrInvalidSpec):
		return http.StatusBadRequest, "invalid_spec"
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
