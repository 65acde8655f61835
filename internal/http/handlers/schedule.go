package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/schedule-availability/internal/observability/metrics"
	"github.com/wolfman30/schedule-availability/internal/schedule"
	"github.com/wolfman30/schedule-availability/pkg/logging"
)

// ScheduleHandler serves read-only availability queries over one schedule
// model. An unloaded model is loaded on the first request.
type ScheduleHandler struct {
	model   *schedule.Model
	logger  *logging.Logger
	metrics *metrics.ScheduleMetrics
}

// NewScheduleHandler creates the schedule query handler.
func NewScheduleHandler(model *schedule.Model, logger *logging.Logger, m *metrics.ScheduleMetrics) *ScheduleHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleHandler{model: model, logger: logger, metrics: m}
}

// Routes returns a chi router with the schedule query routes.
func (h *ScheduleHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/days", h.Days)
	r.Get("/busy", h.BusySlots)
	r.Get("/free", h.FreeSlots)
	r.Get("/availability", h.Availability)
	r.Get("/slot", h.SlotForDuration)
	return r
}

type slotResponse struct {
	Date  string `json:"date,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type slotsResponse struct {
	Slots []slotResponse `json:"slots"`
}

func toSlotResponses(slots []schedule.Slot, scoped bool) []slotResponse {
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		resp := slotResponse{Start: s.Start.String(), End: s.End.String()}
		if !scoped {
			resp.Date = s.Date.String()
		}
		out = append(out, resp)
	}
	return out
}

// Days lists working days, optionally for one date.
// GET /schedule/days?date=YYYY-MM-DD
func (h *ScheduleHandler) Days(w http.ResponseWriter, r *http.Request) {
	const query = "days"
	on, ok := h.optionalDate(w, r, query)
	if !ok || !h.ensureLoaded(w, r, query) {
		return
	}
	days, err := h.model.RawDays(on)
	if err != nil {
		h.fail(w, query, err)
		return
	}
	h.metrics.ObserveQuery(query, "ok")
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// BusySlots lists booked intervals in source order.
// GET /schedule/busy?date=YYYY-MM-DD
func (h *ScheduleHandler) BusySlots(w http.ResponseWriter, r *http.Request) {
	const query = "busy"
	on, ok := h.optionalDate(w, r, query)
	if !ok || !h.ensureLoaded(w, r, query) {
		return
	}
	slots, err := h.model.BusySlotsOn(on)
	if err != nil {
		h.fail(w, query, err)
		return
	}
	h.metrics.ObserveQuery(query, "ok")
	writeJSON(w, http.StatusOK, slotsResponse{Slots: toSlotResponses(slots, on != nil)})
}

// FreeSlots lists free intervals ordered by date and start.
// GET /schedule/free?date=YYYY-MM-DD
func (h *ScheduleHandler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	const query = "free"
	on, ok := h.optionalDate(w, r, query)
	if !ok || !h.ensureLoaded(w, r, query) {
		return
	}
	slots, err := h.model.FreeSlotsOn(on)
	if err != nil {
		h.fail(w, query, err)
		return
	}
	h.metrics.ObserveQuery(query, "ok")
	writeJSON(w, http.StatusOK, slotsResponse{Slots: toSlotResponses(slots, on != nil)})
}

// Availability reports whether an interval is entirely free.
// GET /schedule/availability?date=YYYY-MM-DD&start=HH:MM&end=HH:MM
func (h *ScheduleHandler) Availability(w http.ResponseWriter, r *http.Request) {
	const query = "availability"
	q := r.URL.Query()
	day, start, end, err := schedule.ParseInterval(
		strings.TrimSpace(q.Get("date")),
		strings.TrimSpace(q.Get("start")),
		strings.TrimSpace(q.Get("end")),
	)
	if err != nil {
		h.fail(w, query, err)
		return
	}
	if !h.ensureLoaded(w, r, query) {
		return
	}
	ok, err := h.model.Available(day, start, end)
	if err != nil {
		h.fail(w, query, err)
		return
	}
	h.metrics.ObserveQuery(query, "ok")
	writeJSON(w, http.StatusOK, map[string]bool{"available": ok})
}

// SlotForDuration returns the earliest free interval at least duration
// minutes long, or null.
// GET /schedule/slot?duration=MINUTES
func (h *ScheduleHandler) SlotForDuration(w http.ResponseWriter, r *http.Request) {
	const query = "slot"
	raw := strings.TrimSpace(r.URL.Query().Get("duration"))
	if raw == "" {
		h.metrics.ObserveQuery(query, "invalid")
		jsonError(w, "duration_minutes must be set", http.StatusBadRequest)
		return
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		h.metrics.ObserveQuery(query, "invalid")
		jsonError(w, "duration_minutes must be an integer", http.StatusBadRequest)
		return
	}
	if err := schedule.ValidateDuration(minutes); err != nil {
		h.fail(w, query, err)
		return
	}
	if !h.ensureLoaded(w, r, query) {
		return
	}
	slot, found, err := h.model.FindSlotForDuration(minutes)
	if err != nil {
		h.fail(w, query, err)
		return
	}
	h.metrics.ObserveQuery(query, "ok")
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"slot": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slot": slotResponse{
		Date:  slot.Date.String(),
		Start: slot.Start.String(),
		End:   slot.End.String(),
	}})
}

func (h *ScheduleHandler) ensureLoaded(w http.ResponseWriter, r *http.Request, query string) bool {
	if h.model.Loaded() {
		return true
	}
	if err := h.model.Load(r.Context()); err != nil {
		h.fail(w, query, err)
		return false
	}
	return true
}

func (h *ScheduleHandler) optionalDate(w http.ResponseWriter, r *http.Request, query string) (*civil.Date, bool) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		return nil, true
	}
	d, err := schedule.ParseDate(date)
	if err != nil {
		h.fail(w, query, err)
		return nil, false
	}
	return &d, true
}

func (h *ScheduleHandler) fail(w http.ResponseWriter, query string, err error) {
	status, outcome := statusFor(err)
	h.metrics.ObserveQuery(query, outcome)
	if status >= http.StatusInternalServerError {
		h.logger.Error("schedule query failed", "query", query, "error", err)
	}
	jsonError(w, err.Error(), status)
}

func statusFor(err error) (int, string) {
	// Source failures first: a rejected payload wraps the record's
	// validation error.
	switch {
	case errors.Is(err, schedule.ErrNoData), errors.Is(err, schedule.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, schedule.ErrValidation):
		return http.StatusBadRequest, "invalid"
	default:
		return http.StatusInternalServerError, "error"
	}
}

// Health reports liveness and whether a snapshot has been loaded. It never
// triggers a fetch.
// GET /health
func (h *ScheduleHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loaded": h.model.Loaded(),
	})
}
