package agenda

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-agenda/internal/schedule"
	"github.com/wolfman30/clinic-agenda/internal/tenancy"
	"github.com/wolfman30/clinic-agenda/pkg/logging"
)

// Handler provides HTTP endpoints for the booking and settings screens.
type Handler struct {
	service *Service
	cache   *Cache
	logger  *logging.Logger
}

// NewHandler creates an agenda HTTP handler.
func NewHandler(service *Service, cache *Cache, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		cache:   cache,
		logger:  logger,
	}
}

// Routes returns a chi router to be mounted at /clinics.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{clinicID}/agenda", func(r chi.Router) {
		r.Use(tenancy.ClinicFromURL("clinicID"))
		r.Get("/", h.GetConfig)
		r.Put("/", h.UpdateConfig)
		r.Get("/slots", h.GetSlots)
		r.Get("/validate", h.ValidateDate)
		r.Delete("/cache", h.InvalidateCache)
	})
	return r
}

func clinicID(r *http.Request) string {
	id, _ := tenancy.ClinicIDFromContext(r.Context())
	return id
}

// GetConfig returns the clinic's agenda configuration.
// GET /clinics/{clinicID}/agenda
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.Config(r.Context(), clinicID(r))
	h.writeJSON(w, http.StatusOK, cfg)
}

// UpdateConfigRequest is the settings screen payload. Omitted fields keep
// their current value.
type UpdateConfigRequest struct {
	WorkStartTime              *string `json:"work_start_time,omitempty"`
	WorkEndTime                *string `json:"work_end_time,omitempty"`
	AppointmentIntervalMinutes *int    `json:"appointment_interval_minutes,omitempty"`
	LunchStartTime             *string `json:"lunch_start_time,omitempty"`
	LunchEndTime               *string `json:"lunch_end_time,omitempty"`
	ActiveDays                 []int   `json:"active_days,omitempty"`
}

// UpdateConfigResponse reports what a save changed.
type UpdateConfigResponse struct {
	ChangedFields []schedule.Field `json:"changed_fields"`
	Message       string           `json:"message"`
}

// UpdateConfig saves the fields that differ from the current config.
// PUT /clinics/{clinicID}/agenda
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	id := clinicID(r)

	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cfg := h.service.Config(r.Context(), id)
	if req.WorkStartTime != nil {
		cfg.WorkStartTime = *req.WorkStartTime
	}
	if req.WorkEndTime != nil {
		cfg.WorkEndTime = *req.WorkEndTime
	}
	if req.AppointmentIntervalMinutes != nil {
		cfg.AppointmentIntervalMinutes = *req.AppointmentIntervalMinutes
	}
	if req.LunchStartTime != nil {
		cfg.LunchStartTime = *req.LunchStartTime
	}
	if req.LunchEndTime != nil {
		cfg.LunchEndTime = *req.LunchEndTime
	}
	if req.ActiveDays != nil {
		cfg.ActiveDays = req.ActiveDays
	}

	changed, err := h.service.UpdateConfig(r.Context(), cfg)
	switch {
	case errors.Is(err, ErrNothingToSave):
		h.writeJSON(w, http.StatusOK, UpdateConfigResponse{ChangedFields: []schedule.Field{}, Message: "nothing to save"})
		return
	case errors.Is(err, schedule.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrRemoteSaveFailed):
		writeError(w, http.StatusBadGateway, "failed to save agenda settings")
		return
	case err != nil:
		h.logger.Error("failed to update agenda config", "clinic_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("agenda config updated", "clinic_id", id, "changed", changed)
	h.writeJSON(w, http.StatusOK, UpdateConfigResponse{ChangedFields: changed, Message: "saved"})
}

// SlotsResponse lists a day's slots.
type SlotsResponse struct {
	Date       string                  `json:"date"`
	Validation schedule.DateValidation `json:"validation"`
	Message    string                  `json:"message,omitempty"`
	Slots      []schedule.TimeSlot     `json:"slots"`
}

// GetSlots returns the slots for a date.
// GET /clinics/{clinicID}/agenda/slots?date=2026-10-20&lunch_placeholder=true
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	id := clinicID(r)
	date, ok := h.parseDate(w, r)
	if !ok {
		return
	}
	opts := schedule.GenerateOptions{}
	if raw := r.URL.Query().Get("lunch_placeholder"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "lunch_placeholder must be a boolean")
			return
		}
		opts.IncludeLunchPlaceholder = v
	}

	slots, res, err := h.service.Slots(r.Context(), id, date, opts)
	if err != nil {
		h.logger.Error("failed to generate slots", "clinic_id", id, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, SlotsResponse{
		Date:       date.Format(time.DateOnly),
		Validation: res,
		Message:    res.Reason.Message(),
		Slots:      slots,
	})
}

// ValidateResponse is the result of a date check.
type ValidateResponse struct {
	schedule.DateValidation
	Message string `json:"message,omitempty"`
	MinDate string `json:"min_date"`
}

// ValidateDate checks a candidate appointment date.
// GET /clinics/{clinicID}/agenda/validate?date=2026-10-20
func (h *Handler) ValidateDate(w http.ResponseWriter, r *http.Request) {
	date, ok := h.parseDate(w, r)
	if !ok {
		return
	}
	res := h.service.ValidateDate(r.Context(), clinicID(r), date)
	h.writeJSON(w, http.StatusOK, ValidateResponse{
		DateValidation: res,
		Message:        res.Reason.Message(),
		MinDate:        schedule.MinimumBookableDate(h.service.now().In(h.service.Location())).Format(time.DateOnly),
	})
}

// InvalidateCache drops the clinic's cached config.
// DELETE /clinics/{clinicID}/agenda/cache
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	id := clinicID(r)
	h.cache.Invalidate(id)
	h.logger.Info("agenda cache invalidated", "clinic_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date required (YYYY-MM-DD)")
		return time.Time{}, false
	}
	date, err := time.ParseInLocation(time.DateOnly, raw, h.service.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
