package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-agenda/pkg/logging"
)

// Handler serves the clinic-settings REST contract over any Source.
type Handler struct {
	store  Source
	logger *logging.Logger
}

// NewHandler creates a clinic-settings HTTP handler.
func NewHandler(store Source, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Routes returns a chi router to be mounted at /clinic-settings.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/clinic/{clinicID}", h.ListByClinic)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	return r
}

// ListByClinic returns every setting of a clinic.
// GET /clinic-settings/clinic/{clinicID}
func (h *Handler) ListByClinic(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	if clinicID == "" {
		writeError(w, http.StatusBadRequest, "clinic_id required")
		return
	}

	list, err := h.store.ListByClinic(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to list clinic settings", "clinic_id", clinicID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, list, h.logger)
}

// Create stores a new setting.
// POST /clinic-settings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Setting
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create clinic setting", "clinic_id", req.ClinicID, "key", req.Key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save setting")
		return
	}
	h.logger.Info("clinic setting created", "clinic_id", created.ClinicID, "key", created.Key, "id", created.ID)
	writeJSON(w, http.StatusCreated, created, h.logger)
}

// Update overwrites an existing setting.
// PUT /clinic-settings/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	var req Setting
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.Update(r.Context(), id, req)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "setting not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to update clinic setting", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save setting")
		return
	}
	h.logger.Info("clinic setting updated", "clinic_id", updated.ClinicID, "key", updated.Key, "id", id)
	writeJSON(w, http.StatusOK, updated, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *logging.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
