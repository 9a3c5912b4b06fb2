package tenancy

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type ctxKey string

const clinicKey ctxKey = "agenda.clinic_id"

// WithClinicID stores the clinic id in context.
func WithClinicID(ctx context.Context, clinicID string) context.Context {
	return context.WithValue(ctx, clinicKey, clinicID)
}

// ClinicIDFromContext extracts the clinic id if present.
func ClinicIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(clinicKey)
	if val == nil {
		return "", false
	}
	clinicID, ok := val.(string)
	return clinicID, ok && clinicID != ""
}

// ClinicFromURL copies the named chi URL parameter into the request context.
// Requests without the parameter are rejected with 400.
func ClinicFromURL(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clinicID := strings.TrimSpace(chi.URLParam(r, param))
			if clinicID == "" {
				http.Error(w, `{"error": "clinic_id required"}`, http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClinicID(r.Context(), clinicID)))
		})
	}
}
