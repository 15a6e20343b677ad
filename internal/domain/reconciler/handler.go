package reconciler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-health-sync/internal/domain/access"
	"pet-health-sync/internal/domain/records"
	"pet-health-sync/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/pets/{petID}/sync", syncHandler(svc))
}

type syncRequest struct {
	// Watermark del último sync exitoso del device; zero = primer sync.
	Watermark time.Time `json:"watermark"`

	records.ChangeSet
}

type syncResponse struct {
	Watermark time.Time `json:"watermark"`

	records.ChangeSet
}

func syncHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req syncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		res, err := svc.Sync(r.Context(), SyncInput{
			PetID:     chi.URLParam(r, "petID"),
			CallerID:  claims.UserID,
			Watermark: req.Watermark,
			Changes:   req.ChangeSet,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, records.ErrNotFound):
				http.Error(w, "pet not found", http.StatusNotFound)
			case errors.Is(err, access.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, syncResponse{
			Watermark: res.Watermark,
			ChangeSet: res.Changes,
		})
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// (reconciler/sharing); si aparece en más módulos conviene extraerlo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
