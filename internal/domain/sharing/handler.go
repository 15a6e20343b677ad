package sharing

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
	r.Route("/pets/{petID}", func(pr chi.Router) {
		pr.Post("/tokens", generateTokenHandler(svc))
		pr.Get("/tokens", listTokensHandler(svc))
		pr.Get("/users", listUsersHandler(svc))
		pr.Post("/users/{userID}/revoke", revokeHandler(svc))
	})

	r.Post("/tokens/redeem", redeemHandler(svc))
	r.Post("/tokens/{code}/deactivate", deactivateHandler(svc))
}

type generateTokenRequest struct {
	Tier string `json:"tier"` // full | guest
}

type tokenResponse struct {
	Code          string    `json:"code"`
	PetID         string    `json:"pet_id"`
	Tier          string    `json:"tier"`
	CreatedByID   string    `json:"created_by_id"`
	CreatedByName string    `json:"created_by_name"`
	CreatedAt     time.Time `json:"created_at"`
	Active        bool      `json:"active"`
}

type redeemRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

type redeemResponse struct {
	PetID string `json:"pet_id"`
	Tier  string `json:"tier"`

	records.ChangeSet
}

type userResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Tier        string    `json:"tier"`
	RedeemedAt  time.Time `json:"redeemed_at"`
	Revoked     bool      `json:"revoked"`
}

type foundResponse struct {
	Found bool `json:"found"`
}

func generateTokenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req generateTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := svc.GenerateToken(r.Context(), chi.URLParam(r, "petID"), claims.UserID, claims.DisplayName, records.Tier(strings.TrimSpace(req.Tier)))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toTokenResponse(t))
	}
}

func listTokensHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListTokens(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]tokenResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toTokenResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func redeemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req redeemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// El nombre visible viene del token si hay verifier; el body es el
		// fallback para dev mode.
		name := strings.TrimSpace(claims.DisplayName)
		if name == "" {
			name = strings.TrimSpace(req.DisplayName)
		}

		res, err := svc.RedeemToken(r.Context(), req.Code, claims.UserID, name)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, redeemResponse{
			PetID:     res.PetID,
			Tier:      string(res.Tier),
			ChangeSet: res.Snapshot,
		})
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListUsers(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, red := range items {
			out = append(out, userResponse{
				UserID:      red.UserID,
				DisplayName: red.DisplayName,
				Tier:        string(red.Tier),
				RedeemedAt:  red.RedeemedAt,
				Revoked:     red.Revoked,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func revokeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		found, err := svc.RevokeRedemption(r.Context(), chi.URLParam(r, "petID"), claims.UserID, chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !found {
			http.Error(w, "redemption not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, foundResponse{Found: true})
	}
}

func deactivateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		found, err := svc.DeactivateToken(r.Context(), chi.URLParam(r, "code"), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !found {
			http.Error(w, "token not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, foundResponse{Found: true})
	}
}

func toTokenResponse(t ShareToken) tokenResponse {
	return tokenResponse{
		Code:          t.Code,
		PetID:         t.PetID,
		Tier:          string(t.Tier),
		CreatedByID:   t.CreatedByID,
		CreatedByName: t.CreatedByName,
		CreatedAt:     t.CreatedAt,
		Active:        t.Active,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, access.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound), errors.Is(err, records.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden), errors.Is(err, access.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// (reconciler/sharing); si aparece en más módulos conviene extraerlo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
