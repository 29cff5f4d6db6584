package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exam/internal/rbac"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// page is the JSON view model for every GET page.
type page struct {
	Page    string  `json:"page"`
	Flashes []Flash `json:"flashes"`
	Data    any     `json:"data,omitempty"`
}

func renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	respondJSON(w, http.StatusOK, page{Page: name, Flashes: popFlashes(w, r), Data: data})
}

// redirectToLogin renders every denied form route.
func redirectToLogin(w http.ResponseWriter, r *http.Request, _ rbac.Decision) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// jsonUnauthenticated renders denied JSON routes.
func jsonUnauthenticated(w http.ResponseWriter, _ *http.Request, _ rbac.Decision) {
	respondJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Not authenticated"})
}

func serverError(log *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func jsonTooManyRequests(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusTooManyRequests, map[string]any{"success": false, "message": "Too many attempts"})
}
