package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exam/internal/auth"
	"github.com/mind-engage/mindengage-exam/internal/metrics"
)

// IndexHandler sends each kind of session to its home page.
func IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := auth.SessionFromContext(r.Context())
		switch {
		case s.IsStudent():
			http.Redirect(w, r, "/exam", http.StatusSeeOther)
		case s.IsAdmin():
			http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		default:
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		}
	}
}

func RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, r, "register", nil)
	}
}

func RegisterHandler(svc *auth.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")

		_, err := svc.Register(r.Context(), username, password)
		switch {
		case err == nil:
			redirectWithFlash(w, r, "/login", "success", "Registration successful! Please login.")
		case errors.Is(err, auth.ErrDuplicateUsername):
			redirectWithFlash(w, r, "/register", "error", "Username already exists")
		case errors.Is(err, auth.ErrValidation):
			redirectWithFlash(w, r, "/register", "error", "Username and password are required")
		default:
			serverError(log, w, r, err)
		}
	}
}

func LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, r, "login", nil)
	}
}

func LoginHandler(svc *auth.Service, tokens *auth.TokenService, m *metrics.Metrics, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
		if errors.Is(err, auth.ErrInvalidCredentials) {
			m.ObserveLogin(metrics.LoginFailed)
			redirectWithFlash(w, r, "/login", "error", "Invalid username or password")
			return
		}
		if err != nil {
			serverError(log, w, r, err)
			return
		}
		if err := tokens.SetCookie(w, sess); err != nil {
			serverError(log, w, r, err)
			return
		}
		if sess.IsAdmin() {
			m.ObserveLogin(metrics.LoginAdmin)
			log.Info("admin login")
			http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
			return
		}
		m.ObserveLogin(metrics.LoginStudent)
		log.Info("student login", zap.Int64("user_id", sess.UserID))
		http.Redirect(w, r, "/exam", http.StatusSeeOther)
	}
}

// LimitedHandler answers a throttled form POST by flashing and sending the
// caller back to page.
func LimitedHandler(m *metrics.Metrics, page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if page == "/login" {
			m.ObserveLogin(metrics.LoginLimited)
		}
		redirectWithFlash(w, r, page, "error", "Too many attempts. Please wait and try again.")
	}
}

func LogoutHandler(tokens *auth.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokens.ClearCookie(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
