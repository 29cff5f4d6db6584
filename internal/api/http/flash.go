package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "exam_flash"

// Flash is a one-shot message shown on the next page view.
type Flash struct {
	Category string `json:"category"` // success|error|info
	Message  string `json:"message"`
}

// addFlash queues msg for the next page. Messages already queued on this
// request's cookie are kept.
func addFlash(w http.ResponseWriter, r *http.Request, category, msg string) {
	fs := readFlashes(r)
	fs = append(fs, Flash{Category: category, Message: msg})
	b, err := json.Marshal(fs)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func readFlashes(r *http.Request) []Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var fs []Flash
	if json.Unmarshal(b, &fs) != nil {
		return nil
	}
	return fs
}

// popFlashes returns queued messages and clears the cookie.
func popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	fs := readFlashes(r)
	if fs == nil {
		return []Flash{}
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	return fs
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, category, msg string) {
	addFlash(w, r, category, msg)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
