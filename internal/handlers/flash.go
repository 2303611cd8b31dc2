package handlers

import (
	"net/http"
	"net/url"
	"strings"
)

// flashCookieName is the cookie carrying a one-time notice across a redirect.
const flashCookieName = "flash"

// Notice is a one-time user-facing message with a display level
// (success, danger, warning or info).
type Notice struct {
	Level   string
	Message string
}

func (h *Handlers) setFlash(w http.ResponseWriter, level, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(level + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads the pending notice, clears its cookie and returns it.
// Returns nil when there is nothing to show.
func (h *Handlers) popFlash(w http.ResponseWriter, r *http.Request) *Notice {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	level, message, ok := strings.Cut(decoded, "|")
	if !ok {
		return &Notice{Level: "info", Message: decoded}
	}
	return &Notice{Level: level, Message: message}
}
