package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"profile-app/internal/auth"
	"profile-app/internal/models"
	"profile-app/internal/storage"
	"profile-app/internal/upload"

	"github.com/rs/zerolog/log"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour
	// maxUploadSize caps the in-memory portion of a multipart parse.
	maxUploadSize = 10 << 20
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	uploads      *upload.Store
	templateDir  string
	secureCookie bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, uploads *upload.Store, templateDir string, secureCookie bool) *Handlers {
	return &Handlers{db: db, uploads: uploads, templateDir: templateDir, secureCookie: secureCookie}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication. Unauthenticated
// requests are redirected to the login form with a warning notice.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			h.setFlash(w, "warning", "Please log in to view your profile.")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(cookie.Value)
		if err != nil {
			// Invalid or expired session, clear the cookie
			h.clearSessionCookie(w)
			h.setFlash(w, "warning", "Please log in to view your profile.")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		// Rolling session: renew if past halfway point
		// This keeps active users logged in while still expiring inactive sessions
		now := time.Now()
		timeUntilExpiry := sessionInfo.ExpiresAt.Sub(now)
		halfSessionDuration := SessionDuration / 2

		if timeUntilExpiry < halfSessionDuration {
			// Session is in the second half of its lifetime, renew it
			newExpiresAt := now.Add(SessionDuration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err == nil {
				// Update the cookie expiration too
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    cookie.Value,
					Path:     "/",
					MaxAge:   int(SessionDuration.Seconds()),
					HttpOnly: true,
					Secure:   h.secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			// If renewal fails, just continue with the current session
		}

		// Add user to context
		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Index redirects the root path to the login form.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Notice *Notice
}

// RegisterViewModel holds data for the registration page.
type RegisterViewModel struct {
	Notice *Notice
}

// ProfileViewModel holds data for the profile page.
type ProfileViewModel struct {
	ID       int64
	Name     string
	Age      int
	Address  string
	ImageURL string
	Notice   *Notice
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register.html", RegisterViewModel{Notice: h.popFlash(w, r)})
}

// Register handles the registration form submission. Checks run in a
// fixed order: blank fields, taken username, birthdate format, image
// upload. The account is only persisted once every check has passed.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			h.render(w, "register.html", RegisterViewModel{Notice: &Notice{"danger", "Invalid form submission."}})
			return
		}
	} else if err := r.ParseForm(); err != nil {
		h.render(w, "register.html", RegisterViewModel{Notice: &Notice{"danger", "Invalid form submission."}})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := strings.TrimSpace(r.FormValue("password"))
	name := strings.TrimSpace(r.FormValue("name"))
	birthdateStr := strings.TrimSpace(r.FormValue("birthdate"))
	address := strings.TrimSpace(r.FormValue("address"))

	if username == "" || password == "" || name == "" || birthdateStr == "" || address == "" {
		h.render(w, "register.html", RegisterViewModel{Notice: &Notice{"warning", "All fields are required."}})
		return
	}

	if _, err := h.db.GetUserByUsername(username); err == nil {
		h.render(w, "register.html", RegisterViewModel{Notice: &Notice{"danger", "Username already taken. Please choose a new one."}})
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Error().Err(err).Msg("register: username lookup failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	birthdate, err := time.Parse(time.DateOnly, birthdateStr)
	if err != nil {
		h.render(w, "register.html", RegisterViewModel{Notice: &Notice{"danger", "Invalid date format for birthday."}})
		return
	}

	var imageFilename string
	if file, header, err := r.FormFile("image"); err == nil && header.Filename != "" {
		defer file.Close()
		imageFilename, err = h.uploads.Save(file, header.Filename)
		if errors.Is(err, upload.ErrUnsupportedFileType) {
			h.render(w, "register.html", RegisterViewModel{Notice: &Notice{"danger", "Unsupported file type for image."}})
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("register: image upload failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		log.Error().Err(err).Msg("register: password hashing failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	_, err = h.db.CreateUser(storage.NewUser{
		Username:      username,
		PasswordHash:  passwordHash,
		Name:          name,
		Birthdate:     birthdate,
		Address:       address,
		ImageFilename: imageFilename,
	})
	if errors.Is(err, storage.ErrDuplicateUsername) {
		// Lost a race with a concurrent registration for the same name
		h.render(w, "register.html", RegisterViewModel{Notice: &Notice{"danger", "Username already taken. Please choose a new one."}})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("register: create user failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.setFlash(w, "success", "Registration successful! You can now log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect to the profile
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/profile", http.StatusFound)
			return
		}
	}
	h.render(w, "login.html", LoginViewModel{Notice: h.popFlash(w, r)})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", LoginViewModel{Notice: &Notice{"danger", "Invalid form submission."}})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := strings.TrimSpace(r.FormValue("password"))

	user, err := h.db.GetUserByUsername(username)
	if err != nil || !auth.CheckPassword(password, user.PasswordHash) {
		h.render(w, "login.html", LoginViewModel{Notice: &Notice{"danger", "Invalid credentials. Please try again."}})
		return
	}

	// Generate session token
	token, err := auth.GenerateSessionToken()
	if err != nil {
		log.Error().Err(err).Msg("login: failed to generate session token")
		h.render(w, "login.html", LoginViewModel{Notice: &Notice{"danger", "An error occurred. Please try again."}})
		return
	}

	// Create session in database
	expiresAt := time.Now().Add(SessionDuration)
	if err := h.db.CreateSession(token, user.ID, expiresAt); err != nil {
		log.Error().Err(err).Msg("login: failed to create session")
		h.render(w, "login.html", LoginViewModel{Notice: &Notice{"danger", "An error occurred. Please try again."}})
		return
	}

	// Set session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.setFlash(w, "success", "Logged in successfully.")
	http.Redirect(w, r, "/profile", http.StatusFound)
}

// Profile renders the authenticated user's profile.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	if user == nil {
		h.setFlash(w, "warning", "Please log in to view your profile.")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	h.render(w, "profile.html", ProfileViewModel{
		ID:       user.ID,
		Name:     user.Name,
		Age:      user.Age(time.Now()),
		Address:  user.Address,
		ImageURL: user.ImageURL(),
		Notice:   h.popFlash(w, r),
	})
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			log.Error().Err(err).Msg("logout: failed to delete session")
		}
	}
	h.clearSessionCookie(w)
	h.setFlash(w, "info", "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) render(w http.ResponseWriter, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		log.Error().Err(err).Str("view", viewName).Msg("template error")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Error().Err(err).Str("view", viewName).Msg("template execution error")
	}
}
