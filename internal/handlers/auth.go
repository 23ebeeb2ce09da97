package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"nas-media-catalog/internal/database"
	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/metrics"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "nas_media_catalog_session"

	minPasswordLength = 6
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLength = 72
)

// PasswordRequest carries the password for setup and login.
type PasswordRequest struct {
	Password string `json:"password"`
}

// PasswordChangeRequest represents a request to change the password
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse represents the response from authentication endpoints
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"` // Seconds until session expires
}

// publicPaths are served without a session.
var publicPaths = map[string]bool{
	"/login.html":      true,
	"/css/login.css":   true,
	"/js/login.js":     true,
	"/favicon.ico":     true,
	"/health":          true,
	"/healthz":         true,
	"/health/detailed": true,
	"/livez":           true,
	"/readyz":          true,
	"/version":         true,
}

func isPublicPath(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, "/api/auth/")
}

func validatePassword(password string) error {
	switch {
	case len(password) < minPasswordLength:
		return errors.New("password must be at least 6 characters")
	case len(password) > maxPasswordLength:
		return errors.New("password must not exceed 72 characters")
	}
	return nil
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	setSessionCookie(w, "", time.Unix(0, 0))
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func sessionResponse() AuthResponse {
	return AuthResponse{
		Success:   true,
		ExpiresIn: int(database.GetSessionDuration().Seconds()),
	}
}

// CheckSetupRequired returns whether initial setup is needed
func (h *Handlers) CheckSetupRequired(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{
		"needsSetup": !h.db.HasUsers(r.Context()),
	})
}

// Setup creates the initial password
func (h *Handlers) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.db.HasUsers(ctx) {
		http.Error(w, "Setup already completed", http.StatusForbidden)
		return
	}

	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.CreateUser(ctx, req.Password); err != nil {
		logging.Error("Failed to create user: %v", err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	logging.Info("Initial password configured")

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success: true,
		Message: "Password configured successfully",
	})
}

// Login authenticates with password and starts a session
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.ValidatePassword(ctx, req.Password)
	if err != nil {
		logging.Warn("Failed login attempt")
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		http.Error(w, "Invalid password", http.StatusUnauthorized)
		return
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

	session, err := h.db.CreateSession(ctx, user.ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, session.Token, session.ExpiresAt)

	logging.Info("User logged in, session expires in %v", database.GetSessionDuration())

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, sessionResponse())
}

// Logout ends the current session
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		// Logout succeeds even if the session row cannot be removed.
		if err := h.db.DeleteSession(r.Context(), token); err != nil {
			logging.Error("failed to delete session during logout: %v", err)
		}
	}
	clearSessionCookie(w)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// CheckAuth verifies the current session
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := h.db.ValidateSession(r.Context(), token); err != nil {
		clearSessionCookie(w)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, sessionResponse())
}

// Keepalive extends the current session without returning user data
func (h *Handlers) Keepalive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := sessionToken(r)
	if token == "" {
		http.Error(w, "No session", http.StatusUnauthorized)
		return
	}
	if _, err := h.db.ValidateSession(ctx, token); err != nil {
		http.Error(w, "Invalid session", http.StatusUnauthorized)
		return
	}
	if err := h.db.ExtendSession(ctx, token); err != nil {
		logging.Debug("Failed to extend session in keepalive: %v", err)
		http.Error(w, "Failed to extend session", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, token, h.now().Add(database.GetSessionDuration()))

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, sessionResponse())
}

// ChangePassword handles password change requests
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PasswordChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.db.ValidatePassword(ctx, req.CurrentPassword); err != nil {
		logging.Warn("Failed password change attempt - invalid current password")
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		http.Error(w, "New "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.UpdatePassword(ctx, req.NewPassword); err != nil {
		logging.Error("Failed to update password: %v", err)
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	logging.Info("Password changed successfully")

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success: true,
		Message: "Password updated successfully",
	})
}

// AuthMiddleware protects everything except the login page, health probes
// and the auth endpoints. API requests without a valid session get 401;
// page requests are redirected to the login page. Valid sessions slide.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		token := sessionToken(r)
		valid := false
		if token != "" {
			_, err := h.db.ValidateSession(ctx, token)
			valid = err == nil
			if !valid {
				clearSessionCookie(w)
			}
		}
		if !valid {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			} else {
				http.Redirect(w, r, "/login.html", http.StatusFound)
			}
			return
		}

		if err := h.db.ExtendSession(ctx, token); err != nil {
			logging.Debug("Failed to extend session: %v", err)
		} else {
			setSessionCookie(w, token, h.now().Add(database.GetSessionDuration()))
		}

		next.ServeHTTP(w, r)
	})
}
