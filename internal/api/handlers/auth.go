package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/fuyaseru/brain/internal/api/auth"
	"github.com/fuyaseru/brain/pkg/logger"
)

// SessionCookie carries the session token
const SessionCookie = "fuyaseru_session"

// AuthHandler handles login and logout
type AuthHandler struct {
	authenticator *auth.Authenticator
	sessions      *auth.SessionStore
	secureCookie  bool
	logger        *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authenticator *auth.Authenticator, sessions *auth.SessionStore, secureCookie bool, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		sessions:      sessions,
		secureCookie:  secureCookie,
		logger:        log,
	}
}

// LoginRequest is the login body
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// Login exchanges a password for a session cookie
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, ok := h.authenticator.Authenticate(req.Password)
	if !ok {
		h.logger.WithField("remote", r.RemoteAddr).Warn("Login rejected")
		respondError(w, http.StatusUnauthorized, "パスワードが違います")
		return
	}

	sess := h.sessions.Create(role)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.WithField("role", role).Info("Login succeeded")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"role":       sess.Role,
		"expires_at": sess.ExpiresAt,
		"token":      sess.Token,
	})
}

// Logout ends the current session
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := TokenFromRequest(r); token != "" {
		h.sessions.Delete(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Session describes the caller's session
// GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "ログインが必要です")
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// TokenFromRequest reads the session token from the cookie or a bearer header
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
