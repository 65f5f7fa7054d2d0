package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fuyaseru/brain/internal/api/auth"
	"github.com/fuyaseru/brain/internal/api/handlers"
	"github.com/fuyaseru/brain/pkg/logger"
	"github.com/fuyaseru/brain/pkg/metrics"
)

// Handlers bundles everything the router serves
type Handlers struct {
	Auth   *handlers.AuthHandler
	Screen *handlers.ScreenHandler
	Admin  *handlers.AdminHandler
	Health *handlers.HealthHandler
}

// Gate decides who may call protected routes
type Gate struct {
	Authenticator *auth.Authenticator
	Sessions      *auth.SessionStore
}

// NewRouter creates and configures the HTTP router.
// rec may be nil; /metrics is mounted only when it is not.
// ⭐ SSOT: ルーティング設定はこの関数でのみ
func NewRouter(h Handlers, gate Gate, rec *metrics.Recorder, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health.Health).Methods("GET")
	if rec != nil {
		r.Handle("/metrics", rec.Handler()).Methods("GET")
	}

	user := sessionMiddleware(gate, auth.RoleUser, log)
	admin := sessionMiddleware(gate, auth.RoleAdmin, log)

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods("POST")
	api.Handle("/auth/session", user(http.HandlerFunc(h.Auth.Session))).Methods("GET")

	// Screening
	api.Handle("/screen", user(http.HandlerFunc(h.Screen.Screen))).Methods("POST")
	api.Handle("/screen/eta", user(http.HandlerFunc(h.Screen.ETA))).Methods("POST")
	api.Handle("/screen/jobs", user(http.HandlerFunc(h.Screen.SubmitJob))).Methods("POST")
	api.Handle("/screen/jobs/{id}", user(http.HandlerFunc(h.Screen.GetJob))).Methods("GET")
	r.Handle("/ws/jobs/{id}", user(http.HandlerFunc(h.Screen.WatchJob))).Methods("GET")

	// Admin
	api.Handle("/admin/cache/clear", admin(http.HandlerFunc(h.Admin.ClearCache))).Methods("POST")

	r.Use(loggingMiddleware(log))
	r.Use(metricsMiddleware(rec))
	r.Use(recoveryMiddleware(log))

	return r
}
