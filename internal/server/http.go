// Package server wires handlers and middleware into the HTTP router.
package server

import (
	"net/http"

	"github.com/rs/zerolog"

	authhandler "identity-token-service/internal/auth/handler"
	healthhandler "identity-token-service/internal/health/handler"
	"identity-token-service/internal/obs"
)

// Deps holds the handlers the router mounts.
type Deps struct {
	// Auth serves the credential lifecycle endpoints under /v1/auth and /v1/users.
	Auth *authhandler.Handler
	// Health serves the /healthz probe. If nil, /healthz is not registered.
	Health *healthhandler.Handler
	// Log is used by the request logging middleware.
	Log zerolog.Logger
}

// NewRouter builds the full route table and wraps it in the metrics and
// request logging middleware.
//
// Route → handler mapping:
//   - POST /v1/auth/register              → Auth.HandleRegister
//   - POST /v1/auth/login                 → Auth.HandleLogin
//   - POST /v1/auth/logout                → Auth.HandleLogout (protected)
//   - POST /v1/auth/refresh               → Auth.HandleRefresh
//   - POST /v1/auth/change-password       → Auth.HandleChangePassword (protected)
//   - POST /v1/auth/forgot-password       → Auth.HandleForgotPassword
//   - POST /v1/auth/reset-password/{token} → Auth.HandleResetPassword
//   - GET  /v1/users/me                   → Auth.HandleMe (protected)
//   - GET  /healthz                       → Health.HandleHealthz
//   - GET  /metrics                       → Prometheus handler
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	a := deps.Auth
	mux.HandleFunc("POST /v1/auth/register", a.HandleRegister)
	mux.HandleFunc("POST /v1/auth/login", a.HandleLogin)
	mux.Handle("POST /v1/auth/logout", a.Protect(http.HandlerFunc(a.HandleLogout)))
	mux.HandleFunc("POST /v1/auth/refresh", a.HandleRefresh)
	mux.Handle("POST /v1/auth/change-password", a.Protect(http.HandlerFunc(a.HandleChangePassword)))
	mux.HandleFunc("POST /v1/auth/forgot-password", a.HandleForgotPassword)
	mux.HandleFunc("POST /v1/auth/reset-password/{token}", a.HandleResetPassword)
	mux.Handle("GET /v1/users/me", a.Protect(http.HandlerFunc(a.HandleMe)))

	if deps.Health != nil {
		mux.HandleFunc("GET /healthz", deps.Health.HandleHealthz)
	}
	mux.Handle("GET /metrics", obs.Handler())

	return obs.Instrument(obs.RequestLogger(deps.Log, mux))
}
