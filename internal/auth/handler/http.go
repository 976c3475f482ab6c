// Package handler exposes the credential lifecycle over HTTP. Tokens travel
// in both the JSON body and HttpOnly cookies; the service layer below knows
// nothing about either.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"identity-token-service/internal/auth/service"
	"identity-token-service/internal/obs"
	"identity-token-service/internal/security"
	"identity-token-service/internal/user/domain"
	"identity-token-service/internal/user/repository"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// Handler serves the auth endpoints. cookieSecure controls the Secure
// attribute on session cookies and should only be false in development.
type Handler struct {
	auth         *service.AuthService
	users        repository.Repository
	tokens       *security.TokenProvider
	cookieSecure bool
	log          zerolog.Logger
}

// NewHandler returns a Handler with the given dependencies.
func NewHandler(auth *service.AuthService, users repository.Repository, tokens *security.TokenProvider, cookieSecure bool, log zerolog.Logger) *Handler {
	return &Handler{
		auth:         auth,
		users:        users,
		tokens:       tokens,
		cookieSecure: cookieSecure,
		log:          log,
	}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	NewPasswordConfirm string `json:"newPasswordConfirm"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type sessionResponse struct {
	AccessToken      string       `json:"accessToken"`
	RefreshToken     string       `json:"refreshToken"`
	AccessExpiresAt  time.Time    `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt"`
	User             userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// HandleRegister creates an account. No session is established; the client
// logs in afterwards.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.PasswordConfirm)
	obs.AuthOperation("register", err)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleLogin verifies the credential and establishes a session, replacing
// any previous refresh token for the account.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	obs.AuthOperation("login", err)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, result)
}

// HandleLogout clears the caller's refresh token slot and expires both
// session cookies. Requires Protect.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	err := h.auth.Logout(r.Context(), user.ID)
	obs.AuthOperation("logout", err)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// HandleRefresh redeems a refresh token for a new pair. The token is taken
// from the refresh cookie when present, otherwise from the request body.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(refreshTokenCookie); err == nil && c.Value != "" {
		token = c.Value
	} else {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err == nil {
			token = req.RefreshToken
		}
	}
	result, err := h.auth.Refresh(r.Context(), token)
	obs.AuthOperation("refresh", err)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, result)
}

// HandleChangePassword rotates the caller's credential. Requires Protect.
// Every previously issued token is invalidated; the response carries the one
// live session.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.auth.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword, req.NewPasswordConfirm)
	obs.AuthOperation("change_password", err)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, result)
}

// HandleForgotPassword issues a reset token and emails a redemption link.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := h.auth.RequestPasswordReset(r.Context(), req.Email)
	obs.AuthOperation("forgot_password", err)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "reset token sent to email"})
}

// HandleResetPassword redeems a reset token from the URL path and installs
// the new credential. On success the response carries a fresh session.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.auth.RedeemPasswordReset(r.Context(), token, req.Password, req.PasswordConfirm)
	obs.AuthOperation("reset_password", err)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, result)
}

// HandleMe returns the authenticated user. Requires Protect.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// writeSession sets both session cookies and writes the token pair response.
func (h *Handler) writeSession(w http.ResponseWriter, code int, result *service.Result) {
	h.setCookie(w, accessTokenCookie, result.AccessToken, result.AccessExpiresAt)
	h.setCookie(w, refreshTokenCookie, result.RefreshToken, result.RefreshExpiresAt)
	writeJSON(w, code, sessionResponse{
		AccessToken:      result.AccessToken,
		RefreshToken:     result.RefreshToken,
		AccessExpiresAt:  result.AccessExpiresAt,
		RefreshExpiresAt: result.RefreshExpiresAt,
		User:             toUserResponse(result.User),
	})
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// writeServiceError maps service sentinels to HTTP status codes. Unmapped
// errors are logged and reported as a generic 500 so internals never leak.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrResetInvalidOrExpired):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		h.unauthorized(w)
	case errors.Is(err, service.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDispatchFailed):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Msg("unhandled service error")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) unauthorized(w http.ResponseWriter) {
	h.writeError(w, http.StatusUnauthorized, "unauthorized")
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	return nil
}

func toUserResponse(u *domain.User) userResponse {
	if u == nil {
		return userResponse{}
	}
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
