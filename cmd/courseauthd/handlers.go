package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	courseauth "github.com/progplatform/courseauth"
	"github.com/progplatform/courseauth/middleware"
)

type api struct {
	service *courseauth.Service
	logger  zerolog.Logger
}

func newRouter(service *courseauth.Service, logger zerolog.Logger) http.Handler {
	a := &api{service: service, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", a.register)
	mux.HandleFunc("POST /api/auth/login", a.login)
	mux.HandleFunc("POST /api/auth/refresh-token", a.refresh)
	mux.HandleFunc("POST /api/auth/logout", a.logout)
	mux.HandleFunc("GET /api/auth/validate", a.validate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	guarded := middleware.Guard(service)
	mux.Handle("POST /api/auth/change-password", guarded(http.HandlerFunc(a.changePassword)))
	mux.Handle("POST /api/auth/request-verification", guarded(http.HandlerFunc(a.requestVerification)))
	mux.HandleFunc("POST /api/auth/confirm-verification", a.confirmVerification)

	return clientIP(mux)
}

// clientIP copies the remote address into the request context so audit
// events carry it.
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			ip = forwarded
		}
		next.ServeHTTP(w, r.WithContext(courseauth.WithClientIP(r.Context(), ip)))
	})
}

func (a *api) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Error().Err(err).Msg("encode response")
	}
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, courseauth.ErrAccountExists):
		status = http.StatusConflict
	case errors.Is(err, courseauth.ErrUserNotFound),
		errors.Is(err, courseauth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, courseauth.ErrAccountDisabled):
		status = http.StatusForbidden
	case errors.Is(err, courseauth.ErrEmptyToken),
		errors.Is(err, courseauth.ErrInvalidToken),
		errors.Is(err, courseauth.ErrWrongTokenClass),
		errors.Is(err, courseauth.ErrRefreshRevoked):
		status = http.StatusUnauthorized
	case errors.Is(err, courseauth.ErrVerificationInvalid):
		status = http.StatusBadRequest
	default:
		a.logger.Error().Err(err).Msg("request failed")
		a.writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	session, err := a.service.Register(r.Context(), courseauth.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, session)
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	session, err := a.service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, session)
}

func (a *api) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	session, err := a.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, session)
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Logout(r.Context(), r.Header.Get("Authorization")); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (a *api) validate(w http.ResponseWriter, r *http.Request) {
	result, err := a.service.Introspect(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		a.writeJSON(w, http.StatusOK, map[string]bool{"valid": false})
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"valid":     true,
		"accountId": result.AccountID,
		"role":      result.Role,
	})
}

func (a *api) changePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		a.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := a.service.ChangePassword(r.Context(), identity.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func (a *api) requestVerification(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		a.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	challenge, err := a.service.RequestEmailVerification(r.Context(), identity.AccountID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	// The challenge goes out by email in production; returning it here
	// keeps the endpoint usable without a mail relay.
	a.writeJSON(w, http.StatusOK, map[string]string{"challenge": challenge})
}

func (a *api) confirmVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Challenge string `json:"challenge"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := a.service.ConfirmEmailVerification(r.Context(), req.Challenge); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}
