package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mistakebook/internal/ctxkeys"
	"mistakebook/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if h.authService == nil {
		writeError(w, http.StatusServiceUnavailable, "cloud backend is not configured")
		return
	}

	var req credentialsRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.SignUp(req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate session token", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.authService.SetJWTCookie(w, token)

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if h.authService == nil {
		writeError(w, http.StatusServiceUnavailable, "cloud backend is not configured")
		return
	}

	var req credentialsRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.SignIn(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		slog.Error("sign in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sign in failed")
		return
	}

	token, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate session token", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.authService.SetJWTCookie(w, token)

	user.PasswordHash = ""
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if h.authService != nil {
		h.authService.ClearJWTCookie(w)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Session returns the signed-in user, or 401 when there is no session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
