package common

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"victim-aid-go/internal/domain/user"
	"victim-aid-go/internal/transport/httpserver/middleware"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        *user.User `json:"user"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteInvalidJSON(w)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	session, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			h.log.BusinessError("auth.login: invalid credentials", err, "username", req.Username)
			WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		case errors.Is(err, user.ErrInactive):
			h.log.BusinessError("auth.login: inactive account", err, "username", req.Username)
			WriteError(w, http.StatusUnauthorized, "account_inactive", "account is disabled")
		default:
			h.log.InternalError("auth.login: login failed", err, "username", req.Username)
			WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	h.log.Info("auth.login: user logged in", "user_id", session.User.ID, "client", clientLabel(r.UserAgent()))
	WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: session.Token.Value,
		TokenType:   "Bearer",
		ExpiresAt:   session.Token.ExpiresAt,
		User:        session.User,
	})
}

// clientLabel summarises a User-Agent header as "browser version (os)".
func clientLabel(header string) string {
	if header == "" {
		return "unknown"
	}
	ua := useragent.New(header)
	if ua.Bot() {
		return "bot " + ua.Platform()
	}
	name, version := ua.Browser()
	label := strings.TrimSpace(name + " " + version)
	if os := ua.OS(); os != "" {
		label += " (" + os + ")"
	}
	return label
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		Unauthorized(w)
		return
	}

	if err := h.Auth.Logout(r.Context(), claims); err != nil {
		h.log.InternalError("auth.logout: revoke failed", err, "jti", claims.ID)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	WriteAction(w, "logged out", "")
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		Unauthorized(w)
		return
	}

	WriteJSON(w, http.StatusOK, u)
}
