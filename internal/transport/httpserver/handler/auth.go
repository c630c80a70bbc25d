package handler

import (
	"errors"
	"net/http"
	"time"

	"chronos-go/internal/auth"
	userdomain "chronos-go/internal/domain/user"
	"chronos-go/internal/transport/httpserver/middleware"
	"github.com/google/uuid"
)

const (
	oauthStateCookie = "chronos_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type loginRequest struct {
	YandexToken string `json:"yandexToken" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func toLoginResponse(session *auth.Session) loginResponse {
	return loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      toUserResponse(session.User),
	}
}

// Login exchanges a Yandex access token obtained by the client for our JWT.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	session, err := h.Auth.LoginWithYandexToken(r.Context(), req.YandexToken)
	if err != nil {
		h.writeDomainError(w, r, "auth.login", err)
		return
	}

	h.log.WithContext(r.Context()).Info("auth.login: signed in", "user_id", session.User.ID)
	writeJSON(w, http.StatusOK, toLoginResponse(session))
}

// YandexRedirect starts the authorization-code flow.
func (h *Handlers) YandexRedirect(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	target, err := h.OAuth.AuthCodeURL(state)
	if err != nil {
		h.writeDomainError(w, r, "auth.yandex_redirect", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handlers) YandexCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		h.log.WithContext(r.Context()).BusinessError("auth.yandex_callback: consent denied", errors.New(providerErr))
		writeError(w, http.StatusUnauthorized, "oauth_denied", "authorization was denied")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != query.Get("state") {
		writeError(w, http.StatusBadRequest, "invalid_state", "oauth state mismatch")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/auth", MaxAge: -1})

	code := query.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	session, err := h.Auth.LoginWithCode(r.Context(), h.OAuth, code)
	if err != nil {
		h.writeDomainError(w, r, "auth.yandex_callback", err)
		return
	}

	writeJSON(w, http.StatusOK, toLoginResponse(session))
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	stored, err := h.Users.GetByID(r.Context(), user.ID)
	if err != nil {
		if !errors.Is(err, userdomain.ErrUserNotFound) {
			h.writeDomainError(w, r, "auth.me", err)
			return
		}
		response := userResponse{ID: user.ID, Email: user.Email, Name: user.Name}
		if user.AvatarURL != "" {
			response.AvatarURL = &user.AvatarURL
		}
		writeJSON(w, http.StatusOK, response)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(stored))
}

// Logout is stateless; clients drop their token.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
