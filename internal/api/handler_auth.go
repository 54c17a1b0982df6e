package api

import (
	"errors"
	"net/http"
	"time"

	"sentinel/internal/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ExpiresIn   int64     `json:"expiresIn"`
}

// login exchanges directory credentials for an access token. Unknown users
// and bad passwords produce the same response; the gateway logs which.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	tok, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		var authn *domain.AuthenticationError
		if errors.As(err, &authn) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   tok.ExpiresAt.UTC(),
		ExpiresIn:   int64(time.Until(tok.ExpiresAt).Seconds()),
	})
}
