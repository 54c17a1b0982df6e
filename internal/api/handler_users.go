package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentinel/internal/domain"
	"sentinel/internal/middleware"
)

type createUserRequest struct {
	Username              string `json:"username"`
	Password              string `json:"password"`
	GivenName             string `json:"givenName"`
	Surname               string `json:"surname"`
	Email                 string `json:"email"`
	MustChangeAtNextLogin bool   `json:"mustChangeAtNextLogin"`
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(users))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.AnnotateAudit(r.Context(), "create_user", "", nil)
		writeDomainError(w, h.logger, err)
		return
	}
	middleware.AnnotateAudit(r.Context(), "create_user", req.Username, map[string]any{
		"username":              req.Username,
		"password":              req.Password,
		"givenName":             req.GivenName,
		"surname":               req.Surname,
		"email":                 req.Email,
		"mustChangeAtNextLogin": req.MustChangeAtNextLogin,
	})

	res, err := h.users.Create(r.Context(), domain.NewUser{
		Username:              req.Username,
		Password:              req.Password,
		GivenName:             req.GivenName,
		Surname:               req.Surname,
		Email:                 req.Email,
		MustChangeAtNextLogin: req.MustChangeAtNextLogin,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCommandResponse(res))
}

// userCommand runs a single-operand account mutation and records it under
// action.
func (h *Handler) userCommand(action string, fn func(context.Context, string) (domain.CommandResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		middleware.AnnotateAudit(r.Context(), action, username, nil)

		res, err := fn(r.Context(), username)
		if err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newCommandResponse(res))
	}
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	h.userCommand("delete_user", h.users.Delete)(w, r)
}

func (h *Handler) disableUser(w http.ResponseWriter, r *http.Request) {
	h.userCommand("disable_user", h.users.Disable)(w, r)
}

func (h *Handler) enableUser(w http.ResponseWriter, r *http.Request) {
	h.userCommand("enable_user", h.users.Enable)(w, r)
}

func (h *Handler) unlockUser(w http.ResponseWriter, r *http.Request) {
	h.userCommand("unlock_user", h.users.Unlock)(w, r)
}

func (h *Handler) setPassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var req setPasswordRequest
	err := decodeJSON(w, r, &req)
	middleware.AnnotateAudit(r.Context(), "set_password", username, map[string]any{"password": req.Password})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	res, err := h.users.SetPassword(r.Context(), username, req.Password)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var req resetPasswordRequest
	err := decodeJSON(w, r, &req)
	middleware.AnnotateAudit(r.Context(), "reset_password", username, map[string]any{"newPassword": req.NewPassword})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	res, err := h.users.ResetPassword(r.Context(), username, req.NewPassword)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}

func (h *Handler) listComputers(w http.ResponseWriter, r *http.Request) {
	computers, err := h.users.ListComputers(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(computers))
}
