package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentinel/internal/domain"
	"sentinel/internal/middleware"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type membershipResponse struct {
	Success bool   `json:"success"`
	Changed bool   `json:"changed"`
	GroupDN string `json:"groupDN"`
	UserDN  string `json:"userDN"`
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(groups))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.groups.Get(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) listGroupMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.groups.Members(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(members))
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	err := decodeJSON(w, r, &req)
	middleware.AnnotateAudit(r.Context(), "create_group", req.Name, map[string]any{
		"name":        req.Name,
		"description": req.Description,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	g, err := h.groups.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "group")
	middleware.AnnotateAudit(r.Context(), "delete_group", name, nil)

	res, err := h.groups.Delete(r.Context(), name)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}

func (h *Handler) addGroupMember(w http.ResponseWriter, r *http.Request) {
	group, username := chi.URLParam(r, "group"), chi.URLParam(r, "username")
	middleware.AnnotateAudit(r.Context(), "add_group_member", group, map[string]any{"member": username})

	res, err := h.groups.AddMember(r.Context(), group, username)
	h.writeMembership(w, res, err, username+" is already a member of "+group)
}

func (h *Handler) removeGroupMember(w http.ResponseWriter, r *http.Request) {
	group, username := chi.URLParam(r, "group"), chi.URLParam(r, "username")
	middleware.AnnotateAudit(r.Context(), "remove_group_member", group, map[string]any{"member": username})

	res, err := h.groups.RemoveMember(r.Context(), group, username)
	h.writeMembership(w, res, err, username+" is not a member of "+group)
}

// writeMembership reports a no-op edit as 409 so callers can tell it apart
// from a change.
func (h *Handler) writeMembership(w http.ResponseWriter, res domain.MembershipResult, err error, noopMessage string) {
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if !res.Changed {
		writeJSON(w, http.StatusConflict, struct {
			errorBody
			Success bool `json:"success"`
		}{errorBody{Code: http.StatusConflict, Message: noopMessage}, false})
		return
	}
	writeJSON(w, http.StatusOK, membershipResponse{
		Success: true,
		Changed: true,
		GroupDN: res.GroupDN,
		UserDN:  res.UserDN,
	})
}
