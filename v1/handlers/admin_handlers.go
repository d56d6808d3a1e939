package handlers

import (
	"net/http"
	"strings"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
)

// handleAdmin dispatches /api/v1/admin/{resource}/...
func (h *V1Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	parts := utils.PathSegments(r.URL.Path, apiPrefix+"/admin")
	if len(parts) == 0 {
		endpointNotFound(w)
		return
	}

	resource, rest := parts[0], parts[1:]
	switch resource {
	case "contacts":
		h.handleAdminContacts(w, r, rest)
	case "users":
		h.handleAdminUsers(w, r, rest)
	case "inquiries", "visits":
		h.handleRecordStatus(w, r, resource, rest)
	case "analytics":
		if len(rest) != 0 {
			endpointNotFound(w)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		summary, err := h.analyticsService.Summary(r.Context(), identity(r))
		writeResult(w, r, http.StatusOK, summary, err)
	default:
		endpointNotFound(w)
	}
}

// handleAdminContacts handles the contact inbox:
//
//	GET /admin/contacts?status=&subject=&search=
//	GET /admin/contacts/stats
//	PUT /admin/contacts/{id}/resolve
//	PUT /admin/contacts/{id}/status
func (h *V1Handler) handleAdminContacts(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		query := r.URL.Query()
		filter := models.ContactFilter{
			Status:  strings.TrimSpace(query.Get("status")),
			Subject: strings.TrimSpace(query.Get("subject")),
			Search:  strings.TrimSpace(query.Get("search")),
		}
		contacts, err := h.contactService.ListContacts(r.Context(), identity(r), filter)
		writeResult(w, r, http.StatusOK, collection(contacts), err)
		return
	}

	if len(parts) == 1 && parts[0] == "stats" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		stats, err := h.contactService.ContactStats(r.Context(), identity(r))
		writeResult(w, r, http.StatusOK, stats, err)
		return
	}

	if len(parts) != 2 {
		endpointNotFound(w)
		return
	}
	contactID, err := utils.ParseID(parts[0], "Contact")
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	switch parts[1] {
	case "resolve":
		contact, err := h.contactService.ResolveContact(r.Context(), identity(r), contactID)
		writeResult(w, r, http.StatusOK, contact, err)
	case "status":
		status, err := decodeStatus(r)
		if err != nil {
			utils.RespondWithAPIError(w, r, err)
			return
		}
		contact, err := h.contactService.UpdateContactStatus(r.Context(), identity(r), contactID, status)
		writeResult(w, r, http.StatusOK, contact, err)
	default:
		endpointNotFound(w)
	}
}

// handleAdminUsers handles user administration:
//
//	GET|POST       /admin/users
//	GET            /admin/users/stats
//	GET|PUT|DELETE /admin/users/{id}
//	POST           /admin/users/{id}/toggle-active
//	POST           /admin/users/{id}/toggle-staff
func (h *V1Handler) handleAdminUsers(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			h.listUsers(w, r)
		case http.MethodPost:
			var req models.CreateUserRequest
			if err := utils.DecodeJSONBody(r, &req); err != nil {
				utils.RespondWithAPIError(w, r, err)
				return
			}
			user, err := h.userService.CreateUser(r.Context(), identity(r), &req)
			writeResult(w, r, http.StatusCreated, user, err)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 1 && parts[0] == "stats" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		stats, err := h.userService.UserStats(r.Context(), identity(r))
		writeResult(w, r, http.StatusOK, stats, err)
		return
	}

	userID, err := utils.ParseID(parts[0], "User")
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			user, err := h.userService.GetUser(r.Context(), identity(r), userID)
			writeResult(w, r, http.StatusOK, user, err)
		case http.MethodPut, http.MethodPatch:
			var req models.UpdateUserRequest
			if err := utils.DecodeJSONBody(r, &req); err != nil {
				utils.RespondWithAPIError(w, r, err)
				return
			}
			user, err := h.userService.UpdateUser(r.Context(), identity(r), userID, &req)
			writeResult(w, r, http.StatusOK, user, err)
		case http.MethodDelete:
			writeNoContent(w, r, h.userService.DeleteUser(r.Context(), identity(r), userID))
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) != 2 {
		endpointNotFound(w)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	switch parts[1] {
	case "toggle-active":
		user, err := h.userService.ToggleActive(r.Context(), identity(r), userID)
		writeResult(w, r, http.StatusOK, user, err)
	case "toggle-staff":
		user, err := h.userService.ToggleStaff(r.Context(), identity(r), userID)
		writeResult(w, r, http.StatusOK, user, err)
	default:
		endpointNotFound(w)
	}
}

func (h *V1Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	isActive, err := utils.ParseOptionalBool(r, "is_active")
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	isStaff, err := utils.ParseOptionalBool(r, "is_staff")
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}

	filter := models.UserFilter{
		IsActive: isActive,
		IsStaff:  isStaff,
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}
	users, err := h.userService.ListUsers(r.Context(), identity(r), filter)
	writeResult(w, r, http.StatusOK, collection(users), err)
}

// handleRecordStatus handles PUT /admin/inquiries/{id}/status and
// PUT /admin/visits/{id}/status
func (h *V1Handler) handleRecordStatus(w http.ResponseWriter, r *http.Request, resource string, parts []string) {
	if len(parts) != 2 || parts[1] != "status" {
		endpointNotFound(w)
		return
	}
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}

	name := "Inquiry"
	if resource == "visits" {
		name = "Visit"
	}
	recordID, err := utils.ParseID(parts[0], name)
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	status, err := decodeStatus(r)
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}

	if resource == "visits" {
		visit, err := h.customerService.UpdateVisitStatus(r.Context(), identity(r), recordID, status)
		writeResult(w, r, http.StatusOK, visit, err)
		return
	}
	inquiry, err := h.customerService.UpdateInquiryStatus(r.Context(), identity(r), recordID, status)
	writeResult(w, r, http.StatusOK, inquiry, err)
}
