package handlers

import (
	"net/http"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
)

// handleCustomer dispatches the authenticated caller's own records under
// /api/v1/customer
func (h *V1Handler) handleCustomer(w http.ResponseWriter, r *http.Request) {
	parts := utils.PathSegments(r.URL.Path, apiPrefix+"/customer")
	if len(parts) == 0 {
		endpointNotFound(w)
		return
	}

	switch parts[0] {
	case "saved-properties":
		h.handleSavedProperties(w, r, parts[1:])
	case "inquiries":
		h.handleInquiries(w, r, parts[1:])
	case "visits":
		h.handleVisits(w, r, parts[1:])
	case "alerts":
		h.handleAlerts(w, r, parts[1:])
	default:
		endpointNotFound(w)
	}
}

// GET|POST /customer/saved-properties, DELETE /customer/saved-properties/{propertyID}
func (h *V1Handler) handleSavedProperties(w http.ResponseWriter, r *http.Request, parts []string) {
	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			saved, err := h.customerService.ListSavedProperties(r.Context(), identity(r))
			writeResult(w, r, http.StatusOK, collection(saved), err)
		case http.MethodPost:
			var req models.SavePropertyRequest
			if err := utils.DecodeJSONBody(r, &req); err != nil {
				utils.RespondWithAPIError(w, r, err)
				return
			}
			saved, err := h.customerService.SaveProperty(r.Context(), identity(r), &req)
			writeResult(w, r, http.StatusCreated, saved, err)
		default:
			methodNotAllowed(w)
		}
	case 1:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		propertyID, err := utils.ParseID(parts[0], "Saved property")
		if err != nil {
			utils.RespondWithAPIError(w, r, err)
			return
		}
		writeNoContent(w, r, h.customerService.UnsaveProperty(r.Context(), identity(r), propertyID))
	default:
		endpointNotFound(w)
	}
}

// GET|POST /customer/inquiries
func (h *V1Handler) handleInquiries(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) != 0 {
		endpointNotFound(w)
		return
	}
	switch r.Method {
	case http.MethodGet:
		inquiries, err := h.customerService.ListInquiries(r.Context(), identity(r))
		writeResult(w, r, http.StatusOK, collection(inquiries), err)
	case http.MethodPost:
		var req models.CreateInquiryRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			utils.RespondWithAPIError(w, r, err)
			return
		}
		inquiry, err := h.customerService.CreateInquiry(r.Context(), identity(r), &req)
		writeResult(w, r, http.StatusCreated, inquiry, err)
	default:
		methodNotAllowed(w)
	}
}

// GET|POST /customer/visits
func (h *V1Handler) handleVisits(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) != 0 {
		endpointNotFound(w)
		return
	}
	switch r.Method {
	case http.MethodGet:
		visits, err := h.customerService.ListVisits(r.Context(), identity(r))
		writeResult(w, r, http.StatusOK, collection(visits), err)
	case http.MethodPost:
		var req models.CreateVisitRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			utils.RespondWithAPIError(w, r, err)
			return
		}
		visit, err := h.customerService.CreateVisit(r.Context(), identity(r), &req)
		writeResult(w, r, http.StatusCreated, visit, err)
	default:
		methodNotAllowed(w)
	}
}

// GET|POST /customer/alerts, DELETE /customer/alerts/{id},
// GET /customer/alerts/{id}/matches
func (h *V1Handler) handleAlerts(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			alerts, err := h.customerService.ListAlerts(r.Context(), identity(r))
			writeResult(w, r, http.StatusOK, collection(alerts), err)
		case http.MethodPost:
			var req models.CreateAlertRequest
			if err := utils.DecodeJSONBody(r, &req); err != nil {
				utils.RespondWithAPIError(w, r, err)
				return
			}
			alert, err := h.customerService.CreateAlert(r.Context(), identity(r), &req)
			writeResult(w, r, http.StatusCreated, alert, err)
		default:
			methodNotAllowed(w)
		}
		return
	}

	alertID, err := utils.ParseID(parts[0], "Alert")
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		writeNoContent(w, r, h.customerService.DeactivateAlert(r.Context(), identity(r), alertID))
	case len(parts) == 2 && parts[1] == "matches":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		matches, err := h.customerService.AlertMatches(r.Context(), identity(r), alertID, r.URL.Query())
		writeResult(w, r, http.StatusOK, matches, err)
	default:
		endpointNotFound(w)
	}
}
