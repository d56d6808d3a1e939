package handlers

import (
	"net/http"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"
)

// handleProperties handles property routes:
//
//	GET|POST           /api/v1/properties
//	GET                /api/v1/properties/featured
//	GET                /api/v1/properties/recent
//	GET|PUT|PATCH|DELETE /api/v1/properties/{id}
//	GET|POST           /api/v1/properties/{id}/images
func (h *V1Handler) handleProperties(w http.ResponseWriter, r *http.Request) {
	parts := utils.PathSegments(r.URL.Path, apiPrefix+"/properties")

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			h.listProperties(w, r)
		case http.MethodPost:
			h.createProperty(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 1 && (parts[0] == "featured" || parts[0] == "recent") {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		var (
			results []models.PropertyResponse
			err     error
		)
		if parts[0] == "featured" {
			results, err = h.catalogService.FeaturedProperties(r.Context(), identity(r))
		} else {
			results, err = h.catalogService.RecentProperties(r.Context(), identity(r))
		}
		writeResult(w, r, http.StatusOK, collection(results), err)
		return
	}

	propertyID, err := utils.ParseID(parts[0], "Property")
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			property, err := h.catalogService.GetProperty(r.Context(), identity(r), propertyID)
			writeResult(w, r, http.StatusOK, property, err)
		case http.MethodPut:
			h.replaceProperty(w, r, propertyID)
		case http.MethodPatch:
			h.patchProperty(w, r, propertyID)
		case http.MethodDelete:
			writeNoContent(w, r, h.catalogService.DeleteProperty(r.Context(), identity(r), propertyID))
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "images" {
		switch r.Method {
		case http.MethodGet:
			images, err := h.catalogService.ListImages(r.Context(), identity(r), propertyID)
			writeResult(w, r, http.StatusOK, collection(images), err)
		case http.MethodPost:
			h.addImage(w, r, propertyID)
		default:
			methodNotAllowed(w)
		}
		return
	}

	endpointNotFound(w)
}

func (h *V1Handler) listProperties(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParsePropertyFilter(r.URL.Query(), h.catalogService.PageLimits())
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	page, err := h.catalogService.ListProperties(r.Context(), identity(r), filter)
	writeResult(w, r, http.StatusOK, page, err)
}

func (h *V1Handler) createProperty(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePropertyRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	property, err := h.catalogService.CreateProperty(r.Context(), identity(r), &req)
	writeResult(w, r, http.StatusCreated, property, err)
}

func (h *V1Handler) replaceProperty(w http.ResponseWriter, r *http.Request, propertyID uint) {
	var req models.CreatePropertyRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	property, err := h.catalogService.ReplaceProperty(r.Context(), identity(r), propertyID, &req)
	writeResult(w, r, http.StatusOK, property, err)
}

func (h *V1Handler) patchProperty(w http.ResponseWriter, r *http.Request, propertyID uint) {
	var req models.UpdatePropertyRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	property, err := h.catalogService.PatchProperty(r.Context(), identity(r), propertyID, &req)
	writeResult(w, r, http.StatusOK, property, err)
}

func (h *V1Handler) addImage(w http.ResponseWriter, r *http.Request, propertyID uint) {
	var req models.CreatePropertyImageRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	image, err := h.catalogService.AddImage(r.Context(), identity(r), propertyID, &req)
	writeResult(w, r, http.StatusCreated, image, err)
}

// handleImages handles PUT|DELETE /api/v1/images/{id} and
// POST /api/v1/images/{id}/set-primary
func (h *V1Handler) handleImages(w http.ResponseWriter, r *http.Request) {
	parts := utils.PathSegments(r.URL.Path, apiPrefix+"/images")
	if len(parts) == 0 {
		endpointNotFound(w)
		return
	}

	imageID, err := utils.ParseID(parts[0], "Image")
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodPut, http.MethodPatch:
			var req models.UpdatePropertyImageRequest
			if err := utils.DecodeJSONBody(r, &req); err != nil {
				utils.RespondWithAPIError(w, r, err)
				return
			}
			image, err := h.catalogService.UpdateImage(r.Context(), identity(r), imageID, &req)
			writeResult(w, r, http.StatusOK, image, err)
		case http.MethodDelete:
			writeNoContent(w, r, h.catalogService.DeleteImage(r.Context(), identity(r), imageID))
		default:
			methodNotAllowed(w)
		}
	case len(parts) == 2 && parts[1] == "set-primary":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		image, err := h.catalogService.SetPrimaryImage(r.Context(), identity(r), imageID)
		writeResult(w, r, http.StatusOK, image, err)
	default:
		endpointNotFound(w)
	}
}

// handlePropertyTypes handles GET|POST /api/v1/property-types and
// GET|PUT|DELETE /api/v1/property-types/{id}
func (h *V1Handler) handlePropertyTypes(w http.ResponseWriter, r *http.Request) {
	parts := utils.PathSegments(r.URL.Path, apiPrefix+"/property-types")

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			types, err := h.catalogService.ListPropertyTypes(r.Context(), identity(r))
			writeResult(w, r, http.StatusOK, collection(types), err)
		case http.MethodPost:
			var req models.PropertyTypeRequest
			if err := utils.DecodeJSONBody(r, &req); err != nil {
				utils.RespondWithAPIError(w, r, err)
				return
			}
			propertyType, err := h.catalogService.CreatePropertyType(r.Context(), identity(r), &req)
			writeResult(w, r, http.StatusCreated, propertyType, err)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) != 1 {
		endpointNotFound(w)
		return
	}
	typeID, err := utils.ParseID(parts[0], "Property type")
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		propertyType, err := h.catalogService.GetPropertyType(r.Context(), identity(r), typeID)
		writeResult(w, r, http.StatusOK, propertyType, err)
	case http.MethodPut:
		var req models.PropertyTypeRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			utils.RespondWithAPIError(w, r, err)
			return
		}
		propertyType, err := h.catalogService.UpdatePropertyType(r.Context(), identity(r), typeID, &req)
		writeResult(w, r, http.StatusOK, propertyType, err)
	case http.MethodDelete:
		cascade, err := utils.ParseOptionalBool(r, "cascade")
		if err != nil {
			utils.RespondWithAPIError(w, r, err)
			return
		}
		writeNoContent(w, r, h.catalogService.DeletePropertyType(r.Context(), identity(r), typeID, cascade != nil && *cascade))
	default:
		methodNotAllowed(w)
	}
}

// handleAgents handles GET|POST /api/v1/agents and GET|PUT|DELETE /api/v1/agents/{id}
func (h *V1Handler) handleAgents(w http.ResponseWriter, r *http.Request) {
	parts := utils.PathSegments(r.URL.Path, apiPrefix+"/agents")

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			agents, err := h.agentService.ListAgents(r.Context(), identity(r))
			writeResult(w, r, http.StatusOK, collection(agents), err)
		case http.MethodPost:
			var req models.AgentRequest
			if err := utils.DecodeJSONBody(r, &req); err != nil {
				utils.RespondWithAPIError(w, r, err)
				return
			}
			agent, err := h.agentService.CreateAgent(r.Context(), identity(r), &req)
			writeResult(w, r, http.StatusCreated, agent, err)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) != 1 {
		endpointNotFound(w)
		return
	}
	agentID, err := utils.ParseID(parts[0], "Agent")
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		agent, err := h.agentService.GetAgent(r.Context(), identity(r), agentID)
		writeResult(w, r, http.StatusOK, agent, err)
	case http.MethodPut:
		var req models.AgentRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			utils.RespondWithAPIError(w, r, err)
			return
		}
		agent, err := h.agentService.UpdateAgent(r.Context(), identity(r), agentID, &req)
		writeResult(w, r, http.StatusOK, agent, err)
	case http.MethodDelete:
		writeNoContent(w, r, h.agentService.DeleteAgent(r.Context(), identity(r), agentID))
	default:
		methodNotAllowed(w)
	}
}

// handleContacts handles the public POST /api/v1/contacts
func (h *V1Handler) handleContacts(w http.ResponseWriter, r *http.Request) {
	if len(utils.PathSegments(r.URL.Path, apiPrefix+"/contacts")) != 0 {
		endpointNotFound(w)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.CreateContactRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	contact, err := h.contactService.CreateContact(r.Context(), identity(r), &req)
	writeResult(w, r, http.StatusCreated, contact, err)
}
