package handlers

import (
	"fmt"
	"net/http"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/services"
	"github.com/nurpratapkarki/realEstateWeb/v1/utils"

	"gorm.io/gorm"
)

const apiPrefix = "/api/v1"

// V1Handler handles all V1 API routes
type V1Handler struct {
	catalogService   *services.CatalogService
	agentService     *services.AgentService
	contactService   *services.ContactService
	customerService  *services.CustomerService
	userService      *services.UserService
	analyticsService *services.AnalyticsService
}

// NewV1Handler creates a new V1 handler. A nil notifier disables caching and
// change events.
func NewV1Handler(db *gorm.DB, notifier *services.ChangeNotifier, options services.CatalogOptions) (*V1Handler, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	catalog := services.NewCatalogService(db, notifier, options)
	return &V1Handler{
		catalogService:   catalog,
		agentService:     services.NewAgentService(db),
		contactService:   services.NewContactService(db),
		customerService:  services.NewCustomerService(db, catalog),
		userService:      services.NewUserService(db),
		analyticsService: services.NewAnalyticsService(db, catalog),
	}, nil
}

// UserService exposes the user loader the JWT middleware resolves identities with
func (h *V1Handler) UserService() *services.UserService {
	return h.userService
}

// SetupV1Routes configures all V1 API routes
func (h *V1Handler) SetupV1Routes(mux *http.ServeMux) {
	// Catalog routes
	handleTree(mux, apiPrefix+"/properties", h.handleProperties)
	handleTree(mux, apiPrefix+"/images", h.handleImages)
	handleTree(mux, apiPrefix+"/property-types", h.handlePropertyTypes)
	handleTree(mux, apiPrefix+"/agents", h.handleAgents)
	handleTree(mux, apiPrefix+"/contacts", h.handleContacts)

	// Caller routes
	handleTree(mux, apiPrefix+"/me", h.handleMe)
	handleTree(mux, apiPrefix+"/customer", h.handleCustomer)

	// Administration routes
	handleTree(mux, apiPrefix+"/admin", h.handleAdmin)
}

func handleTree(mux *http.ServeMux, path string, fn http.HandlerFunc) {
	mux.Handle(path, utils.PanicRecoveryMiddleware(fn))
	mux.Handle(path+"/", utils.PanicRecoveryMiddleware(fn))
}

// handleMe handles GET /api/v1/me
func (h *V1Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if len(utils.PathSegments(r.URL.Path, apiPrefix+"/me")) != 0 {
		endpointNotFound(w)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	me, err := h.userService.Me(identity(r))
	writeResult(w, r, http.StatusOK, me, err)
}

func identity(r *http.Request) *models.Identity {
	return utils.GetIdentity(r.Context())
}

func writeResult(w http.ResponseWriter, r *http.Request, status int, data interface{}, err error) {
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, status, data)
}

func writeNoContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		utils.RespondWithAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func collection[T any](items []T) models.CollectionResponse {
	if items == nil {
		items = []T{}
	}
	return models.CollectionResponse{Items: items, Count: len(items)}
}

func methodNotAllowed(w http.ResponseWriter) {
	utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func endpointNotFound(w http.ResponseWriter) {
	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

// decodeStatus reads the body of the explicit status transition endpoints
func decodeStatus(r *http.Request) (string, error) {
	var req models.UpdateStatusRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		return "", err
	}
	return req.Status, nil
}
