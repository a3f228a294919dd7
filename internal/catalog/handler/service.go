package handler

import (
	"net/http"

	"clinic/internal/catalog/service"
	httputil "clinic/pkg/http"
	"clinic/pkg/logger"
	"clinic/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CatalogHandler struct {
	service   service.CatalogService
	staffAuth func(httprouter.Handle) httprouter.Handle
	log       *logger.Logger
}

func NewCatalogHandler(service service.CatalogService, staffAuth func(httprouter.Handle) httprouter.Handle, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:   service,
		staffAuth: staffAuth,
		log:       log,
	}
}

// GetAll lists active services unless a status is asked for.
func (h *CatalogHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	filter := model.ServiceFilter{
		Status:   query.Get("status"),
		Category: query.Get("category"),
	}
	if filter.Status == "" {
		filter.Status = model.ServiceStatusActive
	}

	services, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, services)
}

func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	svc, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, svc)
}

func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, categories)
}

func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var svc model.Service
	if err := httputil.DecodeJSON(r, &svc); err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), &svc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, created)
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/services", h.GetAll)
	router.GET("/api/v1/services/categories", h.GetCategories)
	router.GET("/api/v1/services/id/:id", h.GetByID)
	router.POST("/api/v1/services", h.staffAuth(h.Create))
}
